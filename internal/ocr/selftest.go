package ocr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/vritti-ai/invoice-extractor/internal/common"
)

const selfTestText = "TOTAL 123.45"

// SelfTest renders a known string, OCRs it, and checks the engine read
// something recognizable back. Run at startup to catch missing binaries or
// broken language packs before real documents arrive.
func (e *Engine) SelfTest(ctx context.Context) error {
	img, err := renderSelfTestImage()
	if err != nil {
		return common.EngineFailureError("render self-test image", err)
	}

	text, err := e.ExtractText(ctx, img)
	if err != nil {
		return err
	}
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
	if !strings.Contains(cleaned, "123") {
		return common.EngineFailureError("self-test text not recognized: "+text, nil)
	}
	return nil
}

func renderSelfTestImage() ([]byte, error) {
	const w, h = 400, 80
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(20, h/2),
	}
	d.DrawString(selfTestText)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
