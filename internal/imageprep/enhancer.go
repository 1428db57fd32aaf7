// Package imageprep conditions scanned images before text extraction.
// Cloud engines want a modest contrast lift and enough resolution; local
// OCR wants a hard-thresholded, denoised grayscale. Every stage degrades
// gracefully: on any failure the caller gets the original bytes back.
package imageprep

import (
	"bytes"
	"image"
	"image/png"
	"log/slog"

	_ "image/jpeg"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

const (
	darkMeanCutoff   = 100
	brightMeanCutoff = 180
	minCloudDim      = 1000
)

// Enhancer applies the per-backend preprocessing pipelines.
type Enhancer struct {
	logger *slog.Logger
}

func NewEnhancer(logger *slog.Logger) *Enhancer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enhancer{logger: logger}
}

// ForCloud prepares an image for a cloud document engine: orientation fix,
// mild contrast, and upscaling when the smaller dimension is below 1000px.
// On any failure the original bytes are returned unchanged.
func (e *Enhancer) ForCloud(data []byte) []byte {
	img, err := decodeOriented(data)
	if err != nil {
		e.logger.Warn("imageprep.decode_failed", "stage", "cloud", "error", err)
		return data
	}

	rgba := toRGBA(img)
	adjustBrightnessContrast(rgba, 1.0, 1.25)

	b := rgba.Bounds()
	if minDim := minInt(b.Dx(), b.Dy()); minDim < minCloudDim {
		scale := float64(minCloudDim) / float64(minDim)
		dst := image.NewRGBA(image.Rect(0, 0, int(float64(b.Dx())*scale), int(float64(b.Dy())*scale)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), rgba, b, draw.Over, nil)
		rgba = dst
	}

	out, err := encodePNG(rgba)
	if err != nil {
		e.logger.Warn("imageprep.encode_failed", "stage", "cloud", "error", err)
		return data
	}
	return out
}

// ForOCR prepares an image for local OCR: orientation fix, grayscale,
// brightness regime from the histogram mean, unsharp mask, local contrast,
// adaptive threshold, and a morphological close to heal broken glyphs.
// On any failure the original bytes are returned unchanged.
func (e *Enhancer) ForOCR(data []byte) []byte {
	img, err := decodeOriented(data)
	if err != nil {
		e.logger.Warn("imageprep.decode_failed", "stage", "ocr", "error", err)
		return data
	}

	gray := toGray(img)
	mean := histogramMean(gray)

	// Dark scans get lifted harder than washed-out ones.
	brightness, contrast := 1.1, 1.3
	switch {
	case mean < darkMeanCutoff:
		brightness, contrast = 1.2, 1.4
	case mean > brightMeanCutoff:
		brightness, contrast = 0.9, 1.2
	}
	adjustGray(gray, brightness, contrast)

	gray = unsharpMask(gray, 1, 1.5, 3)
	gray = localContrast(gray)
	bin := adaptiveThreshold(gray)
	bin = morphClose(bin)

	out, err := encodePNG(bin)
	if err != nil {
		e.logger.Warn("imageprep.encode_failed", "stage", "ocr", "error", err)
		return data
	}
	e.logger.Debug("imageprep.ocr_ready", "histogramMean", mean)
	return out
}

func decodeOriented(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return applyOrientation(img, jpegOrientation(data)), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toRGBA(img image.Image) *image.RGBA {
	if r, ok := img.(*image.RGBA); ok {
		return r
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		cp := image.NewGray(g.Bounds())
		copy(cp.Pix, g.Pix)
		return cp
	}
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func histogramMean(g *image.Gray) float64 {
	if len(g.Pix) == 0 {
		return 0
	}
	var sum uint64
	for _, p := range g.Pix {
		sum += uint64(p)
	}
	return float64(sum) / float64(len(g.Pix))
}

// adjustGray scales pixel values around mid-gray: brightness is a plain
// multiplier, contrast expands distance from 128.
func adjustGray(g *image.Gray, brightness, contrast float64) {
	for i, p := range g.Pix {
		v := float64(p) * brightness
		v = (v-128)*contrast + 128
		g.Pix[i] = clampByte(v)
	}
}

func adjustBrightnessContrast(img *image.RGBA, brightness, contrast float64) {
	for i := 0; i < len(img.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := float64(img.Pix[i+c]) * brightness
			v = (v-128)*contrast + 128
			img.Pix[i+c] = clampByte(v)
		}
	}
}

// unsharpMask sharpens by subtracting a box blur: out = in + amount*(in-blur),
// applied only where the difference exceeds the threshold.
func unsharpMask(g *image.Gray, radius int, amount float64, threshold int) *image.Gray {
	blurred := boxBlur(g, radius)
	out := image.NewGray(g.Bounds())
	for i := range g.Pix {
		diff := int(g.Pix[i]) - int(blurred.Pix[i])
		if diff < 0 {
			diff = -diff
		}
		if diff <= threshold {
			out.Pix[i] = g.Pix[i]
			continue
		}
		v := float64(g.Pix[i]) + amount*(float64(g.Pix[i])-float64(blurred.Pix[i]))
		out.Pix[i] = clampByte(v)
	}
	return out
}

func boxBlur(g *image.Gray, radius int) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum, n := 0, 0
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					sum += int(g.Pix[ny*g.Stride+nx])
					n++
				}
			}
			out.Pix[y*out.Stride+x] = uint8(sum / n)
		}
	}
	return out
}

// localContrast stretches each tile's histogram toward the full range,
// which evens out uneven lighting across a photographed page.
func localContrast(g *image.Gray) *image.Gray {
	const tile = 64
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	for ty := 0; ty < h; ty += tile {
		for tx := 0; tx < w; tx += tile {
			x1, y1 := minInt(tx+tile, w), minInt(ty+tile, h)
			lo, hi := uint8(255), uint8(0)
			for y := ty; y < y1; y++ {
				for x := tx; x < x1; x++ {
					p := g.Pix[y*g.Stride+x]
					if p < lo {
						lo = p
					}
					if p > hi {
						hi = p
					}
				}
			}
			span := int(hi) - int(lo)
			for y := ty; y < y1; y++ {
				for x := tx; x < x1; x++ {
					p := g.Pix[y*g.Stride+x]
					if span < 16 {
						out.Pix[y*out.Stride+x] = p
						continue
					}
					out.Pix[y*out.Stride+x] = uint8((int(p) - int(lo)) * 255 / span)
				}
			}
		}
	}
	return out
}

// adaptiveThreshold binarizes against a local mean with a small bias,
// keeping text dark under gradients a global threshold would smear.
func adaptiveThreshold(g *image.Gray) *image.Gray {
	const radius, bias = 7, 10
	local := boxBlur(g, radius)
	out := image.NewGray(g.Bounds())
	for i := range g.Pix {
		if int(g.Pix[i]) < int(local.Pix[i])-bias {
			out.Pix[i] = 0
		} else {
			out.Pix[i] = 255
		}
	}
	return out
}

// morphClose runs a 3x3 dilate-then-erode on the dark (text) pixels,
// reconnecting strokes the threshold broke apart.
func morphClose(g *image.Gray) *image.Gray {
	return erodeDark(dilateDark(g))
}

// dilateDark grows dark regions: a pixel goes dark if any neighbor is dark.
func dilateDark(g *image.Gray) *image.Gray {
	return morph(g, func(anyDark, allDark bool) bool { return anyDark })
}

// erodeDark shrinks dark regions: a pixel stays dark only if all
// neighbors are dark.
func erodeDark(g *image.Gray) *image.Gray {
	return morph(g, func(anyDark, allDark bool) bool { return allDark })
}

func morph(g *image.Gray, dark func(anyDark, allDark bool) bool) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			anyDark, allDark := false, true
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					if g.Pix[ny*g.Stride+nx] == 0 {
						anyDark = true
					} else {
						allDark = false
					}
				}
			}
			if dark(anyDark, allDark) {
				out.Pix[y*out.Stride+x] = 0
			} else {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

func clampByte(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
