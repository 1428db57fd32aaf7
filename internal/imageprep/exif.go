package imageprep

import (
	"encoding/binary"
	"image"

	"golang.org/x/image/draw"
)

// jpegOrientation pulls the EXIF orientation tag (1..8) out of a JPEG's
// APP1 segment. Returns 1 (upright) for non-JPEG data, missing EXIF, or
// anything malformed. Only the one tag is read; full EXIF parsing is not
// needed here.
func jpegOrientation(data []byte) int {
	const upright = 1
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return upright
	}

	// Walk JPEG segments looking for APP1/Exif.
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return upright
		}
		marker := data[i+1]
		if marker == 0xDA { // start of scan, no EXIF past here
			return upright
		}
		segLen := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if segLen < 2 || i+2+segLen > len(data) {
			return upright
		}
		if marker == 0xE1 {
			return parseExifOrientation(data[i+4 : i+2+segLen])
		}
		i += 2 + segLen
	}
	return upright
}

func parseExifOrientation(seg []byte) int {
	const upright = 1
	if len(seg) < 14 || string(seg[:6]) != "Exif\x00\x00" {
		return upright
	}
	tiff := seg[6:]

	var order binary.ByteOrder
	switch {
	case tiff[0] == 'I' && tiff[1] == 'I':
		order = binary.LittleEndian
	case tiff[0] == 'M' && tiff[1] == 'M':
		order = binary.BigEndian
	default:
		return upright
	}
	if order.Uint16(tiff[2:4]) != 0x002A {
		return upright
	}

	ifdOff := int(order.Uint32(tiff[4:8]))
	if ifdOff+2 > len(tiff) {
		return upright
	}
	count := int(order.Uint16(tiff[ifdOff : ifdOff+2]))
	for n := 0; n < count; n++ {
		entry := ifdOff + 2 + n*12
		if entry+12 > len(tiff) {
			return upright
		}
		if order.Uint16(tiff[entry:entry+2]) == 0x0112 { // Orientation
			v := int(order.Uint16(tiff[entry+8 : entry+10]))
			if v >= 1 && v <= 8 {
				return v
			}
			return upright
		}
	}
	return upright
}

// applyOrientation rotates/flips the image so it reads upright. Orientation
// values follow the EXIF convention.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return transform(img, func(w, h, x, y int) (int, int) { return w - 1 - x, y })
	case 3:
		return transform(img, func(w, h, x, y int) (int, int) { return w - 1 - x, h - 1 - y })
	case 4:
		return transform(img, func(w, h, x, y int) (int, int) { return x, h - 1 - y })
	case 5:
		return transformSwap(img, func(w, h, x, y int) (int, int) { return y, x })
	case 6:
		return transformSwap(img, func(w, h, x, y int) (int, int) { return w - 1 - y, x })
	case 7:
		return transformSwap(img, func(w, h, x, y int) (int, int) { return w - 1 - y, h - 1 - x })
	case 8:
		return transformSwap(img, func(w, h, x, y int) (int, int) { return y, h - 1 - x })
	default:
		return img
	}
}

// transform maps source pixels into a same-size destination.
func transform(img image.Image, src func(w, h, x, y int) (int, int)) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := src(w, h, x, y)
			out.Set(x, y, rgba.At(sx, sy))
		}
	}
	return out
}

// transformSwap maps source pixels into a width/height-swapped destination.
func transformSwap(img image.Image, src func(w, h, x, y int) (int, int)) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	out := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < w; y++ {
		for x := 0; x < h; x++ {
			sx, sy := src(w, h, x, y)
			out.Set(x, y, rgba.At(sx, sy))
		}
	}
	return out
}
