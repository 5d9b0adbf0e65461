package transform

import "image"

// ApplyColor runs the per-pixel brightness/contrast/saturation pass in place:
// brightness as a multiplicative scale, contrast as gain/offset centered at
// mid-gray (128), saturation as a blend toward the Rec.601 luminance gray.
// Every channel is clamped to [0, 255] after each step. Alpha is untouched.
func (p Params) ApplyColor(img *image.NRGBA) {
	if img == nil || p.IdentityColor() {
		return
	}

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[(y-bounds.Min.Y)*img.Stride:]
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := (x - bounds.Min.X) * 4
			r := float64(row[i])
			g := float64(row[i+1])
			b := float64(row[i+2])

			if p.Brightness != 1 {
				r = clampChannel(r * p.Brightness)
				g = clampChannel(g * p.Brightness)
				b = clampChannel(b * p.Brightness)
			}
			if p.Contrast != 1 {
				r = clampChannel((r-128)*p.Contrast + 128)
				g = clampChannel((g-128)*p.Contrast + 128)
				b = clampChannel((b-128)*p.Contrast + 128)
			}
			if p.Saturation != 1 {
				luma := 0.299*r + 0.587*g + 0.114*b
				r = clampChannel(luma + (r-luma)*p.Saturation)
				g = clampChannel(luma + (g-luma)*p.Saturation)
				b = clampChannel(luma + (b-luma)*p.Saturation)
			}

			row[i] = uint8(r + 0.5)
			row[i+1] = uint8(g + 0.5)
			row[i+2] = uint8(b + 0.5)
		}
	}
}

func clampChannel(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
