package compositor

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"main/internal/model"
	"main/internal/model/enum"
)

const (
	boxThickness = 2
	chipPadding  = 3
)

var (
	cattleGreen   = color.NRGBA{R: 0x11, G: 0x8a, B: 0x28, A: 0xff}
	peopleBlue    = color.NRGBA{R: 0x00, G: 0x96, B: 0xff, A: 0xff}
	huntingOrange = color.NRGBA{R: 0xff, G: 0x8c, B: 0x00, A: 0xff}
)

func modeColor(mode enum.Mode) color.NRGBA {
	switch mode {
	case enum.ModePeople:
		return peopleBlue
	case enum.ModeHunting:
		return huntingOrange
	default:
		return cattleGreen
	}
}

// drawDetections paints every detection as a box outline plus a label
// chip. Coordinates are used as-is in surface pixels; overlays do not
// follow the view transform.
func drawDetections(dst *image.NRGBA, set model.DetectionSet, mode enum.Mode) {
	c := modeColor(mode)
	for _, d := range set.Detections {
		rect := image.Rect(int(d.BBox[0]), int(d.BBox[1]), int(d.BBox[2]), int(d.BBox[3]))
		rect = rect.Intersect(dst.Bounds())
		if rect.Empty() {
			continue
		}

		drawBox(dst, rect, c)
		drawLabelChip(dst, rect, fmt.Sprintf("%s %.0f%%", d.Label, d.Confidence*100), c)
	}
}

func drawBox(dst *image.NRGBA, rect image.Rectangle, c color.NRGBA) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+boxThickness),
		image.Rect(rect.Min.X, rect.Max.Y-boxThickness, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+boxThickness, rect.Max.Y),
		image.Rect(rect.Max.X-boxThickness, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}

	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}

func drawLabelChip(dst *image.NRGBA, rect image.Rectangle, label string, c color.NRGBA) {
	face := basicfont.Face7x13
	textW := font.MeasureString(face, label).Ceil()
	chipH := face.Metrics().Height.Ceil() + 2*chipPadding
	chipW := textW + 2*chipPadding

	// Prefer the chip above the box; fall back to inside the top edge
	// when the box sits against the surface top.
	chipTop := rect.Min.Y - chipH
	if chipTop < dst.Bounds().Min.Y {
		chipTop = rect.Min.Y
	}

	chip := image.Rect(rect.Min.X, chipTop, rect.Min.X+chipW, chipTop+chipH)
	draw.Draw(dst, chip.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.NRGBA{A: 0xff}),
		Face: face,
		Dot: fixed.P(
			rect.Min.X+chipPadding,
			chipTop+chipPadding+face.Metrics().Ascent.Ceil(),
		),
	}
	drawer.DrawString(label)
}
