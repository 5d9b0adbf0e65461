// Package transform computes the geometry and color adjustments applied to a
// decoded frame before detection overlays are drawn.
package transform

import (
	"math"

	"golang.org/x/image/math/f64"
)

const (
	MinZoom = 0.1
	MaxZoom = 5.0
)

// Params are the user-facing view adjustments. The zero value is not
// meaningful; use Identity.
type Params struct {
	Zoom        float64
	RotationDeg float64
	FlipH       bool
	FlipV       bool
	Brightness  float64
	Contrast    float64
	Saturation  float64
}

// Identity returns parameters that render the source unmodified.
func Identity() Params {
	return Params{
		Zoom:       1,
		Brightness: 1,
		Contrast:   1,
		Saturation: 1,
	}
}

// Normalize clamps zoom into [MinZoom, MaxZoom] and floors the color factors
// at zero.
func (p Params) Normalize() Params {
	p.Zoom = ClampZoom(p.Zoom)
	if p.Brightness < 0 {
		p.Brightness = 0
	}
	if p.Contrast < 0 {
		p.Contrast = 0
	}
	if p.Saturation < 0 {
		p.Saturation = 0
	}
	return p
}

// IdentityColor reports whether the per-pixel color pass can be skipped.
func (p Params) IdentityColor() bool {
	return p.Brightness == 1 && p.Contrast == 1 && p.Saturation == 1
}

// ClampZoom bounds a zoom factor into [MinZoom, MaxZoom].
func ClampZoom(zoom float64) float64 {
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}

// Affine builds the surface-space transform: translate to center, rotate,
// flip via negative scale, translate back.
func (p Params) Affine(centerX, centerY float64) f64.Aff3 {
	theta := p.RotationDeg * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)

	sx, sy := 1.0, 1.0
	if p.FlipH {
		sx = -1
	}
	if p.FlipV {
		sy = -1
	}

	m := translate(centerX, centerY)
	m = mul(m, f64.Aff3{cos, -sin, 0, sin, cos, 0})
	m = mul(m, f64.Aff3{sx, 0, 0, 0, sy, 0})
	return mul(m, translate(-centerX, -centerY))
}

// IsIdentityAffine reports whether the affine step can be skipped.
func (p Params) IsIdentityAffine() bool {
	return p.RotationDeg == 0 && !p.FlipH && !p.FlipV
}

func translate(tx, ty float64) f64.Aff3 {
	return f64.Aff3{1, 0, tx, 0, 1, ty}
}

func mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3], a[0]*b[1] + a[1]*b[4], a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3], a[3]*b[1] + a[4]*b[4], a[3]*b[2] + a[4]*b[5] + a[5],
	}
}
