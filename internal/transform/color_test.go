package transform

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Pix = []uint8{
		200, 100, 40, 255,
		10, 10, 10, 128,
	}
	return img
}

func TestApplyColorIdentityLeavesPixels(t *testing.T) {
	img := newTestImage()
	before := append([]uint8(nil), img.Pix...)

	Identity().ApplyColor(img)
	assert.Equal(t, before, img.Pix)
}

func TestApplyColorBrightnessScalesAndClamps(t *testing.T) {
	img := newTestImage()
	p := Identity()
	p.Brightness = 2

	p.ApplyColor(img)
	require.Len(t, img.Pix, 8)
	assert.Equal(t, uint8(255), img.Pix[0], "200*2 clamps to 255")
	assert.Equal(t, uint8(200), img.Pix[1])
	assert.Equal(t, uint8(80), img.Pix[2])
	assert.Equal(t, uint8(255), img.Pix[3], "alpha untouched")
	assert.Equal(t, uint8(20), img.Pix[4])
	assert.Equal(t, uint8(128), img.Pix[7], "alpha untouched")
}

func TestApplyColorContrastCenteredAtMidGray(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Pix = []uint8{128, 178, 78, 255}
	p := Identity()
	p.Contrast = 2

	p.ApplyColor(img)
	assert.Equal(t, uint8(128), img.Pix[0], "mid-gray is the fixed point")
	assert.Equal(t, uint8(228), img.Pix[1])
	assert.Equal(t, uint8(28), img.Pix[2])
}

func TestApplyColorZeroSaturationIsLumaGray(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Pix = []uint8{200, 100, 40, 255}
	p := Identity()
	p.Saturation = 0

	p.ApplyColor(img)
	// 0.299*200 + 0.587*100 + 0.114*40 = 123.06 -> 123
	assert.Equal(t, uint8(123), img.Pix[0])
	assert.Equal(t, img.Pix[0], img.Pix[1])
	assert.Equal(t, img.Pix[1], img.Pix[2])
}

func TestApplyColorNilImage(t *testing.T) {
	p := Identity()
	p.Brightness = 2
	assert.NotPanics(t, func() { p.ApplyColor(nil) })
}
