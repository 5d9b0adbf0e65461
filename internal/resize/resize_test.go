package resize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDragResizesFromPressPoint(t *testing.T) {
	var previews [][2]int
	committed := [2]int{}

	c := New(640, 360, Option{
		OnPreview: func(w, h int) { previews = append(previews, [2]int{w, h}) },
		OnCommit:  func(w, h int) { committed = [2]int{w, h} },
	})

	c.PointerDown(1000, 500)
	assert.True(t, c.Dragging())

	c.PointerMove(1040, 520)
	c.PointerMove(1100, 510)
	c.PointerUp(1100, 510)

	assert.False(t, c.Dragging())
	assert.Equal(t, [][2]int{{680, 380}, {740, 370}}, previews)
	assert.Equal(t, [2]int{740, 370}, committed)

	w, h := c.Size()
	assert.Equal(t, 740, w)
	assert.Equal(t, 370, h)
}

func TestDragClampsToBounds(t *testing.T) {
	c := New(640, 360, Option{
		MinWidth: 320, MinHeight: 180,
		MaxWidth: 800, MaxHeight: 450,
	})

	c.PointerDown(0, 0)
	c.PointerMove(-5000, -5000)

	w, h := c.Size()
	assert.Equal(t, 320, w)
	assert.Equal(t, 180, h)

	c.PointerMove(5000, 5000)
	c.PointerUp(5000, 5000)

	w, h = c.Size()
	assert.Equal(t, 800, w)
	assert.Equal(t, 450, h)
}

func TestNoCommitWhenSizeUnchanged(t *testing.T) {
	commits := 0
	c := New(640, 360, Option{
		OnCommit: func(int, int) { commits++ },
	})

	c.PointerDown(100, 100)
	c.PointerMove(120, 100)
	c.PointerMove(100, 100)
	c.PointerUp(100, 100)

	assert.Zero(t, commits)
}

func TestMoveWithoutDragIsNoop(t *testing.T) {
	previews := 0
	c := New(640, 360, Option{
		OnPreview: func(int, int) { previews++ },
	})

	c.PointerMove(900, 900)
	c.PointerUp(900, 900)

	assert.Zero(t, previews)

	w, h := c.Size()
	assert.Equal(t, 640, w)
	assert.Equal(t, 360, h)
}

func TestInitialSizeClamped(t *testing.T) {
	c := New(10, 9000)

	w, h := c.Size()
	assert.Equal(t, DefaultMinWidth, w)
	assert.Equal(t, DefaultMaxHeight, h)
}
