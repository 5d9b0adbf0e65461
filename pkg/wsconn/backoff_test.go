package wsconn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffSchedule(t *testing.T) {
	b := Backoff{Base: 3000 * time.Millisecond, Max: 30000 * time.Millisecond, Factor: 2}

	want := []time.Duration{
		3000 * time.Millisecond,
		6000 * time.Millisecond,
		12000 * time.Millisecond,
		24000 * time.Millisecond,
		30000 * time.Millisecond, // capped
	}
	for i, expected := range want {
		assert.Equal(t, expected, b.Next(i+1), "attempt %d", i+1)
	}

	// Past the cap the delay stays capped.
	assert.Equal(t, 30000*time.Millisecond, b.Next(6))
	assert.Equal(t, 30000*time.Millisecond, b.Next(20))
}

func TestBackoffDefaults(t *testing.T) {
	var b Backoff
	assert.Equal(t, 3*time.Second, b.Next(0))
	assert.Equal(t, 3*time.Second, b.Next(1))
	assert.Equal(t, 6*time.Second, b.Next(2))

	d := DefaultBackoff()
	assert.Equal(t, 3*time.Second, d.Base)
	assert.Equal(t, 30*time.Second, d.Max)
}
