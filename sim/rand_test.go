package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRandDurationIsWithinBounds(t *testing.T) {
	r := NewRand(1)
	max := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		d := r.Duration(max)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, max)
	}
}

func TestRandDurationNonPositiveMaxIsZero(t *testing.T) {
	r := NewRand(1)
	assert.Equal(t, time.Duration(0), r.Duration(0))
	assert.Equal(t, time.Duration(0), r.Duration(-1))
}

func TestRandSameSeedIsDeterministic(t *testing.T) {
	a := NewRand(42)
	b := NewRand(42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Uint16(), b.Uint16())
	}
}
