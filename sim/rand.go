package sim

import (
	"math/rand"
	"time"

	"github.com/anapaya-labs/wsncollect/pkg/collect/link"
)

var _ link.Random = (*Rand)(nil)

// Rand wraps math/rand.Rand behind link.Random (spec §6's random_u16), so
// it can be seeded deterministically. Network.Open, which tests and
// cmd/wsnsim both use, seeds each node's Rand from its address.
type Rand struct {
	r *rand.Rand
}

// NewRand creates a Rand seeded with seed.
func NewRand(seed int64) *Rand {
	return &Rand{r: rand.New(rand.NewSource(seed))}
}

// Uint16 implements link.Random.
func (d *Rand) Uint16() uint16 {
	return uint16(d.r.Intn(1 << 16))
}

// Duration implements link.Random. It returns 0 if max <= 0.
func (d *Rand) Duration(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(d.r.Int63n(int64(max)))
}
