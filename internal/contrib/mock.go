package contrib

import (
	"context"
	"math/rand/v2"
	"time"
)

// MockSource synthesizes a plausible activity grid without network access.
type MockSource struct {
	rng *rand.Rand
}

// NewMockSource creates a MockSource drawing from rng.
// A nil rng gets a time-seeded source, so each run differs.
func NewMockSource(rng *rand.Rand) *MockSource {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return &MockSource{rng: rng}
}

// Fetch returns a fresh random grid. Roughly 70% of weeks are active and
// half the days in an active week carry a level in 1..4.
func (m *MockSource) Fetch(ctx context.Context) (*Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var g Grid
	for w := 0; w < Weeks; w++ {
		if m.rng.Float64() <= 0.3 {
			continue
		}
		for d := 0; d < Days; d++ {
			if m.rng.Float64() > 0.5 {
				g[w][d] = Level(m.rng.IntN(int(MaxLevel)) + 1)
			}
		}
	}
	return &g, nil
}
