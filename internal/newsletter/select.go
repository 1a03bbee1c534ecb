// Package newsletter picks tips for an issue and renders them for email delivery.
package newsletter

import (
	"errors"
	"math/rand/v2"
	"time"

	"TipCurator/internal/domain"
)

// ErrInsufficientTips aborts a newsletter run when the corpus is too small.
var ErrInsufficientTips = errors.New("not enough tips for a newsletter issue")

// Selector spreads an issue across categories: category order is shuffled,
// then one random remaining tip is taken from each category per cycle.
type Selector struct {
	rng *rand.Rand
}

// NewSelector uses rng when given, otherwise a time-seeded source.
func NewSelector(rng *rand.Rand) *Selector {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Selector{rng: rng}
}

// Select returns up to count entries. The input slice is not modified.
func (s *Selector) Select(entries []domain.Entry, count int) []domain.Entry {
	if count <= 0 || len(entries) == 0 {
		return nil
	}

	var order []string
	pools := map[string][]domain.Entry{}
	for _, e := range entries {
		if _, ok := pools[e.Category]; !ok {
			order = append(order, e.Category)
		}
		pools[e.Category] = append(pools[e.Category], e)
	}

	s.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	selected := make([]domain.Entry, 0, min(count, len(entries)))
	for len(selected) < count {
		progressed := false
		for _, cat := range order {
			pool := pools[cat]
			if len(pool) == 0 {
				continue
			}
			i := s.rng.IntN(len(pool))
			selected = append(selected, pool[i])
			pool[i] = pool[len(pool)-1]
			pools[cat] = pool[:len(pool)-1]
			progressed = true
			if len(selected) == count {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return selected
}
