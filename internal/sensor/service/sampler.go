package service

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/smallbiznis/fieldwatch/internal/sensor/domain"
)

type uniformSampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler draws uniform readings from the runtime's seeded source.
func NewSampler() domain.Sampler {
	return &uniformSampler{}
}

// NewSeededSampler makes readings reproducible.
func NewSeededSampler(seed uint64) domain.Sampler {
	return &uniformSampler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *uniformSampler) Sample(spec domain.Spec) float64 {
	var f float64
	if s.rng == nil {
		f = rand.Float64()
	} else {
		s.mu.Lock()
		f = s.rng.Float64()
		s.mu.Unlock()
	}
	value := spec.Min + f*(spec.Max-spec.Min)
	value = math.Round(value*100) / 100
	// rounding can step past the upper bound
	return math.Min(math.Max(value, spec.Min), spec.Max)
}
