package schedule

import "math/rand"

// systemRand adapts the process-global math/rand source, which is safe
// for concurrent use, unlike individual *rand.Rand instances.
type systemRand struct{}

func (systemRand) Intn(n int) int   { return rand.Intn(n) }
func (systemRand) Float64() float64 { return rand.Float64() }

// SystemRand returns the production randomness source.
func SystemRand() Rand {
	return systemRand{}
}
