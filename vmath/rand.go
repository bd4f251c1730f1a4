package vmath

// FastRand is a xorshift64 generator
// Deterministic for a given seed; one instance per session, not goroutine-safe
type FastRand struct {
	state uint64
}

func NewFastRand(seed uint64) *FastRand {
	if seed == 0 {
		seed = 1
	}
	return &FastRand{state: seed}
}

func (r *FastRand) Next() uint64 {
	x := r.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	r.state = x
	return x
}

func (r *FastRand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Next() % uint64(n))
}

// Float64 returns a value in [0, 1) using the top 53 bits
func (r *FastRand) Float64() float64 {
	return float64(r.Next()>>11) / (1 << 53)
}

// Range returns a value in [lo, hi)
func (r *FastRand) Range(lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

// UnitVec3 returns a random direction, uniform enough for impulse jitter
func (r *FastRand) UnitVec3() Vec3 {
	for i := 0; i < 8; i++ {
		v := Vec3{r.Range(-1, 1), r.Range(-1, 1), r.Range(-1, 1)}
		if m := V3MagSq(v); m > 1e-6 && m <= 1 {
			return V3Normalize(v)
		}
	}
	return WorldUp
}
