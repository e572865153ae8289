package clustering

// Rand is the source of randomness consumed by the algorithms that need
// random seeding or sampling. *math/rand/v2.Rand satisfies it.
//
// Draws are consumed in a fixed order, so the same seeded source handed to
// the same sequence of calls reproduces the same results. No package-level
// generator is ever used.
type Rand interface {
	// IntN returns a uniform integer in [0, n). It panics if n <= 0.
	IntN(n int) int

	// Float64 returns a uniform float in [0, 1).
	Float64() float64

	// NormFloat64 returns a standard normal deviate.
	NormFloat64() float64
}

// sampleTuples draws k tuple indices in [0, n) with replacement.
func sampleTuples(rng Rand, n, k int) []int {
	out := make([]int, k)
	for i := range out {
		out[i] = rng.IntN(n)
	}
	return out
}

// sampleDistinctTuples draws k distinct tuple indices in [0, n) with a
// partial Fisher-Yates shuffle. k must not exceed n.
func sampleDistinctTuples(rng Rand, n, k int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm[:k:k]
}
