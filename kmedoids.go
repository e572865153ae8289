package clustering

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// swapTolerance is the relative cost improvement a swap must exceed. It keeps
// rounding noise in the delta sums from cycling between equal-cost swaps.
const swapTolerance = 1e-12

// KMedoidsConfig controls K-Medoids (PAM) clustering.
// Start with [DefaultKMedoidsConfig] and override the fields you need.
type KMedoidsConfig struct {
	// K is the number of medoids. Must be in [1, TupleCount].
	K int

	// Medoids holds K distinct initial medoid tuple indices. If nil, Rand
	// draws K distinct tuples; if Rand is also nil, the first K tuples are
	// used.
	Medoids []int

	// Rand draws the initial medoids when Medoids is nil.
	Rand Rand

	// MaxSwaps caps the number of swaps. 0 means swap until no swap lowers
	// the cost. Default: 0.
	MaxSwaps int

	// Workers is the number of goroutines used to build the distance matrix
	// and evaluate swap candidates. 0 means runtime.NumCPU().
	Workers int

	// MatrixLimit is the largest TupleCount for which all pairwise distances
	// are precomputed. Larger data sets compute distances on demand.
	// Negative disables the matrix. Default: 2048.
	MatrixLimit int

	// Logger receives per-swap debug output. Default: no-op.
	Logger *zap.Logger
}

// DefaultKMedoidsConfig returns a KMedoidsConfig for k medoids seeded with
// the first k tuples.
func DefaultKMedoidsConfig(k int) KMedoidsConfig {
	return KMedoidsConfig{K: k, MatrixLimit: 2048}
}

// KMedoids is the result of the PAM swap phase.
type KMedoids struct {
	labels      []int
	medoidLabel []int
	clusterCnt  int
	medoids     []int
	cost        float64
	swaps       int
	desc        string
}

func applyKMedoidsDefaults(cfg *KMedoidsConfig) {
	if cfg.MatrixLimit == 0 {
		cfg.MatrixLimit = 2048
	}
	cfg.Workers = resolveWorkers(cfg.Workers)
}

func validateKMedoidsConfig(ds *DataSet, cfg *KMedoidsConfig) error {
	n := ds.TupleCount()
	if cfg.K < 1 {
		return invalidArgf("K must be >= 1, got %d", cfg.K)
	}
	if cfg.K > n {
		return invalidArgf("K must be <= TupleCount (%d), got %d", n, cfg.K)
	}
	if cfg.MaxSwaps < 0 {
		return invalidArgf("MaxSwaps must be >= 0, got %d", cfg.MaxSwaps)
	}
	if cfg.Medoids == nil {
		return nil
	}
	if len(cfg.Medoids) != cfg.K {
		return invalidArgf("Medoids has %d entries, want K = %d", len(cfg.Medoids), cfg.K)
	}
	seen := make(map[int]bool, cfg.K)
	for _, m := range cfg.Medoids {
		if m < 0 || m >= n {
			return invalidArgf("medoid %d is outside [0, %d)", m, n)
		}
		if seen[m] {
			return invalidArgf("medoid %d appears more than once", m)
		}
		seen[m] = true
	}
	return nil
}

// pamState is the working state of the swap phase. Slot c holds medoid
// tuple medoids[c]; for every tuple the cache records its nearest and
// second-nearest slot and the distance to each.
type pamState struct {
	n, k     int
	dist     func(a, b int) float64
	medoids  []int
	isMedoid []bool

	nearSlot   []int
	nearDist   []float64
	secondSlot []int
	secondDist []float64

	// bestDelta[q] and bestSlot[q] hold the best swap found for candidate q
	// in the current round.
	bestDelta []float64
	bestSlot  []int
}

func newPAMState(n int, medoids []int, dist func(a, b int) float64) *pamState {
	s := &pamState{
		n:          n,
		k:          len(medoids),
		dist:       dist,
		medoids:    medoids,
		isMedoid:   make([]bool, n),
		nearSlot:   make([]int, n),
		nearDist:   make([]float64, n),
		secondSlot: make([]int, n),
		secondDist: make([]float64, n),
		bestDelta:  make([]float64, n),
		bestSlot:   make([]int, n),
	}
	for _, m := range medoids {
		s.isMedoid[m] = true
	}
	for t := 0; t < n; t++ {
		s.rescan(t)
	}
	return s
}

// rescan recomputes the nearest and second-nearest slots of tuple t.
// Ties go to the lowest slot.
func (s *pamState) rescan(t int) {
	near, second := -1, -1
	nd, sd := math.Inf(1), math.Inf(1)
	for c, m := range s.medoids {
		d := s.dist(t, m)
		switch {
		case d < nd:
			second, sd = near, nd
			near, nd = c, d
		case d < sd:
			second, sd = c, d
		}
	}
	s.nearSlot[t], s.nearDist[t] = near, nd
	s.secondSlot[t], s.secondDist[t] = second, sd
}

func (s *pamState) cost() float64 {
	var sum float64
	for _, d := range s.nearDist {
		sum += d
	}
	return sum
}

// evaluate fills bestDelta and bestSlot for candidates q in [start, end).
//
// Replacing slot c by q changes the cost of tuple t by
//
//	min(second(t), d(t,q)) - near(t)   if t's nearest slot is c
//	min(d(t,q) - near(t), 0)           otherwise
//
// so one pass over the tuples yields the delta for every slot at once: the
// second form summed over all tuples, corrected for the tuples whose nearest
// slot is c.
func (s *pamState) evaluate(start, end int) {
	slotDelta := make([]float64, s.k)
	for q := start; q < end; q++ {
		if s.isMedoid[q] {
			s.bestDelta[q], s.bestSlot[q] = math.Inf(1), -1
			continue
		}
		for c := range slotDelta {
			slotDelta[c] = 0
		}
		var common float64
		for t := 0; t < s.n; t++ {
			dq := s.dist(t, q)
			gain := min(dq-s.nearDist[t], 0)
			common += gain
			c := s.nearSlot[t]
			slotDelta[c] += min(s.secondDist[t], dq) - s.nearDist[t] - gain
		}

		best, bestSlot := math.Inf(1), -1
		for c, d := range slotDelta {
			if delta := common + d; delta < best {
				best, bestSlot = delta, c
			}
		}
		s.bestDelta[q], s.bestSlot[q] = best, bestSlot
	}
}

// swap replaces slot c by tuple q and refreshes the cache. Tuples that
// pointed at slot c need a full rescan; every other tuple only has to be
// compared against q.
func (s *pamState) swap(c, q int) {
	s.isMedoid[s.medoids[c]] = false
	s.isMedoid[q] = true
	s.medoids[c] = q

	for t := 0; t < s.n; t++ {
		if s.nearSlot[t] == c || s.secondSlot[t] == c {
			s.rescan(t)
			continue
		}
		dq := s.dist(t, q)
		switch {
		case dq < s.nearDist[t]:
			s.secondSlot[t], s.secondDist[t] = s.nearSlot[t], s.nearDist[t]
			s.nearSlot[t], s.nearDist[t] = c, dq
		case dq < s.secondDist[t]:
			s.secondSlot[t], s.secondDist[t] = c, dq
		}
	}
}

// NewKMedoids clusters ds with the PAM swap phase. Each round evaluates every
// (medoid slot, non-medoid tuple) swap and performs the one that lowers the
// total distance to the nearest medoid the most, until no swap helps.
func NewKMedoids(ds *DataSet, cfg KMedoidsConfig) (*KMedoids, error) {
	applyKMedoidsDefaults(&cfg)
	if err := validateKMedoidsConfig(ds, &cfg); err != nil {
		return nil, err
	}
	log := loggerOrNop(cfg.Logger)
	n, k := ds.TupleCount(), cfg.K

	var medoids []int
	switch {
	case cfg.Medoids != nil:
		medoids = append([]int(nil), cfg.Medoids...)
	case cfg.Rand != nil:
		medoids = sampleDistinctTuples(cfg.Rand, n, k)
	default:
		medoids = make([]int, k)
		for c := range medoids {
			medoids[c] = c
		}
	}

	dist := ds.Dist
	if n <= cfg.MatrixLimit {
		matrix := PairwiseDistances(ds, cfg.Workers)
		dist = func(a, b int) float64 { return matrix[a*n+b] }
	}

	s := newPAMState(n, medoids, dist)
	cost := s.cost()
	log.Debug("kmedoids initial medoids", zap.Ints("medoids", medoids), zap.Float64("cost", cost))

	swaps := 0
	for {
		parallelRows(n, cfg.Workers, s.evaluate)

		bestDelta, bestSlot, bestQ := math.Inf(1), -1, -1
		for q := 0; q < n; q++ {
			if s.bestDelta[q] < bestDelta {
				bestDelta, bestSlot, bestQ = s.bestDelta[q], s.bestSlot[q], q
			}
		}
		if bestQ < 0 || bestDelta >= -swapTolerance*cost {
			break
		}
		if cfg.MaxSwaps > 0 && swaps >= cfg.MaxSwaps {
			log.Warn("kmedoids stopped before reaching a local optimum", zap.Int("max_swaps", cfg.MaxSwaps))
			break
		}

		old := s.medoids[bestSlot]
		s.swap(bestSlot, bestQ)
		cost = s.cost()
		swaps++
		log.Debug("kmedoids swap",
			zap.Int("slot", bestSlot),
			zap.Int("out", old),
			zap.Int("in", bestQ),
			zap.Float64("delta", bestDelta),
			zap.Float64("cost", cost))
	}

	// Final labels come from a fresh scan so ties resolve to the lowest slot
	// no matter how the cache evolved.
	assign := make([]int, n)
	for t := range assign {
		s.rescan(t)
		assign[t] = s.nearSlot[t]
	}
	labels, medoidLabel, count := compactLabels(assign, k)

	return &KMedoids{
		labels:      labels,
		medoidLabel: medoidLabel,
		clusterCnt:  count,
		medoids:     s.medoids,
		cost:        cost,
		swaps:       swaps,
		desc:        fmt.Sprintf("KMedoids(clusterCnt=%d)", k),
	}, nil
}

func (km *KMedoids) TupleCount() int     { return len(km.labels) }
func (km *KMedoids) ClusterCount() int   { return km.clusterCnt }
func (km *KMedoids) ClusterID(t int) int { return km.labels[t] }
func (km *KMedoids) String() string      { return km.desc }

// Medoids returns the final medoid tuple index of every slot.
func (km *KMedoids) Medoids() []int { return append([]int(nil), km.medoids...) }

// MedoidLabel returns the label of slot c, or 0 if another medoid at the same
// position took all of its tuples.
func (km *KMedoids) MedoidLabel(c int) int { return km.medoidLabel[c] }

// Cost returns the sum of distances from every tuple to its nearest medoid.
func (km *KMedoids) Cost() float64 { return km.cost }

// Swaps returns the number of swaps performed.
func (km *KMedoids) Swaps() int { return km.swaps }
