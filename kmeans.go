package clustering

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// KMeansConfig controls K-Means clustering.
// Start with [DefaultKMeansConfig] and override the fields you need.
type KMeansConfig struct {
	// K is the number of centers. Must be >= 1.
	K int

	// Centers holds the initial centers, flat row-major with K*AttrCount
	// values. The slice is copied, never modified. If nil, Rand picks K
	// random tuples (with replacement) as seeds.
	Centers []float64

	// Rand seeds the centers when Centers is nil.
	Rand Rand

	// MaxIterations caps the number of assignment/update passes.
	// 0 means iterate until no tuple changes cluster. Hitting the cap logs a
	// warning unless another pass would move nothing. Default: 0.
	MaxIterations int

	// EmptyCluster decides what happens to a center that loses all of its
	// tuples. Default: EmptyClusterKeep.
	EmptyCluster EmptyClusterPolicy

	// Logger receives per-pass debug output. Default: no-op.
	Logger *zap.Logger
}

// DefaultKMeansConfig returns a KMeansConfig for k clusters seeded from rng.
func DefaultKMeansConfig(k int, rng Rand) KMeansConfig {
	return KMeansConfig{K: k, Rand: rng}
}

// KMeans is the result of Lloyd's algorithm.
type KMeans struct {
	labels      []int
	centerLabel []int
	clusterCnt  int
	centers     []float64
	attrCount   int
	iterations  int
	history     []float64
	desc        string
}

func validateKMeansConfig(ds *DataSet, cfg *KMeansConfig) error {
	if cfg.K < 1 {
		return invalidArgf("K must be >= 1, got %d", cfg.K)
	}
	if cfg.MaxIterations < 0 {
		return invalidArgf("MaxIterations must be >= 0, got %d", cfg.MaxIterations)
	}
	if err := validateEmptyClusterPolicy(cfg.EmptyCluster); err != nil {
		return err
	}
	if cfg.Centers != nil {
		if want := cfg.K * ds.AttrCount(); len(cfg.Centers) < want {
			return invalidArgf("Centers length %d is shorter than K*AttrCount = %d", len(cfg.Centers), want)
		}
		return nil
	}
	if cfg.Rand == nil {
		return invalidArgf("either Centers or Rand is required")
	}
	if ds.TupleCount() == 0 {
		return invalidArgf("cannot seed %d centers from an empty data set", cfg.K)
	}
	return nil
}

// NewKMeans clusters ds with Lloyd's algorithm: each pass assigns every tuple
// to its nearest center (ties go to the lowest center index) and moves every
// center to the mean of its tuples, until a full pass changes no assignment.
func NewKMeans(ds *DataSet, cfg KMeansConfig) (*KMeans, error) {
	if err := validateKMeansConfig(ds, &cfg); err != nil {
		return nil, err
	}
	log := loggerOrNop(cfg.Logger)

	k, attrs, n := cfg.K, ds.AttrCount(), ds.TupleCount()
	centers := make([]float64, k*attrs)
	if cfg.Centers != nil {
		copy(centers, cfg.Centers)
	} else {
		for c, t := range sampleTuples(cfg.Rand, n, k) {
			copy(centers[c*attrs:], ds.Tuple(t))
		}
	}

	assign := make([]int, n)
	for t := range assign {
		assign[t] = -1
	}
	sums := make([]float64, k*attrs)
	counts := make([]int, k)
	var history []float64

	iter := 0
	for changed := true; changed; {
		if cfg.MaxIterations > 0 && iter >= cfg.MaxIterations {
			if !assignmentStable(ds, assign, centers, k) {
				log.Warn("kmeans stopped before convergence", zap.Int("max_iterations", cfg.MaxIterations))
			}
			break
		}
		iter++
		changed = false
		moved := 0
		var sse float64

		for t := 0; t < n; t++ {
			best, bestDist := nearestCenter(ds, t, centers, k)
			if assign[t] != best {
				changed = true
				moved++
				assign[t] = best
			}
			sse += bestDist
			floats.Add(sums[best*attrs:(best+1)*attrs], ds.Tuple(t))
			counts[best]++
		}
		history = append(history, sse)

		for c := 0; c < k; c++ {
			sum := sums[c*attrs : (c+1)*attrs]
			if counts[c] == 0 {
				if cfg.EmptyCluster == EmptyClusterFail {
					return nil, degeneratef("kmeans center %d has no tuples after pass %d", c, iter)
				}
				log.Debug("kmeans keeping stale center", zap.Int("center", c), zap.Int("pass", iter))
			} else {
				floats.ScaleTo(centers[c*attrs:(c+1)*attrs], 1/float64(counts[c]), sum)
			}
			for i := range sum {
				sum[i] = 0
			}
			counts[c] = 0
		}
		log.Debug("kmeans pass", zap.Int("pass", iter), zap.Int("moved", moved), zap.Float64("sse", sse))
	}

	labels, centerLabel, count := compactLabels(assign, k)

	return &KMeans{
		labels:      labels,
		centerLabel: centerLabel,
		clusterCnt:  count,
		centers:     centers,
		attrCount:   attrs,
		iterations:  iter,
		history:     history,
		desc:        fmt.Sprintf("KMeans(clusterCnt=%d)", k),
	}, nil
}

// nearestCenter returns the index of the center closest to tuple t and the
// squared distance to it. Ties go to the lowest index.
func nearestCenter(ds *DataSet, t int, centers []float64, k int) (int, float64) {
	attrs := ds.AttrCount()
	best, bestDist := 0, math.Inf(1)
	for c := 0; c < k; c++ {
		if d := ds.DistSqTo(t, centers[c*attrs:(c+1)*attrs]); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}

// assignmentStable reports whether every tuple is already assigned to its
// nearest center, i.e. another pass would move nothing.
func assignmentStable(ds *DataSet, assign []int, centers []float64, k int) bool {
	for t, c := range assign {
		if best, _ := nearestCenter(ds, t, centers, k); best != c {
			return false
		}
	}
	return true
}

func (km *KMeans) TupleCount() int     { return len(km.labels) }
func (km *KMeans) ClusterCount() int   { return km.clusterCnt }
func (km *KMeans) ClusterID(t int) int { return km.labels[t] }
func (km *KMeans) String() string      { return km.desc }

// Centers returns a copy of the final centers, one row per initial center.
// Rows of centers that ended empty hold their last position.
func (km *KMeans) Centers() [][]float64 {
	return splitRows(km.centers, km.attrCount)
}

// CenterLabel returns the label assigned to center c, or 0 if the center
// ended with no tuples.
func (km *KMeans) CenterLabel(c int) int { return km.centerLabel[c] }

// Iterations returns the number of assignment passes performed.
func (km *KMeans) Iterations() int { return km.iterations }

// History returns the within-cluster sum of squared distances measured in
// the assignment step of every pass. It never increases from one pass to
// the next.
func (km *KMeans) History() []float64 {
	return append([]float64(nil), km.history...)
}

// Inertia returns the within-cluster sum of squared distances of the final
// assignment, or 0 for an empty data set.
func (km *KMeans) Inertia() float64 {
	if len(km.history) == 0 {
		return 0
	}
	return km.history[len(km.history)-1]
}

func splitRows(flat []float64, width int) [][]float64 {
	rows := make([][]float64, len(flat)/width)
	for i := range rows {
		rows[i] = append([]float64(nil), flat[i*width:(i+1)*width]...)
	}
	return rows
}
