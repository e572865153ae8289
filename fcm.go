package clustering

import (
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// FuzzyCMeansConfig controls fuzzy c-means clustering with fuzzifier 2.
// Start with [DefaultFuzzyCMeansConfig] and override the fields you need.
type FuzzyCMeansConfig struct {
	// C is the number of centers. Must be >= 1.
	C int

	// Centers holds the initial centers, flat row-major with C*AttrCount
	// values. If nil, the first C tuples are used.
	Centers []float64

	// Tolerance is the largest per-coordinate center movement that counts as
	// converged. Must be >= 0; 0 selects the default, so exact convergence
	// is not expressible. Default: 1e-6.
	Tolerance float64

	// MaxIterations caps the number of update passes. 0 means iterate until
	// converged. Default: 0.
	MaxIterations int

	// EmptyCluster decides what happens to a center whose total membership
	// weight is zero. Default: EmptyClusterKeep.
	EmptyCluster EmptyClusterPolicy

	// Logger receives per-pass debug output. Default: no-op.
	Logger *zap.Logger
}

// DefaultFuzzyCMeansConfig returns a FuzzyCMeansConfig for c clusters
// seeded with the first c tuples.
func DefaultFuzzyCMeansConfig(c int) FuzzyCMeansConfig {
	return FuzzyCMeansConfig{C: c, Tolerance: 1e-6}
}

// FuzzyCMeans is the result of fuzzy c-means clustering. Every tuple has a
// membership in each center, summing to 1; ClusterID reports the center of
// largest membership.
type FuzzyCMeans struct {
	labels      []int
	centerLabel []int
	clusterCnt  int
	membership  *mat.Dense // C × TupleCount
	centers     []float64
	attrCount   int
	iterations  int
	desc        string
}

func applyFuzzyCMeansDefaults(cfg *FuzzyCMeansConfig) {
	if cfg.Tolerance == 0 {
		cfg.Tolerance = 1e-6
	}
}

func validateFuzzyCMeansConfig(ds *DataSet, cfg *FuzzyCMeansConfig) error {
	if cfg.C < 1 {
		return invalidArgf("C must be >= 1, got %d", cfg.C)
	}
	if !(cfg.Tolerance >= 0) {
		return invalidArgf("Tolerance must be >= 0, got %f", cfg.Tolerance)
	}
	if cfg.MaxIterations < 0 {
		return invalidArgf("MaxIterations must be >= 0, got %d", cfg.MaxIterations)
	}
	if err := validateEmptyClusterPolicy(cfg.EmptyCluster); err != nil {
		return err
	}
	if cfg.Centers != nil {
		if want := cfg.C * ds.AttrCount(); len(cfg.Centers) < want {
			return invalidArgf("Centers length %d is shorter than C*AttrCount = %d", len(cfg.Centers), want)
		}
		return nil
	}
	if cfg.C > ds.TupleCount() {
		return invalidArgf("cannot take %d initial centers from %d tuples", cfg.C, ds.TupleCount())
	}
	return nil
}

// NewFuzzyCMeans clusters ds with fuzzy c-means. Each pass sets every
// membership from the squared distances to the current centers and moves each
// center to the mean of all tuples weighted by squared membership. It stops
// once no center coordinate moves by more than Tolerance.
func NewFuzzyCMeans(ds *DataSet, cfg FuzzyCMeansConfig) (*FuzzyCMeans, error) {
	applyFuzzyCMeansDefaults(&cfg)
	if err := validateFuzzyCMeansConfig(ds, &cfg); err != nil {
		return nil, err
	}
	log := loggerOrNop(cfg.Logger)

	c, attrs, n := cfg.C, ds.AttrCount(), ds.TupleCount()
	centers := make([]float64, c*attrs)
	if cfg.Centers != nil {
		copy(centers, cfg.Centers)
	} else {
		copy(centers, ds.data[:c*attrs])
	}

	// mat.NewDense panics on zero dimensions; an empty data set keeps a nil
	// matrix and converges after one pass with nothing assigned.
	var u *mat.Dense
	if n > 0 {
		u = mat.NewDense(c, n, nil)
	}
	dist := make([]float64, c)
	next := make([]float64, c*attrs)
	weight := make([]float64, c)

	iter := 0
	for {
		if cfg.MaxIterations > 0 && iter >= cfg.MaxIterations {
			log.Warn("fuzzy c-means stopped before convergence", zap.Int("max_iterations", cfg.MaxIterations))
			break
		}
		iter++

		for t := 0; t < n; t++ {
			updateMembership(ds, t, centers, dist, u)
		}

		for i := range next {
			next[i] = 0
		}
		for j := 0; j < c; j++ {
			weight[j] = 0
			row := next[j*attrs : (j+1)*attrs]
			for t := 0; t < n; t++ {
				uj := u.At(j, t)
				w := uj * uj
				if w == 0 {
					continue
				}
				floats.AddScaled(row, w, ds.Tuple(t))
				weight[j] += w
			}
		}

		converged := true
		for j := 0; j < c; j++ {
			cur := centers[j*attrs : (j+1)*attrs]
			row := next[j*attrs : (j+1)*attrs]
			if weight[j] == 0 {
				if cfg.EmptyCluster == EmptyClusterFail {
					return nil, degeneratef("fuzzy c-means center %d has zero membership weight after pass %d", j, iter)
				}
				log.Debug("fuzzy c-means keeping stale center", zap.Int("center", j), zap.Int("pass", iter))
				continue
			}
			floats.Scale(1/weight[j], row)
			for a := range row {
				if !scalar.EqualWithinAbs(row[a], cur[a], cfg.Tolerance) {
					converged = false
				}
			}
			copy(cur, row)
		}
		log.Debug("fuzzy c-means pass", zap.Int("pass", iter), zap.Bool("converged", converged))
		if converged {
			break
		}
	}

	// Labels follow the memberships of the final pass, so they agree with
	// Membership.
	assign := make([]int, n)
	for t := range assign {
		best := 0
		for j := 1; j < c; j++ {
			if u.At(j, t) > u.At(best, t) {
				best = j
			}
		}
		assign[t] = best
	}
	labels, centerLabel, count := compactLabels(assign, c)

	return &FuzzyCMeans{
		labels:      labels,
		centerLabel: centerLabel,
		clusterCnt:  count,
		membership:  u,
		centers:     centers,
		attrCount:   attrs,
		iterations:  iter,
		desc:        fmt.Sprintf("FuzzyCMeans(clusterCnt=%d)", c),
	}, nil
}

// updateMembership writes the memberships of tuple t into column t of u. A
// tuple that coincides with a center belongs fully to the lowest such center.
// Otherwise u[j][t] = 1 / Σ_k (d_j / d_k) over squared distances d.
func updateMembership(ds *DataSet, t int, centers, dist []float64, u *mat.Dense) {
	c := len(dist)
	attrs := ds.AttrCount()
	hit := -1
	for j := 0; j < c; j++ {
		dist[j] = ds.DistSqTo(t, centers[j*attrs:(j+1)*attrs])
		if dist[j] == 0 && hit < 0 {
			hit = j
		}
	}
	if hit >= 0 {
		for j := 0; j < c; j++ {
			u.Set(j, t, 0)
		}
		u.Set(hit, t, 1)
		return
	}
	for j := 0; j < c; j++ {
		var sum float64
		for k := 0; k < c; k++ {
			sum += dist[j] / dist[k]
		}
		u.Set(j, t, 1/sum)
	}
}

func (f *FuzzyCMeans) TupleCount() int     { return len(f.labels) }
func (f *FuzzyCMeans) ClusterCount() int   { return f.clusterCnt }
func (f *FuzzyCMeans) ClusterID(t int) int { return f.labels[t] }
func (f *FuzzyCMeans) String() string      { return f.desc }

// Membership returns the degree in [0, 1] to which tuple t belongs to
// center j.
func (f *FuzzyCMeans) Membership(j, t int) float64 { return f.membership.At(j, t) }

// Memberships returns a copy of the C × TupleCount membership matrix, or nil
// for an empty data set.
func (f *FuzzyCMeans) Memberships() *mat.Dense {
	if f.membership == nil {
		return nil
	}
	return mat.DenseCopyOf(f.membership)
}

// Centers returns a copy of the final centers, one row per initial center.
func (f *FuzzyCMeans) Centers() [][]float64 {
	return splitRows(f.centers, f.attrCount)
}

// CenterLabel returns the label assigned to center j, or 0 if no tuple has
// its largest membership there.
func (f *FuzzyCMeans) CenterLabel(j int) int { return f.centerLabel[j] }

// Iterations returns the number of update passes performed.
func (f *FuzzyCMeans) Iterations() int { return f.iterations }
