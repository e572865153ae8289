package clustering

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// SilhouetteConfig controls ComputeSilhouette.
type SilhouetteConfig struct {
	// Workers is the number of goroutines that share the per-tuple work.
	// 0 means runtime.NumCPU(). The result does not depend on it.
	Workers int

	// Logger receives a debug summary. Default: no-op.
	Logger *zap.Logger
}

// TupleSilhouette holds the silhouette terms of one tuple.
type TupleSilhouette struct {
	// Cluster is the tuple's label; 0 means noise and the other fields are 0.
	Cluster int

	// A is the mean distance to the other members of the tuple's cluster,
	// 0 for a singleton.
	A float64

	// B is the smallest mean distance to the members of another non-empty
	// cluster. It is +Inf when no other cluster has members.
	B float64

	// S is (B-A)/max(A,B), 1 when B is +Inf and 0 when A and B are both 0.
	S float64
}

// ClusterSilhouette holds the averages of one cluster.
type ClusterSilhouette struct {
	Population  int
	Compactness float64
	Separation  float64
	Silhouette  float64
}

// SilhouetteStats summarizes how compact and well separated the clusters of a
// clustering are. The overall figures are averages over all non-noise tuples,
// which equals the per-cluster figures weighted by population.
type SilhouetteStats struct {
	// Noise is the fraction of tuples labelled 0.
	Noise float64

	// Compactness is the mean of A over non-noise tuples.
	Compactness float64

	// Separation is the mean of B over non-noise tuples.
	Separation float64

	// Silhouette is the mean of S over non-noise tuples.
	Silhouette float64

	tuples   []TupleSilhouette
	clusters []ClusterSilhouette // index 0 is unused
}

// ComputeSilhouette scores cl on ds. Tuples beyond the shorter of the two
// are ignored. cl must have at least two clusters and at least one non-noise
// tuple; noise tuples take no part in the distances.
func ComputeSilhouette(ds *DataSet, cl Clustering, cfg SilhouetteConfig) (*SilhouetteStats, error) {
	k := cl.ClusterCount()
	if k < 2 {
		return nil, invalidArgf("silhouette needs at least 2 clusters, %s has %d", cl, k)
	}
	n := min(ds.TupleCount(), cl.TupleCount())
	if n == 0 {
		return nil, invalidArgf("silhouette needs at least one tuple")
	}
	labels, err := checkedLabels(cl, n)
	if err != nil {
		return nil, err
	}

	pop := make([]int, k+1)
	for _, l := range labels {
		pop[l]++
	}
	if pop[0] == n {
		return nil, invalidArgf("silhouette needs a non-noise tuple, all %d tuples of %s are noise", n, cl)
	}

	tuples := make([]TupleSilhouette, n)
	parallelRows(n, resolveWorkers(cfg.Workers), func(start, end int) {
		acc := make([]float64, k+1)
		for t := start; t < end; t++ {
			tuples[t] = tupleSilhouette(ds, labels, pop, t, acc)
		}
	})

	clusters := make([]ClusterSilhouette, k+1)
	values := make([]float64, 0, k)
	weights := make([]float64, 0, k)
	for c := 1; c <= k; c++ {
		clusters[c].Population = pop[c]
	}
	for _, ts := range tuples {
		if ts.Cluster == 0 {
			continue
		}
		cs := &clusters[ts.Cluster]
		cs.Compactness += ts.A
		cs.Separation += ts.B
		cs.Silhouette += ts.S
	}
	for c := 1; c <= k; c++ {
		cs := &clusters[c]
		if cs.Population == 0 {
			continue
		}
		p := float64(cs.Population)
		cs.Compactness /= p
		cs.Separation /= p
		cs.Silhouette /= p
		weights = append(weights, p)
	}

	overall := func(field func(ClusterSilhouette) float64) float64 {
		values = values[:0]
		for c := 1; c <= k; c++ {
			if clusters[c].Population > 0 {
				values = append(values, field(clusters[c]))
			}
		}
		return stat.Mean(values, weights)
	}

	st := &SilhouetteStats{
		Noise:       float64(pop[0]) / float64(n),
		Compactness: overall(func(cs ClusterSilhouette) float64 { return cs.Compactness }),
		Separation:  overall(func(cs ClusterSilhouette) float64 { return cs.Separation }),
		Silhouette:  overall(func(cs ClusterSilhouette) float64 { return cs.Silhouette }),
		tuples:      tuples,
		clusters:    clusters,
	}
	loggerOrNop(cfg.Logger).Debug("silhouette computed",
		zap.Stringer("clustering", cl),
		zap.Int("tuples", n),
		zap.Float64("noise", st.Noise),
		zap.Float64("silhouette", st.Silhouette))
	return st, nil
}

// tupleSilhouette computes the terms of tuple t. acc is scratch space of
// length ClusterCount+1.
func tupleSilhouette(ds *DataSet, labels, pop []int, t int, acc []float64) TupleSilhouette {
	own := labels[t]
	if own == 0 {
		return TupleSilhouette{}
	}
	for c := range acc {
		acc[c] = 0
	}
	for i, l := range labels {
		if l != 0 {
			acc[l] += ds.Dist(t, i)
		}
	}

	var a float64
	if pop[own] > 1 {
		a = acc[own] / float64(pop[own]-1)
	}
	b := math.Inf(1)
	for c := 1; c < len(acc); c++ {
		if c == own || pop[c] == 0 {
			continue
		}
		b = min(b, acc[c]/float64(pop[c]))
	}

	var s float64
	switch {
	case math.IsInf(b, 1):
		s = 1
	case a == 0 && b == 0:
		s = 0
	default:
		s = (b - a) / max(a, b)
	}
	return TupleSilhouette{Cluster: own, A: a, B: b, S: s}
}

// ClusterCount returns the ClusterCount of the scored clustering.
func (st *SilhouetteStats) ClusterCount() int { return len(st.clusters) - 1 }

// TupleCount returns the number of tuples scored.
func (st *SilhouetteStats) TupleCount() int { return len(st.tuples) }

// Cluster returns the averages of cluster id, in [1, ClusterCount()]. An
// empty cluster reports zero population and zero averages.
func (st *SilhouetteStats) Cluster(id int) ClusterSilhouette { return st.clusters[id] }

// Tuple returns the silhouette terms of tuple t.
func (st *SilhouetteStats) Tuple(t int) TupleSilhouette { return st.tuples[t] }
