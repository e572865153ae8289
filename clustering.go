package clustering

import (
	"fmt"

	"go.uber.org/zap"
)

// Clustering is the read-only result of a clustering algorithm, or a ground
// truth labelling to compare against.
//
// ClusterID returns 0 for noise and 1..ClusterCount() for clustered tuples.
// All tuples of one cluster share a single ID and no ID is reused across
// clusters. All work happens at construction; the query methods are pure.
type Clustering interface {
	// TupleCount returns the number of labelled tuples.
	TupleCount() int

	// ClusterCount returns the number of non-empty, non-noise clusters.
	ClusterCount() int

	// ClusterID returns the label of tuple t, in [0, ClusterCount()].
	ClusterID(t int) int

	// String summarizes the algorithm and its parameters for reports.
	String() string
}

// GroundTruth is a Clustering built from externally supplied labels, for
// example the generator labels of a synthetic data set.
type GroundTruth struct {
	labels     []int
	clusterCnt int
}

// NewGroundTruth builds a Clustering from labels. Zero and negative labels
// mean noise. Positive labels are renumbered densely to 1..k in order of
// first appearance, so any positive IDs are accepted.
func NewGroundTruth(labels []int) *GroundTruth {
	remap := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		if l <= 0 {
			continue
		}
		id, ok := remap[l]
		if !ok {
			id = len(remap) + 1
			remap[l] = id
		}
		out[i] = id
	}
	return &GroundTruth{labels: out, clusterCnt: len(remap)}
}

func (g *GroundTruth) TupleCount() int     { return len(g.labels) }
func (g *GroundTruth) ClusterCount() int   { return g.clusterCnt }
func (g *GroundTruth) ClusterID(t int) int { return g.labels[t] }

func (g *GroundTruth) String() string {
	return fmt.Sprintf("GroundTruth(clusterCnt=%d)", g.clusterCnt)
}

// Labels returns the label of every tuple of cl.
func Labels(cl Clustering) []int {
	out := make([]int, cl.TupleCount())
	for t := range out {
		out[t] = cl.ClusterID(t)
	}
	return out
}

// Sizes returns the population of each label; index 0 counts noise.
func Sizes(cl Clustering) []int {
	sizes := make([]int, cl.ClusterCount()+1)
	for t := 0; t < cl.TupleCount(); t++ {
		sizes[cl.ClusterID(t)]++
	}
	return sizes
}

// checkedLabels reads the first n labels of cl and verifies that each one is
// in [0, ClusterCount()].
func checkedLabels(cl Clustering, n int) ([]int, error) {
	k := cl.ClusterCount()
	out := make([]int, n)
	for t := range out {
		l := cl.ClusterID(t)
		if l < 0 || l > k {
			return nil, invalidArgf("%s: tuple %d has label %d outside [0, %d]", cl, t, l, k)
		}
		out[t] = l
	}
	return out, nil
}

// compactLabels turns a per-tuple group index in [0, k) into the public label
// space. Groups with no tuples do not receive an ID, so ClusterCount matches
// the number of non-empty groups. groupLabel[g] is the label of group g, or 0
// if the group is empty.
func compactLabels(assign []int, k int) (labels, groupLabel []int, count int) {
	groupLabel = make([]int, k)
	for _, g := range assign {
		groupLabel[g] = 1
	}
	for g := range groupLabel {
		if groupLabel[g] != 0 {
			count++
			groupLabel[g] = count
		}
	}
	labels = make([]int, len(assign))
	for t, g := range assign {
		labels[t] = groupLabel[g]
	}
	return labels, groupLabel, count
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
