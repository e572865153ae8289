package clustering

import (
	"math"
	"sort"
)

// ballSlack widens the pruning test slightly so rounding in the
// centroid-minus-radius bound never discards a point on the eps boundary.
const ballSlack = 1e-9

// BallTree is a ball tree over the tuples of a DataSet. Each node stores a
// centroid and radius defining an enclosing ball for its points. It serves
// the same radius queries as KDTree and holds up better in high dimensions.
//
// The tree is stored as a complete binary tree in array form:
// node i has children at 2*i+1 and 2*i+2.
type BallTree struct {
	ds       *DataSet
	n        int // number of points
	dims     int // dimensionality
	leafSize int
	idxArray []int      // permutation: tree-order position → tuple index
	nodes    []NodeData // one entry per tree node; Radius is used
	// centroids[node*dims .. (node+1)*dims) = centroid of node
	centroids []float64
	numNodes  int
}

// NewBallTree builds a ball tree over every tuple of ds. leafSize controls
// the max points per leaf node.
func NewBallTree(ds *DataSet, leafSize int) *BallTree {
	if leafSize < 1 {
		leafSize = 1
	}
	n, dims := ds.TupleCount(), ds.AttrCount()

	idxArray := make([]int, n)
	for i := range idxArray {
		idxArray[i] = i
	}

	maxNodes := kdMaxNodes(n, leafSize) // reuse the same upper bound
	t := &BallTree{
		ds:        ds,
		n:         n,
		dims:      dims,
		leafSize:  leafSize,
		idxArray:  idxArray,
		nodes:     make([]NodeData, maxNodes),
		centroids: make([]float64, maxNodes*dims),
	}

	if n > 0 {
		t.buildNode(0, 0, n)
		t.numNodes = kdCountNodes(t.nodes, 0, len(t.nodes))
	}

	return t
}

// buildNode recursively builds the ball tree for points in idxArray[start:end].
func (t *BallTree) buildNode(nodeID, start, end int) {
	for nodeID >= len(t.nodes) {
		t.nodes = append(t.nodes, NodeData{})
		t.centroids = append(t.centroids, make([]float64, t.dims)...)
	}

	t.computeCentroid(nodeID, start, end)

	// Radius: max distance from centroid to any point in this node.
	centroid := t.centroids[nodeID*t.dims : (nodeID+1)*t.dims]
	var radius float64
	for i := start; i < end; i++ {
		if d := t.ds.DistTo(t.idxArray[i], centroid); d > radius {
			radius = d
		}
	}

	count := end - start
	if count <= t.leafSize {
		t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, IsLeaf: true, Radius: radius}
		return
	}

	t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, IsLeaf: false, Radius: radius}

	// Split at the median of the dimension with the greatest spread.
	splitDim := t.findSpreadDim(start, end)
	t.sortByDim(start, end, splitDim)
	mid := start + count/2

	t.buildNode(2*nodeID+1, start, mid)
	t.buildNode(2*nodeID+2, mid, end)
}

// computeCentroid computes the mean of points idxArray[start:end] and stores
// it in the centroids array.
func (t *BallTree) computeCentroid(nodeID, start, end int) {
	base := nodeID * t.dims
	count := float64(end - start)
	for d := 0; d < t.dims; d++ {
		t.centroids[base+d] = 0
	}
	for i := start; i < end; i++ {
		for d, v := range t.ds.Tuple(t.idxArray[i]) {
			t.centroids[base+d] += v
		}
	}
	for d := 0; d < t.dims; d++ {
		t.centroids[base+d] /= count
	}
}

// findSpreadDim returns the dimension with the greatest spread among
// points in idxArray[start:end].
func (t *BallTree) findSpreadDim(start, end int) int {
	bestDim := 0
	bestSpread := -1.0
	for d := 0; d < t.dims; d++ {
		minVal := math.Inf(1)
		maxVal := math.Inf(-1)
		for i := start; i < end; i++ {
			v := t.ds.Attr(t.idxArray[i], d)
			minVal = min(minVal, v)
			maxVal = max(maxVal, v)
		}
		if spread := maxVal - minVal; spread > bestSpread {
			bestSpread = spread
			bestDim = d
		}
	}
	return bestDim
}

// sortByDim sorts idxArray[start:end] by the given dimension.
func (t *BallTree) sortByDim(start, end, dim int) {
	sub := t.idxArray[start:end]
	ds := t.ds
	sort.Slice(sub, func(i, j int) bool {
		return ds.Attr(sub[i], dim) < ds.Attr(sub[j], dim)
	})
}

func (t *BallTree) NumPoints() int            { return t.n }
func (t *BallTree) NumNodes() int             { return t.numNodes }
func (t *BallTree) IdxArray() []int           { return t.idxArray }
func (t *BallTree) NodeDataArray() []NodeData { return t.nodes[:t.numNodes] }

// RadiusNeighbors appends every tuple within eps of tuple q to buf.
func (t *BallTree) RadiusNeighbors(q int, eps float64, buf []int) []int {
	if t.n == 0 {
		return buf
	}
	return t.radiusSearch(0, q, eps, buf)
}

func (t *BallTree) radiusSearch(nodeID, q int, eps float64, buf []int) []int {
	if nodeID >= len(t.nodes) {
		return buf
	}
	node := t.nodes[nodeID]
	if node.IdxStart == node.IdxEnd && nodeID != 0 {
		return buf
	}

	centroid := t.centroids[nodeID*t.dims : (nodeID+1)*t.dims]
	if t.ds.DistTo(q, centroid)-node.Radius > eps*(1+ballSlack)+ballSlack {
		return buf
	}

	if node.IsLeaf {
		epsSq := eps * eps
		for i := node.IdxStart; i < node.IdxEnd; i++ {
			u := t.idxArray[i]
			if t.ds.DistSq(q, u) <= epsSq {
				buf = append(buf, u)
			}
		}
		return buf
	}

	buf = t.radiusSearch(2*nodeID+1, q, eps, buf)
	return t.radiusSearch(2*nodeID+2, q, eps, buf)
}
