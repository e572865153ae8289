package clustering

import (
	"math"
	"sort"
)

// KDTree is a KD-tree over the tuples of a DataSet, used for DBSCAN radius
// queries. Tuples are not copied; the tree reorders an index permutation.
//
// The tree is stored as a complete binary tree in array form:
//   - node i has children at 2*i+1 and 2*i+2
//   - node bounds are stored as min/max per dimension per node
type KDTree struct {
	ds       *DataSet
	n        int // number of points
	dims     int // dimensionality
	leafSize int
	idxArray []int      // permutation: tree-order position → tuple index
	nodes    []NodeData // one entry per tree node
	// nodeBoundsMin[node*dims + j] = min value of feature j in node
	nodeBoundsMin []float64
	// nodeBoundsMax[node*dims + j] = max value of feature j in node
	nodeBoundsMax []float64
	numNodes      int
}

// NewKDTree builds a KD-tree over every tuple of ds. leafSize controls the
// max points per leaf node.
func NewKDTree(ds *DataSet, leafSize int) *KDTree {
	if leafSize < 1 {
		leafSize = 1
	}
	n, dims := ds.TupleCount(), ds.AttrCount()

	idxArray := make([]int, n)
	for i := range idxArray {
		idxArray[i] = i
	}

	// A complete binary tree with n leaves of size leafSize needs at most
	// 2*ceil(n/leafSize) nodes, but the median split may not be perfectly
	// balanced, so use a generous upper bound.
	maxNodes := kdMaxNodes(n, leafSize)

	t := &KDTree{
		ds:            ds,
		n:             n,
		dims:          dims,
		leafSize:      leafSize,
		idxArray:      idxArray,
		nodes:         make([]NodeData, maxNodes),
		nodeBoundsMin: make([]float64, maxNodes*dims),
		nodeBoundsMax: make([]float64, maxNodes*dims),
	}

	if n > 0 {
		t.buildNode(0, 0, n)
		t.numNodes = kdCountNodes(t.nodes, 0, maxNodes)
	}

	return t
}

// kdMaxNodes returns an upper bound on the number of nodes needed for a
// binary tree with n points and the given leaf size.
func kdMaxNodes(n, leafSize int) int {
	if n == 0 {
		return 1
	}
	// Depth of tree: ceil(log2(ceil(n/leafSize))) + 1.
	// Number of nodes in a complete binary tree of depth d = 2^(d+1) - 1.
	leaves := (n + leafSize - 1) / leafSize
	depth := 0
	v := 1
	for v < leaves {
		v *= 2
		depth++
	}
	return (1 << (depth + 1)) - 1 + 2 // +2 for safety margin
}

// kdCountNodes counts how many nodes were actually initialized by the build.
func kdCountNodes(nodes []NodeData, nodeID, maxNodes int) int {
	if nodeID >= maxNodes {
		return 0
	}
	if nodes[nodeID].IdxStart == 0 && nodes[nodeID].IdxEnd == 0 && nodeID != 0 {
		return 0
	}
	count := 1
	if !nodes[nodeID].IsLeaf {
		count += kdCountNodes(nodes, 2*nodeID+1, maxNodes)
		count += kdCountNodes(nodes, 2*nodeID+2, maxNodes)
	}
	return count
}

// buildNode recursively builds the tree for points in idxArray[start:end].
func (t *KDTree) buildNode(nodeID, start, end int) {
	// Grow arrays if needed (shouldn't happen with good upper bound).
	for nodeID >= len(t.nodes) {
		t.nodes = append(t.nodes, NodeData{})
		t.nodeBoundsMin = append(t.nodeBoundsMin, make([]float64, t.dims)...)
		t.nodeBoundsMax = append(t.nodeBoundsMax, make([]float64, t.dims)...)
	}

	t.computeNodeBounds(nodeID, start, end)

	count := end - start
	if count <= t.leafSize {
		t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, IsLeaf: true}
		return
	}

	// Split along the dimension with greatest spread, at the median.
	splitDim := 0
	maxSpread := -1.0
	for d := 0; d < t.dims; d++ {
		spread := t.nodeBoundsMax[nodeID*t.dims+d] - t.nodeBoundsMin[nodeID*t.dims+d]
		if spread > maxSpread {
			maxSpread = spread
			splitDim = d
		}
	}

	t.sortByDimension(start, end, splitDim)
	mid := start + count/2

	t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, IsLeaf: false}

	t.buildNode(2*nodeID+1, start, mid)
	t.buildNode(2*nodeID+2, mid, end)
}

// computeNodeBounds computes min/max per dimension for points idxArray[start:end].
func (t *KDTree) computeNodeBounds(nodeID, start, end int) {
	base := nodeID * t.dims
	for d := 0; d < t.dims; d++ {
		t.nodeBoundsMin[base+d] = math.Inf(1)
		t.nodeBoundsMax[base+d] = math.Inf(-1)
	}
	for i := start; i < end; i++ {
		tup := t.ds.Tuple(t.idxArray[i])
		for d, v := range tup {
			if v < t.nodeBoundsMin[base+d] {
				t.nodeBoundsMin[base+d] = v
			}
			if v > t.nodeBoundsMax[base+d] {
				t.nodeBoundsMax[base+d] = v
			}
		}
	}
}

// sortByDimension sorts idxArray[start:end] by the given dimension.
func (t *KDTree) sortByDimension(start, end, dim int) {
	sub := t.idxArray[start:end]
	ds := t.ds
	sort.Slice(sub, func(i, j int) bool {
		return ds.Attr(sub[i], dim) < ds.Attr(sub[j], dim)
	})
}

func (t *KDTree) NumPoints() int            { return t.n }
func (t *KDTree) NumNodes() int             { return t.numNodes }
func (t *KDTree) IdxArray() []int           { return t.idxArray }
func (t *KDTree) NodeDataArray() []NodeData { return t.nodes[:t.numNodes] }

// RadiusNeighbors appends every tuple within eps of tuple q to buf.
func (t *KDTree) RadiusNeighbors(q int, eps float64, buf []int) []int {
	if t.n == 0 {
		return buf
	}
	return t.radiusSearch(0, q, t.ds.Tuple(q), eps*eps, buf)
}

func (t *KDTree) radiusSearch(nodeID, q int, query []float64, epsSq float64, buf []int) []int {
	if nodeID >= len(t.nodes) {
		return buf
	}
	node := t.nodes[nodeID]
	if node.IdxStart == node.IdxEnd && nodeID != 0 {
		return buf // uninitialized node
	}
	// The box bound sums per-dimension gaps that are never larger than the
	// true per-dimension differences, so pruning on it cannot drop a point
	// the leaf check would accept.
	if t.minDistSqPoint(nodeID, query) > epsSq {
		return buf
	}

	if node.IsLeaf {
		for i := node.IdxStart; i < node.IdxEnd; i++ {
			u := t.idxArray[i]
			if t.ds.DistSq(q, u) <= epsSq {
				buf = append(buf, u)
			}
		}
		return buf
	}

	buf = t.radiusSearch(2*nodeID+1, q, query, epsSq, buf)
	return t.radiusSearch(2*nodeID+2, q, query, epsSq, buf)
}

// minDistSqPoint returns a lower bound on the squared distance between a
// point and any point in the given node.
func (t *KDTree) minDistSqPoint(node int, point []float64) float64 {
	base := node * t.dims
	var rdist float64
	for j := 0; j < t.dims; j++ {
		lo := t.nodeBoundsMin[base+j]
		hi := t.nodeBoundsMax[base+j]
		var d float64
		if point[j] < lo {
			d = lo - point[j]
		} else if point[j] > hi {
			d = point[j] - hi
		}
		rdist += d * d
	}
	return rdist
}
