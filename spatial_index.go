package clustering

// NodeData describes a single node in a spatial tree.
type NodeData struct {
	IdxStart, IdxEnd int
	IsLeaf           bool
	Radius           float64 // ball tree radius; 0 for KD-tree
}

// NeighborIndex answers the epsilon-neighborhood queries that drive DBSCAN's
// region growing. Every implementation returns exactly the tuples u with
// DistSq(t, u) <= eps*eps, t itself included, so the choice of index never
// changes the clustering.
type NeighborIndex interface {
	// RadiusNeighbors appends the neighbors of tuple t to buf and returns the
	// extended slice. Order is unspecified.
	RadiusNeighbors(t int, eps float64, buf []int) []int

	// NumPoints returns the number of indexed tuples.
	NumPoints() int
}

// BruteIndex scans the whole data set for every query.
type BruteIndex struct {
	ds *DataSet
}

// NewBruteIndex returns a NeighborIndex that compares t against every tuple.
func NewBruteIndex(ds *DataSet) *BruteIndex {
	return &BruteIndex{ds: ds}
}

func (b *BruteIndex) NumPoints() int { return b.ds.TupleCount() }

func (b *BruteIndex) RadiusNeighbors(t int, eps float64, buf []int) []int {
	epsSq := eps * eps
	for u := 0; u < b.ds.TupleCount(); u++ {
		if b.ds.DistSq(t, u) <= epsSq {
			buf = append(buf, u)
		}
	}
	return buf
}
