package clustering

import "fmt"

// NeighborSearch selects how DBSCAN finds epsilon-neighborhoods.
type NeighborSearch string

const (
	NeighborSearchAuto     NeighborSearch = "auto"
	NeighborSearchBrute    NeighborSearch = "brute"
	NeighborSearchKDTree   NeighborSearch = "kdtree"
	NeighborSearchBallTree NeighborSearch = "balltree"
)

const (
	// bruteMaxTuples is the size below which building a tree costs more
	// than scanning.
	bruteMaxTuples = 64

	// kdTreeMaxDims is the dimensionality above which KD-tree box bounds
	// stop pruning and the ball tree takes over.
	kdTreeMaxDims = 60
)

// selectNeighborSearch resolves NeighborSearchAuto into a concrete strategy
// based on data size and dimensionality, and validates forced choices.
func selectNeighborSearch(s NeighborSearch, n, dims int) (NeighborSearch, error) {
	switch s {
	case NeighborSearchAuto:
		if n <= bruteMaxTuples {
			return NeighborSearchBrute, nil
		}
		if dims <= kdTreeMaxDims {
			return NeighborSearchKDTree, nil
		}
		return NeighborSearchBallTree, nil
	case NeighborSearchBrute, NeighborSearchKDTree, NeighborSearchBallTree:
		return s, nil
	default:
		return "", invalidArgf("invalid NeighborSearch %q", string(s))
	}
}

// newNeighborIndex builds the index for a resolved strategy.
func newNeighborIndex(ds *DataSet, s NeighborSearch, leafSize int) NeighborIndex {
	switch s {
	case NeighborSearchKDTree:
		return NewKDTree(ds, leafSize)
	case NeighborSearchBallTree:
		return NewBallTree(ds, leafSize)
	case NeighborSearchBrute:
		return NewBruteIndex(ds)
	default:
		panic(fmt.Sprintf("clustering: unresolved neighbor search %q", string(s)))
	}
}
