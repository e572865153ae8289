package clustering

import (
	"math"
	"sort"
)

const (
	// autoMaxNeighbors is the length of the sampled k-distance curve.
	autoMaxNeighbors = 30
	// autoSeedTuples caps the number of tuples whose neighborhoods are sampled.
	autoSeedTuples = 100
	// autoSamplesPerNeighbor scales the number of random comparisons per seed.
	autoSamplesPerNeighbor = 20
	// autoMinPtsScale converts the elbow position into MinPts.
	autoMinPtsScale = 0.15

	fallbackEps    = 0.5
	fallbackMinPts = 10
)

// DBSCANParams are the density parameters of a DBSCAN run.
type DBSCANParams struct {
	Eps    float64
	MinPts int

	// ElbowK is the neighbor rank picked by estimation, 0 when the
	// parameters were given explicitly or defaulted.
	ElbowK int
}

// EstimateDBSCANParams picks Eps and MinPts from the elbow of a sampled
// k-distance curve.
//
// Up to 100 seed tuples are drawn. For each, a bounded random sample of the
// data is compared against it and the 30 smallest squared distances are kept
// in a sorted insertion list. The curve averages the k-th smallest distance
// over all seeds; the elbow is the k with the largest second finite
// difference. Eps is the average distance at the elbow and MinPts grows with
// the elbow rank and the ratio of data size to seed count.
//
// The error is marked ErrEstimationFailed when the data set is empty or the
// curvature maximum is not finite, which is always the case for fewer than 30
// tuples.
func EstimateDBSCANParams(ds *DataSet, rng Rand) (DBSCANParams, error) {
	n := ds.TupleCount()
	if n == 0 {
		return DBSCANParams{}, estimationFailedf("cannot estimate DBSCAN parameters of an empty data set")
	}

	seeds := min(n, autoSeedTuples)
	samples := min(n, autoMaxNeighbors*autoSamplesPerNeighbor)

	sumDist := make([]float64, autoMaxNeighbors)
	nearest := make([]float64, autoMaxNeighbors)
	for i := 0; i < seeds; i++ {
		for k := range nearest {
			nearest[k] = math.Inf(1)
		}
		t := rng.IntN(n)
		for j := 0; j < samples; j++ {
			d2 := ds.DistSq(t, rng.IntN(n))
			insertSorted(nearest, d2)
		}
		for k, d2 := range nearest {
			sumDist[k] += math.Sqrt(d2)
		}
	}

	bestAcc := math.Inf(-1)
	bestK := 0
	for k := 2; k < autoMaxNeighbors-1; k++ {
		acc := sumDist[k-1] - 2*sumDist[k] + sumDist[k+1]
		if math.IsNaN(acc) {
			continue
		}
		if acc > bestAcc {
			bestAcc = acc
			bestK = k
		}
	}
	// With fewer than autoMaxNeighbors tuples the tail of the curve is
	// infinite and the maximum lands on it.
	if math.IsInf(bestAcc, 0) {
		return DBSCANParams{}, estimationFailedf("k-distance curve over %d seeds and %d samples has no finite elbow", seeds, samples)
	}

	return DBSCANParams{
		Eps:    sumDist[bestK] / float64(seeds),
		MinPts: int(math.Ceil(float64(bestK) * autoMinPtsScale * float64(n) / float64(seeds))),
		ElbowK: bestK,
	}, nil
}

// insertSorted inserts v into the ascending, fixed-length list, dropping the
// largest value. Values not smaller than the last element are discarded.
func insertSorted(list []float64, v float64) {
	pos := sort.SearchFloat64s(list, v)
	if pos >= len(list) {
		return
	}
	copy(list[pos+1:], list[pos:len(list)-1])
	list[pos] = v
}
