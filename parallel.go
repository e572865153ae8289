package clustering

import (
	"runtime"
	"sync"
)

// resolveWorkers maps a Workers setting to a goroutine count: 0 means one
// per CPU, anything below 1 after that means a single worker.
func resolveWorkers(workers int) int {
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	return max(workers, 1)
}

// parallelRows splits [0, n) into contiguous row ranges and calls fn on each
// range from its own goroutine. Ranges don't overlap, so fn may write to
// per-row output without synchronization. With one worker fn runs inline.
func parallelRows(n, workers int, fn func(start, end int)) {
	if workers <= 1 || n <= 1 {
		fn(0, n)
		return
	}

	var wg sync.WaitGroup
	rowsPerWorker := (n + workers - 1) / workers

	for w := 0; w < workers; w++ {
		startRow := w * rowsPerWorker
		endRow := min(startRow+rowsPerWorker, n)
		if startRow >= n {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(startRow, endRow)
	}

	wg.Wait()
}

// PairwiseDistances computes the full n×n Euclidean distance matrix of ds as
// a flat row-major slice, using up to workers goroutines (0 means one per
// CPU). Each worker handles a contiguous range of source rows and fills both
// (i,j) and (j,i) for j > i, so the result does not depend on workers.
func PairwiseDistances(ds *DataSet, workers int) []float64 {
	n := ds.TupleCount()
	result := make([]float64, n*n)
	parallelRows(n, resolveWorkers(workers), func(start, end int) {
		for i := start; i < end; i++ {
			for j := i + 1; j < n; j++ {
				d := ds.Dist(i, j)
				result[i*n+j] = d
				result[j*n+i] = d
			}
		}
	})
	return result
}
