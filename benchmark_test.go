package clustering

import (
	"math/rand/v2"
	"testing"
)

func benchDataSet(b *testing.B, n, dims int) *DataSet {
	b.Helper()
	return mustFlatDataSet(b, n, dims, randomFlat(42, n, dims))
}

// --- Pairwise Distances ---

func benchPairwiseDistances(b *testing.B, n, workers int) {
	b.Helper()
	ds := benchDataSet(b, n, 2)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		PairwiseDistances(ds, workers)
	}
}

func BenchmarkPairwiseDistances_100(b *testing.B)          { benchPairwiseDistances(b, 100, 1) }
func BenchmarkPairwiseDistances_1000(b *testing.B)         { benchPairwiseDistances(b, 1000, 1) }
func BenchmarkPairwiseDistances_1000_Parallel(b *testing.B) { benchPairwiseDistances(b, 1000, 0) }

// --- K-Means ---

func benchKMeans(b *testing.B, n int) {
	b.Helper()
	ds := benchDataSet(b, n, 2)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := NewKMeans(ds, DefaultKMeansConfig(8, rand.New(rand.NewPCG(1, 1)))); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkKMeans_1000(b *testing.B)  { benchKMeans(b, 1000) }
func BenchmarkKMeans_10000(b *testing.B) { benchKMeans(b, 10000) }

// --- DBSCAN ---

func benchDBSCAN(b *testing.B, n int, search NeighborSearch) {
	b.Helper()
	ds := benchDataSet(b, n, 2)
	cfg := DefaultDBSCANConfig(3, 5)
	cfg.NeighborSearch = search
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := NewDBSCAN(ds, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDBSCAN_Brute_1000(b *testing.B)    { benchDBSCAN(b, 1000, NeighborSearchBrute) }
func BenchmarkDBSCAN_KDTree_1000(b *testing.B)   { benchDBSCAN(b, 1000, NeighborSearchKDTree) }
func BenchmarkDBSCAN_BallTree_1000(b *testing.B) { benchDBSCAN(b, 1000, NeighborSearchBallTree) }
func BenchmarkDBSCAN_KDTree_10000(b *testing.B)  { benchDBSCAN(b, 10000, NeighborSearchKDTree) }

func BenchmarkEstimateDBSCANParams_10000(b *testing.B) {
	ds := benchDataSet(b, 10000, 2)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := EstimateDBSCANParams(ds, rand.New(rand.NewPCG(1, 1))); err != nil {
			b.Fatal(err)
		}
	}
}

// --- K-Medoids ---

func benchKMedoids(b *testing.B, n, matrixLimit int) {
	b.Helper()
	ds := benchDataSet(b, n, 2)
	cfg := KMedoidsConfig{K: 5, MatrixLimit: matrixLimit}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cfg.Rand = rand.New(rand.NewPCG(1, 1))
		if _, err := NewKMedoids(ds, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkKMedoids_500_Matrix(b *testing.B)   { benchKMedoids(b, 500, 0) }
func BenchmarkKMedoids_500_OnTheFly(b *testing.B) { benchKMedoids(b, 500, -1) }

// --- Fuzzy C-Means ---

func BenchmarkFuzzyCMeans_1000(b *testing.B) {
	ds := benchDataSet(b, 1000, 2)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := NewFuzzyCMeans(ds, DefaultFuzzyCMeansConfig(4)); err != nil {
			b.Fatal(err)
		}
	}
}

// --- Silhouette ---

func benchSilhouette(b *testing.B, n, workers int) {
	b.Helper()
	ds := benchDataSet(b, n, 2)
	km, err := NewKMeans(ds, DefaultKMeansConfig(4, rand.New(rand.NewPCG(1, 1))))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ComputeSilhouette(ds, km, SilhouetteConfig{Workers: workers}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSilhouette_1000(b *testing.B)          { benchSilhouette(b, 1000, 1) }
func BenchmarkSilhouette_1000_Parallel(b *testing.B) { benchSilhouette(b, 1000, 0) }
