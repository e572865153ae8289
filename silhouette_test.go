package clustering

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSilhouette_TwoPairs(t *testing.T) {
	ds := mustDataSet(t, [][]float64{{0}, {2}, {10}, {12}})
	cl := NewGroundTruth([]int{1, 1, 2, 2})

	st, err := ComputeSilhouette(ds, cl, SilhouetteConfig{})
	require.NoError(t, err)

	want := []TupleSilhouette{
		{Cluster: 1, A: 2, B: 11, S: 9.0 / 11},
		{Cluster: 1, A: 2, B: 9, S: 7.0 / 9},
		{Cluster: 2, A: 2, B: 9, S: 7.0 / 9},
		{Cluster: 2, A: 2, B: 11, S: 9.0 / 11},
	}
	require.Equal(t, 4, st.TupleCount())
	for i, w := range want {
		got := st.Tuple(i)
		if got.Cluster != w.Cluster || !almostEqual(got.A, w.A, floatTol) ||
			!almostEqual(got.B, w.B, floatTol) || !almostEqual(got.S, w.S, floatTol) {
			t.Errorf("Tuple(%d) = %+v, want %+v", i, got, w)
		}
	}

	sil := (9.0/11 + 7.0/9) / 2
	assert.Equal(t, 2, st.ClusterCount())
	for id := 1; id <= 2; id++ {
		cs := st.Cluster(id)
		assert.Equal(t, 2, cs.Population)
		assert.InDelta(t, 2, cs.Compactness, floatTol)
		assert.InDelta(t, 10, cs.Separation, floatTol)
		assert.InDelta(t, sil, cs.Silhouette, floatTol)
	}
	assert.Equal(t, 0.0, st.Noise)
	assert.InDelta(t, 2, st.Compactness, floatTol)
	assert.InDelta(t, 10, st.Separation, floatTol)
	assert.InDelta(t, sil, st.Silhouette, floatTol)
}

func TestSilhouette_NoiseIsIgnored(t *testing.T) {
	withNoise := mustDataSet(t, [][]float64{{0}, {2}, {500}, {10}, {12}})
	plain := mustDataSet(t, [][]float64{{0}, {2}, {10}, {12}})

	a, err := ComputeSilhouette(withNoise, NewGroundTruth([]int{1, 1, 0, 2, 2}), SilhouetteConfig{})
	require.NoError(t, err)
	b, err := ComputeSilhouette(plain, NewGroundTruth([]int{1, 1, 2, 2}), SilhouetteConfig{})
	require.NoError(t, err)

	assert.InDelta(t, 0.2, a.Noise, floatTol)
	assert.InDelta(t, b.Silhouette, a.Silhouette, floatTol)
	assert.InDelta(t, b.Compactness, a.Compactness, floatTol)
	assert.Equal(t, TupleSilhouette{}, a.Tuple(2))
}

func TestSilhouette_PopulationWeighting(t *testing.T) {
	// A singleton has A=0 and S=1; the overall figure weights it by 1
	// against the 3-tuple cluster.
	ds := mustDataSet(t, [][]float64{{0}, {1}, {2}, {20}})
	st, err := ComputeSilhouette(ds, NewGroundTruth([]int{1, 1, 1, 2}), SilhouetteConfig{})
	require.NoError(t, err)

	single := st.Cluster(2)
	assert.Equal(t, 1, single.Population)
	assert.Equal(t, 0.0, single.Compactness)
	assert.Equal(t, 1.0, single.Silhouette)

	big := st.Cluster(1)
	want := (3*big.Silhouette + 1*single.Silhouette) / 4
	assert.InDelta(t, want, st.Silhouette, floatTol)
}

func TestSilhouette_OnlyOneClusterPopulated(t *testing.T) {
	ds := mustDataSet(t, [][]float64{{0}, {1}, {2}})
	st, err := ComputeSilhouette(ds, fixedLabels{labels: []int{1, 1, 1}, k: 2}, SilhouetteConfig{})
	require.NoError(t, err)

	assert.True(t, math.IsInf(st.Separation, 1))
	assert.Equal(t, 1.0, st.Silhouette)
	assert.Equal(t, 0, st.Cluster(2).Population)
}

func TestSilhouette_CoincidentClusters(t *testing.T) {
	ds := mustDataSet(t, [][]float64{{3}, {3}})
	st, err := ComputeSilhouette(ds, NewGroundTruth([]int{1, 2}), SilhouetteConfig{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, st.Tuple(0).S)
	assert.Equal(t, 0.0, st.Silhouette)
}

func TestSilhouette_RangeAndWorkerIndependence(t *testing.T) {
	data, _ := gaussianBlobs(31, [][]float64{{0, 0}, {3, 3}, {-3, 2}}, 40, 1.5)
	ds := mustFlatDataSet(t, 120, 2, data)
	km, err := NewKMeans(ds, DefaultKMeansConfig(3, rand.New(rand.NewPCG(1, 1))))
	require.NoError(t, err)
	require.GreaterOrEqual(t, km.ClusterCount(), 2)

	one, err := ComputeSilhouette(ds, km, SilhouetteConfig{Workers: 1})
	require.NoError(t, err)
	many, err := ComputeSilhouette(ds, km, SilhouetteConfig{Workers: 5})
	require.NoError(t, err)
	assert.Equal(t, one, many)

	for i := 0; i < one.TupleCount(); i++ {
		if s := one.Tuple(i).S; s < -1 || s > 1 {
			t.Errorf("tuple %d silhouette %v outside [-1, 1]", i, s)
		}
	}
	assert.Equal(t, 0.0, one.Noise)
}

func TestSilhouette_Errors(t *testing.T) {
	ds := mustDataSet(t, [][]float64{{0}, {1}, {2}})

	_, err := ComputeSilhouette(ds, NewGroundTruth([]int{1, 1, 1}), SilhouetteConfig{})
	require.ErrorIs(t, err, ErrInvalidArgument, "one cluster")

	_, err = ComputeSilhouette(ds, fixedLabels{labels: []int{0, 0, 0}, k: 2}, SilhouetteConfig{})
	require.ErrorIs(t, err, ErrInvalidArgument, "all noise")

	_, err = ComputeSilhouette(ds, fixedLabels{labels: []int{1, 2, 3}, k: 2}, SilhouetteConfig{})
	require.ErrorIs(t, err, ErrInvalidArgument, "label out of range")

	_, err = ComputeSilhouette(mustFlatDataSet(t, 0, 1, nil), NewGroundTruth([]int{1, 2}), SilhouetteConfig{})
	require.ErrorIs(t, err, ErrInvalidArgument, "no tuples")
}
