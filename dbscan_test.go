package clustering

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDBSCAN_TwoGroupsOnALine(t *testing.T) {
	ds := mustDataSet(t, [][]float64{{0}, {0}, {0}, {10}, {10}, {10}})

	db, err := NewDBSCAN(ds, DefaultDBSCANConfig(1, 2))
	require.NoError(t, err)

	assert.Equal(t, 2, db.ClusterCount())
	assert.Equal(t, 0, db.Noise())
	if diff := cmp.Diff([]int{1, 1, 1, 2, 2, 2}, Labels(db)); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "DBSCAN(eps=1.000, minpts=2)", db.String())
	assert.False(t, db.Auto())
	assert.False(t, db.Fallback())
}

func TestDBSCAN_NoiseAndBorder(t *testing.T) {
	// With eps=1 and minPts=3 only 1 is core; 0 and 2 are border points and
	// 50 is noise.
	ds := mustDataSet(t, [][]float64{{0}, {1}, {2}, {50}})

	db, err := NewDBSCAN(ds, DefaultDBSCANConfig(1, 3))
	require.NoError(t, err)

	if diff := cmp.Diff([]int{1, 1, 1, 0}, Labels(db)); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, db.Noise())
}

func TestDBSCAN_BorderKeepsFirstCluster(t *testing.T) {
	// 5 is within eps of a core point in both groups but has only 3
	// neighbors itself; the group grown first claims it.
	ds := mustDataSet(t, [][]float64{{-0.5}, {0}, {0.5}, {1}, {5}, {9}, {9.5}, {10}, {10.5}})

	db, err := NewDBSCAN(ds, DefaultDBSCANConfig(4, 4))
	require.NoError(t, err)

	assert.Equal(t, 2, db.ClusterCount())
	if diff := cmp.Diff([]int{1, 1, 1, 1, 1, 2, 2, 2, 2}, Labels(db)); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestDBSCAN_ClaimedNeighborsDoNotCount(t *testing.T) {
	// 1 belongs to the first cluster. Tuple 2 has four tuples within eps,
	// but only 2, 2.9 and 2.9 are available to a new cluster, so it is not
	// core and the right group stays noise.
	ds := mustDataSet(t, [][]float64{{0}, {-0.9}, {-0.9}, {1}, {2}, {2.9}, {2.9}})

	db, err := NewDBSCAN(ds, DefaultDBSCANConfig(1, 4))
	require.NoError(t, err)

	assert.Equal(t, 1, db.ClusterCount())
	assert.Equal(t, 3, db.Noise())
	if diff := cmp.Diff([]int{1, 1, 1, 1, 0, 0, 0}, Labels(db)); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestDBSCAN_NonCoreSeedDoesNotConsumeID(t *testing.T) {
	// Tuple 0 is a border point of the cluster of tuples 2..4 and is visited
	// first; it must not claim label 1 on its own.
	ds := mustDataSet(t, [][]float64{{0}, {100}, {1}, {1.5}, {2}})

	db, err := NewDBSCAN(ds, DefaultDBSCANConfig(1, 3))
	require.NoError(t, err)

	assert.Equal(t, 1, db.ClusterCount())
	if diff := cmp.Diff([]int{1, 0, 1, 1, 1}, Labels(db)); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestDBSCAN_EpsZero(t *testing.T) {
	ds := mustDataSet(t, [][]float64{{0}, {1}, {2}, {3}})

	// Every tuple is its own core point.
	db, err := NewDBSCAN(ds, DefaultDBSCANConfig(0, 1))
	require.NoError(t, err)
	assert.Equal(t, 4, db.ClusterCount())
	assert.Equal(t, 0, db.Noise())
	assertLabelsInRange(t, db)

	// No tuple has a second neighbor at distance 0.
	db, err = NewDBSCAN(ds, DefaultDBSCANConfig(0, 2))
	require.NoError(t, err)
	assert.Equal(t, 0, db.ClusterCount())
	assert.Equal(t, 4, db.Noise())
}

func TestDBSCAN_LargerEpsOnlyMerges(t *testing.T) {
	ds := mustDataSet(t, [][]float64{{0}, {1}, {2}, {5}, {6}, {7}, {20}, {21}})

	var prev []int
	prevCount := -1
	for _, eps := range []float64{1, 3, 13} {
		db, err := NewDBSCAN(ds, DefaultDBSCANConfig(eps, 2))
		require.NoError(t, err)
		labels := Labels(db)

		if prev != nil {
			if db.ClusterCount() > prevCount {
				t.Errorf("eps=%v: cluster count grew from %d to %d", eps, prevCount, db.ClusterCount())
			}
			for i := range labels {
				for j := i + 1; j < len(labels); j++ {
					if prev[i] != 0 && prev[i] == prev[j] && labels[i] != labels[j] {
						t.Errorf("eps=%v: tuples %d and %d were split", eps, i, j)
					}
				}
			}
		}
		prev, prevCount = labels, db.ClusterCount()
	}
	assert.Equal(t, 1, prevCount)
}

func TestDBSCAN_NeighborSearchStrategiesAgree(t *testing.T) {
	data, _ := gaussianBlobs(21, [][]float64{{0, 0}, {5, 5}, {-5, 4}}, 100, 1.0)
	ds := mustFlatDataSet(t, 300, 2, data)

	var want []int
	for _, s := range []NeighborSearch{NeighborSearchBrute, NeighborSearchKDTree, NeighborSearchBallTree, NeighborSearchAuto} {
		cfg := DefaultDBSCANConfig(0.6, 5)
		cfg.NeighborSearch = s
		cfg.LeafSize = 7
		db, err := NewDBSCAN(ds, cfg)
		require.NoError(t, err)
		assertLabelsInRange(t, db)

		got := Labels(db)
		if want == nil {
			want = got
			require.Greater(t, db.ClusterCount(), 1)
			continue
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s labels differ from brute (-brute +%s):\n%s", s, s, diff)
		}
	}
}

func TestDBSCAN_ConfigValidation(t *testing.T) {
	ds := mustDataSet(t, [][]float64{{0}, {1}})

	tests := []struct {
		name string
		cfg  DBSCANConfig
	}{
		{"negative eps", DefaultDBSCANConfig(-1, 2)},
		{"zero minPts", DefaultDBSCANConfig(1, 0)},
		{"auto without rand", DBSCANConfig{Auto: true}},
		{"unknown search", DBSCANConfig{Eps: 1, MinPts: 1, NeighborSearch: "grid"}},
		{"negative leaf size", DBSCANConfig{Eps: 1, MinPts: 1, LeafSize: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDBSCAN(ds, tt.cfg)
			require.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestDBSCAN_AutoFallbackOnTinyData(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ds := mustDataSet(t, [][]float64{{0}, {1}, {2}})

	cfg := AutoDBSCANConfig(rand.New(rand.NewPCG(1, 2)))
	cfg.Logger = zap.New(core)
	db, err := NewDBSCAN(ds, cfg)
	require.NoError(t, err)

	assert.True(t, db.Auto())
	assert.True(t, db.Fallback())
	assert.Equal(t, "DBSCAN(auto FAILED)", db.String())
	assert.Equal(t, DBSCANParams{Eps: 0.5, MinPts: 10}, db.Params())
	assert.Equal(t, 3, db.Noise())
	assert.Equal(t, 1, logs.Len())
}

func TestDBSCAN_AutoFallbackBelowThirtyTuples(t *testing.T) {
	rows := make([][]float64, 10)
	for i := range rows {
		rows[i] = []float64{float64(i)}
	}
	ds := mustDataSet(t, rows)

	db, err := NewDBSCAN(ds, AutoDBSCANConfig(rand.New(rand.NewPCG(8, 9))))
	require.NoError(t, err)

	assert.True(t, db.Fallback())
	assert.Equal(t, "DBSCAN(auto FAILED)", db.String())
	assert.Equal(t, DBSCANParams{Eps: 0.5, MinPts: 10}, db.Params())
	assert.Equal(t, 10, db.Noise())
}

func TestDBSCAN_AutoFallbackOnEmptyData(t *testing.T) {
	db, err := NewDBSCAN(mustFlatDataSet(t, 0, 2, nil), AutoDBSCANConfig(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)
	assert.True(t, db.Fallback())
	assert.Equal(t, 0, db.TupleCount())
	assert.Equal(t, 0, db.ClusterCount())
}

func TestDBSCAN_AutoEstimatesParameters(t *testing.T) {
	data, _ := gaussianBlobs(5, [][]float64{{0, 0}, {20, 20}, {-20, 20}}, 200, 1.0)
	ds := mustFlatDataSet(t, 600, 2, data)

	db, err := NewDBSCAN(ds, AutoDBSCANConfig(rand.New(rand.NewPCG(3, 4))))
	require.NoError(t, err)

	assert.False(t, db.Fallback())
	assert.True(t, strings.HasPrefix(db.String(), "DBSCAN(auto eps="), db.String())
	p := db.Params()
	assert.Greater(t, p.Eps, 0.0)
	assert.GreaterOrEqual(t, p.MinPts, 1)
	assertLabelsInRange(t, db)
}
