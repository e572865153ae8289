package clustering

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// DBSCANConfig controls DBSCAN clustering.
// Start with [DefaultDBSCANConfig] or [AutoDBSCANConfig] and override the
// fields you need.
type DBSCANConfig struct {
	// Eps is the neighborhood radius. Must be >= 0. Ignored when Auto is set.
	Eps float64

	// MinPts is the number of tuples within Eps, the tuple itself included,
	// that makes a tuple a core point. Tuples already owned by an earlier
	// cluster do not count. Must be >= 1. Ignored when Auto is set.
	MinPts int

	// Auto estimates Eps and MinPts from a random sample of the data with
	// EstimateDBSCANParams. If estimation fails the run falls back to
	// Eps=0.5, MinPts=10 and the description says so.
	Auto bool

	// Rand drives the sampling when Auto is set.
	Rand Rand

	// NeighborSearch selects the neighborhood query strategy. Every strategy
	// yields the same clustering. Default: "auto".
	NeighborSearch NeighborSearch

	// LeafSize is the maximum number of tuples in a spatial tree leaf.
	// Default: 40.
	LeafSize int

	// Logger receives estimation and progress output. Default: no-op.
	Logger *zap.Logger
}

// DefaultDBSCANConfig returns a DBSCANConfig with explicit parameters.
func DefaultDBSCANConfig(eps float64, minPts int) DBSCANConfig {
	return DBSCANConfig{
		Eps:            eps,
		MinPts:         minPts,
		NeighborSearch: NeighborSearchAuto,
		LeafSize:       40,
	}
}

// AutoDBSCANConfig returns a DBSCANConfig that estimates its parameters
// from rng-driven samples.
func AutoDBSCANConfig(rng Rand) DBSCANConfig {
	return DBSCANConfig{
		Auto:           true,
		Rand:           rng,
		NeighborSearch: NeighborSearchAuto,
		LeafSize:       40,
	}
}

// DBSCAN is the result of density-based clustering. Tuples that are neither
// core points nor within Eps of a core point are noise (label 0).
type DBSCAN struct {
	labels     []int
	clusterCnt int
	params     DBSCANParams
	auto       bool
	fallback   bool
	noise      int
	desc       string
}

func applyDBSCANDefaults(cfg *DBSCANConfig) {
	if cfg.NeighborSearch == "" {
		cfg.NeighborSearch = NeighborSearchAuto
	}
	if cfg.LeafSize == 0 {
		cfg.LeafSize = 40
	}
}

func validateDBSCANConfig(cfg *DBSCANConfig) error {
	if cfg.Auto {
		if cfg.Rand == nil {
			return invalidArgf("Rand is required when Auto is set")
		}
	} else {
		if math.IsNaN(cfg.Eps) || cfg.Eps < 0 {
			return invalidArgf("Eps must be >= 0, got %f", cfg.Eps)
		}
		if cfg.MinPts < 1 {
			return invalidArgf("MinPts must be >= 1, got %d", cfg.MinPts)
		}
	}
	if cfg.LeafSize < 1 {
		return invalidArgf("LeafSize must be >= 1, got %d", cfg.LeafSize)
	}
	return nil
}

// NewDBSCAN clusters ds by density reachability.
func NewDBSCAN(ds *DataSet, cfg DBSCANConfig) (*DBSCAN, error) {
	applyDBSCANDefaults(&cfg)
	if err := validateDBSCANConfig(&cfg); err != nil {
		return nil, err
	}
	search, err := selectNeighborSearch(cfg.NeighborSearch, ds.TupleCount(), ds.AttrCount())
	if err != nil {
		return nil, err
	}
	log := loggerOrNop(cfg.Logger)

	params := DBSCANParams{Eps: cfg.Eps, MinPts: cfg.MinPts}
	fallback := false
	if cfg.Auto {
		params, err = EstimateDBSCANParams(ds, cfg.Rand)
		if err != nil {
			log.Warn("dbscan parameter estimation failed, using defaults",
				zap.Error(err),
				zap.Float64("eps", fallbackEps),
				zap.Int("min_pts", fallbackMinPts))
			params = DBSCANParams{Eps: fallbackEps, MinPts: fallbackMinPts}
			fallback = true
		} else {
			log.Debug("dbscan parameters estimated",
				zap.Float64("eps", params.Eps),
				zap.Int("min_pts", params.MinPts),
				zap.Int("elbow_k", params.ElbowK))
		}
	}

	index := newNeighborIndex(ds, search, cfg.LeafSize)
	labels, clusterCnt := growRegions(index, params.Eps, params.MinPts)

	noise := 0
	for _, l := range labels {
		if l == 0 {
			noise++
		}
	}
	log.Debug("dbscan finished",
		zap.String("neighbor_search", string(search)),
		zap.Int("clusters", clusterCnt),
		zap.Int("noise", noise))

	var desc string
	switch {
	case fallback:
		desc = "DBSCAN(auto FAILED)"
	case cfg.Auto:
		desc = fmt.Sprintf("DBSCAN(auto eps=%.3f, minpts=%d)", params.Eps, params.MinPts)
	default:
		desc = fmt.Sprintf("DBSCAN(eps=%.3f, minpts=%d)", params.Eps, params.MinPts)
	}

	return &DBSCAN{
		labels:     labels,
		clusterCnt: clusterCnt,
		params:     params,
		auto:       cfg.Auto,
		fallback:   fallback,
		noise:      noise,
		desc:       desc,
	}, nil
}

// growRegions labels every tuple of index with its cluster, 0 for noise.
// Clusters are numbered in the order of their seed tuple.
//
// Each popped tuple gets one pass over its neighborhood. Unclaimed neighbors
// are admitted provisionally and neighbors already in this cluster are left
// alone; both count toward the core threshold. Neighbors claimed by an
// earlier cluster stay there and do not count. If the tuple turns out not to
// be core, its provisional admissions are reverted.
func growRegions(index NeighborIndex, eps float64, minPts int) ([]int, int) {
	n := index.NumPoints()
	labels := make([]int, n)
	queue := make([]int, 0, n)
	var nbuf []int

	clusterCnt := 0
	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}

		id := clusterCnt + 1
		labels[i] = id
		queue = append(queue[:0], i)
		seedCore := false

		for head := 0; head < len(queue); head++ {
			j := queue[head]
			nbuf = index.RadiusNeighbors(j, eps, nbuf[:0])

			mark := len(queue)
			reach := 0
			for _, k := range nbuf {
				switch labels[k] {
				case 0:
					labels[k] = id
					queue = append(queue, k)
					reach++
				case id:
					reach++
				}
			}
			core := reach >= minPts
			if !core {
				for _, k := range queue[mark:] {
					labels[k] = 0
				}
				queue = queue[:mark]
			}
			if head == 0 {
				seedCore = core
			}
		}

		// Only a core point can seed a cluster. A rejected seed stays
		// unclaimed and may still become a border point of a later cluster.
		if !seedCore {
			labels[i] = 0
			continue
		}
		clusterCnt = id
	}

	return labels, clusterCnt
}

func (db *DBSCAN) TupleCount() int     { return len(db.labels) }
func (db *DBSCAN) ClusterCount() int   { return db.clusterCnt }
func (db *DBSCAN) ClusterID(t int) int { return db.labels[t] }
func (db *DBSCAN) String() string      { return db.desc }

// Params returns the Eps and MinPts the clustering ran with.
func (db *DBSCAN) Params() DBSCANParams { return db.params }

// Auto reports whether the parameters were estimated.
func (db *DBSCAN) Auto() bool { return db.auto }

// Fallback reports whether estimation failed and the defaults were used.
func (db *DBSCAN) Fallback() bool { return db.fallback }

// Noise returns the number of tuples labelled 0.
func (db *DBSCAN) Noise() int { return db.noise }
