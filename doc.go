// Package clustering implements unsupervised clustering of flat numeric
// tuple data, plus metrics that score a clustering against a reference
// labelling or by its own geometry.
//
// Four algorithms produce a [Clustering]: [KMeans], [DBSCAN] (with optional
// automatic parameter estimation), [KMedoids] (PAM) and [FuzzyCMeans]. All
// work happens in the constructor; the result is immutable. Labels are 0 for
// noise and 1..ClusterCount() for clusters.
//
// Basic usage:
//
//	ds, err := clustering.NewDataSet(n, dims, data) // data is flat row-major
//	rng := rand.New(rand.NewPCG(1, 2))
//	km, err := clustering.NewKMeans(ds, clustering.DefaultKMeansConfig(3, rng))
//	// km.ClusterID(t) is the cluster of tuple t
//
//	stats, err := clustering.ComputeSilhouette(ds, km, clustering.SilhouetteConfig{})
//	pa, err := clustering.ComputePairAgreement(clustering.NewGroundTruth(truth), km)
//
// # Neighbor search
//
// DBSCAN finds epsilon-neighborhoods with a brute-force scan, a KD-tree or a
// ball tree. By default (NeighborSearch: "auto") small inputs are scanned,
// low-dimensional inputs use the KD-tree and high-dimensional inputs use the
// ball tree. Every strategy returns the same neighborhoods, so the clustering
// does not depend on the choice:
//
//	cfg := clustering.DefaultDBSCANConfig(0.3, 5)
//	cfg.NeighborSearch = clustering.NeighborSearchBallTree
//
// # Errors
//
// Every error wraps one of [ErrInvalidArgument], [ErrDegenerate] or
// [ErrEstimationFailed]; test the category with errors.Is.
package clustering
