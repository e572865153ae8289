package clustering

import (
	"github.com/cockroachdb/errors"
)

// Sentinel errors. Every error returned by this package wraps one of these,
// so callers can test the category with errors.Is while the message keeps
// the specific detail.
var (
	// ErrInvalidArgument reports a precondition violation: a non-positive
	// cluster count, a buffer that is too short, out-of-range labels, or a
	// clustering with fewer than two clusters passed to ComputeSilhouette.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDegenerate reports an empty cluster during a centroid update when the
	// caller selected EmptyClusterFail.
	ErrDegenerate = errors.New("degenerate computation")

	// ErrEstimationFailed reports that automatic DBSCAN parameter estimation
	// found no usable elbow in the k-distance curve.
	ErrEstimationFailed = errors.New("estimation failed")
)

func invalidArgf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, "clustering: "+format, args...)
}

func degeneratef(format string, args ...interface{}) error {
	return errors.Wrapf(ErrDegenerate, "clustering: "+format, args...)
}

func estimationFailedf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrEstimationFailed, "clustering: "+format, args...)
}

// EmptyClusterPolicy decides what a centroid update does with a cluster that
// has no assigned weight.
type EmptyClusterPolicy int

const (
	// EmptyClusterKeep leaves the previous center in place. The center can
	// attract tuples again in a later pass.
	EmptyClusterKeep EmptyClusterPolicy = iota

	// EmptyClusterFail aborts construction with ErrDegenerate.
	EmptyClusterFail
)

func (p EmptyClusterPolicy) String() string {
	switch p {
	case EmptyClusterKeep:
		return "keep"
	case EmptyClusterFail:
		return "fail"
	default:
		return "unknown"
	}
}

func validateEmptyClusterPolicy(p EmptyClusterPolicy) error {
	switch p {
	case EmptyClusterKeep, EmptyClusterFail:
		return nil
	default:
		return invalidArgf("invalid EmptyCluster policy %d", int(p))
	}
}
