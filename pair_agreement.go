package clustering

// PairAgreement holds BCubed precision and recall of a clustering measured
// against a reference. Both lie in [0, 1] and are 1 when the two partitions
// are identical.
type PairAgreement struct {
	// Precision is the population-weighted mean, over predicted clusters, of
	// the fraction of a tuple's co-members that share its reference label.
	Precision float64

	// Recall is the same measure with the roles of the two clusterings
	// swapped.
	Recall float64

	// TupleCount is the number of tuples compared, the shorter of the two
	// clusterings.
	TupleCount int
}

// ComputePairAgreement compares predicted against truth over their common
// tuple range. Noise (label 0) is treated as one more group on both sides. A
// tuple alone in its group counts as perfectly placed.
func ComputePairAgreement(truth, predicted Clustering) (*PairAgreement, error) {
	n := min(truth.TupleCount(), predicted.TupleCount())
	if n == 0 {
		return nil, invalidArgf("pair agreement needs at least one tuple")
	}
	tl, err := checkedLabels(truth, n)
	if err != nil {
		return nil, err
	}
	pl, err := checkedLabels(predicted, n)
	if err != nil {
		return nil, err
	}

	// confusion[c*trCnt+l] counts tuples with predicted label c and truth
	// label l.
	trCnt := truth.ClusterCount() + 1
	clCnt := predicted.ClusterCount() + 1
	confusion := make([]int64, clCnt*trCnt)
	for t := 0; t < n; t++ {
		confusion[pl[t]*trCnt+tl[t]]++
	}

	var prec float64
	for c := 0; c < clCnt; c++ {
		prec += groupAgreement(confusion[c*trCnt:(c+1)*trCnt], 1)
	}

	var rec float64
	for l := 0; l < trCnt; l++ {
		rec += groupAgreement(confusion[l:], trCnt)
	}

	return &PairAgreement{
		Precision:  prec / float64(n),
		Recall:     rec / float64(n),
		TupleCount: n,
	}, nil
}

// groupAgreement sums, over the tuples of one group, the fraction of each
// tuple's other group members that also share its label on the other side.
// The group's counts are row[0], row[stride], row[2*stride], ...
func groupAgreement(row []int64, stride int) float64 {
	var pop, pairs int64
	for i := 0; i < len(row); i += stride {
		count := row[i]
		pop += count
		pairs += count * (count - 1)
	}
	switch {
	case pop == 0:
		return 0
	case pop == 1:
		return 1
	default:
		return float64(pairs) / float64(pop-1)
	}
}

// FMeasure returns the harmonic mean of precision and recall, or 0 when
// both are 0.
func (p *PairAgreement) FMeasure() float64 {
	if p.Precision+p.Recall == 0 {
		return 0
	}
	return 2 * p.Precision * p.Recall / (p.Precision + p.Recall)
}
