package clustering

import (
	"gonum.org/v1/gonum/floats"
)

// DataSet is an immutable sequence of tuples with a fixed number of numeric
// attributes, stored flat in row-major order: attribute a of tuple t lives at
// data[t*attrCount+a].
//
// The buffer is borrowed from the creator and never modified by this package,
// so a DataSet can be shared by any number of concurrent algorithm runs.
type DataSet struct {
	tupleCount int
	attrCount  int
	data       []float64
}

// NewDataSet wraps data as a DataSet of tupleCount tuples with attrCount
// attributes each. data may be longer than tupleCount*attrCount; the extra
// values are ignored.
func NewDataSet(tupleCount, attrCount int, data []float64) (*DataSet, error) {
	if tupleCount < 0 {
		return nil, invalidArgf("tupleCount must be >= 0, got %d", tupleCount)
	}
	if attrCount < 1 {
		return nil, invalidArgf("attrCount must be >= 1, got %d", attrCount)
	}
	if len(data) < tupleCount*attrCount {
		return nil, invalidArgf("data length %d is shorter than tupleCount*attrCount = %d (tupleCount=%d, attrCount=%d)",
			len(data), tupleCount*attrCount, tupleCount, attrCount)
	}
	return &DataSet{tupleCount: tupleCount, attrCount: attrCount, data: data}, nil
}

// DataSetFromRows copies equal-length rows into a new flat DataSet.
func DataSetFromRows(rows [][]float64) (*DataSet, error) {
	if len(rows) == 0 {
		return nil, invalidArgf("at least one row is required to infer attrCount")
	}
	attrs := len(rows[0])
	flat := make([]float64, len(rows)*attrs)
	for i, row := range rows {
		if len(row) != attrs {
			return nil, invalidArgf("row %d has %d attributes, want %d", i, len(row), attrs)
		}
		copy(flat[i*attrs:], row)
	}
	return NewDataSet(len(rows), attrs, flat)
}

// Head returns a view of the first n tuples. The view shares the buffer.
func (ds *DataSet) Head(n int) (*DataSet, error) {
	if n < 0 || n > ds.tupleCount {
		return nil, invalidArgf("head size must be in [0, %d], got %d", ds.tupleCount, n)
	}
	return &DataSet{tupleCount: n, attrCount: ds.attrCount, data: ds.data}, nil
}

// TupleCount returns the number of tuples.
func (ds *DataSet) TupleCount() int { return ds.tupleCount }

// AttrCount returns the number of attributes per tuple.
func (ds *DataSet) AttrCount() int { return ds.attrCount }

// Attr returns attribute a of tuple t.
func (ds *DataSet) Attr(t, a int) float64 { return ds.data[t*ds.attrCount+a] }

// Tuple returns the attributes of tuple t as a slice of the underlying
// buffer. Callers must not modify it.
func (ds *DataSet) Tuple(t int) []float64 {
	off := t * ds.attrCount
	return ds.data[off : off+ds.attrCount : off+ds.attrCount]
}

// DistSq returns the squared Euclidean distance between tuples a and b.
func (ds *DataSet) DistSq(a, b int) float64 {
	return sumOfSquares(ds.Tuple(a), ds.Tuple(b))
}

// Dist returns the Euclidean distance between tuples a and b.
func (ds *DataSet) Dist(a, b int) float64 {
	return floats.Distance(ds.Tuple(a), ds.Tuple(b), 2)
}

// DistSqTo returns the squared Euclidean distance between tuple t and an
// external tuple p of length AttrCount.
func (ds *DataSet) DistSqTo(t int, p []float64) float64 {
	return sumOfSquares(ds.Tuple(t), p[:ds.attrCount])
}

// DistTo returns the Euclidean distance between tuple t and an external
// tuple p of length AttrCount.
func (ds *DataSet) DistTo(t int, p []float64) float64 {
	return floats.Distance(ds.Tuple(t), p[:ds.attrCount], 2)
}

// DistSq returns the squared Euclidean distance between two tuples of equal
// length that live outside any DataSet.
func DistSq(p, q []float64) float64 {
	if len(p) != len(q) {
		panic("clustering: tuple length mismatch")
	}
	return sumOfSquares(p, q)
}

// Dist returns the Euclidean distance between two tuples of equal length.
func Dist(p, q []float64) float64 {
	return floats.Distance(p, q, 2)
}

// sumOfSquares skips the sqrt so the squared comparisons used by K-Means and
// DBSCAN stay exact for small integer data.
func sumOfSquares(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
