// Package pairwise builds the spatial, temporal and combined dissimilarity
// matrices between observations.
//
// Cells are tagged: each off-diagonal cell is either in range, holding the
// measured value, or excluded by a limit. Excluded cells are never used in
// arithmetic; they are only rendered through an encoding value when a
// matrix is read with At or written out.
package pairwise

import (
	"encoding/csv"
	"io"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

const (
	// RawExcluded encodes an excluded cell in the raw spatial and temporal
	// matrices.
	RawExcluded = -1
	// NormalizedExcluded encodes an excluded cell in the normalised
	// matrices. It is far above any in-range normalised value.
	NormalizedExcluded = 99999
)

// PairMatrix is a symmetric N×N matrix with a zero, always in-range diagonal
// and an exclusion tag per off-diagonal cell.
type PairMatrix struct {
	n        int
	values   *mat.SymDense
	excluded []bool // row-major n×n, both triangles kept in sync
}

func newPairMatrix(n int) *PairMatrix {
	m := &PairMatrix{n: n, excluded: make([]bool, n*n)}
	if n > 0 {
		m.values = mat.NewSymDense(n, nil)
	}
	return m
}

// set stores an in-range value for the unordered pair (i, j). Distinct pairs
// touch distinct memory, so rows may be filled concurrently.
func (m *PairMatrix) set(i, j int, v float64) {
	m.values.SetSym(i, j, v)
	m.excluded[i*m.n+j] = false
	m.excluded[j*m.n+i] = false
}

// exclude tags the unordered pair (i, j) and stores its encoding value.
func (m *PairMatrix) exclude(i, j int, encoded float64) {
	m.values.SetSym(i, j, encoded)
	m.excluded[i*m.n+j] = true
	m.excluded[j*m.n+i] = true
}

// Len returns N.
func (m *PairMatrix) Len() int {
	return m.n
}

// At returns the encoded cell value: the in-range value, or the matrix's
// exclusion encoding for excluded cells.
func (m *PairMatrix) At(i, j int) float64 {
	return m.values.At(i, j)
}

// Value returns the in-range value of a cell and false when it is excluded.
func (m *PairMatrix) Value(i, j int) (float64, bool) {
	if m.excluded[i*m.n+j] {
		return 0, false
	}
	return m.values.At(i, j), true
}

// Excluded reports whether the pair was gated out by a limit.
func (m *PairMatrix) Excluded(i, j int) bool {
	return m.excluded[i*m.n+j]
}

// MaxInRange returns the largest in-range off-diagonal value and false when
// no off-diagonal cell is in range.
func (m *PairMatrix) MaxInRange() (float64, bool) {
	found := false
	max := 0.0
	for i := 0; i < m.n; i++ {
		for j := i + 1; j < m.n; j++ {
			v, ok := m.Value(i, j)
			if !ok {
				continue
			}
			if !found || v > max {
				max = v
				found = true
			}
		}
	}
	return max, found
}

// WriteCSV writes the encoded matrix with a 0..N-1 header row. Values use the
// shortest representation that round-trips, so output is reproducible.
func (m *PairMatrix) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	record := make([]string, m.n)
	for j := range record {
		record[j] = strconv.Itoa(j)
	}
	if err := cw.Write(record); err != nil {
		return err
	}
	for i := 0; i < m.n; i++ {
		for j := 0; j < m.n; j++ {
			record[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
