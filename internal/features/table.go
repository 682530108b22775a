package features

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/jsangelo/index-based-alert-system/internal/failure"
	"github.com/jsangelo/index-based-alert-system/internal/observation"
)

// ErrSchemaMismatch is returned when a feature table lacks a column the
// optimiser depends on.
var ErrSchemaMismatch = errors.New("feature table schema mismatch")

// Require reports the first column of cols missing from t.
func Require(t *observation.Table, cols ...string) error {
	for _, c := range cols {
		if _, ok := t.Col(c); !ok {
			return failure.Input("validate feature table", fmt.Errorf("%w: missing column %q", ErrSchemaMismatch, c))
		}
	}
	return nil
}

// Float64s parses a numeric column.
func Float64s(t *observation.Table, col string) ([]float64, error) {
	if err := Require(t, col); err != nil {
		return nil, err
	}
	out := make([]float64, t.Len())
	for i := range t.Rows {
		s := strings.TrimSpace(t.Value(i, col))
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, failure.Input("read feature table", fmt.Errorf("row %d: column %s: invalid number %q", i+1, col, s))
		}
		out[i] = v
	}
	return out, nil
}

// Ints parses an integer column. Integral floats such as "3.0" are accepted.
func Ints(t *observation.Table, col string) ([]int, error) {
	vals, err := Float64s(t, col)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(vals))
	for i, v := range vals {
		if v != float64(int(v)) {
			return nil, failure.Input("read feature table", fmt.Errorf("row %d: column %s: %v is not an integer", i+1, col, v))
		}
		out[i] = int(v)
	}
	return out, nil
}

// Matrix parses the named columns into a rows × len(cols) matrix.
func Matrix(t *observation.Table, cols []string) (*mat.Dense, error) {
	if err := Require(t, cols...); err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, failure.Input("read feature table", observation.ErrEmpty)
	}
	m := mat.NewDense(t.Len(), len(cols), nil)
	for j, c := range cols {
		vals, err := Float64s(t, c)
		if err != nil {
			return nil, err
		}
		m.SetCol(j, vals)
	}
	return m, nil
}
