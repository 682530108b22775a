package features

import (
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/jsangelo/index-based-alert-system/internal/failure"
	"github.com/jsangelo/index-based-alert-system/internal/observation"
)

// Method selects how feature columns are rescaled.
type Method string

const (
	// ZScore centres on the mean and divides by the population standard
	// deviation.
	ZScore Method = "zscore"
	// MinMax maps the observed range onto [0, 1].
	MinMax Method = "minmax"
)

// ParseMethod validates a scaling method name.
func ParseMethod(name string) (Method, error) {
	switch m := Method(name); m {
	case ZScore, MinMax:
		return m, nil
	case "":
		return ZScore, nil
	default:
		return "", failure.Config("parse scaling", fmt.Errorf("unknown scaling method %q (want %s or %s)", name, ZScore, MinMax))
	}
}

// Scaler holds per-column offsets and scales fitted on a matrix.
type Scaler struct {
	Method Method
	Offset []float64
	Scale  []float64
}

// Fit computes per-column parameters over every row of x. A constant column
// gets scale 1, so it maps to a constant rather than NaN.
func Fit(method Method, x mat.Matrix) *Scaler {
	_, c := x.Dims()
	s := &Scaler{Method: method, Offset: make([]float64, c), Scale: make([]float64, c)}
	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, x)
		var offset, scale float64
		switch method {
		case MinMax:
			offset = floats.Min(col)
			scale = floats.Max(col) - offset
		default:
			offset, scale = stat.PopMeanStdDev(col, nil)
		}
		if scale == 0 {
			scale = 1
		}
		s.Offset[j] = offset
		s.Scale[j] = scale
	}
	return s
}

// Transform returns a scaled copy of x.
func (s *Scaler) Transform(x mat.Matrix) *mat.Dense {
	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, v float64) float64 {
		return (v - s.Offset[j]) / s.Scale[j]
	}, x)
	return out
}

// FitTransform fits a scaler on x and returns the scaled copy.
func FitTransform(method Method, x mat.Matrix) *mat.Dense {
	return Fit(method, x).Transform(x)
}

// OutputSuffix returns the file name suffix of a table scaled with m.
func (m Method) OutputSuffix() string {
	if m == MinMax {
		return "_normalizado"
	}
	return "_padronizado"
}

// ScaleTable returns a copy of t with every BaseFeatures column rescaled.
// Other columns are copied unchanged.
func ScaleTable(t *observation.Table, method Method) (*observation.Table, error) {
	raw, err := Matrix(t, BaseFeatures)
	if err != nil {
		return nil, err
	}
	scaled := FitTransform(method, raw)

	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = append([]string(nil), row...)
	}
	out := observation.NewTable(append([]string(nil), t.Header...), rows)
	for j, col := range BaseFeatures {
		values := make([]string, len(rows))
		for i := range values {
			values[i] = strconv.FormatFloat(scaled.At(i, j), 'g', -1, 64)
		}
		if err := out.SetColumn(col, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}
