// Package sweep parses and generates the scalarisation grids swept by the
// alert-index optimiser.
package sweep

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxValues caps the length of a generated grid.
const MaxValues = 10000

// RangeSpec defines an inclusive floating-point range.
type RangeSpec struct {
	Min  float64
	Max  float64
	Step float64
}

// ParseRangeSpec parses a "min:max:step" string into a RangeSpec.
func ParseRangeSpec(s string) (RangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return RangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}

	var vals [3]float64
	for i, name := range []string{"min", "max", "step"} {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return RangeSpec{}, fmt.Errorf("invalid %s value %q: %w", name, parts[i], err)
		}
		vals[i] = v
	}

	if !(vals[2] > 0) {
		return RangeSpec{}, fmt.Errorf("step must be positive, got %v", vals[2])
	}
	if vals[0] > vals[1] {
		return RangeSpec{}, fmt.Errorf("min %v exceeds max %v", vals[0], vals[1])
	}
	return RangeSpec{Min: vals[0], Max: vals[1], Step: vals[2]}, nil
}

// Values expands the range with GenerateRange.
func (r RangeSpec) Values() []float64 {
	return GenerateRange(r.Min, r.Max, r.Step)
}

// GenerateRange generates values from min to max (inclusive) stepping by step,
// rounded to three decimals so accumulated error never drops the endpoint.
// Returns nil if min > max, step is not positive, or the grid would exceed
// MaxValues.
func GenerateRange(min, max, step float64) []float64 {
	if !(step > 0) || min > max {
		return nil
	}

	expectedCount := int((max-min)/step) + 1
	if expectedCount > MaxValues || expectedCount < 0 {
		return nil
	}

	result := make([]float64, 0, expectedCount)
	for k := 0; len(result) < MaxValues; k++ {
		v := min + float64(k)*step
		if v > max+step/1000 {
			break
		}
		rounded := math.Round(v*1000) / 1000
		if rounded <= max {
			result = append(result, rounded)
		}
	}
	return result
}

// ParseCSVFloat64s parses a comma-separated list of float64 values.
// Returns nil, nil for empty input strings.
func ParseCSVFloat64s(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseParamList parses a comma-separated list of floats or a range specification.
// If the string contains a colon, it is treated as "min:max:step" range spec.
func ParseParamList(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	if strings.Contains(s, ":") {
		spec, err := ParseRangeSpec(s)
		if err != nil {
			return nil, err
		}
		return spec.Values(), nil
	}
	return ParseCSVFloat64s(s)
}

// ParseUnitGrid parses a grid with ParseParamList and checks that it is
// non-empty and that every value lies in [0, 1].
func ParseUnitGrid(s string) ([]float64, error) {
	values, err := ParseParamList(s)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("grid %q has no values", s)
	}
	for _, v := range values {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return nil, fmt.Errorf("grid value %v outside [0, 1]", v)
		}
	}
	return values, nil
}
