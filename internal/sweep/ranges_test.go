package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRange(t *testing.T) {
	testCases := []struct {
		name           string
		min, max, step float64
		want           []float64
	}{
		{"unit tenths", 0, 1, 0.1, []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}},
		{"quarters", 0, 1, 0.25, []float64{0, 0.25, 0.5, 0.75, 1}},
		{"single", 0.5, 0.5, 0.1, []float64{0.5}},
		{"step overshoots max", 0, 1, 0.3, []float64{0, 0.3, 0.6, 0.9}},
		{"reversed", 1, 0, 0.1, nil},
		{"zero step", 0, 1, 0, nil},
		{"too many values", 0, 1, 1e-6, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GenerateRange(tc.min, tc.max, tc.step))
		})
	}
}

func TestParseRangeSpec(t *testing.T) {
	spec, err := ParseRangeSpec(" 0 : 1 : 0.1 ")
	require.NoError(t, err)
	assert.Equal(t, RangeSpec{Min: 0, Max: 1, Step: 0.1}, spec)
	assert.Len(t, spec.Values(), 11)

	for _, bad := range []string{"0:1", "a:1:0.1", "0:b:0.1", "0:1:c", "0:1:0", "0:1:-0.1", "1:0:0.1"} {
		_, err := ParseRangeSpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseParamList(t *testing.T) {
	v, err := ParseParamList("0, 0.5,1,")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1}, v)

	v, err = ParseParamList("0:1:0.5")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1}, v)

	v, err = ParseParamList("")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = ParseParamList("0,x")
	assert.Error(t, err)
}

func TestParseUnitGrid(t *testing.T) {
	v, err := ParseUnitGrid("0:1:0.1")
	require.NoError(t, err)
	assert.Len(t, v, 11)

	for _, bad := range []string{"", "0,1.5", "-0.1", "NaN"} {
		_, err := ParseUnitGrid(bad)
		assert.Error(t, err, bad)
	}
}
