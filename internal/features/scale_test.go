package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/jsangelo/index-based-alert-system/internal/failure"
	"github.com/jsangelo/index-based-alert-system/internal/observation"
)

func TestFitTransform_ZScore(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
		6, 5,
	})
	z := FitTransform(ZScore, x)

	col := mat.Col(nil, 0, z)
	mean, std := stat.PopMeanStdDev(col, nil)
	assert.InDelta(t, 0, mean, 1e-12)
	assert.InDelta(t, 1, std, 1e-12)

	// population std of 1,2,3,6 is sqrt(3.5)
	assert.InDelta(t, (1-3)/math.Sqrt(3.5), z.At(0, 0), 1e-12)

	// constant column: centred, scale 1
	for i := 0; i < 4; i++ {
		assert.Equal(t, 0.0, z.At(i, 1))
	}
}

func TestFitTransform_MinMax(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{
		-2, 7,
		0, 7,
		2, 7,
	})
	m := FitTransform(MinMax, x)
	assert.Equal(t, []float64{0, 0.5, 1}, mat.Col(nil, 0, m))
	assert.Equal(t, []float64{0, 0, 0}, mat.Col(nil, 1, m))
}

func TestScaler_TransformOtherRows(t *testing.T) {
	s := Fit(MinMax, mat.NewDense(2, 1, []float64{0, 10}))
	out := s.Transform(mat.NewDense(1, 1, []float64{5}))
	assert.Equal(t, 0.5, out.At(0, 0))
}

func TestParseMethod(t *testing.T) {
	testCases := []struct {
		in   string
		want Method
	}{
		{"zscore", ZScore},
		{"minmax", MinMax},
		{"", ZScore},
	}
	for _, tc := range testCases {
		got, err := ParseMethod(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseMethod("robust")
	require.Error(t, err)
	assert.Equal(t, failure.KindConfig, failure.KindOf(err))
}

func TestScaleTable(t *testing.T) {
	tbl := ToTable([]Vector{
		{Cluster1: 0, Morto: 1, NumReg: 2, Intervalo: 1, Geocode: "A"},
		{Cluster1: 1, Morto: 3, NumReg: 4, Intervalo: 1, Geocode: "B"},
	})

	scaled, err := ScaleTable(tbl, MinMax)
	require.NoError(t, err)
	assert.Equal(t, tbl.Header, scaled.Header)

	morto, err := Float64s(scaled, ColMorto)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, morto)
	intervalo, err := Float64s(scaled, ColIntervalo)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, intervalo)

	// identifiers untouched, source table unchanged
	assert.Equal(t, "B", scaled.Value(1, ColGeocode))
	assert.Equal(t, "1", scaled.Value(1, ColCluster1))
	assert.Equal(t, "3", tbl.Value(1, ColMorto))

	z, err := ScaleTable(tbl, ZScore)
	require.NoError(t, err)
	morto, err = Float64s(z, ColMorto)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 1}, morto)

	_, err = ScaleTable(observation.NewTable([]string{ColMorto}, [][]string{{"1"}}), ZScore)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestMethod_OutputSuffix(t *testing.T) {
	assert.Equal(t, "_padronizado", ZScore.OutputSuffix())
	assert.Equal(t, "_normalizado", MinMax.OutputSuffix())
}
