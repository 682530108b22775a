package features

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsangelo/index-based-alert-system/internal/failure"
	"github.com/jsangelo/index-based-alert-system/internal/observation"
)

func TestRequire(t *testing.T) {
	tbl := observation.NewTable([]string{ColMorto, ColNumReg}, nil)
	require.NoError(t, Require(tbl, ColMorto))

	err := Require(tbl, ColMorto, ColExtensao, ColIntervalo)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Contains(t, err.Error(), `"extensao"`)
	assert.Equal(t, failure.KindInput, failure.KindOf(err))
}

func TestColumns(t *testing.T) {
	tbl := observation.NewTable(
		[]string{ColCluster1, ColMorto},
		[][]string{{"0", "2.5"}, {"3.0", "0"}},
	)

	ids, err := Ints(tbl, ColCluster1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, ids)

	_, err = Ints(tbl, ColMorto)
	assert.Error(t, err)

	m, err := Matrix(tbl, []string{ColMorto, ColCluster1})
	require.NoError(t, err)
	assert.Equal(t, 2.5, m.At(0, 0))
	assert.Equal(t, 3.0, m.At(1, 1))

	bad := observation.NewTable([]string{ColMorto}, [][]string{{""}})
	_, err = Float64s(bad, ColMorto)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")

	_, err = Matrix(observation.NewTable([]string{ColMorto}, nil), []string{ColMorto})
	assert.ErrorIs(t, err, observation.ErrEmpty)
}

func TestWriteCSV(t *testing.T) {
	day := time.Date(2018, time.February, 3, 0, 0, 0, 0, time.UTC)
	v := Vector{
		Cluster1: 4, Cluster2: -1,
		AQuant: 3, Morto: 2, Vivo: 1,
		Intervalo: 1, DataIni: day, DataFim: day,
		Extensao: 0.25, Confirmado: 1, NumReg: 2,
		FreqNumReg: 2, FreqAQuant: 3, FreqVivo: 1, FreqMorto: 2,
		PercMortos: 2.0 / 3, PercVivos: 1.0 / 3,
		Geocode: "3550308", MUN: "São Paulo", UF: "SP",
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Vector{v}))

	tbl, err := observation.ReadTable(&buf, ',')
	require.NoError(t, err)
	assert.Equal(t, Header, tbl.Header)
	assert.Equal(t, "-1", tbl.Value(0, ColCluster2))
	assert.Equal(t, "2018-02-03", tbl.Value(0, ColDataIni))
	assert.Equal(t, "São Paulo", tbl.Value(0, ColMUN))

	perc, err := Float64s(tbl, ColPercMortos)
	require.NoError(t, err)
	assert.Equal(t, 2.0/3, perc[0])
}
