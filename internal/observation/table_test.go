package observation

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsangelo/index-based-alert-system/internal/failure"
)

func TestReadTable(t *testing.T) {
	in := "\ufeffr_reg,r_lat,r_long\n1,-22.5,-43.1\n2,-22.6,-43.2\n"
	tbl, err := ReadTable(strings.NewReader(in), ',')
	require.NoError(t, err)

	assert.Equal(t, []string{"r_reg", "r_lat", "r_long"}, tbl.Header)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "-22.6", tbl.Value(1, ColLatitude))
	assert.Equal(t, "", tbl.Value(0, "missing"))
}

func TestReadTable_Errors(t *testing.T) {
	testCases := []struct {
		name string
		in   string
	}{
		{"empty input", ""},
		{"ragged row", "a,b\n1,2,3\n"},
		{"bad quoting", "a,b\n\"1,2\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadTable(strings.NewReader(tc.in), ',')
			require.Error(t, err)
			assert.Equal(t, failure.KindInput, failure.KindOf(err))
		})
	}
}

func TestTable_Require(t *testing.T) {
	tbl := NewTable([]string{"r_lat", "r_data"}, nil)

	require.NoError(t, tbl.Require(ColLatitude, ColDate))

	err := tbl.Require(ColLatitude, ColLongitude, "other")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), `"r_long"`)
	assert.Equal(t, failure.KindInput, failure.KindOf(err))
}

func TestTable_SetColumn(t *testing.T) {
	tbl := NewTable([]string{"a"}, [][]string{{"1"}, {"2"}})

	require.NoError(t, tbl.SetColumn("b", []string{"x", "y"}))
	require.NoError(t, tbl.SetColumn("a", []string{"3", "4"}))
	assert.Equal(t, []string{"a", "b"}, tbl.Header)
	assert.Equal(t, [][]string{{"3", "x"}, {"4", "y"}}, tbl.Rows)

	assert.Error(t, tbl.SetColumn("c", []string{"only one"}))
}

func TestTable_RenameAndFilter(t *testing.T) {
	tbl := NewTable([]string{"old", "keep"}, [][]string{{"1", "a"}, {"2", "b"}, {"3", "c"}})
	tbl.Rename(map[string]string{"old": "new"})

	_, ok := tbl.Col("new")
	assert.True(t, ok)
	_, ok = tbl.Col("old")
	assert.False(t, ok)

	odd := tbl.Filter(func(i int) bool { return i%2 == 0 })
	assert.Equal(t, 2, odd.Len())
	assert.Equal(t, "3", odd.Value(1, "new"))
	assert.Equal(t, 3, tbl.Len())
}

func TestTable_WriteCSV(t *testing.T) {
	tbl := NewTable([]string{"a", "b"}, [][]string{{"1", "x,y"}})
	var buf bytes.Buffer
	require.NoError(t, tbl.WriteCSV(&buf))
	assert.Equal(t, "a,b\n1,\"x,y\"\n", buf.String())
}
