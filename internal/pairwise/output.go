package pairwise

import (
	"path/filepath"

	"github.com/jsangelo/index-based-alert-system/internal/fsutil"
)

// Output file name stems; the limits suffix and .csv are appended.
const (
	SpatialFileStem  = "distance_matrix"
	TemporalFileStem = "time_matrix"
	CombinedFileStem = "total_distance"
)

// FileName returns the output file name for a matrix stem and limits, e.g.
// "distance_matrix_30d_1km.csv".
func FileName(stem string, l Limits) string {
	return stem + "_" + l.Suffix() + ".csv"
}

// WriteMatrices writes the raw spatial, raw temporal and combined matrices to
// dir. Each file is either written whole or not at all.
func WriteMatrices(fsys fsutil.FileSystem, dir string, l Limits, r *Result) error {
	outputs := []struct {
		stem string
		m    *PairMatrix
	}{
		{SpatialFileStem, r.Spatial},
		{TemporalFileStem, r.Temporal},
		{CombinedFileStem, r.Combined},
	}
	for _, o := range outputs {
		if err := fsutil.WriteWith(fsys, filepath.Join(dir, FileName(o.stem, l)), o.m.WriteCSV); err != nil {
			return err
		}
	}
	return nil
}
