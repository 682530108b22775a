package alertindex

import (
	"encoding/csv"
	"io"
	"strconv"
)

// OutputFileStem is the frontier table's file name stem.
const OutputFileStem = "optimization"

// Header returns the frontier table's columns: solution number, alpha, one
// weight per alert feature, both objectives, and solver diagnostics.
func Header() []string {
	h := []string{"solution", "alpha"}
	for _, f := range AlertFeatures {
		h = append(h, "w_"+f)
	}
	return append(h, "objective1", "objective2", "success", "message", "dominated")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes the frontier, numbering solutions from 1 in row order.
// The baseline's alpha cell is empty. A solution without weights gets empty
// weight and objective cells, never zeros.
func (f *Frontier) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for i, s := range f.Solutions {
		record := []string{strconv.Itoa(i + 1), ""}
		if !s.Baseline {
			record[1] = formatFloat(s.Alpha)
		}
		for k := range AlertFeatures {
			cell := ""
			if s.Weights != nil {
				cell = formatFloat(s.Weights[k])
			}
			record = append(record, cell)
		}
		obj1, obj2 := "", ""
		if s.Weights != nil {
			obj1, obj2 = formatFloat(s.Objective1), formatFloat(s.Objective2)
		}
		record = append(record, obj1, obj2,
			strconv.FormatBool(s.Success), s.Message, strconv.FormatBool(s.Dominated))
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
