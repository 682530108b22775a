package features

import (
	"io"
	"strconv"
	"time"

	"github.com/jsangelo/index-based-alert-system/internal/observation"
)

// Vector is one row of the feature table: the aggregate attributes of a
// (Cluster1, Cluster2) group, attributed to one of its geocodes.
type Vector struct {
	Cluster1, Cluster2 int

	AQuant, Morto, Vivo                 float64
	Normal, Estranho, Doente, Agressivo float64

	Intervalo        int // days spanned, at least 1
	DataIni, DataFim time.Time
	Extensao         float64 // km between bounding-box corners

	Confirmado int
	NumReg     int

	FreqNumReg, FreqAQuant, FreqVivo, FreqMorto float64

	PercMortos, PercVivos, PercNormal, PercEstranho, PercDoente, PercAgressivo float64

	Geocode, MUN, UF string
}

func (v Vector) record() []string {
	f := func(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
	return []string{
		strconv.Itoa(v.Cluster1), strconv.Itoa(v.Cluster2),
		f(v.AQuant), f(v.Morto), f(v.Vivo),
		f(v.Normal), f(v.Estranho), f(v.Doente), f(v.Agressivo),
		strconv.Itoa(v.Intervalo), v.DataIni.Format(observation.DateLayout), v.DataFim.Format(observation.DateLayout), f(v.Extensao),
		strconv.Itoa(v.Confirmado), strconv.Itoa(v.NumReg),
		f(v.FreqNumReg), f(v.FreqAQuant), f(v.FreqVivo), f(v.FreqMorto),
		f(v.PercMortos), f(v.PercVivos), f(v.PercNormal), f(v.PercEstranho), f(v.PercDoente), f(v.PercAgressivo),
		v.Geocode, v.MUN, v.UF,
	}
}

// ToTable renders vectors as a feature table in Header order.
func ToTable(vectors []Vector) *observation.Table {
	rows := make([][]string, len(vectors))
	for i, v := range vectors {
		rows[i] = v.record()
	}
	header := make([]string, len(Header))
	copy(header, Header)
	return observation.NewTable(header, rows)
}

// WriteCSV writes vectors as a comma separated feature table.
func WriteCSV(w io.Writer, vectors []Vector) error {
	return ToTable(vectors).WriteCSV(w)
}
