package observation

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/jsangelo/index-based-alert-system/internal/failure"
	"github.com/jsangelo/index-based-alert-system/internal/monitoring"
)

// GPSOrigin is the r_origem value of records whose location came from a GPS
// fix or was given explicitly.
const GPSOrigin = "Obtido pelo GPS ou informado explicitamente"

// MaxPrecisionMeters is the exclusive upper bound on r_precisao for a record
// to be kept.
const MaxPrecisionMeters = 100

// RawSeparator is the field separator of the raw surveillance export.
const RawSeparator = ';'

// RawHeaders maps the raw export headers to the short column names used by
// every later stage.
var RawHeaders = map[string]string{
	"Registro: Identificador":            ColID,
	"Registro: Longitude":                ColLongitude,
	"Registro: Latitude":                 ColLatitude,
	"Registro: Data de observação (ISO)": ColDate,
	"Registro: Estado":                   ColState,
	"Registro: Município":                ColMunicipality,
	"Registro: Origem da localização":    ColOrigin,
	"Registro: Precisão":                 ColPrecision,
	"Animal: Identificador":              ColAnimalID,
	"Animal: Tipo":                       ColSpecies,
	"Animal: Quantidade observada":       ColCount,
	"Animal: Situação":                   ColStatus,
	"Animal: Comportamento":              ColBehavior,
	"Animal: Condição física":            ColCondition,
	"Animal: Causa morte":                ColDeathCause,
	"Desfecho: Doença":                   ColDisease,
	"Desfecho: Classificação":            ColClassification,
}

// ReadRawExport reads a Latin-1 encoded, semicolon separated raw export and
// renames its headers.
func ReadRawExport(r io.Reader) (*Table, error) {
	t, err := ReadTable(charmap.ISO8859_1.NewDecoder().Reader(r), RawSeparator)
	if err != nil {
		return nil, err
	}
	t.Rename(RawHeaders)
	return t, nil
}

// Preprocess normalises r_data to calendar dates and keeps only records with
// a GPS sourced location whose precision is below MaxPrecisionMeters and not
// the -1 placeholder. The input table is not modified.
func Preprocess(t *Table) (*Table, error) {
	if err := t.Require(ColDate, ColOrigin, ColPrecision); err != nil {
		return nil, err
	}

	dates := make([]string, t.Len())
	for i := range t.Rows {
		d, err := ParseDate(t.Value(i, ColDate))
		if err != nil {
			return nil, failure.Input("preprocess", fmt.Errorf("row %d: column %s: %w", i+1, ColDate, err))
		}
		dates[i] = d.Format(DateLayout)
	}

	col, _ := t.Col(ColDate)
	unparsed := 0
	rows := make([][]string, 0, t.Len())
	for i, row := range t.Rows {
		if t.Value(i, ColOrigin) != GPSOrigin {
			continue
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(t.Value(i, ColPrecision)), 64)
		if err != nil {
			unparsed++
			continue
		}
		if p >= MaxPrecisionMeters || p == -1 {
			continue
		}
		cp := make([]string, len(row))
		copy(cp, row)
		cp[col] = dates[i]
		rows = append(rows, cp)
	}
	header := make([]string, len(t.Header))
	copy(header, t.Header)
	result := NewTable(header, rows)

	if unparsed > 0 {
		monitoring.Logf("preprocess: dropped %d GPS records with unparseable %s", unparsed, ColPrecision)
	}
	monitoring.Logf("preprocess: kept %d of %d records", result.Len(), t.Len())
	return result, nil
}
