// Package observation reads wildlife disease observation tables: point in
// time, point in space sightings with their epidemiological attributes.
package observation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/jsangelo/index-based-alert-system/internal/failure"
)

// Column names of the observation exchange table.
const (
	ColID             = "r_reg"
	ColLatitude       = "r_lat"
	ColLongitude      = "r_long"
	ColDate           = "r_data"
	ColState          = "r_estado"
	ColMunicipality   = "r_municipio"
	ColOrigin         = "r_origem"
	ColPrecision      = "r_precisao"
	ColAnimalID       = "a_ident"
	ColSpecies        = "a_tipo"
	ColCount          = "a_quantidade"
	ColStatus         = "a_situacao"
	ColBehavior       = "a_comportamento"
	ColCondition      = "a_condicao"
	ColDeathCause     = "a_causa_morte"
	ColDisease        = "d_doenca"
	ColClassification = "d_classificacao"
	ColGeocode        = "geocode"
	ColMUN            = "MUN"
	ColUF             = "UF"
	ColCluster1       = "Cluster1"
	ColCluster2       = "Cluster2"
)

// DateLayout is the calendar date format written to exchange tables.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
}

// Observation is one sighting record. It is immutable once loaded.
type Observation struct {
	ID             string
	Latitude       float64
	Longitude      float64
	Date           time.Time // UTC midnight
	RegionCode     string
	Municipality   string
	State          string
	Species        string
	Status         string
	Count          float64
	Behavior       string
	Disease        string
	Classification string
	Origin         string
	Precision      float64 // NaN when absent or unparseable
}

// Point returns the observation location as an orb point (lon, lat).
func (o Observation) Point() orb.Point {
	return orb.Point{o.Longitude, o.Latitude}
}

// ParseDate parses a calendar date, discarding any time of day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// DaysBetween returns the absolute number of calendar days between a and b.
func DaysBetween(a, b time.Time) int {
	d := int(b.Sub(a).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}

// FromTable converts every row to an Observation. r_lat, r_long and r_data
// are required; any unparseable row fails the whole batch.
func FromTable(t *Table) ([]Observation, error) {
	if err := t.Require(ColLatitude, ColLongitude, ColDate); err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, failure.Input("read observations", ErrEmpty)
	}

	out := make([]Observation, t.Len())
	for i := range t.Rows {
		o, err := parseRow(t, i)
		if err != nil {
			return nil, failure.Input("read observations", fmt.Errorf("row %d: %w", i+1, err))
		}
		out[i] = o
	}
	return out, nil
}

func parseRow(t *Table, i int) (Observation, error) {
	lat, err := parseCoordinate(t.Value(i, ColLatitude), -90, 90)
	if err != nil {
		return Observation{}, fmt.Errorf("column %s: %w", ColLatitude, err)
	}
	lon, err := parseCoordinate(t.Value(i, ColLongitude), -180, 180)
	if err != nil {
		return Observation{}, fmt.Errorf("column %s: %w", ColLongitude, err)
	}
	date, err := ParseDate(t.Value(i, ColDate))
	if err != nil {
		return Observation{}, fmt.Errorf("column %s: %w", ColDate, err)
	}
	count, err := ParseCount(t.Value(i, ColCount))
	if err != nil {
		return Observation{}, fmt.Errorf("column %s: %w", ColCount, err)
	}

	return Observation{
		ID:             t.Value(i, ColID),
		Latitude:       lat,
		Longitude:      lon,
		Date:           date,
		RegionCode:     t.Value(i, ColGeocode),
		Municipality:   t.Value(i, ColMUN),
		State:          t.Value(i, ColUF),
		Species:        t.Value(i, ColSpecies),
		Status:         t.Value(i, ColStatus),
		Count:          count,
		Behavior:       t.Value(i, ColBehavior),
		Disease:        t.Value(i, ColDisease),
		Classification: t.Value(i, ColClassification),
		Origin:         t.Value(i, ColOrigin),
		Precision:      parsePrecision(t.Value(i, ColPrecision)),
	}, nil
}

func parseCoordinate(s string, min, max float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate %q", s)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("coordinate %g outside [%g, %g]", v, min, max)
	}
	return v, nil
}

// ParseCount parses an animal count. Empty cells count as zero.
func ParseCount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return v, nil
}

func parsePrecision(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
