// Package characterize aggregates clustered observations into per-cluster
// feature vectors.
package characterize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/jsangelo/index-based-alert-system/internal/failure"
	"github.com/jsangelo/index-based-alert-system/internal/features"
	"github.com/jsangelo/index-based-alert-system/internal/geodesy"
	"github.com/jsangelo/index-based-alert-system/internal/monitoring"
	"github.com/jsangelo/index-based-alert-system/internal/observation"
)

// Classification tokens. The quotes are part of the recorded values.
const (
	Confirmed     = `"Confirmada"`
	Indeterminate = `"Indeterminada"`
	Discarded     = `"Descartada"`
)

// Status and behaviour values counted by the characteriser.
const (
	StatusDead      = "Morto"
	StatusAlive     = "Vivo"
	BehaviorNormal  = "Normal"
	BehaviorStrange = "Estranho"
	BehaviorSick    = "Doente"
	BehaviorAggress = "Agressivo"
)

// OutputSuffix is appended to the clustered table's stem to name the
// feature table.
const OutputSuffix = "_caracterizados"

// StandardizeClassification collapses a free-text classification to the
// first token it contains, checked in the order Confirmed, Indeterminate,
// Discarded. Other values are returned unchanged.
func StandardizeClassification(s string) string {
	for _, token := range []string{Confirmed, Indeterminate, Discarded} {
		if strings.Contains(s, token) {
			return token
		}
	}
	return s
}

// Characterizer computes feature vectors.
type Characterizer struct {
	Metric geodesy.Metric // nil means geodesy.Karney
}

type groupKey struct{ c1, c2 int }

// FromTable reads observations and their Cluster1/Cluster2 labels from a
// clustered table and characterises them.
func (c *Characterizer) FromTable(t *observation.Table) ([]features.Vector, error) {
	if err := t.Require(observation.ColCluster1, observation.ColCluster2, observation.ColCount, observation.ColStatus); err != nil {
		return nil, err
	}
	obs, err := observation.FromTable(t)
	if err != nil {
		return nil, err
	}
	c1, err := features.Ints(t, observation.ColCluster1)
	if err != nil {
		return nil, err
	}
	c2, err := features.Ints(t, observation.ColCluster2)
	if err != nil {
		return nil, err
	}
	return c.Compute(obs, c1, c2)
}

// Compute aggregates obs by (Cluster1, Cluster2) and emits one vector per
// distinct geocode of each group, ordered by group and then geocode.
func (c *Characterizer) Compute(obs []observation.Observation, cluster1, cluster2 []int) ([]features.Vector, error) {
	if len(cluster1) != len(obs) || len(cluster2) != len(obs) {
		return nil, failure.Input("characterize", fmt.Errorf("%d observations but %d/%d labels", len(obs), len(cluster1), len(cluster2)))
	}
	if len(obs) == 0 {
		return nil, failure.Input("characterize", observation.ErrEmpty)
	}
	metric := c.Metric
	if metric == nil {
		metric = geodesy.Karney{}
	}

	groups := make(map[groupKey][]int)
	for i := range obs {
		k := groupKey{cluster1[i], cluster2[i]}
		groups[k] = append(groups[k], i)
	}
	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].c1 != keys[j].c1 {
			return keys[i].c1 < keys[j].c1
		}
		return keys[i].c2 < keys[j].c2
	})

	places := firstRegions(obs)
	var out []features.Vector
	multi := 0
	for _, k := range keys {
		v := aggregate(obs, groups[k], metric)
		v.Cluster1, v.Cluster2 = k.c1, k.c2

		codes := geocodes(obs, groups[k])
		if len(codes) > 1 {
			multi++
		}
		for _, code := range codes {
			p := places[code]
			row := v
			row.Geocode, row.MUN, row.UF = p.geocode, p.mun, p.uf
			out = append(out, row)
		}
	}
	monitoring.Logf("characterize: %d groups, %d rows, %d groups span several geocodes", len(keys), len(out), multi)
	return out, nil
}

func aggregate(obs []observation.Observation, members []int, metric geodesy.Metric) features.Vector {
	var v features.Vector
	points := make([]orb.Point, 0, len(members))

	first := obs[members[0]].Date
	v.DataIni, v.DataFim = first, first
	for _, i := range members {
		o := obs[i]
		v.AQuant += o.Count
		switch o.Status {
		case StatusDead:
			v.Morto += o.Count
		case StatusAlive:
			v.Vivo += o.Count
		}
		switch o.Behavior {
		case BehaviorNormal:
			v.Normal += o.Count
		case BehaviorStrange:
			v.Estranho += o.Count
		case BehaviorSick:
			v.Doente += o.Count
		case BehaviorAggress:
			v.Agressivo += o.Count
		}
		if StandardizeClassification(o.Classification) == Confirmed {
			v.Confirmado++
		}
		if o.Date.Before(v.DataIni) {
			v.DataIni = o.Date
		}
		if o.Date.After(v.DataFim) {
			v.DataFim = o.Date
		}
		points = append(points, o.Point())
	}

	v.NumReg = len(members)
	v.Intervalo = interval(v.DataIni, v.DataFim)
	v.Extensao = geodesy.Extent(metric, points)

	days := float64(v.Intervalo)
	v.FreqNumReg = float64(v.NumReg) / days
	v.FreqAQuant = v.AQuant / days
	v.FreqVivo = v.Vivo / days
	v.FreqMorto = v.Morto / days

	v.PercMortos = share(v.Morto, v.AQuant)
	v.PercVivos = share(v.Vivo, v.AQuant)
	v.PercNormal = share(v.Normal, v.AQuant)
	v.PercEstranho = share(v.Estranho, v.AQuant)
	v.PercDoente = share(v.Doente, v.AQuant)
	v.PercAgressivo = share(v.Agressivo, v.AQuant)
	return v
}

// interval returns the whole days between first and last, floored to 1.
func interval(first, last time.Time) int {
	d := observation.DaysBetween(first, last)
	if d <= 0 {
		return 1
	}
	return d
}

func share(x, total float64) float64 {
	if total == 0 {
		return 0
	}
	return x / total
}

type region struct{ geocode, mun, uf string }

// firstRegions maps every geocode to the MUN and UF of its first record.
func firstRegions(obs []observation.Observation) map[string]region {
	out := make(map[string]region)
	for _, o := range obs {
		if _, ok := out[o.RegionCode]; !ok {
			out[o.RegionCode] = region{o.RegionCode, o.Municipality, o.State}
		}
	}
	return out
}

// geocodes lists the distinct geocodes of a group in sorted order.
func geocodes(obs []observation.Observation, members []int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, i := range members {
		if code := obs[i].RegionCode; !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}
