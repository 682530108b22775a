// Package alertindex finds weightings of cluster features that trade off a
// high death-weighted mean alert index against low alert-index variance.
package alertindex

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/jsangelo/index-based-alert-system/internal/failure"
	"github.com/jsangelo/index-based-alert-system/internal/features"
	"github.com/jsangelo/index-based-alert-system/internal/monitoring"
	"github.com/jsangelo/index-based-alert-system/internal/observation"
)

// AlertFeatures are the feature columns combined by the alert index. Weight
// vectors are positional in exactly this order.
var AlertFeatures = []string{
	features.ColNumReg,
	features.ColIntervalo,
	features.ColFreqNumReg,
	features.ColFreqAQuant,
	features.ColExtensao,
	features.ColPercMortos,
	features.ColMorto,
}

// ErrNoClusters is returned when no cluster survives filtering.
var ErrNoClusters = errors.New("no confirmed multi-record cluster to optimise over")

// Prepared is the optimiser's input: one row per retained Cluster1.
type Prepared struct {
	Clusters []int      // Cluster1 label of each row
	Z        *mat.Dense // scaled AlertFeatures, rows × len(AlertFeatures)
	Deaths   []float64  // raw morto counts, the f1 weights
}

// Prepare validates and scales the feature table, keeps confirmed
// multi-record clusters and reduces them to their first row per Cluster1.
// Scaling is fitted on every row of the table, before filtering.
func Prepare(t *observation.Table, method features.Method) (*Prepared, error) {
	required := append(append([]string{}, AlertFeatures...),
		features.ColConfirmado, features.ColCluster1, features.ColCluster2)
	if err := features.Require(t, required...); err != nil {
		return nil, err
	}

	raw, err := features.Matrix(t, AlertFeatures)
	if err != nil {
		return nil, err
	}
	scaled := features.FitTransform(method, raw)

	cluster1, err := features.Ints(t, features.ColCluster1)
	if err != nil {
		return nil, err
	}
	cluster2, err := features.Ints(t, features.ColCluster2)
	if err != nil {
		return nil, err
	}
	confirmed, err := features.Float64s(t, features.ColConfirmado)
	if err != nil {
		return nil, err
	}
	deaths, err := features.Float64s(t, features.ColMorto)
	if err != nil {
		return nil, err
	}

	var keep []int
	passed := 0
	rowsPerCluster := make(map[int]int)
	for i := range t.Rows {
		if cluster2[i] == -1 || confirmed[i] == 0 {
			continue
		}
		passed++
		if rowsPerCluster[cluster1[i]] == 0 {
			keep = append(keep, i)
		}
		rowsPerCluster[cluster1[i]]++
	}
	if len(keep) == 0 {
		return nil, failure.Input("prepare features", ErrNoClusters)
	}

	p := &Prepared{
		Clusters: make([]int, len(keep)),
		Z:        mat.NewDense(len(keep), len(AlertFeatures), nil),
		Deaths:   make([]float64, len(keep)),
	}
	for r, i := range keep {
		p.Clusters[r] = cluster1[i]
		p.Z.SetRow(r, scaled.RawRowView(i))
		p.Deaths[r] = deaths[i]
		if n := rowsPerCluster[cluster1[i]]; n > 1 {
			monitoring.Logf("alertindex: warning: Cluster1=%d has %d rows (several geocodes); only the first is used", cluster1[i], n)
		}
	}
	monitoring.Logf("alertindex: %d of %d feature rows pass the filter, %d clusters retained", passed, t.Len(), len(keep))
	return p, nil
}

// Len returns the number of clusters.
func (p *Prepared) Len() int {
	return len(p.Clusters)
}

func (p *Prepared) validate() error {
	r, c := p.Z.Dims()
	if r != len(p.Deaths) || r != len(p.Clusters) {
		return failure.Input("prepare features", fmt.Errorf("%d feature rows but %d death counts", r, len(p.Deaths)))
	}
	if c != len(AlertFeatures) {
		return failure.Input("prepare features", fmt.Errorf("%d feature columns, want %d", c, len(AlertFeatures)))
	}
	return nil
}
