package clustering

import (
	"fmt"
	"strconv"

	"github.com/jsangelo/index-based-alert-system/internal/failure"
	"github.com/jsangelo/index-based-alert-system/internal/monitoring"
	"github.com/jsangelo/index-based-alert-system/internal/observation"
)

const (
	// DefaultEps sits strictly between the largest in-range combined value
	// (2) and the normalised exclusion encoding (99999), so two observations
	// are neighbours iff they are within both limits.
	DefaultEps = 500
	// MinEps and MaxEps are the exclusive bounds on a usable eps.
	MinEps = 2
	MaxEps = 99999
)

// OutputFileStem is the clustered observation table's file name stem.
const OutputFileStem = "clusters"

// Assignment holds both cluster labelings, index-aligned with the
// observations the matrix was built from.
type Assignment struct {
	Cluster1 []int // min density 1: every point is core, so no noise
	Cluster2 []int // min density 2: isolated observations are Noise
}

// ValidateEps checks that eps separates in-range from excluded pairs.
func ValidateEps(eps float64) error {
	if !(eps > MinEps && eps < MaxEps) {
		return failure.Config("validate eps", fmt.Errorf("eps must satisfy %d < eps < %d, got %v", MinEps, MaxEps, eps))
	}
	return nil
}

// Assign runs DBSCAN twice over the combined matrix, with min density 1 and
// 2. Neighbourhoods are shared by both passes.
func Assign(m Dissimilarity, eps float64) (*Assignment, error) {
	if err := ValidateEps(eps); err != nil {
		return nil, err
	}
	neighborhoods := Neighborhoods(m, eps)
	a := &Assignment{
		Cluster1: DBSCAN(neighborhoods, 1),
		Cluster2: DBSCAN(neighborhoods, 2),
	}

	noise := 0
	for _, l := range a.Cluster2 {
		if l == Noise {
			noise++
		}
	}
	monitoring.Logf("clustering: %d observations, %d Cluster1 groups, %d Cluster2 groups, %d isolated",
		m.Len(), a.Count1(), a.Count2(), noise)
	return a, nil
}

// AssignWith runs the two passes through an arbitrary Clusterer. The
// clusterer's parameters are restored afterwards.
func AssignWith(c Clusterer, m Dissimilarity) (*Assignment, error) {
	saved := c.Params()
	defer c.SetParams(saved)

	labels := make([][]int, 2)
	for k, minPts := range []int{1, 2} {
		c.SetParams(Params{Eps: saved.Eps, MinPts: minPts})
		l, err := c.Cluster(m)
		if err != nil {
			return nil, failure.Config("cluster", err)
		}
		labels[k] = l
	}
	return &Assignment{Cluster1: labels[0], Cluster2: labels[1]}, nil
}

// Count1 returns the number of Cluster1 groups.
func (a *Assignment) Count1() int {
	return countLabels(a.Cluster1)
}

// Count2 returns the number of Cluster2 groups, noise excluded.
func (a *Assignment) Count2() int {
	return countLabels(a.Cluster2)
}

func countLabels(labels []int) int {
	max := -1
	for _, l := range labels {
		if l > max {
			max = l
		}
	}
	return max + 1
}

// Annotate appends (or replaces) the Cluster1 and Cluster2 columns of t.
func (a *Assignment) Annotate(t *observation.Table) error {
	if t.Len() != len(a.Cluster1) {
		return failure.Input("annotate clusters", fmt.Errorf("table has %d rows, assignment has %d", t.Len(), len(a.Cluster1)))
	}
	if err := t.SetColumn(observation.ColCluster1, itoa(a.Cluster1)); err != nil {
		return err
	}
	return t.SetColumn(observation.ColCluster2, itoa(a.Cluster2))
}

func itoa(labels []int) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = strconv.Itoa(l)
	}
	return out
}
