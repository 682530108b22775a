// Package clustering groups observations with density-based clustering over a
// precomputed dissimilarity matrix.
package clustering

import (
	"fmt"
)

// Noise is the label of points that belong to no cluster.
const Noise = -1

// Dissimilarity is a precomputed symmetric N×N dissimilarity matrix.
type Dissimilarity interface {
	Len() int
	At(i, j int) float64
}

// Params contains parameters for the DBSCAN clustering algorithm.
type Params struct {
	Eps    float64 // Neighbourhood radius; j is a neighbour of i iff d(i,j) < Eps
	MinPts int     // Minimum neighbourhood size, self included, of a core point
}

// Validate checks that the parameters describe a usable clustering.
func (p Params) Validate() error {
	if !(p.Eps > 0) {
		return fmt.Errorf("eps must be > 0, got %v", p.Eps)
	}
	if p.MinPts < 1 {
		return fmt.Errorf("min points must be >= 1, got %d", p.MinPts)
	}
	return nil
}

// Neighborhoods returns, for every point, the ascending indices of points
// strictly closer than eps. Each list includes the point itself.
func Neighborhoods(m Dissimilarity, eps float64) [][]int {
	n := m.Len()
	out := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j || m.At(i, j) < eps {
				out[i] = append(out[i], j)
			}
		}
	}
	return out
}

// DBSCAN labels points given their neighbourhoods. Clusters are numbered from
// 0 in index order of their first core point; noise is labelled Noise. A
// border point reachable from several clusters joins the first one to reach
// it.
func DBSCAN(neighborhoods [][]int, minPts int) []int {
	n := len(neighborhoods)
	labels := make([]int, n) // 0=unvisited, -1=noise, >0=clusterID
	clusterID := 0

	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}
		if len(neighborhoods[i]) < minPts {
			labels[i] = -1
			continue
		}
		clusterID++
		expandCluster(neighborhoods, labels, i, clusterID, minPts)
	}

	for i := range labels {
		if labels[i] > 0 {
			labels[i]--
		}
	}
	return labels
}

// expandCluster grows a cluster from a core point by breadth-first expansion
// through core neighbours.
func expandCluster(neighborhoods [][]int, labels []int, seedIdx, clusterID, minPts int) {
	labels[seedIdx] = clusterID

	queue := append([]int(nil), neighborhoods[seedIdx]...)
	for j := 0; j < len(queue); j++ {
		idx := queue[j]

		if labels[idx] == -1 {
			labels[idx] = clusterID // noise becomes a border point
		}
		if labels[idx] != 0 {
			continue
		}

		labels[idx] = clusterID
		if len(neighborhoods[idx]) >= minPts {
			queue = append(queue, neighborhoods[idx]...)
		}
	}
}
