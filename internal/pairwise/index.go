package pairwise

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// MinKmPerDegreeLatitude is a lower bound on the length of one degree of
// latitude on the WGS-84 ellipsoid (110.574 km at the equator) and on the
// spheres used by the haversine metric.
const MinKmPerDegreeLatitude = 110.0

// LatitudeBandIndex buckets observations into latitude bands whose height
// corresponds to the distance limit. Two points whose bands are not adjacent
// are separated by more than the limit, so their geodesic never needs to be
// evaluated.
type LatitudeBandIndex struct {
	BandDegrees float64
	Bands       map[int64][]int // band ID → observation indices, ascending
}

// NewLatitudeBandIndex creates an index for the given distance limit in km.
func NewLatitudeBandIndex(limitKm float64) *LatitudeBandIndex {
	return &LatitudeBandIndex{
		BandDegrees: limitKm / MinKmPerDegreeLatitude,
		Bands:       make(map[int64][]int),
	}
}

// Build populates the index from observation points.
func (bi *LatitudeBandIndex) Build(points []orb.Point) {
	bi.Bands = make(map[int64][]int)
	for i, p := range points {
		id := bi.bandID(p.Lat())
		bi.Bands[id] = append(bi.Bands[id], i)
	}
}

func (bi *LatitudeBandIndex) bandID(lat float64) int64 {
	return int64(math.Floor(lat / bi.BandDegrees))
}

// Candidates returns, in ascending order, the indices greater than idx that
// lie in the same or an adjacent band as points[idx].
func (bi *LatitudeBandIndex) Candidates(points []orb.Point, idx int) []int {
	base := bi.bandID(points[idx].Lat())
	var out []int
	for d := int64(-1); d <= 1; d++ {
		for _, j := range bi.Bands[base+d] {
			if j > idx {
				out = append(out, j)
			}
		}
	}
	sort.Ints(out)
	return out
}
