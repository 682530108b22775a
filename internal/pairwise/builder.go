package pairwise

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"github.com/jsangelo/index-based-alert-system/internal/failure"
	"github.com/jsangelo/index-based-alert-system/internal/geodesy"
	"github.com/jsangelo/index-based-alert-system/internal/monitoring"
	"github.com/jsangelo/index-based-alert-system/internal/observation"
)

// ErrDegenerateNormalization is returned when an axis has no in-range
// off-diagonal pair, leaving its normalisation maximum undefined.
var ErrDegenerateNormalization = errors.New("no in-range pair to normalise against")

// Limits are the admissible separations of two directly reachable
// observations. A separation equal to a limit is in range.
type Limits struct {
	DistanceKm float64
	TimeDays   int
}

// Validate checks that the limits are usable.
func (l Limits) Validate() error {
	if !(l.DistanceKm > 0) || math.IsInf(l.DistanceKm, 0) {
		return failure.Config("validate limits", fmt.Errorf("distance limit must be a positive finite number of km, got %v", l.DistanceKm))
	}
	if l.TimeDays < 0 {
		return failure.Config("validate limits", fmt.Errorf("time limit must be >= 0 days, got %d", l.TimeDays))
	}
	return nil
}

// Suffix renders the limits the way output file names carry them, e.g.
// "30d_1km".
func (l Limits) Suffix() string {
	return fmt.Sprintf("%dd_%gkm", l.TimeDays, l.DistanceKm)
}

// Result holds every matrix produced for one observation set.
type Result struct {
	Spatial      *PairMatrix // km, excluded = RawExcluded
	Temporal     *PairMatrix // days, excluded = RawExcluded
	NormSpatial  *PairMatrix // [0,1], excluded = NormalizedExcluded
	NormTemporal *PairMatrix
	Combined     *PairMatrix // [0,2], excluded >= NormalizedExcluded

	MaxDistanceKm float64
	MaxTimeDays   float64
}

// Builder computes pairwise matrices.
type Builder struct {
	Limits  Limits
	Metric  geodesy.Metric // nil means geodesy.Karney
	Workers int            // <= 0 means runtime.NumCPU
	Prune   bool           // skip geodesics ruled out by latitude separation
}

// Build computes the matrices with a default Builder.
func Build(ctx context.Context, obs []observation.Observation, limits Limits) (*Result, error) {
	return (&Builder{Limits: limits}).Build(ctx, obs)
}

// Build computes the raw, normalised and combined matrices for obs, in
// input order. A cancelled context yields ctx.Err() and no result.
func (b *Builder) Build(ctx context.Context, obs []observation.Observation) (*Result, error) {
	if err := b.Limits.Validate(); err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, failure.Input("build matrices", observation.ErrEmpty)
	}

	spatial, temporal, err := b.buildRaw(ctx, obs)
	if err != nil {
		return nil, err
	}

	maxD, ok := spatial.MaxInRange()
	if !ok {
		return nil, failure.Numerical("normalise spatial", fmt.Errorf("%w: every pair exceeds %g km", ErrDegenerateNormalization, b.Limits.DistanceKm))
	}
	maxT, ok := temporal.MaxInRange()
	if !ok {
		return nil, failure.Numerical("normalise temporal", fmt.Errorf("%w: every pair exceeds %d days", ErrDegenerateNormalization, b.Limits.TimeDays))
	}

	normD := normalize(spatial, maxD)
	normT := normalize(temporal, maxT)
	monitoring.Debugf("pairwise: n=%d max_distance_km=%g max_time_days=%g", len(obs), maxD, maxT)

	return &Result{
		Spatial:       spatial,
		Temporal:      temporal,
		NormSpatial:   normD,
		NormTemporal:  normT,
		Combined:      combine(normD, normT),
		MaxDistanceKm: maxD,
		MaxTimeDays:   maxT,
	}, nil
}

func (b *Builder) buildRaw(ctx context.Context, obs []observation.Observation) (*PairMatrix, *PairMatrix, error) {
	metric := b.Metric
	if metric == nil {
		metric = geodesy.Karney{}
	}
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	n := len(obs)
	points := make([]orb.Point, n)
	for i, o := range obs {
		points[i] = o.Point()
	}

	var index *LatitudeBandIndex
	if b.Prune {
		index = NewLatitudeBandIndex(b.Limits.DistanceKm)
		index.Build(points)
	}

	spatial := newPairMatrix(n)
	temporal := newPairMatrix(n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b.fillRow(i, obs, points, metric, index, spatial, temporal)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	// errgroup only reports task errors; a cancellation that lands after the
	// last task started must still discard the result.
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return spatial, temporal, nil
}

// fillRow writes cells (i, j) and (j, i) for every j > i.
func (b *Builder) fillRow(i int, obs []observation.Observation, points []orb.Point, metric geodesy.Metric,
	index *LatitudeBandIndex, spatial, temporal *PairMatrix) {

	n := len(obs)
	for j := i + 1; j < n; j++ {
		days := observation.DaysBetween(obs[i].Date, obs[j].Date)
		if days > b.Limits.TimeDays {
			temporal.exclude(i, j, RawExcluded)
		} else {
			temporal.set(i, j, float64(days))
		}
	}

	if index == nil {
		for j := i + 1; j < n; j++ {
			b.setDistance(spatial, i, j, metric.DistanceKm(points[i], points[j]))
		}
		return
	}

	// Pairs outside the candidate bands are farther apart than the limit.
	candidates := index.Candidates(points, i)
	next := 0
	for j := i + 1; j < n; j++ {
		if next < len(candidates) && candidates[next] == j {
			next++
			b.setDistance(spatial, i, j, metric.DistanceKm(points[i], points[j]))
			continue
		}
		spatial.exclude(i, j, RawExcluded)
	}
}

func (b *Builder) setDistance(m *PairMatrix, i, j int, km float64) {
	if km > b.Limits.DistanceKm {
		m.exclude(i, j, RawExcluded)
		return
	}
	m.set(i, j, km)
}

// normalize divides in-range values by max. A zero max means every in-range
// pair coincides; those cells normalise to 0.
func normalize(raw *PairMatrix, max float64) *PairMatrix {
	n := raw.Len()
	out := newPairMatrix(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v, ok := raw.Value(i, j)
			switch {
			case !ok:
				out.exclude(i, j, NormalizedExcluded)
			case max == 0:
				out.set(i, j, 0)
			default:
				out.set(i, j, v/max)
			}
		}
	}
	return out
}

// combine sums two normalised matrices. A pair excluded on either axis is
// excluded, and its encoding is the sum of the encoded operands.
func combine(a, b *PairMatrix) *PairMatrix {
	n := a.Len()
	out := newPairMatrix(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum := a.At(i, j) + b.At(i, j)
			if a.Excluded(i, j) || b.Excluded(i, j) {
				out.exclude(i, j, sum)
				continue
			}
			out.set(i, j, sum)
		}
	}
	return out
}
