package pairwise

import (
	"bytes"
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsangelo/index-based-alert-system/internal/failure"
	"github.com/jsangelo/index-based-alert-system/internal/geodesy"
	"github.com/jsangelo/index-based-alert-system/internal/observation"
)

var day0 = time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC)

func obsAt(lat, lon float64, day int) observation.Observation {
	return observation.Observation{Latitude: lat, Longitude: lon, Date: day0.AddDate(0, 0, day)}
}

// randomObservations scatters points over a 2°×2° box and a 120-day window.
func randomObservations(seed int64, n int) []observation.Observation {
	rng := rand.New(rand.NewSource(seed))
	out := make([]observation.Observation, n)
	for i := range out {
		out[i] = obsAt(-22+2*rng.Float64(), -44+2*rng.Float64(), rng.Intn(120))
	}
	return out
}

func TestBuild_SameSiteDifferentDays(t *testing.T) {
	obs := []observation.Observation{
		obsAt(-22.9, -43.2, 0),
		obsAt(-22.9, -43.2, 5),
		obsAt(-22.9, -43.2, 40),
	}
	res, err := Build(context.Background(), obs, Limits{DistanceKm: 1, TimeDays: 30})
	require.NoError(t, err)

	assert.Equal(t, 5.0, res.MaxTimeDays)
	assert.Equal(t, 0.0, res.MaxDistanceKm)

	// temporal gating only
	assert.Equal(t, 5.0, res.Temporal.At(0, 1))
	assert.Equal(t, float64(RawExcluded), res.Temporal.At(1, 2))
	assert.Equal(t, float64(RawExcluded), res.Temporal.At(0, 2))
	assert.Equal(t, 0.0, res.Spatial.At(0, 2))

	// coincident points normalise to 0, not NaN
	assert.Equal(t, 0.0, res.NormSpatial.At(0, 1))
	assert.Equal(t, 1.0, res.NormTemporal.At(0, 1))

	assert.Equal(t, 1.0, res.Combined.At(0, 1))
	assert.Equal(t, float64(NormalizedExcluded), res.Combined.At(1, 2))
	assert.True(t, res.Combined.Excluded(0, 2))
	assert.False(t, res.Combined.Excluded(0, 1))
}

func TestBuild_GatingBoundaries(t *testing.T) {
	// One degree of latitude is ~110.574 km on WGS-84.
	obs := []observation.Observation{
		obsAt(0, 0, 0),
		obsAt(1, 0, 30),
		obsAt(2, 0, 31),
	}
	res, err := Build(context.Background(), obs, Limits{DistanceKm: 111, TimeDays: 30})
	require.NoError(t, err)

	d, ok := res.Spatial.Value(0, 1)
	require.True(t, ok)
	assert.InDelta(t, 110.574, d, 0.01)
	assert.True(t, res.Spatial.Excluded(0, 2))

	// a difference equal to the limit is in range
	days, ok := res.Temporal.Value(0, 1)
	require.True(t, ok)
	assert.Equal(t, 30.0, days)
	assert.True(t, res.Temporal.Excluded(0, 2))

	// excluded on both axes renders as the sum of the encodings
	assert.Equal(t, 2.0*NormalizedExcluded, res.Combined.At(0, 2))
}

func TestBuild_Invariants(t *testing.T) {
	obs := randomObservations(7, 60)
	limits := Limits{DistanceKm: 40, TimeDays: 20}
	res, err := Build(context.Background(), obs, limits)
	require.NoError(t, err)

	n := len(obs)
	for i := 0; i < n; i++ {
		for _, m := range []*PairMatrix{res.Spatial, res.Temporal, res.NormSpatial, res.NormTemporal, res.Combined} {
			assert.Equal(t, 0.0, m.At(i, i))
			assert.False(t, m.Excluded(i, i))
		}
		for j := 0; j < n; j++ {
			for _, m := range []*PairMatrix{res.Spatial, res.Temporal, res.Combined} {
				require.Equal(t, m.At(i, j), m.At(j, i))
			}

			c := res.Combined.At(i, j)
			if res.Spatial.Excluded(i, j) || res.Temporal.Excluded(i, j) {
				assert.GreaterOrEqual(t, c, float64(NormalizedExcluded))
				assert.True(t, res.Combined.Excluded(i, j))
				continue
			}
			assert.GreaterOrEqual(t, c, 0.0)
			assert.LessOrEqual(t, c, 2.0)
			if d, ok := res.Spatial.Value(i, j); ok {
				assert.LessOrEqual(t, d, limits.DistanceKm)
			}
		}
	}
}

func TestBuild_PruneMatchesExhaustive(t *testing.T) {
	obs := randomObservations(42, 80)
	limits := Limits{DistanceKm: 25, TimeDays: 45}

	full, err := (&Builder{Limits: limits, Workers: 3}).Build(context.Background(), obs)
	require.NoError(t, err)
	pruned, err := (&Builder{Limits: limits, Workers: 3, Prune: true}).Build(context.Background(), obs)
	require.NoError(t, err)

	assert.Equal(t, csvBytes(t, full.Spatial), csvBytes(t, pruned.Spatial))
	assert.Equal(t, csvBytes(t, full.Combined), csvBytes(t, pruned.Combined))
}

func TestBuild_DeterministicAcrossWorkers(t *testing.T) {
	obs := randomObservations(3, 40)
	limits := Limits{DistanceKm: 60, TimeDays: 30}

	var outputs [][]byte
	for _, workers := range []int{1, 2, 8} {
		res, err := (&Builder{Limits: limits, Workers: workers}).Build(context.Background(), obs)
		require.NoError(t, err)
		outputs = append(outputs, csvBytes(t, res.Combined))
	}
	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, outputs[0], outputs[2])
}

func TestBuild_HaversineMetric(t *testing.T) {
	obs := []observation.Observation{obsAt(0, 0, 0), obsAt(0, 0.5, 1)}
	res, err := (&Builder{Limits: Limits{DistanceKm: 100, TimeDays: 5}, Metric: geodesy.Haversine{}}).
		Build(context.Background(), obs)
	require.NoError(t, err)

	d, ok := res.Spatial.Value(0, 1)
	require.True(t, ok)
	assert.InDelta(t, geodesy.Haversine{}.DistanceKm(obs[0].Point(), obs[1].Point()), d, 1e-12)
}

func TestBuild_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		obs      []observation.Observation
		limits   Limits
		kind     failure.Kind
		sentinel error
	}{
		{
			name:     "single observation",
			obs:      []observation.Observation{obsAt(0, 0, 0)},
			limits:   Limits{DistanceKm: 1, TimeDays: 30},
			kind:     failure.KindNumerical,
			sentinel: ErrDegenerateNormalization,
		},
		{
			name:     "every pair too far apart",
			obs:      []observation.Observation{obsAt(0, 0, 0), obsAt(5, 5, 0)},
			limits:   Limits{DistanceKm: 1, TimeDays: 30},
			kind:     failure.KindNumerical,
			sentinel: ErrDegenerateNormalization,
		},
		{
			name:     "every pair too far apart in time",
			obs:      []observation.Observation{obsAt(0, 0, 0), obsAt(0, 0, 90)},
			limits:   Limits{DistanceKm: 1, TimeDays: 30},
			kind:     failure.KindNumerical,
			sentinel: ErrDegenerateNormalization,
		},
		{
			name:     "empty",
			limits:   Limits{DistanceKm: 1, TimeDays: 30},
			kind:     failure.KindInput,
			sentinel: observation.ErrEmpty,
		},
		{
			name:   "zero distance limit",
			obs:    []observation.Observation{obsAt(0, 0, 0), obsAt(0, 0, 1)},
			limits: Limits{DistanceKm: 0, TimeDays: 30},
			kind:   failure.KindConfig,
		},
		{
			name:   "negative time limit",
			obs:    []observation.Observation{obsAt(0, 0, 0), obsAt(0, 0, 1)},
			limits: Limits{DistanceKm: 1, TimeDays: -1},
			kind:   failure.KindConfig,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Build(context.Background(), tc.obs, tc.limits)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tc.kind, failure.KindOf(err))
			if tc.sentinel != nil {
				assert.ErrorIs(t, err, tc.sentinel)
			}
		})
	}
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := (&Builder{Limits: Limits{DistanceKm: 50, TimeDays: 30}, Workers: 4}).Build(ctx, randomObservations(1, 50))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestLimits_Suffix(t *testing.T) {
	assert.Equal(t, "30d_1km", Limits{DistanceKm: 1, TimeDays: 30}.Suffix())
	assert.Equal(t, "17d_303km", Limits{DistanceKm: 303, TimeDays: 17}.Suffix())
	assert.Equal(t, "7d_2.5km", Limits{DistanceKm: 2.5, TimeDays: 7}.Suffix())
}

func csvBytes(t *testing.T, m *PairMatrix) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, m.WriteCSV(&buf))
	return buf.Bytes()
}
