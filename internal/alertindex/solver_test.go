package alertindex

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/jsangelo/index-based-alert-system/internal/failure"
)

func unitBounds(k int) ([]float64, []float64) {
	lower := make([]float64, k)
	upper := make([]float64, k)
	for i := range upper {
		upper[i] = 1
	}
	return lower, upper
}

func TestProject(t *testing.T) {
	lower, upper := unitBounds(3)
	testCases := []struct {
		name string
		v    []float64
		want []float64
	}{
		{"already feasible", []float64{0.2, 0.3, 0.5}, []float64{0.2, 0.3, 0.5}},
		{"uniform shift", []float64{0.5, 0.5, 0.5}, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}},
		{"vertex", []float64{5, 0, 0}, []float64{1, 0, 0}},
		{"clipped below", []float64{0.9, 0.6, -3}, []float64{0.65, 0.35, 0}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Project(tc.v, lower, upper, 1)
			require.NoError(t, err)
			for i := range tc.want {
				assert.InDelta(t, tc.want[i], got[i], 1e-12)
			}
		})
	}
}

func TestProject_Feasibility(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	lower, upper := unitBounds(7)
	for trial := 0; trial < 200; trial++ {
		v := make([]float64, 7)
		for i := range v {
			v[i] = rng.NormFloat64() * 3
		}
		x, err := Project(v, lower, upper, 1)
		require.NoError(t, err)
		assert.InDelta(t, 1, floats.Sum(x), 1e-12)
		for _, xi := range x {
			assert.GreaterOrEqual(t, xi, 0.0)
			assert.LessOrEqual(t, xi, 1.0)
		}

		// The projection is no farther from v than random feasible points.
		for probe := 0; probe < 5; probe++ {
			y := make([]float64, 7)
			for i := range y {
				y[i] = rng.Float64()
			}
			floats.Scale(1/floats.Sum(y), y)
			assert.LessOrEqual(t, floats.Distance(x, v, 2), floats.Distance(y, v, 2)+1e-12)
		}
	}

	_, err := Project([]float64{1, 1}, []float64{0, 0}, []float64{1, 1}, 3)
	assert.Error(t, err)
}

func TestProjectedGradient_Quadratic(t *testing.T) {
	// min |x - target|² over the simplex is the projection of target.
	target := []float64{0.9, 0.6, -0.2, 0.1}
	lower, upper := unitBounds(4)
	p := Problem{
		Func: func(x []float64) float64 {
			return math.Pow(floats.Distance(x, target, 2), 2)
		},
		Grad: func(g, x []float64) {
			floats.SubTo(g, x, target)
			floats.Scale(2, g)
		},
		X0:    []float64{0.25, 0.25, 0.25, 0.25},
		Lower: lower,
		Upper: upper,
		Sum:   1,
	}
	want, err := Project(target, lower, upper, 1)
	require.NoError(t, err)

	res, err := (&ProjectedGradient{Ftol: DefaultFtol, Xtol: DefaultXtol, MaxIterations: 100}).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, res.Success, res.Message)
	assert.Equal(t, MsgConverged, res.Message)
	for i := range want {
		assert.InDelta(t, want[i], res.X[i], 1e-6)
	}

	// Without an analytic gradient the finite-difference fallback is used.
	p.Grad = nil
	res, err = (&ProjectedGradient{Ftol: DefaultFtol, Xtol: DefaultXtol, MaxIterations: 100}).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, res.Success, res.Message)
	for i := range want {
		assert.InDelta(t, want[i], res.X[i], 1e-5)
	}
}

func TestProjectedGradient_IterationLimit(t *testing.T) {
	// An ill-conditioned quadratic cannot settle in two iterations.
	lower, upper := unitBounds(3)
	scale := []float64{1, 1e4, 1e-4}
	p := Problem{
		Func: func(x []float64) float64 {
			s := 0.0
			for i := range x {
				s += scale[i] * (x[i] - 0.2*float64(i)) * (x[i] - 0.2*float64(i))
			}
			return s
		},
		X0:    []float64{1, 0, 0},
		Lower: lower,
		Upper: upper,
		Sum:   1,
	}
	res, err := (&ProjectedGradient{Ftol: DefaultFtol, Xtol: DefaultXtol, MaxIterations: 2}).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, MsgIterationLimit, res.Message)
	require.Len(t, res.X, 3)
	assert.InDelta(t, 1, floats.Sum(res.X), 1e-9)
}

func TestProjectedGradient_Errors(t *testing.T) {
	pg := &ProjectedGradient{Ftol: DefaultFtol, Xtol: DefaultXtol, MaxIterations: 10}
	lower, upper := unitBounds(2)
	fn := func(x []float64) float64 { return x[0] }

	_, err := pg.Solve(context.Background(), Problem{Func: fn, X0: []float64{0.5}, Lower: lower, Upper: upper, Sum: 1})
	assert.Error(t, err)

	_, err = pg.Solve(context.Background(), Problem{Func: fn, X0: []float64{0.5, 0.5}, Lower: lower, Upper: upper, Sum: 5})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pg.Solve(ctx, Problem{Func: fn, X0: []float64{0.5, 0.5}, Lower: lower, Upper: upper, Sum: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSoftmaxLBFGS(t *testing.T) {
	obj, err := NewObjectives(hadamardFixture())
	require.NoError(t, err)
	fn, grad := obj.Scalarized(0.5)
	lower, upper := unitBounds(7)
	x0 := Uniform(7)

	s := &SoftmaxLBFGS{Ftol: DefaultFtol, MaxIterations: DefaultMaxIterations}
	res, err := s.Solve(context.Background(), Problem{Func: fn, Grad: grad, X0: x0, Lower: lower, Upper: upper, Sum: 1})
	require.NoError(t, err)
	require.Len(t, res.X, 7)
	assert.InDelta(t, 1, floats.Sum(res.X), 1e-9)
	for _, w := range res.X {
		assert.GreaterOrEqual(t, w, 0.0)
		assert.LessOrEqual(t, w, 1.0)
	}
	assert.LessOrEqual(t, fn(res.X), fn(x0)+1e-12)
	assert.NotEmpty(t, res.Message)

	_, err = s.Solve(context.Background(), Problem{Func: fn, X0: []float64{0.5, 0.5}, Lower: []float64{0, 0}, Upper: []float64{1, 1}, Sum: 0.5})
	assert.Error(t, err)
}

func TestNewSolver(t *testing.T) {
	s, err := NewSolver("", DefaultFtol, DefaultMaxIterations)
	require.NoError(t, err)
	assert.Equal(t, SolverProjectedGradient, s.Name())

	s, err = NewSolver(SolverSoftmaxLBFGS, 1e-8, 50)
	require.NoError(t, err)
	assert.Equal(t, &SoftmaxLBFGS{Ftol: 1e-8, MaxIterations: 50}, s)

	for _, tc := range []struct {
		name  string
		ftol  float64
		iters int
	}{
		{"slsqp", DefaultFtol, 10},
		{SolverProjectedGradient, 0, 10},
		{SolverProjectedGradient, DefaultFtol, 0},
	} {
		_, err := NewSolver(tc.name, tc.ftol, tc.iters)
		require.Error(t, err)
		assert.Equal(t, failure.KindConfig, failure.KindOf(err))
	}
}
