package alertindex

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"

	"github.com/jsangelo/index-based-alert-system/internal/failure"
)

// Solver names accepted by NewSolver.
const (
	SolverProjectedGradient = "projected-gradient"
	SolverSoftmaxLBFGS      = "softmax-lbfgs"
)

// Default solver tolerances.
const (
	DefaultFtol          = 1e-10
	DefaultXtol          = 1e-7
	DefaultMaxIterations = 1000
)

// Solver messages.
const (
	MsgConverged      = "Optimization terminated successfully"
	MsgIterationLimit = "Iteration limit reached"
	MsgNonFinite      = "Objective is not finite"
)

// Problem is a minimisation over {x : Σx = Sum, Lower ≤ x ≤ Upper}.
type Problem struct {
	Func  func(x []float64) float64
	Grad  func(grad, x []float64) // nil: central finite differences
	X0    []float64
	Lower []float64
	Upper []float64
	Sum   float64
}

func (p *Problem) validate() error {
	n := len(p.X0)
	if n == 0 || len(p.Lower) != n || len(p.Upper) != n {
		return fmt.Errorf("problem dimensions disagree: x0=%d lower=%d upper=%d", n, len(p.Lower), len(p.Upper))
	}
	for i := range p.Lower {
		if p.Lower[i] > p.Upper[i] {
			return fmt.Errorf("bound %d is empty: [%v, %v]", i, p.Lower[i], p.Upper[i])
		}
	}
	if lo, hi := floats.Sum(p.Lower), floats.Sum(p.Upper); p.Sum < lo || p.Sum > hi {
		return fmt.Errorf("sum %v unreachable within bounds [%v, %v]", p.Sum, lo, hi)
	}
	return nil
}

func (p *Problem) gradient() func(grad, x []float64) {
	if p.Grad != nil {
		return p.Grad
	}
	settings := &fd.Settings{Formula: fd.Central}
	return func(grad, x []float64) {
		fd.Gradient(grad, p.Func, x, settings)
	}
}

// Result is a solver's final iterate. X is set even when Success is false.
type Result struct {
	X          []float64
	F          float64
	Success    bool
	Message    string
	Iterations int
}

// Solver minimises a Problem. A non-converged solve is reported through
// Result.Success; the error is reserved for invalid problems and
// cancellation.
type Solver interface {
	Solve(ctx context.Context, p Problem) (Result, error)
	Name() string
}

// NewSolver returns the named solver.
func NewSolver(name string, ftol float64, maxIterations int) (Solver, error) {
	if !(ftol > 0) {
		return nil, failure.Config("new solver", fmt.Errorf("ftol must be > 0, got %v", ftol))
	}
	if maxIterations <= 0 {
		return nil, failure.Config("new solver", fmt.Errorf("max iterations must be > 0, got %d", maxIterations))
	}
	switch name {
	case SolverProjectedGradient, "":
		return &ProjectedGradient{Ftol: ftol, Xtol: DefaultXtol, MaxIterations: maxIterations}, nil
	case SolverSoftmaxLBFGS:
		return &SoftmaxLBFGS{Ftol: ftol, MaxIterations: maxIterations}, nil
	default:
		return nil, failure.Config("new solver", fmt.Errorf("unknown solver %q (want %s or %s)", name, SolverProjectedGradient, SolverSoftmaxLBFGS))
	}
}

// ProjectedGradient is a projected gradient method with Armijo backtracking.
// The step grows after every accepted iteration. It stops successfully when
// one iteration changes the objective by less than Ftol while moving x by
// less than Xtol in every coordinate.
type ProjectedGradient struct {
	Ftol          float64
	Xtol          float64
	MaxIterations int
}

const (
	armijo        = 1e-4
	maxBacktracks = 60
	maxStep       = 1e10
)

func (pg *ProjectedGradient) Name() string { return SolverProjectedGradient }

// Solve runs the method from the projection of p.X0.
func (pg *ProjectedGradient) Solve(ctx context.Context, p Problem) (Result, error) {
	if err := p.validate(); err != nil {
		return Result{}, err
	}
	grad := p.gradient()
	n := len(p.X0)

	x, err := Project(p.X0, p.Lower, p.Upper, p.Sum)
	if err != nil {
		return Result{}, err
	}
	f := p.Func(x)
	g := make([]float64, n)
	grad(g, x)

	trial := make([]float64, n)
	d := make([]float64, n)
	step := 1.0

	for iter := 1; iter <= pg.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Result{X: x, F: f, Message: MsgNonFinite, Iterations: iter - 1}, nil
		}

		accepted := false
		var ft float64
		for bt := 0; bt < maxBacktracks; bt++ {
			floats.AddScaledTo(trial, x, -step, g)
			y, err := Project(trial, p.Lower, p.Upper, p.Sum)
			if err != nil {
				return Result{}, err
			}
			floats.SubTo(d, y, x)
			if floats.Norm(d, math.Inf(1)) == 0 {
				// x is a fixed point of the projected step
				return Result{X: x, F: f, Success: true, Message: MsgConverged, Iterations: iter}, nil
			}
			ft = p.Func(y)
			if ft <= f+armijo*floats.Dot(g, d) {
				copy(trial, y)
				accepted = true
				break
			}
			step /= 2
		}
		if !accepted {
			// No decrease along a vanishing step: stationary to within Xtol.
			if floats.Norm(d, math.Inf(1)) <= pg.Xtol {
				return Result{X: x, F: f, Success: true, Message: MsgConverged, Iterations: iter}, nil
			}
			return Result{X: x, F: f, Message: "Line search failed", Iterations: iter}, nil
		}

		df := math.Abs(f - ft)
		copy(x, trial)
		f = ft
		grad(g, x)
		if df < pg.Ftol && floats.Norm(d, math.Inf(1)) < pg.Xtol {
			return Result{X: x, F: f, Success: true, Message: MsgConverged, Iterations: iter}, nil
		}
		if step < maxStep {
			step *= 2
		}
	}
	return Result{X: x, F: f, Message: MsgIterationLimit, Iterations: pg.MaxIterations}, nil
}

// Project returns the Euclidean projection of v onto
// {x : Σx = sum, lower ≤ x ≤ upper}. The projection has the form
// x_i = clip(v_i - τ, lower_i, upper_i); τ is found by bisection.
func Project(v, lower, upper []float64, sum float64) ([]float64, error) {
	n := len(v)
	if len(lower) != n || len(upper) != n {
		return nil, fmt.Errorf("projection dimensions disagree")
	}
	if lo, hi := floats.Sum(lower), floats.Sum(upper); sum < lo || sum > hi {
		return nil, fmt.Errorf("sum %v unreachable within bounds [%v, %v]", sum, lo, hi)
	}

	x := make([]float64, n)
	at := func(tau float64) float64 {
		for i := range v {
			x[i] = math.Min(math.Max(v[i]-tau, lower[i]), upper[i])
		}
		return floats.Sum(x)
	}

	// Σx(τ) is non-increasing; at tauLo every x_i is at its upper bound and
	// at tauHi every x_i is at its lower bound.
	tauLo, tauHi := math.Inf(1), math.Inf(-1)
	for i := range v {
		tauLo = math.Min(tauLo, v[i]-upper[i])
		tauHi = math.Max(tauHi, v[i]-lower[i])
	}
	for it := 0; it < 200 && tauHi-tauLo > 1e-15*(1+math.Abs(tauLo)+math.Abs(tauHi)); it++ {
		mid := tauLo + (tauHi-tauLo)/2
		if at(mid) > sum {
			tauLo = mid
		} else {
			tauHi = mid
		}
	}
	at(tauLo + (tauHi-tauLo)/2)

	// Spread the remaining rounding error over the free coordinates.
	if resid := sum - floats.Sum(x); resid != 0 {
		for i := range x {
			if x[i] > lower[i] && x[i] < upper[i] {
				x[i] = math.Min(math.Max(x[i]+resid, lower[i]), upper[i])
				resid = sum - floats.Sum(x)
				if resid == 0 {
					break
				}
			}
		}
	}
	return x, nil
}
