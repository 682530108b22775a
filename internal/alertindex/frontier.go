package alertindex

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/jsangelo/index-based-alert-system/internal/failure"
	"github.com/jsangelo/index-based-alert-system/internal/monitoring"
	"github.com/jsangelo/index-based-alert-system/internal/sweep"
)

// BaselineMessage labels the uniform-weight comparison solution.
const BaselineMessage = "uniform weights (no optimisation)"

// DefaultAlphas returns the 11-point grid 0, 0.1, ..., 1.
func DefaultAlphas() []float64 {
	return sweep.GenerateRange(0, 1, 0.1)
}

// Solution is one point of the frontier.
type Solution struct {
	Alpha      float64 // meaningless when Baseline
	Baseline   bool
	Weights    []float64 // the solver's final iterate; nil only if it produced none
	Objective1 float64
	Objective2 float64
	Success    bool
	Message    string
	Iterations int
	Dominated  bool
}

// Frontier holds the per-alpha solutions in alpha order followed by the
// baseline.
type Frontier struct {
	Solutions []Solution
	F1Bound   float64 // max of f1 over the simplex
}

// Optimizer sweeps alpha and solves each scalarised problem independently
// from uniform weights.
type Optimizer struct {
	Solver  Solver    // nil means ProjectedGradient with default tolerances
	Alphas  []float64 // nil means DefaultAlphas
	Workers int       // <= 0 means runtime.NumCPU
}

// Run solves every alpha concurrently. Non-converged solves are recorded,
// not returned as errors; a cancelled context discards every result.
func (op *Optimizer) Run(ctx context.Context, obj *Objectives) (*Frontier, error) {
	solver := op.Solver
	if solver == nil {
		solver = &ProjectedGradient{Ftol: DefaultFtol, Xtol: DefaultXtol, MaxIterations: DefaultMaxIterations}
	}
	alphas := op.Alphas
	if alphas == nil {
		alphas = DefaultAlphas()
	}
	for _, a := range alphas {
		if math.IsNaN(a) || a < 0 || a > 1 {
			return nil, failure.Config("optimize", fmt.Errorf("alpha %v outside [0, 1]", a))
		}
	}
	workers := op.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	k := obj.Dim()
	uniform := Uniform(k)
	lower := make([]float64, k)
	upper := make([]float64, k)
	for i := range upper {
		upper[i] = 1
	}

	solutions := make([]Solution, len(alphas)+1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for idx, alpha := range alphas {
		g.Go(func() error {
			fn, grad := obj.Scalarized(alpha)
			res, err := solver.Solve(gctx, Problem{
				Func:  fn,
				Grad:  grad,
				X0:    append([]float64(nil), uniform...),
				Lower: lower,
				Upper: upper,
				Sum:   1,
			})
			if err != nil {
				return fmt.Errorf("alpha %v: %w", alpha, err)
			}
			solutions[idx] = newSolution(obj, alpha, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	solutions[len(alphas)] = Baseline(obj)

	bound, err := F1UpperBound(obj)
	if err != nil {
		return nil, err
	}
	MarkDominated(solutions)

	f := &Frontier{Solutions: solutions, F1Bound: bound}
	f.logSummary(solver.Name())
	return f, nil
}

func newSolution(obj *Objectives, alpha float64, res Result) Solution {
	s := Solution{
		Alpha:      alpha,
		Weights:    res.X,
		Success:    res.Success,
		Message:    res.Message,
		Iterations: res.Iterations,
	}
	if res.X != nil {
		s.Objective1, s.Objective2 = obj.Evaluate(res.X)
	}
	return s
}

// Uniform returns k equal weights summing to 1.
func Uniform(k int) []float64 {
	w := make([]float64, k)
	for i := range w {
		w[i] = 1 / float64(k)
	}
	return w
}

// Baseline evaluates the objectives at uniform weights, with no optimisation.
func Baseline(obj *Objectives) Solution {
	w := Uniform(obj.Dim())
	f1, f2 := obj.Evaluate(w)
	return Solution{
		Baseline:   true,
		Weights:    w,
		Objective1: f1,
		Objective2: f2,
		Success:    true,
		Message:    BaselineMessage,
	}
}

// F1UpperBound returns the maximum of f1 over the probability simplex,
// solved as the linear program min -c·w s.t. Σw = 1, w ≥ 0.
func F1UpperBound(obj *Objectives) (float64, error) {
	c := obj.F1Coefficients()
	k := len(c)
	neg := make([]float64, k)
	ones := make([]float64, k)
	for i, v := range c {
		neg[i] = -v
		ones[i] = 1
	}
	opt, _, err := lp.Simplex(neg, mat.NewDense(1, k, ones), []float64{1}, 1e-10, nil)
	if err != nil {
		return 0, failure.Numerical("f1 upper bound", err)
	}
	return -opt, nil
}

// MarkDominated flags every successful solution for which another successful
// solution has f1 at least as high and f2 at least as low, one strictly.
func MarkDominated(solutions []Solution) {
	for i := range solutions {
		solutions[i].Dominated = false
		if !solutions[i].Success {
			continue
		}
		for j := range solutions {
			if i == j || !solutions[j].Success {
				continue
			}
			if dominates(solutions[j], solutions[i]) {
				solutions[i].Dominated = true
				break
			}
		}
	}
}

func dominates(a, b Solution) bool {
	if a.Objective1 < b.Objective1 || a.Objective2 > b.Objective2 {
		return false
	}
	return a.Objective1 > b.Objective1 || a.Objective2 < b.Objective2
}

func (f *Frontier) logSummary(solver string) {
	failed := 0
	for _, s := range f.Solutions {
		if !s.Success {
			failed++
			monitoring.Logf("alertindex: alpha=%g did not converge: %s", s.Alpha, s.Message)
			continue
		}
		if !s.Baseline && s.Alpha == 1 && s.Objective1 < f.F1Bound-1e-6 {
			monitoring.Logf("alertindex: warning: alpha=1 reached f1=%g, below the attainable %g", s.Objective1, f.F1Bound)
		}
		monitoring.Debugf("alertindex: alpha=%g f1=%g f2=%g iterations=%d dominated=%t",
			s.Alpha, s.Objective1, s.Objective2, s.Iterations, s.Dominated)
	}
	monitoring.Logf("alertindex: solver=%s solutions=%d failed=%d f1_bound=%g", solver, len(f.Solutions), failed, f.F1Bound)
}
