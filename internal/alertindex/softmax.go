package alertindex

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// SoftmaxLBFGS solves problems over the probability simplex (bounds [0,1],
// Sum 1) by substituting x = softmax(z) and running unconstrained L-BFGS on
// z. Vertices of the simplex are only approached, never reached.
type SoftmaxLBFGS struct {
	Ftol          float64
	MaxIterations int
}

func (s *SoftmaxLBFGS) Name() string { return SolverSoftmaxLBFGS }

var errNotSimplex = errors.New("softmax-lbfgs only solves over the probability simplex")

// Solve runs L-BFGS from the softmax preimage of p.X0.
func (s *SoftmaxLBFGS) Solve(ctx context.Context, p Problem) (Result, error) {
	if err := p.validate(); err != nil {
		return Result{}, err
	}
	if p.Sum != 1 {
		return Result{}, errNotSimplex
	}
	for i := range p.Lower {
		if p.Lower[i] != 0 || p.Upper[i] != 1 {
			return Result{}, errNotSimplex
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	n := len(p.X0)
	grad := p.gradient()
	x := make([]float64, n)
	gx := make([]float64, n)

	z0 := make([]float64, n)
	for i, v := range p.X0 {
		z0[i] = math.Log(math.Max(v, 1e-300))
	}

	problem := optimize.Problem{
		Func: func(z []float64) float64 {
			softmax(x, z)
			return p.Func(x)
		},
		Grad: func(gz, z []float64) {
			// ∂F/∂z_j = x_j·(∂F/∂x_j - x·∇F)
			softmax(x, z)
			grad(gx, x)
			inner := floats.Dot(x, gx)
			for j := range gz {
				gz[j] = x[j] * (gx[j] - inner)
			}
		},
	}
	settings := &optimize.Settings{
		MajorIterations: s.MaxIterations,
		Converger:       &optimize.FunctionConverge{Absolute: s.Ftol, Iterations: 20},
	}

	res, err := optimize.Minimize(problem, z0, settings, &optimize.LBFGS{})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, ctxErr
	}
	if res == nil {
		return Result{Message: err.Error()}, nil
	}

	out := Result{X: make([]float64, n), F: res.F, Iterations: res.Stats.MajorIterations}
	softmax(out.X, res.X)
	switch {
	case err != nil:
		out.Message = err.Error()
	case res.Status.Early():
		out.Message = res.Status.String()
	default:
		out.Success = true
		out.Message = MsgConverged
	}
	return out, nil
}

// softmax writes exp(z_i)/Σexp(z) to dst, shifted by max(z) for stability.
func softmax(dst, z []float64) {
	m := floats.Max(z)
	for i, v := range z {
		dst[i] = math.Exp(v - m)
	}
	floats.Scale(1/floats.Sum(dst), dst)
}
