package alertindex

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/jsangelo/index-based-alert-system/internal/failure"
)

// Objectives evaluates the two competing objectives for a weight vector w:
//
//	f1(w) = death-weighted mean of the alert index Z·w   (maximised)
//	f2(w) = population variance of Z·w                   (minimised)
type Objectives struct {
	z      *mat.Dense
	deaths []float64
	c      []float64 // ∇f1, constant since f1 is linear in w
}

// NewObjectives builds the objectives over prepared clusters. The death
// counts must not sum to zero.
func NewObjectives(p *Prepared) (*Objectives, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	total := floats.Sum(p.Deaths)
	if total == 0 {
		return nil, failure.Input("build objectives", fmt.Errorf("death counts of the %d retained clusters sum to zero", p.Len()))
	}

	_, k := p.Z.Dims()
	c := mat.NewVecDense(k, nil)
	c.MulVec(p.Z.T(), mat.NewVecDense(len(p.Deaths), p.Deaths))
	c.ScaleVec(1/total, c)

	return &Objectives{z: p.Z, deaths: p.Deaths, c: c.RawVector().Data}, nil
}

// Dim returns the number of weights.
func (o *Objectives) Dim() int {
	_, k := o.z.Dims()
	return k
}

// AlertIndex returns Z·w, one value per cluster.
func (o *Objectives) AlertIndex(w []float64) []float64 {
	r, _ := o.z.Dims()
	a := mat.NewVecDense(r, nil)
	a.MulVec(o.z, mat.NewVecDense(len(w), w))
	return a.RawVector().Data
}

// Evaluate returns f1 and f2 at w.
func (o *Objectives) Evaluate(w []float64) (f1, f2 float64) {
	a := o.AlertIndex(w)
	return stat.Mean(a, o.deaths), stat.PopVariance(a, nil)
}

// F1Coefficients returns c such that f1(w) = c·w.
func (o *Objectives) F1Coefficients() []float64 {
	return append([]float64(nil), o.c...)
}

// Scalarized returns the function minimised for a given alpha,
// -(alpha·f1 - (1-alpha)·f2), and its analytic gradient.
func (o *Objectives) Scalarized(alpha float64) (fn func(w []float64) float64, grad func(g, w []float64)) {
	fn = func(w []float64) float64 {
		f1, f2 := o.Evaluate(w)
		return -(alpha*f1 - (1-alpha)*f2)
	}
	grad = func(g, w []float64) {
		// ∇f2 = (2/n)·Zᵀ(a - mean(a))
		a := o.AlertIndex(w)
		mean := stat.Mean(a, nil)
		floats.AddConst(-mean, a)
		n := float64(len(a))

		d := mat.NewVecDense(len(g), g)
		d.MulVec(o.z.T(), mat.NewVecDense(len(a), a))
		for j := range g {
			g[j] = -(alpha*o.c[j] - (1-alpha)*2*g[j]/n)
		}
	}
	return fn, grad
}
