package alertindex

import (
	"math/bits"
	"testing"

	"go.uber.org/goleak"
	"gonum.org/v1/gonum/mat"

	"github.com/jsangelo/index-based-alert-system/internal/monitoring"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func muteLogs(t *testing.T) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

// hadamardFixture returns eight clusters whose seven feature columns are the
// negated non-constant columns of an 8×8 Sylvester-Hadamard matrix. Every
// column has mean 0 and population variance 1 and the columns are mutually
// orthogonal, so f2(w) = |w|². With deaths 1..8, f1(w) = c·w for
// c = (1/9, 2/9, 0, 4/9, 0, 0, 0).
func hadamardFixture() *Prepared {
	z := mat.NewDense(8, 7, nil)
	deaths := make([]float64, 8)
	clusters := make([]int, 8)
	for r := 0; r < 8; r++ {
		for col := 1; col <= 7; col++ {
			v := -1.0
			if bits.OnesCount(uint(r&col))%2 == 1 {
				v = 1
			}
			z.Set(r, col-1, v)
		}
		deaths[r] = float64(r + 1)
		clusters[r] = r * 10
	}
	return &Prepared{Clusters: clusters, Z: z, Deaths: deaths}
}

var fixtureC = []float64{1.0 / 9, 2.0 / 9, 0, 4.0 / 9, 0, 0, 0}
