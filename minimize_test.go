// minimize_test.go --  This file is part of goPCM project.
// Mirzaeva Irina, 2023
//
//	goPCM is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------
package gopcm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// bowl is sum_k,i w*f(x-c) with f a convex function, preconditioned by 1/w.
type bowl struct {
	x, c, w   State
	f, fPrime func(float64) float64
	precond   bool
	nCompute  int
}

func newBowl(nr int, quadratic, precond bool) *bowl {
	b := &bowl{
		x:       NewState(nr),
		c:       randomState(nr, 11, 1),
		w:       randomState(nr, 12, 1),
		precond: precond,
	}
	for k := range b.w {
		for i := range b.w[k] {
			b.w[k][i] = 0.5 + math.Abs(b.w[k][i])
		}
	}
	b.f = func(u float64) float64 { return 0.5 * u * u }
	b.fPrime = func(u float64) float64 { return u }
	if !quadratic {
		b.f = func(u float64) float64 { return math.Cosh(u) - 1 }
		b.fPrime = math.Sinh
	}
	return b
}

func (b *bowl) Step(dir State, alpha float64) { b.x.Axpy(alpha, dir) }

func (b *bowl) Compute(grad, Kgrad *State) float64 {
	b.nCompute++
	E := 0.0
	g := NewState(len(b.x[0]))
	for k := range b.x {
		for i := range b.x[k] {
			u := b.x[k][i] - b.c[k][i]
			E += b.w[k][i] * b.f(u)
			g[k][i] = b.w[k][i] * b.fPrime(u)
		}
	}
	if grad != nil {
		*grad = g
	}
	if Kgrad != nil {
		Kg := g.Clone()
		if b.precond {
			for k := range Kg {
				for i := range Kg[k] {
					Kg[k][i] /= b.w[k][i]
				}
			}
		}
		*Kgrad = Kg
	}
	return E
}

func testMinimizeParams() MinimizeParams {
	return MinimizeParams{
		NIterations:         200,
		EnergyDiffThreshold: 1e-14,
		KnormThreshold:      1e-20,
		InitialStep:         1,
	}
}

func TestMinimizeQuadratic(t *testing.T) {
	for _, precond := range []bool{false, true} {
		b := newBowl(7, true, precond)
		res := Minimize(b, testMinimizeParams())
		assert.True(t, res.Converged, "precond=%v", precond)
		assert.InDelta(t, 0, res.Energy, 1e-12)
		for k := range b.x {
			for i := range b.x[k] {
				assert.InDelta(t, b.c[k][i], b.x[k][i], 1e-5)
			}
		}
		// energies decrease monotonically
		for n := 1; n < len(res.Energies); n++ {
			assert.LessOrEqual(t, res.Energies[n], res.Energies[n-1])
		}
	}
}

func TestMinimizePreconditionedQuadraticIsOneStep(t *testing.T) {
	b := newBowl(5, true, true)
	mp := testMinimizeParams()
	mp.EnergyDiffThreshold = 0
	mp.KnormThreshold = 1e-24
	res := Minimize(b, mp)
	assert.True(t, res.Converged)
	assert.LessOrEqual(t, res.Iterations, 2)
}

func TestMinimizeNonQuadratic(t *testing.T) {
	b := newBowl(6, false, false)
	res := Minimize(b, testMinimizeParams())
	assert.True(t, res.Converged)
	assert.InDelta(t, 0, res.Energy, 1e-10)
}

func TestMinimizeIterationLimit(t *testing.T) {
	b := newBowl(6, false, false)
	mp := testMinimizeParams()
	mp.NIterations = 2
	res := Minimize(b, mp)
	assert.False(t, res.Converged)
	assert.Equal(t, 2, res.Iterations)
	assert.Less(t, res.Energy, res.Energies[0])
}
