// linear_test.go --  This file is part of goPCM project.
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
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func testLinearParams() LinearSolveParams {
	return LinearSolveParams{NIterations: 500, Tolerance: 1e-12}
}

func uniformShape(g *Grid) ScalarField {
	s := g.NewScalarField()
	for i := range s {
		s[i] = 1
	}
	return s
}

func TestLinearPCMUniform(t *testing.T) {
	g, err := NewCubicGrid(12, 15)
	require.NoError(t, err)
	rhoT := ExplicitChargeTilde(g, []ChargeSite{
		{Pos: [3]float64{3, 4, 5}, Charge: 1, Width: 1, CavityWidth: 1},
		{Pos: [3]float64{7, 6, 5}, Charge: -0.4, Width: 0.8, CavityWidth: 1},
	})
	epsBulk := 20.0
	for _, k2 := range []float64{0, 0.05} {
		l := newLinearPCM(g, epsBulk, k2, testLinearParams())
		l.SetInternal(rhoT, uniformShape(g))
		_, converged := l.Solve()
		require.True(t, converged, "k2 = %g", k2)

		phiT := g.ToReciprocal(l.Phi)
		for i := range phiT {
			den := epsBulk*g.GSq[i] + k2
			var want complex128
			if den > 0 {
				want = rhoT[i] * complex(4*math.Pi/den, 0)
			}
			assert.InDelta(t, 0, cmplxAbs(phiT[i]-want), 1e-9, "k2 = %g point %d", k2, i)
		}
	}
}

func TestLinearPCMVaryingProfiles(t *testing.T) {
	g, err := NewCubicGrid(10, 13)
	require.NoError(t, err)
	sites := []ChargeSite{{Pos: [3]float64{5, 5, 5}, Charge: 0.5, Width: 0.7, Electrons: 4, CavityWidth: 1.2}}
	rhoT := ExplicitChargeTilde(g, sites)
	shape := g.NewScalarField()
	ComputeShape(g.ToReal(CavityDensityTilde(g, sites)), shape, 1e-3, 0.6)

	for _, k2 := range []float64{0, 0.02} {
		l := newLinearPCM(g, 78.4, k2, testLinearParams())
		l.SetInternal(rhoT, shape)
		iter, converged := l.Solve()
		require.True(t, converged)
		assert.Greater(t, iter, 0)

		// the operator applied to phi reproduces 4 pi rho, up to the
		// uniform mode when unscreened
		lhs := l.hessian(l.Phi)
		rho := g.ToReal(rhoT)
		if k2 == 0 {
			mean := rho.Mean()
			for i := range rho {
				rho[i] -= mean
			}
			assert.InDelta(t, 0, l.Phi.Mean(), 1e-12)
		}
		floats.Scale(4*math.Pi, rho)
		floats.Sub(lhs, rho)
		assert.Less(t, floats.Norm(lhs, 2), 1e-9*floats.Norm(rho, 2), "k2 = %g", k2)

		// a warm start from the solution is nearly free
		iter, converged = l.Solve()
		assert.True(t, converged)
		assert.LessOrEqual(t, iter, 5)
	}
}

func TestLinearPCMOverride(t *testing.T) {
	g, err := NewCubicGrid(6, 5)
	require.NoError(t, err)
	l := newLinearPCM(g, 10, 0.3, testLinearParams())
	l.SetInternal(make(ScalarFieldTilde, g.NR), uniformShape(g))
	assert.True(t, l.screened())
	eps := g.NewScalarField()
	for i := range eps {
		eps[i] = 2
	}
	l.Override(eps, nil)
	assert.False(t, l.screened())
	assert.Equal(t, 2.0, l.Epsilon[7])

	// zero charge gives a zero potential
	l.Phi[3] = 1
	iter, converged := l.Solve()
	assert.True(t, converged)
	assert.Zero(t, iter)
	assert.Zero(t, floats.Norm(l.Phi, 2))
}
