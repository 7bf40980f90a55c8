// dielectric_test.go --  This file is part of goPCM project.
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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDielectric(t *testing.T, linear bool) *Dielectric {
	fsp := DefaultParams()
	d, err := NewDielectric(linear, fsp.T, fsp.Nmol, fsp.PMol, fsp.EpsBulk, fsp.EpsInf)
	require.NoError(t, err)
	return d
}

func TestNewDielectricRejectsBadParams(t *testing.T) {
	fsp := DefaultParams()
	_, err := NewDielectric(false, fsp.T, fsp.Nmol, 0, fsp.EpsBulk, fsp.EpsInf)
	assert.ErrorIs(t, err, ErrInvalidParams, "zero dipole")
	_, err = NewDielectric(false, fsp.T, fsp.Nmol, fsp.PMol, 1.5, 1.77)
	assert.ErrorIs(t, err, ErrInvalidParams, "epsBulk below epsInf")
	_, err = NewDielectric(false, fsp.T, fsp.Nmol, fsp.PMol, fsp.EpsBulk, 0.5)
	assert.ErrorIs(t, err, ErrInvalidParams, "epsInf below 1")
	_, err = NewDielectric(false, fsp.T, fsp.Nmol, 10*fsp.PMol, fsp.EpsBulk, fsp.EpsInf)
	assert.ErrorIs(t, err, ErrInvalidParams, "negative correlation factor")
}

func TestDielectricSeriesMatchesClosedForm(t *testing.T) {
	d := newTestDielectric(t, false)
	fracLo, logLo := d.calcFunctions(0.1 - 1e-12)
	fracHi, logHi := d.calcFunctions(0.1 + 1e-12)
	assert.InDelta(t, fracLo, fracHi, 1e-11)
	assert.InDelta(t, logLo, logHi, 1e-11)
	assert.InDelta(t, d.fracDeriv(0.1-1e-12), d.fracDeriv(0.1+1e-12), 1e-9)

	// large-eps branch of logsinch: the jump across eps = 20 is the slope
	// coth(eps) - 1/eps times the step
	h := 1e-9
	_, logA := d.calcFunctions(20 - h)
	_, logB := d.calcFunctions(20 + h)
	slope := 1/math.Tanh(20) - 1.0/20
	assert.InDelta(t, 2*h*slope, logB-logA, 1e-12)
}

func TestDielectricComputeDerivatives(t *testing.T) {
	for _, linear := range []bool{true, false} {
		d := newTestDielectric(t, linear)
		for _, e := range []float64{1e-4, 0.02, 0.5, 3, 40} {
			h := 1e-5 * e
			tm := d.compute(e)
			plus, minus := d.compute(e+h), d.compute(e-h)
			assert.InDelta(t, tm.F_epsSqHlf, (plus.F-minus.F)/(2*h), 1e-6*math.Abs(tm.F_epsSqHlf)+1e-12*d.NT,
				"linear=%v epsSqHlf=%g", linear, e)
			assert.InDelta(t, tm.ChiEff_epsSqHlf, (plus.ChiEff-minus.ChiEff)/(2*h), 1e-6*d.Np,
				"linear=%v epsSqHlf=%g", linear, e)
		}
	}
}

func TestEpsFromXInvertsXFromEps(t *testing.T) {
	for _, linear := range []bool{true, false} {
		d := newTestDielectric(t, linear)
		eps, err := d.EpsFromX(0)
		require.NoError(t, err)
		assert.Zero(t, eps)
		for _, x := range []float64{1e-3, 0.1, 1, 10, 100} {
			eps, err := d.EpsFromX(x)
			require.NoError(t, err)
			assert.InDelta(t, x, d.XFromEps(eps), 1e-10*x, "linear=%v x=%g", linear, x)
		}
	}
}

func TestDielectricBulkResponse(t *testing.T) {
	fsp := DefaultParams()
	for _, linear := range []bool{true, false} {
		d := newTestDielectric(t, linear)
		gLookup, err := d.GLookup()
		require.NoError(t, err)
		Dphi := VectorField{{1e-7}, {0}, {0}}
		epsilon := ScalarField{0}
		d.PhiToState(Dphi, ScalarField{1}, gLookup, false, VectorField{}, epsilon)
		assert.InDelta(t, fsp.EpsBulk, epsilon[0], 1e-5*fsp.EpsBulk, "linear=%v", linear)
	}
}

func TestDielectricSaturates(t *testing.T) {
	d := newTestDielectric(t, false)
	gLookup, err := d.GLookup()
	require.NoError(t, err)
	// the local dielectric constant drops as the field grows
	prev := math.Inf(1)
	for _, E := range []float64{1e-4, 1e-3, 1e-2, 0.1} {
		epsilon := ScalarField{0}
		d.PhiToState(VectorField{{E}, {0}, {0}}, ScalarField{1}, gLookup, false, VectorField{}, epsilon)
		assert.Less(t, epsilon[0], prev, "E = %g", E)
		assert.Greater(t, epsilon[0], 1.0)
		prev = epsilon[0]
	}
}

func TestGLookupMatchesInversion(t *testing.T) {
	for _, linear := range []bool{true, false} {
		d := newTestDielectric(t, linear)
		gLookup, err := d.GLookup()
		require.NoError(t, err)
		for _, x := range []float64{1e-3, 0.05, 0.7, 3, 25, 400} {
			eps, err := d.EpsFromX(x)
			require.NoError(t, err)
			got := x * gLookup.Value(x/(1+x))
			assert.InDelta(t, eps, got, 1e-8*eps, "linear=%v x=%g", linear, x)
		}
	}
}

func TestEnergyLookupIsLegendreTransform(t *testing.T) {
	for _, linear := range []bool{true, false} {
		d := newTestDielectric(t, linear)
		energyLookup, err := d.EnergyLookup()
		require.NoError(t, err)
		for _, x := range []float64{1e-3, 0.05, 0.7, 3, 25} {
			eps, err := d.EpsFromX(x)
			require.NoError(t, err)
			tm := d.compute(0.5 * eps * eps)
			// p.E - F at the equilibrium polarization
			want := tm.ChiEff*eps*x/d.PByT - tm.F
			got := energyLookup.Value(x/(1+x)) * x * x
			assert.InDelta(t, want, got, 1e-8*math.Abs(want), "linear=%v x=%g", linear, x)
		}
	}
}

func TestDielectricApplyDerivative(t *testing.T) {
	d := newTestDielectric(t, false)
	energyLookup, err := d.EnergyLookup()
	require.NoError(t, err)
	s := ScalarField{0.7}
	for _, E := range [][3]float64{{1e-4, 0, 0}, {2e-3, -1e-3, 5e-4}, {0.03, 0.01, -0.02}} {
		Dphi := VectorField{{E[0]}, {E[1]}, {E[2]}}
		A := ScalarField{0}
		d.Apply(energyLookup, s, Dphi, A)
		scale := math.Sqrt(vecDot(Dphi, Dphi, 0))
		h := 1e-6 * math.Sqrt(E[0]*E[0]+E[1]*E[1]+E[2]*E[2])
		for c := 0; c < 3; c++ {
			Ap, Am := ScalarField{0}, ScalarField{0}
			Dp := VectorField{{E[0]}, {E[1]}, {E[2]}}
			Dp[c][0] += h
			d.Apply(energyLookup, s, Dp, Ap)
			Dm := VectorField{{E[0]}, {E[1]}, {E[2]}}
			Dm[c][0] -= h
			d.Apply(energyLookup, s, Dm, Am)
			fd := (Ap[0] - Am[0]) / (2 * h)
			assert.InDelta(t, fd, Dphi[c][0], 1e-5*scale, "E = %v c = %d", E, c)
		}
	}
}

func TestDielectricStateDerivatives(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 6
	for _, linear := range []bool{true, false} {
		d := newTestDielectric(t, linear)
		s := make(ScalarField, n)
		var eps, Ap VectorField
		for c := 0; c < 3; c++ {
			eps[c] = make(ScalarField, n)
			Ap[c] = make(ScalarField, n)
		}
		for i := 0; i < n; i++ {
			s[i] = rng.Float64()
			for c := 0; c < 3; c++ {
				eps[c][i] = 2 * rng.NormFloat64()
				Ap[c][i] = 1e-3 * rng.NormFloat64()
			}
		}
		// objective: sum(A) + Ap.p
		objective := func(eps VectorField, s ScalarField) float64 {
			p := VectorField{make(ScalarField, n), make(ScalarField, n), make(ScalarField, n)}
			A := make(ScalarField, n)
			AEps := VectorField{make(ScalarField, n), make(ScalarField, n), make(ScalarField, n)}
			d.FreeEnergyState(eps, s, p, A, AEps, nil)
			sum := 0.0
			for i := 0; i < n; i++ {
				sum += A[i] + vecDot(Ap, p, i)
			}
			return sum
		}
		p := VectorField{make(ScalarField, n), make(ScalarField, n), make(ScalarField, n)}
		A := make(ScalarField, n)
		AEps := VectorField{make(ScalarField, n), make(ScalarField, n), make(ScalarField, n)}
		As := make(ScalarField, n)
		d.FreeEnergyState(eps, s, p, A, AEps, As)
		d.ConvertDerivative(eps, s, Ap, AEps, As)

		h := 1e-6
		for i := 0; i < n; i++ {
			for c := 0; c < 3; c++ {
				save := eps[c][i]
				eps[c][i] = save + h
				plus := objective(eps, s)
				eps[c][i] = save - h
				minus := objective(eps, s)
				eps[c][i] = save
				assert.InDelta(t, AEps[c][i], (plus-minus)/(2*h), 1e-5*d.NT, "linear=%v i=%d c=%d", linear, i, c)
			}
			save := s[i]
			s[i] = save + h
			plus := objective(eps, s)
			s[i] = save - h
			minus := objective(eps, s)
			s[i] = save
			assert.InDelta(t, As[i], (plus-minus)/(2*h), 1e-5*d.NT, "linear=%v i=%d shape", linear, i)
		}
	}
}

func TestDielectricFreeEnergyMatchesState(t *testing.T) {
	d := newTestDielectric(t, false)
	gLookup, err := d.GLookup()
	require.NoError(t, err)
	Dphi := VectorField{{1e-3, 0.02}, {-2e-3, 0}, {5e-4, 0.01}}
	s := ScalarField{1, 0.4}

	eps := VectorField{{0, 0}, {0, 0}, {0, 0}}
	d.PhiToState(Dphi, s, gLookup, true, eps, nil)
	pState := VectorField{{0, 0}, {0, 0}, {0, 0}}
	AState := ScalarField{0, 0}
	AEps := VectorField{{0, 0}, {0, 0}, {0, 0}}
	d.FreeEnergyState(eps, s, pState, AState, AEps, nil)

	p := VectorField{{0, 0}, {0, 0}, {0, 0}}
	A := ScalarField{0, 0}
	d.FreeEnergy(gLookup, s, Dphi, A, nil, p)
	for i := range s {
		assert.InDelta(t, AState[i], A[i], 1e-8*math.Abs(AState[i])+1e-15)
		for c := 0; c < 3; c++ {
			assert.InDelta(t, pState[c][i], p[c][i], 1e-8*math.Abs(pState[c][i])+1e-15)
		}
	}
}
