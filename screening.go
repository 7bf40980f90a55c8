// screening.go --  This file is part of goPCM project.
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
	"fmt"
	"math"
)

// Screening is the ionic part of the fluid: a symmetric pair of ion species
// of charge +-Z and bulk density N, optionally with hard-sphere packing.
// Ion densities are N*s*exp(mu+) and N*s*exp(-mu-).
type Screening struct {
	Linear bool

	NT   float64 // N*T
	ZbyT float64 // Z/T
	NZ   float64 // N*Z

	X0Plus, X0Minus, X0 float64 // bulk packing fractions
}

// NewScreening prepares the ionic kernels for ions of bulk density Nion and
// charge magnitude Zion with hard-sphere volumes VhsPlus and VhsMinus.
func NewScreening(linear bool, T, Nion, Zion, VhsPlus, VhsMinus, epsBulk float64) (*Screening, error) {
	if T <= 0 || Nion <= 0 || Zion <= 0 {
		return nil, fmt.Errorf("%w: ions need positive temperature, density and charge", ErrInvalidParams)
	}
	sc := &Screening{
		Linear:  linear,
		NT:      Nion * T,
		ZbyT:    Zion / T,
		NZ:      Nion * Zion,
		X0Plus:  Nion * VhsPlus,
		X0Minus: Nion * VhsMinus,
	}
	sc.X0 = sc.X0Plus + sc.X0Minus
	if sc.X0 >= 1 {
		return nil, fmt.Errorf("%w: bulk ion lattice packing fraction %g >= 1", ErrInvalidParams, sc.X0)
	}
	if !linear && sc.X0 <= 0 {
		return nil, fmt.Errorf("%w: nonlinear screening needs positive hard-sphere volumes", ErrInvalidParams)
	}
	screenLength := math.Sqrt(T * epsBulk / (8 * math.Pi * Nion * Zion * Zion))
	if linear {
		InfoLogger.Printf("Linear ions with screening length = %g bohrs.", screenLength)
	} else {
		InfoLogger.Printf("Nonlinear ions with screening length = %g bohrs and Z = %g at T = %g K.",
			screenLength, Zion, T/Kelvin)
	}
	return sc, nil
}

// fHS is the hard-sphere excess free energy per unit N*T as a function of the
// total packing fraction, with its derivative. Packings above 0.5 are remapped
// so that x stays below 1 for any input.
func (sc *Screening) fHS(xIn float64) (f, f_xIn float64) {
	x, x_xIn := xIn, 1.0
	if xIn > 0.5 {
		x = 1 - 0.25/xIn
		x_xIn = 0.25 / (xIn * xIn)
	}
	den := 1 / (1 - x)
	den0 := 1 / (1 - sc.X0)
	comb := (x - sc.X0) * den * den0
	comb_x := den * den
	prefac := 2 / sc.X0
	f = prefac * comb * comb
	f_xIn = prefac * 2 * comb * comb_x * x_xIn
	return f, f_xIn
}

// fHSCurvature is the second derivative of fHS.
func (sc *Screening) fHSCurvature(xIn float64) float64 {
	x, x_xIn, x_xInxIn := xIn, 1.0, 0.0
	if xIn > 0.5 {
		x = 1 - 0.25/xIn
		x_xIn = 0.25 / (xIn * xIn)
		x_xInxIn = -0.5 / (xIn * xIn * xIn)
	}
	den := 1 / (1 - x)
	den0 := 1 / (1 - sc.X0)
	comb := (x - sc.X0) * den * den0
	prefac := 2 / sc.X0
	f_x := prefac * 2 * comb * den * den
	f_xx := prefac * 2 * (den*den*den*den + 2*comb*den*den*den)
	return f_xx*x_xIn*x_xIn + f_x*x_xInxIn
}

type screeningTerms struct {
	F, F_muPlus, F_muMinus       float64
	Rho, Rho_muPlus, Rho_muMinus float64
}

// compute returns the free energy density and charge density per unit shape.
func (sc *Screening) compute(muPlus, muMinus float64) screeningTerms {
	if sc.Linear {
		return screeningTerms{
			F:           sc.NT * 0.5 * (muPlus*muPlus + muMinus*muMinus),
			F_muPlus:    sc.NT * muPlus,
			F_muMinus:   sc.NT * muMinus,
			Rho:         sc.NZ * (muPlus + muMinus),
			Rho_muPlus:  sc.NZ,
			Rho_muMinus: sc.NZ,
		}
	}
	etaPlus := math.Exp(muPlus)
	etaMinus := math.Exp(-muMinus)
	x := sc.X0Plus*etaPlus + sc.X0Minus*etaMinus
	f, f_x := sc.fHS(x)
	return screeningTerms{
		F:           sc.NT * (2 + etaPlus*(muPlus-1) + etaMinus*(-muMinus-1) + f),
		F_muPlus:    sc.NT * etaPlus * (muPlus + f_x*sc.X0Plus),
		F_muMinus:   sc.NT * etaMinus * (muMinus - f_x*sc.X0Minus),
		Rho:         sc.NZ * (etaPlus - etaMinus),
		Rho_muPlus:  sc.NZ * etaPlus,
		Rho_muMinus: sc.NZ * etaMinus,
	}
}

// FreeEnergy evaluates the ion free energy density A and charge density rho
// at potentials mu+mu0. Derivatives are accumulated into AMuPlus, AMuMinus
// and As when those are non-nil.
func (sc *Screening) FreeEnergy(mu0 float64, muPlus, muMinus, s, rho, A, AMuPlus, AMuMinus, As ScalarField) {
	parallelFor(len(s), func(start, end int) {
		for i := start; i < end; i++ {
			t := sc.compute(muPlus[i]+mu0, muMinus[i]+mu0)
			rho[i] = s[i] * t.Rho
			A[i] = s[i] * t.F
			if AMuPlus != nil {
				AMuPlus[i] += s[i] * t.F_muPlus
			}
			if AMuMinus != nil {
				AMuMinus[i] += s[i] * t.F_muMinus
			}
			if As != nil {
				As[i] += t.F
			}
		}
	})
}

// ConvertDerivative propagates a gradient with respect to the ion charge
// density back to the potentials and the shape.
func (sc *Screening) ConvertDerivative(mu0 float64, muPlus, muMinus, s, ARho, AMuPlus, AMuMinus, As ScalarField) {
	parallelFor(len(s), func(start, end int) {
		for i := start; i < end; i++ {
			t := sc.compute(muPlus[i]+mu0, muMinus[i]+mu0)
			AMuPlus[i] += s[i] * t.Rho_muPlus * ARho[i]
			AMuMinus[i] += s[i] * t.Rho_muMinus * ARho[i]
			if As != nil {
				As[i] += t.Rho * ARho[i]
			}
		}
	})
}

// NeutralityDerivs holds the derivatives of the neutralizing shift mu0.
type NeutralityDerivs struct {
	MuPlus, MuMinus, Shape ScalarField
	Qexp                   float64
}

// NeutralityConstraint returns the uniform shift mu0 that makes the ionic
// charge cancel the explicit charge Qexp. If d is non-nil its fields are
// filled with the functional derivatives of mu0.
func (sc *Screening) NeutralityConstraint(g *Grid, muPlus, muMinus, s ScalarField, Qexp float64, d *NeutralityDerivs) float64 {
	if d != nil {
		d.MuPlus = g.NewScalarField()
		d.MuMinus = g.NewScalarField()
		d.Shape = g.NewScalarField()
		d.Qexp = 0
	}
	if g.Integral(s) <= 0 {
		return 0
	}
	if sc.Linear {
		Qsum := sc.NZ * 2 * g.Integral(s)
		Qdiff := 0.0
		for i := range s {
			Qdiff += s[i] * (muPlus[i] + muMinus[i])
		}
		Qdiff *= sc.NZ * g.DV
		mu0 := -(Qexp + Qdiff) / Qsum
		if d != nil {
			for i := range s {
				d.MuPlus[i] = (-1 / Qsum) * sc.NZ * s[i]
				d.MuMinus[i] = d.MuPlus[i]
				d.Shape[i] = sc.NZ * ((-1/Qsum)*(muPlus[i]+muMinus[i]) + 2*(Qexp+Qdiff)/(Qsum*Qsum))
			}
			d.Qexp = -1 / Qsum
		}
		return mu0
	}

	etaPlus := make([]float64, len(s))
	etaMinus := make([]float64, len(s))
	Qplus, Qminus := 0.0, 0.0
	for i := range s {
		etaPlus[i] = math.Exp(muPlus[i])
		etaMinus[i] = math.Exp(-muMinus[i])
		Qplus += s[i] * etaPlus[i]
		Qminus += s[i] * etaMinus[i]
	}
	Qplus *= sc.NZ * g.DV
	Qminus *= -sc.NZ * g.DV
	disc := math.Sqrt(Qexp*Qexp - 4*Qplus*Qminus)

	// the two branches are the same root written to avoid cancellation
	var mu0, mu0_Qplus, mu0_Qminus float64
	if Qexp < 0 {
		mu0 = math.Log((disc - Qexp) / (2 * Qplus))
		mu0_Qplus = -2*Qminus/(disc*(disc-Qexp)) - 1/Qplus
		mu0_Qminus = -2 * Qplus / (disc * (disc - Qexp))
	} else {
		mu0 = math.Log(-2 * Qminus / (disc + Qexp))
		mu0_Qplus = 2 * Qminus / (disc * (disc + Qexp))
		mu0_Qminus = 2*Qplus/(disc*(disc+Qexp)) + 1/Qminus
	}
	if d != nil {
		for i := range s {
			d.MuPlus[i] = mu0_Qplus * sc.NZ * s[i] * etaPlus[i]
			d.MuMinus[i] = mu0_Qminus * sc.NZ * s[i] * etaMinus[i]
			d.Shape[i] = sc.NZ * (mu0_Qplus*etaPlus[i] - mu0_Qminus*etaMinus[i])
		}
		d.Qexp = -1 / disc
	}
	return mu0
}

// rootFunc vanishes at the packing fraction consistent with the potential V.
func (sc *Screening) rootFunc(x, V float64) float64 {
	_, f_x := sc.fHS(x)
	return x - (sc.X0Plus*math.Exp(-V-f_x*sc.X0Plus) + sc.X0Minus*math.Exp(V-f_x*sc.X0Minus))
}

const maxBracketSteps = 2000

// XFromV inverts rootFunc by bracketing and bisection.
func (sc *Screening) XFromV(V float64) (float64, error) {
	xLo := sc.X0
	for n := 0; sc.rootFunc(xLo, V) > 0; n++ {
		if n == maxBracketSteps {
			return 0, fmt.Errorf("%w: no lower packing bound at V = %g", ErrBracket, V)
		}
		xLo *= 0.5
	}
	xHi := xLo
	for n := 0; sc.rootFunc(xHi, V) < 0; n++ {
		if n == maxBracketSteps {
			return 0, fmt.Errorf("%w: no upper packing bound at V = %g", ErrBracket, V)
		}
		xHi *= 2
	}
	// bisect to a relative tolerance, then on until the residual is small
	// or the bracket cannot shrink any further
	dx := 0.5 * (xHi + xLo) * 1e-13
	for {
		x := 0.5 * (xHi + xLo)
		if x <= xLo || x >= xHi {
			break
		}
		r := sc.rootFunc(x, V)
		if xHi-xLo <= dx && math.Abs(r) < 1e-14 {
			return x, nil
		}
		if r > 0 {
			xHi = x
		} else {
			xLo = x
		}
	}
	if math.Abs(sc.rootFunc(xHi, V)) < math.Abs(sc.rootFunc(xLo, V)) {
		return xHi, nil
	}
	return xLo, nil
}

// dxdV is the slope of the root of rootFunc with respect to V.
func (sc *Screening) dxdV(x, V float64) float64 {
	_, f_x := sc.fHS(x)
	termPlus := sc.X0Plus * math.Exp(-V-f_x*sc.X0Plus)
	termMinus := sc.X0Minus * math.Exp(V-f_x*sc.X0Minus)
	R_x := 1 + sc.fHSCurvature(x)*(sc.X0Plus*termPlus+sc.X0Minus*termMinus)
	R_V := termPlus - termMinus
	return -R_V / R_x
}

const lookupSteps = 512

// XLookup tabulates 1/(1+x) against 1+Vmapped where Vmapped in [-1,1] is a
// compressed version of the potential V.
func (sc *Screening) XLookup() (*LookupTable, error) {
	key := tableKey{kind: "x", params: [4]float64{sc.X0Plus, sc.X0Minus}}
	return cachedTable(key, func() (*LookupTable, error) {
		dVmapped := 1.0 / lookupSteps
		samples := make([]float64, 2*lookupSteps+1)
		derivs := make([]float64, len(samples))
		for i := range samples {
			Vmapped := float64(i)*dVmapped - 1
			if math.Abs(Vmapped) >= 1 {
				continue
			}
			den := 1 / (1 - Vmapped*Vmapped)
			t := Vmapped * den
			V := t * t * t
			x, err := sc.XFromV(V)
			if err != nil {
				return nil, err
			}
			y := 1 / (1 + x)
			samples[i] = y
			V_Vmapped := 3 * t * t * (1 + Vmapped*Vmapped) * den * den
			derivs[i] = -y * y * sc.dxdV(x, V) * V_Vmapped
		}
		return NewLookupTable(0, dVmapped, samples, derivs)
	})
}

// mapPotential compresses V onto (-1,1); it inverts V = (Vm/(1-Vm^2))^3.
func mapPotential(V float64) float64 {
	twoCbrtV := 2 * math.Cbrt(math.Abs(V))
	return math.Copysign(twoCbrtV/(1+math.Sqrt(1+twoCbrtV*twoCbrtV)), V)
}

// PhiToState derives the ion response to the electrostatic potential phi.
// With setState the equilibrium potentials are written to muPlus and muMinus;
// otherwise the effective local screening kappaSq is written.
func (sc *Screening) PhiToState(phi, s ScalarField, xLookup *LookupTable, setState bool, muPlus, muMinus, kappaSq ScalarField) {
	parallelFor(len(phi), func(start, end int) {
		for i := start; i < end; i++ {
			V := sc.ZbyT * phi[i]
			if sc.Linear {
				if setState {
					muPlus[i] = -V
					muMinus[i] = -V
				} else {
					kappaSq[i] = 8 * math.Pi * s[i] * sc.NZ * sc.ZbyT
				}
				continue
			}
			if !setState && math.Abs(V) < 1e-7 {
				V = math.Copysign(1e-7, V)
			}
			xMapped := xLookup.Value(1 + mapPotential(V))
			x := 1/xMapped - 1
			_, f_x := sc.fHS(x)
			logEtaPlus := -V - f_x*sc.X0Plus
			logEtaMinus := V - f_x*sc.X0Minus
			if setState {
				muPlus[i] = logEtaPlus
				muMinus[i] = -logEtaMinus
			} else {
				kappaSq[i] = 4 * math.Pi * s[i] * sc.NZ * sc.ZbyT * (math.Exp(logEtaMinus) - math.Exp(logEtaPlus)) / V
			}
		}
	})
}

// PotentialOffset returns the constant to add to phi so that it best matches,
// in the shape-weighted mean, the potential from which muPlus and muMinus
// were derived by PhiToState. The hard-sphere terms cancel in the
// combination X0Minus*muPlus + X0Plus*muMinus = -X0*V.
func (sc *Screening) PotentialOffset(phi, muPlus, muMinus, s ScalarField) float64 {
	wPlus, wMinus := 0.5, 0.5
	if !sc.Linear {
		wPlus, wMinus = sc.X0Minus/sc.X0, sc.X0Plus/sc.X0
	}
	sum, sumS := 0.0, 0.0
	for i := range phi {
		V := -(wPlus*muPlus[i] + wMinus*muMinus[i])
		sum += s[i] * (V/sc.ZbyT - phi[i])
		sumS += s[i]
	}
	if sumS == 0 {
		return 0
	}
	return sum / sumS
}
