// dielectric.go --  This file is part of goPCM project.
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

// Dielectric is the rotational polarization response of solvent molecules
// of bulk density N and dipole moment p, with a correction X for the
// electronic polarizability and a correlation factor alpha fitted to
// reproduce epsBulk.
type Dielectric struct {
	Linear bool

	Np    float64 // N*p
	PByT  float64 // p/T
	NT    float64 // N*T
	Alpha float64
	X     float64
}

func NewDielectric(linear bool, T, Nmol, pMol, epsBulk, epsInf float64) (*Dielectric, error) {
	if pMol == 0 {
		return nil, fmt.Errorf("%w: solvent molecule has zero dipole moment", ErrInvalidParams)
	}
	if T <= 0 || Nmol <= 0 {
		return nil, fmt.Errorf("%w: solvent needs positive temperature and density", ErrInvalidParams)
	}
	if epsBulk <= epsInf {
		return nil, fmt.Errorf("%w: epsBulk = %g must exceed epsInf = %g", ErrInvalidParams, epsBulk, epsInf)
	}
	if epsInf < 1 {
		return nil, fmt.Errorf("%w: epsInf = %g must be at least 1", ErrInvalidParams, epsInf)
	}
	d := &Dielectric{
		Linear: linear,
		Np:     Nmol * pMol,
		PByT:   pMol / T,
		NT:     Nmol * T,
	}
	d.Alpha = 3 - 4*math.Pi*d.Np*pMol/(T*(epsBulk-epsInf))
	d.X = (epsInf - 1) * T / (4 * math.Pi * d.Np * pMol)
	if d.Alpha < 0 {
		return nil, fmt.Errorf("%w: correlation factor %g < 0; dipole too large for this dielectric constant", ErrInvalidParams, d.Alpha)
	}
	InfoLogger.Printf("Correlation factor alpha = %g, electronic polarizability factor X = %g.", d.Alpha, d.X)
	return d, nil
}

// calcFunctions returns the Langevin ratio frac = L(eps)/eps and
// logsinch = log(sinh(eps)/eps), switching to series near eps = 0.
func (d *Dielectric) calcFunctions(eps float64) (frac, logsinch float64) {
	epsSq := eps * eps
	if d.Linear {
		return 1.0 / 3, epsSq / 6
	}
	if eps < 0.1 {
		frac = 1.0/3 + epsSq*(-1.0/45+epsSq*(2.0/945+epsSq*(-1.0/4725)))
		logsinch = epsSq * (1.0/6 + epsSq*(-1.0/180+epsSq*(1.0/2835)))
		return frac, logsinch
	}
	frac = (eps/math.Tanh(eps) - 1) / epsSq
	if eps < 20 {
		logsinch = math.Log(math.Sinh(eps) / eps)
	} else {
		logsinch = eps - math.Log(2*eps)
	}
	return frac, logsinch
}

// fracDeriv is d(frac)/d(eps^2/2).
func (d *Dielectric) fracDeriv(eps float64) float64 {
	if d.Linear {
		return 0
	}
	epsSq := eps * eps
	if eps < 0.1 {
		return -2.0/45 + epsSq*(8.0/945+epsSq*(-6.0/4725))
	}
	r := eps / math.Sinh(eps)
	return (2 - eps/math.Tanh(eps) - r*r) / (epsSq * epsSq)
}

type dielectricTerms struct {
	F, F_epsSqHlf           float64
	ChiEff, ChiEff_epsSqHlf float64
}

// compute returns the free energy per unit shape and the effective
// susceptibility as functions of epsSqHlf = |eps|^2/2.
func (d *Dielectric) compute(epsSqHlf float64) dielectricTerms {
	eps := math.Sqrt(2 * epsSqHlf)
	frac, logsinch := d.calcFunctions(eps)
	frac_epsSqHlf := d.fracDeriv(eps)
	screen := 1 - d.Alpha*frac
	epsSq := eps * eps
	return dielectricTerms{
		F:               d.NT * (epsSq*(frac-0.5*d.Alpha*frac*frac+0.5*d.X*screen*screen) - logsinch),
		F_epsSqHlf:      d.NT * (frac + d.X*screen + epsSq*frac_epsSqHlf*(1-d.X*d.Alpha)) * screen,
		ChiEff:          d.Np * (frac + d.X*screen),
		ChiEff_epsSqHlf: d.Np * frac_epsSqHlf * (1 - d.X*d.Alpha),
	}
}

func vecDot(v VectorField, w VectorField, i int) float64 {
	return v[0][i]*w[0][i] + v[1][i]*w[1][i] + v[2][i]*w[2][i]
}

// FreeEnergyState evaluates the dielectric free energy density A and
// polarization p for the effective field state eps, accumulating
// derivatives into AEps and As (As may be nil).
func (d *Dielectric) FreeEnergyState(eps VectorField, s ScalarField, p VectorField, A ScalarField, AEps VectorField, As ScalarField) {
	parallelFor(len(s), func(start, end int) {
		for i := start; i < end; i++ {
			t := d.compute(0.5 * vecDot(eps, eps, i))
			for c := 0; c < 3; c++ {
				p[c][i] = t.ChiEff * s[i] * eps[c][i]
				AEps[c][i] += t.F_epsSqHlf * s[i] * eps[c][i]
			}
			A[i] = t.F * s[i]
			if As != nil {
				As[i] += t.F
			}
		}
	})
}

// ConvertDerivative propagates a gradient with respect to the polarization
// back to eps and the shape.
func (d *Dielectric) ConvertDerivative(eps VectorField, s ScalarField, Ap, AEps VectorField, As ScalarField) {
	parallelFor(len(s), func(start, end int) {
		for i := start; i < end; i++ {
			t := d.compute(0.5 * vecDot(eps, eps, i))
			ApDotEps := vecDot(Ap, eps, i)
			for c := 0; c < 3; c++ {
				AEps[c][i] += s[i] * (t.ChiEff*Ap[c][i] + t.ChiEff_epsSqHlf*eps[c][i]*ApDotEps)
			}
			if As != nil {
				As[i] += t.ChiEff * ApDotEps
			}
		}
	})
}

// XFromEps is the magnitude of the reduced electric field that equilibrates
// the effective field eps.
func (d *Dielectric) XFromEps(eps float64) float64 {
	frac, _ := d.calcFunctions(eps)
	return eps * (1 - d.Alpha*frac)
}

// EpsFromX inverts XFromEps by bracketing and bisection.
func (d *Dielectric) EpsFromX(x float64) (float64, error) {
	if x == 0 {
		return 0, nil
	}
	epsLo := x
	for n := 0; d.XFromEps(epsLo) > x; n++ {
		if n == maxBracketSteps {
			return 0, fmt.Errorf("%w: no lower eps bound at x = %g", ErrBracket, x)
		}
		epsLo *= 0.95
	}
	epsHi := epsLo
	for n := 0; d.XFromEps(epsHi) < x; n++ {
		if n == maxBracketSteps {
			return 0, fmt.Errorf("%w: no upper eps bound at x = %g", ErrBracket, x)
		}
		epsHi *= 1.05
	}
	eps := 0.5 * (epsHi + epsLo)
	deps := eps * 1e-13
	for epsHi-epsLo > deps {
		eps = 0.5 * (epsHi + epsLo)
		if d.XFromEps(eps) > x {
			epsHi = eps
		} else {
			epsLo = eps
		}
	}
	return 0.5 * (epsHi + epsLo), nil
}

// dEpsdX is the slope of EpsFromX, the inverse of XFromEps'.
func (d *Dielectric) dEpsdX(eps float64) float64 {
	frac, _ := d.calcFunctions(eps)
	// d(eps*frac)/d(eps)
	L_eps := frac + eps*eps*d.fracDeriv(eps)
	return 1 / (1 - d.Alpha*L_eps)
}

// GLookup tabulates g = eps/x against xMapped = x/(1+x) in [0,1].
func (d *Dielectric) GLookup() (*LookupTable, error) {
	key := tableKey{kind: "g", params: [4]float64{d.Alpha, d.X, boolParam(d.Linear)}}
	return cachedTable(key, func() (*LookupTable, error) {
		dxMapped := 1.0 / lookupSteps
		samples := make([]float64, lookupSteps+1)
		derivs := make([]float64, len(samples))
		gLinear := 1 / (1 - d.Alpha/3)
		for i := range samples {
			switch {
			case d.Linear || i == 0:
				samples[i] = gLinear
			case i == lookupSteps:
				samples[i] = 1
				derivs[i] = -d.Alpha
			default:
				xMapped := float64(i) * dxMapped
				x := xMapped / (1 - xMapped)
				eps, err := d.EpsFromX(x)
				if err != nil {
					return nil, err
				}
				samples[i] = eps / x
				x_xMapped := 1 / ((1 - xMapped) * (1 - xMapped))
				derivs[i] = (d.dEpsdX(eps)*x - eps) / (x * x) * x_xMapped
			}
		}
		return NewLookupTable(0, dxMapped, samples, derivs)
	})
}

// EnergyLookup tabulates the equilibrium free energy density divided by x^2
// against xMapped = x/(1+x), where x = p|E|/T.
func (d *Dielectric) EnergyLookup() (*LookupTable, error) {
	key := tableKey{kind: "dielEnergy", params: [4]float64{d.Alpha, d.X, boolParam(d.Linear), d.NT}}
	return cachedTable(key, func() (*LookupTable, error) {
		dxMapped := 1.0 / lookupSteps
		samples := make([]float64, lookupSteps+1)
		derivs := make([]float64, len(samples))
		linearLimit := d.NT * (1/(6*(1-d.Alpha/3)) + 0.5*d.X)
		for i := range samples {
			switch {
			case d.Linear || i == 0:
				samples[i] = linearLimit
			case i == lookupSteps:
				samples[i] = d.NT * 0.5 * d.X
				derivs[i] = -d.NT
			default:
				xMapped := float64(i) * dxMapped
				x := xMapped / (1 - xMapped)
				eps, err := d.EpsFromX(x)
				if err != nil {
					return nil, err
				}
				frac, logsinch := d.calcFunctions(eps)
				epsFrac := eps * frac
				h := logsinch - 0.5*d.Alpha*epsFrac*epsFrac + 0.5*d.X*x*x
				h_x := epsFrac + d.X*x
				samples[i] = d.NT * h / (x * x)
				x_xMapped := 1 / ((1 - xMapped) * (1 - xMapped))
				derivs[i] = d.NT * (h_x - 2*h/x) / (x * x) * x_xMapped
			}
		}
		return NewLookupTable(0, dxMapped, samples, derivs)
	})
}

func boolParam(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Apply evaluates the equilibrium electrostatic plus dielectric energy density
// for the field Dphi = grad(phi), and overwrites Dphi with the corresponding
// displacement field D/(4 pi) = dA/d(grad phi).
func (d *Dielectric) Apply(energyLookup *LookupTable, s ScalarField, Dphi VectorField, A ScalarField) {
	parallelFor(len(s), func(start, end int) {
		for i := start; i < end; i++ {
			Esq := vecDot(Dphi, Dphi, i)
			x := d.PByT * math.Sqrt(Esq)
			inv := 1 / (1 + x)
			xMapped := x * inv
			energyByXSq := energyLookup.Value(xMapped)
			energy := energyByXSq * x * x
			energy_EByE := (energyLookup.Deriv(xMapped)*xMapped*inv + 2*energyByXSq) * d.PByT * d.PByT
			A[i] = Esq/(8*math.Pi) + s[i]*energy
			scale := 1/(4*math.Pi) + s[i]*energy_EByE
			for c := 0; c < 3; c++ {
				Dphi[c][i] *= scale
			}
		}
	})
}

// FreeEnergy evaluates the dielectric free energy density at equilibrium with
// the field Dphi = grad(phi). The polarization is written to p when non-nil;
// As accumulates the shape derivative including the field coupling p.Dphi.
func (d *Dielectric) FreeEnergy(gLookup *LookupTable, s ScalarField, Dphi VectorField, A, As ScalarField, p VectorField) {
	parallelFor(len(s), func(start, end int) {
		for i := start; i < end; i++ {
			Esq := vecDot(Dphi, Dphi, i)
			x := d.PByT * math.Sqrt(Esq)
			g := gLookup.Value(x / (1 + x))
			eps := x * g
			frac, logsinch := d.calcFunctions(eps)
			screen := 1 - d.Alpha*frac
			F := d.NT * (eps*eps*(frac-0.5*d.Alpha*frac*frac+0.5*d.X*screen*screen) - logsinch)
			chi := -d.PByT * g * d.Np * (frac + d.X*screen)
			A[i] = F * s[i]
			if As != nil {
				As[i] += F + chi*Esq
			}
			if p[0] != nil {
				for c := 0; c < 3; c++ {
					p[c][i] = chi * s[i] * Dphi[c][i]
				}
			}
		}
	})
}

// PhiToState derives the dielectric response to the field Dphi = grad(phi).
// With setState the equilibrium effective field is written to eps;
// otherwise the local dielectric constant is written to epsilon.
func (d *Dielectric) PhiToState(Dphi VectorField, s ScalarField, gLookup *LookupTable, setState bool, eps VectorField, epsilon ScalarField) {
	parallelFor(len(s), func(start, end int) {
		for i := start; i < end; i++ {
			x := d.PByT * math.Sqrt(vecDot(Dphi, Dphi, i))
			g := gLookup.Value(x / (1 + x))
			if setState {
				for c := 0; c < 3; c++ {
					eps[c][i] = -d.PByT * g * Dphi[c][i]
				}
				continue
			}
			frac, _ := d.calcFunctions(x * g)
			screen := 1 - d.Alpha*frac
			chiEff := d.Np * (frac + d.X*screen)
			epsilon[i] = 1 + 4*math.Pi*s[i]*chiEff*d.PByT*g
		}
	})
}
