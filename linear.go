// linear.go --  This file is part of goPCM project.
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

	"gonum.org/v1/gonum/floats"
)

// LinearPCM solves the linearized Poisson-Boltzmann equation
//
//	(-div(epsilon grad) + kappaSq) phi = 4 pi rho
//
// for spatially varying epsilon and kappaSq by preconditioned conjugate
// gradients. The nonlinear solver uses it for its initial guess and inside
// each Gummel cycle.
type LinearPCM struct {
	grid   *Grid
	params LinearSolveParams

	epsBulk, k2factor float64

	Epsilon, KappaSq ScalarField
	rhoExplicit      ScalarField
	Phi              ScalarField
}

func newLinearPCM(g *Grid, epsBulk, k2factor float64, params LinearSolveParams) *LinearPCM {
	return &LinearPCM{
		grid:     g,
		params:   params,
		epsBulk:  epsBulk,
		k2factor: k2factor,
		Epsilon:  g.NewScalarField(),
		KappaSq:  g.NewScalarField(),
		Phi:      g.NewScalarField(),
	}
}

// SetInternal sets the explicit charge and the default dielectric and
// screening profiles that follow the shape. Phi is kept as a warm start.
func (l *LinearPCM) SetInternal(rhoExplicitTilde ScalarFieldTilde, shape ScalarField) {
	l.rhoExplicit = l.grid.ToReal(rhoExplicitTilde)
	for i, s := range shape {
		l.Epsilon[i] = 1 + (l.epsBulk-1)*s
		l.KappaSq[i] = l.k2factor * s
	}
}

// Override replaces the dielectric and screening profiles. A nil kappaSq
// switches screening off.
func (l *LinearPCM) Override(epsilon, kappaSq ScalarField) {
	copy(l.Epsilon, epsilon)
	if kappaSq == nil {
		for i := range l.KappaSq {
			l.KappaSq[i] = 0
		}
		return
	}
	copy(l.KappaSq, kappaSq)
}

func (l *LinearPCM) screened() bool {
	return floats.Max(l.KappaSq) > 0
}

// hessian applies the linear operator to phi.
func (l *LinearPCM) hessian(phi ScalarField) ScalarField {
	g := l.grid
	D := g.Gradient(g.ToReciprocal(phi))
	for c := 0; c < 3; c++ {
		floats.Mul(D[c], l.Epsilon)
	}
	out := g.ToReal(g.Divergence(D))
	floats.Scale(-1, out)
	if l.screened() {
		for i := range out {
			out[i] += l.KappaSq[i] * phi[i]
		}
	}
	return out
}

// preconditioner is the inverse of the operator for uniform bulk profiles.
func (l *LinearPCM) preconditioner() []float64 {
	g := l.grid
	epsMean := l.Epsilon.Mean()
	k2Mean := l.KappaSq.Mean()
	kernel := make([]float64, g.NR)
	for i := range kernel {
		GSq := g.GSq[i]
		if g.nyquist[i] {
			GSq = 0
		}
		if den := epsMean*GSq + k2Mean; den > 0 {
			kernel[i] = 1 / den
		}
	}
	return kernel
}

// Solve updates Phi starting from its current value and reports the number
// of iterations and whether the tolerance was met.
func (l *LinearPCM) Solve() (int, bool) {
	g := l.grid
	screened := l.screened()
	b := l.rhoExplicit.Clone()
	if !screened {
		// the uniform and Nyquist modes lie in the kernel of the operator
		bt := g.ToReciprocal(b)
		bt[0] = 0
		for i := range bt {
			if g.nyquist[i] {
				bt[i] = 0
			}
		}
		b = g.ToReal(bt)
	}
	floats.Scale(4*math.Pi, b)
	bNorm := floats.Norm(b, 2)
	if bNorm == 0 {
		for i := range l.Phi {
			l.Phi[i] = 0
		}
		return 0, true
	}
	kernel := l.preconditioner()
	precond := func(r ScalarField) ScalarField {
		return g.ToReal(g.ToReciprocal(r).ApplyKernel(kernel))
	}

	x := l.Phi
	r := l.hessian(x)
	floats.SubTo(r, b, r)
	z := precond(r)
	d := z.Clone()
	rz := floats.Dot(r, z)
	iter := 0
	converged := false
	for ; iter < l.params.NIterations; iter++ {
		if floats.Norm(r, 2) <= l.params.Tolerance*bNorm {
			converged = true
			break
		}
		Ad := l.hessian(d)
		alpha := rz / floats.Dot(d, Ad)
		floats.AddScaled(x, alpha, d)
		floats.AddScaled(r, -alpha, Ad)
		z = precond(r)
		rzNew := floats.Dot(r, z)
		beta := rzNew / rz
		rz = rzNew
		for i := range d {
			d[i] = z[i] + beta*d[i]
		}
	}
	if !converged && floats.Norm(r, 2) <= l.params.Tolerance*bNorm {
		converged = true
	}
	if !screened {
		mean := x.Mean()
		for i := range x {
			x[i] -= mean
		}
	}
	if !converged {
		WarningLogger.Printf("Linear solve NOT converged after %d iterations: |r|/|b| = %.3e",
			iter, floats.Norm(r, 2)/bNorm)
	}
	return iter, converged
}
