// minimize.go --  This file is part of goPCM project.
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

	"gonum.org/v1/gonum/optimize"
)

// Minimizable is an objective over a State that can be moved along a
// direction and report its energy, gradient and preconditioned gradient.
type Minimizable interface {
	// Step moves the current state by alpha*dir.
	Step(dir State, alpha float64)
	// Compute returns the energy at the current state and writes the
	// gradient and preconditioned gradient.
	Compute(grad, Kgrad *State) float64
}

// MinimizeResult summarizes an optimization run.
type MinimizeResult struct {
	Energy     float64
	Iterations int
	Converged  bool
	Energies   []float64
}

const maxLineSearchSteps = 20

// Minimize runs Polak-Ribiere nonlinear conjugate gradients with a
// More-Thuente line search, leaving obj at the lowest energy found.
func Minimize(obj Minimizable, mp MinimizeParams) MinimizeResult {
	var grad, Kgrad State
	E := obj.Compute(&grad, &Kgrad)
	res := MinimizeResult{Energy: E, Energies: []float64{E}}

	var dir, KgradPrev State
	gKNormPrev := 0.0
	step := mp.InitialStep
	forceReset := true
	nFailures := 0
	for iter := 0; ; iter++ {
		gKNorm := grad.Dot(Kgrad)
		OutputLogger.Printf("CG %4d: E = %.15g  |grad|_K = %.3e  alpha = %.3e", iter, E, math.Sqrt(math.Abs(gKNorm)), step)
		if gKNorm <= mp.KnormThreshold {
			res.Converged = true
			break
		}
		if iter >= mp.NIterations {
			break
		}
		res.Iterations = iter + 1

		beta := 0.0
		if !forceReset {
			beta = (gKNorm - grad.Dot(KgradPrev)) / gKNormPrev
			if beta < 0 {
				beta = 0
			}
		}
		if forceReset || dir[0] == nil {
			dir = Kgrad.Clone()
			dir.Scale(-1)
		} else {
			dir.Scale(beta)
			dir.Axpy(-1, Kgrad)
		}
		deriv0 := grad.Dot(dir)
		if deriv0 >= 0 {
			// not a descent direction
			dir = Kgrad.Clone()
			dir.Scale(-1)
			deriv0 = -gKNorm
		}
		forceReset = false
		gKNormPrev = gKNorm
		KgradPrev = Kgrad.Clone()

		Eprev := E
		var alpha float64
		var ok bool
		E, alpha, ok = lineSearch(obj, dir, E, deriv0, step, &grad, &Kgrad)
		if !ok {
			nFailures++
			WarningLogger.Printf("CG line search failed at iteration %d; resetting search direction.", iter)
			if nFailures > 1 {
				break
			}
			forceReset = true
			step = mp.InitialStep
			continue
		}
		nFailures = 0
		step = alpha
		res.Energies = append(res.Energies, E)
		if math.Abs(E-Eprev) < mp.EnergyDiffThreshold {
			res.Converged = true
			break
		}
	}
	res.Energy = E
	if !res.Converged {
		WarningLogger.Printf("Warning! CG NOT converged after step %d", res.Iterations)
		OutputLogger.Println("Warning! CG NOT converged after step ", res.Iterations)
	}
	return res
}

// lineSearch moves obj along dir until the strong Wolfe conditions hold.
// On failure the state is returned to its starting point.
func lineSearch(obj Minimizable, dir State, E0, deriv0, step float64, grad, Kgrad *State) (E, alpha float64, ok bool) {
	ls := &optimize.MoreThuente{DecreaseFactor: 1e-4, CurvatureFactor: 0.1}
	ls.Init(E0, deriv0, step)
	alphaPrev := 0.0
	alpha = step
	for n := 0; n < maxLineSearchSteps; n++ {
		obj.Step(dir, alpha-alphaPrev)
		alphaPrev = alpha
		E = obj.Compute(grad, Kgrad)
		if math.IsNaN(E) || math.IsInf(E, 0) {
			break
		}
		op, next, err := ls.Iterate(E, grad.Dot(dir))
		if err != nil {
			break
		}
		if op == optimize.MajorIteration {
			return E, alphaPrev, true
		}
		alpha = next
	}
	obj.Step(dir, -alphaPrev)
	E = obj.Compute(grad, Kgrad)
	return E, 0, false
}
