// params.go --  This file is part of goPCM project.
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
	"strings"
)

// SolverMethod selects how the nonlinear fluid equations are solved.
type SolverMethod int

const (
	// MethodAuto lets the solver pick its preferred method.
	MethodAuto SolverMethod = iota
	// MethodGummel mixes the potential between linearized solves.
	MethodGummel
	// MethodMinimize runs conjugate gradients on the full state.
	MethodMinimize
)

func (m SolverMethod) String() string {
	switch m {
	case MethodGummel:
		return "gummel"
	case MethodMinimize:
		return "minimize"
	}
	return "auto"
}

// ParseSolverMethod accepts auto, gummel (or pulay) and minimize (or cg).
func ParseSolverMethod(s string) (SolverMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return MethodAuto, nil
	case "gummel", "pulay":
		return MethodGummel, nil
	case "minimize", "cg":
		return MethodMinimize, nil
	}
	return MethodAuto, fmt.Errorf("%w: unknown solver method %q", ErrInvalidParams, s)
}

type MinimizeParams struct {
	NIterations         int
	EnergyDiffThreshold float64
	KnormThreshold      float64
	InitialStep         float64
}

type PulayParams struct {
	NIterations         int
	History             int
	MixFraction         float64
	EnergyDiffThreshold float64
	ResidualThreshold   float64 // RMS of the potential residual, 0 to ignore
	QMetric             float64 // wavevector below which residuals are damped
}

type LinearSolveParams struct {
	NIterations int
	Tolerance   float64 // relative residual
}

// FluidSolverParams collects the physical and numerical parameters of the fluid.
type FluidSolverParams struct {
	T float64 // temperature (Hartree)

	EpsBulk, EpsInf  float64
	Nmol             float64 // solvent molecule density (bohr^-3)
	PMol             float64 // solvent molecule dipole (e*bohr)
	LinearDielectric bool

	IonNbulk        float64 // per-species bulk ion density (bohr^-3), 0 for no ions
	IonZ            float64
	IonRPlus        float64 // hard-sphere radii (bohr)
	IonRMinus       float64
	LinearScreening bool

	Nc, Sigma float64 // cavity density threshold and width

	Method   SolverMethod
	Minimize MinimizeParams
	Pulay    PulayParams
	Linear   LinearSolveParams
}

// DefaultParams describes water at room temperature without electrolyte.
func DefaultParams() FluidSolverParams {
	return FluidSolverParams{
		T:         298 * Kelvin,
		EpsBulk:   78.4,
		EpsInf:    1.77,
		Nmol:      4.9383e-3,
		PMol:      0.92466,
		IonZ:      1,
		IonRPlus:  1.16 * Angstrom,
		IonRMinus: 1.67 * Angstrom,
		Nc:        1e-3,
		Sigma:     0.6,
		Method:    MethodAuto,
		Minimize: MinimizeParams{
			NIterations:         200,
			EnergyDiffThreshold: 1e-8,
			KnormThreshold:      1e-11,
			InitialStep:         1,
		},
		Pulay: PulayParams{
			NIterations:         50,
			History:             10,
			MixFraction:         0.5,
			EnergyDiffThreshold: 1e-8,
			QMetric:             0.8,
		},
		Linear: LinearSolveParams{
			NIterations: 500,
			Tolerance:   1e-10,
		},
	}
}

// HasIons reports whether an electrolyte is present.
func (fsp *FluidSolverParams) HasIons() bool {
	return fsp.IonNbulk > 0
}

func sphereVolume(r float64) float64 {
	return 4 * math.Pi / 3 * r * r * r
}

// Validate checks the parameter set for obvious inconsistencies. The
// constitutive constructors perform the physics checks.
func (fsp *FluidSolverParams) Validate() error {
	switch {
	case fsp.T <= 0:
		return fmt.Errorf("%w: temperature must be positive", ErrInvalidParams)
	case fsp.Nc <= 0 || fsp.Sigma <= 0:
		return fmt.Errorf("%w: cavity nc and sigma must be positive", ErrInvalidParams)
	case fsp.IonNbulk < 0:
		return fmt.Errorf("%w: negative ion concentration", ErrInvalidParams)
	case fsp.IonRPlus < 0 || fsp.IonRMinus < 0:
		return fmt.Errorf("%w: negative ion radius", ErrInvalidParams)
	case fsp.Minimize.NIterations < 0 || fsp.Pulay.NIterations < 0 || fsp.Linear.NIterations < 1:
		return fmt.Errorf("%w: iteration limits must be non-negative", ErrInvalidParams)
	case fsp.Pulay.History < 1:
		return fmt.Errorf("%w: Pulay history must be at least 1", ErrInvalidParams)
	case fsp.Pulay.MixFraction <= 0 || fsp.Pulay.MixFraction > 1:
		return fmt.Errorf("%w: mix fraction must lie in (0,1]", ErrInvalidParams)
	case fsp.Pulay.EnergyDiffThreshold <= 0 && fsp.Pulay.ResidualThreshold <= 0:
		return fmt.Errorf("%w: Pulay needs an energy or residual threshold", ErrInvalidParams)
	case fsp.Pulay.QMetric < 0:
		return fmt.Errorf("%w: negative Pulay metric wavevector", ErrInvalidParams)
	case fsp.Linear.Tolerance <= 0:
		return fmt.Errorf("%w: linear solve tolerance must be positive", ErrInvalidParams)
	case fsp.Minimize.InitialStep <= 0:
		return fmt.Errorf("%w: initial line-search step must be positive", ErrInvalidParams)
	}
	return nil
}
