// npcm.go --  This file is part of goPCM project.
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
	"time"

	"gonum.org/v1/gonum/floats"
)

// NonlinearPCM is the nonlinear continuum solvation model: a saturating
// dielectric and an optional electrolyte, both confined by a cavity shape,
// responding to a fixed explicit charge. It can be solved either by direct
// minimization of its free energy over State or by a Pulay-accelerated
// Gummel iteration over the electrostatic potential.
type NonlinearPCM struct {
	*NonlinearCommon
	fsp  FluidSolverParams
	grid *Grid

	State State

	linearPCM    *LinearPCM
	pulay        *Pulay
	ionKernel    []float64
	pulayMetric  []float64
	shape        ScalarField
	nCavity      ScalarField // nil when the shape was set directly
	rhoExplicitT ScalarFieldTilde

	// Adiel holds the components of the last evaluated free energy.
	Adiel EnergyComponents
}

// New validates fsp and builds a solver on grid with a zero state.
func New(grid *Grid, fsp FluidSolverParams) (*NonlinearPCM, error) {
	if err := fsp.Validate(); err != nil {
		return nil, err
	}
	common, err := newNonlinearCommon(&fsp)
	if err != nil {
		return nil, err
	}
	pcm := &NonlinearPCM{
		NonlinearCommon: common,
		fsp:             fsp,
		grid:            grid,
		State:           NewState(grid.NR),
		linearPCM:       newLinearPCM(grid, fsp.EpsBulk, common.K2factor, fsp.Linear),
		pulay:           NewPulay(fsp.Pulay),
		ionKernel:       common.ionKernel(grid),
		pulayMetric:     make([]float64, grid.NR),
		Adiel:           EnergyComponents{},
	}
	qMetricSq := fsp.Pulay.QMetric * fsp.Pulay.QMetric
	pcm.pulayMetric[0] = 1
	for i := 1; i < grid.NR; i++ {
		pcm.pulayMetric[i] = grid.GSq[i] / (grid.GSq[i] + qMetricSq)
	}
	return pcm, nil
}

func (pcm *NonlinearPCM) Grid() *Grid { return pcm.grid }

// PrefersGummel reports the method used by MethodAuto.
func (pcm *NonlinearPCM) PrefersGummel() bool { return true }

// Set supplies the explicit charge and the cavity-determining density.
func (pcm *NonlinearPCM) Set(rhoExplicitTilde, nCavityTilde ScalarFieldTilde) {
	pcm.nCavity = pcm.grid.ToReal(nCavityTilde)
	shape := pcm.grid.NewScalarField()
	ComputeShape(pcm.nCavity, shape, pcm.fsp.Nc, pcm.fsp.Sigma)
	pcm.setInternal(rhoExplicitTilde, shape)
}

// SetShape supplies the explicit charge and the cavity shape directly.
func (pcm *NonlinearPCM) SetShape(rhoExplicitTilde ScalarFieldTilde, shape ScalarField) {
	pcm.nCavity = nil
	pcm.setInternal(rhoExplicitTilde, shape.Clone())
}

func (pcm *NonlinearPCM) setInternal(rhoExplicitTilde ScalarFieldTilde, shape ScalarField) {
	pcm.rhoExplicitT = rhoExplicitTilde.Clone()
	pcm.shape = shape
	pcm.linearPCM.SetInternal(pcm.rhoExplicitT, shape)
	pcm.pulay.Reset()

	if !pcm.State.IsZero() {
		// warm start: the potential follows from the stored state
		pcm.phiFromState()
		return
	}
	InfoLogger.Println("Initializing nonlinear fluid state from a linear solve.")
	pcm.linearPCM.Solve()
	phi := pcm.linearPCM.Phi
	if sc := pcm.Screening; sc != nil && sc.Linear {
		muPlus := pcm.State.MuPlus()
		for i := range phi {
			muPlus[i] = -sc.ZbyT * phi[i]
		}
		mean := muPlus.Mean()
		for i := range muPlus {
			muPlus[i] -= mean
		}
		copy(pcm.State.MuMinus(), muPlus)
	}
	Dphi := pcm.grid.Gradient(pcm.grid.ToReciprocal(phi))
	pcm.Dielectric.PhiToState(Dphi, shape, pcm.GLookup, true, pcm.State.Eps(), nil)
}

// evalAux carries intermediate fields of an evaluation to the final pass.
type evalAux struct {
	AShape ScalarField // filled when non-nil on entry
	AQexp  float64

	rhoFluidT, phiFluidT, phiExplicitT ScalarFieldTilde
	p                                  VectorField
}

// evaluate returns the free energy of state. When AState is non-nil it
// receives the gradient with respect to the state values (functional
// derivative times dV).
func (pcm *NonlinearPCM) evaluate(state State, AState *State, aux *evalAux) float64 {
	g := pcm.grid
	s := pcm.shape
	Adiel := EnergyComponents{}
	var AShape ScalarField
	if aux != nil {
		AShape = aux.AShape
	}

	rhoFluidT := make(ScalarFieldTilde, g.NR)
	AMuPlus, AMuMinus := g.NewScalarField(), g.NewScalarField()
	muPlus, muMinus := state.MuPlus(), state.MuMinus()
	A := g.NewScalarField()
	var mu0, Qexp float64
	sc := pcm.Screening
	if sc != nil {
		Qexp = g.Omega * real(pcm.rhoExplicitT[0])
		mu0 = sc.NeutralityConstraint(g, muPlus, muMinus, s, Qexp, nil)
		rhoIon := g.NewScalarField()
		sc.FreeEnergy(mu0, muPlus, muMinus, s, rhoIon, A, AMuPlus, AMuMinus, AShape)
		Adiel["Akappa"] = g.Integral(A)
		rhoFluidT.Add(g.ToReciprocal(rhoIon))
	}

	eps := state.Eps()
	p := g.NewVectorField()
	AEps := g.NewVectorField()
	pcm.Dielectric.FreeEnergyState(eps, s, p, A, AEps, AShape)
	Adiel["Aeps"] = g.Integral(A)
	divP := g.Divergence(p)
	for i := range rhoFluidT {
		rhoFluidT[i] -= divP[i]
	}

	phiFluidT := g.Coulomb(rhoFluidT)
	phiExplicitT := g.Coulomb(pcm.rhoExplicitT)
	phiTotT := make(ScalarFieldTilde, g.NR)
	for i := range phiTotT {
		phiTotT[i] = 0.5*phiFluidT[i] + phiExplicitT[i]
	}
	Adiel["Coulomb"] = g.DotTilde(rhoFluidT, phiTotT)
	for i := range phiTotT {
		phiTotT[i] = phiFluidT[i] + phiExplicitT[i]
	}

	if sc != nil {
		ARhoIon := g.ToReal(phiTotT)
		sc.ConvertDerivative(mu0, muPlus, muMinus, s, ARhoIon, AMuPlus, AMuMinus, AShape)
		// mu0 shifts every point, so its derivative is the total ion gradient
		AMu0 := g.Integral(AMuPlus) + g.Integral(AMuMinus)
		var d NeutralityDerivs
		sc.NeutralityConstraint(g, muPlus, muMinus, s, Qexp, &d)
		floats.AddScaled(AMuPlus, AMu0, d.MuPlus)
		floats.AddScaled(AMuMinus, AMu0, d.MuMinus)
		if AShape != nil {
			floats.AddScaled(AShape, AMu0, d.Shape)
		}
		if aux != nil {
			aux.AQexp = AMu0 * d.Qexp
		}
	}
	Ap := g.Gradient(phiTotT)
	pcm.Dielectric.ConvertDerivative(eps, s, Ap, AEps, AShape)

	if AState != nil {
		out := State{AMuPlus, AMuMinus, AEps[0], AEps[1], AEps[2]}
		for k := range out {
			floats.Scale(g.DV, out[k])
		}
		*AState = out
	}
	if aux != nil {
		aux.rhoFluidT = rhoFluidT
		aux.phiFluidT = phiFluidT
		aux.phiExplicitT = phiExplicitT
		aux.p = p
	}
	pcm.Adiel = Adiel
	return Adiel.Total()
}

// Energy evaluates the free energy of the current state.
func (pcm *NonlinearPCM) Energy() float64 {
	return pcm.evaluate(pcm.State, nil, nil)
}

// Step implements Minimizable.
func (pcm *NonlinearPCM) Step(dir State, alpha float64) {
	pcm.State.Axpy(alpha, dir)
}

// Compute implements Minimizable.
func (pcm *NonlinearPCM) Compute(grad, Kgrad *State) float64 {
	var local State
	if grad == nil {
		grad = &local
	}
	E := pcm.evaluate(pcm.State, grad, nil)
	if Kgrad != nil {
		*Kgrad = pcm.precondition(*grad)
	}
	return E
}

func (pcm *NonlinearPCM) precondition(grad State) State {
	g := pcm.grid
	var Kgrad State
	ionPrefac := 0.0
	if pcm.Screening != nil {
		ionPrefac = 1 / (g.DV * pcm.Screening.NT)
	}
	for _, k := range []int{ChannelMuPlus, ChannelMuMinus} {
		Kgrad[k] = g.ToReal(g.ToReciprocal(grad[k]).ApplyKernel(pcm.ionKernel))
		floats.Scale(ionPrefac, Kgrad[k])
	}
	// Longitudinal polarization also carries the Coulomb stiffness, which
	// is epsBulk-1 times the local one in bulk.
	var gradT [3]ScalarFieldTilde
	for c := range gradT {
		gradT[c] = g.ToReciprocal(grad[ChannelEpsX+c])
	}
	damp := complex(1-1/pcm.EpsBulk, 0)
	for i := 1; i < g.NR; i++ {
		if g.nyquist[i] {
			continue
		}
		GdotE := complex(0, 0)
		for c := range gradT {
			GdotE += complex(g.G[c][i], 0) * gradT[c][i]
		}
		GdotE *= damp / complex(g.GSq[i], 0)
		for c := range gradT {
			gradT[c][i] -= GdotE * complex(g.G[c][i], 0)
		}
	}
	dielPrefac := 1 / (g.DV * pcm.Dielectric.NT)
	for c := range gradT {
		Kgrad[ChannelEpsX+c] = g.ToReal(gradT[c])
		floats.Scale(dielPrefac, Kgrad[ChannelEpsX+c])
	}
	return Kgrad
}

// phiToState converts the current potential either into the linear-solve
// profiles (setState false) or into the nonlinear state (setState true).
func (pcm *NonlinearPCM) phiToState(setState bool) {
	if !setState {
		pcm.linearPCM.Override(pcm.profiles())
		return
	}
	g := pcm.grid
	phi := pcm.linearPCM.Phi
	Dphi := g.Gradient(g.ToReciprocal(phi))
	pcm.Dielectric.PhiToState(Dphi, pcm.shape, pcm.GLookup, true, pcm.State.Eps(), nil)
	if sc := pcm.Screening; sc != nil {
		sc.PhiToState(phi, pcm.shape, pcm.XLookup, true, pcm.State.MuPlus(), pcm.State.MuMinus(), nil)
	}
}

// profiles returns the local permittivity and screening (nil without ions)
// in equilibrium with the current potential.
func (pcm *NonlinearPCM) profiles() (epsilon, kappaSq ScalarField) {
	g := pcm.grid
	phi := pcm.linearPCM.Phi
	Dphi := g.Gradient(g.ToReciprocal(phi))
	epsilon = g.NewScalarField()
	pcm.Dielectric.PhiToState(Dphi, pcm.shape, pcm.GLookup, false, VectorField{}, epsilon)
	if sc := pcm.Screening; sc != nil {
		kappaSq = g.NewScalarField()
		sc.PhiToState(phi, pcm.shape, pcm.XLookup, false, nil, nil, kappaSq)
	}
	return epsilon, kappaSq
}

// phiFromState sets the potential generated by the explicit charge and the
// fluid charge of the current state. The Coulomb kernel drops the uniform
// offset, which the ion state fixes when ions are present.
func (pcm *NonlinearPCM) phiFromState() {
	g := pcm.grid
	aux := &evalAux{}
	pcm.evaluate(pcm.State, nil, aux)
	phiT := aux.phiFluidT
	phiT.Add(aux.phiExplicitT)
	phi := g.ToReal(phiT)
	if sc := pcm.Screening; sc != nil {
		offset := sc.PotentialOffset(phi, pcm.State.MuPlus(), pcm.State.MuMinus(), pcm.shape)
		for i := range phi {
			phi[i] += offset
		}
	}
	copy(pcm.linearPCM.Phi, phi)
}

// energyFromPhi is the free energy with the fluid in equilibrium with the
// current potential.
func (pcm *NonlinearPCM) energyFromPhi() float64 {
	g := pcm.grid
	s := pcm.shape
	Adiel := EnergyComponents{}
	A := g.NewScalarField()
	rhoFluidT := make(ScalarFieldTilde, g.NR)
	if sc := pcm.Screening; sc != nil {
		Qexp := g.Omega * real(pcm.rhoExplicitT[0])
		mu0 := sc.NeutralityConstraint(g, pcm.State.MuPlus(), pcm.State.MuMinus(), s, Qexp, nil)
		rhoIon := g.NewScalarField()
		sc.FreeEnergy(mu0, pcm.State.MuPlus(), pcm.State.MuMinus(), s, rhoIon, A, nil, nil, nil)
		Adiel["Akappa"] = g.Integral(A)
		rhoFluidT.Add(g.ToReciprocal(rhoIon))
	}
	Dphi := g.Gradient(g.ToReciprocal(pcm.linearPCM.Phi))
	p := g.NewVectorField()
	pcm.Dielectric.FreeEnergy(pcm.GLookup, s, Dphi, A, nil, p)
	Adiel["Aeps"] = g.Integral(A)
	divP := g.Divergence(p)
	phiExplicitT := g.Coulomb(pcm.rhoExplicitT)
	for i := range rhoFluidT {
		rhoFluidT[i] -= divP[i]
	}
	phiFluidT := g.Coulomb(rhoFluidT)
	for i := range phiFluidT {
		phiFluidT[i] = 0.5*phiFluidT[i] + phiExplicitT[i]
	}
	Adiel["Coulomb"] = g.DotTilde(rhoFluidT, phiFluidT)
	pcm.Adiel = Adiel
	return Adiel.Total()
}

// poissonResidual is the RMS charge imbalance of the nonlinear Poisson
// equation for the current potential and ion state.
func (pcm *NonlinearPCM) poissonResidual() float64 {
	g := pcm.grid
	D := g.Gradient(g.ToReciprocal(pcm.linearPCM.Phi))
	A := g.NewScalarField()
	pcm.Dielectric.Apply(pcm.EnergyLookup, pcm.shape, D, A)
	residualT := g.Divergence(D)
	residualT.Add(pcm.rhoExplicitT)
	if sc := pcm.Screening; sc != nil {
		Qexp := g.Omega * real(pcm.rhoExplicitT[0])
		mu0 := sc.NeutralityConstraint(g, pcm.State.MuPlus(), pcm.State.MuMinus(), pcm.shape, Qexp, nil)
		rhoIon := g.NewScalarField()
		sc.FreeEnergy(mu0, pcm.State.MuPlus(), pcm.State.MuMinus(), pcm.shape, rhoIon, A, nil, nil, nil)
		residualT.Add(g.ToReciprocal(rhoIon))
	}
	return rms(g.ToReal(residualT))
}

// Cycle implements Pulayable: one Gummel step.
func (pcm *NonlinearPCM) Cycle(dEprev float64) (float64, []float64) {
	pcm.phiToState(false)
	pcm.linearPCM.Solve()
	pcm.phiToState(true)
	E := pcm.energyFromPhi()
	return E, []float64{pcm.poissonResidual()}
}

// Variable implements Pulayable; the potential is shared, not copied.
func (pcm *NonlinearPCM) Variable() ScalarField {
	return pcm.linearPCM.Phi
}

func (pcm *NonlinearPCM) SetVariable(v ScalarField) {
	copy(pcm.linearPCM.Phi, v)
}

// ApplyMetric damps long-wavelength potential residuals by G^2/(G^2+q^2).
func (pcm *NonlinearPCM) ApplyMetric(r ScalarField) ScalarField {
	g := pcm.grid
	return g.ToReal(g.ToReciprocal(r).ApplyKernel(pcm.pulayMetric))
}

// Result summarizes a solve.
type Result struct {
	Method     SolverMethod
	Energy     float64
	Iterations int
	Converged  bool
	Energies   []float64
	Residuals  []float64
	Components EnergyComponents
}

// Solve converges the state for the current explicit charge and shape with
// the configured method. Non-convergence is reported in the result and the
// best state found is kept.
func (pcm *NonlinearPCM) Solve() (Result, error) {
	if pcm.shape == nil {
		return Result{}, fmt.Errorf("%w: Solve called before Set", ErrInvalidParams)
	}
	method := pcm.fsp.Method
	if method == MethodAuto {
		method = MethodMinimize
		if pcm.PrefersGummel() {
			method = MethodGummel
		}
	}
	tstart := time.Now()
	res := Result{Method: method}
	printOutputDelimiter()
	OutputLogger.Printf("Nonlinear fluid solve using %s.", method)
	switch method {
	case MethodGummel:
		pr := pcm.pulay.Minimize(pcm, pcm.Energy())
		res.Iterations, res.Converged, res.Energies = pr.Cycles, pr.Converged, pr.Energies
		for _, extra := range pr.Extra {
			res.Residuals = append(res.Residuals, extra[0])
		}
	default:
		mr := Minimize(pcm, pcm.fsp.Minimize)
		res.Iterations, res.Converged, res.Energies = mr.Iterations, mr.Converged, mr.Energies
		pcm.phiFromState()
	}
	res.Energy = pcm.Energy()
	if math.IsNaN(res.Energy) {
		return res, fmt.Errorf("fluid free energy is NaN after %d iterations", res.Iterations)
	}
	res.Components = pcm.Adiel
	OutputLogger.Println("Fluid free energy components:")
	pcm.Adiel.Print(OutputLogger)
	OutputLogger.Println("Time for nonlinear fluid solve:", time.Since(tstart).Round(time.Millisecond))
	printOutputDelimiter()
	return res, nil
}
