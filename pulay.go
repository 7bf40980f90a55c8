// pulay.go --  This file is part of goPCM project.
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
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Pulayable is a fixed-point problem x -> cycle(x) over a real field.
type Pulayable interface {
	// Cycle runs one self-consistency cycle from the current variable,
	// updating it, and returns the energy and any extra diagnostics.
	Cycle(dEprev float64) (E float64, extra []float64)
	Variable() ScalarField
	SetVariable(v ScalarField)
	// ApplyMetric returns the metric-weighted copy of a residual.
	ApplyMetric(r ScalarField) ScalarField
}

// PulayResult summarizes a Pulay run.
type PulayResult struct {
	Energy    float64
	Cycles    int
	Converged bool
	Energies  []float64
	Residuals []float64 // RMS residual per cycle
	Extra     [][]float64
}

// Pulay accelerates a fixed-point iteration by direct inversion in the
// iterative subspace of the last History residuals.
type Pulay struct {
	Params PulayParams

	pastVariables []ScalarField
	pastResiduals []ScalarField
	overlap       [][]float64 // metric overlaps of pastResiduals
}

func NewPulay(pp PulayParams) *Pulay {
	return &Pulay{Params: pp}
}

// Reset forgets the history.
func (p *Pulay) Reset() {
	p.pastVariables = nil
	p.pastResiduals = nil
	p.overlap = nil
}

func (p *Pulay) dropOldest() {
	p.pastVariables = p.pastVariables[1:]
	p.pastResiduals = p.pastResiduals[1:]
	p.overlap = p.overlap[1:]
	for i := range p.overlap {
		p.overlap[i] = p.overlap[i][1:]
	}
}

// buildB assembles the bordered overlap matrix of the DIIS equations.
// Overlaps are normalized by the largest diagonal entry so that the
// conditioning does not degrade as the residuals shrink.
func (p *Pulay) buildB() *mat.Dense {
	BDim := len(p.pastResiduals) + 1
	norm := 0.0
	for i := 0; i < BDim-1; i++ {
		norm = math.Max(norm, p.overlap[i][i])
	}
	if norm == 0 {
		norm = 1
	}
	result := mat.NewDense(BDim, BDim, nil)
	for i := 0; i < BDim-1; i++ {
		result.Set(i, BDim-1, -1)
		result.Set(BDim-1, i, -1)
		for j := 0; j < BDim-1; j++ {
			result.Set(i, j, p.overlap[i][j]/norm)
		}
	}
	return result
}

// Minimize iterates prob to self-consistency. Eprev is the energy of the
// starting point.
func (p *Pulay) Minimize(prob Pulayable, Eprev float64) PulayResult {
	pp := p.Params
	res := PulayResult{}
	E := Eprev
	dE := math.Inf(1)
	tstart := time.Now()
	for cycle := 0; cycle < pp.NIterations; cycle++ {
		if len(p.pastResiduals) >= pp.History {
			p.dropOldest()
		}
		Eprev = E
		x := prob.Variable().Clone()
		var extra []float64
		E, extra = prob.Cycle(dE)
		dE = E - Eprev

		residual := prob.Variable().Clone()
		floats.Sub(residual, x)
		dRMS := rms(residual)

		p.pastVariables = append(p.pastVariables, x)
		p.pastResiduals = append(p.pastResiduals, residual)
		Mlast := prob.ApplyMetric(residual)
		n := len(p.pastResiduals)
		row := make([]float64, n)
		for j := 0; j < n; j++ {
			row[j] = floats.Dot(p.pastResiduals[j], Mlast)
			if j < n-1 {
				p.overlap[j] = append(p.overlap[j], row[j])
			}
		}
		p.overlap = append(p.overlap, row)

		res.Cycles = cycle + 1
		res.Energies = append(res.Energies, E)
		res.Residuals = append(res.Residuals, dRMS)
		res.Extra = append(res.Extra, extra)
		tstop := time.Now()
		OutputLogger.Printf("Pulay cycle %3d. Energy = %.15g, dE = %.3e, dRMS = %.3e %v (%v)",
			cycle+1, E, dE, dRMS, extra, tstop.Sub(tstart).Round(time.Millisecond))
		tstart = tstop

		energyOK := pp.EnergyDiffThreshold <= 0 || math.Abs(dE) < pp.EnergyDiffThreshold
		residualOK := pp.ResidualThreshold <= 0 || dRMS < pp.ResidualThreshold
		if energyOK && residualOK {
			OutputLogger.Println("Pulay converged after cycle ", cycle+1)
			res.Converged = true
			break
		}

		prob.SetVariable(p.mix())
	}
	res.Energy = E
	if !res.Converged {
		WarningLogger.Printf("Warning! Pulay NOT converged after cycle %d", res.Cycles)
		OutputLogger.Println("Warning! Pulay NOT converged after cycle ", res.Cycles)
	}
	return res
}

// mix returns the next input from the optimal combination of past
// inputs and residuals, falling back to simple mixing when the DIIS
// equations are singular.
func (p *Pulay) mix() ScalarField {
	mixFraction := p.Params.MixFraction
	n := len(p.pastResiduals)
	bmat := p.buildB()
	rhs := mat.NewVecDense(n+1, nil)
	rhs.SetVec(n, -1)

	var lu mat.LU
	lu.Factorize(bmat)
	var coefs mat.VecDense
	if err := lu.SolveVecTo(&coefs, false, rhs); err != nil {
		WarningLogger.Println("Pulay subspace is singular; restarting with simple mixing.")
		next := p.pastVariables[n-1].Clone()
		floats.AddScaled(next, mixFraction, p.pastResiduals[n-1])
		p.Reset()
		return next
	}
	next := make(ScalarField, len(p.pastVariables[0]))
	for j := 0; j < n; j++ {
		c := coefs.AtVec(j)
		floats.AddScaled(next, c, p.pastVariables[j])
		floats.AddScaled(next, c*mixFraction, p.pastResiduals[j])
	}
	return next
}
