// gradients.go --  This file is part of goPCM project.
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

	"gonum.org/v1/gonum/mat"
)

// Gradients requests derivatives of the fluid free energy from the final
// pass. Every non-nil field is accumulated into, never overwritten.
type Gradients struct {
	RhoExplicitTilde ScalarFieldTilde // w.r.t. the explicit charge
	NCavityTilde     ScalarFieldTilde // w.r.t. the cavity density
	Shape            ScalarField      // w.r.t. the cavity shape
	Stress           *mat.SymDense    // w.r.t. symmetric lattice strain

	// Sites and Forces go together: Forces[i] receives the force on Sites[i].
	Sites  []ChargeSite
	Forces [][3]float64
}

// AdielAndGrad evaluates the free energy of the converged state once more and
// accumulates the requested gradients. Forces include the cavity response
// only when the shape was computed from a cavity density.
func (pcm *NonlinearPCM) AdielAndGrad(out *Gradients) (float64, error) {
	g := pcm.grid
	needShape := out.Shape != nil || out.NCavityTilde != nil || (out.Forces != nil && pcm.nCavity != nil)
	if out.NCavityTilde != nil && pcm.nCavity == nil {
		return 0, ErrNoCavityDensity
	}
	aux := &evalAux{}
	if needShape {
		aux.AShape = g.NewScalarField()
	}
	E := pcm.evaluate(pcm.State, nil, aux)

	ARhoT := aux.phiFluidT.Clone()
	ARhoT[0] = complex(aux.AQexp, 0)
	if out.RhoExplicitTilde != nil {
		out.RhoExplicitTilde.Add(ARhoT)
	}
	if out.Shape != nil {
		for i := range out.Shape {
			out.Shape[i] += aux.AShape[i]
		}
	}
	var ANCavityT ScalarFieldTilde
	if pcm.nCavity != nil && needShape {
		An := g.NewScalarField()
		PropagateShapeGradient(pcm.nCavity, aux.AShape, An, pcm.fsp.Nc, pcm.fsp.Sigma)
		ANCavityT = g.ToReciprocal(An)
		if out.NCavityTilde != nil {
			out.NCavityTilde.Add(ANCavityT)
		}
	}
	if out.Forces != nil {
		for k, site := range out.Sites {
			F := g.siteForce(ARhoT, site.Charge, site.Width, site.Pos)
			if ANCavityT != nil {
				Fn := g.siteForce(ANCavityT, site.Electrons, site.CavityWidth, site.Pos)
				for c := range F {
					F[c] += Fn[c]
				}
			}
			for c := range F {
				out.Forces[k][c] += F[c]
			}
		}
	}
	if out.Stress != nil {
		out.Stress.AddSym(out.Stress, pcm.stress(aux))
	}
	return E, nil
}

// stress is the derivative of the free energy with respect to symmetric
// lattice strain at fixed per-point state, shape and explicit charge.
func (pcm *NonlinearPCM) stress(aux *evalAux) *mat.SymDense {
	g := pcm.grid
	var sigma [3][3]float64
	local := pcm.Adiel["Akappa"] + pcm.Adiel["Aeps"] + pcm.Adiel["Coulomb"]
	for a := 0; a < 3; a++ {
		sigma[a][a] += local
	}

	rhoTotT := aux.rhoFluidT.Clone()
	rhoTotT.Add(pcm.rhoExplicitT)
	for i := 1; i < g.NR; i++ {
		rt, re := rhoTotT[i], pcm.rhoExplicitT[i]
		w := g.Omega * 4 * math.Pi * (real(rt)*real(rt) + imag(rt)*imag(rt) - real(re)*real(re) - imag(re)*imag(re)) / (g.GSq[i] * g.GSq[i])
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				sigma[a][b] += w * g.G[a][i] * g.G[b][i]
			}
		}
	}

	phiTotT := aux.phiFluidT.Clone()
	phiTotT.Add(aux.phiExplicitT)
	Dphi := g.Gradient(phiTotT)
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			sigma[a][b] -= g.Dot(aux.p[a], Dphi[b])
		}
	}

	out := mat.NewSymDense(3, nil)
	for a := 0; a < 3; a++ {
		for b := a; b < 3; b++ {
			out.SetSym(a, b, 0.5*(sigma[a][b]+sigma[b][a]))
		}
	}
	return out
}
