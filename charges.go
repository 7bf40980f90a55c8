// charges.go --  This file is part of goPCM project.
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

// ChargeSite is a Gaussian blob of explicit charge together with the
// Gaussian electron cloud that carves out its cavity.
type ChargeSite struct {
	Name        string
	Pos         [3]float64 // Cartesian, bohr
	Charge      float64    // net explicit charge
	Width       float64    // Gaussian width of the charge
	Electrons   float64    // electrons in the cavity density
	CavityWidth float64    // Gaussian width of the cavity density
}

func (site ChargeSite) Validate() error {
	if site.Width <= 0 || site.CavityWidth <= 0 {
		return fmt.Errorf("%w: site %q needs positive Gaussian widths", ErrInvalidParams, site.Name)
	}
	if site.Electrons < 0 {
		return fmt.Errorf("%w: site %q has a negative electron count", ErrInvalidParams, site.Name)
	}
	return nil
}

// addGaussian accumulates the normalized Fourier coefficients of a unit
// Gaussian of width w scaled by q and centred at pos. Nyquist components
// are left out so the result is an exactly real field.
func (g *Grid) addGaussian(out ScalarFieldTilde, q, w float64, pos [3]float64) {
	prefac := q / g.Omega
	for i := range out {
		if g.nyquist[i] {
			continue
		}
		GR := g.G[0][i]*pos[0] + g.G[1][i]*pos[1] + g.G[2][i]*pos[2]
		amp := prefac * math.Exp(-0.5*g.GSq[i]*w*w)
		out[i] += complex(amp*math.Cos(GR), -amp*math.Sin(GR))
	}
}

// ExplicitChargeTilde is the total explicit charge density of sites.
func ExplicitChargeTilde(g *Grid, sites []ChargeSite) ScalarFieldTilde {
	out := make(ScalarFieldTilde, g.NR)
	for _, site := range sites {
		g.addGaussian(out, site.Charge, site.Width, site.Pos)
	}
	return out
}

// CavityDensityTilde is the total cavity-determining electron density of sites.
func CavityDensityTilde(g *Grid, sites []ChargeSite) ScalarFieldTilde {
	out := make(ScalarFieldTilde, g.NR)
	for _, site := range sites {
		g.addGaussian(out, site.Electrons, site.CavityWidth, site.Pos)
	}
	return out
}

// siteForce is minus the derivative of Omega*sum conj(A)*rho_site with
// respect to the site position, for one Gaussian of charge q and width w.
func (g *Grid) siteForce(A ScalarFieldTilde, q, w float64, pos [3]float64) [3]float64 {
	var F [3]float64
	if q == 0 {
		return F
	}
	prefac := q / g.Omega
	for i := range A {
		if g.nyquist[i] {
			continue
		}
		GR := g.G[0][i]*pos[0] + g.G[1][i]*pos[1] + g.G[2][i]*pos[2]
		amp := prefac * math.Exp(-0.5*g.GSq[i]*w*w)
		rho := complex(amp*math.Cos(GR), -amp*math.Sin(GR))
		// Re[conj(A) i rho]
		t := real(A[i])*(-imag(rho)) + imag(A[i])*real(rho)
		for c := 0; c < 3; c++ {
			F[c] += g.G[c][i] * t
		}
	}
	for c := range F {
		F[c] *= g.Omega
	}
	return F
}
