// common.go --  This file is part of goPCM project.
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

import "math"

// NonlinearCommon holds what the nonlinear solver shares between its
// minimization and Gummel modes: the constitutive kernels, their lookup
// tables and the bulk screening constants.
type NonlinearCommon struct {
	Screening  *Screening // nil without electrolyte
	Dielectric *Dielectric

	GLookup      *LookupTable
	EnergyLookup *LookupTable
	XLookup      *LookupTable // nil without nonlinear screening

	EpsBulk  float64
	K2factor float64 // bulk kappa^2, 8 pi N Z^2 / T
	MuByEps  float64 // ratio of ion to dielectric preconditioner scales
}

func newNonlinearCommon(fsp *FluidSolverParams) (*NonlinearCommon, error) {
	c := &NonlinearCommon{EpsBulk: fsp.EpsBulk}
	var err error
	c.Dielectric, err = NewDielectric(fsp.LinearDielectric, fsp.T, fsp.Nmol, fsp.PMol, fsp.EpsBulk, fsp.EpsInf)
	if err != nil {
		return nil, err
	}
	if c.GLookup, err = c.Dielectric.GLookup(); err != nil {
		return nil, err
	}
	if c.EnergyLookup, err = c.Dielectric.EnergyLookup(); err != nil {
		return nil, err
	}
	if !fsp.HasIons() {
		return c, nil
	}
	c.Screening, err = NewScreening(fsp.LinearScreening, fsp.T, fsp.IonNbulk, fsp.IonZ,
		sphereVolume(fsp.IonRPlus), sphereVolume(fsp.IonRMinus), fsp.EpsBulk)
	if err != nil {
		return nil, err
	}
	if !fsp.LinearScreening {
		if c.XLookup, err = c.Screening.XLookup(); err != nil {
			return nil, err
		}
	}
	c.K2factor = 8 * math.Pi * fsp.IonNbulk * fsp.IonZ * fsp.IonZ / fsp.T
	c.MuByEps = (fsp.IonZ / fsp.PMol) * (1 - c.Dielectric.Alpha/3)
	return c, nil
}

// ionKernel is the reciprocal-space preconditioner for the ion channels.
func (c *NonlinearCommon) ionKernel(g *Grid) []float64 {
	kernel := make([]float64, g.NR)
	if c.Screening == nil {
		return kernel
	}
	kappaSqByEps := c.K2factor / c.EpsBulk
	kernel[0] = 1 // the uniform mode carries no Coulomb stiffness
	for i := 1; i < g.NR; i++ {
		kernel[i] = c.MuByEps * c.MuByEps * g.GSq[i] / (g.GSq[i] + kappaSqByEps)
	}
	return kernel
}
