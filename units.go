// units.go --  This file is part of goPCM project.
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

// All quantities inside the solver are in Hartree atomic units.
const (
	a_B = 0.52917720859 // bohr radius in Angstrom

	Angstrom = 1.0 / a_B
	Kelvin   = 1.0 / 315774.65 // Hartree per Kelvin

	avogadro = 6.02214076e23
)

// MolPerLiter converts a concentration in mol/L into bohr^-3.
var MolPerLiter = avogadro / (1e27 * Angstrom * Angstrom * Angstrom)
