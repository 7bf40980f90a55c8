// elements.go --  This file is part of goPCM project.
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
package main

import (
	"strings"

	"golang.org/x/exp/slices"
)

// elementSymbols is indexed by atomic number.
var elementSymbols = []string{"X",
	"H", "He", "Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar", "K", "Ca",
	"Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr", "Rb", "Sr", "Y", "Zr",
	"Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd", "In", "Sn",
	"Sb", "Te", "I", "Xe", "Cs", "Ba",
}

// atomicNumber returns -1 for an unknown symbol.
func atomicNumber(symb string) int {
	symb = strings.TrimSpace(symb)
	if len(symb) == 0 {
		return -1
	}
	symb = strings.ToUpper(symb[:1]) + strings.ToLower(symb[1:])
	Z := slices.Index(elementSymbols, symb)
	if Z == 0 {
		return -1
	}
	return Z
}
