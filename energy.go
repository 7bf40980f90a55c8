// energy.go --  This file is part of goPCM project.
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
	"log"

	"golang.org/x/exp/slices"
)

// EnergyComponents holds named contributions to the fluid free energy.
type EnergyComponents map[string]float64

// Names returns the component names in sorted order.
func (e EnergyComponents) Names() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Total sums the components in a fixed order.
func (e EnergyComponents) Total() float64 {
	sum := 0.0
	for _, name := range e.Names() {
		sum += e[name]
	}
	return sum
}

// Print writes one line per component and the total.
func (e EnergyComponents) Print(logger *log.Logger) {
	for _, name := range e.Names() {
		logger.Printf("   %-10s = %25.16f", name, e[name])
	}
	logger.Printf("   %-10s = %25.16f", "Total", e.Total())
}
