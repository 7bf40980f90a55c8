// shape.go --  This file is part of goPCM project.
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

// ComputeShape fills shape with the cavity function
// s = erfc(log(|n|/nc)/(sigma*sqrt(2)))/2 of the electron density n.
func ComputeShape(n, shape ScalarField, nc, sigma float64) {
	parallelFor(len(n), func(start, end int) {
		for i := start; i < end; i++ {
			shape[i] = 0.5 * math.Erfc(math.Sqrt(0.5)*math.Log(math.Abs(n[i])/nc)/sigma)
		}
	})
}

// PropagateShapeGradient accumulates the density gradient En implied by a
// shape gradient EShape.
func PropagateShapeGradient(n, EShape, En ScalarField, nc, sigma float64) {
	prefac := -1 / (nc * sigma * math.Sqrt(2*math.Pi))
	parallelFor(len(n), func(start, end int) {
		for i := start; i < end; i++ {
			t := math.Log(math.Abs(n[i])/nc)/sigma + sigma
			En[i] += prefac * EShape[i] * math.Exp(0.5*(sigma*sigma-t*t))
		}
	})
}
