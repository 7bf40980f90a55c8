// grid.go --  This file is part of goPCM project.
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

	"gonum.org/v1/gonum/mat"
)

// Grid is a periodic real-space mesh over the unit cell spanned by the
// columns of R, together with its reciprocal-space bookkeeping. Point
// (i0,i1,i2) is stored at index (i0*S[1]+i1)*S[2]+i2 in both spaces.
type Grid struct {
	R     *mat.Dense
	S     [3]int
	NR    int
	Omega float64
	DV    float64

	strides [3]int
	G       [3][]float64 // Cartesian reciprocal vector components per point
	GSq     []float64
	nyquist []bool // point lies on a Nyquist plane of an even dimension
}

// NewGrid builds the mesh for lattice vectors R (columns, bohr) sampled S times.
func NewGrid(R *mat.Dense, S [3]int) (*Grid, error) {
	if r, c := R.Dims(); r != 3 || c != 3 {
		return nil, fmt.Errorf("%w: lattice matrix must be 3x3", ErrInvalidParams)
	}
	for k, s := range S {
		if s < 1 {
			return nil, fmt.Errorf("%w: grid dimension %d is %d", ErrInvalidParams, k, s)
		}
	}
	omega := math.Abs(mat.Det(R))
	if omega == 0 {
		return nil, fmt.Errorf("%w: singular lattice", ErrInvalidParams)
	}
	var Rinv mat.Dense
	if err := Rinv.Inverse(R); err != nil {
		return nil, fmt.Errorf("%w: lattice inverse: %v", ErrInvalidParams, err)
	}

	g := &Grid{
		R:       mat.DenseCopyOf(R),
		S:       S,
		NR:      S[0] * S[1] * S[2],
		Omega:   omega,
		strides: [3]int{S[1] * S[2], S[2], 1},
	}
	g.DV = omega / float64(g.NR)
	for c := range g.G {
		g.G[c] = make([]float64, g.NR)
	}
	g.GSq = make([]float64, g.NR)
	g.nyquist = make([]bool, g.NR)

	for i := 0; i < g.NR; i++ {
		var n [3]int
		nyq := false
		for k := 0; k < 3; k++ {
			idx := (i / g.strides[k]) % S[k]
			var isNyq bool
			n[k], isNyq = wrapIndex(idx, S[k])
			nyq = nyq || isNyq
		}
		// G = 2 pi R^{-T} n, so that G.R_j = 2 pi n_j
		for c := 0; c < 3; c++ {
			gc := 0.0
			for k := 0; k < 3; k++ {
				gc += float64(n[k]) * Rinv.At(k, c)
			}
			gc *= 2 * math.Pi
			g.G[c][i] = gc
			g.GSq[i] += gc * gc
		}
		g.nyquist[i] = nyq
	}
	return g, nil
}

// NewCubicGrid is a shortcut for a cubic cell of side L with n points per side.
func NewCubicGrid(L float64, n int) (*Grid, error) {
	return NewGrid(mat.NewDense(3, 3, []float64{L, 0, 0, 0, L, 0, 0, 0, L}), [3]int{n, n, n})
}

// wrapIndex maps an FFT index onto its signed frequency.
func wrapIndex(i, s int) (n int, nyquist bool) {
	n = i
	if 2*i > s {
		n = i - s
	}
	return n, s > 1 && 2*i == s
}

// Strained returns a copy of the grid with lattice (1+strain)*R.
func (g *Grid) Strained(strain *mat.Dense) (*Grid, error) {
	var R mat.Dense
	R.Mul(strain, g.R)
	R.Add(&R, g.R)
	return NewGrid(&R, g.S)
}
