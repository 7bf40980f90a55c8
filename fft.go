// fft.go --  This file is part of goPCM project.
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
	"gonum.org/v1/gonum/dsp/fourier"
)

// fft3 transforms data in place one axis at a time. The forward direction
// uses e^{-iGr}, the inverse e^{+iGr}; neither is normalized.
func (g *Grid) fft3(data []complex128, inverse bool) {
	for axis := 0; axis < 3; axis++ {
		n := g.S[axis]
		if n == 1 {
			continue
		}
		stride := g.strides[axis]
		starts := make([]int, 0, g.NR/n)
		for i := 0; i < g.NR; i++ {
			if (i/stride)%n == 0 {
				starts = append(starts, i)
			}
		}
		parallelFor(len(starts), func(lo, hi int) {
			fft := fourier.NewCmplxFFT(n)
			line := make([]complex128, n)
			out := make([]complex128, n)
			for _, start := range starts[lo:hi] {
				for k := range line {
					line[k] = data[start+k*stride]
				}
				if inverse {
					fft.Sequence(out, line)
				} else {
					fft.Coefficients(out, line)
				}
				for k := range out {
					data[start+k*stride] = out[k]
				}
			}
		})
	}
}

// ToReciprocal returns the Fourier coefficients of f normalized so that the
// G=0 entry is the cell average.
func (g *Grid) ToReciprocal(f ScalarField) ScalarFieldTilde {
	out := make(ScalarFieldTilde, g.NR)
	for i, v := range f {
		out[i] = complex(v, 0)
	}
	g.fft3(out, false)
	scale := complex(1/float64(g.NR), 0)
	for i := range out {
		out[i] *= scale
	}
	return out
}

// ToReal is the inverse of ToReciprocal; the imaginary part is discarded.
func (g *Grid) ToReal(ft ScalarFieldTilde) ScalarField {
	data := make([]complex128, g.NR)
	copy(data, ft)
	g.fft3(data, true)
	out := make(ScalarField, g.NR)
	for i, v := range data {
		out[i] = real(v)
	}
	return out
}
