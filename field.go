// field.go --  This file is part of goPCM project.
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

	"gonum.org/v1/gonum/floats"
)

// ScalarField holds real-space values on a Grid.
type ScalarField []float64

// ScalarFieldTilde holds the normalized Fourier coefficients of a real field.
type ScalarFieldTilde []complex128

// VectorField holds the three Cartesian components of a real-space vector field.
type VectorField [3]ScalarField

func (g *Grid) NewScalarField() ScalarField {
	return make(ScalarField, g.NR)
}

func (g *Grid) NewVectorField() VectorField {
	return VectorField{g.NewScalarField(), g.NewScalarField(), g.NewScalarField()}
}

func (f ScalarField) Clone() ScalarField {
	out := make(ScalarField, len(f))
	copy(out, f)
	return out
}

func (ft ScalarFieldTilde) Clone() ScalarFieldTilde {
	out := make(ScalarFieldTilde, len(ft))
	copy(out, ft)
	return out
}

func (v VectorField) Clone() VectorField {
	return VectorField{v[0].Clone(), v[1].Clone(), v[2].Clone()}
}

// Integral returns the cell integral of f.
func (g *Grid) Integral(f ScalarField) float64 {
	return floats.Sum(f) * g.DV
}

// Dot returns the cell integral of a*b.
func (g *Grid) Dot(a, b ScalarField) float64 {
	return floats.Dot(a, b) * g.DV
}

// DotTilde returns the cell integral of a*b evaluated from Fourier coefficients.
func (g *Grid) DotTilde(a, b ScalarFieldTilde) float64 {
	sum := 0.0
	for i := range a {
		sum += real(a[i])*real(b[i]) + imag(a[i])*imag(b[i])
	}
	return sum * g.Omega
}

// Gradient returns the real-space gradient of ft. Nyquist components are
// dropped so that Gradient and Divergence stay adjoint up to sign.
func (g *Grid) Gradient(ft ScalarFieldTilde) VectorField {
	var out VectorField
	tmp := make(ScalarFieldTilde, g.NR)
	for c := 0; c < 3; c++ {
		for i, v := range ft {
			if g.nyquist[i] {
				tmp[i] = 0
				continue
			}
			tmp[i] = complex(0, g.G[c][i]) * v
		}
		out[c] = g.ToReal(tmp)
	}
	return out
}

// Divergence returns the Fourier coefficients of the divergence of v.
func (g *Grid) Divergence(v VectorField) ScalarFieldTilde {
	out := make(ScalarFieldTilde, g.NR)
	for c := 0; c < 3; c++ {
		vt := g.ToReciprocal(v[c])
		for i := range out {
			if g.nyquist[i] {
				continue
			}
			out[i] += complex(0, g.G[c][i]) * vt[i]
		}
	}
	return out
}

// Coulomb returns the periodic potential 4 pi rho / G^2 with the G=0 term dropped.
func (g *Grid) Coulomb(rho ScalarFieldTilde) ScalarFieldTilde {
	out := make(ScalarFieldTilde, g.NR)
	for i := 1; i < g.NR; i++ {
		out[i] = rho[i] * complex(4*math.Pi/g.GSq[i], 0)
	}
	return out
}

// ApplyKernel multiplies ft by a real reciprocal-space kernel in place.
func (ft ScalarFieldTilde) ApplyKernel(kernel []float64) ScalarFieldTilde {
	for i := range ft {
		ft[i] *= complex(kernel[i], 0)
	}
	return ft
}

// Mean returns the average of f over the cell.
func (f ScalarField) Mean() float64 {
	if len(f) == 0 {
		return 0
	}
	return floats.Sum(f) / float64(len(f))
}

// Add accumulates a into ft.
func (ft ScalarFieldTilde) Add(a ScalarFieldTilde) {
	for i := range ft {
		ft[i] += a[i]
	}
}

// SquaredNorms returns |v|^2 per point.
func (v VectorField) SquaredNorms() ScalarField {
	out := make(ScalarField, len(v[0]))
	for i := range out {
		out[i] = v[0][i]*v[0][i] + v[1][i]*v[1][i] + v[2][i]*v[2][i]
	}
	return out
}
