// grid_test.go --  This file is part of goPCM project.
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
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// gridPoint is the Cartesian position of point i.
func gridPoint(g *Grid, i int) [3]float64 {
	var frac [3]float64
	for k := 0; k < 3; k++ {
		frac[k] = float64((i/g.strides[k])%g.S[k]) / float64(g.S[k])
	}
	var r [3]float64
	for c := 0; c < 3; c++ {
		for k := 0; k < 3; k++ {
			r[c] += g.R.At(c, k) * frac[k]
		}
	}
	return r
}

func skewGrid(t *testing.T, S [3]int) *Grid {
	R := mat.NewDense(3, 3, []float64{
		7, 1.5, 0,
		0, 6.5, 0.8,
		0.3, 0, 7.5,
	})
	g, err := NewGrid(R, S)
	require.NoError(t, err)
	return g
}

func randomField(g *Grid, seed int64) ScalarField {
	rng := rand.New(rand.NewSource(seed))
	f := g.NewScalarField()
	for i := range f {
		f[i] = rng.NormFloat64()
	}
	return f
}

func TestNewGridRejectsBadInput(t *testing.T) {
	_, err := NewGrid(mat.NewDense(2, 2, nil), [3]int{4, 4, 4})
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = NewGrid(mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}), [3]int{4, 0, 4})
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = NewGrid(mat.NewDense(3, 3, []float64{1, 0, 0, 2, 0, 0, 0, 0, 1}), [3]int{4, 4, 4})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestGridGeometry(t *testing.T) {
	g, err := NewCubicGrid(10, 8)
	require.NoError(t, err)
	assert.Equal(t, 512, g.NR)
	assert.InDelta(t, 1000, g.Omega, 1e-10)
	assert.InDelta(t, 1000.0/512, g.DV, 1e-12)

	// index 1 along the fastest axis is the smallest wavevector along z
	assert.InDelta(t, 2*math.Pi/10, g.G[2][1], 1e-14)
	assert.InDelta(t, 0, g.G[0][1], 1e-14)

	nNyquist := 0
	for _, nyq := range g.nyquist {
		if nyq {
			nNyquist++
		}
	}
	assert.Equal(t, 512-7*7*7, nNyquist)
}

func TestGridReciprocalVectors(t *testing.T) {
	g := skewGrid(t, [3]int{5, 6, 7})
	for _, i := range []int{1, 17, 55, 123, g.NR - 1} {
		for j := 0; j < 3; j++ {
			GR := 0.0
			for c := 0; c < 3; c++ {
				GR += g.G[c][i] * g.R.At(c, j)
			}
			n := GR / (2 * math.Pi)
			assert.InDelta(t, math.Round(n), n, 1e-12, "point %d lattice vector %d", i, j)
		}
	}
}

func TestFFTRoundTrip(t *testing.T) {
	g := skewGrid(t, [3]int{6, 5, 4})
	f := randomField(g, 1)
	ft := g.ToReciprocal(f)
	assert.InDelta(t, f.Mean(), real(ft[0]), 1e-14)
	back := g.ToReal(ft)
	for i := range f {
		assert.InDelta(t, f[i], back[i], 1e-12)
	}
	// Parseval
	assert.InDelta(t, g.Dot(f, f), g.DotTilde(ft, ft), 1e-10*g.Dot(f, f))
}

func TestFFTPlaneWave(t *testing.T) {
	g, err := NewCubicGrid(9, 9)
	require.NoError(t, err)
	k := 2 * math.Pi / 9 * 2
	f := g.NewScalarField()
	for i := range f {
		r := gridPoint(g, i)
		f[i] = math.Cos(k * r[0])
	}
	ft := g.ToReciprocal(f)
	for i, v := range ft {
		want := 0.0
		if math.Abs(math.Abs(g.G[0][i])-k) < 1e-12 && g.G[1][i] == 0 && g.G[2][i] == 0 {
			want = 0.5
		}
		assert.InDelta(t, want, real(v), 1e-12, "point %d", i)
		assert.InDelta(t, 0, imag(v), 1e-12, "point %d", i)
	}
}

func TestGradientOfPlaneWave(t *testing.T) {
	g := skewGrid(t, [3]int{7, 7, 7})
	// a reciprocal lattice vector: 1*b0 - 2*b2
	i := 1*g.strides[0] + (7-2)*g.strides[2]
	k := [3]float64{g.G[0][i], g.G[1][i], g.G[2][i]}
	f := g.NewScalarField()
	for j := range f {
		r := gridPoint(g, j)
		f[j] = math.Sin(k[0]*r[0] + k[1]*r[1] + k[2]*r[2])
	}
	grad := g.Gradient(g.ToReciprocal(f))
	for j := range f {
		r := gridPoint(g, j)
		c := math.Cos(k[0]*r[0] + k[1]*r[1] + k[2]*r[2])
		for dir := 0; dir < 3; dir++ {
			assert.InDelta(t, k[dir]*c, grad[dir][j], 1e-10)
		}
	}
}

func TestGradientDivergenceAdjoint(t *testing.T) {
	for _, S := range [][3]int{{5, 6, 7}, {4, 4, 4}} {
		g := skewGrid(t, S)
		f := randomField(g, 2)
		v := VectorField{randomField(g, 3), randomField(g, 4), randomField(g, 5)}
		grad := g.Gradient(g.ToReciprocal(f))
		lhs := g.Dot(v[0], grad[0]) + g.Dot(v[1], grad[1]) + g.Dot(v[2], grad[2])
		rhs := -g.Dot(f, g.ToReal(g.Divergence(v)))
		assert.InDelta(t, lhs, rhs, 1e-10*math.Abs(lhs)+1e-10, "S = %v", S)
	}
}

func TestCoulombSolvesPoisson(t *testing.T) {
	g := skewGrid(t, [3]int{5, 7, 9})
	rhoT := g.ToReciprocal(randomField(g, 6))
	phiT := g.Coulomb(rhoT)
	assert.Zero(t, phiT[0])
	lap := g.Divergence(g.Gradient(phiT))
	for i := 1; i < g.NR; i++ {
		assert.InDelta(t, 0, cmplxAbs(-lap[i]-4*math.Pi*rhoT[i]), 1e-10, "point %d", i)
	}
}

func cmplxAbs(z complex128) float64 {
	return math.Hypot(real(z), imag(z))
}

func TestApplyKernelAndAdd(t *testing.T) {
	a := ScalarFieldTilde{1, 2i, 3}
	a.ApplyKernel([]float64{2, 0.5, 0})
	assert.Equal(t, ScalarFieldTilde{2, 1i, 0}, a)
	a.Add(ScalarFieldTilde{1, 1, 1})
	assert.Equal(t, ScalarFieldTilde{3, 1 + 1i, 1}, a)

	v := VectorField{{3, 0}, {4, 1}, {0, 1}}
	assert.Equal(t, ScalarField{25, 2}, v.SquaredNorms())
	assert.Equal(t, 0.0, ScalarField{}.Mean())
}

func TestStrainedGrid(t *testing.T) {
	g := skewGrid(t, [3]int{3, 3, 3})
	strain := mat.NewDense(3, 3, []float64{
		0.01, 0.002, 0,
		0.002, -0.005, 0,
		0, 0, 0.003,
	})
	gs, err := g.Strained(strain)
	require.NoError(t, err)
	var one mat.Dense
	one.Add(strain, eye3())
	assert.InDelta(t, g.Omega*mat.Det(&one), gs.Omega, 1e-10)
	assert.Equal(t, g.S, gs.S)
}

func eye3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

func TestParallelForCoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 511, 512, 10007} {
		hits := make([]int32, n)
		var calls int32
		parallelFor(n, func(start, end int) {
			atomic.AddInt32(&calls, 1)
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			require.Equal(t, int32(1), h, "n = %d index %d", n, i)
		}
		assert.GreaterOrEqual(t, calls, int32(1))
	}
}
