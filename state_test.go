// state_test.go --  This file is part of goPCM project.
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
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomState(nr int, seed int64, amp float64) State {
	rng := rand.New(rand.NewSource(seed))
	st := NewState(nr)
	for k := range st {
		for i := range st[k] {
			st[k][i] = amp * rng.NormFloat64()
		}
	}
	return st
}

func TestStateArithmetic(t *testing.T) {
	st := NewState(4)
	assert.True(t, st.IsZero())
	x := randomState(4, 1, 1)
	st.Axpy(2, x)
	assert.False(t, st.IsZero())
	assert.InDelta(t, 4*x.Dot(x), st.Dot(st), 1e-12)
	st.Scale(0.5)
	assert.Equal(t, x, st)

	c := st.Clone()
	c[ChannelEpsY][2] += 1
	assert.NotEqual(t, c[ChannelEpsY][2], st[ChannelEpsY][2])

	// Eps shares storage
	st.Eps()[1][2] = 42
	assert.Equal(t, 42.0, st[ChannelEpsY][2])
	st.Zero()
	assert.True(t, st.IsZero())
}

func TestStateWriteRead(t *testing.T) {
	st := randomState(10, 2, 3)
	var buf bytes.Buffer
	n, err := st.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(5*10*8), n)
	assert.Equal(t, 5*10*8, buf.Len())

	back := NewState(10)
	_, err = back.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, st, back)

	short := NewState(10)
	_, err = short.ReadFrom(bytes.NewReader(buf.Bytes()[:100]))
	assert.ErrorIs(t, err, ErrStateSize)
}

func TestStateSaveLoad(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "state.bin")
	st := randomState(27, 3, 0.5)
	require.NoError(t, st.Save(fname))

	back := NewState(27)
	require.NoError(t, back.Load(fname))
	assert.Equal(t, st, back)

	// saving the loaded state reproduces the file byte for byte
	again := filepath.Join(dir, "again.bin")
	require.NoError(t, back.Save(again))
	b1, err := os.ReadFile(fname)
	require.NoError(t, err)
	b2, err := os.ReadFile(again)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)

	wrong := NewState(26)
	assert.ErrorIs(t, wrong.Load(fname), ErrStateSize)
	assert.Error(t, back.Load(filepath.Join(dir, "missing.bin")))
}
