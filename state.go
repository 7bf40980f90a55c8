// state.go --  This file is part of goPCM project.
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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/floats"
)

// Channels of the nonlinear state, in storage order.
const (
	ChannelMuPlus = iota
	ChannelMuMinus
	ChannelEpsX
	ChannelEpsY
	ChannelEpsZ
	nStateChannels
)

// State is the fluid's independent variable: the two ion potentials and the
// three components of the effective dielectric field, each on the grid.
type State [nStateChannels]ScalarField

func NewState(nr int) State {
	var st State
	for k := range st {
		st[k] = make(ScalarField, nr)
	}
	return st
}

func (st State) MuPlus() ScalarField  { return st[ChannelMuPlus] }
func (st State) MuMinus() ScalarField { return st[ChannelMuMinus] }

// Eps shares storage with the state.
func (st State) Eps() VectorField {
	return VectorField{st[ChannelEpsX], st[ChannelEpsY], st[ChannelEpsZ]}
}

func (st State) Clone() State {
	var out State
	for k := range st {
		out[k] = st[k].Clone()
	}
	return out
}

// Dot is the plain sum of products over all channels and points.
func (st State) Dot(other State) float64 {
	sum := 0.0
	for k := range st {
		sum += floats.Dot(st[k], other[k])
	}
	return sum
}

// Axpy adds alpha*x to st.
func (st State) Axpy(alpha float64, x State) {
	for k := range st {
		floats.AddScaled(st[k], alpha, x[k])
	}
}

func (st State) Scale(alpha float64) {
	for k := range st {
		floats.Scale(alpha, st[k])
	}
}

func (st State) Zero() {
	for k := range st {
		for i := range st[k] {
			st[k][i] = 0
		}
	}
}

func (st State) IsZero() bool {
	for k := range st {
		for _, v := range st[k] {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

func (st State) nBytes() int64 {
	return int64(nStateChannels * len(st[0]) * 8)
}

// WriteTo writes the channels back to back as little-endian float64.
func (st State) WriteTo(w io.Writer) (int64, error) {
	for k := range st {
		if err := binary.Write(w, binary.LittleEndian, []float64(st[k])); err != nil {
			return int64(k*len(st[k])) * 8, err
		}
	}
	return st.nBytes(), nil
}

// ReadFrom fills the state from the layout written by WriteTo.
func (st State) ReadFrom(r io.Reader) (int64, error) {
	for k := range st {
		if err := binary.Read(r, binary.LittleEndian, []float64(st[k])); err != nil {
			return int64(k*len(st[k])) * 8, fmt.Errorf("%w: %v", ErrStateSize, err)
		}
	}
	return st.nBytes(), nil
}

// Save writes the state to fname.
func (st State) Save(fname string) error {
	file, err := os.Create(fname)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	n, err := st.WriteTo(w)
	if err == nil {
		err = w.Flush()
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	InfoLogger.Printf("Saved fluid state to '%s' (%s).", fname, humanize.Bytes(uint64(n)))
	return nil
}

// Load reads fname into the state; the file size must match the grid exactly.
func (st State) Load(fname string) error {
	file, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return err
	}
	if info.Size() != st.nBytes() {
		return fmt.Errorf("%w: '%s' has %s, expected %s", ErrStateSize, fname,
			humanize.Bytes(uint64(info.Size())), humanize.Bytes(uint64(st.nBytes())))
	}
	if _, err := st.ReadFrom(bufio.NewReader(file)); err != nil {
		return err
	}
	InfoLogger.Printf("Loaded fluid state from '%s' (%s).", fname, humanize.Bytes(uint64(info.Size())))
	return nil
}
