// dump.go --  This file is part of goPCM project.
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
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/exp/slices"
)

// FieldNames lists the fields available through Field and DumpDensities.
var FieldNames = []string{"Shape", "MuPlus", "MuMinus", "EpsX", "EpsY", "EpsZ", "Phi", "RhoIon", "Epsilon", "KappaSq"}

// Field returns a copy of the named field for the current state.
func (pcm *NonlinearPCM) Field(name string) (ScalarField, error) {
	if slices.Index(FieldNames, name) < 0 {
		return nil, fmt.Errorf("unknown fluid field %q", name)
	}
	if pcm.shape == nil {
		return nil, fmt.Errorf("%w: field %q requested before Set", ErrInvalidParams, name)
	}
	g := pcm.grid
	switch name {
	case "Shape":
		return pcm.shape.Clone(), nil
	case "MuPlus":
		return pcm.State[ChannelMuPlus].Clone(), nil
	case "MuMinus":
		return pcm.State[ChannelMuMinus].Clone(), nil
	case "EpsX":
		return pcm.State[ChannelEpsX].Clone(), nil
	case "EpsY":
		return pcm.State[ChannelEpsY].Clone(), nil
	case "EpsZ":
		return pcm.State[ChannelEpsZ].Clone(), nil
	case "Phi":
		return pcm.linearPCM.Phi.Clone(), nil
	case "RhoIon":
		rhoIon := g.NewScalarField()
		if sc := pcm.Screening; sc != nil {
			Qexp := g.Omega * real(pcm.rhoExplicitT[0])
			mu0 := sc.NeutralityConstraint(g, pcm.State.MuPlus(), pcm.State.MuMinus(), pcm.shape, Qexp, nil)
			sc.FreeEnergy(mu0, pcm.State.MuPlus(), pcm.State.MuMinus(), pcm.shape, rhoIon, g.NewScalarField(), nil, nil, nil)
		}
		return rhoIon, nil
	case "Epsilon", "KappaSq":
		epsilon, kappaSq := pcm.profiles()
		if name == "Epsilon" {
			return epsilon, nil
		}
		if kappaSq == nil {
			kappaSq = g.NewScalarField()
		}
		return kappaSq, nil
	}
	return nil, nil
}

// DumpDensities writes every field in FieldNames as raw little-endian
// float64 to the file named by pattern with %s replaced by the field name.
func (pcm *NonlinearPCM) DumpDensities(pattern string) error {
	if !strings.Contains(pattern, "%s") {
		return fmt.Errorf("dump pattern %q has no %%s", pattern)
	}
	for _, name := range FieldNames {
		f, err := pcm.Field(name)
		if err != nil {
			return err
		}
		fname := strings.Replace(pattern, "%s", name, 1)
		if err := writeField(fname, f); err != nil {
			return err
		}
		InfoLogger.Printf("Dumped '%s' (%s).", fname, humanize.Bytes(uint64(8*len(f))))
	}
	return nil
}

func writeField(fname string, f ScalarField) error {
	file, err := os.Create(fname)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	err = binary.Write(w, binary.LittleEndian, []float64(f))
	if err == nil {
		err = w.Flush()
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}
