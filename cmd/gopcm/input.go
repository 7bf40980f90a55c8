// input.go --  This file is part of goPCM project.
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
	"fmt"
	"strconv"
	"strings"

	"example.com/gopcm"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/gcfg.v1"
)

type gridSection struct {
	L       float64 // cubic cell side, bohr
	S       int     // samples per side for a cubic cell
	Lattice []string
	Samples string
}

type siteSection struct {
	Element     string
	Pos         string  // x y z in bohr
	Angstrom    bool    // Pos is in Angstrom
	Charge      float64 // net explicit charge
	Width       float64 // bohr
	Electrons   float64 // defaults to the atomic number of Element
	CavityWidth float64 // bohr
}

type outputSection struct {
	StateIn  string
	StateOut string
	Dump     string // pattern with %s
	Plot     string
}

type runSection struct {
	Nprocs int
}

type input struct {
	Solvent gopcm.SolventSection
	Ions    gopcm.IonsSection
	Cavity  gopcm.CavitySection
	Solver  gopcm.SolverSection
	Grid    gridSection
	Site    map[string]*siteSection
	Output  outputSection
	Run     runSection
}

func readInput(fname string) (*input, error) {
	def := gopcm.DefaultConfig()
	in := &input{
		Solvent: def.Solvent,
		Ions:    def.Ions,
		Cavity:  def.Cavity,
		Solver:  def.Solver,
	}
	err := gcfg.ReadFileInto(in, fname)
	if fatal := gcfg.FatalOnly(err); fatal != nil {
		return nil, fmt.Errorf("parsing input: %w", fatal)
	}
	if err != nil {
		gopcm.WarningLogger.Println("Parsing input:", err)
	}
	return in, nil
}

func (in *input) fluidConfig() *gopcm.Config {
	return &gopcm.Config{
		Solvent: in.Solvent,
		Ions:    in.Ions,
		Cavity:  in.Cavity,
		Solver:  in.Solver,
	}
}

func parseVector(s string) ([3]float64, error) {
	var v [3]float64
	words := strings.Fields(s)
	if len(words) != 3 {
		return v, fmt.Errorf("expected three numbers, got %q", s)
	}
	for i, w := range words {
		x, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return v, err
		}
		v[i] = x
	}
	return v, nil
}

func (in *input) grid() (*gopcm.Grid, error) {
	gs := in.Grid
	if len(gs.Lattice) == 0 {
		if gs.L <= 0 || gs.S <= 0 {
			return nil, fmt.Errorf("[grid] needs either L and S or three lattice rows")
		}
		return gopcm.NewCubicGrid(gs.L, gs.S)
	}
	if len(gs.Lattice) != 3 {
		return nil, fmt.Errorf("[grid] needs exactly three lattice rows, got %d", len(gs.Lattice))
	}
	R := mat.NewDense(3, 3, nil)
	for j, row := range gs.Lattice {
		v, err := parseVector(row)
		if err != nil {
			return nil, fmt.Errorf("[grid] lattice row %d: %w", j+1, err)
		}
		R.SetCol(j, v[:])
	}
	var S [3]int
	words := strings.Fields(gs.Samples)
	if len(words) != 3 {
		return nil, fmt.Errorf("[grid] samples must list three counts")
	}
	for i, w := range words {
		n, err := strconv.Atoi(w)
		if err != nil {
			return nil, fmt.Errorf("[grid] samples: %w", err)
		}
		S[i] = n
	}
	return gopcm.NewGrid(R, S)
}

func (in *input) sites() ([]gopcm.ChargeSite, error) {
	names := make([]string, 0, len(in.Site))
	for name := range in.Site {
		names = append(names, name)
	}
	slices.Sort(names)

	var sites []gopcm.ChargeSite
	for _, name := range names {
		sec := in.Site[name]
		pos, err := parseVector(sec.Pos)
		if err != nil {
			return nil, fmt.Errorf("site %q position: %w", name, err)
		}
		if sec.Angstrom {
			for c := range pos {
				pos[c] *= gopcm.Angstrom
			}
		}
		electrons := sec.Electrons
		if sec.Element != "" && electrons == 0 {
			Z := atomicNumber(sec.Element)
			if Z < 0 {
				return nil, fmt.Errorf("site %q: unknown element %q", name, sec.Element)
			}
			electrons = float64(Z) - sec.Charge
		}
		site := gopcm.ChargeSite{
			Name:        name,
			Pos:         pos,
			Charge:      sec.Charge,
			Width:       sec.Width,
			Electrons:   electrons,
			CavityWidth: sec.CavityWidth,
		}
		if site.Width == 0 {
			site.Width = 0.5
		}
		if site.CavityWidth == 0 {
			site.CavityWidth = 1
		}
		if err := site.Validate(); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	if len(sites) == 0 {
		return nil, fmt.Errorf("input has no [site] sections")
	}
	return sites, nil
}
