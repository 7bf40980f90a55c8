// config.go --  This file is part of goPCM project.
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

	"gopkg.in/gcfg.v1"
)

// SolventSection is the [solvent] block of a configuration file.
type SolventSection struct {
	Temperature float64 // Kelvin
	EpsBulk     float64
	EpsInf      float64
	Nbulk       float64 // bohr^-3
	PMol        float64 // e*bohr
	Linear      bool
}

// IonsSection is the [ions] block. A zero concentration disables the electrolyte.
type IonsSection struct {
	Concentration float64 // mol/L per species
	Z             float64
	RPlus         float64 // Angstrom
	RMinus        float64 // Angstrom
	Linear        bool
}

// CavitySection is the [cavity] block.
type CavitySection struct {
	Nc    float64
	Sigma float64
}

// SolverSection is the [solver] block.
type SolverSection struct {
	Method              string
	NIterations         int
	EnergyDiffThreshold float64
	KnormThreshold      float64
	InitialStep         float64
	NCycles             int
	History             int
	MixFraction         float64
	CycleEnergyDiff     float64
	ResidualThreshold   float64
	QMetric             float64
	LinearIterations    int
	LinearTolerance     float64
}

// Config mirrors a goPCM configuration file.
type Config struct {
	Solvent SolventSection
	Ions    IonsSection
	Cavity  CavitySection
	Solver  SolverSection
}

// DefaultConfig holds the values used for names absent from a file.
func DefaultConfig() Config {
	fsp := DefaultParams()
	return Config{
		Solvent: SolventSection{
			Temperature: fsp.T / Kelvin,
			EpsBulk:     fsp.EpsBulk,
			EpsInf:      fsp.EpsInf,
			Nbulk:       fsp.Nmol,
			PMol:        fsp.PMol,
		},
		Ions: IonsSection{
			Z:      fsp.IonZ,
			RPlus:  fsp.IonRPlus / Angstrom,
			RMinus: fsp.IonRMinus / Angstrom,
		},
		Cavity: CavitySection{Nc: fsp.Nc, Sigma: fsp.Sigma},
		Solver: SolverSection{
			Method:              fsp.Method.String(),
			NIterations:         fsp.Minimize.NIterations,
			EnergyDiffThreshold: fsp.Minimize.EnergyDiffThreshold,
			KnormThreshold:      fsp.Minimize.KnormThreshold,
			InitialStep:         fsp.Minimize.InitialStep,
			NCycles:             fsp.Pulay.NIterations,
			History:             fsp.Pulay.History,
			MixFraction:         fsp.Pulay.MixFraction,
			CycleEnergyDiff:     fsp.Pulay.EnergyDiffThreshold,
			ResidualThreshold:   fsp.Pulay.ResidualThreshold,
			QMetric:             fsp.Pulay.QMetric,
			LinearIterations:    fsp.Linear.NIterations,
			LinearTolerance:     fsp.Linear.Tolerance,
		},
	}
}

// ReadConfig reads fname on top of DefaultConfig. Unknown sections or
// names are logged as warnings; syntax errors are returned.
func ReadConfig(fname string) (*Config, error) {
	cfg := DefaultConfig()
	err := gcfg.ReadFileInto(&cfg, fname)
	if fatal := gcfg.FatalOnly(err); fatal != nil {
		return nil, fmt.Errorf("reading %s: %w", fname, fatal)
	}
	warnUnknown(err)
	return &cfg, nil
}

// ParseConfig is ReadConfig for in-memory text.
func ParseConfig(text string) (*Config, error) {
	cfg := DefaultConfig()
	err := gcfg.ReadStringInto(&cfg, text)
	if fatal := gcfg.FatalOnly(err); fatal != nil {
		return nil, fatal
	}
	warnUnknown(err)
	return &cfg, nil
}

func warnUnknown(err error) {
	if err != nil {
		WarningLogger.Println("Configuration:", err)
	}
}

// Params converts the configuration into validated solver parameters.
func (c *Config) Params() (FluidSolverParams, error) {
	fsp := DefaultParams()
	fsp.T = c.Solvent.Temperature * Kelvin
	fsp.EpsBulk = c.Solvent.EpsBulk
	fsp.EpsInf = c.Solvent.EpsInf
	fsp.Nmol = c.Solvent.Nbulk
	fsp.PMol = c.Solvent.PMol
	fsp.LinearDielectric = c.Solvent.Linear

	fsp.IonNbulk = c.Ions.Concentration * MolPerLiter
	fsp.IonZ = c.Ions.Z
	fsp.IonRPlus = c.Ions.RPlus * Angstrom
	fsp.IonRMinus = c.Ions.RMinus * Angstrom
	fsp.LinearScreening = c.Ions.Linear

	fsp.Nc = c.Cavity.Nc
	fsp.Sigma = c.Cavity.Sigma

	method, err := ParseSolverMethod(c.Solver.Method)
	if err != nil {
		return fsp, err
	}
	fsp.Method = method
	fsp.Minimize = MinimizeParams{
		NIterations:         c.Solver.NIterations,
		EnergyDiffThreshold: c.Solver.EnergyDiffThreshold,
		KnormThreshold:      c.Solver.KnormThreshold,
		InitialStep:         c.Solver.InitialStep,
	}
	fsp.Pulay = PulayParams{
		NIterations:         c.Solver.NCycles,
		History:             c.Solver.History,
		MixFraction:         c.Solver.MixFraction,
		EnergyDiffThreshold: c.Solver.CycleEnergyDiff,
		ResidualThreshold:   c.Solver.ResidualThreshold,
		QMetric:             c.Solver.QMetric,
	}
	fsp.Linear = LinearSolveParams{
		NIterations: c.Solver.LinearIterations,
		Tolerance:   c.Solver.LinearTolerance,
	}
	if err := fsp.Validate(); err != nil {
		return fsp, err
	}
	return fsp, nil
}
