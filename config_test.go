// config_test.go --  This file is part of goPCM project.
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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
; ions in water at body temperature
[solvent]
temperature = 310
epsBulk = 74.5

[ions]
concentration = 0.15
rPlus = 1.2
linear = true

[cavity]
sigma = 0.5

[solver]
method = cg
history = 7
qMetric = 0
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(testConfig)
	require.NoError(t, err)
	assert.Equal(t, 310.0, cfg.Solvent.Temperature)
	assert.Equal(t, 74.5, cfg.Solvent.EpsBulk)
	assert.Equal(t, DefaultConfig().Solvent.EpsInf, cfg.Solvent.EpsInf)
	assert.True(t, cfg.Ions.Linear)
	assert.Equal(t, "cg", cfg.Solver.Method)

	fsp, err := cfg.Params()
	require.NoError(t, err)
	assert.InDelta(t, 310*Kelvin, fsp.T, 1e-18)
	assert.InDelta(t, 0.15*MolPerLiter, fsp.IonNbulk, 1e-18)
	assert.InDelta(t, 1.2*Angstrom, fsp.IonRPlus, 1e-14)
	assert.InDelta(t, 1.67*Angstrom, fsp.IonRMinus, 1e-12)
	assert.True(t, fsp.LinearScreening)
	assert.False(t, fsp.LinearDielectric)
	assert.Equal(t, 0.5, fsp.Sigma)
	assert.Equal(t, MethodMinimize, fsp.Method)
	assert.Equal(t, 7, fsp.Pulay.History)
	assert.Zero(t, fsp.Pulay.QMetric)
	assert.True(t, fsp.HasIons())
}

func TestDefaultConfigMatchesDefaultParams(t *testing.T) {
	cfg := DefaultConfig()
	fsp, err := cfg.Params()
	require.NoError(t, err)
	want := DefaultParams()
	assert.InDelta(t, want.T, fsp.T, 1e-15*want.T)
	assert.InDelta(t, want.IonRPlus, fsp.IonRPlus, 1e-14)
	fsp.T, fsp.IonRPlus, fsp.IonRMinus = want.T, want.IonRPlus, want.IonRMinus
	assert.Equal(t, want, fsp)
	assert.False(t, fsp.HasIons())
}

func TestParseConfigErrors(t *testing.T) {
	_, err := ParseConfig("[solvent\ntemperature = 300\n")
	assert.Error(t, err, "syntax")

	_, err = ParseConfig("[solvent]\ntemperature = hot\n")
	assert.Error(t, err, "bad value")

	// unknown names are only warnings
	cfg, err := ParseConfig("[solvent]\ncolour = blue\n[extras]\nx = 1\n")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)

	cfg, err = ParseConfig("[solver]\nmethod = newton\n")
	require.NoError(t, err)
	_, err = cfg.Params()
	assert.ErrorIs(t, err, ErrInvalidParams)

	cfg, err = ParseConfig("[solver]\nmixFraction = 1.5\n")
	require.NoError(t, err)
	_, err = cfg.Params()
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestReadConfig(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "fluid.conf")
	require.NoError(t, os.WriteFile(fname, []byte(testConfig), 0644))
	cfg, err := ReadConfig(fname)
	require.NoError(t, err)
	assert.Equal(t, 0.15, cfg.Ions.Concentration)

	_, err = ReadConfig(filepath.Join(t.TempDir(), "missing.conf"))
	assert.Error(t, err)
}

func TestParseSolverMethod(t *testing.T) {
	for in, want := range map[string]SolverMethod{
		"":         MethodAuto,
		"Auto":     MethodAuto,
		"gummel":   MethodGummel,
		"PULAY":    MethodGummel,
		" cg ":     MethodMinimize,
		"minimize": MethodMinimize,
	} {
		got, err := ParseSolverMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSolverMethod("sor")
	assert.ErrorIs(t, err, ErrInvalidParams)
	assert.Equal(t, "gummel", MethodGummel.String())
	assert.Equal(t, "auto", MethodAuto.String())
}

func TestValidateParams(t *testing.T) {
	for name, mutate := range map[string]func(*FluidSolverParams){
		"temperature": func(f *FluidSolverParams) { f.T = 0 },
		"cavity":      func(f *FluidSolverParams) { f.Sigma = 0 },
		"ions":        func(f *FluidSolverParams) { f.IonNbulk = -1 },
		"radius":      func(f *FluidSolverParams) { f.IonRMinus = -1 },
		"history":     func(f *FluidSolverParams) { f.Pulay.History = 0 },
		"thresholds": func(f *FluidSolverParams) {
			f.Pulay.EnergyDiffThreshold, f.Pulay.ResidualThreshold = 0, 0
		},
		"linear":  func(f *FluidSolverParams) { f.Linear.Tolerance = 0 },
		"step":    func(f *FluidSolverParams) { f.Minimize.InitialStep = 0 },
		"qmetric": func(f *FluidSolverParams) { f.Pulay.QMetric = -1 },
	} {
		fsp := DefaultParams()
		mutate(&fsp)
		assert.ErrorIs(t, fsp.Validate(), ErrInvalidParams, name)
	}
	fsp := DefaultParams()
	assert.NoError(t, fsp.Validate())
}
