// lookup.go --  This file is part of goPCM project.
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
	"sync"

	"gonum.org/v1/gonum/interp"
)

// LookupTable is a cubic interpolant over uniformly spaced samples, Hermite
// when sample derivatives are known and monotone (Fritsch-Butland) otherwise.
// Arguments outside the sampled range are clamped to its ends.
type LookupTable struct {
	xs, ys []float64
	fit    derivativePredictor
}

type derivativePredictor interface {
	Predict(x float64) float64
	PredictDerivative(x float64) float64
}

// NewLookupTable fits samples taken at x0, x0+dx, x0+2dx, ... derivs may be
// nil; otherwise it holds the exact derivative at each sample.
func NewLookupTable(x0, dx float64, samples, derivs []float64) (*LookupTable, error) {
	if len(samples) < 2 || dx <= 0 {
		return nil, fmt.Errorf("%w: lookup table needs at least two increasing samples", ErrInvalidParams)
	}
	if derivs != nil && len(derivs) != len(samples) {
		return nil, fmt.Errorf("%w: lookup table has %d samples but %d derivatives", ErrInvalidParams, len(samples), len(derivs))
	}
	t := &LookupTable{
		xs: make([]float64, len(samples)),
		ys: append([]float64(nil), samples...),
	}
	for i := range t.xs {
		t.xs[i] = x0 + float64(i)*dx
	}
	if derivs != nil {
		var pc interp.PiecewiseCubic
		pc.FitWithDerivatives(t.xs, t.ys, derivs)
		t.fit = &pc
		return t, nil
	}
	var fb interp.FritschButland
	if err := fb.Fit(t.xs, t.ys); err != nil {
		return nil, err
	}
	t.fit = &fb
	return t, nil
}

func (t *LookupTable) clamp(x float64) float64 {
	if x < t.xs[0] {
		return t.xs[0]
	}
	if last := t.xs[len(t.xs)-1]; x > last {
		return last
	}
	return x
}

// Value interpolates the table at x.
func (t *LookupTable) Value(x float64) float64 {
	return t.fit.Predict(t.clamp(x))
}

// Deriv returns the derivative of the interpolant at x.
func (t *LookupTable) Deriv(x float64) float64 {
	return t.fit.PredictDerivative(t.clamp(x))
}

type tableKey struct {
	kind   string
	params [4]float64
}

var tableCache = struct {
	sync.Mutex
	tables map[tableKey]*LookupTable
}{tables: make(map[tableKey]*LookupTable)}

// cachedTable returns the table stored under key, building it on first use.
// Tables depend only on their parameters, so solvers with equal parameters
// share them.
func cachedTable(key tableKey, build func() (*LookupTable, error)) (*LookupTable, error) {
	tableCache.Lock()
	defer tableCache.Unlock()
	if t, ok := tableCache.tables[key]; ok {
		return t, nil
	}
	t, err := build()
	if err != nil {
		return nil, err
	}
	tableCache.tables[key] = t
	return t, nil
}
