// plot.go --  This file is part of goPCM project.
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
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// plotConvergence draws |E - E_final| per iteration on a log scale.
func plotConvergence(fname string, energies []float64) error {
	p := plot.New()
	p.Title.Text = "goPCM convergence"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "|E - E_final| (Eh)"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	pts := make(plotter.XYs, 0, len(energies))
	if n := len(energies); n > 1 {
		final := energies[n-1]
		for i, E := range energies[:n-1] {
			dE := math.Abs(E - final)
			if dE > 0 {
				pts = append(pts, plotter.XY{X: float64(i + 1), Y: dE})
			}
		}
	}
	if len(pts) == 0 {
		// nothing to show on a log scale
		return nil
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	p.Add(line, points, plotter.NewGrid())
	return p.Save(5*vg.Inch, 4*vg.Inch, fname)
}
