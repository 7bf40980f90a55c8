// main.go --  This file is part of goPCM project.
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
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"example.com/gopcm"
	"gonum.org/v1/gonum/mat"
)

func appInfo() {
	gopcm.OutputLogger.Println("\n" +
		"                  ____   ____ __  __  |\n" +
		"   __ _  ___     |  _ \\ / ___|  \\/  | | Nonlinear continuum solvation\n" +
		"  / _` |/ _ \\    | |_) | |   | |\\/| | | Saturating dielectric and\n" +
		" | (_| | (_) |   |  __/| |___| |  | | | hard-sphere electrolyte\n" +
		"  \\__, |\\___/    |_|    \\____|_|  |_| |\n" +
		"  |___/                               |")
}

func outputName(inpFname string) string {
	split := strings.Split(inpFname, ".")
	if len(split) < 2 {
		return inpFname + ".out"
	}
	fExt := split[len(split)-1]
	return inpFname[0:(len(inpFname)-len(fExt))] + "out"
}

func main() {
	var inpFname string
	if len(os.Args) > 1 {
		inpFname = os.Args[1]
	} else {
		log.Fatal("No input file.")
	}
	outFname := outputName(inpFname)
	fmt.Println("Output file: ", outFname)

	logFile, err := gopcm.InitLog(outFname)
	if err != nil {
		log.Fatal(err)
	}
	defer logFile.Close()

	gopcm.InfoLogger.Println("Starting goPCM...")
	appInfo()

	gopcm.OutputLogger.Println("Input file content:")
	printOutputDelimiter()
	inpData, err := gopcm.ReadFileLines(inpFname)
	if err != nil {
		gopcm.ErrorLogger.Fatal("Cannot read input file: ", err)
	}
	for _, line := range inpData {
		gopcm.OutputLogger.Println(line)
	}
	printOutputDelimiter()

	in, err := readInput(inpFname)
	if err != nil {
		gopcm.ErrorLogger.Fatal(err)
	}
	if in.Run.Nprocs > 0 {
		runtime.GOMAXPROCS(in.Run.Nprocs)
		gopcm.OutputLogger.Printf("Number of threads set to %d.", in.Run.Nprocs)
	}
	fsp, err := in.fluidConfig().Params()
	if err != nil {
		gopcm.ErrorLogger.Fatal(err)
	}
	grid, err := in.grid()
	if err != nil {
		gopcm.ErrorLogger.Fatal(err)
	}
	sites, err := in.sites()
	if err != nil {
		gopcm.ErrorLogger.Fatal(err)
	}
	gopcm.OutputLogger.Printf("Grid %dx%dx%d, cell volume %.4f bohr^3, %d charge sites.",
		grid.S[0], grid.S[1], grid.S[2], grid.Omega, len(sites))

	tstart := time.Now()
	pcm, err := gopcm.New(grid, fsp)
	if err != nil {
		gopcm.ErrorLogger.Fatal(err)
	}
	if in.Output.StateIn != "" {
		if err := pcm.State.Load(in.Output.StateIn); err != nil {
			gopcm.ErrorLogger.Fatal(err)
		}
	}
	pcm.Set(gopcm.ExplicitChargeTilde(grid, sites), gopcm.CavityDensityTilde(grid, sites))
	gopcm.OutputLogger.Println("Time for fluid initialization:", time.Since(tstart).Round(time.Millisecond))

	res, err := pcm.Solve()
	if err != nil {
		gopcm.ErrorLogger.Fatal(err)
	}

	grads := gopcm.Gradients{
		Sites:  sites,
		Forces: make([][3]float64, len(sites)),
		Stress: mat.NewSymDense(3, nil),
	}
	E, err := pcm.AdielAndGrad(&grads)
	if err != nil {
		gopcm.ErrorLogger.Fatal(err)
	}
	printResults(res, E, sites, grads)

	if in.Output.StateOut != "" {
		if err := pcm.State.Save(in.Output.StateOut); err != nil {
			gopcm.ErrorLogger.Println("Cannot save fluid state: ", err)
		}
	}
	if in.Output.Dump != "" {
		if err := pcm.DumpDensities(in.Output.Dump); err != nil {
			gopcm.ErrorLogger.Println("Cannot dump fluid fields: ", err)
		}
	}
	if in.Output.Plot != "" {
		if err := plotConvergence(in.Output.Plot, res.Energies); err != nil {
			gopcm.ErrorLogger.Println("Cannot plot convergence: ", err)
		}
	}

	gopcm.InfoLogger.Println("Exiting goPCM...")
	fmt.Println("Final fluid free energy = ", E, " a.u.")
	fmt.Println("goPCM done.")
}

func printOutputDelimiter() {
	gopcm.OutputLogger.Println(strings.Repeat("-", 70))
}

func printResults(res gopcm.Result, E float64, sites []gopcm.ChargeSite, grads gopcm.Gradients) {
	if res.Converged {
		gopcm.OutputLogger.Printf("Fluid converged by %s after %d iterations.", res.Method, res.Iterations)
	} else {
		gopcm.OutputLogger.Printf("Warning! Fluid NOT converged by %s after %d iterations.", res.Method, res.Iterations)
	}
	gopcm.OutputLogger.Println("Final fluid free energy = ", E, " a.u.")
	printOutputDelimiter()
	gopcm.OutputLogger.Println("Forces on charge sites (a.u.):")
	for i, site := range sites {
		F := grads.Forces[i]
		gopcm.OutputLogger.Printf("   %-8s %14.8f %14.8f %14.8f", site.Name, F[0], F[1], F[2])
	}
	printOutputDelimiter()
	gopcm.OutputLogger.Println("Lattice strain derivative (a.u.):")
	gopcm.OutputLogger.Println(gopcm.FormatDense(grads.Stress))
	printOutputDelimiter()
}
