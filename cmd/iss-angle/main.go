// Command iss-angle converts the axial position of an ejectile hit on the
// array into its CM scattering angle, or the reverse.
//
// Usage:
//
//	$> iss-angle -channel=mg -ex=1.1 -z=-20,-30,-40
//	$> iss-angle -channel=si -theta=20,25,30 -plot=theta-z.png
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	iss "github.com/PTMac73/ISS-Code-sub000"
	"github.com/PTMac73/ISS-Code-sub000/solve"
)

var (
	channel = flag.String("channel", "mg", "reaction channel (mg, si)")
	ex      = flag.Float64("ex", 0, "excitation energy of the recoil, in MeV")
	field   = flag.Float64("b", 2.5, "magnetic field, in T")
	energy  = flag.Float64("e", 9.473, "beam energy, in MeV/u")

	zs     = flag.String("z", "", "comma-separated axial positions on the array, in cm")
	thetas = flag.String("theta", "", "comma-separated CM angles, in degrees")
	tol    = flag.Float64("tol", solve.DefaultTolerance, "tolerance on the radial mismatch, in mm")
	fplot  = flag.String("plot", "", "path to the θcm(z) plot (png, svg, pdf)")
)

func main() {
	log.SetPrefix("iss-angle: ")
	log.SetFlags(0)

	flag.Parse()

	ch, err := iss.ParseChannel(*channel)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	rx, err := iss.NewReaction(ch, *field, *energy)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	kin, err := iss.Compute(rx, iss.DefaultArray(), *ex)
	if err != nil {
		log.Fatalf("error computing kinematics: %v\n", err)
	}

	sv := solve.New()
	sv.Tolerance = *tol

	switch {
	case *zs != "" && *thetas != "":
		log.Fatalf("-z and -theta are mutually exclusive")
	case *zs != "":
		vs, err := parseList(*zs)
		if err != nil {
			log.Fatalf("invalid -z list: %v\n", err)
		}
		err = table(os.Stdout, vs, func(z float64) (solve.Solution, error) {
			return sv.ThetaCM(rx, kin, z)
		})
		if err != nil {
			log.Fatalf("error: %v\n", err)
		}
	case *thetas != "":
		vs, err := parseList(*thetas)
		if err != nil {
			log.Fatalf("invalid -theta list: %v\n", err)
		}
		err = table(os.Stdout, vs, func(theta float64) (solve.Solution, error) {
			return sv.AxialPosition(rx, kin, theta)
		})
		if err != nil {
			log.Fatalf("error: %v\n", err)
		}
	case *fplot == "":
		flag.Usage()
		os.Exit(2)
	}

	if *fplot != "" {
		err = plotCurve(*fplot, rx, kin, sv)
		if err != nil {
			log.Fatalf("error plotting θcm(z): %v\n", err)
		}
	}
}

func parseList(s string) ([]float64, error) {
	var vs []float64
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, nil
}

// table solves every input value and prints one row per solution. Failed
// solves are reported in the last column.
func table(w io.Writer, vs []float64, fn func(v float64) (solve.Solution, error)) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "z (cm)\tθcm (deg)\tp∥ (MeV/c)\tp⊥ (MeV/c)\titer\tresidual (mm)\tstatus\t\n")
	for _, v := range vs {
		sol, err := fn(v)
		status := "ok"
		if err != nil {
			status = err.Error()
		}
		fmt.Fprintf(tw, "%.4f\t%.4f\t%.4f\t%.4f\t%d\t%.2e\t%s\t\n",
			sol.Z, sol.ThetaCM, sol.PParallel, sol.PPerp, sol.Iterations, sol.Residual, status,
		)
	}
	return tw.Flush()
}
