package main

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	iss "github.com/PTMac73/ISS-Code-sub000"
	"github.com/PTMac73/ISS-Code-sub000/solve"
)

// plotCurve draws the CM angle as a function of the axial position of the
// hit, over the CM angles reaching the array.
func plotCurve(fname string, rx iss.Reaction, kin iss.Kinematics, sv *solve.Solver) error {
	var xys plotter.XYs
	for theta := 0.5; theta < 180; theta += 0.5 {
		sol, err := sv.AxialPosition(rx, kin, theta)
		if err != nil {
			continue
		}
		xys = append(xys, plotter.XY{X: sol.Z, Y: sol.ThetaCM})
	}
	if len(xys) == 0 {
		return fmt.Errorf("no CM angle reaches the array")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%v, Ex = %g MeV, B = %g T", rx.Channel, kin.Excitation, rx.Field)
	p.X.Label.Text = "z (cm)"
	p.Y.Label.Text = "θcm (deg)"

	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	p.Add(line, plotter.NewGrid())

	return p.Save(6*vg.Inch, 4*vg.Inch, fname)
}
