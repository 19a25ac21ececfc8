package main

import (
	"fmt"
	"image/color"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/PTMac73/ISS-Code-sub000/acceptance"
)

func plotSolidAngle(fname string, res *acceptance.Result, avg []float64) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%v, Ex = %g MeV", res.Channel, res.Excitation)
	p.X.Label.Text = "θcm (deg)"
	p.Y.Label.Text = "Solid angle (sr)"

	raw := make(plotter.XYs, len(res.Bins))
	for i := range res.Bins {
		raw[i].X = res.Bins[i].Theta()
		raw[i].Y = res.Bins[i].SolidAngle()
	}
	pts, err := plotter.NewScatter(raw)
	if err != nil {
		return err
	}
	pts.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(pts)
	p.Legend.Add("simulated", pts)

	if len(avg) > 0 {
		xys := make(plotter.XYs, len(avg))
		for j, v := range avg {
			xys[j].X = res.Bins[j+res.Smoothing].Theta()
			xys[j].Y = v
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.Width = vg.Points(1)
		line.Color = color.RGBA{R: 200, A: 255}
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("moving average (%d bins)", 2*res.Smoothing+1), line)
	}
	p.Add(plotter.NewGrid())

	return p.Save(6*vg.Inch, 4*vg.Inch, fname)
}

// writeSpectra stores the ejectile lab-energy spectra as ROOT histograms,
// one per revolution count and side of the shield.
func writeSpectra(fname string, res *acceptance.Result) error {
	f, err := groot.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, key := range res.Keys() {
		side := "below"
		if key.Above {
			side = "above"
		}
		name := fmt.Sprintf("ejectile_turns%d_%s", key.Turns, side)
		err = f.Put(name, rhist.NewH1DFrom(res.Spectra[key]))
		if err != nil {
			return fmt.Errorf("could not store %q: %w", name, err)
		}
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close ROOT file [%s]: %w", fname, err)
	}
	return nil
}
