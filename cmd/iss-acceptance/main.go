// Command iss-acceptance simulates the geometric acceptance of the
// spectrometer for one reaction channel and excitation energy.
//
// Each CM-angle bin is written to the output file as five little-endian
// float64 values: the bin centre (deg), the fraction of detected ejectiles,
// the fraction of events with both products detected, the solid angle (sr)
// and its moving average (NaN on the edge bins).
package main

import (
	"context"
	"flag"
	"fmt"
	"math"

	iss "github.com/PTMac73/ISS-Code-sub000"
	"github.com/PTMac73/ISS-Code-sub000/acceptance"
	"github.com/PTMac73/ISS-Code-sub000/sim"
)

var (
	channel = flag.String("channel", "mg", "reaction channel (mg, si)")
	ex      = flag.Float64("ex", 0, "excitation energy of the recoil, in MeV")
	field   = flag.Float64("b", 2.5, "magnetic field, in T")
	energy  = flag.Float64("e", 9.473, "beam energy, in MeV/u")

	nsamples = flag.Int("n", 1000, "number of events per CM-angle bin")
	thmin    = flag.Float64("theta-min", 0, "lowest CM angle, in degrees")
	thmax    = flag.Float64("theta-max", 60, "highest CM angle, in degrees")
	thstep   = flag.Float64("theta-step", 1, "width of the CM-angle bins, in degrees")
	fwhm     = flag.Float64("fwhm", 2, "FWHM of the beam spot, in mm")
	step     = flag.Float64("step", 1, "propagation step, in mm")
	seed     = flag.Uint64("seed", 1234, "seed of the random streams")
	smooth   = flag.Int("smooth", 2, "half-width of the moving average, in bins")

	fplot    = flag.String("plot", "", "path to the solid-angle plot (png, svg, pdf)")
	fspectra = flag.String("spectra", "", "path to a ROOT file to store the ejectile spectra")
)

func main() {
	sim.Main(run)
}

func run(ctx context.Context, app *sim.App) error {
	ch, err := iss.ParseChannel(*channel)
	if err != nil {
		return err
	}
	rx, err := iss.NewReaction(ch, *field, *energy)
	if err != nil {
		return err
	}
	array := iss.DefaultArray()
	kin, err := iss.Compute(rx, array, *ex)
	if err != nil {
		return fmt.Errorf("could not compute kinematics: %w", err)
	}

	cfg := acceptance.DefaultConfig()
	cfg.Samples = *nsamples
	cfg.ThetaMin = *thmin
	cfg.ThetaMax = *thmax
	cfg.ThetaStep = *thstep
	cfg.BeamFWHM = *fwhm
	cfg.Step = *step
	cfg.Seed = *seed
	cfg.Smoothing = *smooth
	cfg.Workers = app.NumProcs()

	s, err := acceptance.New(rx, kin, iss.ArraySide(array), iss.RecoilSide(), cfg, app.Logger())
	if err != nil {
		return err
	}
	res, err := s.Run(ctx)
	if err != nil {
		return fmt.Errorf("could not run acceptance simulation: %w", err)
	}

	avg, err := res.Smoothed()
	if err != nil {
		app.Logger().Warn("no moving average", "error", err)
		avg = nil
	}

	for i := range res.Bins {
		bin := &res.Bins[i]
		sm := math.NaN()
		if j := i - res.Smoothing; j >= 0 && j < len(avg) {
			sm = avg[j]
		}
		app.Results() <- sim.Record{
			ID:   int64(i),
			Data: sim.Float64s(bin.Theta(), bin.EjectileFraction(), bin.Fraction(), bin.SolidAngle(), sm),
		}
	}

	if *fplot != "" {
		err = plotSolidAngle(*fplot, res, avg)
		if err != nil {
			return fmt.Errorf("could not plot solid angle: %w", err)
		}
	}

	if *fspectra != "" {
		err = writeSpectra(*fspectra, res)
		if err != nil {
			return fmt.Errorf("could not write spectra: %w", err)
		}
	}

	app.Logger().Info("acceptance",
		"channel", rx.Channel.String(),
		"ex", kin.Excitation,
		"solid_angle", res.SolidAngle(),
	)
	return nil
}
