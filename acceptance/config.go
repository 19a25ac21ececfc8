package acceptance

import (
	"fmt"
	"math"
	"runtime"

	iss "github.com/PTMac73/ISS-Code-sub000"
)

// Config steers a Monte Carlo acceptance run.
type Config struct {
	ThetaMin  float64 // in degrees
	ThetaMax  float64 // in degrees
	ThetaStep float64 // bin width, in degrees

	Samples     int  // events per CM-angle bin
	SampleTheta bool // draw the CM angle uniformly in cos(theta) within each bin

	BeamFWHM    float64 // beam spot FWHM, in mm
	Aperture    float64 // radius of the upstream aperture, in mm
	MaxResample int     // attempts to draw a vertex inside the aperture

	Step float64 // propagation step, in mm

	Seed    uint64
	Workers int // concurrent bins; 0 means one per CPU

	EnergyBins int     // ejectile lab-energy spectra binning
	EnergyMin  float64 // in MeV
	EnergyMax  float64 // in MeV

	Smoothing int // half-width of the moving average, in bins
}

// DefaultConfig returns the settings used for the ISS acceptance curves.
func DefaultConfig() Config {
	return Config{
		ThetaMin:    0,
		ThetaMax:    60,
		ThetaStep:   1,
		Samples:     1000,
		SampleTheta: true,
		BeamFWHM:    2.0,
		Aperture:    5.0,
		MaxResample: 1000,
		Step:        1.0,
		Seed:        1234,
		EnergyBins:  200,
		EnergyMin:   0,
		EnergyMax:   20,
		Smoothing:   2,
	}
}

// Bins returns the number of CM-angle bins of the configuration.
func (cfg Config) Bins() int {
	return int(math.Round((cfg.ThetaMax - cfg.ThetaMin) / cfg.ThetaStep))
}

func (cfg Config) workers() int {
	if cfg.Workers > 0 {
		return cfg.Workers
	}
	return runtime.NumCPU()
}

func (cfg Config) Validate() error {
	var msg string
	switch {
	case !(cfg.ThetaStep > 0):
		msg = fmt.Sprintf("theta step %v", cfg.ThetaStep)
	case cfg.ThetaMin < 0 || cfg.ThetaMax > 180 || !(cfg.ThetaMin < cfg.ThetaMax):
		msg = fmt.Sprintf("theta range [%v, %v]", cfg.ThetaMin, cfg.ThetaMax)
	case cfg.Bins() < 1:
		msg = fmt.Sprintf("theta range [%v, %v] narrower than one bin", cfg.ThetaMin, cfg.ThetaMax)
	case cfg.Samples <= 0:
		msg = fmt.Sprintf("samples %d", cfg.Samples)
	case cfg.BeamFWHM < 0:
		msg = fmt.Sprintf("beam FWHM %v", cfg.BeamFWHM)
	case cfg.Aperture < 0:
		msg = fmt.Sprintf("aperture %v", cfg.Aperture)
	case cfg.MaxResample <= 0:
		msg = fmt.Sprintf("max resample %d", cfg.MaxResample)
	case !(cfg.Step > 0):
		msg = fmt.Sprintf("step %v", cfg.Step)
	case cfg.Workers < 0:
		msg = fmt.Sprintf("workers %d", cfg.Workers)
	case cfg.EnergyBins <= 0 || !(cfg.EnergyMin < cfg.EnergyMax):
		msg = fmt.Sprintf("energy binning %d [%v, %v]", cfg.EnergyBins, cfg.EnergyMin, cfg.EnergyMax)
	case cfg.Smoothing < 0:
		msg = fmt.Sprintf("smoothing %d", cfg.Smoothing)
	default:
		return nil
	}
	return fmt.Errorf("acceptance: invalid %s: %w", msg, iss.ErrConfig)
}
