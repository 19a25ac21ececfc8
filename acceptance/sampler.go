// Package acceptance estimates the geometric acceptance of the spectrometer
// by Monte Carlo: ejectiles and recoils are emitted over a grid of CM
// angles, propagated through the field and classified against the array
// and the recoil detector.
package acceptance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"go-hep.org/x/hep/hbook"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	iss "github.com/PTMac73/ISS-Code-sub000"
	"github.com/PTMac73/ISS-Code-sub000/helix"
)

// fwhmToSigma converts the FWHM of a Gaussian into its standard deviation.
var fwhmToSigma = 1 / (2 * math.Sqrt(2*math.Ln2))

// Sampler runs acceptance simulations for one reaction and excitation
// energy. A Sampler is safe for concurrent use once constructed.
type Sampler struct {
	rx     iss.Reaction
	kin    iss.Kinematics
	array  iss.Geometry
	recoil iss.Geometry
	cfg    Config
	logger *slog.Logger
}

// New validates the setting and returns a sampler. A nil logger discards
// the log output.
func New(rx iss.Reaction, kin iss.Kinematics, array, recoil iss.Geometry, cfg Config, logger *slog.Logger) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := array.Validate(); err != nil {
		return nil, fmt.Errorf("acceptance: array side: %w", err)
	}
	if err := recoil.Validate(); err != nil {
		return nil, fmt.Errorf("acceptance: recoil side: %w", err)
	}
	if array.Array == nil {
		return nil, fmt.Errorf("acceptance: array side without an array: %w", iss.ErrGeometry)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sampler{
		rx:     rx,
		kin:    kin,
		array:  array,
		recoil: recoil,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// event is one sampled emission.
type event struct {
	theta     float64 // in degrees
	phi       float64 // in rad
	offset    float64 // in mm
	offsetPhi float64 // in rad
}

// fill is one entry of an ejectile spectrum.
type fill struct {
	key    SpectrumKey
	energy float64
}

// Run simulates every CM-angle bin and reduces them into a Result.
// Bins are spread over the configured number of workers; each bin draws
// from its own random stream, seeded from the configuration seed and the
// bin index, so the result does not depend on the number of workers.
// Cancelling ctx stops issuing new samples.
func (s *Sampler) Run(ctx context.Context) (*Result, error) {
	nbins := s.cfg.Bins()
	bins := make([]Bin, nbins)
	fills := make([][]fill, nbins)

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(s.cfg.workers())
	for i := range bins {
		if gctx.Err() != nil {
			break
		}
		grp.Go(func() error {
			var err error
			bins[i], fills[i], err = s.runBin(gctx, i)
			return err
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		Channel:    s.rx.Channel,
		Excitation: s.kin.Excitation,
		Smoothing:  s.cfg.Smoothing,
		Bins:       bins,
		Spectra:    make(map[SpectrumKey]*hbook.H1D),
	}
	for _, fs := range fills {
		for _, f := range fs {
			h, ok := res.Spectra[f.key]
			if !ok {
				h = hbook.NewH1D(s.cfg.EnergyBins, s.cfg.EnergyMin, s.cfg.EnergyMax)
				h.Annotation()["name"] = "ejectile-" + f.key.String()
				res.Spectra[f.key] = h
			}
			h.Fill(f.energy, 1)
		}
	}

	s.logger.Info("acceptance run done",
		"channel", s.rx.Channel.String(),
		"ex", s.kin.Excitation,
		"bins", nbins,
		"samples", s.cfg.Samples,
		"solid_angle", res.SolidAngle(),
	)
	return res, nil
}

func (s *Sampler) runBin(ctx context.Context, ibin int) (Bin, []fill, error) {
	lo := s.cfg.ThetaMin + float64(ibin)*s.cfg.ThetaStep
	bin := Bin{
		ThetaLo: lo,
		ThetaHi: lo + s.cfg.ThetaStep,
		Turns:   make(map[int]int),
	}

	src := rand.NewPCG(s.cfg.Seed, uint64(ibin))
	rng := rand.New(src)
	beam := distuv.Normal{Mu: 0, Sigma: s.cfg.BeamFWHM * fwhmToSigma, Src: src}

	var fills []fill
	for i := 0; i < s.cfg.Samples; i++ {
		if err := ctx.Err(); err != nil {
			return bin, nil, err
		}
		evt, err := s.generate(rng, beam, &bin)
		if err != nil {
			return bin, nil, fmt.Errorf("acceptance: bin %d [%v, %v] deg, event %d: %w",
				ibin, bin.ThetaLo, bin.ThetaHi, i, err,
			)
		}
		bin.Samples++

		ej, rec, err := s.propagate(evt)
		if err != nil {
			if !errors.Is(err, iss.ErrInvalidKinematics) {
				return bin, nil, err
			}
			bin.Invalid++
			s.logger.Debug("invalid track",
				"bin", ibin, "theta", evt.theta, "error", err,
			)
		}

		bin.Ejectile[ej.cls.Status]++
		bin.Recoil[rec.cls.Status]++
		if ej.cls.Status != helix.Active {
			continue
		}
		bin.Coverage += 2 * math.Pi / float64(s.cfg.Samples)
		bin.Turns[ej.cls.Turns]++
		fills = append(fills, fill{
			key:    SpectrumKey{Turns: ej.cls.Turns, Above: ej.cls.Above},
			energy: ej.track.Energy,
		})
		if rec.cls.Status == helix.Active {
			bin.Both++
		}
	}

	if bin.Invalid > 0 {
		s.logger.Warn("invalid tracks in bin",
			"bin", ibin, "theta", bin.Theta(), "invalid", bin.Invalid,
		)
	}
	return bin, fills, nil
}

// generate draws the emission angles and the reaction vertex of one
// event. Vertices outside the aperture are drawn again, at most
// MaxResample times.
func (s *Sampler) generate(rng *rand.Rand, beam distuv.Normal, bin *Bin) (event, error) {
	evt := event{theta: bin.Theta()}
	if s.cfg.SampleTheta {
		clo := math.Cos(bin.ThetaLo * math.Pi / 180)
		chi := math.Cos(bin.ThetaHi * math.Pi / 180)
		evt.theta = math.Acos(clo+rng.Float64()*(chi-clo)) * 180 / math.Pi
	}
	evt.phi = 2 * math.Pi * rng.Float64()

	if s.cfg.BeamFWHM == 0 {
		return evt, nil
	}
	for try := 0; try < s.cfg.MaxResample; try++ {
		r := math.Abs(beam.Rand())
		psi := 2 * math.Pi * rng.Float64()
		if r <= s.cfg.Aperture {
			evt.offset = r
			evt.offsetPhi = psi
			return evt, nil
		}
	}
	return evt, fmt.Errorf(
		"no vertex inside the %v mm aperture after %d attempts: %w",
		s.cfg.Aperture, s.cfg.MaxResample, iss.ErrSamplingExhausted,
	)
}

type outcome struct {
	track helix.Track
	cls   helix.Classification
}

// propagate follows the ejectile towards the array, upstream, and the
// recoil towards the recoil detector, downstream.
// An undefined trajectory on one side does not stop the other one from
// being followed; such errors are joined.
func (s *Sampler) propagate(evt event) (ej, rec outcome, err error) {
	var (
		pej  = s.kin.Lab(s.kin.Ejectile(evt.theta, evt.phi))
		prec = s.kin.Lab(s.kin.Recoil(evt.theta, evt.phi))
		errs []error
	)

	ej.track = helix.NewTrack(pej, s.rx.Ejectile, s.rx.QB, helix.Upstream).
		WithVertex(evt.offset, evt.offsetPhi, helix.Upstream)
	ej.track.ThetaCM = evt.theta
	_, ej.cls, err = helix.Propagate(ej.track, s.array, s.cfg.Step)
	if err != nil {
		err = fmt.Errorf("ejectile: %w", err)
		if !errors.Is(err, iss.ErrInvalidKinematics) {
			return ej, rec, err
		}
		errs = append(errs, err)
	}

	rec.track = helix.NewTrack(prec, s.kin.RecoilMass, s.rx.RecoilQB(), helix.Downstream).
		WithVertex(evt.offset, evt.offsetPhi, helix.Downstream)
	rec.track.ThetaCM = evt.theta
	_, rec.cls, err = helix.Propagate(rec.track, s.recoil, s.cfg.Step)
	if err != nil {
		err = fmt.Errorf("recoil: %w", err)
		if !errors.Is(err, iss.ErrInvalidKinematics) {
			return ej, rec, err
		}
		errs = append(errs, err)
	}
	return ej, rec, errors.Join(errs...)
}
