package acceptance

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	iss "github.com/PTMac73/ISS-Code-sub000"
	"github.com/PTMac73/ISS-Code-sub000/helix"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ThetaMin = 10
	cfg.ThetaMax = 50
	cfg.ThetaStep = 5
	cfg.Samples = 100
	cfg.Step = 2
	cfg.Workers = 2
	cfg.Smoothing = 1
	return cfg
}

func newSampler(t *testing.T, cfg Config, logger *slog.Logger) *Sampler {
	t.Helper()
	rx, err := iss.NewReaction(iss.MgDP, 2.5, 9.473)
	require.NoError(t, err)
	array := iss.DefaultArray()
	k, err := iss.Compute(rx, array, 0)
	require.NoError(t, err)
	s, err := New(rx, k, iss.ArraySide(array), iss.RecoilSide(), cfg, logger)
	require.NoError(t, err)
	return s
}

func TestRun(t *testing.T) {
	cfg := testConfig()
	res, err := newSampler(t, cfg, nil).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Bins, cfg.Bins())
	assert.Equal(t, iss.MgDP, res.Channel)

	omega := res.SolidAngle()
	assert.Greater(t, omega, 0.0)
	assert.LessOrEqual(t, omega, 4*math.Pi)

	accepted := 0
	for i, bin := range res.Bins {
		assert.InDelta(t, cfg.ThetaMin+float64(i)*cfg.ThetaStep, bin.ThetaLo, 1e-12)
		assert.Equal(t, cfg.Samples, bin.Samples)

		total := 0
		for _, n := range bin.Ejectile {
			total += n
		}
		assert.Equal(t, bin.Samples, total, "bin %d", i)

		for _, frac := range []float64{bin.Fraction(), bin.EjectileFraction()} {
			assert.GreaterOrEqual(t, frac, 0.0)
			assert.LessOrEqual(t, frac, 1.0)
		}
		assert.LessOrEqual(t, bin.Both, bin.Ejectile[helix.Active])
		assert.InDelta(t, 2*math.Pi*bin.EjectileFraction(), bin.Coverage, 1e-9)

		turns := 0
		for _, n := range bin.Turns {
			turns += n
		}
		assert.Equal(t, bin.Ejectile[helix.Active], turns, "bin %d", i)
		accepted += bin.Ejectile[helix.Active]
	}
	assert.Greater(t, accepted, 0)

	var entries int64
	for _, key := range res.Keys() {
		entries += res.Spectra[key].Entries()
	}
	assert.Equal(t, int64(accepted), entries)

	smooth, err := res.Smoothed()
	require.NoError(t, err)
	assert.Len(t, smooth, len(res.Bins)-2*cfg.Smoothing)
}

func TestRunWorkers(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 1
	want, err := newSampler(t, cfg, nil).Run(context.Background())
	require.NoError(t, err)

	for _, n := range []int{3, 8} {
		cfg.Workers = n
		got, err := newSampler(t, cfg, nil).Run(context.Background())
		require.NoError(t, err)
		if diff := cmp.Diff(want.Bins, got.Bins); diff != "" {
			t.Fatalf("workers=%d: bins differ (-want +got):\n%s", n, diff)
		}
		require.Equal(t, want.Keys(), got.Keys())
		for _, key := range want.Keys() {
			assert.Equal(t, want.Spectra[key].Entries(), got.Spectra[key].Entries(), "key=%v", key)
			assert.Equal(t, want.Spectra[key].SumW(), got.Spectra[key].SumW(), "key=%v", key)
		}
	}
}

func TestRunSeed(t *testing.T) {
	cfg := testConfig()
	a, err := newSampler(t, cfg, nil).Run(context.Background())
	require.NoError(t, err)

	cfg.Seed++
	b, err := newSampler(t, cfg, nil).Run(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.SolidAngles(), b.SolidAngles())
}

func TestRunVariance(t *testing.T) {
	if testing.Short() {
		t.Skip("long test")
	}

	variance := func(samples int) float64 {
		var omegas []float64
		for seed := uint64(1); seed <= 12; seed++ {
			cfg := testConfig()
			cfg.ThetaMin = 40
			cfg.ThetaMax = 44
			cfg.ThetaStep = 2
			cfg.Smoothing = 0
			cfg.Samples = samples
			cfg.Seed = seed
			res, err := newSampler(t, cfg, nil).Run(context.Background())
			require.NoError(t, err)
			omegas = append(omegas, res.SolidAngle())
		}
		return stat.Variance(omegas, nil)
	}

	small := variance(50)
	large := variance(1000)
	assert.Greater(t, small, 0.0)
	assert.Less(t, large, small)
}

func TestRunExhausted(t *testing.T) {
	cfg := testConfig()
	cfg.Aperture = 0
	cfg.MaxResample = 10
	_, err := newSampler(t, cfg, nil).Run(context.Background())
	require.ErrorIs(t, err, iss.ErrSamplingExhausted)
}

func TestRunInvalidTracks(t *testing.T) {
	cfg := testConfig()
	cfg.ThetaMin = 20
	cfg.ThetaMax = 30

	rx, err := iss.NewReaction(iss.MgDP, 2.5, 9.473)
	require.NoError(t, err)
	array := iss.DefaultArray()
	k, err := iss.Compute(rx, array, 0)
	require.NoError(t, err)

	ref, err := New(rx, k, iss.ArraySide(array), iss.RecoilSide(), cfg, nil)
	require.NoError(t, err)
	want, err := ref.Run(context.Background())
	require.NoError(t, err)

	// no ejectile trajectory is defined, recoils are untouched.
	k.E3 = math.NaN()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	s, err := New(rx, k, iss.ArraySide(array), iss.RecoilSide(), cfg, logger)
	require.NoError(t, err)
	got, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Bins, len(want.Bins))

	for i, bin := range got.Bins {
		assert.Equal(t, cfg.Samples, bin.Samples, "bin=%d", i)
		assert.Equal(t, bin.Samples, bin.Invalid, "bin=%d", i)
		assert.Equal(t, bin.Samples, bin.Ejectile[helix.Miss], "bin=%d", i)
		assert.Equal(t, 0.0, bin.Coverage, "bin=%d", i)
		assert.Equal(t, 0, bin.Both, "bin=%d", i)
		assert.Equal(t, want.Bins[i].Recoil, bin.Recoil, "bin=%d", i)
	}
	assert.Empty(t, got.Spectra)
	assert.Equal(t, 0.0, got.SolidAngle())
	assert.Contains(t, buf.String(), "invalid tracks in bin")
}

func TestRunPencilBeam(t *testing.T) {
	cfg := testConfig()
	cfg.BeamFWHM = 0
	cfg.Aperture = 0
	res, err := newSampler(t, cfg, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Greater(t, res.SolidAngle(), 0.0)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newSampler(t, testConfig(), nil).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	_, err := newSampler(t, testConfig(), logger).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"acceptance run done"`)
	assert.Contains(t, buf.String(), `"channel":"28Mg(d,p)29Mg"`)
}

func TestNew(t *testing.T) {
	rx, err := iss.NewReaction(iss.SiDP, 2.5, 9.473)
	require.NoError(t, err)
	array := iss.DefaultArray()
	k, err := iss.Compute(rx, array, 0)
	require.NoError(t, err)

	bad := testConfig()
	bad.Samples = 0
	_, err = New(rx, k, iss.ArraySide(array), iss.RecoilSide(), bad, nil)
	require.ErrorIs(t, err, iss.ErrConfig)

	_, err = New(rx, k, iss.RecoilSide(), iss.RecoilSide(), testConfig(), nil)
	require.ErrorIs(t, err, iss.ErrGeometry)

	recoil := iss.RecoilSide()
	recoil.ShieldFront = -1
	_, err = New(rx, k, iss.ArraySide(array), recoil, testConfig(), nil)
	require.ErrorIs(t, err, iss.ErrGeometry)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	assert.Equal(t, 60, DefaultConfig().Bins())

	for _, tc := range []struct {
		name string
		edit func(cfg *Config)
	}{
		{"zero step", func(cfg *Config) { cfg.ThetaStep = 0 }},
		{"inverted range", func(cfg *Config) { cfg.ThetaMin, cfg.ThetaMax = 60, 0 }},
		{"range past 180", func(cfg *Config) { cfg.ThetaMax = 190 }},
		{"narrow range", func(cfg *Config) { cfg.ThetaMax = 0.2 }},
		{"negative fwhm", func(cfg *Config) { cfg.BeamFWHM = -1 }},
		{"negative aperture", func(cfg *Config) { cfg.Aperture = -1 }},
		{"no resample", func(cfg *Config) { cfg.MaxResample = 0 }},
		{"nan step", func(cfg *Config) { cfg.Step = math.NaN() }},
		{"negative workers", func(cfg *Config) { cfg.Workers = -2 }},
		{"energy binning", func(cfg *Config) { cfg.EnergyMin = 30 }},
		{"negative smoothing", func(cfg *Config) { cfg.Smoothing = -1 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.edit(&cfg)
			require.ErrorIs(t, cfg.Validate(), iss.ErrConfig)
		})
	}
}
