package iss

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testField  = 2.5   // T
	testEnergy = 9.473 // MeV/u
)

func newTestReaction(t *testing.T, ch Channel) Reaction {
	t.Helper()
	rx, err := NewReaction(ch, testField, testEnergy)
	require.NoError(t, err)
	return rx
}

func TestNewReaction(t *testing.T) {
	rx := newTestReaction(t, MgDP)
	assert.Equal(t, 1, rx.Charge)
	assert.Equal(t, 12, rx.RecoilCharge)
	assert.InDelta(t, 0.749481145, rx.QB, 1e-9)
	assert.InDelta(t, 1.4310, rx.QValue(), 1e-3)
	assert.InDelta(t, 12*0.749481145, rx.RecoilQB(), 1e-9)

	si := newTestReaction(t, SiDP)
	assert.Equal(t, 14, si.RecoilCharge)
	assert.InDelta(t, 6.2490, si.QValue(), 1e-3)

	for _, tc := range []struct {
		name   string
		ch     Channel
		field  float64
		energy float64
	}{
		{"bad channel", Channel(7), testField, testEnergy},
		{"zero field", MgDP, 0, testEnergy},
		{"negative energy", MgDP, testField, -1},
		{"nan field", MgDP, math.NaN(), testEnergy},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewReaction(tc.ch, tc.field, tc.energy)
			require.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestParseChannel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Channel
	}{
		{"mg", MgDP},
		{" Si ", SiDP},
		{"28Mg(d,p)29Mg", MgDP},
	} {
		ch, err := ParseChannel(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, ch, tc.in)
	}

	_, err := ParseChannel("fe")
	require.ErrorIs(t, err, ErrConfig)
	assert.Equal(t, "28Si(d,p)29Si", SiDP.String())
	assert.Equal(t, "Channel(9)", Channel(9).String())
}

func TestCompute(t *testing.T) {
	rx := newTestReaction(t, MgDP)
	k, err := Compute(rx, DefaultArray(), 0)
	require.NoError(t, err)

	assert.InDelta(t, testEnergy*rx.Beam/AMU, k.TBeam, 1e-9)
	assert.InDelta(t, 27954.085, k.ECM, 1e-2)
	assert.InDelta(t, 1.0088445, k.Gamma, 1e-6)
	assert.InDelta(t, 0.1321254, k.Beta, 1e-6)
	assert.InDelta(t, 956.8394, k.E3, 1e-3)
	assert.InDelta(t, 187.5825, k.P3, 1e-3)
	assert.InDelta(t, k.ECM, k.E3+k.E4, 1e-9)
	assert.InDelta(t, 27.729339, k.Radius, 1e-6)
	assert.Equal(t, rx.Recoil, k.RecoilMass)
}

func TestComputeRange(t *testing.T) {
	for _, ch := range []Channel{MgDP, SiDP} {
		rx := newTestReaction(t, ch)
		thr := Threshold(rx)
		require.Greater(t, thr, rx.QValue())

		prev := math.Inf(+1)
		for _, frac := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 0.99} {
			ex := frac * thr
			k, err := Compute(rx, DefaultArray(), ex)
			require.NoError(t, err, "%v ex=%v", ch, ex)
			assert.GreaterOrEqual(t, k.Gamma, 1.0)
			assert.GreaterOrEqual(t, k.Beta, 0.0)
			assert.Less(t, k.Beta, 1.0)
			assert.Less(t, k.P3, prev, "p3 decreases with the excitation energy")
			prev = k.P3
		}
	}
}

func TestComputeThreshold(t *testing.T) {
	rx := newTestReaction(t, MgDP)
	thr := Threshold(rx)

	k, err := Compute(rx, DefaultArray(), thr)
	require.NoError(t, err)
	assert.InDelta(t, 0, k.P3, 1e-3)

	_, err = Compute(rx, DefaultArray(), thr+0.01)
	require.ErrorIs(t, err, ErrInvalidKinematics)
}

func TestLab(t *testing.T) {
	rx := newTestReaction(t, MgDP)
	k, err := Compute(rx, DefaultArray(), 1.0)
	require.NoError(t, err)

	for _, theta := range []float64{0, 10, 45, 90, 135, 180} {
		cm := k.Ejectile(theta, 0.3)
		assert.InDelta(t, k.P3, cm.P(), 1e-9)

		lab := k.Lab(cm)
		assert.InDelta(t, rx.Ejectile, lab.M(), 1e-6, "theta=%v", theta)
		assert.InDelta(t, k.Gamma*(cm.Pz()+k.Beta*cm.E()), lab.Pz(), 1e-6, "theta=%v", theta)
		assert.InDelta(t, cm.Pt(), lab.Pt(), 1e-9, "theta=%v", theta)

		rec := k.Lab(k.Recoil(theta, 0.3))
		assert.InDelta(t, k.RecoilMass, rec.M(), 1e-4, "theta=%v", theta)
		assert.InDelta(t, k.ELab, lab.E()+rec.E(), 1e-6, "theta=%v", theta)
	}

	// backward CM emission at small angles goes upstream in the lab.
	lab := k.Lab(k.Ejectile(20, 0))
	assert.Less(t, lab.Pz(), 0.0)
}
