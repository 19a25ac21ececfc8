package acceptance

import (
	"fmt"
	"math"
	"sort"

	"go-hep.org/x/hep/hbook"

	iss "github.com/PTMac73/ISS-Code-sub000"
	"github.com/PTMac73/ISS-Code-sub000/helix"
)

// SpectrumKey indexes the ejectile lab-energy spectra.
type SpectrumKey struct {
	Turns int  // revolutions started before the hit
	Above bool // passed above the shield
}

func (key SpectrumKey) String() string {
	side := "below"
	if key.Above {
		side = "above"
	}
	return fmt.Sprintf("turns=%d-%s", key.Turns, side)
}

// Bin accumulates the events of one CM-angle bin.
type Bin struct {
	ThetaLo float64 // in degrees
	ThetaHi float64 // in degrees

	Samples int
	Invalid int // tracks with an undefined trajectory

	Ejectile [4]int // ejectile outcomes, indexed by helix.Status
	Recoil   [4]int // recoil outcomes, indexed by helix.Status
	Both     int    // ejectile and recoil in active areas

	// Coverage sums 2π/Samples over the ejectiles stopped in the active
	// area of the array.
	Coverage float64

	Turns map[int]int // accepted ejectiles per revolution count
}

// Theta returns the centre of the bin, in degrees.
func (b *Bin) Theta() float64 {
	return 0.5 * (b.ThetaLo + b.ThetaHi)
}

// SolidAngle returns the solid angle (sr) covered by the array within the
// bin.
func (b *Bin) SolidAngle() float64 {
	lo := b.ThetaLo * math.Pi / 180
	hi := b.ThetaHi * math.Pi / 180
	return b.Coverage * (math.Cos(lo) - math.Cos(hi))
}

// Fraction returns the fraction of events with both the ejectile and the
// recoil detected.
func (b *Bin) Fraction() float64 {
	if b.Samples == 0 {
		return 0
	}
	return float64(b.Both) / float64(b.Samples)
}

// EjectileFraction returns the fraction of ejectiles detected.
func (b *Bin) EjectileFraction() float64 {
	if b.Samples == 0 {
		return 0
	}
	return float64(b.Ejectile[helix.Active]) / float64(b.Samples)
}

// Result is the outcome of an acceptance run.
type Result struct {
	Channel    iss.Channel
	Excitation float64 // in MeV
	Smoothing  int

	Bins []Bin

	// Spectra holds the lab kinetic energy of the detected ejectiles.
	Spectra map[SpectrumKey]*hbook.H1D
}

// SolidAngle returns the total solid angle (sr) covered by the array.
func (res *Result) SolidAngle() float64 {
	sum := 0.0
	for i := range res.Bins {
		sum += res.Bins[i].SolidAngle()
	}
	return sum
}

// SolidAngles returns the per-bin solid angles, in sr.
func (res *Result) SolidAngles() []float64 {
	out := make([]float64, len(res.Bins))
	for i := range res.Bins {
		out[i] = res.Bins[i].SolidAngle()
	}
	return out
}

// Fractions returns the per-bin fractions of events with both products
// detected.
func (res *Result) Fractions() []float64 {
	out := make([]float64, len(res.Bins))
	for i := range res.Bins {
		out[i] = res.Bins[i].Fraction()
	}
	return out
}

// Smoothed returns the moving average of the per-bin solid angles. Element
// j corresponds to bin j+res.Smoothing.
func (res *Result) Smoothed() ([]float64, error) {
	return MovingAverage(res.SolidAngles(), res.Smoothing)
}

// Keys returns the spectrum keys in increasing order of revolutions, below
// before above.
func (res *Result) Keys() []SpectrumKey {
	keys := make([]SpectrumKey, 0, len(res.Spectra))
	for k := range res.Spectra {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Turns != keys[j].Turns {
			return keys[i].Turns < keys[j].Turns
		}
		return !keys[i].Above && keys[j].Above
	})
	return keys
}
