package iss

import (
	"fmt"
	"math"
)

// Region identifies the part of a Geometry a point lies in.
type Region int

const (
	Vacuum Region = iota
	InShield
	Beyond // past the detector plane
)

// Array describes the on-axis silicon array detecting the ejectiles: a
// prism of flat faces around the beam axis, each face carrying a row of
// wafers segmented into strips along the axis.
// Lengths are in mm.
type Array struct {
	FaceDistance float64 // perpendicular distance of a face from the axis
	FaceWidth    float64 // active width of a face
	Wafers       int     // wafers along the axis
	WaferLength  float64 // active length of a wafer along the axis
	WaferGap     float64 // dead length between consecutive wafers
	Strips       int     // strips per wafer
	Front        float64 // distance from the target to the first active edge
}

// DefaultArray returns the array used in the 28Mg(d,p) campaign.
func DefaultArray() Array {
	return Array{
		FaceDistance: 27.0,
		FaceWidth:    22.0,
		Wafers:       4,
		WaferLength:  125.0,
		WaferGap:     1.5,
		Strips:       128,
		Front:        100.0,
	}
}

// EffectiveRadius returns the mean distance from the axis across the
// active width of a face.
func (a Array) EffectiveRadius() float64 {
	d := a.FaceDistance
	h := 0.5 * a.FaceWidth
	if h <= 0 {
		return d
	}
	s := math.Hypot(d, h)
	if d == 0 {
		return 0.5 * s
	}
	return (h*s + d*d*math.Log((h+s)/d)) / (2 * h)
}

// CornerRadius returns the distance from the axis of the edge of a face.
func (a Array) CornerRadius() float64 {
	return math.Hypot(a.FaceDistance, 0.5*a.FaceWidth)
}

// Length returns the axial extent of the array, gaps included.
func (a Array) Length() float64 {
	if a.Wafers <= 0 {
		return 0
	}
	return float64(a.Wafers)*a.WaferLength + float64(a.Wafers-1)*a.WaferGap
}

// Back returns the distance from the target to the last active edge.
func (a Array) Back() float64 {
	return a.Front + a.Length()
}

// Strip returns the index of the strip covering the axial distance s from
// the target, counting from the strip nearest to the target.
// ok is false when s falls in a gap or outside the array.
func (a Array) Strip(s float64) (strip int, ok bool) {
	x := s - a.Front
	if x < 0 || x > a.Length() || a.Strips <= 0 {
		return -1, false
	}
	pitch := a.WaferLength + a.WaferGap
	wafer := int(x / pitch)
	if wafer >= a.Wafers {
		wafer = a.Wafers - 1
	}
	local := x - float64(wafer)*pitch
	if local > a.WaferLength {
		return -1, false
	}
	i := int(local / (a.WaferLength / float64(a.Strips)))
	if i >= a.Strips {
		i = a.Strips - 1
	}
	return wafer*a.Strips + i, true
}

// Geometry describes one side of the spectrometer, as seen by a particle
// leaving the target. Axial positions are distances from the target along
// the flight direction; all lengths are in mm.
//
// The shield is an annulus spanning [ShieldFront, ShieldBack]. The tube, of
// radius TubeRadius, spans [DetectorFront, DetectorPlane]. When Array is
// set, the tube is the active surface of the array; otherwise the detector
// is an annulus [ActiveInner, ActiveOuter] at DetectorPlane inside a housing
// of radius TubeRadius.
type Geometry struct {
	ShieldInner float64
	ShieldOuter float64
	ShieldFront float64
	ShieldBack  float64

	TubeRadius float64

	ActiveInner float64
	ActiveOuter float64

	DetectorFront float64
	DetectorPlane float64

	Array *Array
}

// ArraySide returns the ejectile side of the spectrometer built around a:
// the target shield followed by the array.
func ArraySide(a Array) Geometry {
	return Geometry{
		ShieldInner:   40.0,
		ShieldOuter:   48.0,
		ShieldFront:   20.0,
		ShieldBack:    25.0,
		TubeRadius:    a.EffectiveRadius(),
		ActiveInner:   a.FaceDistance,
		ActiveOuter:   a.CornerRadius(),
		DetectorFront: a.Front,
		DetectorPlane: a.Back(),
		Array:         &a,
	}
}

// RecoilSide returns the recoil side of the spectrometer: a beam blocker
// in front of an annular silicon detector mounted in its housing.
func RecoilSide() Geometry {
	return Geometry{
		ShieldInner:   0.0,
		ShieldOuter:   4.0,
		ShieldFront:   600.0,
		ShieldBack:    605.0,
		TubeRadius:    40.0,
		ActiveInner:   8.0,
		ActiveOuter:   32.0,
		DetectorFront: 900.0,
		DetectorPlane: 1000.0,
	}
}

// Validate checks that radii and axial positions are non-negative and
// ordered.
func (g Geometry) Validate() error {
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"shield inner radius", g.ShieldInner},
		{"shield outer radius", g.ShieldOuter},
		{"shield front", g.ShieldFront},
		{"shield back", g.ShieldBack},
		{"tube radius", g.TubeRadius},
		{"active inner radius", g.ActiveInner},
		{"active outer radius", g.ActiveOuter},
		{"detector front", g.DetectorFront},
		{"detector plane", g.DetectorPlane},
	} {
		if !(v.val >= 0) || math.IsInf(v.val, 0) {
			return fmt.Errorf("iss: %s = %v: %w", v.name, v.val, ErrGeometry)
		}
	}
	switch {
	case g.ShieldInner > g.ShieldOuter:
		return fmt.Errorf("iss: shield inner radius %v > outer radius %v: %w", g.ShieldInner, g.ShieldOuter, ErrGeometry)
	case g.ActiveInner > g.ActiveOuter:
		return fmt.Errorf("iss: active inner radius %v > outer radius %v: %w", g.ActiveInner, g.ActiveOuter, ErrGeometry)
	case g.ShieldFront > g.ShieldBack:
		return fmt.Errorf("iss: shield front %v > shield back %v: %w", g.ShieldFront, g.ShieldBack, ErrGeometry)
	case g.ShieldBack > g.DetectorPlane:
		return fmt.Errorf("iss: shield back %v > detector plane %v: %w", g.ShieldBack, g.DetectorPlane, ErrGeometry)
	case g.DetectorFront > g.DetectorPlane:
		return fmt.Errorf("iss: detector front %v > detector plane %v: %w", g.DetectorFront, g.DetectorPlane, ErrGeometry)
	case g.Array == nil && g.ActiveOuter > g.TubeRadius:
		return fmt.Errorf("iss: active outer radius %v > tube radius %v: %w", g.ActiveOuter, g.TubeRadius, ErrGeometry)
	case g.Array != nil && g.Array.Strips <= 0:
		return fmt.Errorf("iss: array without strips: %w", ErrGeometry)
	}
	return nil
}

// Region locates the point at axial distance s and radius r.
func (g Geometry) Region(s, r float64) Region {
	switch {
	case s > g.DetectorPlane:
		return Beyond
	case s >= g.ShieldFront && s <= g.ShieldBack &&
		r > g.ShieldInner && r < g.ShieldOuter:
		return InShield
	}
	return Vacuum
}

// InDetectorSpan reports whether s lies within the axial span of the tube.
func (g Geometry) InDetectorSpan(s float64) bool {
	return s >= g.DetectorFront && s <= g.DetectorPlane
}

// GyroRadius returns the radius (mm) of the circular motion of a particle
// with transverse momentum pPerp (MeV/c) for a charge-field product qB
// (MeV/c per mm).
func GyroRadius(pPerp, qB float64) float64 {
	return math.Abs(pPerp / qB)
}

// Crossing linearly interpolates the axial position where the segment
// (s0, r0)-(s1, r1) crosses the radius b.
func Crossing(s0, r0, s1, r1, b float64) float64 {
	if r1 == r0 {
		return s1
	}
	return s0 + (b-r0)*(s1-s0)/(r1-r0)
}
