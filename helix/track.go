package helix

import (
	"math"

	"go-hep.org/x/hep/fmom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Direction is the side of the target a detector sits on.
type Direction int

const (
	Upstream   Direction = -1
	Downstream Direction = +1
)

// Track is one sampled trajectory, expressed in the flight frame of its
// detector side: the axis points from the target towards the detector and
// azimuths are measured in that frame.
type Track struct {
	ThetaCM float64 // CM scattering angle, in degrees
	Phi     float64 // azimuth of the transverse velocity, in rad

	BeamOffset    float64 // distance of the reaction vertex from the axis, in mm
	BeamOffsetPhi float64 // azimuth of the reaction vertex, in rad

	VParallel      float64 // towards the detector, in c
	VPerpendicular float64 // in c
	Omega          float64 // signed cyclotron frequency, in rad/ns

	Energy float64 // lab kinetic energy, in MeV
}

// NewTrack builds the track of a particle of the given rest mass (MeV/c^2)
// leaving the target with the lab four-momentum p, towards the detector on
// side dir. Looking along the flight direction of an upstream detector
// mirrors the transverse plane and reverses the sense of rotation.
func NewTrack(p fmom.PxPyPzE, mass, qB float64, dir Direction) Track {
	e := p.E()
	sign := float64(dir)
	return Track{
		Phi:            sign * math.Atan2(p.Py(), p.Px()),
		VParallel:      sign * p.Pz() / e,
		VPerpendicular: p.Pt() / e,
		Omega:          sign * CyclotronFrequency(qB, e),
		Energy:         e - mass,
	}
}

// WithVertex returns a copy of t leaving from a reaction vertex at distance
// r (mm) from the axis and lab azimuth phi (rad).
func (t Track) WithVertex(r, phi float64, dir Direction) Track {
	t.BeamOffset = r
	t.BeamOffsetPhi = float64(dir) * phi
	return t
}

// Position returns the transverse position of the particle after an axial
// flight distance s (mm); the Z component holds s.
func (t Track) Position(s float64) r3.Vec {
	var (
		u = LateralAtAxialPosition(t.Omega, s, t.VParallel, t.VPerpendicular)
		w = RadiusAtAxialPosition(t.Omega, s, t.VParallel, t.VPerpendicular)

		sin, cos = math.Sincos(t.Phi)
		ev       = r3.Vec{X: cos, Y: sin}
		en       = r3.Vec{X: -sin, Y: cos}
	)
	sin, cos = math.Sincos(t.BeamOffsetPhi)
	pos := r3.Scale(t.BeamOffset, r3.Vec{X: cos, Y: sin})
	pos = r3.Add(pos, r3.Add(r3.Scale(u, ev), r3.Scale(w, en)))
	pos.Z = s
	return pos
}

// Radius returns the distance (mm) of the particle from the axis after an
// axial flight distance s (mm).
func (t Track) Radius(s float64) float64 {
	pos := t.Position(s)
	return math.Hypot(pos.X, pos.Y)
}
