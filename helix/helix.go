// Package helix propagates charged particles along their helical orbits in
// the solenoid field and classifies where they stop in a spectrometer
// Geometry.
//
// Distances are in mm, velocities in units of c and angular frequencies in
// rad/ns.
package helix

import (
	"math"

	iss "github.com/PTMac73/ISS-Code-sub000"
)

const c = iss.SpeedOfLight // in mm/ns

// CyclotronFrequency returns the angular frequency (rad/ns) of a particle of
// total energy (MeV) in a field, given its charge-field product qB (MeV/c
// per mm). The sign of qB gives the sense of rotation.
func CyclotronFrequency(qB, energy float64) float64 {
	return qB * c / energy
}

// RadiusAtAxialPosition returns the projection of the helix at the axial
// distance z onto the direction pointing to the centre of gyration:
//
//	r(z) = (v⊥·c/ω)·(1 - cos(ω·z/(v∥·c)))
//
// It returns NaN when vPar is zero: the particle never advances.
func RadiusAtAxialPosition(omega, z, vPar, vPerp float64) float64 {
	if vPar == 0 {
		return math.NaN()
	}
	if omega == 0 {
		return 0
	}
	return vPerp * c / omega * (1 - math.Cos(omega*z/(vPar*c)))
}

// LateralAtAxialPosition returns the projection of the helix at the axial
// distance z onto the initial direction of the transverse velocity.
func LateralAtAxialPosition(omega, z, vPar, vPerp float64) float64 {
	if vPar == 0 {
		return math.NaN()
	}
	if omega == 0 {
		return vPerp * z / vPar
	}
	return vPerp * c / omega * math.Sin(omega*z/(vPar*c))
}

// Period returns the axial distance (mm) covered during one revolution.
func Period(omega, vPar float64) float64 {
	return 2 * math.Pi * math.Abs(vPar*c/omega)
}
