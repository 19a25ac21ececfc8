package iss

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/fmom"
	"gonum.org/v1/gonum/spatial/r3"
)

// radicandEpsilon absorbs the rounding of E3^2-m3^2 at the energy
// threshold, relative to m3^2.
const radicandEpsilon = 1e-12

// Kinematics is the relativistic state of a reaction for one excitation
// energy of the recoil.
// Energies are in MeV, momenta in MeV/c.
type Kinematics struct {
	Excitation float64

	TBeam float64 // lab kinetic energy of the beam
	ELab  float64 // lab total energy of beam and target
	ECM   float64 // invariant mass of the system

	Gamma float64 // Lorentz factor between lab and CM frames
	Beta  float64

	RecoilMass float64 // invariant mass of the excited recoil

	E3 float64 // ejectile CM total energy
	P3 float64 // ejectile CM momentum
	E4 float64 // recoil CM total energy

	Radius float64 // effective array radius, in mm
}

// Compute derives the kinematic state of rx for a recoil excitation energy
// ex (MeV). It fails with ErrInvalidKinematics when the energy budget of the
// reaction cannot populate ex.
func Compute(rx Reaction, array Array, ex float64) (Kinematics, error) {
	var (
		m1 = rx.Beam
		m2 = rx.Target
		m3 = rx.Ejectile
	)
	k := Kinematics{
		Excitation: ex,
		Radius:     array.EffectiveRadius(),
	}

	k.TBeam = rx.EnergyPerNucleon * m1 / AMU
	e1 := k.TBeam + m1
	k.ELab = e1 + m2
	k.ECM = math.Sqrt(m1*m1 + m2*m2 + 2*e1*m2)

	k.Gamma = k.ELab / k.ECM
	if !(k.Gamma >= 1) {
		return k, fmt.Errorf("iss: Lorentz factor %v < 1: %w", k.Gamma, ErrInvalidKinematics)
	}
	k.Beta = math.Sqrt(1 - 1/(k.Gamma*k.Gamma))

	k.RecoilMass = rx.Recoil + ex
	k.E3 = (k.ECM*k.ECM + m3*m3 - k.RecoilMass*k.RecoilMass) / (2 * k.ECM)
	k.E4 = k.ECM - k.E3

	p2 := k.E3*k.E3 - m3*m3
	switch {
	case p2 < -radicandEpsilon*m3*m3, math.IsNaN(p2):
		return k, fmt.Errorf(
			"iss: excitation energy %v MeV above threshold %v MeV for %v: %w",
			ex, Threshold(rx), rx.Channel, ErrInvalidKinematics,
		)
	case p2 < 0:
		p2 = 0
	}
	k.P3 = math.Sqrt(p2)
	return k, nil
}

// Threshold returns the largest recoil excitation energy (MeV) the reaction
// can populate at the beam energy of rx.
func Threshold(rx Reaction) float64 {
	t := rx.EnergyPerNucleon * rx.Beam / AMU
	e1 := t + rx.Beam
	ecm := math.Sqrt(rx.Beam*rx.Beam + rx.Target*rx.Target + 2*e1*rx.Target)
	return ecm - rx.Ejectile - rx.Recoil
}

// Ejectile returns the CM four-momentum of the ejectile emitted at
// thetaCM (deg) and azimuth phi (rad). thetaCM is measured from the
// backward axis: p∥ = -p3·cos(thetaCM).
func (k Kinematics) Ejectile(thetaCM, phi float64) fmom.PxPyPzE {
	th := thetaCM * math.Pi / 180
	pt := k.P3 * math.Sin(th)
	return fmom.NewPxPyPzE(pt*math.Cos(phi), pt*math.Sin(phi), -k.P3*math.Cos(th), k.E3)
}

// Recoil returns the CM four-momentum of the recoil partnering the
// ejectile emitted at thetaCM (deg) and phi (rad).
func (k Kinematics) Recoil(thetaCM, phi float64) fmom.PxPyPzE {
	p := k.Ejectile(thetaCM, phi)
	return fmom.NewPxPyPzE(-p.Px(), -p.Py(), -p.Pz(), k.E4)
}

// Lab boosts a CM four-momentum into the laboratory frame.
func (k Kinematics) Lab(p fmom.PxPyPzE) fmom.PxPyPzE {
	lab := fmom.Boost(&p, r3.Vec{Z: k.Beta})
	return fmom.NewPxPyPzE(lab.Px(), lab.Py(), lab.Pz(), lab.E())
}
