// Package solve inverts the helical motion of the ejectile in the
// solenoid: it finds the CM scattering angle of an ejectile detected at a
// given axial position on the array, and the axial position at which an
// ejectile emitted at a given CM angle lands on the array.
//
// Axial positions are in cm, negative upstream of the target.
// Internally lengths are in mm, energies in MeV and momenta in MeV/c.
package solve

import (
	"fmt"
	"math"

	iss "github.com/PTMac73/ISS-Code-sub000"
)

const (
	DefaultTolerance = 1e-5   // in mm
	DefaultMaxIter   = 100000 // Newton-Raphson iterations

	maxHalvings = 64
)

// Solution is the outcome of a solve.
type Solution struct {
	ThetaCM    float64 // CM scattering angle, in degrees
	Z          float64 // axial position of the hit, in cm
	PParallel  float64 // CM momentum along the axis, in MeV/c
	PPerp      float64 // momentum transverse to the axis, in MeV/c
	Iterations int
	Residual   float64 // radial mismatch with the array, in mm
}

// Solver runs the Newton-Raphson iterations. The zero value is not usable;
// see New.
type Solver struct {
	Tolerance float64
	MaxIter   int

	// Seed, when set, replaces the initial guess of the CM parallel
	// momentum in ThetaCM.
	Seed *float64
}

// New returns a solver with the default tolerance and iteration cap.
func New() *Solver {
	return &Solver{
		Tolerance: DefaultTolerance,
		MaxIter:   DefaultMaxIter,
	}
}

func (sv *Solver) check() error {
	if !(sv.Tolerance > 0) || sv.MaxIter <= 0 {
		return fmt.Errorf(
			"solve: invalid solver (tolerance=%v, max-iter=%d): %w",
			sv.Tolerance, sv.MaxIter, iss.ErrConfig,
		)
	}
	return nil
}

// ThetaCM returns the CM angle of an ejectile hitting the array at the
// axial position z (cm).
//
// The iteration runs on the CM parallel momentum p. The transverse
// momentum follows from p3^2 = p^2 + pt^2 and the hit condition is
//
//	f(p) = 2 pt/qB · sin(qB·z / (2γ(p + β·E3))) - ρ = 0
//
// Any root on the first orbit is accepted; the root found is not
// guaranteed to be unique.
func (sv *Solver) ThetaCM(rx iss.Reaction, k iss.Kinematics, z float64) (Solution, error) {
	var sol Solution
	if err := sv.check(); err != nil {
		return sol, err
	}
	z *= 10 // cm -> mm
	sol.Z = z / 10

	if z == 0 || !(k.P3 > 0) {
		return sol, fmt.Errorf(
			"solve: no ejectile orbit for z=%v cm and p3=%v MeV/c: %w",
			sol.Z, k.P3, iss.ErrInvalidKinematics,
		)
	}
	if z > 0 {
		// the array sits upstream of the target.
		return sol, fmt.Errorf(
			"solve: z=%v cm downstream of the target: %w",
			sol.Z, iss.ErrInvalidKinematics,
		)
	}

	var (
		qB  = rx.QB
		rho = k.Radius
		p3  = k.P3
		be3 = k.Beta * k.E3
		a   = qB * z / (2 * k.Gamma)
	)

	// valid keeps the CM parallel momentum physical and the lab parallel
	// momentum pointing towards the array.
	valid := func(p float64) bool {
		return math.Abs(p) < p3 && (p+be3)*z > 0
	}

	// THIS IS A GUESS: the ejectile is assumed to come back to the axis
	// after exactly one cyclotron period. It only seeds the iteration.
	p := qB*z/(2*math.Pi)/k.Gamma - be3
	if sv.Seed != nil {
		p = *sv.Seed
	}
	if math.Abs(p) >= p3 {
		p = math.Copysign(0.999*p3, p)
	}
	if !valid(p) {
		return sol, fmt.Errorf(
			"solve: ejectiles cannot reach z=%v cm: %w",
			sol.Z, iss.ErrInvalidKinematics,
		)
	}

	var (
		best     = math.Inf(+1)
		bestP    = p
		bestIter = 0
		conv     = false
	)

	iter := 0
	for iter = 0; iter < sv.MaxIter; iter++ {
		pt := math.Sqrt(p3*p3 - p*p)
		u := p + be3
		phase := a / u
		sin, cos := math.Sincos(phase)
		f := 2*pt/qB*sin - rho

		if math.Abs(f) < best {
			best, bestP, bestIter = math.Abs(f), p, iter
		}
		if math.Abs(f) < sv.Tolerance {
			conv = true
			break
		}

		df := 2 / qB * (-p/pt*sin - pt*cos*a/(u*u))
		if df == 0 || math.IsNaN(df) || math.IsInf(df, 0) {
			break
		}

		next := p - f/df
		for i := 0; !valid(next) && i < maxHalvings; i++ {
			next = 0.5 * (next + p)
		}
		if !valid(next) {
			break
		}
		p = next
	}

	sol.PParallel = bestP
	sol.PPerp = math.Sqrt(p3*p3 - bestP*bestP)
	sol.Iterations = bestIter
	sol.Residual = best
	theta, err := thetaOf(bestP, p3)
	if err != nil {
		return sol, err
	}
	sol.ThetaCM = theta

	if !conv {
		return sol, fmt.Errorf(
			"solve: z=%v cm: residual %v mm after %d iterations: %w",
			sol.Z, best, iter, iss.ErrNonConvergence,
		)
	}

	if phase := a / (bestP + be3); phase > math.Pi {
		return sol, fmt.Errorf(
			"solve: z=%v cm: root beyond the first orbit (phase=%v): %w",
			sol.Z, phase, iss.ErrInvalidKinematics,
		)
	}
	return sol, nil
}

// AxialPosition returns the axial position (cm) at which an ejectile
// emitted at the CM angle theta (deg) lands on the array.
//
// The iteration runs on z with
//
//	f(z) = 2r · sin(pt·z / (2r·p∥)) - ρ = 0
//
// where r is the radius of gyration and p∥ the lab parallel momentum.
// The ejectile lands while coming back towards the axis, on the first
// orbit: the half-phase lies in [π/2, π].
func (sv *Solver) AxialPosition(rx iss.Reaction, k iss.Kinematics, theta float64) (Solution, error) {
	var sol Solution
	if err := sv.check(); err != nil {
		return sol, err
	}
	sol.ThetaCM = theta
	if !(theta > 0 && theta < 180) {
		return sol, fmt.Errorf("solve: CM angle %v deg out of (0, 180): %w", theta, iss.ErrInvalidKinematics)
	}

	th := theta * math.Pi / 180
	sol.PParallel = -k.P3 * math.Cos(th)
	sol.PPerp = k.P3 * math.Sin(th)

	var (
		qB  = rx.QB
		rho = k.Radius
		pz  = k.Gamma * (sol.PParallel + k.Beta*k.E3)
		r   = iss.GyroRadius(sol.PPerp, qB)
	)
	switch {
	case pz >= 0:
		return sol, fmt.Errorf(
			"solve: theta=%v deg: lab p∥=%v MeV/c does not point upstream: %w",
			theta, pz, iss.ErrInvalidKinematics,
		)
	case 2*r < rho:
		return sol, fmt.Errorf(
			"solve: theta=%v deg: orbit diameter %v mm below array radius %v mm: %w",
			theta, 2*r, rho, iss.ErrInvalidKinematics,
		)
	}

	// z <-> half-phase ψ = qB·z/(2 pz)
	var (
		scale = 2 * pz / qB
		lo    = 0.5 * math.Pi
		hi    = math.Pi
		z     = scale * 0.75 * math.Pi
		best  = math.Inf(+1)
		bestZ = z
		conv  = false
	)
	inside := func(z float64) bool {
		psi := z / scale
		return psi >= lo && psi <= hi
	}

	iter := 0
	for iter = 0; iter < sv.MaxIter; iter++ {
		sin, cos := math.Sincos(z / scale)
		f := 2*r*sin - rho
		if math.Abs(f) < best {
			best, bestZ, sol.Iterations = math.Abs(f), z, iter
		}
		if math.Abs(f) < sv.Tolerance {
			conv = true
			break
		}

		df := 2 * r * cos / scale
		next := z
		if df != 0 {
			next = z - f/df
		}
		for i := 0; !inside(next) && i < maxHalvings; i++ {
			next = 0.5 * (next + z)
		}
		if next == z {
			// stuck on the turning point: step into the descending branch.
			next = scale * 0.5 * (z/scale + hi)
		}
		z = next
	}

	sol.Z = bestZ / 10
	sol.Residual = best
	if !conv {
		return sol, fmt.Errorf(
			"solve: theta=%v deg: residual %v mm after %d iterations: %w",
			theta, best, iter, iss.ErrNonConvergence,
		)
	}
	return sol, nil
}

// thetaOf converts the CM parallel momentum into the CM angle, in degrees.
func thetaOf(p, p3 float64) (float64, error) {
	c := p / p3
	if !(c >= -1 && c <= 1) {
		return 0, fmt.Errorf("solve: arccos argument %v out of [-1, 1]: %w", c, iss.ErrInvalidKinematics)
	}
	return 180 - math.Acos(c)*180/math.Pi, nil
}
