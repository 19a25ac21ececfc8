package iss

import "errors"

var (
	// ErrInvalidKinematics reports a physically impossible state: the energy
	// budget is exceeded, an angle falls outside its domain or a trajectory
	// never advances along the axis.
	ErrInvalidKinematics = errors.New("iss: invalid kinematics")

	// ErrNonConvergence reports a Newton-Raphson iteration cap reached without
	// meeting the tolerance.
	ErrNonConvergence = errors.New("iss: no convergence")

	// ErrSamplingExhausted reports a rejection-sampling loop which found no
	// valid sample within its bounded number of attempts.
	ErrSamplingExhausted = errors.New("iss: sampling exhausted")

	// ErrGeometry reports an inconsistent detector geometry.
	ErrGeometry = errors.New("iss: invalid geometry")

	// ErrConfig reports invalid settings of a reaction, a solver or a run.
	ErrConfig = errors.New("iss: configuration error")
)
