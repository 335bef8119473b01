// Package gait maps elapsed time and joint index to servo angles.
//
// A [Function] produces raw joint angles in degrees; a [Normalizer] applies
// calibration and the gait's centering bias, then saturates the result into
// the actuator range. Both are pure: they never block, never fail and hold no
// mutable state, so one instance may be shared by any number of goroutines.
package gait

import (
	"fmt"
	"time"

	"github.com/bft-labs/slither/internal/domain"
)

// Function is a gait law: a pure mapping from (joint, t) to a raw angle.
type Function interface {
	// Angle returns the raw angle in degrees for joint at elapsed seconds.
	Angle(joint int, elapsed float64) float64

	// Joints returns the number of joints in every frame.
	Joints() int
}

// ForKind returns the gait law and matching normalizer for kind.
func ForKind(kind domain.GaitKind, profile domain.Profile) (Function, Normalizer, error) {
	switch kind {
	case domain.Serpentine:
		return NewSerpentine(profile.Joints, profile.Serpentine),
			Normalizer{Calibration: profile.Joints.Calibration, Bias: SerpentineBias}, nil
	case domain.Sidewinding:
		return NewSidewinding(profile.Sidewinding),
			Normalizer{Calibration: profile.Sidewinding.Calibration}, nil
	default:
		return nil, Normalizer{}, fmt.Errorf("%w: %q", domain.ErrUnknownGait, kind)
	}
}

// Compute evaluates one complete frame at elapsed.
func Compute(fn Function, norm Normalizer, elapsed time.Duration) domain.Frame {
	t := elapsed.Seconds()
	frame := make(domain.Frame, fn.Joints())
	for j := range frame {
		frame[j] = norm.Normalize(fn.Angle(j, t), j)
	}
	return frame
}
