package gait

import (
	"math"

	"github.com/bft-labs/slither/internal/domain"
)

// Normalizer turns a raw gait angle into a servo command.
type Normalizer struct {
	// Calibration is added per joint; joints without an entry get zero.
	Calibration []int

	// Bias is added after calibration (90 for serpentine, 0 for sidewinding).
	Bias float64
}

// Normalize adds calibration and bias, rounds half to even, and saturates
// into [MinAngle, MaxAngle]. Out-of-range values are clamped, never wrapped
// and never reported: an aggressive profile must not command an invalid pulse.
func (n Normalizer) Normalize(raw float64, joint int) int {
	v := raw + n.Bias
	if joint >= 0 && joint < len(n.Calibration) {
		v += float64(n.Calibration[joint])
	}
	if math.IsNaN(v) {
		return domain.MinAngle
	}
	v = math.RoundToEven(v)
	switch {
	case v < domain.MinAngle:
		return domain.MinAngle
	case v > domain.MaxAngle:
		return domain.MaxAngle
	}
	return int(v)
}
