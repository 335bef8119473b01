// Package actuator emulates the servo controller at the far end of a link.
// It decodes wire frames and converts angles to the PWM settings the
// firmware would apply, so the controller can be exercised without a robot.
package actuator

import (
	"time"

	"github.com/bft-labs/slither/internal/domain"
)

// Servo timing for the hobby servos on the robot, driven at 50 Hz.
const (
	MinPulse = 1000 * time.Microsecond
	MaxPulse = 2600 * time.Microsecond
	Period   = 20 * time.Millisecond

	dutyFull = 65535
)

// PulseWidth maps an angle in degrees to the servo pulse width. Angles
// outside [0,180] are clamped first.
func PulseWidth(angle int) time.Duration {
	angle = clampAngle(angle)
	span := MaxPulse - MinPulse
	return MinPulse + span*time.Duration(angle)/domain.MaxAngle
}

// DutyU16 converts an angle to a 16-bit PWM duty value for a 20 ms period,
// truncating the way the firmware does.
func DutyU16(angle int) uint16 {
	us := float64(MinPulse/time.Microsecond) +
		float64((MaxPulse-MinPulse)/time.Microsecond)*float64(clampAngle(angle))/domain.MaxAngle
	return uint16(us * dutyFull / float64(Period/time.Microsecond))
}

func clampAngle(a int) int {
	if a < domain.MinAngle {
		return domain.MinAngle
	}
	if a > domain.MaxAngle {
		return domain.MaxAngle
	}
	return a
}
