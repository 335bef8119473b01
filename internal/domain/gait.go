package domain

import (
	"fmt"
	"math"
	"strings"
)

// GaitKind identifies a gait family.
type GaitKind string

const (
	// Serpentine is the traveling-wave gait.
	Serpentine GaitKind = "serpentine"

	// Sidewinding is the lateral-wave gait.
	Sidewinding GaitKind = "sidewinding"
)

// GaitKinds returns all implemented gait kinds in a stable order.
func GaitKinds() []GaitKind {
	return []GaitKind{Serpentine, Sidewinding}
}

// ParseGaitKind parses a case-insensitive gait name.
func ParseGaitKind(s string) (GaitKind, error) {
	switch GaitKind(strings.ToLower(strings.TrimSpace(s))) {
	case Serpentine:
		return Serpentine, nil
	case Sidewinding:
		return Sidewinding, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGait, s)
	}
}

// SerpentineParams parameterizes raw = Amplitude * sin(Omega*t + j*Beta()).
type SerpentineParams struct {
	// Amplitude is the wave amplitude in degrees.
	Amplitude float64

	// Omega is the angular frequency in rad/s.
	Omega float64

	// Curvature is the curve degree K.
	Curvature float64

	// ActiveJoints is n, the number of joints following the wave. It must
	// equal the count of non-horizontal joints in the profile.
	ActiveJoints int
}

// Beta returns the phase lag between adjacent joints, 2*K*pi/n.
func (p SerpentineParams) Beta() float64 {
	return 2 * p.Curvature * math.Pi / float64(p.ActiveJoints)
}

// Validate checks the serpentine parameters.
func (p SerpentineParams) Validate() error {
	if p.ActiveJoints <= 0 {
		return invalidf("serpentine: active joints must be positive, got %d", p.ActiveJoints)
	}
	if math.IsNaN(p.Amplitude) || math.IsInf(p.Amplitude, 0) {
		return invalidf("serpentine: amplitude must be finite")
	}
	if math.IsNaN(p.Omega) || math.IsInf(p.Omega, 0) {
		return invalidf("serpentine: omega must be finite")
	}
	if math.IsNaN(p.Curvature) || math.IsInf(p.Curvature, 0) {
		return invalidf("serpentine: curvature must be finite")
	}
	return nil
}

// MaxLateralJoints bounds the sidewinding joint set.
const MaxLateralJoints = 5

// LateralJoint is one independently parameterized sidewinding joint:
// Offset + Amplitude*sin(2*pi*f*t + Phase).
type LateralJoint struct {
	Offset    float64
	Amplitude float64
	Phase     float64
}

// SidewindingParams parameterizes the lateral-wave gait.
type SidewindingParams struct {
	// FrequencyHz is f in the joint law. Zero means 1 Hz.
	FrequencyHz float64

	Joints []LateralJoint

	// Calibration is applied per sidewinding joint. Missing entries are zero.
	Calibration []int
}

// Frequency returns the effective wave frequency in Hz.
func (p SidewindingParams) Frequency() float64 {
	if p.FrequencyHz == 0 {
		return 1
	}
	return p.FrequencyHz
}

// Validate checks the sidewinding parameters.
func (p SidewindingParams) Validate() error {
	if len(p.Joints) == 0 {
		return invalidf("sidewinding: at least one joint is required")
	}
	if len(p.Joints) > MaxLateralJoints {
		return invalidf("sidewinding: at most %d joints, got %d", MaxLateralJoints, len(p.Joints))
	}
	if len(p.Calibration) > len(p.Joints) {
		return invalidf("sidewinding: calibration has %d entries for %d joints",
			len(p.Calibration), len(p.Joints))
	}
	if p.FrequencyHz < 0 || math.IsNaN(p.FrequencyHz) || math.IsInf(p.FrequencyHz, 0) {
		return invalidf("sidewinding: frequency must be a non-negative finite value")
	}
	for i, j := range p.Joints {
		for _, v := range []float64{j.Offset, j.Amplitude, j.Phase} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return invalidf("sidewinding: joint %d has a non-finite parameter", i)
			}
		}
	}
	return nil
}

// Profile bundles every gait parameter a session needs. A session copies
// the profile at start and never observes later changes.
type Profile struct {
	Joints      JointConfig
	Serpentine  SerpentineParams
	Sidewinding SidewindingParams
}

// Validate checks all parts of the profile.
func (p Profile) Validate() error {
	if err := p.Joints.Validate(); err != nil {
		return err
	}
	if err := p.Serpentine.Validate(); err != nil {
		return err
	}
	if n := p.Joints.ActiveJoints(); p.Serpentine.ActiveJoints != n {
		return invalidf("serpentine: active joints is %d but the joint mask has %d", p.Serpentine.ActiveJoints, n)
	}
	return p.Sidewinding.Validate()
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	c := p
	c.Joints = p.Joints.Clone()
	c.Sidewinding.Joints = append([]LateralJoint(nil), p.Sidewinding.Joints...)
	c.Sidewinding.Calibration = append([]int(nil), p.Sidewinding.Calibration...)
	return c
}

// DefaultProfile returns the parameters the robot was tuned with:
// six joints alternating vertical/horizontal, a 60° serpentine wave, and
// the five-joint sidewinding law.
func DefaultProfile() Profile {
	return Profile{
		Joints: JointConfig{
			Calibration: []int{0, -20, 0, -30, 0, 0},
			Horizontal:  []bool{false, true, false, true, false, true},
		},
		Serpentine: SerpentineParams{
			Amplitude:    60,
			Omega:        2.0,
			Curvature:    0.5,
			ActiveJoints: 3,
		},
		Sidewinding: SidewindingParams{
			FrequencyHz: 1,
			Joints: []LateralJoint{
				{Offset: 5, Amplitude: 5, Phase: 0},
				{Offset: 22.5, Amplitude: 22.5, Phase: math.Pi / 2},
				{Offset: 0, Amplitude: 0, Phase: 0},
				{Offset: 18, Amplitude: 18, Phase: math.Pi / 4},
				{Offset: 5, Amplitude: 5, Phase: 0},
			},
		},
	}
}
