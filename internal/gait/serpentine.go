package gait

import (
	"math"

	"github.com/bft-labs/slither/internal/domain"
)

// SerpentineBias centers the serpentine wave in the middle of the servo range.
const SerpentineBias = 90

// Serpentine is the traveling-wave law. Vertical joints follow
// round(A*sin(omega*t + j*beta)); horizontal joints hold zero.
type Serpentine struct {
	horizontal []bool
	amplitude  float64
	omega      float64
	beta       float64
}

// NewSerpentine builds the law from the joint mask and wave parameters.
func NewSerpentine(joints domain.JointConfig, p domain.SerpentineParams) *Serpentine {
	return &Serpentine{
		horizontal: append([]bool(nil), joints.Horizontal...),
		amplitude:  p.Amplitude,
		omega:      p.Omega,
		beta:       p.Beta(),
	}
}

// Joints returns N.
func (s *Serpentine) Joints() int { return len(s.horizontal) }

// Angle returns the raw wave value for joint, already rounded to whole degrees.
func (s *Serpentine) Angle(joint int, elapsed float64) float64 {
	if joint < 0 || joint >= len(s.horizontal) || s.horizontal[joint] {
		return 0
	}
	return math.RoundToEven(s.amplitude * math.Sin(s.omega*elapsed+float64(joint)*s.beta))
}
