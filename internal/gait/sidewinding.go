package gait

import (
	"math"

	"github.com/bft-labs/slither/internal/domain"
)

// Sidewinding is the lateral-wave law. Each joint has its own offset,
// amplitude and phase; the offset term already centers the wave.
type Sidewinding struct {
	joints []domain.LateralJoint
	omega  float64
}

// NewSidewinding builds the law from per-joint parameters.
func NewSidewinding(p domain.SidewindingParams) *Sidewinding {
	return &Sidewinding{
		joints: append([]domain.LateralJoint(nil), p.Joints...),
		omega:  2 * math.Pi * p.Frequency(),
	}
}

// Joints returns the number of sidewinding joints.
func (s *Sidewinding) Joints() int { return len(s.joints) }

// Angle returns Offset + Amplitude*sin(2*pi*f*t + Phase), unrounded.
func (s *Sidewinding) Angle(joint int, elapsed float64) float64 {
	if joint < 0 || joint >= len(s.joints) {
		return 0
	}
	j := s.joints[joint]
	return j.Offset + j.Amplitude*math.Sin(s.omega*elapsed+j.Phase)
}
