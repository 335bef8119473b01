package domain

// JointConfig describes the ordered joints of the robot.
// Calibration and Horizontal must have the same length N.
type JointConfig struct {
	// Calibration is the signed per-joint offset in degrees.
	Calibration []int

	// Horizontal marks joints that hold a fixed pose under the serpentine law.
	Horizontal []bool
}

// maxCalibration bounds a calibration offset; anything larger cannot
// produce a usable angle inside [MinAngle, MaxAngle].
const maxCalibration = 180

// Len returns the number of joints N.
func (j JointConfig) Len() int {
	return len(j.Calibration)
}

// ActiveJoints returns the number of joints that follow the wave.
func (j JointConfig) ActiveJoints() int {
	n := 0
	for _, h := range j.Horizontal {
		if !h {
			n++
		}
	}
	return n
}

// Validate checks the joint configuration invariants.
func (j JointConfig) Validate() error {
	if len(j.Calibration) == 0 {
		return invalidf("joints: at least one joint is required")
	}
	if len(j.Calibration) != len(j.Horizontal) {
		return invalidf("joints: calibration has %d entries, horizontal has %d",
			len(j.Calibration), len(j.Horizontal))
	}
	for i, c := range j.Calibration {
		if c < -maxCalibration || c > maxCalibration {
			return invalidf("joints: calibration[%d]=%d outside ±%d", i, c, maxCalibration)
		}
	}
	return nil
}

// Clone returns a deep copy so callers can hold it without sharing slices.
func (j JointConfig) Clone() JointConfig {
	return JointConfig{
		Calibration: append([]int(nil), j.Calibration...),
		Horizontal:  append([]bool(nil), j.Horizontal...),
	}
}
