package domain

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// Angle limits accepted by the actuator controller, in degrees.
const (
	MinAngle = 0
	MaxAngle = 180
)

// lineEnd terminates every wire frame.
var lineEnd = []byte("\r\n")

// Frame is one ordered set of joint target angles, one per joint, each in
// [MinAngle, MaxAngle]. Frames carry no sequence number or checksum.
type Frame []int

// Encode serializes the frame as ASCII comma-separated integers
// terminated by CRLF, e.g. "23,70,90,70,23,90\r\n".
func (f Frame) Encode() []byte {
	buf := make([]byte, 0, len(f)*4+2)
	for i, a := range f {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendInt(buf, int64(a), 10)
	}
	return append(buf, lineEnd...)
}

// String returns the frame without its line terminator.
func (f Frame) String() string {
	return string(bytes.TrimSuffix(f.Encode(), lineEnd))
}

// EncodePose serializes a single-value pose frame, e.g. "20\r\n".
func EncodePose(angle int) []byte {
	return append(strconv.AppendInt(nil, int64(angle), 10), lineEnd...)
}

// ParseFrame decodes one wire line. The trailing CR/LF is optional.
// Values are parsed as decimals and truncated toward zero, the way the
// actuator firmware reads them.
func ParseFrame(line []byte) (Frame, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, fmt.Errorf("empty frame")
	}
	tokens := bytes.Split(line, []byte(","))
	frame := make(Frame, 0, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(string(bytes.TrimSpace(tok)), 64)
		if err != nil {
			return nil, fmt.Errorf("joint %d: %w", i, err)
		}
		if math.IsNaN(v) || math.Abs(v) > math.MaxInt32 {
			return nil, fmt.Errorf("joint %d: value %q out of range", i, tok)
		}
		frame = append(frame, int(v))
	}
	return frame, nil
}
