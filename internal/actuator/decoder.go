package actuator

import (
	"bufio"
	"fmt"
	"io"

	"github.com/bft-labs/slither/internal/domain"
)

// maxLine bounds a single wire line; a frame of 180s for many joints fits easily.
const maxLine = 4096

// ParseError is returned by Decoder.Next for a line that is not a frame.
// The decoder stays usable after a ParseError.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse frame %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Decoder splits a byte stream into frames on '\n'. A trailing '\r' is dropped.
type Decoder struct {
	scan *bufio.Scanner
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 256), maxLine)
	return &Decoder{scan: scan}
}

// Next returns the next frame. Blank lines are skipped. It returns io.EOF
// when the stream ends cleanly.
func (d *Decoder) Next() (domain.Frame, error) {
	for d.scan.Scan() {
		line := d.scan.Bytes()
		if len(line) == 0 {
			continue
		}
		frame, err := domain.ParseFrame(line)
		if err != nil {
			return nil, &ParseError{Line: string(line), Err: err}
		}
		return frame, nil
	}
	if err := d.scan.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
