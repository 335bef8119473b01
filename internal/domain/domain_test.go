package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFrame_Encode(t *testing.T) {
	tests := []struct {
		frame Frame
		want  string
	}{
		{Frame{23, 70, 90, 70, 23, 90}, "23,70,90,70,23,90\r\n"},
		{Frame{5, 45, 0, 31, 5}, "5,45,0,31,5\r\n"},
		{Frame{180}, "180\r\n"},
		{Frame{}, "\r\n"},
	}

	for _, tt := range tests {
		got := string(tt.frame.Encode())
		if got != tt.want {
			t.Errorf("Encode(%v) = %q, want %q", []int(tt.frame), got, tt.want)
		}
	}
}

func TestFrame_String(t *testing.T) {
	if got := (Frame{1, 2, 3}).String(); got != "1,2,3" {
		t.Errorf("String() = %q, want %q", got, "1,2,3")
	}
}

func TestEncodePose(t *testing.T) {
	if got := string(EncodePose(20)); got != "20\r\n" {
		t.Errorf("EncodePose(20) = %q, want %q", got, "20\r\n")
	}
}

func TestParseFrame(t *testing.T) {
	tests := []struct {
		line    string
		want    Frame
		wantErr bool
	}{
		{"23,70,90,70,23,90\r\n", Frame{23, 70, 90, 70, 23, 90}, false},
		{"20\n", Frame{20}, false},
		{" 1 , 2.9 ,3", Frame{1, 2, 3}, false},
		{"", nil, true},
		{"1,x,3\r\n", nil, true},
		{"-5,200", Frame{-5, 200}, false},
		{"NaN", nil, true},
		{"1,inf", nil, true},
		{"-Inf,1", nil, true},
		{"1e300", nil, true},
		{"90,-3e9", nil, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.line), func(t *testing.T) {
			got, err := ParseFrame([]byte(tt.line))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFrame() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseFrame() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseGaitKind(t *testing.T) {
	for _, in := range []string{"serpentine", "Serpentine", " SIDEWINDING "} {
		if _, err := ParseGaitKind(in); err != nil {
			t.Errorf("ParseGaitKind(%q) error = %v", in, err)
		}
	}
	if _, err := ParseGaitKind("rolling"); !errors.Is(err, ErrUnknownGait) {
		t.Errorf("ParseGaitKind(rolling) error = %v, want ErrUnknownGait", err)
	}
}

func TestJointConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		joints  JointConfig
		wantErr bool
	}{
		{"default", DefaultProfile().Joints, false},
		{"empty", JointConfig{}, true},
		{"length mismatch", JointConfig{Calibration: []int{0, 0}, Horizontal: []bool{false}}, true},
		{"calibration too large", JointConfig{Calibration: []int{181}, Horizontal: []bool{false}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.joints.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestJointConfig_ActiveJoints(t *testing.T) {
	if got := DefaultProfile().Joints.ActiveJoints(); got != 3 {
		t.Errorf("ActiveJoints() = %d, want 3", got)
	}
}

func TestProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Profile)
		wantErr bool
	}{
		{"default", func(*Profile) {}, false},
		{"zero active joints", func(p *Profile) { p.Serpentine.ActiveJoints = 0 }, true},
		{"six lateral joints", func(p *Profile) {
			p.Sidewinding.Joints = append(p.Sidewinding.Joints, LateralJoint{})
		}, true},
		{"mask changed, n stale", func(p *Profile) {
			p.Joints.Horizontal = []bool{false, false, false, false, false, true}
		}, true},
		{"n changed, mask stale", func(p *Profile) { p.Serpentine.ActiveJoints = 5 }, true},
		{"mask and n agree", func(p *Profile) {
			p.Joints.Horizontal = []bool{false, false, false, false, false, true}
			p.Serpentine.ActiveJoints = 5
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultProfile()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
		})
	}
}

func TestProfile_CloneIsDeep(t *testing.T) {
	p := DefaultProfile()
	c := p.Clone()
	c.Joints.Calibration[0] = 99
	c.Sidewinding.Joints[0].Offset = 99

	if p.Joints.Calibration[0] == 99 || p.Sidewinding.Joints[0].Offset == 99 {
		t.Error("Clone shares slices with the original")
	}
}

func TestConnectionError(t *testing.T) {
	cause := errors.New("broken pipe")
	err := fmt.Errorf("session: %w", &ConnectionError{Op: "send", Endpoint: "10.0.0.2:8080", Err: cause})

	if !errors.Is(err, ErrConnection) {
		t.Error("errors.Is(err, ErrConnection) = false")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	var ce *ConnectionError
	if !errors.As(err, &ce) || ce.Op != "send" {
		t.Errorf("errors.As() = %v, op %q", ce, ce.Op)
	}
}
