package config

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bft-labs/slither/internal/adapters/transport"
	"github.com/bft-labs/slither/internal/domain"
)

// fileConfig mirrors Config but uses strings for durations to make TOML friendly.
type fileConfig struct {
	MotorEndpoint   string `toml:"motor_endpoint"`
	PoseEndpoint    string `toml:"pose_endpoint"`
	Listen          string `toml:"listen"`
	Tick            string `toml:"tick"`
	PoseSettle      string `toml:"pose_settle"`
	ConnectTimeout  string `toml:"connect_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	LogLevel        string `toml:"log_level"`
	LogFormat       string `toml:"log_format"`
	WatchConfig     *bool  `toml:"watch_config"`

	Serial      *transport.PortOptions `toml:"serial"`
	Poses       map[string]int         `toml:"poses"`
	Joints      *fileJoints            `toml:"joints"`
	Serpentine  *fileSerpentine        `toml:"serpentine"`
	Sidewinding *fileSidewinding       `toml:"sidewinding"`
}

type fileJoints struct {
	Calibration []int  `toml:"calibration"`
	Horizontal  []bool `toml:"horizontal"`
}

// Pointers distinguish "absent" from an explicit zero.
type fileSerpentine struct {
	Amplitude    *float64 `toml:"amplitude"`
	Omega        *float64 `toml:"omega"`
	Curvature    *float64 `toml:"curvature"`
	ActiveJoints *int     `toml:"active_joints"`
}

type fileSidewinding struct {
	FrequencyHz *float64           `toml:"frequency_hz"`
	Calibration []int              `toml:"calibration"`
	Joints      []fileLateralJoint `toml:"joints"`
}

type fileLateralJoint struct {
	Offset    float64 `toml:"offset"`
	Amplitude float64 `toml:"amplitude"`
	Phase     float64 `toml:"phase"`
}

// loadFileConfig reads and parses a TOML config file.
func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// defaultConfigPath returns ~/.slither/config.toml if the user home
// directory is accessible.
func defaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".slither", "config.toml")
	}
	return ""
}

// applyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func applyFileConfig(cfg *Config, fc fileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("motor", fc.MotorEndpoint, &cfg.MotorEndpoint)
	s.setString("pose-endpoint", fc.PoseEndpoint, &cfg.PoseEndpoint)
	s.setString("listen", fc.Listen, &cfg.Listen)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)

	if err := s.setDuration("tick", fc.Tick, &cfg.Tick); err != nil {
		return err
	}
	if err := s.setDuration("pose-settle", fc.PoseSettle, &cfg.PoseSettle); err != nil {
		return err
	}
	if err := s.setDuration("connect-timeout", fc.ConnectTimeout, &cfg.ConnectTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}

	s.setBool("watch-config", fc.WatchConfig, &cfg.WatchConfig)

	if fc.Serial != nil {
		s.setInt("baud", fc.Serial.BaudRate, &cfg.Serial.BaudRate)
		s.setInt("data-bits", fc.Serial.DataBits, &cfg.Serial.DataBits)
		s.setInt("stop-bits", fc.Serial.StopBits, &cfg.Serial.StopBits)
		s.setString("parity", fc.Serial.Parity, &cfg.Serial.Parity)
	}

	if fc.Poses != nil {
		cfg.Poses = make(map[string]int, len(fc.Poses))
		for name, angle := range fc.Poses {
			cfg.Poses[name] = angle
		}
	}

	cfg.Profile = applyProfile(cfg.Profile, fc)
	return nil
}

// applyProfile returns a copy of base with the file's gait sections applied.
func applyProfile(base domain.Profile, fc fileConfig) domain.Profile {
	p := base.Clone()

	if j := fc.Joints; j != nil {
		if j.Calibration != nil {
			p.Joints.Calibration = append([]int(nil), j.Calibration...)
		}
		if j.Horizontal != nil {
			p.Joints.Horizontal = append([]bool(nil), j.Horizontal...)
		}
	}

	if sp := fc.Serpentine; sp != nil {
		if sp.Amplitude != nil {
			p.Serpentine.Amplitude = *sp.Amplitude
		}
		if sp.Omega != nil {
			p.Serpentine.Omega = *sp.Omega
		}
		if sp.Curvature != nil {
			p.Serpentine.Curvature = *sp.Curvature
		}
		if sp.ActiveJoints != nil {
			p.Serpentine.ActiveJoints = *sp.ActiveJoints
		}
	}

	if sw := fc.Sidewinding; sw != nil {
		if sw.FrequencyHz != nil {
			p.Sidewinding.FrequencyHz = *sw.FrequencyHz
		}
		if sw.Calibration != nil {
			p.Sidewinding.Calibration = append([]int(nil), sw.Calibration...)
		}
		if sw.Joints != nil {
			p.Sidewinding.Joints = make([]domain.LateralJoint, len(sw.Joints))
			for i, j := range sw.Joints {
				p.Sidewinding.Joints[i] = domain.LateralJoint{
					Offset:    j.Offset,
					Amplitude: j.Amplitude,
					Phase:     j.Phase,
				}
			}
		}
	}

	return p
}

// fileExists checks if a file exists at the given path.
func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// Exported functions for use from main package without exposing internal helpers.

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (fileConfig, error) {
	return loadFileConfig(path)
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return defaultConfigPath()
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc fileConfig, changed map[string]bool) error {
	return applyFileConfig(cfg, fc, changed)
}

// LoadProfile reads path and returns base with the file's gait sections
// applied. The result is validated.
func LoadProfile(path string, base domain.Profile) (domain.Profile, error) {
	fc, err := loadFileConfig(path)
	if err != nil {
		return domain.Profile{}, err
	}
	p := applyProfile(base, fc)
	if err := p.Validate(); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	return fileExists(p)
}
