package config

import "os"

// ApplyEnvConfig applies configuration from environment variables (SLITHER_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("motor", os.Getenv("SLITHER_MOTOR_ENDPOINT"), &cfg.MotorEndpoint)
	s.setString("pose-endpoint", os.Getenv("SLITHER_POSE_ENDPOINT"), &cfg.PoseEndpoint)
	s.setString("listen", os.Getenv("SLITHER_LISTEN"), &cfg.Listen)
	s.setString("log-level", os.Getenv("SLITHER_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", os.Getenv("SLITHER_LOG_FORMAT"), &cfg.LogFormat)

	if err := s.setDuration("tick", os.Getenv("SLITHER_TICK"), &cfg.Tick); err != nil {
		return err
	}
	if err := s.setDuration("pose-settle", os.Getenv("SLITHER_POSE_SETTLE"), &cfg.PoseSettle); err != nil {
		return err
	}
	if err := s.setDuration("connect-timeout", os.Getenv("SLITHER_CONNECT_TIMEOUT"), &cfg.ConnectTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", os.Getenv("SLITHER_SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("baud", os.Getenv("SLITHER_BAUD_RATE"), &cfg.Serial.BaudRate); err != nil {
		return err
	}

	s.setBoolFromString("watch-config", os.Getenv("SLITHER_WATCH_CONFIG"), &cfg.WatchConfig)

	return nil
}
