package config

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	t.Setenv("SLITHER_MOTOR_ENDPOINT", "10.0.0.5:9000")
	t.Setenv("SLITHER_POSE_ENDPOINT", "10.0.0.6:9000")
	t.Setenv("SLITHER_TICK", "20ms")
	t.Setenv("SLITHER_BAUD_RATE", "57600")
	t.Setenv("SLITHER_WATCH_CONFIG", "1")
	t.Setenv("SLITHER_LOG_FORMAT", "json")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, map[string]bool{"pose-endpoint": true}); err != nil {
		t.Fatalf("ApplyEnvConfig() = %v", err)
	}

	if cfg.MotorEndpoint != "10.0.0.5:9000" {
		t.Errorf("MotorEndpoint = %q", cfg.MotorEndpoint)
	}
	if cfg.PoseEndpoint != DefaultPoseEndpoint {
		t.Errorf("PoseEndpoint = %q, want flag-protected default", cfg.PoseEndpoint)
	}
	if cfg.Tick != 20*time.Millisecond {
		t.Errorf("Tick = %v, want 20ms", cfg.Tick)
	}
	if cfg.Serial.BaudRate != 57600 {
		t.Errorf("BaudRate = %d, want 57600", cfg.Serial.BaudRate)
	}
	if !cfg.WatchConfig {
		t.Error("WatchConfig = false, want true")
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
}

func TestApplyEnvConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"tick", "SLITHER_TICK", "fast"},
		{"pose settle", "SLITHER_POSE_SETTLE", "10"},
		{"baud", "SLITHER_BAUD_RATE", "high"},
		{"shutdown timeout", "SLITHER_SHUTDOWN_TIMEOUT", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			cfg := DefaultConfig()
			if err := ApplyEnvConfig(&cfg, nil); err == nil {
				t.Errorf("ApplyEnvConfig() with %s=%q succeeded", tt.key, tt.val)
			}
		})
	}
}
