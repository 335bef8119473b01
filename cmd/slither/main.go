package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	logAdapter "github.com/bft-labs/slither/internal/adapters/log"
	"github.com/bft-labs/slither/internal/config"
)

const helpDescription = `
Drive a segmented snake robot with parametric gaits.

Highlights:
  - Serpentine and sidewinding gaits streamed at a fixed 50ms cadence.
  - TCP (wifi boards) or serial (USB) links to the motor controller.
  - One gait at a time; start, stop and sensor poses over HTTP.
  - Configure via file, env (SLITHER_*), or flags.
`

var exampleUsage = strings.TrimSpace(`
  slither serve --listen :8000
  slither run serpentine --motor 192.168.34.119:8080
  slither run sidewinding --motor serial:///dev/ttyACM1?baud=115200
  slither pose lower_sensor
  slither frames serpentine --duration 1s
  slither sim --listen :8080
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries the configuration shared by all subcommands.
type cli struct {
	cfg     config.Config
	cfgPath string
	log     zerolog.Logger
}

func main() {
	c := &cli{
		cfg: config.DefaultConfig(),
		log: logAdapter.NewZerologAdapter().Logger(),
	}

	root := &cobra.Command{
		Use:           "slither",
		Short:         "Gait motion controller for a segmented snake robot",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.slither/config.toml)")
	flags.StringVar(&c.cfg.MotorEndpoint, "motor", c.cfg.MotorEndpoint, "motor controller endpoint (host:port, tcp://, serial:// or a device path)")
	flags.StringVar(&c.cfg.PoseEndpoint, "pose-endpoint", c.cfg.PoseEndpoint, "sensor pose endpoint")
	flags.DurationVar(&c.cfg.Tick, "tick", c.cfg.Tick, "interval between frames")
	flags.DurationVar(&c.cfg.PoseSettle, "pose-settle", c.cfg.PoseSettle, "how long a pose link stays open after sending")
	flags.DurationVar(&c.cfg.ConnectTimeout, "connect-timeout", c.cfg.ConnectTimeout, "TCP connect timeout")
	flags.DurationVar(&c.cfg.ShutdownTimeout, "shutdown-timeout", c.cfg.ShutdownTimeout, "how long to wait for a session to close on exit")
	flags.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&c.cfg.LogFormat, "log-format", c.cfg.LogFormat, "log format (console or json)")
	flags.IntVar(&c.cfg.Serial.BaudRate, "baud", c.cfg.Serial.BaudRate, "serial baud rate")
	flags.IntVar(&c.cfg.Serial.DataBits, "data-bits", c.cfg.Serial.DataBits, "serial data bits (default 8)")
	flags.IntVar(&c.cfg.Serial.StopBits, "stop-bits", c.cfg.Serial.StopBits, "serial stop bits (default 1)")
	flags.StringVar(&c.cfg.Serial.Parity, "parity", c.cfg.Serial.Parity, "serial parity (N, E or O)")
	for _, name := range []string{"data-bits", "stop-bits", "parity"} {
		if err := flags.MarkHidden(name); err != nil {
			c.log.Info().Err(err).Str("flag", name).Msg("failed to hide flag")
		}
	}

	root.AddCommand(
		c.serveCommand(),
		c.runCommand(),
		c.poseCommand(),
		c.framesCommand(),
		c.simCommand(),
	)

	if err := root.Execute(); err != nil {
		c.log.Error().Err(err).Msg("slither")
		os.Exit(1)
	}
}

// load applies file, then env, then validates. Flags set on the command
// line always win.
func (c *cli) load(cmd *cobra.Command) error {
	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = config.DefaultConfigPath()
	}
	c.cfgPath = cfgFile

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && config.FileExists(cfgFile) {
		fc, err := config.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := config.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := config.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}

	log, err := logAdapter.NewLogger(os.Stderr, c.cfg.LogFormat, c.cfg.LogLevel)
	if err != nil {
		return err
	}
	c.log = log

	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.log.Debug().
		Str("motor", c.cfg.MotorEndpoint).
		Str("pose", c.cfg.PoseEndpoint).
		Dur("tick", c.cfg.Tick).
		Str("config", cfgFile).
		Msg("configuration")
	return nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
