package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"
	"go.bug.st/serial"

	"github.com/bft-labs/slither/internal/actuator"
	logAdapter "github.com/bft-labs/slither/internal/adapters/log"
	"github.com/bft-labs/slither/internal/config"
	"github.com/bft-labs/slither/internal/control"
	"github.com/bft-labs/slither/internal/domain"
	"github.com/bft-labs/slither/internal/gait"
	"github.com/bft-labs/slither/pkg/slither"
)

func (c *cli) newController(opts ...slither.Option) (*slither.Controller, error) {
	logger := logAdapter.NewZerologAdapterWithLogger(c.log)
	opts = append([]slither.Option{slither.WithLogger(logger)}, opts...)
	return slither.New(c.cfg.Controller(), opts...)
}

func (c *cli) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP control server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := c.newController()
			if err != nil {
				return err
			}
			logger := logAdapter.NewZerologAdapterWithLogger(c.log)

			ctx, stop := signalContext()
			defer stop()

			if c.cfg.WatchConfig && config.FileExists(c.cfgPath) {
				w := config.NewProfileWatcher(c.cfgPath, domain.DefaultProfile(), ctrl.UpdateProfile, logger)
				go func() {
					if err := w.Run(ctx); err != nil {
						c.log.Warn().Err(err).Str("path", c.cfgPath).Msg("config watcher stopped")
					}
				}()
			}

			c.log.Info().
				Str("listen", c.cfg.Listen).
				Str("motor", c.cfg.MotorEndpoint).
				Str("version", getVersion()).
				Msg("slither control server starting")

			srv := control.NewServer(ctrl, logger)
			serveErr := srv.ListenAndServe(ctx, c.cfg.Listen)

			if err := ctrl.Shutdown(c.cfg.ShutdownTimeout); err != nil {
				c.log.Warn().Err(err).Msg("session did not close cleanly")
			}
			if serveErr != nil {
				return serveErr
			}
			c.log.Info().Msg("slither stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&c.cfg.Listen, "listen", c.cfg.Listen, "HTTP listen address")
	cmd.Flags().BoolVar(&c.cfg.WatchConfig, "watch-config", c.cfg.WatchConfig, "reload gait parameters when the config file changes")
	return cmd
}

// sessionWaiter closes done when a session ends and keeps its error.
type sessionWaiter struct {
	slither.BaseEventHandler
	done chan struct{}
	err  error
}

func (w *sessionWaiter) OnSessionEnded(ev slither.SessionEndedEvent) {
	w.err = ev.Err
	close(w.done)
}

func (c *cli) runCommand() *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:       "run <serpentine|sidewinding>",
		Short:     "Stream one gait until interrupted",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.Serpentine), string(domain.Sidewinding)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := slither.ParseGaitKind(args[0])
			if err != nil {
				return err
			}
			waiter := &sessionWaiter{done: make(chan struct{})}
			ctrl, err := c.newController(slither.WithEventHandler(waiter))
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			info, err := ctrl.Start(kind)
			if err != nil {
				return err
			}
			c.log.Info().Str("session", info.ID).Str("gait", string(kind)).Str("endpoint", info.Endpoint).Msg("streaming")

			select {
			case <-waiter.done:
				return waiter.err
			case <-ctx.Done():
			}

			if err := ctrl.Shutdown(c.cfg.ShutdownTimeout); err != nil {
				return err
			}
			<-waiter.done
			c.log.Info().Uint64("frames", ctrl.Status().Frames).Msg("stopped")
			return waiter.err
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	return cmd
}

func (c *cli) poseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pose <name>",
		Short: "Send a named sensor pose",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := c.newController()
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, control.DefaultPoseTimeout)
			defer cancel()

			if err := ctrl.SetPose(ctx, args[0]); err != nil {
				if errors.Is(err, slither.ErrUnknownPose) {
					return fmt.Errorf("%w (known: %v)", err, ctrl.Poses())
				}
				return err
			}
			c.log.Info().Str("pose", args[0]).Str("endpoint", c.cfg.PoseEndpoint).Msg("pose sent")
			return nil
		},
	}
}

func (c *cli) framesCommand() *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "frames <serpentine|sidewinding>",
		Short: "Print the frames a gait would send, without a robot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := slither.ParseGaitKind(args[0])
			if err != nil {
				return err
			}
			fn, norm, err := gait.ForKind(kind, c.cfg.Profile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for elapsed := time.Duration(0); elapsed <= duration; elapsed += c.cfg.Tick {
				if _, err := fmt.Fprintln(out, gait.Compute(fn, norm, elapsed).String()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", time.Second, "how much gait time to print")
	return cmd
}

func (c *cli) simCommand() *cobra.Command {
	var (
		listen string
		device string
		servos int
	)
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Run a servo board simulator that logs received frames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logAdapter.NewZerologAdapterWithLogger(c.log)
			sim := actuator.NewSimulator(servos, logger)
			sim.OnFrame(func(f domain.Frame) {
				c.log.Info().Str("frame", f.String()).Uints16("duty", sim.Duty()).Msg("frame")
			})

			ctx, stop := signalContext()
			defer stop()

			if device != "" {
				mode, err := c.cfg.Serial.SerialMode()
				if err != nil {
					return err
				}
				port, err := serial.Open(device, mode)
				if err != nil {
					return &domain.ConnectionError{Op: "open", Endpoint: device, Err: err}
				}
				c.log.Info().Str("device", device).Int("baud", mode.BaudRate).Msg("simulating on serial port")
				err = sim.ServeStream(ctx, port)
				c.log.Info().Uint64("frames", sim.Frames()).Uint64("parse_errors", sim.ParseErrors()).Msg("simulator stopped")
				return err
			}

			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return err
			}
			c.log.Info().Str("listen", ln.Addr().String()).Int("servos", servos).Msg("simulating on tcp")
			err = sim.Serve(ctx, ln)
			c.log.Info().Uint64("frames", sim.Frames()).Uint64("parse_errors", sim.ParseErrors()).Msg("simulator stopped")
			return err
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":8080", "TCP address to accept frames on")
	cmd.Flags().StringVar(&device, "serial", "", "serial device to read frames from instead of TCP")
	cmd.Flags().IntVar(&servos, "servos", len(domain.DefaultProfile().Joints.Horizontal), "number of servos on the board")
	return cmd
}
