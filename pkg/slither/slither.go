package slither

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bft-labs/slither/internal/adapters/transport"
	"github.com/bft-labs/slither/internal/app"
	"github.com/bft-labs/slither/internal/domain"
)

// Errors returned by the Controller. Check them with errors.Is.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrConnection      = domain.ErrConnection
	ErrUnknownGait     = domain.ErrUnknownGait
	ErrUnknownPose     = domain.ErrUnknownPose
	ErrShutdownTimeout = domain.ErrShutdownTimeout
)

// ConnectionError reports a transport open or send failure.
type ConnectionError = domain.ConnectionError

// GaitKind identifies a gait family.
type GaitKind = domain.GaitKind

// Gait kinds.
const (
	Serpentine  = domain.Serpentine
	Sidewinding = domain.Sidewinding
)

// Profile bundles joint calibration and gait parameters.
type Profile = domain.Profile

// SerialOptions are the serial line settings used for serial endpoints.
type SerialOptions = transport.PortOptions

// DefaultProfile returns the tuned six-joint profile.
func DefaultProfile() Profile { return domain.DefaultProfile() }

// ParseGaitKind parses a case-insensitive gait name.
func ParseGaitKind(s string) (GaitKind, error) { return domain.ParseGaitKind(s) }

// Default values applied by Config.SetDefaults.
const (
	DefaultTick           = app.DefaultTick
	DefaultPoseSettle     = app.DefaultPoseSettle
	DefaultConnectTimeout = transport.DefaultConnectTimeout
	DefaultShutdownWait   = 5 * time.Second
)

// DefaultPoses returns the sensor mast poses: lowered and raised.
func DefaultPoses() map[string]int {
	return map[string]int{
		"lower_sensor": 20,
		"raise_sensor": 40,
	}
}

// Config configures a Controller.
type Config struct {
	// MotorEndpoint receives gait frames, e.g. "192.168.4.1:8080" or
	// "serial:///dev/ttyACM1?baud=115200". Required.
	MotorEndpoint string

	// PoseEndpoint receives pose frames. Defaults to MotorEndpoint.
	PoseEndpoint string

	// Tick is the frame interval. Default 50ms.
	Tick time.Duration

	// PoseSettle is how long a pose link stays open after sending.
	PoseSettle time.Duration

	// ConnectTimeout bounds TCP connects.
	ConnectTimeout time.Duration

	// Poses maps pose names to angles. Defaults to DefaultPoses().
	Poses map[string]int

	// Profile holds the gait parameters. A zero Profile means DefaultProfile().
	Profile Profile

	// Serial applies to serial endpoints; query parameters on the endpoint
	// override it.
	Serial SerialOptions
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.PoseEndpoint == "" {
		c.PoseEndpoint = c.MotorEndpoint
	}
	if c.Tick == 0 {
		c.Tick = DefaultTick
	}
	if c.PoseSettle == 0 {
		c.PoseSettle = DefaultPoseSettle
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Poses == nil {
		c.Poses = DefaultPoses()
	}
	if c.Profile.Joints.Len() == 0 && len(c.Profile.Sidewinding.Joints) == 0 {
		c.Profile = DefaultProfile()
	}
}

// Validate checks the configuration. All errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	if _, err := transport.ParseEndpoint(c.MotorEndpoint); err != nil {
		return fmt.Errorf("%w: motor endpoint: %v", ErrInvalidConfig, err)
	}
	if _, err := transport.ParseEndpoint(c.PoseEndpoint); err != nil {
		return fmt.Errorf("%w: pose endpoint: %v", ErrInvalidConfig, err)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("%w: tick must be positive, got %s", ErrInvalidConfig, c.Tick)
	}
	if c.PoseSettle < 0 {
		return fmt.Errorf("%w: pose settle must not be negative", ErrInvalidConfig)
	}
	for name, angle := range c.Poses {
		if name == "" {
			return fmt.Errorf("%w: empty pose name", ErrInvalidConfig)
		}
		if angle < domain.MinAngle || angle > domain.MaxAngle {
			return fmt.Errorf("%w: pose %q angle %d outside [%d,%d]",
				ErrInvalidConfig, name, angle, domain.MinAngle, domain.MaxAngle)
		}
	}
	if _, err := c.Serial.Normalize(); err != nil {
		return fmt.Errorf("%w: serial: %v", ErrInvalidConfig, err)
	}
	return c.Profile.Validate()
}

// SessionInfo describes a gait session.
type SessionInfo struct {
	ID        string
	Gait      GaitKind
	Endpoint  string
	StartedAt time.Time
}

// Status is a snapshot of the controller.
type Status struct {
	State   State
	Session *SessionInfo
	Frames  uint64
}

// Controller arbitrates gait sessions and pose commands.
// All methods are safe for concurrent use.
type Controller struct {
	config     Config
	supervisor *app.Supervisor
	logger     Logger
}

// New creates a Controller in StateIdle. It returns an error wrapping
// ErrInvalidConfig if cfg is invalid after defaults are applied.
func New(cfg Config, opts ...Option) (*Controller, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.dialer == nil {
		o.dialer = transport.NewDialer(
			transport.WithConnectTimeout(cfg.ConnectTimeout),
			transport.WithSerialOptions(cfg.Serial),
			transport.WithLogger(o.logger),
		)
	}

	var events app.EventHandler
	if o.eventHandler != nil {
		events = &eventEmitterWrapper{handler: o.eventHandler}
	}

	sup := app.NewSupervisor(app.SupervisorConfig{
		MotorEndpoint: cfg.MotorEndpoint,
		PoseEndpoint:  cfg.PoseEndpoint,
		Tick:          cfg.Tick,
		PoseSettle:    cfg.PoseSettle,
		Poses:         cfg.Poses,
		Profile:       cfg.Profile,
	}, o.dialer, o.clock, o.logger, events)

	return &Controller{config: cfg, supervisor: sup, logger: o.logger}, nil
}

// Start begins streaming gait in the background and returns immediately.
// It returns ErrAlreadyRunning while another session is active.
func (c *Controller) Start(gait GaitKind) (SessionInfo, error) {
	info, err := c.supervisor.Start(gait)
	if err != nil {
		return SessionInfo{}, err
	}
	return convertSession(info), nil
}

// Stop requests the running session to end. It returns ErrNotRunning
// when nothing is running.
func (c *Controller) Stop() error {
	return c.supervisor.Stop()
}

// Wait blocks until no session is active or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	return c.supervisor.Wait(ctx)
}

// Shutdown stops any session and waits up to timeout for its link to close.
func (c *Controller) Shutdown(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultShutdownWait
	}
	return c.supervisor.Shutdown(timeout)
}

// SetPose sends the named pose to the pose endpoint. It may be called
// while a gait is streaming.
func (c *Controller) SetPose(ctx context.Context, name string) error {
	return c.supervisor.SetPose(ctx, name)
}

// Status returns the current state and session.
func (c *Controller) Status() Status {
	st := c.supervisor.Status()
	out := Status{State: convertState(st.State), Frames: st.Frames}
	if st.Session != nil {
		info := convertSession(*st.Session)
		out.Session = &info
	}
	return out
}

// UpdateProfile replaces the gait parameters used by the next Start.
func (c *Controller) UpdateProfile(p Profile) error {
	return c.supervisor.UpdateProfile(p)
}

// Profile returns the parameters the next Start will use.
func (c *Controller) Profile() Profile {
	return c.supervisor.Profile()
}

// Poses returns the configured pose names, sorted.
func (c *Controller) Poses() []string {
	names := c.supervisor.PoseNames()
	sort.Strings(names)
	return names
}

// Config returns the configuration the controller was built with.
func (c *Controller) Config() Config {
	return c.config
}
