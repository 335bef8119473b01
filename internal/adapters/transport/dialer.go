// Package transport implements the actuator links: a TCP socket to a
// networked actuator controller, or a local serial device.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"go.bug.st/serial"

	logAdapter "github.com/bft-labs/slither/internal/adapters/log"
	"github.com/bft-labs/slither/internal/domain"
	"github.com/bft-labs/slither/internal/ports"
)

// DefaultConnectTimeout bounds TCP connection setup. Sends are not bounded.
const DefaultConnectTimeout = 5 * time.Second

// SerialOpener opens a serial device. It exists so tests can run without hardware.
type SerialOpener func(path string, mode *serial.Mode) (io.WriteCloser, error)

// Dialer implements ports.Dialer for TCP and serial endpoints.
type Dialer struct {
	connectTimeout time.Duration
	serial         PortOptions
	openSerial     SerialOpener
	logger         ports.Logger
}

// DialerOption configures a Dialer.
type DialerOption func(*Dialer)

// WithConnectTimeout overrides DefaultConnectTimeout.
func WithConnectTimeout(d time.Duration) DialerOption {
	return func(t *Dialer) { t.connectTimeout = d }
}

// WithSerialOptions sets the serial defaults used when an endpoint does not
// override them.
func WithSerialOptions(opts PortOptions) DialerOption {
	return func(t *Dialer) { t.serial = opts }
}

// WithSerialOpener replaces go.bug.st/serial.Open.
func WithSerialOpener(open SerialOpener) DialerOption {
	return func(t *Dialer) { t.openSerial = open }
}

// WithLogger sets the logger used for link lifecycle messages.
func WithLogger(logger ports.Logger) DialerOption {
	return func(t *Dialer) { t.logger = logger }
}

// NewDialer creates a Dialer.
func NewDialer(opts ...DialerOption) *Dialer {
	d := &Dialer{
		connectTimeout: DefaultConnectTimeout,
		openSerial:     openSerialPort,
		logger:         logAdapter.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dial opens a link to endpoint.
func (d *Dialer) Dial(ctx context.Context, endpoint string) (ports.Link, error) {
	ep, err := ParseEndpoint(endpoint)
	if err != nil {
		return nil, &domain.ConnectionError{Op: "dial", Endpoint: endpoint, Err: err}
	}

	var w io.WriteCloser
	switch ep.Kind {
	case KindSerial:
		w, err = d.dialSerial(ep)
	default:
		w, err = d.dialTCP(ctx, ep)
	}
	if err != nil {
		return nil, &domain.ConnectionError{Op: "dial", Endpoint: endpoint, Err: err}
	}

	d.logger.Debug("link opened", ports.String("endpoint", ep.String()))
	return &link{w: w, endpoint: endpoint}, nil
}

func (d *Dialer) dialTCP(ctx context.Context, ep Endpoint) (io.WriteCloser, error) {
	nd := net.Dialer{Timeout: d.connectTimeout}
	conn, err := nd.DialContext(ctx, "tcp", ep.Address)
	if err != nil {
		return nil, err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		// Frames are tiny and latency-sensitive.
		_ = tcp.SetNoDelay(true)
	}
	return conn, nil
}

func (d *Dialer) dialSerial(ep Endpoint) (io.WriteCloser, error) {
	mode, err := mergeOptions(d.serial, ep.Serial).SerialMode()
	if err != nil {
		return nil, err
	}
	return d.openSerial(ep.Address, mode)
}

// mergeOptions overlays the non-zero endpoint fields on the defaults.
func mergeOptions(base, override PortOptions) PortOptions {
	if override.BaudRate != 0 {
		base.BaudRate = override.BaudRate
	}
	if override.DataBits != 0 {
		base.DataBits = override.DataBits
	}
	if override.StopBits != 0 {
		base.StopBits = override.StopBits
	}
	if override.Parity != "" {
		base.Parity = override.Parity
	}
	return base
}

func openSerialPort(path string, mode *serial.Mode) (io.WriteCloser, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", path, err)
	}
	return port, nil
}

// link adapts a socket or serial port to ports.Link.
type link struct {
	w        io.WriteCloser
	endpoint string

	closeOnce sync.Once
	closeErr  error
}

// Send writes b in full; serial ports may accept partial writes.
func (l *link) Send(b []byte) error {
	for len(b) > 0 {
		n, err := l.w.Write(b)
		if err != nil {
			return &domain.ConnectionError{Op: "send", Endpoint: l.endpoint, Err: err}
		}
		if n == 0 {
			return &domain.ConnectionError{Op: "send", Endpoint: l.endpoint, Err: io.ErrShortWrite}
		}
		b = b[n:]
	}
	return nil
}

// Close closes the underlying transport once. Closing an already broken
// connection is not treated as a failure.
func (l *link) Close() error {
	l.closeOnce.Do(func() {
		err := l.w.Close()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			l.closeErr = &domain.ConnectionError{Op: "close", Endpoint: l.endpoint, Err: err}
		}
	})
	return l.closeErr
}
