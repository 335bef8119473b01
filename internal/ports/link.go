package ports

import "context"

// Link is one open transport to the actuator controller. A Link belongs to
// exactly one session and is never shared or pooled.
type Link interface {
	// Send writes b in full. Failures are returned as *domain.ConnectionError.
	// Send imposes no timeout of its own.
	Send(b []byte) error

	// Close releases the transport. It is safe to call on a broken link
	// and more than once.
	Close() error
}

// Dialer opens links. The endpoint is either a host:port pair or a
// serial device path; callers treat both uniformly.
type Dialer interface {
	// Dial opens a link. Failures are returned as *domain.ConnectionError.
	Dial(ctx context.Context, endpoint string) (Link, error)
}
