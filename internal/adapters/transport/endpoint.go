package transport

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Kind is the transport behind an endpoint.
type Kind string

const (
	KindTCP    Kind = "tcp"
	KindSerial Kind = "serial"
)

// Endpoint is a parsed endpoint string.
type Endpoint struct {
	Kind Kind

	// Address is host:port for TCP or the device path for serial.
	Address string

	// Serial carries per-endpoint overrides from the query string
	// (baud, data_bits, stop_bits, parity). Zero fields mean "use the default".
	Serial PortOptions
}

// ParseEndpoint accepts:
//
//	host:port                        TCP
//	tcp://host:port                  TCP
//	/dev/ttyACM0, COM3               serial
//	serial:///dev/ttyACM0?baud=9600  serial with options
func ParseEndpoint(s string) (Endpoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Endpoint{}, fmt.Errorf("empty endpoint")
	}

	if strings.HasPrefix(s, "/") || isWindowsPort(s) {
		return Endpoint{Kind: KindSerial, Address: s}, nil
	}

	if !strings.Contains(s, "://") && !strings.HasPrefix(s, "serial:") {
		return tcpEndpoint(s)
	}

	u, err := url.Parse(s)
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse endpoint %q: %w", s, err)
	}

	switch Kind(u.Scheme) {
	case KindTCP:
		return tcpEndpoint(u.Host)
	case KindSerial:
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == "" {
			return Endpoint{}, fmt.Errorf("serial endpoint %q has no device path", s)
		}
		opts, err := queryOptions(u.Query())
		if err != nil {
			return Endpoint{}, fmt.Errorf("serial endpoint %q: %w", s, err)
		}
		return Endpoint{Kind: KindSerial, Address: path, Serial: opts}, nil
	default:
		return Endpoint{}, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
}

// String renders the endpoint in its canonical form.
func (e Endpoint) String() string {
	if e.Kind == KindSerial {
		return "serial://" + e.Address
	}
	return "tcp://" + e.Address
}

func tcpEndpoint(hostport string) (Endpoint, error) {
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		return Endpoint{}, fmt.Errorf("tcp endpoint %q: %w", hostport, err)
	}
	if host == "" {
		return Endpoint{}, fmt.Errorf("tcp endpoint %q: missing host", hostport)
	}
	if p, err := strconv.Atoi(port); err != nil || p <= 0 || p > 65535 {
		return Endpoint{}, fmt.Errorf("tcp endpoint %q: invalid port", hostport)
	}
	return Endpoint{Kind: KindTCP, Address: hostport}, nil
}

func isWindowsPort(s string) bool {
	if len(s) < 4 || !strings.EqualFold(s[:3], "COM") {
		return false
	}
	_, err := strconv.Atoi(s[3:])
	return err == nil
}

func queryOptions(q url.Values) (PortOptions, error) {
	var opts PortOptions
	ints := []struct {
		key string
		dst *int
	}{
		{"baud", &opts.BaudRate},
		{"data_bits", &opts.DataBits},
		{"stop_bits", &opts.StopBits},
	}
	for _, f := range ints {
		v := q.Get(f.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = n
	}
	opts.Parity = q.Get("parity")
	return opts, nil
}
