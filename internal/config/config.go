// Package config builds the server configuration from the command line.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
)

// DefaultPort is used when no port argument is given.
const DefaultPort = 8000

var (
	// ErrInvalidPort is returned when the port argument is not an integer in 0..65535.
	ErrInvalidPort = errors.New("invalid port")
	// ErrTooManyArgs is returned when more than one positional argument is given.
	ErrTooManyArgs = errors.New("too many arguments")
)

// Config is immutable once Load returns.
type Config struct {
	Port int
	// Host is empty to bind on all local interfaces.
	Host string
	// Root is the directory being served.
	Root string
}

// Load parses the positional arguments (without the program name) and
// resolves the root to the current working directory.
func Load(args []string) (*Config, error) {
	if len(args) > 1 {
		return nil, fmt.Errorf("%w: expected at most one, got %d", ErrTooManyArgs, len(args))
	}

	port := DefaultPort
	if len(args) == 1 {
		p, err := ParsePort(args[0])
		if err != nil {
			return nil, err
		}
		port = p
	}

	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	return &Config{
		Port: port,
		Root: root,
	}, nil
}

// ParsePort accepts a base-10 TCP port. Zero lets the OS pick a free port.
func ParsePort(raw string) (int, error) {
	p, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w %q: must be an integer between 0 and 65535", ErrInvalidPort, raw)
	}
	return int(p), nil
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
