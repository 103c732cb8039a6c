package remote

import (
	"fmt"
	"time"
)

const (
	TransportSSH     = "ssh"
	TransportOpenSSH = "openssh"
)

type TransportOptions struct {
	Kind           string
	Host           string
	User           string
	KeyPath        string
	ConnectTimeout time.Duration
}

// NewTransport picks the transport implementation named by opts.Kind.
func NewTransport(opts TransportOptions) (Transport, error) {
	switch opts.Kind {
	case "", TransportSSH:
		return &SSHTransport{
			Host:           opts.Host,
			User:           opts.User,
			KeyPath:        opts.KeyPath,
			ConnectTimeout: opts.ConnectTimeout,
		}, nil
	case TransportOpenSSH:
		return &OpenSSHTransport{
			Host:           opts.Host,
			KeyPath:        opts.KeyPath,
			ConnectTimeout: opts.ConnectTimeout,
		}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", opts.Kind)
	}
}
