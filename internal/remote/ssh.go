package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// SSHTransport talks to the host with the native Go SSH client. Host keys
// are not verified.
type SSHTransport struct {
	// Host is "host", "host:port", "user@host" or "user@host:port".
	Host           string
	User           string
	KeyPath        string
	ConnectTimeout time.Duration
}

// Exec closes the connection when ctx is done, which aborts a running
// session.
func (t *SSHTransport) Exec(ctx context.Context, command string) ([]byte, []byte, int, error) {
	client, release, err := t.dial(ctx)
	if err != nil {
		return nil, nil, -1, err
	}
	defer release()

	session, err := client.NewSession()
	if err != nil {
		return nil, nil, -1, fmt.Errorf("open ssh session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	err = session.Run(command)
	if err == nil {
		return stdout.Bytes(), stderr.Bytes(), 0, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), exitErr.ExitStatus(), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return stdout.Bytes(), stderr.Bytes(), -1, fmt.Errorf("ssh session aborted: %w", ctxErr)
	}

	return stdout.Bytes(), stderr.Bytes(), -1, err
}

// dial connects and authenticates. The returned release func closes the
// client; until then the connection is also closed as soon as ctx is done.
func (t *SSHTransport) dial(ctx context.Context) (*ssh.Client, func(), error) {
	user, address, err := t.target()
	if err != nil {
		return nil, nil, err
	}

	signer, err := t.signer()
	if err != nil {
		return nil, nil, err
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	dialer := net.Dialer{Timeout: t.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, nil, fmt.Errorf("ssh %s@%s: %w", user, address, err)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	c, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		stop()
		conn.Close()
		return nil, nil, fmt.Errorf("ssh %s@%s: %w", user, address, err)
	}

	client := ssh.NewClient(c, chans, reqs)
	return client, func() {
		stop()
		client.Close()
	}, nil
}

// target splits Host into the login user and a dialable address.
func (t *SSHTransport) target() (string, string, error) {
	host := strings.TrimSpace(t.Host)
	user := t.User

	if at := strings.LastIndex(host, "@"); at >= 0 {
		user, host = host[:at], host[at+1:]
	}
	if host == "" {
		return "", "", errors.New("ssh host is required")
	}
	if user == "" {
		return "", "", errors.New("ssh user is required")
	}

	if _, _, err := net.SplitHostPort(host); err == nil {
		return user, host, nil
	}
	return user, net.JoinHostPort(host, "22"), nil
}

func (t *SSHTransport) signer() (ssh.Signer, error) {
	if t.KeyPath == "" {
		return nil, errors.New("ssh key path is required")
	}

	key, err := os.ReadFile(t.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("read ssh key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parse ssh key %s: %w", t.KeyPath, err)
	}
	return signer, nil
}
