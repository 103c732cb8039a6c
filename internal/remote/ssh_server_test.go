package remote

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// testSSHServer is an in-process sshd that answers a few fixed commands:
// "echo alive" succeeds, "pgrep -x firefox" exits 1 with stderr, and
// "hang" never finishes.
type testSSHServer struct {
	addr    string
	keyPath string

	mu     sync.Mutex
	closed int
}

func (s *testSSHServer) disconnects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func newTestSSHServer(t *testing.T) *testSSHServer {
	t.Helper()

	_, hostPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	hostSigner, err := ssh.NewSignerFromKey(hostPriv)
	require.NoError(t, err)

	clientPub, clientPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	authorized, err := ssh.NewPublicKey(clientPub)
	require.NoError(t, err)

	block, err := ssh.MarshalPrivateKey(clientPriv, "")
	require.NoError(t, err)
	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(block), 0o600))

	config := &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if bytes.Equal(key.Marshal(), authorized.Marshal()) {
				return nil, nil
			}
			return nil, assert.AnError
		},
	}
	config.AddHostKey(hostSigner)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &testSSHServer{addr: ln.Addr().String(), keyPath: keyPath}
	done := make(chan struct{})
	t.Cleanup(func() {
		close(done)
		ln.Close()
	})

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go srv.serve(conn, config, done)
		}
	}()
	return srv
}

func (s *testSSHServer) serve(conn net.Conn, config *ssh.ServerConfig, done <-chan struct{}) {
	sconn, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		return
	}
	go ssh.DiscardRequests(reqs)
	go func() {
		sconn.Wait()
		s.mu.Lock()
		s.closed++
		s.mu.Unlock()
	}()

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			newCh.Reject(ssh.UnknownChannelType, "session only")
			continue
		}
		ch, chReqs, err := newCh.Accept()
		if err != nil {
			return
		}
		go s.session(ch, chReqs, done)
	}
}

func (s *testSSHServer) session(ch ssh.Channel, reqs <-chan *ssh.Request, done <-chan struct{}) {
	defer ch.Close()

	for req := range reqs {
		if req.Type != "exec" {
			req.Reply(false, nil)
			continue
		}
		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			req.Reply(false, nil)
			return
		}
		req.Reply(true, nil)

		status := uint32(0)
		switch payload.Command {
		case "echo alive":
			ch.Write([]byte("alive\n"))
		case "pgrep -x firefox":
			ch.Stderr().Write([]byte("no firefox\n"))
			status = 1
		case "hang":
			<-done
			return
		default:
			status = 127
		}
		ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
		return
	}
}

func (s *testSSHServer) transport() *SSHTransport {
	return &SSHTransport{
		Host:           "kiosk@" + s.addr,
		KeyPath:        s.keyPath,
		ConnectTimeout: 2 * time.Second,
	}
}

func TestSSHTransportExec(t *testing.T) {
	srv := newTestSSHServer(t)
	tr := srv.transport()

	stdout, stderr, code, err := tr.Exec(context.Background(), "echo alive")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "alive\n", string(stdout))
	assert.Empty(t, stderr)

	stdout, stderr, code, err = tr.Exec(context.Background(), "pgrep -x firefox")
	require.NoError(t, err)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Equal(t, "no firefox\n", string(stderr))
}

func TestSSHTransportRejectedKey(t *testing.T) {
	srv := newTestSSHServer(t)
	other := newTestSSHServer(t)
	tr := srv.transport()
	tr.KeyPath = other.keyPath

	_, _, code, err := tr.Exec(context.Background(), "echo alive")

	assert.Equal(t, -1, code)
	assert.ErrorContains(t, err, "unable to authenticate")
}

func TestSSHTransportClosesConnectionOnCancel(t *testing.T) {
	srv := newTestSSHServer(t)
	tr := srv.transport()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, code, err := tr.Exec(ctx, "hang")

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, -1, code)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Eventually(t, func() bool { return srv.disconnects() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestExecutorOverSSH(t *testing.T) {
	srv := newTestSSHServer(t)
	e := NewExecutor(srv.transport(), nil)

	res := e.Run("echo alive", time.Second)
	assert.True(t, res.Success)
	assert.Equal(t, "alive", res.Stdout)

	res = e.Run("hang", 100*time.Millisecond)
	assert.Equal(t, TimeoutMessage, res.Stderr)
	assert.Equal(t, -1, res.ExitCode)
	assert.Eventually(t, func() bool { return srv.disconnects() == 2 }, 2*time.Second, 10*time.Millisecond)
}
