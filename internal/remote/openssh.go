package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"time"
)

// OpenSSHTransport shells out to the system ssh binary, so ~/.ssh/config
// aliases and agent settings apply.
type OpenSSHTransport struct {
	Binary         string
	Host           string
	KeyPath        string
	ConnectTimeout time.Duration
}

// waitDelay bounds how long Exec waits for the output pipes after the ssh
// process has been killed.
const waitDelay = time.Second

// Exec kills the local ssh process when ctx is done.
func (t *OpenSSHTransport) Exec(ctx context.Context, command string) ([]byte, []byte, int, error) {
	if t.Host == "" {
		return nil, nil, -1, errors.New("ssh host is required")
	}

	cmd := exec.CommandContext(ctx, t.binary(), t.args(command)...)
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), stderr.Bytes(), 0, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return stdout.Bytes(), stderr.Bytes(), -1, fmt.Errorf("run %s: %w", t.binary(), ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return stdout.Bytes(), stderr.Bytes(), exitErr.ExitCode(), nil
	}
	return stdout.Bytes(), stderr.Bytes(), -1, fmt.Errorf("run %s: %w", t.binary(), err)
}

func (t *OpenSSHTransport) binary() string {
	if t.Binary == "" {
		return "ssh"
	}
	return t.Binary
}

func (t *OpenSSHTransport) args(command string) []string {
	var args []string
	if t.KeyPath != "" {
		args = append(args, "-i", t.KeyPath)
	}
	if t.ConnectTimeout > 0 {
		secs := int(math.Ceil(t.ConnectTimeout.Seconds()))
		args = append(args, "-o", fmt.Sprintf("ConnectTimeout=%d", secs))
	}
	args = append(args,
		"-o", "StrictHostKeyChecking=no",
		"-o", "BatchMode=yes",
		t.Host,
		command,
	)
	return args
}
