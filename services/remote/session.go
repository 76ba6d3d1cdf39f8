package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"provisionapi/pkg/logger"

	"golang.org/x/crypto/ssh"
)

// CommandResult captures the output of one remote command.
type CommandResult struct {
	Stdout     string
	Stderr     string
	ExitStatus int
}

// Session is an authenticated connection to a target host. Close is safe to
// call more than once.
type Session interface {
	Run(ctx context.Context, command string) (*CommandResult, error)
	Close() error
}

// Dialer opens remote sessions. The SSH implementation is swapped for a
// fake in step tests.
type Dialer interface {
	Open(ctx context.Context, host string, port int, username, privateKeyPEM string) (Session, error)
}

type sshDialer struct {
	connectTimeout time.Duration
	commandTimeout time.Duration
}

// NewDialer creates an SSH dialer. connectTimeout bounds the TCP dial plus
// handshake; commandTimeout bounds each Run call unless the context carries
// an earlier deadline.
func NewDialer(connectTimeout, commandTimeout time.Duration) Dialer {
	return &sshDialer{
		connectTimeout: connectTimeout,
		commandTimeout: commandTimeout,
	}
}

func (d *sshDialer) Open(ctx context.Context, host string, port int, username, privateKeyPEM string) (Session, error) {
	signer, err := ssh.ParsePrivateKey([]byte(privateKeyPEM))
	if err != nil {
		return nil, &ConnectionError{Host: host, Err: fmt.Errorf("parse private key: %w", err)}
	}

	cfg := &ssh.ClientConfig{
		User:            username,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         d.connectTimeout,
	}

	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	logger.Debugf("Opening SSH session to %s as %s", addr, username)

	conn, err := net.DialTimeout("tcp", addr, d.connectTimeout)
	if err != nil {
		return nil, &ConnectionError{Host: host, Err: err}
	}

	// The deadline covers the handshake as well, not just the TCP dial.
	if err := conn.SetDeadline(time.Now().Add(d.connectTimeout)); err != nil {
		conn.Close()
		return nil, &ConnectionError{Host: host, Err: err}
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, &ConnectionError{Host: host, Err: err}
	}
	if err := conn.SetDeadline(time.Time{}); err != nil {
		sshConn.Close()
		return nil, &ConnectionError{Host: host, Err: err}
	}

	logger.Infof("SSH session established to %s as %s", addr, username)
	client := ssh.NewClient(sshConn, chans, reqs)
	return &sshSession{
		client:         client,
		closeConn:      client.Close,
		addr:           addr,
		commandTimeout: d.commandTimeout,
	}, nil
}

type sshSession struct {
	client         *ssh.Client
	closeConn      func() error
	addr           string
	commandTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// Run executes one command on the remote host and waits for completion.
// The call is bounded by the command timeout (or an earlier context
// deadline); on expiry the underlying connection is torn down to unblock
// the in-flight command and a RemoteExecutionError is returned.
func (s *sshSession) Run(ctx context.Context, command string) (*CommandResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	sess, err := s.client.NewSession()
	if err != nil {
		return nil, &RemoteExecutionError{Command: command, Err: fmt.Errorf("open channel: %w", err)}
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- sess.Run(command)
	}()

	select {
	case <-ctx.Done():
		// Closing the connection is the only way to unblock a hanging
		// remote command; the session is unusable afterwards.
		s.Close()
		<-done
		return nil, &RemoteExecutionError{
			Command: command,
			Stdout:  stdout.String(),
			Stderr:  stderr.String(),
			Err:     fmt.Errorf("command timed out: %w", ctx.Err()),
		}
	case err = <-done:
	}

	result := &CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			result.ExitStatus = exitErr.ExitStatus()
			return result, nil
		}
		return result, &RemoteExecutionError{
			Command: command,
			Stdout:  result.Stdout,
			Stderr:  result.Stderr,
			Err:     err,
		}
	}
	return result, nil
}

// Close releases the connection. Calling it on an already closed session is
// a no-op.
func (s *sshSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	logger.Debugf("Closing SSH session to %s", s.addr)
	return s.closeConn()
}
