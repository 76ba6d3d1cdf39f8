package remote

import (
	"fmt"
	"strings"
)

// ConnectionError indicates the SSH handshake or authentication against a
// target host did not complete.
type ConnectionError struct {
	Host string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// RemoteExecutionError indicates a remote command finished with a nonzero
// exit status or was cut off by the command timeout. Stdout and stderr are
// carried for the step history.
type RemoteExecutionError struct {
	Command    string
	ExitStatus int
	Stdout     string
	Stderr     string
	Err        error
}

func (e *RemoteExecutionError) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(e.Stdout)
	}
	if e.Err != nil {
		return fmt.Sprintf("remote command failed: %v", e.Err)
	}
	return fmt.Sprintf("remote command exited with status %d: %s", e.ExitStatus, detail)
}

func (e *RemoteExecutionError) Unwrap() error {
	return e.Err
}
