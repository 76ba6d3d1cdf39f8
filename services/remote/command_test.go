package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "''"},
		{"plain", "'plain'"},
		{"two words", "'two words'"},
		{"it's", `'it'\''s'`},
		{"'", `''\'''`},
		{"$(rm -rf /)", "'$(rm -rf /)'"},
		{"`id`", "'`id`'"},
		{"a;b|c&d", "'a;b|c&d'"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Quote(tc.in), "input %q", tc.in)
	}
}

func TestCommand(t *testing.T) {
	assert.Equal(t, "sudo 'mkdir' '-p' '/var/www/my app'",
		Command("sudo", "mkdir", "-p", "/var/www/my app"))
	assert.Equal(t, "cat ''", Command("cat", ""))
	assert.Equal(t, "hostname", Command("hostname"))
}

func TestOpen_BadPrivateKey(t *testing.T) {
	dialer := NewDialer(time.Second, time.Second)

	_, err := dialer.Open(context.Background(), "server1", 22, "deploy", "not a key")

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "server1", connErr.Host)
	assert.Contains(t, connErr.Error(), "parse private key")
}

func TestSessionClose_Idempotent(t *testing.T) {
	var closes int
	session := &sshSession{
		addr: "server1:22",
		closeConn: func() error {
			closes++
			return errors.New("use of closed network connection")
		},
	}

	err := session.Close()
	assert.Error(t, err, "the first close releases the connection and reports its outcome")

	assert.NoError(t, session.Close())
	assert.NoError(t, session.Close())
	assert.Equal(t, 1, closes, "the underlying connection is released exactly once")
}

func TestRemoteExecutionError_Message(t *testing.T) {
	exitErr := &RemoteExecutionError{Command: "ls", ExitStatus: 2, Stderr: "no such file\n"}
	assert.Equal(t, "remote command exited with status 2: no such file", exitErr.Error())

	stdoutOnly := &RemoteExecutionError{ExitStatus: 1, Stdout: "denied"}
	assert.Contains(t, stdoutOnly.Error(), "denied")

	wrapped := &RemoteExecutionError{Command: "ls", Err: errors.New("command timed out")}
	assert.Contains(t, wrapped.Error(), "command timed out")
	assert.EqualError(t, errors.Unwrap(wrapped), "command timed out")
}
