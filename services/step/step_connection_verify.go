package step

import (
	"context"
	"fmt"

	"provisionapi/config"
	"provisionapi/models"
	"provisionapi/pkg/logger"

	"github.com/google/uuid"
)

// sshConnection is the SSH half of the verification report.
type sshConnection struct {
	Connected bool   `json:"connected"`
	Host      string `json:"host"`
	Username  string `json:"username"`
	Error     string `json:"error,omitempty"`
}

// githubConnection is the hosting half, present only when a token was supplied.
type githubConnection struct {
	Connected bool   `json:"connected"`
	Username  string `json:"username,omitempty"`
	Error     string `json:"error,omitempty"`
}

// connectionVerifyStep probes the SSH connection and, when a hosting token
// is supplied, verifies it. The application row is created or refreshed on
// every attempt, successful or not, so re-verifying an existing key updates
// the row in place with the latest credentials.
type connectionVerifyStep struct{}

func (s *connectionVerifyStep) Name() string {
	return StepConnectionVerification
}

func (s *connectionVerifyStep) RequiredInputs() []string {
	return []string{"host", "username", "applicationName", "privateKeyContent"}
}

func (s *connectionVerifyStep) Execute(ctx context.Context, sc *Context) (*Result, error) {
	in := sc.Inputs
	port := in.Port
	if port == 0 {
		port = config.Cfg.SSHDefaultPort
	}

	ssh := sshConnection{Host: in.Host, Username: in.Username}
	session, err := sc.Remote.Open(ctx, in.Host, port, in.Username, in.PrivateKey)
	if err != nil {
		ssh.Error = err.Error()
		logger.Warnf("SSH verification failed for %s@%s: %v", in.Username, in.Host, err)
	} else {
		defer session.Close()
		ssh.Connected = true
	}

	var githubUsername string
	var github *githubConnection
	if in.GithubToken != "" {
		github = &githubConnection{}
		identity, err := sc.Hosting.VerifyToken(ctx, in.GithubToken)
		if err != nil {
			github.Error = err.Error()
			logger.Warnf("Hosting token verification failed for %s: %v", in.Key(), err)
		} else {
			github.Connected = true
			github.Username = identity.Login
			githubUsername = identity.Login
		}
	}

	success := ssh.Connected && (github == nil || github.Connected)

	status := "connection verified"
	if !success {
		status = "connection verification failed"
	}
	app := &models.Application{
		Host:            in.Host,
		Username:        in.Username,
		ApplicationName: in.ApplicationName,
		Port:            port,
		SSHPrivateKey:   in.PrivateKey,
		GithubToken:     in.GithubToken,
		GithubUsername:  githubUsername,
		Status:          status,
	}
	if _, err := sc.Apps.Upsert(nil, app); err != nil {
		return nil, fmt.Errorf("save application: %w", err)
	}

	connections := map[string]interface{}{"ssh": ssh}
	if github != nil {
		connections["github"] = github
	}

	message := fmt.Sprintf("SSH connection to %s@%s verified", in.Username, in.Host)
	if !ssh.Connected {
		message = fmt.Sprintf("SSH connection to %s@%s failed: %s", in.Username, in.Host, ssh.Error)
	} else if github != nil && !github.Connected {
		message = fmt.Sprintf("SSH connection verified but hosting token rejected: %s", github.Error)
	}

	return &Result{
		Success: success,
		Message: message,
		Data: map[string]interface{}{
			"sessionId":   uuid.NewString(),
			"connections": connections,
		},
	}, nil
}
