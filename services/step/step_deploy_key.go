package step

import (
	"context"
	"fmt"
	"strings"

	"provisionapi/config"
	"provisionapi/pkg/logger"
	"provisionapi/services/remote"
)

// deployKeyStep generates a deploy keypair, registers the public half with
// the hosting service and installs the private half on the server. A key
// with the same title from an earlier run is overwritten on both sides, so
// re-running converges instead of failing.
type deployKeyStep struct{}

func (s *deployKeyStep) Name() string {
	return StepDeployKeyGeneration
}

func (s *deployKeyStep) RequiredInputs() []string {
	return []string{"selectedRepo"}
}

func (s *deployKeyStep) Execute(ctx context.Context, sc *Context) (*Result, error) {
	app := sc.App
	in := sc.Inputs

	token := in.GithubToken
	if token == "" {
		token = app.GithubToken
	}
	if token == "" {
		return &Result{Success: false, Message: "No hosting token on record. Re-verify the connection with a token first."}, nil
	}

	owner, repo, err := splitRepo(in.SelectedRepo)
	if err != nil {
		return &Result{Success: false, Message: err.Error()}, nil
	}

	keyName := fmt.Sprintf("%s-%s", config.Cfg.DeployKeyPrefix, app.ApplicationName)
	publicKey, privateKeyPEM, err := generateDeployKey(keyName)
	if err != nil {
		return nil, err
	}

	keyID, err := sc.Hosting.RegisterDeployKey(ctx, token, owner, repo, keyName, publicKey, true)
	if err != nil {
		return nil, fmt.Errorf("register deploy key: %w", err)
	}

	session, err := openAppSession(ctx, sc)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	keyPath := ".ssh/" + keyName
	install := fmt.Sprintf("mkdir -p .ssh && printf '%%s' %s > %s && chmod 600 %s",
		remote.Quote(privateKeyPEM), remote.Quote(keyPath), remote.Quote(keyPath))
	if _, err := runChecked(ctx, session, install); err != nil {
		return nil, err
	}

	if err := sc.Apps.UpdateFields(nil, app.ID, map[string]interface{}{
		"selected_repo": in.SelectedRepo,
		"status":        "deploy key registered",
	}); err != nil {
		return nil, fmt.Errorf("save selected repository: %w", err)
	}

	logger.Infof("Deploy key %s installed for application %d (%s)", keyName, app.ID, in.SelectedRepo)
	return &Result{
		Success: true,
		Message: fmt.Sprintf("Deploy key %s registered on %s", keyName, in.SelectedRepo),
		Data: map[string]interface{}{
			"keyName":    keyName,
			"repository": in.SelectedRepo,
			"keyId":      keyID,
		},
	}, nil
}

// splitRepo parses an "owner/name" repository reference.
func splitRepo(fullName string) (owner, repo string, err error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q, expected owner/name", fullName)
	}
	return parts[0], parts[1], nil
}
