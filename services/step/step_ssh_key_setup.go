package step

import (
	"context"
	"fmt"
	"strings"

	"provisionapi/pkg/logger"
	"provisionapi/services/remote"
)

// sshKeySetupStep generates the server's own SSH identity, used when the
// server pulls from the repository. An existing key of the same name is
// overwritten, so re-running replaces rather than fails.
type sshKeySetupStep struct{}

func (s *sshKeySetupStep) Name() string {
	return StepSSHKeySetup
}

func (s *sshKeySetupStep) RequiredInputs() []string {
	return nil
}

func (s *sshKeySetupStep) Execute(ctx context.Context, sc *Context) (*Result, error) {
	app := sc.App

	session, err := openAppSession(ctx, sc)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	keyPath := fmt.Sprintf(".ssh/id_ed25519_%s", app.ApplicationName)
	comment := fmt.Sprintf("%s@%s", app.ApplicationName, app.Host)

	// ssh-keygen prompts on an existing file, so clear both halves first.
	generate := fmt.Sprintf("mkdir -p .ssh && rm -f %s %s && ssh-keygen -t ed25519 -N '' -C %s -f %s",
		remote.Quote(keyPath),
		remote.Quote(keyPath+".pub"),
		remote.Quote(comment),
		remote.Quote(keyPath))
	if _, err := runChecked(ctx, session, generate); err != nil {
		return nil, err
	}

	pub, err := runChecked(ctx, session, remote.Command("cat", keyPath+".pub"))
	if err != nil {
		return nil, err
	}
	publicKey := strings.TrimSpace(pub.Stdout)

	if err := sc.Apps.UpdateFields(nil, app.ID, map[string]interface{}{
		"status": "server SSH key generated",
	}); err != nil {
		return nil, fmt.Errorf("save application: %w", err)
	}

	logger.Infof("Server SSH key generated at %s for application %d", keyPath, app.ID)
	return &Result{
		Success: true,
		Message: fmt.Sprintf("Server SSH key generated at %s", keyPath),
		Data: map[string]interface{}{
			"keyPath":   keyPath,
			"publicKey": publicKey,
		},
	}, nil
}
