package step

import (
	"context"
	"fmt"
	"path"

	"provisionapi/pkg/logger"
	"provisionapi/services/remote"
)

// folderSetupStep prepares the deployment directory layout. mkdir -p makes
// it naturally idempotent; path and ownership are identical after any run.
type folderSetupStep struct{}

func (s *folderSetupStep) Name() string {
	return StepFolderSetup
}

func (s *folderSetupStep) RequiredInputs() []string {
	return []string{"pathname"}
}

func (s *folderSetupStep) Execute(ctx context.Context, sc *Context) (*Result, error) {
	app := sc.App
	pathname := sc.Inputs.Pathname

	session, err := openAppSession(ctx, sc)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	dirs := []string{
		pathname,
		path.Join(pathname, "current"),
		path.Join(pathname, "releases"),
		path.Join(pathname, "shared"),
	}
	mkdirArgs := append([]string{"mkdir", "-p"}, dirs...)
	if _, err := runChecked(ctx, session, remote.Command("sudo", mkdirArgs...)); err != nil {
		return nil, err
	}

	ownership := fmt.Sprintf("%s:%s", app.Username, app.Username)
	if _, err := runChecked(ctx, session, remote.Command("sudo", "chown", "-R", ownership, pathname)); err != nil {
		return nil, err
	}

	if err := sc.Apps.UpdateFields(nil, app.ID, map[string]interface{}{
		"pathname": pathname,
		"status":   "folder layout prepared",
	}); err != nil {
		return nil, fmt.Errorf("save pathname: %w", err)
	}

	logger.Infof("Folder layout prepared at %s for application %d", pathname, app.ID)
	return &Result{
		Success: true,
		Message: fmt.Sprintf("Folder layout prepared at %s", pathname),
		Data: map[string]interface{}{
			"pathname":    pathname,
			"directories": dirs,
		},
	}, nil
}
