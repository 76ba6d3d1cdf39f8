package step

import (
	"context"
	"fmt"
	"path"
	"strings"

	"provisionapi/pkg/logger"
	"provisionapi/services/remote"
)

// envUpdateStep merges key=value pairs into the existing .env file,
// preserving unrelated keys. Applying the same update twice leaves the file
// unchanged after the first run.
type envUpdateStep struct{}

func (s *envUpdateStep) Name() string {
	return StepEnvUpdate
}

func (s *envUpdateStep) RequiredInputs() []string {
	return []string{"env"}
}

func (s *envUpdateStep) Execute(ctx context.Context, sc *Context) (*Result, error) {
	app := sc.App
	in := sc.Inputs

	pathname := in.Pathname
	if pathname == "" {
		pathname = app.Pathname
	}
	if pathname == "" {
		return &Result{Success: false, Message: "No pathname on record. Run folder-setup first or supply a pathname."}, nil
	}

	session, err := openAppSession(ctx, sc)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	envPath := path.Join(pathname, "shared", ".env")

	// A missing file is an empty environment, not an error.
	read := fmt.Sprintf("cat %s 2>/dev/null || true", remote.Quote(envPath))
	current, err := runChecked(ctx, session, read)
	if err != nil {
		return nil, err
	}

	vars := parseEnvFile(current.Stdout)
	updated := make([]string, 0, len(in.Env))
	for key, value := range in.Env {
		vars[key] = value
		updated = append(updated, key)
	}

	if err := writeEnvFile(ctx, session, envPath, vars); err != nil {
		return nil, err
	}

	if err := sc.Apps.UpdateFields(nil, app.ID, map[string]interface{}{
		"status": "environment file updated",
	}); err != nil {
		return nil, fmt.Errorf("save application: %w", err)
	}

	logger.Infof("Environment file %s updated (%d keys) for application %d", envPath, len(updated), app.ID)
	return &Result{
		Success: true,
		Message: fmt.Sprintf("Updated %d environment entries in %s", len(updated), envPath),
		Data: map[string]interface{}{
			"path":        envPath,
			"updatedKeys": updated,
		},
	}, nil
}

// parseEnvFile reads KEY=VALUE lines, skipping blanks and comments.
func parseEnvFile(content string) map[string]string {
	vars := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found || key == "" {
			continue
		}
		vars[key] = value
	}
	return vars
}
