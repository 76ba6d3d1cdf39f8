package step

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"provisionapi/pkg/logger"
	"provisionapi/services/remote"
)

// envSetupStep writes the application's .env file under the shared
// directory from the saved database config and domain. The file is
// rewritten wholesale, so re-running converges on the same content.
type envSetupStep struct{}

func (s *envSetupStep) Name() string {
	return StepEnvSetup
}

func (s *envSetupStep) RequiredInputs() []string {
	return nil
}

func (s *envSetupStep) Execute(ctx context.Context, sc *Context) (*Result, error) {
	app := sc.App
	in := sc.Inputs

	pathname := in.Pathname
	if pathname == "" {
		pathname = app.Pathname
	}
	if pathname == "" {
		return &Result{Success: false, Message: "No pathname on record. Run folder-setup first or supply a pathname."}, nil
	}

	domain := in.Domain
	if domain == "" {
		domain = app.Domain
	}

	vars := map[string]string{
		"APP_NAME": app.ApplicationName,
		"DOMAIN":   domain,
	}
	if cfg := app.DatabaseConfig; cfg.DBName != "" {
		vars["DB_TYPE"] = cfg.DBType
		vars["DB_NAME"] = cfg.DBName
		vars["DB_USER"] = cfg.DBUsername
		vars["DB_PASSWORD"] = cfg.DBPassword
		vars["DB_PORT"] = strconv.Itoa(cfg.DBPort)
	}

	session, err := openAppSession(ctx, sc)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	envPath := path.Join(pathname, "shared", ".env")
	if err := writeEnvFile(ctx, session, envPath, vars); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"status": "environment file created"}
	if domain != "" {
		fields["domain"] = domain
	}
	if err := sc.Apps.UpdateFields(nil, app.ID, fields); err != nil {
		return nil, fmt.Errorf("save application: %w", err)
	}

	logger.Infof("Environment file written to %s for application %d", envPath, app.ID)
	return &Result{
		Success: true,
		Message: fmt.Sprintf("Environment file written to %s", envPath),
		Data: map[string]interface{}{
			"path": envPath,
			"keys": sortedKeys(vars),
		},
	}, nil
}

// writeEnvFile renders KEY=VALUE lines in deterministic order and replaces
// the remote file, restricting its permissions.
func writeEnvFile(ctx context.Context, session remote.Session, envPath string, vars map[string]string) error {
	var b strings.Builder
	for _, key := range sortedKeys(vars) {
		fmt.Fprintf(&b, "%s=%s\n", key, vars[key])
	}

	command := fmt.Sprintf("mkdir -p %s && printf '%%s' %s > %s && chmod 600 %s",
		remote.Quote(path.Dir(envPath)),
		remote.Quote(b.String()),
		remote.Quote(envPath),
		remote.Quote(envPath))
	_, err := runChecked(ctx, session, command)
	return err
}

func sortedKeys(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
