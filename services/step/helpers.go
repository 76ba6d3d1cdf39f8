package step

import (
	"context"
	"regexp"
	"strings"

	"provisionapi/services/remote"
)

// openAppSession dials the target host with the application's stored
// credentials.
func openAppSession(ctx context.Context, sc *Context) (remote.Session, error) {
	app := sc.App
	return sc.Remote.Open(ctx, app.Host, app.Port, app.Username, app.SSHPrivateKey)
}

// runChecked executes one remote command and treats a nonzero exit status
// as a RemoteExecutionError, carrying stdout/stderr for the step history.
func runChecked(ctx context.Context, session remote.Session, command string) (*remote.CommandResult, error) {
	result, err := session.Run(ctx, command)
	if err != nil {
		return nil, err
	}
	if result.ExitStatus != 0 {
		return nil, &remote.RemoteExecutionError{
			Command:    command,
			ExitStatus: result.ExitStatus,
			Stdout:     result.Stdout,
			Stderr:     result.Stderr,
		}
	}
	return result, nil
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// validIdentifier reports whether a value is safe to use as a SQL
// identifier (database or user name). Identifiers cannot be passed as bound
// parameters, so anything else is rejected outright instead of escaped.
func validIdentifier(name string) bool {
	return len(name) <= 64 && identifierPattern.MatchString(name)
}

// escapeMySQLString escapes a value for a single-quoted MySQL string
// literal, where backslash is an escape character.
func escapeMySQLString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", "''")
}

// escapePostgresString escapes a value for a single-quoted PostgreSQL
// string literal. Under standard_conforming_strings backslash is an
// ordinary character, so only quotes are doubled.
func escapePostgresString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
