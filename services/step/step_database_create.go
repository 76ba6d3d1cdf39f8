package step

import (
	"context"
	"fmt"
	"strings"

	"provisionapi/models"
	"provisionapi/pkg/logger"
	"provisionapi/services/remote"
)

// databaseCreateStep creates the application database and its user on the
// target host. Every statement is guarded (IF NOT EXISTS or tolerated
// already-exists failures), so running the step twice yields the same
// database and user with no duplicate-creation error.
type databaseCreateStep struct{}

func (s *databaseCreateStep) Name() string {
	return StepDatabaseCreation
}

func (s *databaseCreateStep) RequiredInputs() []string {
	return []string{"dbType", "dbName", "dbUsername", "dbPassword"}
}

func (s *databaseCreateStep) Execute(ctx context.Context, sc *Context) (*Result, error) {
	in := sc.Inputs

	if !validIdentifier(in.DBName) {
		return &Result{Success: false, Message: fmt.Sprintf("Invalid database name %q: only letters, digits and underscores are allowed", in.DBName)}, nil
	}
	if !validIdentifier(in.DBUsername) {
		return &Result{Success: false, Message: fmt.Sprintf("Invalid database username %q: only letters, digits and underscores are allowed", in.DBUsername)}, nil
	}

	session, err := openAppSession(ctx, sc)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	dbType := strings.ToLower(in.DBType)
	switch dbType {
	case "mysql", "mariadb":
		if err := s.createMySQL(ctx, session, in); err != nil {
			return nil, err
		}
	case "postgres", "postgresql":
		if err := s.createPostgres(ctx, session, in); err != nil {
			return nil, err
		}
	default:
		return &Result{Success: false, Message: fmt.Sprintf("Unsupported database type %q", in.DBType)}, nil
	}

	dbPort := in.DBPort
	if dbPort == 0 {
		dbPort = defaultDBPort(dbType)
	}
	cfg := models.DatabaseConfig{
		DBType:     dbType,
		DBName:     in.DBName,
		DBUsername: in.DBUsername,
		DBPassword: in.DBPassword,
		DBPort:     dbPort,
	}
	if err := sc.Apps.SaveDatabaseConfig(nil, sc.App.ID, cfg); err != nil {
		return nil, fmt.Errorf("save database config: %w", err)
	}
	if err := sc.Apps.UpdateFields(nil, sc.App.ID, map[string]interface{}{
		"db_type": dbType,
		"status":  "database created",
	}); err != nil {
		return nil, fmt.Errorf("save application: %w", err)
	}

	logger.Infof("Database %s (%s) provisioned for application %d", in.DBName, dbType, sc.App.ID)
	return &Result{
		Success: true,
		Message: fmt.Sprintf("Database %s and user %s created (%s)", in.DBName, in.DBUsername, dbType),
		Data: map[string]interface{}{
			"dbType": dbType,
			"dbName": in.DBName,
			"dbUser": in.DBUsername,
			"dbPort": dbPort,
		},
	}, nil
}

// createMySQL provisions database and user through the server's root MySQL
// account. Identifiers were validated above; the password travels inside a
// SQL string literal escaped for that position, and the whole script is a
// single quoted shell argument.
func (s *databaseCreateStep) createMySQL(ctx context.Context, session remote.Session, in Inputs) error {
	script := strings.Join([]string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`;", in.DBName),
		fmt.Sprintf("CREATE USER IF NOT EXISTS '%s'@'localhost' IDENTIFIED BY '%s';", in.DBUsername, escapeMySQLString(in.DBPassword)),
		fmt.Sprintf("ALTER USER '%s'@'localhost' IDENTIFIED BY '%s';", in.DBUsername, escapeMySQLString(in.DBPassword)),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON `%s`.* TO '%s'@'localhost';", in.DBName, in.DBUsername),
		"FLUSH PRIVILEGES;",
	}, " ")

	_, err := runChecked(ctx, session, remote.Command("sudo", "mysql", "-e", script))
	return err
}

// createPostgres provisions database and user through the postgres system
// account. createdb/createuser report already-exists on re-runs; those are
// treated as convergence, not failure.
func (s *databaseCreateStep) createPostgres(ctx context.Context, session remote.Session, in Inputs) error {
	createUser := remote.Command("sudo", "-u", "postgres", "createuser", in.DBUsername)
	if err := tolerateExists(session.Run(ctx, createUser)); err != nil {
		return err
	}

	createDB := remote.Command("sudo", "-u", "postgres", "createdb", "-O", in.DBUsername, in.DBName)
	if err := tolerateExists(session.Run(ctx, createDB)); err != nil {
		return err
	}

	alter := fmt.Sprintf("ALTER USER \"%s\" WITH PASSWORD '%s';", in.DBUsername, escapePostgresString(in.DBPassword))
	_, err := runChecked(ctx, session, remote.Command("sudo", "-u", "postgres", "psql", "-c", alter))
	return err
}

// tolerateExists accepts a command result whose only failure is an
// already-exists complaint.
func tolerateExists(result *remote.CommandResult, err error) error {
	if err != nil {
		return err
	}
	if result.ExitStatus == 0 {
		return nil
	}
	if strings.Contains(result.Stderr, "already exists") {
		return nil
	}
	return &remote.RemoteExecutionError{
		ExitStatus: result.ExitStatus,
		Stdout:     result.Stdout,
		Stderr:     result.Stderr,
	}
}

func defaultDBPort(dbType string) int {
	switch dbType {
	case "postgres", "postgresql":
		return 5432
	default:
		return 3306
	}
}
