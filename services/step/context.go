package step

import (
	"context"
	"strconv"

	"provisionapi/models"
	"provisionapi/repository"
	"provisionapi/services/hosting"
	"provisionapi/services/remote"
)

// Inputs is the typed payload of one step invocation. Controllers bind
// their request structs into it; steps declare which fields they require by
// name and the executor validates presence before anything touches the
// remote host.
type Inputs struct {
	Host            string
	Username        string
	ApplicationName string
	Port            int
	PrivateKey      string
	GithubToken     string
	SelectedRepo    string
	Pathname        string
	Domain          string
	DBType          string
	DBName          string
	DBUsername      string
	DBPassword      string
	DBPort          int
	Env             map[string]string
}

// Get resolves a declared input field by name; empty string means absent.
func (in Inputs) Get(field string) string {
	switch field {
	case "host":
		return in.Host
	case "username":
		return in.Username
	case "applicationName":
		return in.ApplicationName
	case "port":
		if in.Port == 0 {
			return ""
		}
		return strconv.Itoa(in.Port)
	case "privateKeyContent":
		return in.PrivateKey
	case "githubToken":
		return in.GithubToken
	case "selectedRepo":
		return in.SelectedRepo
	case "pathname":
		return in.Pathname
	case "domain":
		return in.Domain
	case "dbType":
		return in.DBType
	case "dbName":
		return in.DBName
	case "dbUsername":
		return in.DBUsername
	case "dbPassword":
		return in.DBPassword
	case "dbPort":
		if in.DBPort == 0 {
			return ""
		}
		return strconv.Itoa(in.DBPort)
	case "env":
		if len(in.Env) == 0 {
			return ""
		}
		return "set"
	default:
		return ""
	}
}

// Key is the natural key string of the target application.
func (in Inputs) Key() string {
	return in.Host + "|" + in.Username + "|" + in.ApplicationName
}

// Context carries everything a step needs to perform its work.
type Context struct {
	// App is the owning application row. It is nil only while the
	// connection verification step runs for a key that has no row yet.
	App     *models.Application
	Inputs  Inputs
	Remote  remote.Dialer
	Hosting hosting.Client
	Apps    repository.ApplicationRepository
}

// Result is the outcome of one step execution.
type Result struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Step is a named, idempotent unit of provisioning work. Invoking it twice
// with identical inputs against identical remote state must converge to the
// same remote end-state.
type Step interface {
	Name() string
	RequiredInputs() []string
	Execute(ctx context.Context, sc *Context) (*Result, error)
}
