package step

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"provisionapi/config"
	"provisionapi/models"
	"provisionapi/services/hosting"
	"provisionapi/services/remote"

	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	if err := config.LoadConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// fakeAppRepo is an in-memory application registry.
type fakeAppRepo struct {
	mu     sync.Mutex
	nextID uint
	apps   map[string]*models.Application
}

func newFakeAppRepo() *fakeAppRepo {
	return &fakeAppRepo{apps: make(map[string]*models.Application)}
}

func appKey(host, username, name string) string {
	return host + "|" + username + "|" + name
}

func (r *fakeAppRepo) GetByID(_ *gorm.DB, id uint) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, app := range r.apps {
		if app.ID == id {
			copied := *app
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAppRepo) GetByKey(_ *gorm.DB, host, username, name string) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[appKey(host, username, name)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *app
	return &copied, nil
}

func (r *fakeAppRepo) Upsert(_ *gorm.DB, app *models.Application) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := appKey(app.Host, app.Username, app.ApplicationName)
	if existing, ok := r.apps[key]; ok {
		app.ID = existing.ID
	} else {
		r.nextID++
		app.ID = r.nextID
	}
	copied := *app
	r.apps[key] = &copied
	return app.ID, nil
}

func (r *fakeAppRepo) UpdateFields(_ *gorm.DB, id uint, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, app := range r.apps {
		if app.ID != id {
			continue
		}
		for key, value := range fields {
			switch key {
			case "selected_repo":
				app.SelectedRepo = value.(string)
			case "pathname":
				app.Pathname = value.(string)
			case "domain":
				app.Domain = value.(string)
			case "db_type":
				app.DBType = value.(string)
			case "status":
				app.Status = value.(string)
			}
		}
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeAppRepo) SaveDatabaseConfig(_ *gorm.DB, id uint, cfg models.DatabaseConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, app := range r.apps {
		if app.ID == id {
			app.DatabaseConfig = cfg
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeAppRepo) seed(app models.Application) *models.Application {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	app.ID = r.nextID
	r.apps[appKey(app.Host, app.Username, app.ApplicationName)] = &app
	return &app
}

// fakeLogRepo records appended history rows.
type fakeLogRepo struct {
	mu      sync.Mutex
	entries []models.StepLog
}

func (r *fakeLogRepo) Append(_ *gorm.DB, entry *models.StepLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uint(len(r.entries) + 1)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeLogRepo) ListByApplicationID(_ *gorm.DB, applicationID uint) ([]models.StepLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.StepLog
	for _, entry := range r.entries {
		if entry.ApplicationID == applicationID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *fakeLogRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *fakeLogRepo) last() models.StepLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[len(r.entries)-1]
}

// fakeSession records the commands run against it and replies from a
// scripted response table.
type fakeSession struct {
	mu        sync.Mutex
	commands  []string
	responses map[string]*remote.CommandResult // substring match
	closed    int
}

func (s *fakeSession) Run(_ context.Context, command string) (*remote.CommandResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, command)
	for needle, result := range s.responses {
		if strings.Contains(command, needle) {
			return result, nil
		}
	}
	return &remote.CommandResult{}, nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeSession) ran() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// fakeDialer hands out a shared fake session, or refuses connections.
type fakeDialer struct {
	session *fakeSession
	err     error
	opened  int
}

func (d *fakeDialer) Open(context.Context, string, int, string, string) (remote.Session, error) {
	d.opened++
	if d.err != nil {
		return nil, d.err
	}
	return d.session, nil
}

// fakeHosting is a scripted hosting client.
type fakeHosting struct {
	identity    *hosting.Identity
	verifyErr   error
	keyID       int64
	registerErr error
	registered  []string // owner/repo:title
	pr          *hosting.PullRequest
	prErr       error
	page        *hosting.RepositoryPage
}

func (h *fakeHosting) VerifyToken(context.Context, string) (*hosting.Identity, error) {
	if h.verifyErr != nil {
		return nil, h.verifyErr
	}
	return h.identity, nil
}

func (h *fakeHosting) ListRepositories(context.Context, string, int, int) (*hosting.RepositoryPage, error) {
	return h.page, nil
}

func (h *fakeHosting) RegisterDeployKey(_ context.Context, _, owner, repo, title, _ string, _ bool) (int64, error) {
	if h.registerErr != nil {
		return 0, h.registerErr
	}
	h.registered = append(h.registered, fmt.Sprintf("%s/%s:%s", owner, repo, title))
	return h.keyID, nil
}

func (h *fakeHosting) OpenPullRequest(context.Context, string, string, string, string, string, string, string, []hosting.FileChange) (*hosting.PullRequest, error) {
	if h.prErr != nil {
		return nil, h.prErr
	}
	return h.pr, nil
}
