package step

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"provisionapi/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededApp(apps *fakeAppRepo) *models.Application {
	return apps.seed(models.Application{
		Host:            "server1",
		Username:        "deploy",
		ApplicationName: "shop",
		Port:            22,
		SSHPrivateKey:   "key-pem",
		GithubToken:     "tok",
		Pathname:        "/var/www/shop",
	})
}

func testInputs() Inputs {
	return Inputs{Host: "server1", Username: "deploy", ApplicationName: "shop"}
}

func newTestExecutor(apps *fakeAppRepo, logs *fakeLogRepo, dialer *fakeDialer, hostingClient *fakeHosting) *Executor {
	return NewExecutor(NewRegistry(), apps, logs, dialer, hostingClient)
}

func TestExecute_UnknownStep(t *testing.T) {
	apps := newFakeAppRepo()
	logs := &fakeLogRepo{}
	e := newTestExecutor(apps, logs, &fakeDialer{session: &fakeSession{}}, &fakeHosting{})

	_, err := e.Execute(context.Background(), "no-such-step", testInputs())

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Zero(t, logs.count())
}

func TestExecute_MissingNaturalKey(t *testing.T) {
	apps := newFakeAppRepo()
	logs := &fakeLogRepo{}
	e := newTestExecutor(apps, logs, &fakeDialer{session: &fakeSession{}}, &fakeHosting{})

	_, err := e.Execute(context.Background(), StepFolderSetup, Inputs{Host: "h", Username: "u"})

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, err.Error(), "applicationName")
	assert.Zero(t, logs.count(), "validation failures must not be persisted")
}

func TestExecute_UnknownApplication(t *testing.T) {
	apps := newFakeAppRepo()
	logs := &fakeLogRepo{}
	e := newTestExecutor(apps, logs, &fakeDialer{session: &fakeSession{}}, &fakeHosting{})

	in := testInputs()
	in.Pathname = "/var/www/shop"
	_, err := e.Execute(context.Background(), StepFolderSetup, in)

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, err.Error(), "Application not found")
	assert.Zero(t, logs.count(), "not-found failures must not be persisted")
}

func TestExecute_MissingRequiredInput(t *testing.T) {
	apps := newFakeAppRepo()
	seededApp(apps)
	logs := &fakeLogRepo{}
	dialer := &fakeDialer{session: &fakeSession{}}
	e := newTestExecutor(apps, logs, dialer, &fakeHosting{})

	_, err := e.Execute(context.Background(), StepFolderSetup, testInputs())

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, err.Error(), "pathname")
	assert.Zero(t, logs.count())
	assert.Zero(t, dialer.opened, "no remote call before validation passes")
}

func TestExecute_AppendsOneRowPerInvocation(t *testing.T) {
	apps := newFakeAppRepo()
	app := seededApp(apps)
	logs := &fakeLogRepo{}
	e := newTestExecutor(apps, logs, &fakeDialer{session: &fakeSession{}}, &fakeHosting{})

	in := testInputs()
	in.Pathname = "/var/www/shop"

	for i := 1; i <= 2; i++ {
		result, err := e.Execute(context.Background(), StepFolderSetup, in)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, i, logs.count())
	}

	entries, err := logs.ListByApplicationID(nil, app.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, StepFolderSetup, entry.Step)
		assert.Equal(t, models.StepStatusSuccess, entry.Status)
		assert.Contains(t, entry.Message, "duration:")
	}
}

func TestExecute_FailureIsNormalizedAndLogged(t *testing.T) {
	apps := newFakeAppRepo()
	seededApp(apps)
	logs := &fakeLogRepo{}
	dialer := &fakeDialer{err: errors.New("auth refused")}
	e := newTestExecutor(apps, logs, dialer, &fakeHosting{})

	in := testInputs()
	in.Pathname = "/var/www/shop"
	result, err := e.Execute(context.Background(), StepFolderSetup, in)

	require.NoError(t, err, "step-internal failures are never propagated raw")
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "auth refused")
	require.Equal(t, 1, logs.count())
	assert.Equal(t, models.StepStatusFailed, logs.last().Status)
}

type panickyStep struct{}

func (panickyStep) Name() string             { return "panicky" }
func (panickyStep) RequiredInputs() []string { return nil }
func (panickyStep) Execute(context.Context, *Context) (*Result, error) {
	panic("boom")
}

func TestExecute_PanicBecomesFailedResult(t *testing.T) {
	apps := newFakeAppRepo()
	seededApp(apps)
	logs := &fakeLogRepo{}
	registry := NewRegistry()
	registry.Register(panickyStep{})
	e := NewExecutor(registry, apps, logs, &fakeDialer{session: &fakeSession{}}, &fakeHosting{})

	result, err := e.Execute(context.Background(), "panicky", testInputs())

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "boom")
	require.Equal(t, 1, logs.count())
	assert.Equal(t, models.StepStatusFailed, logs.last().Status)
}

type slowStep struct {
	mu      sync.Mutex
	running int
	maxSeen int
}

func (s *slowStep) Name() string             { return "slow" }
func (s *slowStep) RequiredInputs() []string { return nil }
func (s *slowStep) Execute(context.Context, *Context) (*Result, error) {
	s.mu.Lock()
	s.running++
	if s.running > s.maxSeen {
		s.maxSeen = s.running
	}
	s.mu.Unlock()

	time.Sleep(20 * time.Millisecond)

	s.mu.Lock()
	s.running--
	s.mu.Unlock()
	return &Result{Success: true, Message: "done"}, nil
}

func TestExecute_SerializesPerApplication(t *testing.T) {
	apps := newFakeAppRepo()
	seededApp(apps)
	logs := &fakeLogRepo{}
	slow := &slowStep{}
	registry := NewRegistry()
	registry.Register(slow)
	e := NewExecutor(registry, apps, logs, &fakeDialer{session: &fakeSession{}}, &fakeHosting{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Execute(context.Background(), "slow", testInputs())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, slow.maxSeen, "steps against one application must not overlap")
	assert.Equal(t, 4, logs.count())
}

func TestExecute_ConnectionVerifyCreatesApplicationOnFailedAttempt(t *testing.T) {
	apps := newFakeAppRepo()
	logs := &fakeLogRepo{}
	dialer := &fakeDialer{err: errors.New("handshake timeout")}
	e := newTestExecutor(apps, logs, dialer, &fakeHosting{})

	in := testInputs()
	in.PrivateKey = "key-pem"
	result, err := e.Execute(context.Background(), StepConnectionVerification, in)

	require.NoError(t, err)
	assert.False(t, result.Success)

	// The attempt still registers the application and its history row.
	app, err := apps.GetByKey(nil, "server1", "deploy", "shop")
	require.NoError(t, err)
	require.Equal(t, 1, logs.count())
	assert.Equal(t, app.ID, logs.last().ApplicationID)
	assert.Equal(t, StepConnectionVerification, logs.last().Step)
}

func TestExecute_VerifyUpsertsSameRow(t *testing.T) {
	apps := newFakeAppRepo()
	logs := &fakeLogRepo{}
	e := newTestExecutor(apps, logs, &fakeDialer{session: &fakeSession{}}, &fakeHosting{})

	in := testInputs()
	in.PrivateKey = "first-key"
	_, err := e.Execute(context.Background(), StepConnectionVerification, in)
	require.NoError(t, err)

	in.PrivateKey = "second-key"
	_, err = e.Execute(context.Background(), StepConnectionVerification, in)
	require.NoError(t, err)

	app, err := apps.GetByKey(nil, "server1", "deploy", "shop")
	require.NoError(t, err)
	assert.Equal(t, uint(1), app.ID, "re-verifying must update the existing row, not create a duplicate")
	assert.Equal(t, "second-key", app.SSHPrivateKey, "latest credentials win")
	assert.Equal(t, 2, logs.count())
}

func TestHistory_UnknownApplication(t *testing.T) {
	e := newTestExecutor(newFakeAppRepo(), &fakeLogRepo{}, &fakeDialer{session: &fakeSession{}}, &fakeHosting{})

	_, err := e.History("ghost", "nobody", "nothing")

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestInputs_Get(t *testing.T) {
	in := Inputs{Host: "h", Port: 2222, Env: map[string]string{"A": "1"}}
	assert.Equal(t, "h", in.Get("host"))
	assert.Equal(t, "2222", in.Get("port"))
	assert.Equal(t, "", in.Get("username"))
	assert.NotEqual(t, "", in.Get("env"))
	assert.Equal(t, "", Inputs{}.Get("env"))
	assert.Equal(t, "", in.Get("unknown"))
}

func TestRegistry_ContainsCanonicalSteps(t *testing.T) {
	names := NewRegistry().Names()
	expected := []string{
		StepConnectionVerification,
		StepDatabaseCreation,
		StepDeployKeyGeneration,
		StepDeployWorkflowUpdate,
		StepEnvSetup,
		StepEnvUpdate,
		StepFolderSetup,
		StepSSHKeySetup,
	}
	assert.Equal(t, strings.Join(expected, ","), strings.Join(names, ","))
}
