package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/outreach/pkg/calls"
	"github.com/dukex/outreach/pkg/email"
	"github.com/dukex/outreach/pkg/engine"
	"github.com/dukex/outreach/pkg/leads"
	"github.com/dukex/outreach/pkg/metrics"
	"github.com/dukex/outreach/pkg/mocks"
	"github.com/dukex/outreach/pkg/persistence/file"
	"github.com/dukex/outreach/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testService struct {
	service   *services.Outreach
	collector *metrics.Collector
	generator *mocks.MockGenerator
	mailer    *mocks.MockMailer
}

func newTestService(t *testing.T) *testService {
	t.Helper()

	provider := &mocks.MockProvider{}
	provider.On("Name").Return("mock")

	ts := &testService{
		collector: metrics.NewCollector(),
		generator: &mocks.MockGenerator{},
		mailer:    &mocks.MockMailer{},
	}

	store := leads.NewStore()
	db := file.NewPersistence(t.TempDir())
	clock := clockwork.NewFakeClock()

	eng := engine.New(store,
		calls.NewOrchestrator(provider, calls.WithClock(clock)),
		email.NewComposer(ts.generator),
		email.NewDispatcher(ts.mailer),
		engine.WithClock(clock),
		engine.WithPacing(0),
		engine.WithHistory(db.RunRepository()),
		engine.WithObservers(ts.collector),
	)

	ts.service = services.NewOutreach(store, eng, db)

	return ts
}

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	ts := newTestService(t)

	return NewAPI(slog.Default(), ts.service, ts.collector).App()
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t)

	status, body := get(t, app, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Outreach API", body)
}

func TestAPI_HealthCheck(t *testing.T) {
	app := setupTestApp(t)

	status, _ := get(t, app, "/livez")
	assert.Equal(t, http.StatusOK, status)

	status, _ = get(t, app, "/readyz")
	assert.Equal(t, http.StatusOK, status)

	status, body := get(t, app, "/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Persistence layer is healthy")
}

func TestAPI_Metrics(t *testing.T) {
	app := setupTestApp(t)

	status, body := get(t, app, "/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "outreach_run_active")
}

func TestAPI_RoutesRegistered(t *testing.T) {
	app := setupTestApp(t)

	status, body := get(t, app, "/workflow")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Lead Outreach")

	status, _ = get(t, app, "/runs/current")
	assert.Equal(t, http.StatusOK, status)
}
