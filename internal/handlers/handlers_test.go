package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"content-publisher/internal/auth"
	"content-publisher/internal/database/models"
	"content-publisher/internal/locales"
	"content-publisher/internal/publishing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Mocks ---

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context) (publishing.Summary, error) {
	args := m.Called(ctx)
	return args.Get(0).(publishing.Summary), args.Error(1)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListByPublication(ctx context.Context, published bool, limit int64) ([]models.ScheduledContent, error) {
	args := m.Called(ctx, published, limit)
	if items, ok := args.Get(0).([]models.ScheduledContent); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// --- Helpers ---

func newTestHandler(t *testing.T, runner *MockRunner, store *MockStore, secret string) http.Handler {
	t.Helper()
	require.NoError(t, locales.Init("en"))
	h, err := NewHandler(HandlerDeps{
		Runner:     runner,
		Store:      store,
		Secret:     auth.NewSecretChecker(secret),
		Gatherer:   prometheus.NewRegistry(),
		RunTimeout: time.Second,
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)
	return h.Routes()
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

// --- Tests ---

func TestNewHandlerRequiresDependencies(t *testing.T) {
	_, err := NewHandler(HandlerDeps{Store: &MockStore{}})
	assert.EqualError(t, err, "runner cannot be nil")
	_, err = NewHandler(HandlerDeps{Runner: &MockRunner{}})
	assert.EqualError(t, err, "schedule store cannot be nil")
}

func TestPublishScheduledIdle(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Run", mock.Anything).Return(publishing.Summary{Outcome: publishing.RunIdle}, nil).Once()
	h := newTestHandler(t, runner, &MockStore{}, "")

	rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/api/cron/publish-scheduled", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{
		"success": true,
		"message": "No content scheduled for publishing at this time",
	}, body)
	runner.AssertExpectations(t)
}

func TestPublishScheduledProcessed(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Run", mock.Anything).Return(publishing.Summary{
		Outcome: publishing.RunProcessed,
		Results: []publishing.Result{
			{ContentID: "a1", Success: true, PublishedDate: "2025-03-10T17:30:02.000+05:30"},
			{ContentID: "b2", Success: false, Status: 500, Error: "webhook returned status 500"},
		},
	}, nil).Once()
	h := newTestHandler(t, runner, &MockStore{}, "")

	rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/api/cron/publish-scheduled", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Processed 2 scheduled content items", body["message"])

	results, ok := body["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Equal(t, "a1", first["contentId"])
	assert.Equal(t, true, first["success"])
	assert.Equal(t, "2025-03-10T17:30:02.000+05:30", first["publishedDate"])
	assert.NotContains(t, first, "status")
	second := results[1].(map[string]any)
	assert.Equal(t, false, second["success"])
	assert.Equal(t, float64(500), second["status"])
}

func TestPublishScheduledLocalizesMessage(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Run", mock.Anything).Return(publishing.Summary{
		Outcome: publishing.RunProcessed,
		Results: []publishing.Result{{ContentID: "a1", Success: true}},
	}, nil).Once()
	h := newTestHandler(t, runner, &MockStore{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/cron/publish-scheduled", nil)
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")
	_, body := do(t, h, req)
	assert.Equal(t, "Обработан 1 запланированный материал", body["message"])
}

func TestPublishScheduledSkipped(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Run", mock.Anything).Return(publishing.Summary{Outcome: publishing.RunSkipped}, nil).Once()
	h := newTestHandler(t, runner, &MockStore{}, "")

	rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/api/cron/publish-scheduled", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "A publishing run is already in progress", body["message"])
	assert.NotContains(t, body, "results")
}

func TestPublishScheduledScanFailure(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Run", mock.Anything).Return(publishing.Summary{}, errors.New("scan due content: connection refused")).Once()
	h := newTestHandler(t, runner, &MockStore{}, "")

	rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/api/cron/publish-scheduled", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{
		"success": false,
		"message": "Failed to process scheduled content",
		"error":   "scan due content: connection refused",
	}, body)
}

func TestPublishScheduledDetachesFromRequest(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Run", mock.MatchedBy(func(ctx context.Context) bool {
		_, hasDeadline := ctx.Deadline()
		return ctx.Err() == nil && hasDeadline
	})).Return(publishing.Summary{Outcome: publishing.RunIdle}, nil).Once()
	h := newTestHandler(t, runner, &MockStore{}, "")

	reqCtx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/cron/publish-scheduled", nil).WithContext(reqCtx)
	rec, _ := do(t, h, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	runner.AssertExpectations(t)
}

func TestPublishScheduledRequiresSecret(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Run", mock.Anything).Return(publishing.Summary{Outcome: publishing.RunIdle}, nil)
	h := newTestHandler(t, runner, &MockStore{}, "s3cret")

	rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/api/cron/publish-scheduled", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Unauthorized", body["message"])
	runner.AssertNotCalled(t, "Run", mock.Anything)

	req := httptest.NewRequest(http.MethodGet, "/api/cron/publish-scheduled", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec, _ = do(t, h, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, httptest.NewRequest(http.MethodGet, "/api/cron/publish-scheduled?token=s3cret", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	runner.AssertNumberOfCalls(t, "Run", 2)
}

func TestListScheduled(t *testing.T) {
	id := primitive.NewObjectID()
	store := &MockStore{}
	store.On("ListByPublication", mock.Anything, false, int64(defaultListLimit)).Return([]models.ScheduledContent{{
		ID:          id,
		Platform:    "LinkedIn",
		Title:       "Launch",
		ScheduledAt: "2025-03-10T11:00:00.000Z",
		Owner:       "owner@example.com",
	}}, nil).Once()
	h := newTestHandler(t, &MockRunner{}, store, "")

	rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/api/scheduled", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
	items := body["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, id.Hex(), item["id"])
	assert.Equal(t, models.StatusDraft, item["status"])
	assert.Equal(t, "2025-03-10T16:30:00.000+05:30", item["scheduledAtLocal"])
	assert.Equal(t, "N/A", item["publishedAtLocal"])
	store.AssertExpectations(t)
}

func TestListScheduledPublished(t *testing.T) {
	store := &MockStore{}
	store.On("ListByPublication", mock.Anything, true, int64(defaultListLimit)).Return([]models.ScheduledContent{{
		ID:          primitive.NewObjectID(),
		Status:      models.StatusPublished,
		ScheduledAt: "2025-03-10T11:00:00Z",
		PublishedAt: "2025-03-10T16:30:05.123+05:30",
	}}, nil).Once()
	h := newTestHandler(t, &MockRunner{}, store, "")

	rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/api/scheduled?status=published", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	item := body["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "2025-03-10T16:30:05.123+05:30", item["publishedAtLocal"])
	store.AssertExpectations(t)
}

func TestListScheduledErrors(t *testing.T) {
	t.Run("UnknownFilter", func(t *testing.T) {
		store := &MockStore{}
		h := newTestHandler(t, &MockRunner{}, store, "")
		rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/api/scheduled?status=archived", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Unknown status filter, use published or pending", body["message"])
		store.AssertNotCalled(t, "ListByPublication", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		store := &MockStore{}
		store.On("ListByPublication", mock.Anything, false, mock.Anything).Return(nil, errors.New("timeout")).Once()
		h := newTestHandler(t, &MockRunner{}, store, "")
		rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/api/scheduled?status=pending", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Failed to list scheduled content", body["message"])
		assert.Equal(t, "timeout", body["error"])
	})
}

func TestHealth(t *testing.T) {
	store := &MockStore{}
	store.On("Ping", mock.Anything).Return(nil).Once()
	store.On("Ping", mock.Anything).Return(errors.New("no primary")).Once()
	h := newTestHandler(t, &MockRunner{}, store, "s3cret")

	rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, body = do(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Content store is unavailable", body["message"])
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t, &MockRunner{}, &MockStore{}, "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
