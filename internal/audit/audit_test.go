package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/surakshita/internal/audit/mocks"
	"github.com/shenikar/surakshita/internal/config"
	"github.com/shenikar/surakshita/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestLogger() (*logrus.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.DebugLevel)
	return logger, &buf
}

func testEntry(t *testing.T) (models.AuditEntry, string) {
	t.Helper()
	entry := models.AuditEntry{
		ID:         uuid.New(),
		Actor:      "operator:control",
		Action:     "dispatch",
		Target:     "incident:17",
		Outcome:    OutcomeSuccess,
		ClientIP:   "10.0.0.5",
		OccurredAt: time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC),
	}
	raw, err := json.Marshal(entry)
	require.NoError(t, err)
	return entry, string(raw)
}

func newTestWorker(t *testing.T, store Store, url string, retries int) (*Worker, *bytes.Buffer) {
	t.Helper()
	logger, buf := newTestLogger()
	cfg := &config.Config{
		AuditWebhookURL:        url,
		AuditWebhookSecret:     "s3cret",
		AuditWebhookTimeout:    time.Second,
		AuditWebhookMaxRetries: retries,
		AuditWebhookBaseDelay:  time.Millisecond,
	}
	return NewWorker(nil, store, logger, cfg), buf
}

func TestWorker_PersistsAndDeliversSigned(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	entry, raw := testEntry(t)

	var gotSignature, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get(signatureHeader)
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, got *models.AuditEntry) error {
		assert.Equal(t, entry, *got)
		return nil
	})

	w, buf := newTestWorker(t, store, srv.URL, 3)
	w.process(context.Background(), raw)

	assert.Equal(t, raw, gotBody)
	assert.Equal(t, Sign(raw, "s3cret"), gotSignature)
	assert.Contains(t, buf.String(), "Audit webhook delivered successfully.")
}

func TestWorker_RetriesUntilSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	_, raw := testEntry(t)

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	w, _ := newTestWorker(t, store, srv.URL, 3)
	w.process(context.Background(), raw)

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWorker_GivesUpAfterMaxRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	_, raw := testEntry(t)

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	w, buf := newTestWorker(t, store, srv.URL, 2)
	w.process(context.Background(), raw)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Contains(t, buf.String(), "Failed to deliver audit webhook after 2 retries.")
}

func TestWorker_StoreFailureStillDelivers(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	_, raw := testEntry(t)

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	w, buf := newTestWorker(t, store, srv.URL, 1)
	w.process(context.Background(), raw)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Contains(t, buf.String(), "Failed to persist audit entry")
}

func TestWorker_NoWebhookConfigured(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	_, raw := testEntry(t)

	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	w, buf := newTestWorker(t, store, "", 3)
	w.process(context.Background(), raw)

	assert.Contains(t, buf.String(), "Skipping delivery")
}

func TestWorker_BadPayloadSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	w, buf := newTestWorker(t, store, "", 3)
	w.process(context.Background(), "{not json")

	assert.Contains(t, buf.String(), "Failed to unmarshal audit entry")
}

func TestRedisRecorder_LogsWhenQueueUnavailable(t *testing.T) {
	logger, buf := newTestLogger()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	rec := NewRedisRecorder(client, logger)
	rec.now = func() time.Time { return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC) }

	err := rec.Record(context.Background(), models.AuditEntry{
		Actor:   "operator:control",
		Action:  "operator_login",
		Outcome: OutcomeFailure,
	})
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "Audit entry not queued, kept in log only")
	assert.Contains(t, out, `"action":"operator_login"`)
	assert.Contains(t, out, `"outcome":"failure"`)
}

func TestSign(t *testing.T) {
	assert.Equal(t, Sign("payload", "key"), Sign("payload", "key"))
	assert.NotEqual(t, Sign("payload", "key"), Sign("payload", "other"))
	assert.Len(t, Sign("payload", "key"), 64)
}
