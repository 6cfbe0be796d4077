package labelstudio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"task-wallet/internal/core/domain/entities"
	"task-wallet/internal/core/domain/exceptions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(t *testing.T, baseURL string, mutate func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		BaseURL:  baseURL,
		APIToken: "test-token",
		ProjectIDs: map[entities.TaskCategory]int{
			entities.CategoryImageClassification: 1,
		},
		RequestTimeout: 2 * time.Second,
		SubmitTimeout:  2 * time.Second,
		ProbeTimeout:   time.Second,
		MaxAttempts:    3,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewClient(cfg, zap.NewNop())
}

func TestFetchTasksParsesRecordsAndSendsToken(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]taskRecord{
			{ID: 11, Data: json.RawMessage(`{"image":"a.png"}`), IsLabeled: false},
			{ID: 12, Data: json.RawMessage(`{"image":"b.png"}`), IsLabeled: true},
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)
	tasks, err := client.FetchTasks(context.Background(), entities.CategoryImageClassification)
	require.NoError(t, err)

	assert.Equal(t, "/api/projects/1/tasks/", gotPath)
	assert.Equal(t, "Token test-token", gotAuth)
	require.Len(t, tasks, 2)
	assert.Equal(t, int64(11), tasks[0].ID)
	assert.Equal(t, entities.CategoryImageClassification, tasks[0].Category)
	assert.True(t, tasks[1].IsLabeled)
}

func TestFetchTasksRetriesTimeoutsUpToBound(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n <= 2 {
			time.Sleep(300 * time.Millisecond)
			return
		}
		_ = json.NewEncoder(w).Encode([]taskRecord{{ID: 5}})
	}))
	defer server.Close()

	client := testClient(t, server.URL, func(cfg *Config) {
		cfg.RequestTimeout = 50 * time.Millisecond
	})

	tasks, err := client.FetchTasks(context.Background(), entities.CategoryImageClassification)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestFetchTasksExhaustedRetriesReportUnavailable(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	client := testClient(t, server.URL, func(cfg *Config) {
		cfg.RequestTimeout = 50 * time.Millisecond
	})

	_, err := client.FetchTasks(context.Background(), entities.CategoryImageClassification)
	require.ErrorIs(t, err, exceptions.ErrTaskSourceUnavailable)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestFetchTasksServerRejectionNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		http.Error(w, "invalid token", http.StatusForbidden)
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)
	_, err := client.FetchTasks(context.Background(), entities.CategoryImageClassification)
	require.ErrorIs(t, err, exceptions.ErrTaskSourceUnavailable)
	assert.Contains(t, err.Error(), "status 403")
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestFetchTasksUnknownCategory(t *testing.T) {
	client := testClient(t, "http://127.0.0.1:1", nil)
	_, err := client.FetchTasks(context.Background(), entities.TaskCategory("unmapped"))
	require.ErrorIs(t, err, exceptions.ErrUnknownCategory)
}

func TestSubmitAnnotationPostsAndDecodesAck(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		gotPath = r.URL.Path
		var got entities.Annotation
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		require.Len(t, got.Result, 1)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 901, "task": 42})
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)
	ack, err := client.SubmitAnnotation(context.Background(), 42, &entities.Annotation{
		Result: []json.RawMessage{json.RawMessage(`{"choice":"cat"}`)},
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/tasks/42/annotations/", gotPath)
	assert.Equal(t, int64(901), ack.ID)
	assert.False(t, ack.Synthesized)
}

func TestSubmitAnnotationRejectionIncludesDiagnostic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Error(w, `{"detail":"task already labeled"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)
	_, err := client.SubmitAnnotation(context.Background(), 7, &entities.Annotation{
		Result: []json.RawMessage{json.RawMessage(`{}`)},
	})
	require.ErrorIs(t, err, exceptions.ErrSubmissionRejected)
	assert.Contains(t, err.Error(), "already labeled")
}

func TestSubmitAnnotationOfflineFallbackSynthesizesAck(t *testing.T) {
	client := testClient(t, "http://127.0.0.1:1", func(cfg *Config) {
		cfg.OfflineFallback = true
		cfg.ProbeTimeout = 100 * time.Millisecond
	})

	ack, err := client.SubmitAnnotation(context.Background(), 33, &entities.Annotation{
		Result: []json.RawMessage{json.RawMessage(`{}`)},
	})
	require.NoError(t, err)
	assert.True(t, ack.Synthesized)
	assert.Equal(t, int64(33), ack.TaskID)
	assert.Equal(t, int64(-33), ack.ID)
}

func TestSubmitAnnotationOfflineWithoutFallbackFailsFast(t *testing.T) {
	client := testClient(t, "http://127.0.0.1:1", func(cfg *Config) {
		cfg.ProbeTimeout = 100 * time.Millisecond
	})

	start := time.Now()
	_, err := client.SubmitAnnotation(context.Background(), 33, &entities.Annotation{
		Result: []json.RawMessage{json.RawMessage(`{}`)},
	})
	require.ErrorIs(t, err, exceptions.ErrNetworkUnreachable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSubmitAnnotationRejectsEmptyResultBeforeNetwork(t *testing.T) {
	client := testClient(t, "http://127.0.0.1:1", nil)
	_, err := client.SubmitAnnotation(context.Background(), 1, &entities.Annotation{})
	require.ErrorIs(t, err, exceptions.ErrAnnotationEmpty)
}

func TestConfigureSwapsSettingsAtRuntime(t *testing.T) {
	client := testClient(t, "http://old", nil)
	client.Configure(Config{
		BaseURL:    "http://new",
		ProjectIDs: map[entities.TaskCategory]int{entities.CategorySurvey: 9},
	})

	cfg := client.config()
	assert.Equal(t, "http://new", cfg.BaseURL)
	assert.Equal(t, 9, cfg.ProjectIDs[entities.CategorySurvey])
	assert.Equal(t, 1, cfg.MaxAttempts, "defaults reapplied on swap")
}
