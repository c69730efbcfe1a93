package scan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CalTopSoft/backend-devhub/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(config.ScanConfig{
		BaseURL:     srv.URL,
		APIKey:      "test-key",
		HTTPTimeout: 5 * time.Second,
		MaxRetries:  3,
	})
	require.NoError(t, err)
	c.(*httpClient).retryPause = time.Millisecond
	return c
}

func TestHTTPClient_Lookup(t *testing.T) {
	ctx := context.Background()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		if strings.HasSuffix(r.URL.Path, "/files/known") {
			json.NewEncoder(w).Encode(Report{
				ScanID: "scan-1",
				SHA256: "known",
				Status: ReportCompleted,
				Results: map[string]EngineResult{
					"alpha": {Category: "harmless"},
				},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	c := newTestClient(t, handler)

	rep, err := c.Lookup(ctx, "known")
	require.NoError(t, err)
	assert.Equal(t, "scan-1", rep.ScanID)
	assert.Equal(t, ReportCompleted, rep.Status)

	_, err = c.Lookup(ctx, "unknown")
	assert.ErrorIs(t, err, ErrHashNotFound)
}

func TestHTTPClient_Submit(t *testing.T) {
	ctx := context.Background()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/files", r.URL.Path)

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "payload.bin", hdr.Filename)

		json.NewEncoder(w).Encode(map[string]string{"scan_id": "scan-42"})
	})

	c := newTestClient(t, handler)

	id, err := c.Submit(ctx, strings.NewReader("content"), "payload.bin")
	require.NoError(t, err)
	assert.Equal(t, "scan-42", id)
}

func TestHTTPClient_RetriesTransientFailures(t *testing.T) {
	ctx := context.Background()

	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(Report{ScanID: "scan-9", Status: ReportInProgress})
	})

	c := newTestClient(t, handler)

	rep, err := c.Report(ctx, "scan-9")
	require.NoError(t, err)
	assert.Equal(t, ReportInProgress, rep.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPClient_GivesUpAfterMaxRetries(t *testing.T) {
	ctx := context.Background()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	c := newTestClient(t, handler)

	_, err := c.Report(ctx, "scan-0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestHTTPClient_NonRetryableStatus(t *testing.T) {
	ctx := context.Background()

	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("bad api key"))
	})

	c := newTestClient(t, handler)

	_, err := c.Report(ctx, "scan-0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, int32(1), calls.Load())
}
