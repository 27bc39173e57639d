package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/notion-relay/internal/config"
	"github.com/hashicorp-forge/notion-relay/internal/server"
	"github.com/hashicorp-forge/notion-relay/internal/services"
	"github.com/hashicorp-forge/notion-relay/pkg/tasks"
	"github.com/hashicorp-forge/notion-relay/pkg/tasks/adapters/mock"
)

const (
	testAPIKey = "test-api-key"
	testDB     = "db-1"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// createTestServer builds a server backed by an in-memory provider seeded
// with the given tasks.
func createTestServer(t *testing.T, seed ...tasks.Task) (server.Server, *mock.FakeProvider) {
	t.Helper()

	f := mock.NewFakeProvider()
	f.Now = func() time.Time { return testNow }
	f.Seed(testDB, seed...)

	cfg := &config.Config{
		APIKey:         testAPIKey,
		MaxBodyBytes:   1 << 10,
		MaxUploadBytes: 1 << 12,
	}

	return server.Server{
		Config: cfg,
		Tasks: services.NewTaskService(f, testDB,
			services.WithClock(func() time.Time { return testNow }),
		),
		Logger: hclog.NewNullLogger(),
	}, f
}

// do sends a request through the complete handler chain.
func do(t *testing.T, srv server.Server, method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	req.Header.Set(APIKeyHeader, testAPIKey)
	for k, v := range headers {
		if v == "" {
			req.Header.Del(k)
			continue
		}
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	NewHandler(srv).ServeHTTP(w, req)
	return w
}

// postJSON sends v as a JSON body with a valid API key.
func postJSON(t *testing.T, srv server.Server, path string, v interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	switch b := v.(type) {
	case string:
		body = strings.NewReader(b)
	default:
		data, err := json.Marshal(v)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	return do(t, srv, http.MethodPost, path, body, map[string]string{
		"Content-Type": "application/json",
	})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func decodeTask(t *testing.T, w *httptest.ResponseRecorder) TaskResponse {
	t.Helper()

	var resp TaskResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}
