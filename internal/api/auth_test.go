package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hashicorp-forge/notion-relay/pkg/tasks"
)

func TestAPIKeyMiddleware(t *testing.T) {
	paths := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/", ""},
		{http.MethodPost, "/create", `{"command":"Buy milk","action":"shopping","status":"pending"}`},
		{http.MethodPost, "/update", `{"command":"Buy milk"}`},
		{http.MethodPost, "/delete", `not json`},
		{http.MethodPost, "/complete", `{}`},
		{http.MethodPost, "/duplicate", `{"command":"Buy milk"}`},
		{http.MethodPost, "/upload-csv", ""},
		{http.MethodGet, "/fetch", ""},
		{http.MethodGet, "/does-not-exist", ""},
		{http.MethodDelete, "/create", ""},
	}

	keys := []struct {
		name string
		key  string
		msg  string
	}{
		{"missing key", "", "missing API key"},
		{"wrong key", "not-the-key", "invalid API key"},
		{"key with different case", strings.ToUpper(testAPIKey), "invalid API key"},
	}

	for _, k := range keys {
		for _, p := range paths {
			t.Run(k.name+" "+p.method+" "+p.path, func(t *testing.T) {
				srv, f := createTestServer(t, tasks.Task{Command: "Buy milk"})

				w := do(t, srv, p.method, p.path, strings.NewReader(p.body), map[string]string{
					APIKeyHeader: k.key,
				})

				assert.Equal(t, http.StatusUnauthorized, w.Code)
				resp := decodeError(t, w)
				assert.Equal(t, KindAuthentication, resp.Kind)
				assert.Equal(t, k.msg, resp.Error)
				assert.Equal(t, 0, f.CallCount(""))
			})
		}
	}
}

func TestAPIKeyMiddleware_Passes(t *testing.T) {
	srv, _ := createTestServer(t)

	called := false
	handler := APIKeyMiddleware(srv, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	req.Header.Set(APIKeyHeader, testAPIKey)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAPIKeyMiddleware_EmptyConfiguredKey(t *testing.T) {
	srv, _ := createTestServer(t)
	srv.Config.APIKey = ""

	handler := APIKeyMiddleware(srv, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(APIKeyHeader, "anything")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
