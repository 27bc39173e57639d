package serve

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/notion-relay/internal/api"
	"github.com/hashicorp-forge/notion-relay/internal/cmd/base"
	"github.com/hashicorp-forge/notion-relay/internal/config"
	"github.com/hashicorp-forge/notion-relay/pkg/tasks"
	"github.com/hashicorp-forge/notion-relay/pkg/tasks/adapters/mock"
)

const testConfig = `
api_key     = "test-key"
listen_addr = "127.0.0.1:0"
log_level   = "error"
`

func newTestCommand(t *testing.T, env map[string]string) (*Command, *cli.MockUi) {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "relay.hcl", []byte(testConfig), 0o644))

	ui := cli.NewMockUi()
	return &Command{
		Command: &base.Command{
			Context: context.Background(),
			Log:     hclog.NewNullLogger(),
			UI:      ui,
			Fs:      fs,
			Getenv:  func(k string) string { return env[k] },
		},
	}, ui
}

func TestRun_DevMode(t *testing.T) {
	c, ui := newTestCommand(t, nil)

	shutdown := make(chan struct{})
	listening := make(chan string, 1)
	c.ShutdownCh = shutdown
	c.Listening = listening

	done := make(chan int, 1)
	go func() {
		done <- c.Run([]string{"-config=relay.hcl", "-dev"})
	}()

	var addr string
	select {
	case addr = <-listening:
	case code := <-done:
		t.Fatalf("server exited early with code %d: %s", code, ui.ErrorWriter.String())
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for server")
	}

	baseURL := "http://" + addr

	t.Run("requires an API key", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("creates and fetches tasks", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, baseURL+"/create",
			strings.NewReader(`{"command":"Buy milk","action":"shopping","status":"pending"}`))
		require.NoError(t, err)
		req.Header.Set(api.APIKeyHeader, "test-key")
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		req, err = http.NewRequest(http.MethodGet, baseURL+"/fetch", nil)
		require.NoError(t, err)
		req.Header.Set(api.APIKeyHeader, "test-key")

		resp, err = http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var got []api.TaskResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, []api.TaskResponse{
			{Command: "Buy milk", Action: "shopping", Status: "pending"},
		}, got)
	})

	close(shutdown)
	select {
	case code := <-done:
		assert.Equal(t, 0, code, ui.ErrorWriter.String())
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for shutdown")
	}
}

func TestRun_SchemaValidationFails(t *testing.T) {
	c, ui := newTestCommand(t, map[string]string{
		config.EnvToken:      "secret",
		config.EnvDatabaseID: "db-1",
	})

	f := mock.NewFakeProvider()
	f.Properties["db-1"] = []string{tasks.PropertyCommand, tasks.PropertyAction}
	c.NewProvider = func(*config.Config, hclog.Logger) (tasks.Provider, error) {
		return f, nil
	}

	assert.Equal(t, 1, c.Run([]string{"-config=relay.hcl"}))
	assert.Contains(t, ui.ErrorWriter.String(), `missing required property "Status"`)
	assert.Equal(t, 1, f.CallCount(mock.OpValidateSchema))
}

func TestRun_InvalidConfig(t *testing.T) {
	c, ui := newTestCommand(t, nil)

	assert.Equal(t, 1, c.Run([]string{"-config=relay.hcl"}))
	assert.Contains(t, ui.ErrorWriter.String(), "notion.token is required")
}

func TestRun_ListenError(t *testing.T) {
	c, ui := newTestCommand(t, nil)
	require.NoError(t, afero.WriteFile(c.Fs, "bad.hcl", []byte(`
api_key     = "test-key"
listen_addr = "256.0.0.1:bad"
log_level   = "error"
`), 0o644))

	assert.Equal(t, 1, c.Run([]string{"-config=bad.hcl", "-dev"}))
	assert.Contains(t, ui.ErrorWriter.String(), "error listening on")
}
