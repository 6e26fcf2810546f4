package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/user-directory/internal/config"
)

var sourcePages = map[string]string{
	"1": `{"results":[
		{"name":{"first":"Ana","last":"Zapata"},"location":{"country":"Peru"},"login":{"uuid":"u1"},"picture":{"thumbnail":"t1"}},
		{"name":{"first":"Bruno","last":"Young"},"location":{"country":"Chile"},"login":{"uuid":"u2"},"picture":{"thumbnail":"t2"}}
	],"info":{"page":1}}`,
	"2": `{"results":[
		{"name":{"first":"Carla","last":"Xu"},"location":{"country":"Perú"},"login":{"uuid":"u3"},"picture":{"thumbnail":"t3"}},
		{"name":{"first":"Dora","last":"Álvarez"},"location":{"country":"France"},"login":{"uuid":"u4"},"picture":{"thumbnail":"t4"}}
	],"info":{"page":2}}`,
}

func newSource(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		body, ok := sourcePages[r.URL.Query().Get("page")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Source: config.SourceConfig{
			BaseURL:  baseURL,
			PageSize: 2,
			Seed:     "torodev",
			MaxPage:  1,
			Timeout:  time.Second,
		},
		View: config.ViewConfig{Locale: "en"},
	}
}

func execute(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeList(t *testing.T, out string) ListResult {
	t.Helper()
	var result ListResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	return result
}

func userIDs(result ListResult) []string {
	ids := make([]string, len(result.Users))
	for i, u := range result.Users {
		ids[i] = u.ID
	}
	return ids
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand(testConfig("http://localhost"), slog.Default())
	assert.Equal(t, "userdir", cmd.Use)

	for _, name := range []string{"list", "deletions"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestListCommand(t *testing.T) {
	t.Run("first page in fetch order", func(t *testing.T) {
		server, requests := newSource(t, http.StatusOK)

		out, err := execute(t, testConfig(server.URL), "list", "--format", "json")

		require.NoError(t, err)
		result := decodeList(t, out)
		assert.Equal(t, []string{"u1", "u2"}, userIDs(result))
		assert.True(t, result.HasNextPage)
		assert.Equal(t, "none", result.Sort)
		assert.Equal(t, int32(1), requests.Load())
	})

	t.Run("stops when the source is exhausted", func(t *testing.T) {
		server, requests := newSource(t, http.StatusOK)

		out, err := execute(t, testConfig(server.URL), "list", "--pages", "5", "--format", "json")

		require.NoError(t, err)
		result := decodeList(t, out)
		assert.Equal(t, []string{"u1", "u2", "u3", "u4"}, userIDs(result))
		assert.Equal(t, 4, result.Total)
		assert.False(t, result.HasNextPage)
		assert.Equal(t, int32(2), requests.Load())
	})

	t.Run("filter and sort", func(t *testing.T) {
		server, _ := newSource(t, http.StatusOK)

		out, err := execute(t, testConfig(server.URL), "list", "-p", "2", "--filter", "PER", "--sort", "last", "--format", "json")

		require.NoError(t, err)
		result := decodeList(t, out)
		assert.Equal(t, []string{"u3", "u1"}, userIDs(result))
		assert.Equal(t, 2, result.Count)
		assert.Equal(t, 4, result.Total)
		assert.Equal(t, "last_name", result.Sort)
	})

	t.Run("accents sort next to their base letter", func(t *testing.T) {
		server, _ := newSource(t, http.StatusOK)

		out, err := execute(t, testConfig(server.URL), "list", "-p", "2", "--sort", "last_name", "--format", "json")

		require.NoError(t, err)
		assert.Equal(t, []string{"u4", "u3", "u2", "u1"}, userIDs(decodeList(t, out)))
	})

	t.Run("text output", func(t *testing.T) {
		server, _ := newSource(t, http.StatusOK)

		out, err := execute(t, testConfig(server.URL), "list", "--filter", "chile")

		require.NoError(t, err)
		assert.Contains(t, out, "Bruno")
		assert.NotContains(t, out, "Ana")
		assert.True(t, strings.HasSuffix(out, "1 of 2 users\n"))
	})
}

func TestListCommand_Errors(t *testing.T) {
	server, _ := newSource(t, http.StatusOK)
	failing, _ := newSource(t, http.StatusInternalServerError)

	tests := []struct {
		name     string
		cfg      *config.Config
		args     []string
		wantCode int
	}{
		{name: "invalid sort field", cfg: testConfig(server.URL), args: []string{"list", "--sort", "age"}, wantCode: ExitCommandError},
		{name: "invalid page count", cfg: testConfig(server.URL), args: []string{"list", "--pages", "0"}, wantCode: ExitCommandError},
		{name: "invalid format", cfg: testConfig(server.URL), args: []string{"list", "--format", "yaml"}, wantCode: ExitCommandError},
		{name: "source failure", cfg: testConfig(failing.URL), args: []string{"list"}, wantCode: ExitFailure},
		{name: "deletions without database", cfg: testConfig(server.URL), args: []string{"deletions"}, wantCode: ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.cfg, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitCommandError, "bad flag"))))
}
