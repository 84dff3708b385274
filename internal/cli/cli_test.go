package cli_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jamesprial/migas-go/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// migasStub is a fake migas endpoint that records every request text.
type migasStub struct {
	mu      sync.Mutex
	queries []string
	srv     *httptest.Server
}

func newMigasStub(t *testing.T, status int, body string) *migasStub {
	t.Helper()
	s := &migasStub{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.mu.Lock()
		s.queries = append(s.queries, req.Query)
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *migasStub) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// isolateEnv clears the variables the CLI reads so the host environment
// does not leak into a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"MIGAS_ENDPOINT", "MIGAS_TIMEOUT", "MIGAS_OPTOUT", "MIGAS_LOG_LEVEL", "MIGAS_AUTH_TOKEN", "MIGAS_CONFIG_PATH"} {
		t.Setenv(k, "")
	}
	t.Setenv("MIGAS_USER_ID", "test-user")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestBreadcrumb_SendsMutationWithContext(t *testing.T) {
	isolateEnv(t)
	stub := newMigasStub(t, http.StatusOK, `{"data":{"add_breadcrumb":{"success":true}}}`)

	stdout, _, err := cli.ExecuteWithArgs([]string{
		"breadcrumb", "nipreps/fmriprep", "24.0.0", "--endpoint", stub.srv.URL, "-f", "json",
	})
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, true, res["success"])

	queries := stub.Queries()
	require.Len(t, queries, 1)
	q := queries[0]
	assert.Contains(t, q, `mutation{add_breadcrumb(project:"nipreps/fmriprep",project_version:"24.0.0",language:"go"`)
	assert.Contains(t, q, `user_id:"test-user"`)
	assert.Contains(t, q, `){success}}`)
}

func TestBreadcrumb_StatusFlagsAndParams(t *testing.T) {
	isolateEnv(t)
	stub := newMigasStub(t, http.StatusOK, `{"data":{"add_breadcrumb":{"success":true}}}`)

	_, _, err := cli.ExecuteWithArgs([]string{
		"breadcrumb", "a/b", "1.0", "--endpoint", stub.srv.URL, "-f", "json",
		"--status", "F", "--error-type", "KeyError",
		"--param", "ctx.user_type=bot",
	})
	require.NoError(t, err)

	queries := stub.Queries()
	require.Len(t, queries, 1)
	assert.Contains(t, queries[0], `proc:{status:F,error_type:"KeyError"}`)
	assert.Contains(t, queries[0], `user_type:bot`)
}

func TestCheck_TextOutput(t *testing.T) {
	isolateEnv(t)
	stub := newMigasStub(t, http.StatusOK,
		`{"data":{"check_project":{"success":true,"flagged":false,"latest":"2.0","message":""}}}`)

	stdout, _, err := cli.ExecuteWithArgs([]string{"check", "o/r", "1.0", "--endpoint", stub.srv.URL, "-f", "text"})
	require.NoError(t, err)

	assert.Contains(t, stdout, "latest: 2.0")
	assert.Contains(t, stdout, "flagged: false")
	require.Len(t, stub.Queries(), 1)
	assert.Equal(t, `query{check_project(project:"o/r",project_version:"1.0"){success,flagged,latest,message}}`, stub.Queries()[0])
}

func TestUsage_UniqueAndEnd(t *testing.T) {
	isolateEnv(t)
	stub := newMigasStub(t, http.StatusOK, `{"data":{"get_usage":42}}`)

	stdout, _, err := cli.ExecuteWithArgs([]string{
		"usage", "o/r", "2024-01-01", "--end", "2024-06-30", "--unique", "--endpoint", stub.srv.URL, "-f", "text",
	})
	require.NoError(t, err)

	assert.Contains(t, stdout, "result: 42")
	require.Len(t, stub.Queries(), 1)
	assert.Equal(t, `query{get_usage(project:"o/r",start:"2024-01-01",end:"2024-06-30",unique:true)}`, stub.Queries()[0])
}

func TestServerError_YieldsFallback(t *testing.T) {
	isolateEnv(t)
	stub := newMigasStub(t, http.StatusBadRequest, `{"errors":[{"message":"project not registered"}]}`)

	stdout, _, err := cli.ExecuteWithArgs([]string{"check", "o/r", "1.0", "--endpoint", stub.srv.URL, "-f", "json"})
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, false, res["success"])
	assert.Equal(t, "project not registered", res["message"])
}

func TestOptOut_SendsNothing(t *testing.T) {
	isolateEnv(t)
	t.Setenv("MIGAS_OPTOUT", "1")
	stub := newMigasStub(t, http.StatusOK, `{"data":{"add_breadcrumb":{"success":true}}}`)

	stdout, _, err := cli.ExecuteWithArgs([]string{"breadcrumb", "a/b", "1.0", "--endpoint", stub.srv.URL, "-f", "json"})
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, false, res["success"])
	assert.Equal(t, "[migas-go] Telemetry is disabled.", res["message"])
	assert.Empty(t, stub.Queries())
}

func TestAddProject_LogsDeprecation(t *testing.T) {
	isolateEnv(t)
	stub := newMigasStub(t, http.StatusOK, `{"data":{"add_project":{"success":true,"latest_version":"1.1"}}}`)

	stdout, stderr, err := cli.ExecuteWithArgs([]string{"add-project", "a/b", "1.0", "--endpoint", stub.srv.URL, "-f", "json"})
	require.NoError(t, err)

	assert.Contains(t, stderr, "deprecated")
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, "1.1", res["latest_version"])
	require.Len(t, stub.Queries(), 1)
	assert.Contains(t, stub.Queries()[0], `mutation{add_project(p:{project:"a/b",project_version:"1.0"`)
}

func TestQuery_TextPrintsRequestOnly(t *testing.T) {
	isolateEnv(t)
	stub := newMigasStub(t, http.StatusOK, `{}`)

	stdout, _, err := cli.ExecuteWithArgs([]string{
		"query", "get_usage", "-p", "project=o/r", "-p", "start=2024", "-p", "unique=false",
		"--endpoint", stub.srv.URL, "-f", "text",
	})
	require.NoError(t, err)

	assert.Equal(t, "query{get_usage(project:\"o/r\",start:\"2024\",unique:false)}\n", stdout)
	assert.Empty(t, stub.Queries())
}

func TestQuery_CheckJSON(t *testing.T) {
	isolateEnv(t)

	stdout, _, err := cli.ExecuteWithArgs([]string{
		"query", "add_breadcrumb", "-p", "project=a/b", "-p", "project_version=1.0", "--check", "-f", "json",
	})
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, "add_breadcrumb", res["operation"])
	assert.Equal(t, true, res["valid"])
	assert.Contains(t, res["query"], `project:"a/b"`)
}

func TestQuery_OptOutLeavesNoState(t *testing.T) {
	isolateEnv(t)
	t.Setenv("MIGAS_USER_ID", "")
	t.Setenv("MIGAS_OPTOUT", "1")
	statePath := filepath.Join(t.TempDir(), "state.yaml")
	path := writeConfig(t, "state_file: "+statePath+"\n")

	stdout, _, err := cli.ExecuteWithArgs([]string{
		"query", "add_breadcrumb", "-p", "project=a/b", "-p", "project_version=1", "--config", path, "-f", "text",
	})
	require.NoError(t, err)

	assert.NotContains(t, stdout, "user_id:")
	_, statErr := os.Stat(statePath)
	assert.True(t, os.IsNotExist(statErr), "state file written while opted out")
}

func TestQuery_UnknownOperationSuggests(t *testing.T) {
	isolateEnv(t)

	_, _, err := cli.ExecuteWithArgs([]string{"query", "get_usag", "-f", "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation 'get_usag'")
	assert.Contains(t, err.Error(), "did you mean 'get_usage'?")
}

func TestQuery_BadParam(t *testing.T) {
	isolateEnv(t)

	_, _, err := cli.ExecuteWithArgs([]string{"query", "get_usage", "-p", "noequals", "-f", "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want key=value")
}

func TestConfigFile_TelemetryOff(t *testing.T) {
	isolateEnv(t)
	stub := newMigasStub(t, http.StatusOK, `{}`)
	path := writeConfig(t, "endpoint: "+stub.srv.URL+"\ntelemetry: false\n")

	stdout, _, err := cli.ExecuteWithArgs([]string{"check", "o/r", "1.0", "--config", path, "-f", "text"})
	require.NoError(t, err)

	assert.Contains(t, stdout, "Telemetry is disabled")
	assert.Empty(t, stub.Queries())
}

func TestConfigFile_FromEnvironment(t *testing.T) {
	isolateEnv(t)
	stub := newMigasStub(t, http.StatusOK, `{"data":{"get_usage":1}}`)
	t.Setenv("MIGAS_CONFIG_PATH", writeConfig(t, "endpoint: "+stub.srv.URL+"\n"))

	_, _, err := cli.ExecuteWithArgs([]string{"usage", "o/r", "2024", "-f", "json"})
	require.NoError(t, err)
	assert.Len(t, stub.Queries(), 1)
}

func TestConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing config file",
			args:    []string{"check", "o/r", "1", "--config", filepath.Join(os.TempDir(), "does-not-exist-migas.yaml")},
			wantErr: "load config",
		},
		{
			name:    "invalid endpoint",
			args:    []string{"check", "o/r", "1", "--endpoint", "not a url"},
			wantErr: "config: invalid",
		},
		{
			name:    "invalid log level",
			args:    []string{"check", "o/r", "1", "--log-level", "loud"},
			wantErr: "config: invalid",
		},
		{
			name:    "invalid format",
			args:    []string{"check", "o/r", "1", "-f", "xml"},
			wantErr: "invalid format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)

			_, _, err := cli.ExecuteWithArgs(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := cli.ExecuteWithArgs([]string{"version"})
	require.NoError(t, err)
	assert.Regexp(t, `^migas-go \d+\.\d+\.\d+\n$`, stdout)
}

func TestServe_StopsWhenContextEnds(t *testing.T) {
	isolateEnv(t)

	cmd := cli.NewRootCmd()
	var stdout, stderr safeBuffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"serve", "--port", "0", "--log-level", "info"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Contains(t, stderr.String(), "generated auth token")
}

// safeBuffer is a bytes.Buffer safe for the concurrent writes of the
// server goroutine and the command.
type safeBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
