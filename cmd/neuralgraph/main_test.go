package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolateEnv points HOME at a temp directory and clears the variables
// config.Load reads, so tests never touch real settings or the network.
func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{
		"GITHUB_TOKEN", "GITHUB_REPOSITORY_OWNER", "NEURALGRAPH_ENDPOINT",
		"NEURALGRAPH_TIMEOUT", "NEURALGRAPH_OUTPUT", "NEURALGRAPH_DISCOVERY_SEED",
		"NEURALGRAPH_CACHE", "NEURALGRAPH_CACHE_DIR", "NEURALGRAPH_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	return home
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

const calendarJSON = `{"data":{"user":{"contributionsCollection":{"contributionCalendar":{
  "totalContributions": 9,
  "weeks": [
    {"contributionDays": [
      {"contributionLevel":"NONE","weekday":0,"date":"2025-10-12"},
      {"contributionLevel":"SECOND_QUARTILE","weekday":3,"date":"2025-10-15"}]},
    {"contributionDays": [
      {"contributionLevel":"FOURTH_QUARTILE","weekday":6,"date":"2025-10-25"}]}
  ]}}}}}`

func fakeGitHub(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer ghp_test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerate_MockModeWritesSVG(t *testing.T) {
	isolateEnv(t)
	out := filepath.Join(t.TempDir(), "graph.svg")

	stdout, stderr, err := execute(t, "-o", out)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(stdout, "Generated "+out) {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stderr, "mock data") {
		t.Errorf("expected mock-mode notice on stderr, got %q", stderr)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if n := strings.Count(string(data), "<rect x="); n != 371 {
		t.Errorf("rects = %d, want 371", n)
	}
}

func TestGenerate_DefaultOutputPath(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	if _, _, err := execute(t); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "neural_network_graph.svg")); err != nil {
		t.Errorf("default output missing: %v", err)
	}
}

func TestGenerate_LiveThenOffline(t *testing.T) {
	isolateEnv(t)
	srv := fakeGitHub(t, http.StatusOK, calendarJSON)
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_REPOSITORY_OWNER", "octocat")
	t.Setenv("NEURALGRAPH_ENDPOINT", srv.URL)
	t.Setenv("NEURALGRAPH_CACHE", "1")

	dir := t.TempDir()
	live := filepath.Join(dir, "live.svg")
	if _, stderr, err := execute(t, "-o", live); err != nil {
		t.Fatalf("live run: %v (%s)", err, stderr)
	}

	data, _ := os.ReadFile(live)
	svg := string(data)
	// (0,3) is on the input layer at delay 0 and is the only level-2 cell.
	if !strings.Contains(svg, `<rect x="10" y="49" width="10" height="10" fill="#161b22" rx="2" class="disc-2"`) {
		t.Error("expected level-2 discovery rect at (0,3)")
	}
	if strings.Count(svg, `class="disc-`) != 2 {
		t.Errorf("discovery rects = %d, want 2", strings.Count(svg, `class="disc-`))
	}

	offline := filepath.Join(dir, "offline.svg")
	if _, stderr, err := execute(t, "--offline", "-o", offline); err != nil {
		t.Fatalf("offline run: %v (%s)", err, stderr)
	}
	again, _ := os.ReadFile(offline)
	if !bytes.Equal(data, again) {
		t.Error("offline render differs from live render of the same grid")
	}
}

func TestGenerate_LiveRunLeavesNoState(t *testing.T) {
	home := isolateEnv(t)
	srv := fakeGitHub(t, http.StatusOK, calendarJSON)
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_REPOSITORY_OWNER", "octocat")
	t.Setenv("NEURALGRAPH_ENDPOINT", srv.URL)

	out := filepath.Join(t.TempDir(), "graph.svg")
	if _, stderr, err := execute(t, "-o", out); err != nil {
		t.Fatalf("execute: %v (%s)", err, stderr)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".neuralgraph")); !os.IsNotExist(err) {
		t.Errorf("default run created %s (stat err = %v)", filepath.Join(home, ".neuralgraph"), err)
	}
}

func TestGenerate_CacheFlagStoresGrid(t *testing.T) {
	home := isolateEnv(t)
	srv := fakeGitHub(t, http.StatusOK, calendarJSON)
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_REPOSITORY_OWNER", "octocat")
	t.Setenv("NEURALGRAPH_ENDPOINT", srv.URL)

	if _, stderr, err := execute(t, "--cache", "-o", filepath.Join(t.TempDir(), "g.svg")); err != nil {
		t.Fatalf("execute: %v (%s)", err, stderr)
	}
	if _, err := os.Stat(filepath.Join(home, ".neuralgraph", "grids.db")); err != nil {
		t.Errorf("--cache did not create grids.db: %v", err)
	}
}

func TestGenerate_NonOKDegradesToEmptyGrid(t *testing.T) {
	isolateEnv(t)
	srv := fakeGitHub(t, http.StatusUnauthorized, `{"message":"Bad credentials"}`)
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_REPOSITORY_OWNER", "octocat")
	t.Setenv("NEURALGRAPH_ENDPOINT", srv.URL)

	out := filepath.Join(t.TempDir(), "graph.svg")
	if _, _, err := execute(t, "-o", out); err != nil {
		t.Fatalf("execute: %v", err)
	}

	data, _ := os.ReadFile(out)
	if strings.Contains(string(data), `class="disc-`) {
		t.Error("empty grid should have no discovery rects")
	}
	if strings.Count(string(data), `class="cell"`) != 299 {
		t.Error("expected the full pulse path")
	}
}

func TestGenerate_OfflineWithoutCache(t *testing.T) {
	isolateEnv(t)
	t.Setenv("GITHUB_REPOSITORY_OWNER", "octocat")

	_, _, err := execute(t, "--offline", "-o", filepath.Join(t.TempDir(), "g.svg"))
	if err == nil || !strings.Contains(err.Error(), "no cached grid") {
		t.Errorf("err = %v, want no cached grid", err)
	}
}

func TestGenerate_JSONFormat(t *testing.T) {
	isolateEnv(t)
	out := filepath.Join(t.TempDir(), "graph.json")

	if _, _, err := execute(t, "--format", "json", "-o", out); err != nil {
		t.Fatalf("execute: %v", err)
	}

	data, _ := os.ReadFile(out)
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["path_cells"] != 299.0 {
		t.Errorf("path_cells = %v", decoded["path_cells"])
	}
}

func TestGenerate_JSONFlag(t *testing.T) {
	isolateEnv(t)
	out := filepath.Join(t.TempDir(), "graph.out")

	if _, _, err := execute(t, "--json", "-o", out); err != nil {
		t.Fatalf("execute: %v", err)
	}

	data, _ := os.ReadFile(out)
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("--json output is not JSON: %v", err)
	}
}

func TestGenerate_MockFlagNotice(t *testing.T) {
	isolateEnv(t)
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_REPOSITORY_OWNER", "octocat")

	_, stderr, err := execute(t, "--mock", "-o", filepath.Join(t.TempDir(), "g.svg"))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.Contains(stderr, "no GitHub credentials") {
		t.Errorf("credentials are set, stderr = %q", stderr)
	}
	if !strings.Contains(stderr, "--mock set") {
		t.Errorf("expected --mock notice, got %q", stderr)
	}
}

func TestGenerate_FlagErrors(t *testing.T) {
	isolateEnv(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad format", []string{"--format", "png"}, "unsupported format"},
		{"mock and offline", []string{"--mock", "--offline"}, "mutually exclusive"},
		{"bad log level", []string{"--log-level", "loud"}, "invalid log level"},
		{"json and svg", []string{"--json", "--format", "svg"}, "conflicts"},
		{"cache and no-cache", []string{"--cache", "--no-cache"}, "mutually exclusive"},
		{"positional arg", []string{"extra"}, "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestGenerate_BadEnvTimeout(t *testing.T) {
	isolateEnv(t)
	t.Setenv("NEURALGRAPH_TIMEOUT", "30")

	_, _, err := execute(t, "-o", filepath.Join(t.TempDir(), "g.svg"))
	if err == nil || !strings.Contains(err.Error(), "NEURALGRAPH_TIMEOUT") {
		t.Errorf("err = %v, want error naming NEURALGRAPH_TIMEOUT", err)
	}
}

func TestGenerate_DebugWritesRunTrace(t *testing.T) {
	home := isolateEnv(t)
	out := filepath.Join(t.TempDir(), "graph.svg")

	if _, _, err := execute(t, "--log-level", "debug", "-o", out); err != nil {
		t.Fatalf("execute: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(home, ".neuralgraph", "runs.jsonl"))
	if err != nil {
		t.Fatalf("read trace: %v", err)
	}
	for _, ev := range []string{`"event":"fetch"`, `"event":"plan"`, `"event":"emit"`} {
		if !strings.Contains(string(data), ev) {
			t.Errorf("trace missing %s", ev)
		}
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(stdout, "neuralgraph version "+version) {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestConfigList_RedactsToken(t *testing.T) {
	isolateEnv(t)
	t.Setenv("GITHUB_TOKEN", "ghp_supersecretvalue")

	stdout, _, err := execute(t, "config", "list", "--json")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.Contains(stdout, "supersecret") {
		t.Errorf("token leaked: %s", stdout)
	}
	if !strings.Contains(stdout, "ghp_...alue") {
		t.Errorf("expected redacted token, got %s", stdout)
	}
}

func TestCache_ListAndClear(t *testing.T) {
	isolateEnv(t)
	srv := fakeGitHub(t, http.StatusOK, calendarJSON)
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_REPOSITORY_OWNER", "octocat")
	t.Setenv("NEURALGRAPH_ENDPOINT", srv.URL)

	if _, _, err := execute(t, "--cache", "-o", filepath.Join(t.TempDir(), "g.svg")); err != nil {
		t.Fatalf("generate: %v", err)
	}

	stdout, _, err := execute(t, "cache", "list")
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	if !strings.Contains(stdout, "octocat") {
		t.Errorf("cache list = %q", stdout)
	}

	stdout, _, err = execute(t, "cache", "clear", "--json")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(stdout, `"cleared":1`) {
		t.Errorf("cache clear = %q", stdout)
	}

	stdout, _, _ = execute(t, "cache", "list")
	if !strings.Contains(stdout, "No cached grids") {
		t.Errorf("cache list after clear = %q", stdout)
	}
}
