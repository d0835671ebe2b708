package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"jellyzam/internal/config"
	"jellyzam/internal/testsupport"
)

type cliTestEnv struct {
	cfg          *config.Config
	configPath   string
	musicDir     string
	basePath     string
	recognitions *atomic.Int32
}

// recognizeResponse matches every sample to the same song.
const recognizeResponse = `{"matches": [{"id": "1", "frequencyskew": 0.01, "timeskew": 0.02,
	"track": {"key": "777", "title": "Song", "subtitle": "Band", "album": "Record"}}]}`

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/recognize":
			calls.Add(1)
			_, _ = w.Write([]byte(recognizeResponse))
		case "/tracks/details":
			_, _ = w.Write([]byte(`{"key":"` + r.URL.Query().Get("track_id") + `","title":"Song","subtitle":"Band"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	homeDir := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("JELLYZAM_API_KEY", "")

	cfg := testsupport.NewConfig(t, testsupport.WithRecognitionURL(server.URL))
	cfg.Identification.WriteTags = false
	cfg.Notifications.NtfyTopic = ""
	musicDir := filepath.Join(testsupport.BaseDir(cfg), "music")
	if err := os.MkdirAll(musicDir, 0o755); err != nil {
		t.Fatalf("mkdir music: %v", err)
	}

	configPath := filepath.Join(homeDir, ".config", "jellyzam", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:          cfg,
		configPath:   configPath,
		musicDir:     musicDir,
		basePath:     cfg.Organize.BasePath,
		recognitions: &calls,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
