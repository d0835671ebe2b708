package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jellyzam/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Recognition.APIKey = "secret-api-key"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "secret-api-key") {
		t.Fatalf("api key leaked: %s", out)
	}
	requireContains(t, out, "se**********ey")

	out, _, err = runCLI(t, []string{"config", "show", "--reveal"}, env.configPath)
	if err != nil {
		t.Fatalf("config show --reveal: %v", err)
	}
	requireContains(t, out, "secret-api-key")
}

func TestMaskSecret(t *testing.T) {
	tests := map[string]string{
		"":               "",
		"abc":            "****",
		"abcdef":         "ab**ef",
		" key12 ":        "ke*12",
		"secret-api-key": "se**********ey",
	}
	for in, want := range tests {
		if got := maskSecret(in); got != want {
			t.Fatalf("maskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestImportAndHistoryJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, filepath.Join(env.musicDir, "a.mp3"), 64)
	testsupport.WriteFile(t, filepath.Join(env.musicDir, "nested", "b.flac"), 64)
	testsupport.WriteFile(t, filepath.Join(env.musicDir, "cover.jpg"), 64)

	out, _, err := runCLI(t, []string{"--json", "import", env.musicDir}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	var imported struct {
		Directories []struct {
			Dir   string `json:"dir"`
			Added int    `json:"added"`
		} `json:"directories"`
	}
	if err := json.Unmarshal([]byte(out), &imported); err != nil {
		t.Fatalf("decode import output %q: %v", out, err)
	}
	if len(imported.Directories) != 1 || imported.Directories[0].Added != 2 {
		t.Fatalf("expected two audio files added, got %+v", imported.Directories)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestIdentifyMatchesAndOrganizes(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.musicDir, "unknown.mp3")
	testsupport.WriteFile(t, source, 256)

	out, _, err := runCLI(t, []string{"--json", "identify", source}, env.configPath)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	var result batchView
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode identify output %q: %v", out, err)
	}
	if !result.Success || result.Identified != 1 || result.Organized != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if env.recognitions.Load() != 1 {
		t.Fatalf("expected one recognition call, got %d", env.recognitions.Load())
	}

	target := filepath.Join(env.basePath, "Band", "Record", "Song.mp3")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected organized file at %s: %v", target, err)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Fatalf("expected source to be moved, stat err=%v", err)
	}

	out, _, err = runCLI(t, []string{"--json", "history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []runView
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history %q: %v", out, err)
	}
	if len(runs) != 1 || runs[0].Kind != kindIdentify || !runs[0].Success {
		t.Fatalf("unexpected history: %+v", runs)
	}
}

func TestScanSkipsCompleteTracks(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Organize.Enabled = false
	writeTestConfig(t, env.configPath, env.cfg)

	testsupport.WriteFile(t, filepath.Join(env.musicDir, "one.mp3"), 64)
	testsupport.WriteFile(t, filepath.Join(env.musicDir, "two.mp3"), 64)
	if _, _, err := runCLI(t, []string{"import", env.musicDir}, env.configPath); err != nil {
		t.Fatalf("import: %v", err)
	}

	out, _, err := runCLI(t, []string{"scan"}, env.configPath)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "processed 2/2, identified 2")

	out, _, err = runCLI(t, []string{"scan"}, env.configPath)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	requireContains(t, out, "processed 0/0")
	if env.recognitions.Load() != 2 {
		t.Fatalf("expected complete tracks to be skipped, got %d calls", env.recognitions.Load())
	}
}

func TestIdentifyFailsPreflightWithoutAPIKey(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Recognition.APIKey = ""
	writeTestConfig(t, env.configPath, env.cfg)
	source := filepath.Join(env.musicDir, "a.mp3")
	testsupport.WriteFile(t, source, 64)

	if _, _, err := runCLI(t, []string{"identify", source}, env.configPath); err == nil {
		t.Fatal("expected identify to fail without an api key")
	}
	if env.recognitions.Load() != 0 {
		t.Fatalf("expected no recognition calls, got %d", env.recognitions.Load())
	}
}

func TestCleanupRemovesEmptyDirectories(t *testing.T) {
	env := setupCLITestEnv(t)
	empty := filepath.Join(env.basePath, "Artist", "Album")
	if err := os.MkdirAll(empty, 0o755); err != nil {
		t.Fatal(err)
	}
	keep := filepath.Join(env.basePath, "Other", "song.mp3")
	testsupport.WriteFile(t, keep, 10)

	if _, _, err := runCLI(t, []string{"cleanup"}, env.configPath); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.basePath, "Artist")); !os.IsNotExist(err) {
		t.Fatalf("expected empty tree removed, stat err=%v", err)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("expected populated directory kept: %v", err)
	}
}

func TestStatusJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, filepath.Join(env.musicDir, "a.mp3"), 64)
	if _, _, err := runCLI(t, []string{"import", env.musicDir}, env.configPath); err != nil {
		t.Fatalf("import: %v", err)
	}

	out, _, err := runCLI(t, []string{"--json", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status statusView
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status %q: %v", out, err)
	}
	if status.Catalog.Tracks != 1 || status.Catalog.Incomplete != 1 {
		t.Fatalf("unexpected catalog summary: %+v", status.Catalog)
	}
	if len(status.Checks) == 0 {
		t.Fatal("expected readiness checks in status output")
	}
}

func TestDetailsPrintsTrack(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"details", "777"}, env.configPath)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	requireContains(t, out, "Title:  Song")
	requireContains(t, out, "Artist: Band")
}

func TestLogsFiltersByLevel(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := env.cfg.LogFilePath()
	content := `{"level":"info","msg":"first"}` + "\n" +
		`{"level":"error","msg":"second"}` + "\n" +
		`{"level":"info","msg":"third"}` + "\n"
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Contains(out, "first") || !strings.Contains(out, "third") {
		t.Fatalf("expected last two lines, got %q", out)
	}

	out, _, err = runCLI(t, []string{"logs", "-n", "0", "--level", "error"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --level: %v", err)
	}
	if strings.TrimSpace(out) != `{"level":"error","msg":"second"}` {
		t.Fatalf("unexpected filtered output %q", out)
	}
}
