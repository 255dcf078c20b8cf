// pattern: Imperative Shell

package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestManager(t *testing.T, console *bytes.Buffer) (*Manager, string) {
	t.Helper()
	logFile := filepath.Join(t.TempDir(), "logs", "envtrack.log")

	cfg := Config{
		FilePath: logFile,
		Level:    "debug",
	}
	if console != nil {
		cfg.Console = console
	}

	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return mgr, logFile
}

func TestNewManager_RequiresFilePath(t *testing.T) {
	if _, err := NewManager(Config{}); err == nil {
		t.Fatal("NewManager() without FilePath should fail")
	}
}

func TestManager_For_CachesByScope(t *testing.T) {
	mgr, _ := newTestManager(t, nil)
	defer func() { _ = mgr.Close() }()

	logger := mgr.For("registry")
	if logger == nil {
		t.Fatal("For() returned nil")
	}
	if mgr.For("registry") != logger {
		t.Error("For() should return cached logger for same scope")
	}
	if mgr.For("cli.envs") == logger {
		t.Error("For() should return different logger for different scope")
	}
}

func TestManager_LoggingToFile(t *testing.T) {
	mgr, logFile := newTestManager(t, nil)

	mgr.For("registry").Info("entry registered", "key", "abc", "error", errors.New("boom"))
	_ = mgr.Close()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	content := string(data)
	for _, want := range []string{"entry registered", `"logger":"registry"`, `"key":"abc"`, "boom"} {
		if !strings.Contains(content, want) {
			t.Errorf("log file should contain %q, got: %s", want, content)
		}
	}
}

func TestManager_ConsoleOnlyGetsWarnings(t *testing.T) {
	var console bytes.Buffer
	mgr, _ := newTestManager(t, &console)
	defer func() { _ = mgr.Close() }()

	logger := mgr.For("cli")
	logger.Info("quiet detail")
	logger.Warn("registry root unreadable")
	_ = mgr.Sync()

	out := console.String()
	if strings.Contains(out, "quiet detail") {
		t.Errorf("console should not receive info entries, got: %s", out)
	}
	if !strings.Contains(out, "registry root unreadable") {
		t.Errorf("console should receive warnings, got: %s", out)
	}
}

func TestManager_LevelFiltersFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "envtrack.log")
	mgr, err := NewManager(Config{FilePath: logFile, Level: "warn"})
	if err != nil {
		t.Fatal(err)
	}

	mgr.For("registry").Debug("skipped entry")
	mgr.For("registry").Error("kept entry")
	_ = mgr.Close()

	data, _ := os.ReadFile(logFile)
	if strings.Contains(string(data), "skipped entry") {
		t.Error("debug entry should be filtered at warn level")
	}
	if !strings.Contains(string(data), "kept entry") {
		t.Error("error entry should be written at warn level")
	}
}

func TestManager_With(t *testing.T) {
	mgr, logFile := newTestManager(t, nil)

	mgr.For("registry").With("root", "/tmp/reg").Info("opened")
	_ = mgr.Close()

	data, _ := os.ReadFile(logFile)
	if !strings.Contains(string(data), `"root":"/tmp/reg"`) {
		t.Errorf("With() fields missing from log: %s", data)
	}
}
