package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"envtrack/internal/cli"
	"envtrack/internal/config"
)

func newRuntime(t *testing.T) (*cli.Runtime, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	base := t.TempDir()
	env := map[string]string{
		config.EnvCacheDir: filepath.Join(base, "cache"),
		config.EnvDataDir:  filepath.Join(base, "data"),
	}
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return &cli.Runtime{
		Getenv: func(key string) string { return env[key] },
		Stdout: stdout,
		Stderr: stderr,
	}, stdout, stderr
}

func TestRun_Version(t *testing.T) {
	for _, args := range [][]string{{"version"}, {"--version"}, {"-V"}} {
		rt, stdout, _ := newRuntime(t)
		code := 0
		run(args, rt, func(c int) { code = c })

		if code != 0 {
			t.Errorf("%v exit code = %d", args, code)
		}
		if strings.TrimSpace(stdout.String()) != version {
			t.Errorf("%v output = %q, want %q", args, stdout.String(), version)
		}
	}
}

func TestRun_HelpListsFlags(t *testing.T) {
	rt, _, stderr := newRuntime(t)
	run([]string{"--help"}, rt, func(int) {})

	out := stderr.String()
	if !strings.Contains(out, "Usage: envtrack") {
		t.Errorf("help missing usage line:\n%s", out)
	}
	if !strings.Contains(out, "--config-dir") {
		t.Errorf("help missing --config-dir flag:\n%s", out)
	}
}

func TestRun_ConfigDirFlag(t *testing.T) {
	rt, stdout, stderr := newRuntime(t)
	configDir := t.TempDir()
	code := 0
	run([]string{"--config-dir", configDir, "envs"}, rt, func(c int) { code = c })

	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	if rt.ConfigDir != configDir {
		t.Errorf("ConfigDir = %q, want %q", rt.ConfigDir, configDir)
	}
	if !strings.Contains(stdout.String(), "No environments known to envtrack") {
		t.Errorf("envs output = %q", stdout.String())
	}
}

func TestRun_FlagsAfterSubcommandGoToSubcommand(t *testing.T) {
	rt, stdout, stderr := newRuntime(t)
	code := 0
	run([]string{"-c", t.TempDir(), "envs", "--json"}, rt, func(c int) { code = c })

	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	if !strings.HasPrefix(strings.TrimSpace(stdout.String()), "{") {
		t.Errorf("envs --json output = %q", stdout.String())
	}
}

func TestRun_UnknownRootFlag(t *testing.T) {
	rt, _, stderr := newRuntime(t)
	code := 0
	run([]string{"--bogus"}, rt, func(c int) { code = c })

	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "error:") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
