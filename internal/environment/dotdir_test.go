// pattern: Imperative Shell

package environment

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"envtrack/internal/canonical"
)

func writeDescriptor(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, DirName), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(DescriptorPath(dir), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestInitAndOpen(t *testing.T) {
	dir := t.TempDir()

	created, err := Init(dir, "web")
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	want, _ := canonical.Resolve(dir)
	if created.Name != "web" || created.Path != want {
		t.Errorf("Init() = %+v, want name web at %q", created, want)
	}

	opened, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if opened != created {
		t.Errorf("Open() = %+v, want %+v", opened, created)
	}
}

func TestInit_DefaultsNameToDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my-project")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}

	d, err := Init(dir, "")
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if d.Name != "my-project" {
		t.Errorf("Name = %q, want %q", d.Name, "my-project")
	}
}

func TestInit_Twice(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := Init(dir, "b"); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("second Init() error = %v, want ErrAlreadyInitialized", err)
	}
}

func TestInit_RejectsBadName(t *testing.T) {
	if _, err := Init(t.TempDir(), "a/b"); err == nil {
		t.Fatal("Init() with slash in name should fail")
	}
}

func TestInit_MissingDir(t *testing.T) {
	_, err := Init(filepath.Join(t.TempDir(), "missing"), "x")
	if !errors.Is(err, canonical.ErrNotFound) {
		t.Fatalf("Init() error = %v, want ErrNotFound", err)
	}
}

func TestOpen_Failures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		create  bool
	}{
		{name: "no descriptor", create: false},
		{name: "bad yaml", content: "name: [unterminated", create: true},
		{name: "wrong version", content: "name: web\nversion: 7\n", create: true},
		{name: "missing name", content: "version: 1\n", create: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.create {
				writeDescriptor(t, dir, tt.content)
			}

			_, err := Open(dir)
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("Open() error = %v, want *DecodeError", err)
			}
		})
	}
}

func TestOpen_MissingDirIsNotFound(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "gone"))
	if !errors.Is(err, canonical.ErrNotFound) {
		t.Fatalf("Open() error = %v, want ErrNotFound", err)
	}
}

func TestOpen_ThroughSymlink(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "target")
	if err := os.Mkdir(target, 0755); err != nil {
		t.Fatal(err)
	}
	writeDescriptor(t, target, "name: web\nversion: 1\n")
	link := filepath.Join(base, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	viaLink, err := Open(link)
	if err != nil {
		t.Fatal(err)
	}
	direct, err := Open(target)
	if err != nil {
		t.Fatal(err)
	}
	if viaLink != direct {
		t.Errorf("Open(link) = %+v, Open(target) = %+v; want identical", viaLink, direct)
	}
}
