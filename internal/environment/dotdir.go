// pattern: Imperative Shell

package environment

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"envtrack/internal/canonical"
)

const (
	// DirName is the directory inside an environment that marks it as one.
	DirName = ".envtrack"
	// FileName is the descriptor file inside DirName.
	FileName = "env.yaml"
	// FormatVersion is the only descriptor version this build understands.
	FormatVersion = 1
)

// ErrAlreadyInitialized is returned by Init when a descriptor already exists.
var ErrAlreadyInitialized = errors.New("environment already initialized")

// DecodeError reports a directory that is not a readable environment.
type DecodeError struct {
	Dir string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode environment %s: %v", e.Dir, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type descriptorFile struct {
	Name    string `yaml:"name"`
	Version int    `yaml:"version"`
}

// DescriptorPath returns the descriptor file location for an environment dir.
func DescriptorPath(dir string) string {
	return filepath.Join(dir, DirName, FileName)
}

// Open reads the descriptor of the environment rooted at dir.
func Open(dir string) (Descriptor, error) {
	root, err := canonical.Resolve(dir)
	if err != nil {
		return Descriptor{}, &DecodeError{Dir: dir, Err: err}
	}

	data, err := os.ReadFile(DescriptorPath(string(root)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("no %s: %w", filepath.Join(DirName, FileName), canonical.ErrNotFound)
		}
		return Descriptor{}, &DecodeError{Dir: dir, Err: err}
	}

	var f descriptorFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Descriptor{}, &DecodeError{Dir: dir, Err: err}
	}
	if f.Version != FormatVersion {
		return Descriptor{}, &DecodeError{Dir: dir, Err: fmt.Errorf("unsupported version %d", f.Version)}
	}
	if err := ValidateName(f.Name); err != nil {
		return Descriptor{}, &DecodeError{Dir: dir, Err: err}
	}

	return Local(f.Name, root), nil
}

// ValidateName rejects names that cannot be shown or stored unambiguously.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("environment name is empty")
	case strings.ContainsAny(name, "/\\"):
		return fmt.Errorf("environment name %q contains a path separator", name)
	case strings.ContainsAny(name, "\n\r\t"):
		return fmt.Errorf("environment name %q contains control characters", name)
	}
	return nil
}

// Init writes a descriptor into dir, which must already exist. An empty name
// defaults to the directory's base name.
func Init(dir, name string) (Descriptor, error) {
	root, err := canonical.Resolve(dir)
	if err != nil {
		return Descriptor{}, fmt.Errorf("init environment: %w", err)
	}
	if name == "" {
		name = filepath.Base(string(root))
	}
	if err := ValidateName(name); err != nil {
		return Descriptor{}, fmt.Errorf("init environment: %w", err)
	}

	target := DescriptorPath(string(root))
	if _, err := os.Stat(target); err == nil {
		return Descriptor{}, fmt.Errorf("init environment %s: %w", root, ErrAlreadyInitialized)
	}

	data, err := yaml.Marshal(descriptorFile{Name: name, Version: FormatVersion})
	if err != nil {
		return Descriptor{}, fmt.Errorf("init environment: %w", err)
	}
	if err := writeFileAtomic(target, data); err != nil {
		return Descriptor{}, fmt.Errorf("init environment %s: %w", root, err)
	}

	return Local(name, root), nil
}

// writeFileAtomic writes data to a temp file next to path, then renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
