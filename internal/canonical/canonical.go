// pattern: Imperative Shell

// Package canonical resolves filesystem paths to the absolute, symlink-free
// form used as the identity of an environment location.
package canonical

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
)

// ErrNotFound is returned when the path being resolved does not exist.
var ErrNotFound = errors.New("path not found")

// Path is an absolute path with every symlink resolved. Two locations are the
// same environment iff their Paths are equal.
type Path string

func (p Path) String() string {
	return string(p)
}

// Resolve returns the canonical form of p. The filesystem is consulted on
// every call; nothing is cached.
func Resolve(p string) (Path, error) {
	if p == "" {
		return "", fmt.Errorf("resolve %q: %w", p, ErrNotFound)
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", p, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("resolve %q: %w", p, ErrNotFound)
		}
		return "", fmt.Errorf("resolve %q: %w", p, err)
	}

	return Path(resolved), nil
}
