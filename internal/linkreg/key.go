// pattern: Functional Core

package linkreg

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"envtrack/internal/canonical"
)

const keyBytes = 16

// Key addresses a registry entry. It is derived from the entry's canonical
// path and is stable across processes and restarts.
type Key string

func (k Key) String() string {
	return string(k)
}

// KeyFor derives the registry key for a canonical path.
func KeyFor(p canonical.Path) Key {
	sum := sha256.Sum256([]byte(p))
	return Key(hex.EncodeToString(sum[:keyBytes]))
}

// ParseKey validates s as a key. Keys are lowercase hex of fixed length, so
// a valid key can never name a path outside the registry root.
func ParseKey(s string) (Key, error) {
	if len(s) != keyBytes*2 {
		return "", fmt.Errorf("invalid registry key %q: want %d hex characters", s, keyBytes*2)
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("invalid registry key %q: non-hex character %q", s, c)
		}
	}
	return Key(s), nil
}
