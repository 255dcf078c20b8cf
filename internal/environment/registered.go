// pattern: Imperative Shell

package environment

import (
	"fmt"
	"iter"

	"envtrack/internal/canonical"
	"envtrack/internal/linkreg"
	"envtrack/internal/logging"
)

// Registered is the set of environments recorded in a link registry.
type Registered struct {
	registry *linkreg.Registry
	logger   *logging.ScopedLogger
}

// NewRegistered wraps registry. A nil logger discards output.
func NewRegistered(registry *linkreg.Registry, logger *logging.ScopedLogger) *Registered {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Registered{registry: registry, logger: logger}
}

// Register records d. Remote environments have nothing to record and are
// accepted as a no-op.
func (r *Registered) Register(d Descriptor) error {
	if d.IsRemote() {
		return nil
	}

	p, err := canonical.Resolve(string(d.Path))
	if err != nil {
		return fmt.Errorf("register environment %s: %w", d.Name, err)
	}
	if _, err := r.registry.Register(p); err != nil {
		return err
	}
	return nil
}

// Unregister removes the entry for key. Unknown keys are not an error.
func (r *Registered) Unregister(key linkreg.Key) error {
	return r.registry.Unregister(key)
}

// KeyOf returns the registry key a local descriptor is stored under.
func (r *Registered) KeyOf(d Descriptor) (linkreg.Key, bool) {
	if d.IsRemote() {
		return "", false
	}
	return linkreg.KeyFor(d.Path), true
}

// TryIter yields the descriptor of every registered environment. Entries
// whose directory no longer holds a readable descriptor are skipped.
func (r *Registered) TryIter() (iter.Seq[Descriptor], error) {
	entries, err := r.registry.TryIter()
	if err != nil {
		return nil, err
	}

	return func(yield func(Descriptor) bool) {
		for entry := range entries {
			d, err := Open(string(entry.Path))
			if err != nil {
				r.logger.Debug("skipping registered environment", "key", entry.Key, "path", entry.Path, "error", err)
				continue
			}
			if !yield(d) {
				return
			}
		}
	}, nil
}

// Collect returns every registered environment as a Set.
func (r *Registered) Collect() (*Set, error) {
	seq, err := r.TryIter()
	if err != nil {
		return nil, err
	}
	return NewSet(seq), nil
}
