// pattern: Imperative Shell

// Package session exposes the environments active in the current shell
// lineage. The list is inherited through the process environment and is
// never persisted.
package session

import (
	"encoding/json"
	"iter"
	"slices"

	"envtrack/internal/canonical"
	"envtrack/internal/environment"
	"envtrack/internal/logging"
)

// EnvVar holds the JSON-encoded active list, oldest activation first.
const EnvVar = "ENVTRACK_ACTIVE_ENVIRONMENTS"

// ActiveSessionSource reports which environments are active.
type ActiveSessionSource interface {
	// Iter yields active environments in activation order, oldest first.
	Iter() iter.Seq[environment.Descriptor]
	// LastActive returns the most recently activated environment.
	LastActive() (environment.Descriptor, bool)
}

// Active is an ordered, duplicate-free active list.
type Active struct {
	list []environment.Descriptor
}

var _ ActiveSessionSource = (*Active)(nil)

// NewActive builds an Active list from descriptors in activation order. An
// environment activated more than once keeps only its latest position.
func NewActive(list ...environment.Descriptor) *Active {
	out := make([]environment.Descriptor, 0, len(list))
	for _, d := range list {
		out = slices.DeleteFunc(out, func(e environment.Descriptor) bool { return e == d })
		out = append(out, d)
	}
	return &Active{list: out}
}

// FromEnv reads the active list from getenv(EnvVar). A missing or malformed
// value means no environment is active; malformed values are logged.
// Local paths are canonicalized when they resolve and kept as given otherwise.
func FromEnv(getenv func(string) string, logger *logging.ScopedLogger) *Active {
	if logger == nil {
		logger = logging.NopLogger()
	}

	raw := getenv(EnvVar)
	if raw == "" {
		return NewActive()
	}

	var list []environment.Descriptor
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		logger.Warn("ignoring malformed active environment list", "var", EnvVar, "error", err)
		return NewActive()
	}
	for i, d := range list {
		if d.IsRemote() {
			continue
		}
		if p, err := canonical.Resolve(string(d.Path)); err == nil {
			list[i].Path = p
		}
	}
	return NewActive(list...)
}

func (a *Active) Iter() iter.Seq[environment.Descriptor] {
	return slices.Values(a.list)
}

func (a *Active) LastActive() (environment.Descriptor, bool) {
	if len(a.list) == 0 {
		return environment.Descriptor{}, false
	}
	return a.list[len(a.list)-1], true
}

func (a *Active) Len() int {
	return len(a.list)
}

// Push returns a new list with d activated last.
func (a *Active) Push(d environment.Descriptor) *Active {
	return NewActive(append(slices.Clone(a.list), d)...)
}

// Encode returns the EnvVar value that reproduces a.
func (a *Active) Encode() (string, error) {
	data, err := json.Marshal(a.list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
