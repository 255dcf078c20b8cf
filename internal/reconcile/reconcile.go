// pattern: Functional Core

// Package reconcile splits known environments into those active in the
// current session and those merely registered.
package reconcile

import (
	"encoding/json"
	"fmt"
	"iter"
	"slices"

	"envtrack/internal/environment"
	"envtrack/internal/session"
)

// Lister enumerates registered environments. *environment.Registered
// satisfies it.
type Lister interface {
	TryIter() (iter.Seq[environment.Descriptor], error)
}

// Inactive returns the registered environments that are not active. An
// environment in both inputs is active only.
func Inactive(registered, active iter.Seq[environment.Descriptor]) *environment.Set {
	set := environment.NewSet(registered)
	if active != nil {
		for d := range active {
			set.Remove(d)
		}
	}
	return set
}

// Partition is the active/inactive split of every known environment.
type Partition struct {
	// Active is in activation order, oldest first.
	Active []environment.Descriptor
	// Inactive is sorted by environment.Compare.
	Inactive []environment.Descriptor
}

// Compute enumerates reg and partitions it against src. A registry that
// cannot be read is an error; an empty registry is an empty Partition.
func Compute(reg Lister, src session.ActiveSessionSource) (Partition, error) {
	registered, err := reg.TryIter()
	if err != nil {
		return Partition{}, fmt.Errorf("list registered environments: %w", err)
	}

	return Partition{
		Active:   activeList(src),
		Inactive: Inactive(registered, src.Iter()).Items(),
	}, nil
}

// ActiveOnly builds a Partition without consulting the registry.
func ActiveOnly(src session.ActiveSessionSource) Partition {
	return Partition{
		Active:   activeList(src),
		Inactive: []environment.Descriptor{},
	}
}

func activeList(src session.ActiveSessionSource) []environment.Descriptor {
	return slices.Collect(session.NewActive(slices.Collect(src.Iter())...).Iter())
}

// Empty reports whether no environment is known at all.
func (p Partition) Empty() bool {
	return len(p.Active) == 0 && len(p.Inactive) == 0
}

// MostRecentFirst returns the active environments, latest activation first.
func (p Partition) MostRecentFirst() []environment.Descriptor {
	out := slices.Clone(p.Active)
	slices.Reverse(out)
	return out
}

type partitionJSON struct {
	Active   []environment.Descriptor `json:"active"`
	Inactive []environment.Descriptor `json:"inactive"`
}

// MarshalJSON encodes {"active": [...], "inactive": [...]}. Empty lists are
// encoded as [] rather than null.
func (p Partition) MarshalJSON() ([]byte, error) {
	out := partitionJSON{Active: p.Active, Inactive: p.Inactive}
	if out.Active == nil {
		out.Active = []environment.Descriptor{}
	}
	if out.Inactive == nil {
		out.Inactive = []environment.Descriptor{}
	}
	return json.Marshal(out)
}
