// pattern: Functional Core

// Package environment turns registry entries into typed environment
// descriptors and owns the on-disk descriptor file format.
package environment

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"

	"envtrack/internal/canonical"
)

// Descriptor identifies an environment. Local environments carry the
// canonical path of their directory; remote environments have no path.
// Two descriptors are the same environment iff they are ==.
type Descriptor struct {
	Name string
	Path canonical.Path
}

// Local returns a descriptor for an environment rooted at path.
func Local(name string, path canonical.Path) Descriptor {
	return Descriptor{Name: name, Path: path}
}

// Remote returns a descriptor for an environment with no local directory.
func Remote(name string) Descriptor {
	return Descriptor{Name: name}
}

// IsRemote reports whether d has no local path.
func (d Descriptor) IsRemote() bool {
	return d.Path == ""
}

func (d Descriptor) String() string {
	if d.IsRemote() {
		return d.Name + " (remote)"
	}
	return d.Name + " " + string(d.Path)
}

// Compare orders descriptors by name, then path. For equal names a remote
// descriptor sorts before local ones.
func Compare(a, b Descriptor) int {
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.Path, b.Path)
}

type descriptorJSON struct {
	Name string  `json:"name"`
	Path *string `json:"path"`
}

// MarshalJSON encodes d as {"name": ..., "path": ...} with a null path for
// remote environments.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	out := descriptorJSON{Name: d.Name}
	if !d.IsRemote() {
		p := string(d.Path)
		out.Path = &p
	}
	return json.Marshal(out)
}

func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var in descriptorJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Name == "" {
		return errors.New("environment descriptor: missing name")
	}
	d.Name = in.Name
	d.Path = ""
	if in.Path != nil {
		if *in.Path == "" {
			return fmt.Errorf("environment descriptor %q: empty path", in.Name)
		}
		d.Path = canonical.Path(*in.Path)
	}
	return nil
}
