// pattern: Functional Core

// Package inithook recognizes project ecosystems in a directory being turned
// into an environment and suggests a starting customization for each.
//
// Detectors are a closed set of Kinds dispatched by a switch; each detector
// only reads files and never prompts.
package inithook

import (
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// Kind names an ecosystem detector.
type Kind int

const (
	KindGo Kind = iota
)

// kinds is the detection order; the first match wins.
var kinds = []Kind{KindGo}

func (k Kind) String() string {
	switch k {
	case KindGo:
		return "go"
	default:
		return "unknown"
	}
}

// Detection describes a recognized ecosystem.
type Detection struct {
	Kind    Kind
	File    string // Marker file that triggered the match, relative to the dir
	Version string // Toolchain version declared by the marker file, if any
}

// Customization is what an environment for a detected project typically needs.
type Customization struct {
	Packages   []string
	Hook       string
	Constraint string // Version requirement to satisfy, empty when unknown
}

// Detect runs every detector against dir and returns the first match.
func Detect(dir string) (Detection, bool) {
	for _, k := range kinds {
		if d, ok := detect(k, dir); ok {
			return d, true
		}
	}
	return Detection{}, false
}

func detect(k Kind, dir string) (Detection, bool) {
	switch k {
	case KindGo:
		return detectGo(dir)
	default:
		return Detection{}, false
	}
}

// Suggest returns the customization for a detection.
func Suggest(d Detection) Customization {
	switch d.Kind {
	case KindGo:
		return Customization{
			Packages:   []string{"go"},
			Hook:       goHook,
			Constraint: d.Version,
		}
	default:
		return Customization{}
	}
}

const (
	goModFile  = "go.mod"
	goWorkFile = "go.work"

	goHook = "# Install Go dependencies\ngo get ."
)

// detectGo prefers go.work over go.mod: a workspace spans several modules.
// A marker that fails to parse still counts, with no version.
func detectGo(dir string) (Detection, bool) {
	if data, err := os.ReadFile(filepath.Join(dir, goWorkFile)); err == nil {
		version := ""
		if wf, err := modfile.ParseWork(goWorkFile, data, nil); err == nil && wf.Go != nil {
			version = wf.Go.Version
		}
		return Detection{Kind: KindGo, File: goWorkFile, Version: version}, true
	}

	if data, err := os.ReadFile(filepath.Join(dir, goModFile)); err == nil {
		version := ""
		if mf, err := modfile.ParseLax(goModFile, data, nil); err == nil && mf.Go != nil {
			version = mf.Go.Version
		}
		return Detection{Kind: KindGo, File: goModFile, Version: version}, true
	}

	return Detection{}, false
}
