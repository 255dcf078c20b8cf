// pattern: Functional Core
package cli

import (
	"fmt"
	"io"
	"strings"

	"envtrack/internal/environment"
	"envtrack/internal/linkreg"
	"envtrack/internal/reconcile"
	"envtrack/internal/style"
)

const remotePlaceholder = "(remote)"

// renderEnvironments writes one line per environment: the name padded to the
// widest name, then the path. When highlightFirst is set the first line is
// rendered with the last-active style.
func renderEnvironments(w io.Writer, s *style.Styles, envs []environment.Descriptor, highlightFirst bool) {
	widest := 0
	for _, d := range envs {
		widest = max(widest, style.Width(d.Name))
	}

	for i, d := range envs {
		name := style.PadRight(d.Name, widest)

		if highlightFirst && i == 0 {
			fmt.Fprintln(w, s.LastActiveStyle().Render(name+"  "+location(d)))
			continue
		}

		loc := s.PathStyle().Render(location(d))
		if d.IsRemote() {
			loc = s.RemoteStyle().Render(remotePlaceholder)
		}
		fmt.Fprintln(w, s.NameStyle().Render(name)+"  "+loc)
	}
}

func location(d environment.Descriptor) string {
	if d.IsRemote() {
		return remotePlaceholder
	}
	return d.Path.String()
}

// renderPartition writes the text form of envs output.
func renderPartition(w io.Writer, s *style.Styles, p reconcile.Partition, activeOnly bool) {
	active := p.MostRecentFirst()

	if activeOnly {
		if len(active) == 0 {
			fmt.Fprintln(w, "No active environments")
			return
		}
		fmt.Fprintln(w, s.HeaderStyle().Render("Active environments:"))
		renderEnvironments(w, s, active, true)
		return
	}

	if p.Empty() {
		fmt.Fprintln(w, "No environments known to envtrack")
		return
	}

	if len(active) > 0 {
		fmt.Fprintln(w, s.HeaderStyle().Render("Active environments:"))
		renderEnvironments(w, s, active, true)
	}

	if len(p.Inactive) > 0 {
		if len(active) > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, s.HeaderStyle().Render("Inactive environments:"))
		renderEnvironments(w, s, p.Inactive, false)
	}
}

// renderEntries writes raw registry entries as "<key>  <path>".
func renderEntries(w io.Writer, entries []linkreg.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Registry is empty")
		return
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s  %s\n", e.Key, e.Path)
	}
	_, _ = io.WriteString(w, b.String())
}
