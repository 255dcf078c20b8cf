// pattern: Imperative Shell
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"envtrack/internal/canonical"
	"envtrack/internal/environment"
	"envtrack/internal/inithook"
	"envtrack/internal/linkreg"
	"envtrack/internal/reconcile"
	"envtrack/internal/session"
	"envtrack/internal/watch"
)

const (
	envsUsage       = "Usage: envtrack envs [--active] [--json] [--watch]"
	initUsage       = "Usage: envtrack init [--dir <dir>] [--name <name>]"
	registerUsage   = "Usage: envtrack register [dir]"
	unregisterUsage = "Usage: envtrack unregister [dir] [--key <key>]"
	listUsage       = "Usage: envtrack registry list [--json]"
	pruneUsage      = "Usage: envtrack registry prune"
)

// BuildApp creates and configures the CLI application with all commands and groups.
func BuildApp(version string, rt *Runtime) *App {
	rt.defaults()

	app := NewApp(version)
	app.Stderr = rt.Stderr

	app.AddCommand(&Command{
		Name:    "envs",
		Summary: "List active and inactive environments",
		Usage:   envsUsage,
		Run:     rt.runEnvs,
	})

	app.AddCommand(&Command{
		Name:    "init",
		Summary: "Create an environment in a directory and register it",
		Usage:   initUsage,
		Run:     rt.runInit,
	})

	app.AddCommand(&Command{
		Name:    "register",
		Summary: "Record an existing environment",
		Usage:   registerUsage,
		Run:     rt.runRegister,
	})

	app.AddCommand(&Command{
		Name:    "unregister",
		Summary: "Forget an environment",
		Usage:   unregisterUsage,
		Run:     rt.runUnregister,
	})

	app.AddCommand(&Command{
		Name:    "version",
		Summary: "Print version and exit",
		Usage:   "Usage: envtrack version",
		Run: func(args []string) error {
			fmt.Fprintln(rt.Stdout, version)
			return nil
		},
	})

	registryGroup := app.AddGroup("registry", "Inspect the environment registry")
	registryGroup.AddCommand(&Command{
		Name:    "list",
		Summary: "Print raw registry entries",
		Usage:   listUsage,
		Run:     rt.runRegistryList,
	})
	registryGroup.AddCommand(&Command{
		Name:    "prune",
		Summary: "Remove entries whose directory no longer exists",
		Usage:   pruneUsage,
		Run:     rt.runRegistryPrune,
	})

	return app
}

func (rt *Runtime) runEnvs(args []string) error {
	fs := flag.NewFlagSet("envs", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	activeOnly := fs.Bool("active", false, "show only active environments")
	asJSON := fs.Bool("json", false, "print JSON")
	watchRoot := fs.Bool("watch", false, "reprint whenever the registry changes")
	if err := fs.Parse(args); err != nil {
		return &UsageError{Usage: envsUsage, Err: err}
	}
	if fs.NArg() > 0 {
		return usageErrorf(envsUsage, "unexpected argument %q", fs.Arg(0))
	}
	if *watchRoot && *asJSON {
		return usageErrorf(envsUsage, "--watch cannot be combined with --json")
	}

	st, err := rt.open()
	if err != nil {
		return err
	}
	defer st.close()

	src := session.FromEnv(rt.Getenv, st.logs.For("session"))

	show := func() error {
		p := reconcile.ActiveOnly(src)
		if !*activeOnly {
			computed, err := reconcile.Compute(st.registered, src)
			if err != nil {
				return err
			}
			p = computed
		}

		if *asJSON {
			if *activeOnly {
				active := p.Active
				if active == nil {
					active = []environment.Descriptor{}
				}
				return writeJSON(rt.Stdout, active)
			}
			return writeJSON(rt.Stdout, p)
		}

		renderPartition(rt.Stdout, st.styles, p, *activeOnly)
		return nil
	}

	if err := show(); err != nil {
		return err
	}
	if !*watchRoot {
		return nil
	}

	w, err := watch.New(st.registry.Root(), st.logs.For("watch"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = w.Run(ctx, func() {
		fmt.Fprintln(rt.Stdout)
		if err := show(); err != nil {
			st.logs.For("watch").Error("refresh failed", "error", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (rt *Runtime) runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	dir := fs.StringP("dir", "d", ".", "directory to initialize")
	name := fs.StringP("name", "n", "", "environment name (default: directory name)")
	if err := fs.Parse(args); err != nil {
		return &UsageError{Usage: initUsage, Err: err}
	}
	if fs.NArg() > 0 {
		return usageErrorf(initUsage, "unexpected argument %q", fs.Arg(0))
	}

	st, err := rt.open()
	if err != nil {
		return err
	}
	defer st.close()

	d, err := environment.Init(*dir, *name)
	if err != nil {
		return err
	}
	if err := st.registered.Register(d); err != nil {
		return err
	}
	st.logs.For("cli").With("command", "init").Info("initialized environment", "name", d.Name, "path", d.Path)

	fmt.Fprintf(rt.Stdout, "Created environment '%s' in %s\n", d.Name, d.Path)

	if detection, ok := inithook.Detect(string(d.Path)); ok {
		c := inithook.Suggest(detection)
		fmt.Fprintf(rt.Stdout, "\nDetected a %s project (%s).\n", detection.Kind, detection.File)
		fmt.Fprintf(rt.Stdout, "Suggested packages: %s\n", strings.Join(c.Packages, ", "))
		if c.Constraint != "" {
			fmt.Fprintf(rt.Stdout, "Required version: %s\n", c.Constraint)
		}
		fmt.Fprintf(rt.Stdout, "Suggested hook:\n%s\n", indent(c.Hook, "  "))
	}
	return nil
}

func (rt *Runtime) runRegister(args []string) error {
	dir, err := singleDirArg(args, registerUsage)
	if err != nil {
		return err
	}

	st, err := rt.open()
	if err != nil {
		return err
	}
	defer st.close()

	d, err := environment.Open(dir)
	if err != nil {
		return err
	}
	if err := st.registered.Register(d); err != nil {
		return err
	}
	key, _ := st.registered.KeyOf(d)
	st.logs.For("cli").With("command", "register").Debug("registered environment", "name", d.Name, "key", key)

	fmt.Fprintf(rt.Stdout, "Registered '%s' (%s) as %s\n", d.Name, d.Path, key)
	return nil
}

func (rt *Runtime) runUnregister(args []string) error {
	fs := flag.NewFlagSet("unregister", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	rawKey := fs.StringP("key", "k", "", "registry key to remove")
	if err := fs.Parse(args); err != nil {
		return &UsageError{Usage: unregisterUsage, Err: err}
	}
	if fs.NArg() > 1 {
		return usageErrorf(unregisterUsage, "too many arguments")
	}
	if *rawKey != "" && fs.NArg() > 0 {
		return usageErrorf(unregisterUsage, "give either a directory or --key, not both")
	}

	var key linkreg.Key
	if *rawKey != "" {
		k, err := linkreg.ParseKey(*rawKey)
		if err != nil {
			return &UsageError{Usage: unregisterUsage, Err: err}
		}
		key = k
	} else {
		dir := "."
		if fs.NArg() == 1 {
			dir = fs.Arg(0)
		}
		k, err := keyForDir(dir)
		if err != nil {
			return err
		}
		key = k
	}

	st, err := rt.open()
	if err != nil {
		return err
	}
	defer st.close()

	if err := st.registered.Unregister(key); err != nil {
		return err
	}
	fmt.Fprintf(rt.Stdout, "Unregistered %s\n", key)
	return nil
}

// keyForDir derives the key for dir. A directory that has already been
// removed is keyed by its absolute path, which matches entries registered
// without symlinks in the path.
func keyForDir(dir string) (linkreg.Key, error) {
	p, err := canonical.Resolve(dir)
	if err == nil {
		return linkreg.KeyFor(p), nil
	}
	if !errors.Is(err, canonical.ErrNotFound) || dir == "" {
		return "", err
	}
	abs, absErr := filepath.Abs(dir)
	if absErr != nil {
		return "", absErr
	}
	return linkreg.KeyFor(canonical.Path(abs)), nil
}

func (rt *Runtime) runRegistryList(args []string) error {
	fs := flag.NewFlagSet("registry list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return &UsageError{Usage: listUsage, Err: err}
	}
	if fs.NArg() > 0 {
		return usageErrorf(listUsage, "unexpected argument %q", fs.Arg(0))
	}

	st, err := rt.open()
	if err != nil {
		return err
	}
	defer st.close()

	entries, err := st.registry.Entries()
	if err != nil {
		return err
	}

	if *asJSON {
		type entryJSON struct {
			Key  string `json:"key"`
			Path string `json:"path"`
		}
		out := make([]entryJSON, 0, len(entries))
		for _, e := range entries {
			out = append(out, entryJSON{Key: e.Key.String(), Path: e.Path.String()})
		}
		return writeJSON(rt.Stdout, out)
	}

	renderEntries(rt.Stdout, entries)
	return nil
}

func (rt *Runtime) runRegistryPrune(args []string) error {
	if len(args) > 0 {
		return usageErrorf(pruneUsage, "unexpected argument %q", args[0])
	}

	st, err := rt.open()
	if err != nil {
		return err
	}
	defer st.close()

	n, err := st.registry.Prune()
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.Stdout, "Removed %d stale %s\n", n, plural(n, "entry", "entries"))
	return nil
}

func singleDirArg(args []string, usage string) (string, error) {
	switch len(args) {
	case 0:
		return ".", nil
	case 1:
		if strings.HasPrefix(args[0], "-") {
			return "", usageErrorf(usage, "unknown flag %q", args[0])
		}
		return args[0], nil
	default:
		return "", usageErrorf(usage, "too many arguments")
	}
}

// writeJSON pretty-prints v to w.
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
