// pattern: Functional Core
package cli

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"envtrack/internal/style"
)

// Command represents a single CLI command with its metadata and handler.
type Command struct {
	Name    string
	Summary string
	Usage   string
	Run     func(args []string) error
}

// Group represents a group of related commands.
type Group struct {
	Name     string
	Summary  string
	Commands map[string]*Command
}

// UsageError reports invalid arguments. It exits with status 2.
type UsageError struct {
	Usage string
	Err   error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func usageErrorf(usage, format string, args ...any) error {
	return &UsageError{Usage: usage, Err: fmt.Errorf(format, args...)}
}

// App represents the top-level CLI application with groups and ungrouped commands.
type App struct {
	groups   map[string]*Group
	commands map[string]*Command
	version  string

	// ExitFunc is called with a non-zero status on failure. Defaults to os.Exit.
	// Overridable for testing.
	ExitFunc func(int)

	// Stderr is where help and error messages are written. Defaults to os.Stderr.
	Stderr io.Writer

	// Styles renders the "error:" prefix. Defaults to the default theme.
	Styles *style.Styles
}

// NewApp creates a new CLI application with the given version.
func NewApp(version string) *App {
	return &App{
		groups:   make(map[string]*Group),
		commands: make(map[string]*Command),
		version:  version,
		ExitFunc: os.Exit,
		Stderr:   os.Stderr,
		Styles:   style.New(style.DefaultTheme),
	}
}

// AddGroup creates and registers a new command group.
func (a *App) AddGroup(name, summary string) *Group {
	g := &Group{
		Name:     name,
		Summary:  summary,
		Commands: make(map[string]*Command),
	}
	a.groups[name] = g
	return g
}

// AddCommand registers an ungrouped (top-level) command.
func (a *App) AddCommand(cmd *Command) {
	a.commands[cmd.Name] = cmd
}

// AddCommand registers a command in the group.
func (g *Group) AddCommand(cmd *Command) {
	g.Commands[cmd.Name] = cmd
}

// Execute dispatches the CLI arguments to the appropriate command.
// Failures are reported on Stderr and end in a call to ExitFunc.
func (a *App) Execute(args []string) {
	if len(args) == 0 || args[0] == "help" {
		a.PrintHelp(a.Stderr)
		return
	}

	cmdName := args[0]

	if cmd, ok := a.commands[cmdName]; ok {
		a.run(cmd, args[1:])
		return
	}

	if group, ok := a.groups[cmdName]; ok {
		// Group with no subcommand, "help", or --help/-h
		if len(args) < 2 || args[1] == "help" || args[1] == "--help" || args[1] == "-h" {
			group.PrintHelp(a.Stderr)
			return
		}

		if cmd, ok := group.Commands[args[1]]; ok {
			a.run(cmd, args[2:])
			return
		}

		a.printError(fmt.Errorf("unknown command %q", cmdName+" "+args[1]))
		fmt.Fprintln(a.Stderr)
		group.PrintHelp(a.Stderr)
		a.ExitFunc(2)
		return
	}

	a.printError(fmt.Errorf("unknown command %q", cmdName))
	fmt.Fprintln(a.Stderr)
	a.PrintHelp(a.Stderr)
	a.ExitFunc(2)
}

func (a *App) run(cmd *Command, args []string) {
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if arg == "--help" || arg == "-h" {
			fmt.Fprintf(a.Stderr, "%s\n", cmd.Usage)
			return
		}
	}

	err := cmd.Run(args)
	if err == nil {
		return
	}

	a.printError(err)

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(a.Stderr, "%s\n", usageErr.Usage)
		a.ExitFunc(2)
		return
	}
	a.ExitFunc(1)
}

func (a *App) printError(err error) {
	fmt.Fprintf(a.Stderr, "%s %v\n", a.Styles.ErrorStyle().Render("error:"), err)
}

// PrintHelp prints the top-level help text.
func (a *App) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "Usage: envtrack [options] <command>\n\n")
	fmt.Fprintf(w, "Commands:\n")

	for _, name := range slices.Sorted(maps.Keys(a.commands)) {
		cmd := a.commands[name]
		fmt.Fprintf(w, "  %-10s %s\n", cmd.Name, cmd.Summary)
	}

	if len(a.groups) > 0 {
		fmt.Fprintf(w, "\nCommand Groups:\n")
		for _, name := range slices.Sorted(maps.Keys(a.groups)) {
			group := a.groups[name]
			fmt.Fprintf(w, "  %-10s %s\n", group.Name, group.Summary)
		}
	}

	fmt.Fprintf(w, "\nUse \"envtrack <group> help\" for group details.\n\n")
	fmt.Fprintf(w, "Options:\n")
}

// PrintHelp prints help for a specific group.
func (g *Group) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "Usage: envtrack %s <command>\n\n", g.Name)
	fmt.Fprintf(w, "Commands:\n")
	// Sort command names for deterministic output
	names := slices.Sorted(maps.Keys(g.Commands))
	for _, name := range names {
		cmd := g.Commands[name]
		fmt.Fprintf(w, "  %-10s %s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintf(w, "\nUse \"envtrack %s <command> --help\" for command details.\n", g.Name)
}
