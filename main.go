// pattern: Imperative Shell
package main

import (
	"errors"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"envtrack/internal/cli"
)

var version = "dev"

func main() {
	run(os.Args[1:], &cli.Runtime{}, os.Exit)
}

// run parses root flags from args and dispatches the remaining arguments.
func run(args []string, rt *cli.Runtime, exit func(int)) {
	fs := flag.NewFlagSet("envtrack", flag.ContinueOnError)
	// Stop parsing flags after the first non-flag arg (the subcommand),
	// so that --help after a subcommand is handled by the subcommand.
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)

	configDir := fs.StringP("config-dir", "c", "", "config directory (default: $XDG_CONFIG_HOME/envtrack)")
	showVersion := fs.BoolP("version", "V", false, "print version and exit")

	err := fs.Parse(args)

	rt.ConfigDir = *configDir
	app := cli.BuildApp(version, rt)
	app.ExitFunc = exit

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			app.PrintHelp(rt.Stderr)
			printDefaults(fs, rt.Stderr)
			return
		}
		_, _ = io.WriteString(rt.Stderr, "error: "+err.Error()+"\n")
		exit(2)
		return
	}

	if *showVersion {
		app.Execute([]string{"version"})
		return
	}

	if fs.NArg() == 0 {
		app.PrintHelp(rt.Stderr)
		printDefaults(fs, rt.Stderr)
		return
	}

	app.Execute(fs.Args())
}

func printDefaults(fs *flag.FlagSet, w io.Writer) {
	fs.SetOutput(w)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)
}
