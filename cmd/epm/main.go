// Command epm is a project-aware package manager and build planner for
// Elm-shaped projects (elm.json manifests).
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/elm-tooling/epm/internal/epmctx"
	"github.com/elm-tooling/epm/internal/epmerr"
	"github.com/elm-tooling/epm/internal/epmlog"
	"github.com/elm-tooling/epm/internal/featureflag"
)

type command interface {
	Name() string
	Args() string
	ShortHelp() string
	Register(*flag.FlagSet)
	Run(ctx *epmctx.Context, args []string) error
}

func main() {
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "epm: failed to get working directory:", err)
		os.Exit(1)
	}
	c := &Config{
		Args:       os.Args,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		WorkingDir: wd,
	}
	os.Exit(c.Run())
}

// Config specifies a full configuration for an epm execution.
type Config struct {
	WorkingDir     string
	Args           []string
	Stdout, Stderr io.Writer
}

// Run executes a configuration and returns an exit code.
func (c *Config) Run() (exitCode int) {
	commands := []command{
		&installCommand{},
		&removeCommand{},
		&upgradeCommand{},
		&cacheCommand{},
		&buildCommand{},
		&extractCommand{},
		&statusCommand{},
	}

	usage := func() {
		fmt.Fprintln(c.Stderr, "epm manages an Elm project's dependencies and build plan")
		fmt.Fprintln(c.Stderr)
		fmt.Fprintln(c.Stderr, "Usage: epm <command> [arguments]")
		fmt.Fprintln(c.Stderr)
		fmt.Fprintln(c.Stderr, "Commands:")
		fmt.Fprintln(c.Stderr)
		w := tabwriter.NewWriter(c.Stderr, 0, 4, 2, ' ', 0)
		for _, cmd := range commands {
			fmt.Fprintf(w, "\t%s %s\t%s\n", cmd.Name(), cmd.Args(), cmd.ShortHelp())
		}
		w.Flush()
	}

	if len(c.Args) < 2 {
		usage()
		return 1
	}
	cmdName := c.Args[1]
	if cmdName == "-h" || cmdName == "-help" || cmdName == "--help" {
		usage()
		return 1
	}

	for _, cmd := range commands {
		if cmd.Name() != cmdName {
			continue
		}

		fs := flag.NewFlagSet(cmdName, flag.ContinueOnError)
		fs.SetOutput(c.Stderr)
		verbose := fs.Bool("v", false, "enable verbose logging")
		yes := fs.Bool("yes", false, "skip confirmation prompts")
		offline := fs.Bool("offline", false, "force offline solving")
		cmd.Register(fs)

		if err := fs.Parse(c.Args[2:]); err != nil {
			return 1
		}

		log := epmlog.New(c.Stdout, c.Stderr, *verbose)
		ctx, err := epmctx.New(log, *yes, *offline || featureflag.Enabled(featureflag.StrictOfflineCache))
		if err != nil {
			fmt.Fprintln(c.Stderr, "epm:", err)
			return 1
		}
		ctx.WorkingDir = c.WorkingDir

		if err := cmd.Run(ctx, fs.Args()); err != nil {
			if err == errAborted {
				log.Printf("Aborted.")
				return 0
			}
			log.Errorf("%s", log.Cause(err))
			var ee *epmerr.Error
			if errors.As(err, &ee) {
				if h := ee.Hint(); h != "" {
					log.Errorf("%s", h)
				}
			}
			return 1
		}
		return 0
	}

	fmt.Fprintf(c.Stderr, "epm: %s: no such command\n", cmdName)
	usage()
	return 1
}
