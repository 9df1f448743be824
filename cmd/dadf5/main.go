/*
 * main.go, part of godadf5.
 *
 *
 * Copyright 2026 Raul Mera <rauldotmeraatusachdotcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 */

// dadf5 inspects result containers, adds derived datasets to them and
// exports their contents to VTK files, ASCII tables and plots.
//
// Usage:
//
//	dadf5 <command> [flags] FILE
//
// Commands are list, transforms, add, vtk, table, histogram, series, run
// and geom2vtk. Invalid arguments exit with status 2, failures with 1.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	dadf5 "github.com/rmera/godadf5"
	"github.com/rmera/godadf5/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

// usageError is returned for invalid invocations.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }
func (e *usageError) ExitCode() int { return 2 }

func usagef(format string, a ...any) error {
	return &usageError{fmt.Errorf(format, a...)}
}

// command is one subcommand. Its flags are registered on the set it
// receives; run is called once they are parsed.
type command struct {
	summary string
	setup   func(fs *pflag.FlagSet, env *env) func(args []string) error
}

var commands = map[string]command{
	"list":       {"print the visible datasets of a container", setupList},
	"transforms": {"print the built-in transforms and their parameters", setupTransforms},
	"add":        {"add a derived dataset with a built-in transform", setupAdd},
	"vtk":        {"export datasets to one VTK file per increment", setupVTK},
	"table":      {"export datasets to one ASCII table per increment", setupTable},
	"histogram":  {"plot the distribution of a dataset per increment", setupHistogram},
	"series":     {"plot the mean and range of a dataset against time", setupSeries},
	"run":        {"run a job file", setupRun},
	"geom2vtk":   {"convert a geom file to a VTK rectilinear grid", setupGeom2VTK},
}

// env carries what every command shares.
type env struct {
	stdout, stderr io.Writer
	log            *slog.Logger
	workers        int
	sel            selection
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stderr)
		if len(args) == 0 {
			return usagef("no command given")
		}
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(stderr)
		return usagef("unknown command %q", args[0])
	}
	e := &env{stdout: stdout, stderr: stderr}
	fs := pflag.NewFlagSet("dadf5 "+args[0], pflag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.BoolP("verbose", "v", false, "log debug messages")
	quiet := fs.BoolP("quiet", "q", false, "log warnings and errors only")
	exec := cmd.setup(fs, e)
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return &usageError{err}
	}
	level := slog.LevelInfo
	switch {
	case *verbose && *quiet:
		return usagef("--verbose and --quiet are exclusive")
	case *verbose:
		level = slog.LevelDebug
	case *quiet:
		level = slog.LevelWarn
	}
	e.log = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	return exec(fs.Args())
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintf(w, "Usage: dadf5 <command> [flags] FILE\n\nCommands:\n")
	for _, n := range names {
		fmt.Fprintf(w, "  %-11s %s\n", n, commands[n].summary)
	}
	fmt.Fprintf(w, "\nRun 'dadf5 <command> --help' for the flags of a command.\n")
}

// selection holds the visibility flags.
type selection struct {
	inc, con, mat, conPhysics, matPhysics []string
	timeRange, incRange                   string
}

func (s *selection) addFlags(fs *pflag.FlagSet) {
	fs.StringSliceVar(&s.inc, "inc", nil, "visible increments (shell patterns)")
	fs.StringSliceVar(&s.con, "con", nil, "visible constituents (shell patterns)")
	fs.StringSliceVar(&s.mat, "mat", nil, "visible material points (shell patterns)")
	fs.StringSliceVar(&s.conPhysics, "con-physics", nil, "visible constituent physics groups")
	fs.StringSliceVar(&s.matPhysics, "mat-physics", nil, "visible material point physics groups")
	fs.StringVar(&s.timeRange, "time-range", "", "only increments with times in `a,b`")
	fs.StringVar(&s.incRange, "inc-range", "", "only increments numbered `a,b`")
}

func splitPair(s string) (string, string, error) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return "", "", fmt.Errorf("%q is not a pair a,b", s)
	}
	return strings.TrimSpace(a), strings.TrimSpace(b), nil
}

// config turns the flags into a job selection.
func (s *selection) config() (config.Selection, error) {
	c := config.Selection{
		Increments:     s.inc,
		Constituents:   s.con,
		Materialpoints: s.mat,
		ConPhysics:     s.conPhysics,
		MatPhysics:     s.matPhysics,
	}
	if s.timeRange != "" {
		a, b, err := splitPair(s.timeRange)
		if err != nil {
			return c, usagef("--time-range: %v", err)
		}
		start, err1 := strconv.ParseFloat(a, 64)
		end, err2 := strconv.ParseFloat(b, 64)
		if err := errors.Join(err1, err2); err != nil {
			return c, usagef("--time-range: %v", err)
		}
		c.Times = &config.Range{Start: start, End: end}
	}
	if s.incRange != "" {
		a, b, err := splitPair(s.incRange)
		if err != nil {
			return c, usagef("--inc-range: %v", err)
		}
		start, err1 := strconv.Atoi(a)
		end, err2 := strconv.Atoi(b)
		if err := errors.Join(err1, err2); err != nil {
			return c, usagef("--inc-range: %v", err)
		}
		c.IncrementRange = &config.IntRange{Start: start, End: end}
	}
	return c, nil
}

// open opens the single container named in args and applies the
// visibility flags.
func (e *env) open(args []string) (*dadf5.Result, error) {
	if len(args) != 1 {
		return nil, usagef("expected one container file, got %d arguments", len(args))
	}
	sel, err := e.sel.config()
	if err != nil {
		return nil, err
	}
	r, err := dadf5.Open(args[0], dadf5.WithLogger(e.log), dadf5.WithWorkers(e.workers))
	if err != nil {
		return nil, err
	}
	if err := sel.Apply(r); err != nil {
		return nil, usagef("%v", err)
	}
	return r, nil
}

// containerFlags adds the visibility and worker flags.
func (e *env) containerFlags(fs *pflag.FlagSet) {
	e.sel.addFlags(fs)
	fs.IntVarP(&e.workers, "workers", "j", 1, "number of concurrent workers")
}
