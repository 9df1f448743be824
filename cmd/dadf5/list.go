package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	dadf5 "github.com/rmera/godadf5"
)

var (
	incStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	groupStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	physicsStyle = lipgloss.NewStyle().Faint(true)
)

func setupList(fs *pflag.FlagSet, e *env) func([]string) error {
	e.containerFlags(fs)
	return func(args []string) error {
		r, err := e.open(args)
		if err != nil {
			return err
		}
		s, err := r.ListData()
		if err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, summary(r))
		fmt.Fprint(e.stdout, render(s))
		return nil
	}
}

func summary(r *dadf5.Result) string {
	geometry := "unstructured mesh"
	if r.Structured {
		geometry = fmt.Sprintf("grid %v, size %v, origin %v", r.Grid, r.Size, r.Origin)
	}
	return fmt.Sprintf("%s: layout %d.%d, %s, %d material points x %d constituents, %d increments",
		r.FileName(), r.VersionMajor, r.VersionMinor, geometry, r.NMaterialpoints, r.NConstituents, len(r.Increments))
}

// render styles the levels of a listing by their indentation.
func render(listing string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(listing, "\n") {
		text := strings.TrimRight(line, "\n")
		nl := line[len(text):]
		indent := len(text) - len(strings.TrimLeft(text, " "))
		switch {
		case text == "":
		case indent == 0:
			text = incStyle.Render(text)
		case indent == 2:
			text = "  " + groupStyle.Render(text[2:])
		case indent == 4:
			text = "    " + physicsStyle.Render(text[4:])
		}
		b.WriteString(text + nl)
	}
	return b.String()
}
