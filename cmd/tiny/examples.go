package main

import (
	"fmt"
	"io"

	"charm.land/lipgloss/v2"
	"github.com/vito/tiny/pkg/tiny"
)

var (
	exampleName     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	exampleExpr     = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
	exampleDoc      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	exampleExpected = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

func listExamples(w io.Writer) {
	width := 0
	for _, ex := range tiny.Examples {
		width = max(width, len(ex.Name))
	}

	for _, ex := range tiny.Examples {
		name := exampleName.Width(width + 2).Render(ex.Name)
		fmt.Fprintf(w, "%s%s\n", name, exampleDoc.Render(ex.Description))
		fmt.Fprintf(w, "%*s%s %s\n", width+2, "",
			exampleExpr.Render(ex.Expr.String()),
			exampleExpected.Render(fmt.Sprintf("=> %d", ex.Expected)))
	}
}
