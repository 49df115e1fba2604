package main

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/askiada/go-curate/pkg/curate"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// renderUntrustedBanner boxes the provenance warning on terminals and leaves
// it as plain text everywhere else.
func renderUntrustedBanner(colorize bool) string {
	if !colorize {
		return curate.UntrustedBanner
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#FF6B6B")).
		Padding(0, 1).
		Render(curate.UntrustedBanner)
}
