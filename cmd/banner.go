package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// printBanner writes the startup banner. It is the only terminal output
// during normal operation; structured logs go to the log file.
func printBanner(w io.Writer, version, serverURL, logFile string) {
	r := lipgloss.NewRenderer(w)
	if termenv.EnvNoColor() {
		r.SetColorProfile(termenv.Ascii)
	}

	title := r.NewStyle().
		Foreground(lipgloss.Color("#4ade80")).
		Bold(true).
		Render("P U L S E   K R O N O S")

	label := r.NewStyle().Foreground(lipgloss.Color("245"))
	value := r.NewStyle().Foreground(lipgloss.Color("#D4A017"))

	fmt.Fprintf(w, "\n  %s  %s\n\n", title, label.Render(version))
	fmt.Fprintf(w, "  %s %s\n", label.Render("listening"), value.Render(serverURL))
	fmt.Fprintf(w, "  %s      %s\n\n", label.Render("logs"), value.Render(logFile))
}
