package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Orchard banner followed by version.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	// A green to amber gradient, leaves to fruit.
	lines := []struct{ text, color string }{
		{"   ___          _                _ ", "#4ade80"},
		{"  / _ \\ _ __ __| |__   __ _ _ __| |", "#a3e635"},
		{" | | | | '__/ _| '_ \\ / _` | '__/ _` |", "#facc15"},
		{" | |_| | | | (_| | | | (_| | | | (_| |", "#fbbf24"},
		{"  \\___/|_|  \\__|_| |_|\\__,_|_|  \\__,_|", "#f59e0b"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
