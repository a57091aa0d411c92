package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"

	"github.com/aretw0/orchard/pkg/domain"
)

// statusColors maps run statuses to ANSI colors.
var statusColors = map[domain.RunStatus]string{
	domain.RunStatusCompleted: "2",
	domain.RunStatusFailed:    "1",
	domain.RunStatusCancelled: "3",
}

// Status renders a run status, colored when w is a terminal.
func Status(w io.Writer, status domain.RunStatus) string {
	out := termenv.NewOutput(w)
	s := out.String(string(status)).Bold()
	if c, ok := statusColors[status]; ok {
		s = s.Foreground(out.Color(c))
	}
	return s.String()
}

// PrintSummary writes a one-line summary of rec.
func PrintSummary(w io.Writer, rec *domain.RunRecord) {
	fmt.Fprintf(w, "run %s: %s after %d iteration(s), %d soft failure(s)\n",
		rec.ID, Status(w, rec.Status), rec.Iterations, rec.SoftFailures)
	if rec.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", rec.Error)
	}
}
