package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/orchard/pkg/domain"
)

// GraphOverlay contains run data to visualize on the graph.
type GraphOverlay struct {
	// History lists executed actions as "State.Action", as found in a RunRecord.
	History []string
}

// visitedStates returns the states named by the overlay history, in first-visit order.
func (o *GraphOverlay) visitedStates() []string {
	seen := make(map[string]bool)
	var out []string
	for _, entry := range o.History {
		state, _, ok := strings.Cut(entry, ".")
		if !ok || seen[state] {
			continue
		}
		seen[state] = true
		out = append(out, state)
	}
	return out
}

// GenerateMermaid produces a Mermaid flowchart of a state model.
// It applies semantic styling:
// - Initial state: ((Circle))
// - State that calls out (call action): [[Subroutine]]
// - State that reads from the target (input action): [/Parallelogram/]
// - Default: [Rectangle]
// Change-state actions become edges, labelled with their guard when they have one.
// The last state of the overlay history is styled as current.
func GenerateMermaid(sm *domain.StateModel, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, state := range sm.States() {
		safeID := sanitizeMermaidID(state.Name)

		opener, closer := "[", "]"
		switch {
		case state.Name == sm.Initial:
			opener, closer = "((", "))"
		case hasKind(state, domain.KindCall):
			opener, closer = "[[", "]]"
		case hasKind(state, domain.KindInput):
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, state.Name, closer)

		for _, a := range state.Actions() {
			if a.Kind != domain.KindChangeState {
				continue
			}
			arrow := "-->"
			if a.When != "" {
				arrow = fmt.Sprintf("-- \"%s\" -->", strings.ReplaceAll(a.When, "\"", "'"))
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, sanitizeMermaidID(a.Ref))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := overlay.visitedStates()
		for _, name := range visited {
			fmt.Fprintf(&sb, "    class %s visited;\n", sanitizeMermaidID(name))
		}
		if n := len(overlay.History); n > 0 {
			if current, _, ok := strings.Cut(overlay.History[n-1], "."); ok {
				fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(current))
			}
		}
	}

	return sb.String()
}

func hasKind(s *domain.State, kind domain.ActionKind) bool {
	for _, a := range s.Actions() {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
