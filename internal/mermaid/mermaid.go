// Package mermaid compiles validated workflows into Mermaid flowchart
// descriptions. Compilation is a pure function: identical workflows always
// produce byte-identical output.
package mermaid

import (
	"fmt"
	"strings"

	"github.com/pmorrow/flowplan/pkg/models"
)

// DefaultDirection is the flowchart layout direction used by Compile.
const DefaultDirection = "TD"

// maxLabelLen bounds node labels; longer titles get an explicit ellipsis.
const maxLabelLen = 48

// Compile renders the workflow top-down.
func Compile(wf models.Workflow) string {
	return CompileDirection(wf, DefaultDirection)
}

// CompileDirection renders the workflow with an explicit layout direction
// (TD, LR, ...). Each task becomes one node shaped by its actor, with
// approval gates overriding the actor shape. Each dependency becomes one
// directed edge from prerequisite to dependent, labeled with the dependent's
// tool when it has one.
func CompileDirection(wf models.Workflow, direction string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "graph %s\n", direction)

	for _, t := range wf.Tasks {
		fmt.Fprintf(&b, "  %s\n", node(t))
	}

	seen := make(map[models.Edge]bool)
	for _, t := range wf.Tasks {
		for _, dep := range t.DependsOn {
			e := models.Edge{From: dep, To: t.ID}
			if seen[e] {
				continue
			}
			seen[e] = true
			if t.Tool != "" {
				fmt.Fprintf(&b, "  %s -->|%s| %s\n", dep, escape(t.Tool), t.ID)
			} else {
				fmt.Fprintf(&b, "  %s --> %s\n", dep, t.ID)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// node renders a single task. Approval gates are hexagons regardless of
// actor; humans are stadiums, agents rectangles.
func node(t models.Task) string {
	label := escape(truncate(t.Title))
	switch {
	case t.Approval:
		return fmt.Sprintf("%s{{\"%s\"}}", t.ID, label)
	case t.Actor == models.ActorHuman:
		return fmt.Sprintf("%s([\"%s\"])", t.ID, label)
	default:
		return fmt.Sprintf("%s[\"%s\"]", t.ID, label)
	}
}

// escape substitutes characters that are structurally significant in
// Mermaid syntax. Substitution, never deletion, keeps titles recognizable.
func escape(s string) string {
	return strings.NewReplacer(
		`"`, "'",
		"[", "(",
		"]", ")",
		"{", "(",
		"}", ")",
		"|", "/",
	).Replace(s)
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxLabelLen {
		return s
	}
	return string(runes[:maxLabelLen]) + "..."
}
