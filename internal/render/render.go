// Package render produces styled terminal output for workflows and
// ownership plans. It is a plain string renderer, not an interactive
// view: commands call it once and print the result.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pmorrow/flowplan/pkg/models"
)

const (
	iconAgent    = "[A]"
	iconHuman    = "[H]"
	iconApproval = "[!]"

	maxTitleLen = 48
)

// Renderer renders workflows and plans as styled text.
type Renderer struct {
	headerStyle   lipgloss.Style
	nodeStyle     lipgloss.Style
	arrowStyle    lipgloss.Style
	agentStyle    lipgloss.Style
	humanStyle    lipgloss.Style
	approvalStyle lipgloss.Style
	issueStyle    lipgloss.Style
}

// New creates a Renderer with the default styles.
func New() *Renderer {
	return &Renderer{
		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("7")),

		nodeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		arrowStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		agentStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")), // Blue

		humanStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("178")), // Amber

		approvalStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("168")). // Pink
			Bold(true),

		issueStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("178")),
	}
}

// Workflow renders the task list as an indented dependency tree. Tasks
// appear in the given execution order; each task is indented one level
// deeper than its deepest dependency.
func (r *Renderer) Workflow(wf models.Workflow, order []string) string {
	var b strings.Builder

	title := wf.Title
	if title == "" {
		title = "Workflow"
	}
	b.WriteString(r.headerStyle.Render(fmt.Sprintf("%s (%d tasks)", title, len(wf.Tasks))))
	b.WriteString("\n")

	depths := taskDepths(wf, order)

	for _, id := range order {
		task := wf.FindTask(id)
		if task == nil {
			continue
		}

		indent := strings.Repeat("  ", depths[id])
		prefix := ""
		if depths[id] > 0 {
			prefix = r.arrowStyle.Render("|-- ")
		}

		line := fmt.Sprintf("%s%s%s %s %s", indent, prefix, r.actorIcon(*task),
			r.arrowStyle.Render(task.ID), r.nodeStyle.Render(truncate(task.Title, maxTitleLen)))

		if len(task.DependsOn) > 0 {
			line += " " + r.arrowStyle.Render("<-- "+strings.Join(task.DependsOn, ", "))
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(wf.Assumptions) > 0 {
		b.WriteString(r.headerStyle.Render("Assumptions"))
		b.WriteString("\n")
		for _, a := range wf.Assumptions {
			b.WriteString(r.arrowStyle.Render("  - " + a))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// Plan renders an ownership plan grouped by owner.
func (r *Renderer) Plan(agents []models.AgentSpec, humans []models.HumanSpec, assignments []models.AssignedTask) string {
	var b strings.Builder

	byOwner := make(map[string][]models.AssignedTask)
	for _, a := range assignments {
		byOwner[a.OwnerID] = append(byOwner[a.OwnerID], a)
	}

	b.WriteString(r.headerStyle.Render(fmt.Sprintf("Agents (%d)", len(agents))))
	b.WriteString("\n")
	for _, agent := range agents {
		header := fmt.Sprintf("%s %s %s", r.agentStyle.Render(iconAgent), r.arrowStyle.Render(agent.ID), r.nodeStyle.Render(agent.Name))
		if len(agent.Tools) > 0 {
			header += " " + r.arrowStyle.Render("(tools: "+strings.Join(agent.Tools, ", ")+")")
		}
		b.WriteString("  " + header + "\n")
		r.writeAssignments(&b, byOwner[agent.ID])
	}

	b.WriteString(r.headerStyle.Render(fmt.Sprintf("Humans (%d)", len(humans))))
	b.WriteString("\n")
	for _, human := range humans {
		header := fmt.Sprintf("%s %s %s", r.humanStyle.Render(iconHuman), r.arrowStyle.Render(human.ID), r.nodeStyle.Render(human.Name))
		b.WriteString("  " + header + "\n")
		r.writeAssignments(&b, byOwner[human.ID])
	}

	return b.String()
}

// Issues renders repair notes from validation.
func (r *Renderer) Issues(issues []string) string {
	if len(issues) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(r.headerStyle.Render(fmt.Sprintf("Repairs (%d)", len(issues))))
	b.WriteString("\n")
	for _, issue := range issues {
		b.WriteString(r.issueStyle.Render("  ! " + issue))
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Renderer) writeAssignments(b *strings.Builder, assignments []models.AssignedTask) {
	for _, a := range assignments {
		b.WriteString("    ")
		b.WriteString(r.arrowStyle.Render("|-- "))
		b.WriteString(r.arrowStyle.Render(a.TaskID))
		b.WriteString(" ")
		b.WriteString(r.nodeStyle.Render(truncate(a.Instructions, maxTitleLen)))
		b.WriteString("\n")
	}
}

func (r *Renderer) actorIcon(task models.Task) string {
	if task.Approval {
		return r.approvalStyle.Render(iconApproval)
	}
	if task.Actor == models.ActorHuman {
		return r.humanStyle.Render(iconHuman)
	}
	return r.agentStyle.Render(iconAgent)
}

// taskDepths computes each task's indent level: one deeper than its
// deepest dependency. The order must list dependencies before dependents.
func taskDepths(wf models.Workflow, order []string) map[string]int {
	depths := make(map[string]int, len(order))
	for _, id := range order {
		task := wf.FindTask(id)
		if task == nil {
			continue
		}
		depth := 0
		for _, dep := range task.DependsOn {
			if d, ok := depths[dep]; ok && d+1 > depth {
				depth = d + 1
			}
		}
		depths[id] = depth
	}
	return depths
}

// truncate shortens a string to fit in a column, never cutting a rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
