// Package decompose converts free-text process descriptions into workflows
// without external calls. It is the deterministic fallback used when no
// oracle is configured or the oracle's output is unusable.
package decompose

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pmorrow/flowplan/pkg/models"
)

// ErrEmptyInput indicates the request text was empty or whitespace-only.
var ErrEmptyInput = errors.New("input text is empty")

const (
	maxTitleLen         = 120
	maxWorkflowTitleLen = 40
	// Medium granularity splits sentences longer than this once.
	longSentenceLen = 100
)

// approvalMarkers flag a clause as a human sign-off gate. "review" is
// deliberately absent: reviewing is agent work, signing off is not.
var approvalMarkers = []string{
	"approve", "approval", "sign off", "sign-off", "signoff",
	"authorize", "authorise",
}

// Decompose converts text into a workflow that satisfies the graph
// invariants: at least one task, unique sequential IDs, and a strictly
// linear dependency chain (task n depends on task n-1 only). Linear chains
// are trivially acyclic and need no semantic inference.
func Decompose(text, title string, granularity models.Granularity) (*models.Workflow, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyInput
	}
	if !granularity.Valid() {
		granularity = models.GranularityMedium
	}

	clauses := refineClauses(splitSentences(trimmed), granularity)
	if len(clauses) == 0 {
		// Splitting is total for non-blank input, but guard anyway.
		clauses = []string{trimmed}
	}

	tasks := make([]models.Task, 0, len(clauses))
	prevID := ""
	for i, clause := range clauses {
		id := fmt.Sprintf("T%d", i+1)
		task := models.Task{
			ID:    id,
			Title: normalizeTitle(clause),
			Actor: models.ActorAgent,
		}
		if prevID != "" {
			task.DependsOn = []string{prevID}
		}
		if hasApprovalMarker(clause) {
			task.Actor = models.ActorHuman
			task.Approval = true
		}
		inferDataItems(&task)
		tasks = append(tasks, task)
		prevID = id
	}

	wf := &models.Workflow{
		Title:   title,
		Tasks:   tasks,
		Version: models.SchemaVersion,
		Assumptions: []string{
			"Steps are assumed to run in the order they were written.",
		},
	}
	if wf.Title == "" {
		wf.Title = deriveTitle(clauses[0])
	}
	return wf, nil
}

// normalizeTitle collapses whitespace and bounds the length.
func normalizeTitle(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > maxTitleLen {
		return string(runes[:maxTitleLen])
	}
	return s
}

// deriveTitle produces a workflow title from the first clause.
func deriveTitle(clause string) string {
	s := normalizeTitle(strings.TrimRight(clause, ".!?"))
	runes := []rune(s)
	if len(runes) > maxWorkflowTitleLen {
		return string(runes[:maxWorkflowTitleLen]) + "..."
	}
	if s == "" {
		return "Workflow"
	}
	return s
}

func hasApprovalMarker(clause string) bool {
	lower := strings.ToLower(clause)
	for _, marker := range approvalMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// consumingVerbs take their object as an input; any other leading verb is
// treated as producing its object.
var consumingVerbs = map[string]bool{
	"review": true, "approve": true, "validate": true, "check": true,
	"verify": true, "test": true, "send": true, "submit": true,
	"update": true, "sign": true, "audit": true, "inspect": true,
}

var articles = map[string]bool{"the": true, "a": true, "an": true}

// inferDataItems sets inputs or outputs only when an explicit object noun
// directly follows the leading verb. Anything less certain stays empty.
func inferDataItems(task *models.Task) {
	words := strings.Fields(strings.ToLower(strings.TrimRight(task.Title, ".!?")))
	if len(words) < 2 {
		return
	}
	verb := strings.Trim(words[0], ",;:")
	obj := ""
	for _, w := range words[1:] {
		w = strings.Trim(w, ",;:.!?\"'")
		if articles[w] {
			continue
		}
		obj = w
		break
	}
	if obj == "" || !isWordAlpha(obj) {
		return
	}
	if consumingVerbs[verb] {
		task.Inputs = []string{obj}
	} else {
		task.Outputs = []string{obj}
	}
}

func isWordAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && r != '-' && r != '_' {
			return false
		}
	}
	return s != ""
}
