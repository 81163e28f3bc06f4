// Package graph validates and repairs candidate workflows against the task
// graph invariants: existing unique IDs, no self or duplicate dependencies,
// and an acyclic dependency relation.
package graph

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pmorrow/flowplan/pkg/models"
)

// ErrEmptyWorkflow indicates a candidate with zero tasks, which cannot be
// repaired into a valid workflow.
var ErrEmptyWorkflow = errors.New("workflow has no tasks")

// Validate normalizes a candidate workflow (trusted heuristic output or
// untrusted oracle output) into one satisfying every invariant. It returns
// the repaired workflow, one human-readable issue per repair performed, and
// a topological order of the repaired graph. The input is never mutated.
//
// Repairs are applied in a fixed order: blank IDs are synthesized, duplicate
// IDs dropped (first occurrence wins), self-dependencies removed, dangling
// dependencies removed, duplicate dependencies removed, and cycles cut.
func Validate(candidate models.Workflow) (models.Workflow, []string, []string, error) {
	wf := candidate.Clone()
	issues := []string{}

	synthesizeIDs(&wf, &issues)
	dropDuplicateTasks(&wf, &issues)
	repairDependencies(&wf, &issues)
	cutCycles(&wf, &issues)

	if len(wf.Tasks) == 0 {
		return models.Workflow{}, issues, nil, ErrEmptyWorkflow
	}

	if wf.Version == "" {
		wf.Version = models.SchemaVersion
	}
	rebuildEdges(&wf)
	order := topoOrder(wf.Tasks)
	return wf, issues, order, nil
}

// Check verifies the invariants without repairing. It is used by consumers
// that must fail closed on invalid input rather than guess structure.
func Check(wf models.Workflow) error {
	if len(wf.Tasks) == 0 {
		return ErrEmptyWorkflow
	}

	ids := make(map[string]bool, len(wf.Tasks))
	for _, t := range wf.Tasks {
		if t.ID == "" {
			return fmt.Errorf("task %q has a blank id", t.Title)
		}
		if ids[t.ID] {
			return fmt.Errorf("duplicate task id %s", t.ID)
		}
		ids[t.ID] = true
	}

	for _, t := range wf.Tasks {
		seen := make(map[string]bool, len(t.DependsOn))
		for _, dep := range t.DependsOn {
			if dep == t.ID {
				return fmt.Errorf("task %s depends on itself", t.ID)
			}
			if !ids[dep] {
				return fmt.Errorf("task %s depends on unknown task %s", t.ID, dep)
			}
			if seen[dep] {
				return fmt.Errorf("task %s has duplicate dependency %s", t.ID, dep)
			}
			seen[dep] = true
		}
	}

	if hasCycle(wf.Tasks) {
		return errors.New("circular dependency detected")
	}
	return nil
}

// synthesizeIDs assigns a fresh short ID to any task that arrived blank.
func synthesizeIDs(wf *models.Workflow, issues *[]string) {
	for i := range wf.Tasks {
		if wf.Tasks[i].ID == "" {
			id := "task-" + uuid.New().String()[:8]
			wf.Tasks[i].ID = id
			*issues = append(*issues, fmt.Sprintf("task %d (%q) had a blank id; assigned %s", i+1, wf.Tasks[i].Title, id))
		}
	}
}

// dropDuplicateTasks keeps the first occurrence of each task ID.
func dropDuplicateTasks(wf *models.Workflow, issues *[]string) {
	seen := make(map[string]bool, len(wf.Tasks))
	kept := wf.Tasks[:0]
	for _, t := range wf.Tasks {
		if seen[t.ID] {
			*issues = append(*issues, fmt.Sprintf("duplicate task id %s; kept first occurrence, dropped %q", t.ID, t.Title))
			continue
		}
		seen[t.ID] = true
		kept = append(kept, t)
	}
	wf.Tasks = kept
}

// repairDependencies removes self-references, references to unknown tasks,
// and repeated entries, in that order.
func repairDependencies(wf *models.Workflow, issues *[]string) {
	ids := make(map[string]bool, len(wf.Tasks))
	for _, t := range wf.Tasks {
		ids[t.ID] = true
	}

	for i := range wf.Tasks {
		t := &wf.Tasks[i]
		seen := make(map[string]bool, len(t.DependsOn))
		kept := t.DependsOn[:0]
		for _, dep := range t.DependsOn {
			switch {
			case dep == t.ID:
				*issues = append(*issues, fmt.Sprintf("task %s depended on itself; removed self-dependency", t.ID))
			case !ids[dep]:
				*issues = append(*issues, fmt.Sprintf("task %s depended on missing task %s; removed dangling dependency", t.ID, dep))
			case seen[dep]:
				*issues = append(*issues, fmt.Sprintf("task %s listed dependency %s more than once; deduplicated", t.ID, dep))
			default:
				seen[dep] = true
				kept = append(kept, dep)
			}
		}
		if len(kept) == 0 {
			t.DependsOn = nil
		} else {
			t.DependsOn = kept
		}
	}
}

// cutCycles detects cycles via depth-first traversal with three-color
// marking and breaks each one by removing the back edge that closes it.
// The cut is a repair heuristic, not a minimal feedback-arc-set solution.
func cutCycles(wf *models.Workflow, issues *[]string) {
	byID := make(map[string]*models.Task, len(wf.Tasks))
	for i := range wf.Tasks {
		byID[wf.Tasks[i].ID] = &wf.Tasks[i]
	}

	// 0 = unvisited, 1 = in progress, 2 = done.
	color := make(map[string]int, len(wf.Tasks))

	var visit func(t *models.Task)
	visit = func(t *models.Task) {
		color[t.ID] = 1
		kept := t.DependsOn[:0]
		for _, dep := range t.DependsOn {
			depTask := byID[dep]
			switch color[dep] {
			case 1:
				// Back edge: dep is an ancestor of t, so keeping this
				// dependency would close a cycle.
				*issues = append(*issues, fmt.Sprintf("cut cyclic dependency: task %s can no longer depend on %s", t.ID, dep))
				continue
			case 0:
				visit(depTask)
			}
			kept = append(kept, dep)
		}
		if len(kept) == 0 {
			t.DependsOn = nil
		} else {
			t.DependsOn = kept
		}
		color[t.ID] = 2
	}

	for i := range wf.Tasks {
		if color[wf.Tasks[i].ID] == 0 {
			visit(&wf.Tasks[i])
		}
	}
}

// hasCycle reports whether the dependency relation contains a cycle.
func hasCycle(tasks []models.Task) bool {
	deps := make(map[string][]string, len(tasks))
	for _, t := range tasks {
		deps[t.ID] = t.DependsOn
	}

	color := make(map[string]int, len(tasks))
	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = 1
		for _, dep := range deps[id] {
			switch color[dep] {
			case 1:
				return true
			case 0:
				if visit(dep) {
					return true
				}
			}
		}
		color[id] = 2
		return false
	}

	for _, t := range tasks {
		if color[t.ID] == 0 && visit(t.ID) {
			return true
		}
	}
	return false
}

// rebuildEdges derives the explicit edge list from DependsOn, ordered by
// task position and then dependency position for stable output.
func rebuildEdges(wf *models.Workflow) {
	var edges []models.Edge
	for _, t := range wf.Tasks {
		for _, dep := range t.DependsOn {
			edges = append(edges, models.Edge{From: dep, To: t.ID})
		}
	}
	wf.Edges = edges
}

// topoOrder linearizes an acyclic task set with Kahn's algorithm. Ties are
// broken by original task-sequence position, not by ID, so equivalent
// inputs always render identically.
func topoOrder(tasks []models.Task) []string {
	pos := make(map[string]int, len(tasks))
	indeg := make(map[string]int, len(tasks))
	dependents := make(map[string][]string, len(tasks))
	for i, t := range tasks {
		pos[t.ID] = i
		indeg[t.ID] = len(t.DependsOn)
		for _, dep := range t.DependsOn {
			dependents[dep] = append(dependents[dep], t.ID)
		}
	}

	// ready holds zero-indegree task IDs; the earliest original position is
	// always dequeued first.
	var ready []string
	for _, t := range tasks {
		if indeg[t.ID] == 0 {
			ready = append(ready, t.ID)
		}
	}

	order := make([]string, 0, len(tasks))
	for len(ready) > 0 {
		best := 0
		for i := 1; i < len(ready); i++ {
			if pos[ready[i]] < pos[ready[best]] {
				best = i
			}
		}
		id := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		order = append(order, id)

		for _, dependent := range dependents[id] {
			indeg[dependent]--
			if indeg[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}
	return order
}
