// Package models defines the task graph and ownership plan entities shared
// across flowplan components.
package models

// SchemaVersion is the workflow schema version tag emitted on new workflows.
const SchemaVersion = "0.1"

// Edge is a directed dependency edge from one task to the task that depends
// on it.
type Edge struct {
	// From is the ID of the prerequisite task.
	From string `json:"from"`
	// To is the ID of the dependent task.
	To string `json:"to"`
}

// Workflow is a directed acyclic graph of tasks.
type Workflow struct {
	// Title is a short name for the workflow.
	Title string `json:"title,omitempty"`
	// Tasks is the ordered task list. IDs must be unique.
	Tasks []Task `json:"tasks"`
	// Edges is an explicit edge list redundant with DependsOn.
	// It is derived from DependsOn during validation.
	Edges []Edge `json:"edges,omitempty"`
	// Assumptions lists free-text notes the decomposer made explicit.
	Assumptions []string `json:"assumptions,omitempty"`
	// Version is the schema version tag.
	Version string `json:"version,omitempty"`
}

// TaskIDs returns the IDs of all tasks in order.
func (w Workflow) TaskIDs() []string {
	ids := make([]string, len(w.Tasks))
	for i, t := range w.Tasks {
		ids[i] = t.ID
	}
	return ids
}

// FindTask returns the task with the given ID, or nil if absent.
func (w Workflow) FindTask(id string) *Task {
	for i := range w.Tasks {
		if w.Tasks[i].ID == id {
			return &w.Tasks[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the workflow. Validation repairs operate on a
// clone so callers keep their original candidate untouched.
func (w Workflow) Clone() Workflow {
	c := w
	c.Tasks = make([]Task, len(w.Tasks))
	for i, t := range w.Tasks {
		c.Tasks[i] = t.Clone()
	}
	c.Edges = append([]Edge(nil), w.Edges...)
	c.Assumptions = append([]string(nil), w.Assumptions...)
	return c
}
