package models

// Actor identifies the default kind of owner expected to execute a task.
// It is advisory only; the ownership planner may override it.
type Actor string

const (
	// ActorAgent indicates the task is expected to run as a software agent.
	ActorAgent Actor = "agent"
	// ActorHuman indicates the task is expected to be performed by a person.
	ActorHuman Actor = "human"
)

// Valid returns true if the actor is a known value.
func (a Actor) Valid() bool {
	switch a {
	case ActorAgent, ActorHuman:
		return true
	default:
		return false
	}
}

// Granularity controls how finely prose is split into tasks.
type Granularity string

const (
	// GranularityLow merges adjacent clauses into coarser steps.
	GranularityLow Granularity = "low"
	// GranularityMedium is the default splitting level.
	GranularityMedium Granularity = "medium"
	// GranularityHigh additionally splits on secondary connectives.
	GranularityHigh Granularity = "high"
)

// Valid returns true if the granularity is a known value.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityLow, GranularityMedium, GranularityHigh:
		return true
	default:
		return false
	}
}

// Task represents an atomic unit of work in a workflow.
type Task struct {
	// ID is the unique identifier for this task, stable within a workflow.
	ID string `json:"id"`
	// Title is the short human-readable label.
	Title string `json:"title"`
	// Actor is the default execution bias (agent or human).
	Actor Actor `json:"actor"`
	// DependsOn lists task IDs that must complete before this task.
	DependsOn []string `json:"depends_on,omitempty"`
	// Inputs names the data items this task consumes.
	Inputs []string `json:"inputs,omitempty"`
	// Outputs names the data items this task produces.
	Outputs []string `json:"outputs,omitempty"`
	// Tool names an external capability the task invokes, if any.
	Tool string `json:"tool,omitempty"`
	// Parameters configures the tool invocation.
	Parameters map[string]string `json:"parameters,omitempty"`
	// Approval marks the task as a human sign-off gate.
	Approval bool `json:"approval,omitempty"`
	// AcceptanceCriteria lists conditions for task completion.
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty"`
	// Parallelizable is true if the task may run concurrently with
	// siblings sharing the same dependency set.
	Parallelizable bool `json:"parallelizable,omitempty"`
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	c := t
	c.DependsOn = append([]string(nil), t.DependsOn...)
	c.Inputs = append([]string(nil), t.Inputs...)
	c.Outputs = append([]string(nil), t.Outputs...)
	c.AcceptanceCriteria = append([]string(nil), t.AcceptanceCriteria...)
	if t.Parameters != nil {
		c.Parameters = make(map[string]string, len(t.Parameters))
		for k, v := range t.Parameters {
			c.Parameters[k] = v
		}
	}
	return c
}
