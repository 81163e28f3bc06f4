package models

// OwnerType identifies the kind of owner a task is assigned to.
type OwnerType string

const (
	// OwnerTypeAgent indicates a synthesized software agent.
	OwnerTypeAgent OwnerType = "agent"
	// OwnerTypeHuman indicates a synthesized human role.
	OwnerTypeHuman OwnerType = "human"
)

// Valid returns true if the owner type is a known value.
func (o OwnerType) Valid() bool {
	switch o {
	case OwnerTypeAgent, OwnerTypeHuman:
		return true
	default:
		return false
	}
}

// AgentSpec describes a synthesized non-human owner covering one or more
// tasks with a shared capability.
type AgentSpec struct {
	// ID is a short sequential code (A1, A2, ...).
	ID string `json:"id"`
	// Name is the display name of the agent.
	Name string `json:"name"`
	// Description summarizes what the agent handles.
	Description string `json:"description,omitempty"`
	// Skills lists inferred capability tags across member tasks.
	Skills []string `json:"skills,omitempty"`
	// Tools lists the tool names the agent can invoke.
	Tools []string `json:"tools,omitempty"`
}

// HumanSpec describes a synthesized human role.
type HumanSpec struct {
	// ID is a short sequential code (H1, H2, ...).
	ID string `json:"id"`
	// Name is the display name of the role.
	Name string `json:"name"`
	// Description summarizes the role's involvement.
	Description string `json:"description,omitempty"`
}

// AssignedTask links one task to exactly one owner.
type AssignedTask struct {
	// TaskID is the ID of the assigned task.
	TaskID string `json:"task_id"`
	// OwnerType is agent or human.
	OwnerType OwnerType `json:"owner_type"`
	// OwnerID references an AgentSpec or HumanSpec ID.
	OwnerID string `json:"owner_id"`
	// Instructions restates the task in imperative form for the owner.
	Instructions string `json:"instructions"`
	// Inputs is copied from the task.
	Inputs []string `json:"inputs,omitempty"`
	// Outputs is copied from the task.
	Outputs []string `json:"outputs,omitempty"`
}
