package engine

import "github.com/pmorrow/flowplan/pkg/models"

// DecomposeRequest asks for a workflow to be derived from free text.
type DecomposeRequest struct {
	// Text is the process description. Must be non-empty after trimming.
	Text string `json:"text"`
	// Title optionally names the workflow.
	Title string `json:"title,omitempty"`
	// Granularity controls splitting; defaults to medium.
	Granularity models.Granularity `json:"granularity,omitempty"`
}

// DecomposeResponse carries a validated workflow and everything needed to
// present it.
type DecomposeResponse struct {
	// Workflow satisfies all graph invariants.
	Workflow models.Workflow `json:"workflow"`
	// Diagram is the Mermaid rendering of the workflow.
	Diagram string `json:"diagram"`
	// TopoOrder is a deterministic linearization of the task graph.
	TopoOrder []string `json:"topo_order"`
	// Issues lists every repair the validator performed.
	Issues []string `json:"issues"`
	// Engine reports which path produced the result ("heuristic" or an
	// oracle identifier).
	Engine string `json:"engine"`
	// LLMError is set when an oracle was attempted and failed.
	LLMError string `json:"llm_error,omitempty"`
	// LLMRaw is the raw oracle output, present only when an oracle was
	// attempted.
	LLMRaw string `json:"llm_raw,omitempty"`
}

// PlanRequest asks for an ownership plan over an already-validated
// workflow. The workflow is received by value; the engine never mutates the
// caller's copy.
type PlanRequest struct {
	Workflow models.Workflow `json:"workflow"`
}

// PlanResponse carries the synthesized owners and per-task assignments.
type PlanResponse struct {
	Agents      []models.AgentSpec    `json:"agents"`
	Humans      []models.HumanSpec    `json:"humans"`
	Assignments []models.AssignedTask `json:"assignments"`
	// Engine reports which path produced the plan.
	Engine string `json:"engine"`
	// LLMError is set when an oracle was attempted and failed.
	LLMError string `json:"llm_error,omitempty"`
	// LLMRaw is the raw oracle output, present only when an oracle was
	// attempted.
	LLMRaw string `json:"llm_raw,omitempty"`
}
