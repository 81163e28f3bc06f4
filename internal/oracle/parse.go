package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pmorrow/flowplan/internal/plan"
	"github.com/pmorrow/flowplan/pkg/models"
)

// candidateTask tolerates the field variations models actually emit
// ("name" instead of "title", missing actor, and so on).
type candidateTask struct {
	ID                 string            `json:"id"`
	Title              string            `json:"title"`
	Name               string            `json:"name"`
	Actor              string            `json:"actor"`
	DependsOn          []string          `json:"depends_on"`
	Inputs             []string          `json:"inputs"`
	Outputs            []string          `json:"outputs"`
	Tool               string            `json:"tool"`
	Parameters         map[string]string `json:"parameters"`
	Approval           bool              `json:"approval"`
	AcceptanceCriteria []string          `json:"acceptance_criteria"`
	Parallelizable     bool              `json:"parallelizable"`
}

type candidateWorkflow struct {
	Title       string          `json:"title"`
	Version     string          `json:"version"`
	Assumptions []string        `json:"assumptions"`
	Tasks       []candidateTask `json:"tasks"`
}

// ParseWorkflow parses a model response into a candidate workflow. The
// result still requires full validation; only shape errors are caught here.
func ParseWorkflow(response string) (*models.Workflow, error) {
	jsonStr, err := extractJSON(response)
	if err != nil {
		return nil, err
	}

	var cand candidateWorkflow
	if err := json.Unmarshal([]byte(jsonStr), &cand); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	if len(cand.Tasks) == 0 {
		return nil, fmt.Errorf("empty task list returned")
	}

	wf := &models.Workflow{
		Title:       cand.Title,
		Assumptions: cand.Assumptions,
		Version:     cand.Version,
	}
	if wf.Version == "" {
		wf.Version = models.SchemaVersion
	}
	for _, ct := range cand.Tasks {
		title := ct.Title
		if title == "" {
			title = ct.Name
		}
		actor := models.Actor(strings.ToLower(ct.Actor))
		if !actor.Valid() {
			actor = models.ActorAgent
		}
		wf.Tasks = append(wf.Tasks, models.Task{
			ID:                 ct.ID,
			Title:              title,
			Actor:              actor,
			DependsOn:          ct.DependsOn,
			Inputs:             ct.Inputs,
			Outputs:            ct.Outputs,
			Tool:               ct.Tool,
			Parameters:         ct.Parameters,
			Approval:           ct.Approval,
			AcceptanceCriteria: ct.AcceptanceCriteria,
			Parallelizable:     ct.Parallelizable,
		})
	}
	return wf, nil
}

type candidatePlan struct {
	Agents      []models.AgentSpec    `json:"agents"`
	Humans      []models.HumanSpec    `json:"humans"`
	Assignments []candidateAssignment `json:"assignments"`
}

type candidateAssignment struct {
	TaskID       string   `json:"task_id"`
	OwnerType    string   `json:"owner_type"`
	OwnerID      string   `json:"owner_id"`
	Instructions string   `json:"instructions"`
	Inputs       []string `json:"inputs"`
	Outputs      []string `json:"outputs"`
}

// ParsePlan parses a model response into a candidate ownership plan. The
// caller must still verify coverage against the workflow.
func ParsePlan(response string) (*plan.Result, error) {
	jsonStr, err := extractJSON(response)
	if err != nil {
		return nil, err
	}

	var cand candidatePlan
	if err := json.Unmarshal([]byte(jsonStr), &cand); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	if len(cand.Assignments) == 0 {
		return nil, fmt.Errorf("empty assignment list returned")
	}

	res := &plan.Result{
		Agents: cand.Agents,
		Humans: cand.Humans,
	}
	for _, ca := range cand.Assignments {
		res.Assignments = append(res.Assignments, models.AssignedTask{
			TaskID:       ca.TaskID,
			OwnerType:    models.OwnerType(strings.ToLower(ca.OwnerType)),
			OwnerID:      ca.OwnerID,
			Instructions: ca.Instructions,
			Inputs:       ca.Inputs,
			Outputs:      ca.Outputs,
		})
	}
	return res, nil
}

// extractJSON pulls the outermost JSON object out of a response that may
// carry prose or code fences around it.
func extractJSON(response string) (string, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		preview := response
		if len(preview) > 500 {
			preview = preview[:500] + "... (truncated)"
		}
		return "", fmt.Errorf("no valid JSON object found in response (got %d chars): %q", len(response), preview)
	}
	return response[start : end+1], nil
}
