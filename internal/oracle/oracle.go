package oracle

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pmorrow/flowplan/internal/plan"
	"github.com/pmorrow/flowplan/pkg/models"
)

// Oracle proposes candidate workflows and ownership plans from an external
// model. Implementations return the raw model output alongside the parsed
// result so callers can surface it for debugging; any error means the
// proposal is unusable and the heuristic path should take over.
type Oracle interface {
	// Name identifies the engine in responses (e.g. "anthropic").
	Name() string
	// ProposeWorkflow returns a candidate workflow for the given text.
	ProposeWorkflow(ctx context.Context, text, title string, granularity models.Granularity) (*models.Workflow, string, error)
	// ProposePlan returns a candidate ownership plan for a validated workflow.
	ProposePlan(ctx context.Context, wf models.Workflow) (*plan.Result, string, error)
}

// Anthropic is the Claude-backed Oracle implementation.
type Anthropic struct {
	client *Client
}

// New creates an Anthropic oracle from an existing client.
func New(client *Client) *Anthropic {
	return &Anthropic{client: client}
}

// Name implements Oracle.
func (a *Anthropic) Name() string {
	return "anthropic"
}

// ProposeWorkflow implements Oracle.
func (a *Anthropic) ProposeWorkflow(ctx context.Context, text, title string, granularity models.Granularity) (*models.Workflow, string, error) {
	user := fmt.Sprintf("Process: %s\nGranularity: %s\nTitle: %s", text, granularity, title)
	raw, err := a.client.complete(ctx, workflowSystemPrompt, user)
	if err != nil {
		return nil, "", err
	}

	wf, err := ParseWorkflow(raw)
	if err != nil {
		return nil, raw, fmt.Errorf("parse workflow proposal: %w", err)
	}
	if title != "" {
		wf.Title = title
	}
	return wf, raw, nil
}

// ProposePlan implements Oracle.
func (a *Anthropic) ProposePlan(ctx context.Context, wf models.Workflow) (*plan.Result, string, error) {
	tasksJSON, err := json.Marshal(wf.Tasks)
	if err != nil {
		return nil, "", fmt.Errorf("marshal tasks: %w", err)
	}

	user := fmt.Sprintf("Workflow tasks (JSON):\n%s", tasksJSON)
	raw, err := a.client.complete(ctx, planSystemPrompt, user)
	if err != nil {
		return nil, "", err
	}

	p, err := ParsePlan(raw)
	if err != nil {
		return nil, raw, fmt.Errorf("parse plan proposal: %w", err)
	}
	return p, raw, nil
}
