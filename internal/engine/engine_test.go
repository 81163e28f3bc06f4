package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pmorrow/flowplan/internal/decompose"
	"github.com/pmorrow/flowplan/internal/plan"
	"github.com/pmorrow/flowplan/pkg/models"
)

// fakeOracle implements oracle.Oracle for tests.
type fakeOracle struct {
	name    string
	wf      *models.Workflow
	wfRaw   string
	wfErr   error
	plan    *plan.Result
	planRaw string
	planErr error
	delay   time.Duration
}

func (f *fakeOracle) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeOracle) ProposeWorkflow(ctx context.Context, text, title string, granularity models.Granularity) (*models.Workflow, string, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.wf, f.wfRaw, f.wfErr
}

func (f *fakeOracle) ProposePlan(ctx context.Context, wf models.Workflow) (*plan.Result, string, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.plan, f.planRaw, f.planErr
}

func validWorkflow() models.Workflow {
	return models.Workflow{
		Title: "wf",
		Tasks: []models.Task{
			{ID: "T1", Title: "Fetch data", Actor: models.ActorAgent},
			{ID: "T2", Title: "Approve data", Actor: models.ActorHuman, Approval: true, DependsOn: []string{"T1"}},
		},
		Version: models.SchemaVersion,
	}
}

func TestDecompose_HeuristicPath(t *testing.T) {
	e := New(Options{})
	resp, err := e.Decompose(context.Background(), DecomposeRequest{
		Text:        "Draft contract. Review contract. Approve contract.",
		Granularity: models.GranularityMedium,
	})
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}

	if resp.Engine != HeuristicEngine {
		t.Errorf("Engine = %q, want heuristic", resp.Engine)
	}
	if resp.LLMError != "" || resp.LLMRaw != "" {
		t.Error("llm fields should be empty when no oracle is configured")
	}
	if len(resp.Workflow.Tasks) != 3 {
		t.Errorf("expected 3 tasks, got %d", len(resp.Workflow.Tasks))
	}
	if len(resp.TopoOrder) != 3 || resp.TopoOrder[0] != "T1" || resp.TopoOrder[2] != "T3" {
		t.Errorf("topo order = %v, want [T1 T2 T3]", resp.TopoOrder)
	}
	if !strings.HasPrefix(resp.Diagram, "graph TD") {
		t.Errorf("diagram missing header:\n%s", resp.Diagram)
	}
	if len(resp.Issues) != 0 {
		t.Errorf("heuristic output should need no repairs, got %v", resp.Issues)
	}
}

func TestDecompose_EmptyInputRejected(t *testing.T) {
	e := New(Options{})
	_, err := e.Decompose(context.Background(), DecomposeRequest{Text: "   \n "})
	if !errors.Is(err, decompose.ErrEmptyInput) {
		t.Errorf("error = %v, want ErrEmptyInput", err)
	}
}

func TestDecompose_OracleSuccessIsValidated(t *testing.T) {
	// Oracle proposes a workflow with a self-dependency; the validator must
	// repair it and record the repair.
	e := New(Options{Oracle: &fakeOracle{
		wf: &models.Workflow{
			Title: "proposed",
			Tasks: []models.Task{
				{ID: "T1", Title: "step one", Actor: models.ActorAgent, DependsOn: []string{"T1"}},
				{ID: "T2", Title: "step two", Actor: models.ActorAgent, DependsOn: []string{"T1"}},
			},
		},
		wfRaw: `{"title": "proposed"}`,
	}})

	resp, err := e.Decompose(context.Background(), DecomposeRequest{Text: "whatever"})
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}
	if resp.Engine != "fake" {
		t.Errorf("Engine = %q, want fake", resp.Engine)
	}
	if resp.LLMRaw == "" {
		t.Error("LLMRaw should carry the raw oracle output")
	}
	if len(resp.Issues) != 1 || !strings.Contains(resp.Issues[0], "T1") {
		t.Errorf("expected self-dependency repair issue, got %v", resp.Issues)
	}
	if len(resp.Workflow.Tasks[0].DependsOn) != 0 {
		t.Error("self-dependency survived validation")
	}
}

func TestDecompose_OracleFailureFallsBack(t *testing.T) {
	e := New(Options{Oracle: &fakeOracle{wfErr: errors.New("model unavailable")}})

	resp, err := e.Decompose(context.Background(), DecomposeRequest{Text: "Draft plan. Execute plan."})
	if err != nil {
		t.Fatalf("Decompose should degrade gracefully, got %v", err)
	}
	if resp.Engine != HeuristicEngine {
		t.Errorf("Engine = %q, want heuristic fallback", resp.Engine)
	}
	if !strings.Contains(resp.LLMError, "model unavailable") {
		t.Errorf("LLMError = %q, should surface the oracle failure", resp.LLMError)
	}
	if len(resp.Workflow.Tasks) != 2 {
		t.Errorf("fallback should still decompose, got %d tasks", len(resp.Workflow.Tasks))
	}
}

func TestDecompose_OracleTimeoutFallsBack(t *testing.T) {
	e := New(Options{
		Oracle:        &fakeOracle{delay: time.Second},
		OracleTimeout: 10 * time.Millisecond,
	})

	start := time.Now()
	resp, err := e.Decompose(context.Background(), DecomposeRequest{Text: "Do something."})
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("oracle timeout not enforced, took %v", elapsed)
	}
	if resp.Engine != HeuristicEngine {
		t.Errorf("Engine = %q, want heuristic after timeout", resp.Engine)
	}
	if resp.LLMError == "" {
		t.Error("timeout should surface as llm_error")
	}
}

func TestDecompose_OracleEmptyWorkflowFallsBack(t *testing.T) {
	e := New(Options{Oracle: &fakeOracle{wf: &models.Workflow{Title: "hollow"}}})

	resp, err := e.Decompose(context.Background(), DecomposeRequest{Text: "Do the work."})
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}
	if resp.Engine != HeuristicEngine {
		t.Errorf("Engine = %q, want heuristic after unrecoverable oracle output", resp.Engine)
	}
	if resp.LLMError == "" {
		t.Error("unrecoverable oracle workflow should surface as llm_error")
	}
	if len(resp.Workflow.Tasks) == 0 {
		t.Error("fallback must still produce tasks")
	}
}

func TestPlan_HeuristicPath(t *testing.T) {
	e := New(Options{})
	resp, err := e.Plan(context.Background(), PlanRequest{Workflow: validWorkflow()})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if resp.Engine != HeuristicEngine {
		t.Errorf("Engine = %q, want heuristic", resp.Engine)
	}
	if len(resp.Assignments) != 2 {
		t.Errorf("expected 2 assignments, got %d", len(resp.Assignments))
	}
	if len(resp.Agents) != 1 || len(resp.Humans) != 1 {
		t.Errorf("expected 1 agent and 1 human, got %d/%d", len(resp.Agents), len(resp.Humans))
	}
}

func TestPlan_FailsClosedOnInvalidWorkflow(t *testing.T) {
	e := New(Options{Oracle: &fakeOracle{}})
	bad := models.Workflow{Tasks: []models.Task{
		{ID: "A", DependsOn: []string{"B"}},
		{ID: "B", DependsOn: []string{"A"}},
	}}

	_, err := e.Plan(context.Background(), PlanRequest{Workflow: bad})
	if !errors.Is(err, plan.ErrInvalidWorkflow) {
		t.Errorf("error = %v, want ErrInvalidWorkflow", err)
	}
}

func TestPlan_OracleProposalUsedWhenValid(t *testing.T) {
	wf := validWorkflow()
	proposed := &plan.Result{
		Agents: []models.AgentSpec{{ID: "A1", Name: "Fetcher"}},
		Humans: []models.HumanSpec{{ID: "H1", Name: "Approver"}},
		Assignments: []models.AssignedTask{
			{TaskID: "T1", OwnerType: models.OwnerTypeAgent, OwnerID: "A1", Instructions: "Fetch."},
			{TaskID: "T2", OwnerType: models.OwnerTypeHuman, OwnerID: "H1", Instructions: "Approve."},
		},
	}
	e := New(Options{Oracle: &fakeOracle{plan: proposed, planRaw: "{}"}})

	resp, err := e.Plan(context.Background(), PlanRequest{Workflow: wf})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if resp.Engine != "fake" {
		t.Errorf("Engine = %q, want fake", resp.Engine)
	}
	if resp.Agents[0].Name != "Fetcher" {
		t.Errorf("oracle plan not used: %+v", resp.Agents)
	}
}

func TestPlan_OracleBadCoverageFallsBack(t *testing.T) {
	wf := validWorkflow()
	// T2 is missing from the proposal.
	proposed := &plan.Result{
		Agents: []models.AgentSpec{{ID: "A1", Name: "Fetcher"}},
		Assignments: []models.AssignedTask{
			{TaskID: "T1", OwnerType: models.OwnerTypeAgent, OwnerID: "A1"},
		},
	}
	e := New(Options{Oracle: &fakeOracle{plan: proposed}})

	resp, err := e.Plan(context.Background(), PlanRequest{Workflow: wf})
	if err != nil {
		t.Fatalf("Plan should fall back, got %v", err)
	}
	if resp.Engine != HeuristicEngine {
		t.Errorf("Engine = %q, want heuristic fallback", resp.Engine)
	}
	if resp.LLMError == "" {
		t.Error("coverage failure should surface as llm_error")
	}
	if len(resp.Assignments) != 2 {
		t.Errorf("fallback plan should cover both tasks, got %d assignments", len(resp.Assignments))
	}
}

func TestPlan_DoesNotMutateRequestWorkflow(t *testing.T) {
	wf := validWorkflow()
	original := wf.Clone()

	e := New(Options{})
	if _, err := e.Plan(context.Background(), PlanRequest{Workflow: wf}); err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if wf.Tasks[1].DependsOn[0] != original.Tasks[1].DependsOn[0] {
		t.Error("Plan mutated the request workflow")
	}
}
