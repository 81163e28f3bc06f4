package graph

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/pmorrow/flowplan/pkg/models"
)

func linearWorkflow(ids ...string) models.Workflow {
	wf := models.Workflow{Title: "test"}
	prev := ""
	for _, id := range ids {
		t := models.Task{ID: id, Title: "task " + id, Actor: models.ActorAgent}
		if prev != "" {
			t.DependsOn = []string{prev}
		}
		wf.Tasks = append(wf.Tasks, t)
		prev = id
	}
	return wf
}

func TestValidate_CleanWorkflowHasNoIssues(t *testing.T) {
	wf, issues, order, err := Validate(linearWorkflow("T1", "T2", "T3"))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("clean workflow produced issues: %v", issues)
	}
	if !reflect.DeepEqual(order, []string{"T1", "T2", "T3"}) {
		t.Errorf("topo order = %v, want [T1 T2 T3]", order)
	}
	if len(wf.Edges) != 2 {
		t.Errorf("expected 2 derived edges, got %v", wf.Edges)
	}
}

func TestValidate_SelfDependency(t *testing.T) {
	candidate := models.Workflow{Tasks: []models.Task{
		{ID: "A", Title: "task A", Actor: models.ActorAgent, DependsOn: []string{"A"}},
	}}

	wf, issues, _, err := Validate(candidate)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(wf.Tasks[0].DependsOn) != 0 {
		t.Errorf("self-dependency not removed: %v", wf.Tasks[0].DependsOn)
	}
	if len(issues) != 1 || !strings.Contains(issues[0], "A") {
		t.Errorf("expected one issue naming task A, got %v", issues)
	}
}

func TestValidate_DanglingDependency(t *testing.T) {
	candidate := models.Workflow{Tasks: []models.Task{
		{ID: "T1", Title: "one", DependsOn: []string{"ghost"}},
	}}

	wf, issues, _, err := Validate(candidate)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(wf.Tasks[0].DependsOn) != 0 {
		t.Errorf("dangling dependency not removed: %v", wf.Tasks[0].DependsOn)
	}
	if len(issues) != 1 || !strings.Contains(issues[0], "ghost") {
		t.Errorf("expected one issue naming the missing task, got %v", issues)
	}
}

func TestValidate_DuplicateDependencies(t *testing.T) {
	candidate := models.Workflow{Tasks: []models.Task{
		{ID: "T1", Title: "one"},
		{ID: "T2", Title: "two", DependsOn: []string{"T1", "T1", "T1"}},
	}}

	wf, issues, _, err := Validate(candidate)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !reflect.DeepEqual(wf.Tasks[1].DependsOn, []string{"T1"}) {
		t.Errorf("duplicate deps not removed: %v", wf.Tasks[1].DependsOn)
	}
	if len(issues) != 2 {
		t.Errorf("expected 2 dedup issues, got %v", issues)
	}
}

func TestValidate_DuplicateTaskIDs(t *testing.T) {
	candidate := models.Workflow{Tasks: []models.Task{
		{ID: "T1", Title: "first"},
		{ID: "T1", Title: "second"},
		{ID: "T2", Title: "third", DependsOn: []string{"T1"}},
	}}

	wf, issues, _, err := Validate(candidate)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(wf.Tasks) != 2 {
		t.Fatalf("expected duplicate task dropped, got %d tasks", len(wf.Tasks))
	}
	if wf.Tasks[0].Title != "first" {
		t.Errorf("first occurrence should win, got %q", wf.Tasks[0].Title)
	}
	if len(issues) != 1 || !strings.Contains(issues[0], "T1") {
		t.Errorf("expected collision issue for T1, got %v", issues)
	}
}

func TestValidate_BlankIDSynthesized(t *testing.T) {
	candidate := models.Workflow{Tasks: []models.Task{
		{ID: "", Title: "anonymous"},
		{ID: "T2", Title: "named"},
	}}

	wf, issues, _, err := Validate(candidate)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if wf.Tasks[0].ID == "" {
		t.Error("blank id was not synthesized")
	}
	if len(issues) != 1 || !strings.Contains(issues[0], "blank id") {
		t.Errorf("expected blank-id issue, got %v", issues)
	}
}

func TestValidate_CycleCut(t *testing.T) {
	// A -> B -> C -> A (edges point dependency -> dependent, so each task
	// depends on the previous one and A closes the loop).
	candidate := models.Workflow{Tasks: []models.Task{
		{ID: "A", Title: "a", DependsOn: []string{"C"}},
		{ID: "B", Title: "b", DependsOn: []string{"A"}},
		{ID: "C", Title: "c", DependsOn: []string{"B"}},
	}}

	wf, issues, order, err := Validate(candidate)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if hasCycle(wf.Tasks) {
		t.Fatal("cycle remains after repair")
	}
	found := false
	for _, issue := range issues {
		if strings.Contains(issue, "cyclic") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a cycle-cut issue, got %v", issues)
	}
	if len(order) != 3 {
		t.Fatalf("topo order should cover all tasks, got %v", order)
	}
	assertTopological(t, wf, order)
}

func TestValidate_EmptyWorkflowFails(t *testing.T) {
	_, _, _, err := Validate(models.Workflow{})
	if !errors.Is(err, ErrEmptyWorkflow) {
		t.Errorf("Validate(empty) error = %v, want ErrEmptyWorkflow", err)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	candidate := models.Workflow{Tasks: []models.Task{
		{ID: "T1", Title: "one", DependsOn: []string{"T1", "ghost"}},
		{ID: "T2", Title: "two", DependsOn: []string{"T1", "T1"}},
		{ID: "T2", Title: "dup"},
	}}

	first, issues1, order1, err := Validate(candidate)
	if err != nil {
		t.Fatalf("first Validate failed: %v", err)
	}
	if len(issues1) == 0 {
		t.Fatal("expected repairs on first pass")
	}

	second, issues2, order2, err := Validate(first)
	if err != nil {
		t.Fatalf("second Validate failed: %v", err)
	}
	if len(issues2) != 0 {
		t.Errorf("second pass should report no issues, got %v", issues2)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second pass changed the workflow:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if !reflect.DeepEqual(order1, order2) {
		t.Errorf("topo order changed between passes: %v vs %v", order1, order2)
	}
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	candidate := models.Workflow{Tasks: []models.Task{
		{ID: "A", Title: "a", DependsOn: []string{"A", "missing"}},
	}}

	_, _, _, err := Validate(candidate)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !reflect.DeepEqual(candidate.Tasks[0].DependsOn, []string{"A", "missing"}) {
		t.Errorf("Validate mutated its input: %v", candidate.Tasks[0].DependsOn)
	}
}

func TestValidate_TopoOrderProperty(t *testing.T) {
	// Diamond plus a tail, declared intentionally out of order.
	candidate := models.Workflow{Tasks: []models.Task{
		{ID: "D", Title: "join", DependsOn: []string{"B", "C"}},
		{ID: "B", Title: "left", DependsOn: []string{"A"}},
		{ID: "E", Title: "tail", DependsOn: []string{"D"}},
		{ID: "C", Title: "right", DependsOn: []string{"A"}},
		{ID: "A", Title: "root"},
	}}

	wf, _, order, err := Validate(candidate)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(order) != len(wf.Tasks) {
		t.Fatalf("topo order covers %d of %d tasks", len(order), len(wf.Tasks))
	}
	assertTopological(t, wf, order)
}

func TestValidate_TopoTieBreakByPosition(t *testing.T) {
	// Two independent roots: original sequence position decides order.
	candidate := models.Workflow{Tasks: []models.Task{
		{ID: "Z9", Title: "first declared"},
		{ID: "A1", Title: "second declared"},
	}}

	_, _, order, err := Validate(candidate)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"Z9", "A1"}) {
		t.Errorf("ties should break by task position, not id: %v", order)
	}
}

func TestCheck(t *testing.T) {
	if err := Check(linearWorkflow("T1", "T2")); err != nil {
		t.Errorf("Check(valid) = %v, want nil", err)
	}

	cases := []struct {
		name string
		wf   models.Workflow
	}{
		{"empty", models.Workflow{}},
		{"blank id", models.Workflow{Tasks: []models.Task{{ID: ""}}}},
		{"duplicate ids", models.Workflow{Tasks: []models.Task{{ID: "A"}, {ID: "A"}}}},
		{"self dep", models.Workflow{Tasks: []models.Task{{ID: "A", DependsOn: []string{"A"}}}}},
		{"dangling dep", models.Workflow{Tasks: []models.Task{{ID: "A", DependsOn: []string{"B"}}}}},
		{"duplicate dep", models.Workflow{Tasks: []models.Task{{ID: "A"}, {ID: "B", DependsOn: []string{"A", "A"}}}}},
		{"cycle", models.Workflow{Tasks: []models.Task{
			{ID: "A", DependsOn: []string{"B"}},
			{ID: "B", DependsOn: []string{"A"}},
		}}},
	}
	for _, tc := range cases {
		if err := Check(tc.wf); err == nil {
			t.Errorf("Check(%s) should fail", tc.name)
		}
	}
}

// assertTopological verifies every dependency appears before its dependent.
func assertTopological(t *testing.T, wf models.Workflow, order []string) {
	t.Helper()
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, task := range wf.Tasks {
		for _, dep := range task.DependsOn {
			if pos[dep] >= pos[task.ID] {
				t.Errorf("edge %s -> %s violates topo order %v", dep, task.ID, order)
			}
		}
	}
}
