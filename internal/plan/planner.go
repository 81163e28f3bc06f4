// Package plan clusters the tasks of a validated workflow into a minimal
// set of reusable owners (software agents and human roles) and assigns
// every task to exactly one owner.
//
// Clustering is a greedy, order-stable heuristic: tasks sharing a tool are
// always merged into one agent (tool match beats verb match), tasks without
// a tool are merged by the dominant capability of their title, and ties
// fall to the cluster discovered first in task order.
package plan

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pmorrow/flowplan/internal/graph"
	"github.com/pmorrow/flowplan/pkg/models"
)

// ErrInvalidWorkflow indicates the planning input violates the graph
// invariants. Planning fails closed rather than guessing structure.
var ErrInvalidWorkflow = errors.New("workflow failed validation")

// Result is a complete ownership plan for one workflow.
type Result struct {
	Agents      []models.AgentSpec
	Humans      []models.HumanSpec
	Assignments []models.AssignedTask
}

type cluster struct {
	key     string
	members []*models.Task
}

// Build produces an ownership plan covering every task exactly once.
// The workflow is received by value and never mutated.
func Build(wf models.Workflow) (*Result, error) {
	if err := graph.Check(wf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkflow, err)
	}

	agentClusters, humanClusters := clusterTasks(wf)

	res := &Result{
		Agents:      make([]models.AgentSpec, 0, len(agentClusters)),
		Humans:      make([]models.HumanSpec, 0, len(humanClusters)),
		Assignments: make([]models.AssignedTask, 0, len(wf.Tasks)),
	}

	agentID := make(map[string]string, len(agentClusters))
	for i, c := range agentClusters {
		spec := agentSpec(fmt.Sprintf("A%d", i+1), c)
		agentID[c.key] = spec.ID
		res.Agents = append(res.Agents, spec)
	}

	humanID := make(map[string]string, len(humanClusters))
	for i, c := range humanClusters {
		spec := humanSpec(fmt.Sprintf("H%d", i+1), c)
		humanID[c.key] = spec.ID
		res.Humans = append(res.Humans, spec)
	}

	for i := range wf.Tasks {
		t := &wf.Tasks[i]
		var assigned models.AssignedTask
		if t.Actor == models.ActorHuman {
			assigned = models.AssignedTask{
				TaskID:       t.ID,
				OwnerType:    models.OwnerTypeHuman,
				OwnerID:      humanID[humanKey(t)],
				Instructions: humanInstructions(t),
			}
		} else {
			assigned = models.AssignedTask{
				TaskID:       t.ID,
				OwnerType:    models.OwnerTypeAgent,
				OwnerID:      agentID[agentKey(t)],
				Instructions: agentInstructions(t),
			}
		}
		assigned.Inputs = append([]string(nil), t.Inputs...)
		assigned.Outputs = append([]string(nil), t.Outputs...)
		res.Assignments = append(res.Assignments, assigned)
	}

	return res, nil
}

// clusterTasks partitions tasks by actor and groups each partition into
// clusters, preserving discovery order.
func clusterTasks(wf models.Workflow) (agents, humans []*cluster) {
	agentIdx := make(map[string]*cluster)
	humanIdx := make(map[string]*cluster)

	for i := range wf.Tasks {
		t := &wf.Tasks[i]
		if t.Actor == models.ActorHuman {
			key := humanKey(t)
			c, ok := humanIdx[key]
			if !ok {
				c = &cluster{key: key}
				humanIdx[key] = c
				humans = append(humans, c)
			}
			c.members = append(c.members, t)
			continue
		}
		key := agentKey(t)
		c, ok := agentIdx[key]
		if !ok {
			c = &cluster{key: key}
			agentIdx[key] = c
			agents = append(agents, c)
		}
		c.members = append(c.members, t)
	}
	return agents, humans
}

// agentKey decides which agent cluster a task belongs to. A shared tool
// always wins over the title's dominant verb.
func agentKey(t *models.Task) string {
	if t.Tool != "" {
		return "tool:" + t.Tool
	}
	return "cap:" + capability(t.Title)
}

// humanKey groups human tasks into approval roles and operator roles,
// split further by domain keyword when one is present in the title.
func humanKey(t *models.Task) string {
	role := "operator"
	if t.Approval {
		role = "approver"
	}
	if domain := domainKeyword(t.Title); domain != "" {
		return role + ":" + domain
	}
	return role
}

func agentSpec(id string, c *cluster) models.AgentSpec {
	skills := orderedSet{}
	tools := orderedSet{}
	for _, t := range c.members {
		skills.add(capability(t.Title))
		if t.Tool != "" {
			tools.add(t.Tool)
		}
	}

	var name string
	if tool, ok := strings.CutPrefix(c.key, "tool:"); ok {
		name = humanize(tool) + " Agent"
	} else {
		name = humanize(strings.TrimPrefix(c.key, "cap:")) + " Agent"
	}

	return models.AgentSpec{
		ID:          id,
		Name:        name,
		Description: fmt.Sprintf("Handles %s across the workflow.", describeMembers(c)),
		Skills:      skills.values,
		Tools:       tools.values,
	}
}

func humanSpec(id string, c *cluster) models.HumanSpec {
	role, domain, _ := strings.Cut(c.key, ":")
	name := "Operator"
	desc := "Carries out manual workflow steps."
	if role == "approver" {
		name = "Approver"
		desc = "Provides sign-off on approval gates."
	}
	if domain != "" {
		name = humanize(domain) + " " + name
		desc = fmt.Sprintf("%s Scoped to %s matters.", desc, domain)
	}
	return models.HumanSpec{ID: id, Name: name, Description: desc}
}

func describeMembers(c *cluster) string {
	if len(c.members) == 1 {
		return "1 task"
	}
	return fmt.Sprintf("%d similar tasks", len(c.members))
}

// agentInstructions restates the task imperatively, including the tool and
// its parameters when set.
func agentInstructions(t *models.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Perform: %s.", strings.TrimRight(t.Title, ".!?"))
	if t.Tool != "" {
		fmt.Fprintf(&b, " Use the %s tool", t.Tool)
		if len(t.Parameters) > 0 {
			keys := make([]string, 0, len(t.Parameters))
			for k := range t.Parameters {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			pairs := make([]string, len(keys))
			for i, k := range keys {
				pairs[i] = k + "=" + t.Parameters[k]
			}
			fmt.Fprintf(&b, " (%s)", strings.Join(pairs, ", "))
		}
		b.WriteString(".")
	}
	if len(t.Outputs) > 0 {
		fmt.Fprintf(&b, " Produce: %s.", strings.Join(t.Outputs, ", "))
	}
	return b.String()
}

func humanInstructions(t *models.Task) string {
	title := strings.TrimRight(t.Title, ".!?")
	if t.Approval {
		s := fmt.Sprintf("Review and approve: %s.", title)
		if len(t.AcceptanceCriteria) > 0 {
			s += " Acceptance criteria: " + strings.Join(t.AcceptanceCriteria, "; ") + "."
		} else {
			s += " Confirm acceptance criteria are met."
		}
		return s
	}
	return fmt.Sprintf("Carry out: %s.", title)
}

// humanize turns a snake_case or kebab-case identifier into a display name.
func humanize(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// orderedSet is a deduplicating set preserving insertion order, so plan
// output is stable for equivalent inputs.
type orderedSet struct {
	seen   map[string]bool
	values []string
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.values = append(s.values, v)
}
