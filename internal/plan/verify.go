package plan

import (
	"fmt"

	"github.com/pmorrow/flowplan/pkg/models"
)

// Verify checks that a plan (typically one proposed by an oracle) covers
// every task of the workflow exactly once and references only declared
// owners. A failing plan must be discarded, not repaired.
func Verify(wf models.Workflow, p *Result) error {
	if p == nil {
		return fmt.Errorf("plan is nil")
	}

	agents := make(map[string]bool, len(p.Agents))
	for _, a := range p.Agents {
		if a.ID == "" {
			return fmt.Errorf("agent %q has a blank id", a.Name)
		}
		if agents[a.ID] {
			return fmt.Errorf("duplicate agent id %s", a.ID)
		}
		agents[a.ID] = true
	}
	humans := make(map[string]bool, len(p.Humans))
	for _, h := range p.Humans {
		if h.ID == "" {
			return fmt.Errorf("human %q has a blank id", h.Name)
		}
		if humans[h.ID] {
			return fmt.Errorf("duplicate human id %s", h.ID)
		}
		humans[h.ID] = true
	}

	taskIDs := make(map[string]bool, len(wf.Tasks))
	for _, t := range wf.Tasks {
		taskIDs[t.ID] = true
	}

	assigned := make(map[string]bool, len(p.Assignments))
	for _, a := range p.Assignments {
		if !taskIDs[a.TaskID] {
			return fmt.Errorf("assignment references unknown task %s", a.TaskID)
		}
		if assigned[a.TaskID] {
			return fmt.Errorf("task %s assigned more than once", a.TaskID)
		}
		assigned[a.TaskID] = true

		switch a.OwnerType {
		case models.OwnerTypeAgent:
			if !agents[a.OwnerID] {
				return fmt.Errorf("task %s assigned to unknown agent %s", a.TaskID, a.OwnerID)
			}
		case models.OwnerTypeHuman:
			if !humans[a.OwnerID] {
				return fmt.Errorf("task %s assigned to unknown human %s", a.TaskID, a.OwnerID)
			}
		default:
			return fmt.Errorf("task %s has invalid owner type %q", a.TaskID, a.OwnerType)
		}
	}

	for id := range taskIDs {
		if !assigned[id] {
			return fmt.Errorf("task %s is not assigned to any owner", id)
		}
	}
	return nil
}
