package oracle

// workflowSystemPrompt asks for a dependency-aware decomposition. The model
// is told to keep IDs simple and the graph acyclic, but nothing it returns
// is trusted: the validator repairs or rejects whatever comes back.
const workflowSystemPrompt = `You are a workflow decomposition engine. Break the described business process into granular, dependency-aware tasks.

Rules:
- Use task ids T1..Tn only.
- Dependencies must be acyclic and reference existing ids.
- Set "actor" to "agent" for automatable steps and "human" for manual ones.
- Set "approval": true on human sign-off gates.
- Name a "tool" only when the step clearly invokes an external capability.
- Inputs and outputs are short data item names.

Output only a JSON object, no code fences, of the form:
{"title": "...", "assumptions": ["..."], "tasks": [{"id": "T1", "title": "...", "actor": "agent", "depends_on": [], "inputs": [], "outputs": [], "tool": "", "approval": false, "acceptance_criteria": [], "parallelizable": false}]}`

// planSystemPrompt asks for an ownership plan over an existing task list.
const planSystemPrompt = `You are designing an agentic execution plan for an existing task graph.

Rules:
- Group similar agent tasks into reusable agents; tasks sharing a tool belong to one agent.
- Group human approvals into a small number of named approval roles.
- Assign every task id exactly once; reference only owners you declare.
- IDs: agents as A1..An, humans as H1..Hm.
- Keep each task's inputs and outputs; write crisp imperative instructions.

Output only a JSON object, no code fences, of the form:
{"agents": [{"id": "A1", "name": "...", "description": "...", "skills": [], "tools": []}], "humans": [{"id": "H1", "name": "...", "description": "..."}], "assignments": [{"task_id": "T1", "owner_type": "agent", "owner_id": "A1", "instructions": "...", "inputs": [], "outputs": []}]}`
