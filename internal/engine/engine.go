// Package engine coordinates decomposition, validation, diagram
// compilation, and ownership planning behind the two request/response
// contracts the surrounding system consumes.
//
// Every operation is a synchronous transformation over its inputs with no
// shared mutable state, so independent requests never contend. The only
// suspension point is the optional oracle call, which is bounded by a
// timeout and recovered by falling back to the heuristic path.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pmorrow/flowplan/internal/decompose"
	"github.com/pmorrow/flowplan/internal/graph"
	"github.com/pmorrow/flowplan/internal/mermaid"
	"github.com/pmorrow/flowplan/internal/oracle"
	"github.com/pmorrow/flowplan/internal/plan"
	"github.com/pmorrow/flowplan/pkg/models"
)

// HeuristicEngine identifies results produced without an oracle.
const HeuristicEngine = "heuristic"

// DefaultOracleTimeout bounds a single oracle consultation.
const DefaultOracleTimeout = 60 * time.Second

// Options configures an Engine.
type Options struct {
	// Oracle is the optional external proposal source. Nil means the
	// heuristic path is always used.
	Oracle oracle.Oracle
	// OracleTimeout bounds each oracle call. Zero means the default.
	OracleTimeout time.Duration
}

// Engine is the stateless core facade. A single Engine is safe for
// concurrent use.
type Engine struct {
	oracle   oracle.Oracle
	timeout  time.Duration
	debugLog func(format string, args ...interface{})
}

// New creates an Engine.
func New(opts Options) *Engine {
	timeout := opts.OracleTimeout
	if timeout == 0 {
		timeout = DefaultOracleTimeout
	}
	return &Engine{
		oracle:   opts.Oracle,
		timeout:  timeout,
		debugLog: func(format string, args ...interface{}) {},
	}
}

// SetDebugLog sets the debug logging function.
func (e *Engine) SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		e.debugLog = fn
	}
}

// Decompose turns free text into a validated workflow. The oracle path is
// attempted first when configured; any oracle failure degrades to the
// heuristic decomposer and is surfaced as a non-fatal llm_error. An empty
// or whitespace-only text is the only fatal input error.
func (e *Engine) Decompose(ctx context.Context, req DecomposeRequest) (*DecomposeResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, decompose.ErrEmptyInput
	}
	granularity := req.Granularity
	if !granularity.Valid() {
		granularity = models.GranularityMedium
	}

	var candidate *models.Workflow
	engineName := HeuristicEngine
	var llmError, llmRaw string

	if e.oracle != nil {
		octx, cancel := context.WithTimeout(ctx, e.timeout)
		wf, raw, err := e.oracle.ProposeWorkflow(octx, text, req.Title, granularity)
		cancel()
		llmRaw = raw
		if err != nil {
			llmError = err.Error()
			e.debugLog("[engine.Decompose] oracle failed, falling back to heuristic: %v", err)
		} else {
			candidate = wf
			engineName = e.oracle.Name()
			e.debugLog("[engine.Decompose] oracle proposed %d tasks", len(wf.Tasks))
		}
	}

	if candidate == nil {
		wf, err := decompose.Decompose(text, req.Title, granularity)
		if err != nil {
			return nil, err
		}
		candidate = wf
	}

	validated, issues, order, err := graph.Validate(*candidate)
	if err != nil && engineName != HeuristicEngine {
		// Oracle output repaired down to nothing; the heuristic path is
		// total, so retry with it.
		llmError = err.Error()
		engineName = HeuristicEngine
		e.debugLog("[engine.Decompose] oracle workflow unrecoverable, retrying heuristically: %v", err)

		wf, derr := decompose.Decompose(text, req.Title, granularity)
		if derr != nil {
			return nil, derr
		}
		validated, issues, order, err = graph.Validate(*wf)
	}
	if err != nil {
		return nil, fmt.Errorf("validate workflow: %w", err)
	}

	e.debugLog("[engine.Decompose] returning tasks=%d issues=%d engine=%s", len(validated.Tasks), len(issues), engineName)
	return &DecomposeResponse{
		Workflow:  validated,
		Diagram:   mermaid.Compile(validated),
		TopoOrder: order,
		Issues:    issues,
		Engine:    engineName,
		LLMError:  llmError,
		LLMRaw:    llmRaw,
	}, nil
}

// Plan produces an ownership plan for a validated workflow. Unlike
// Decompose it does not degrade on bad input: a workflow violating the
// graph invariants is rejected before any clustering. Oracle plan
// proposals are verified for exact coverage and replaced by the heuristic
// plan when they fail.
func (e *Engine) Plan(ctx context.Context, req PlanRequest) (*PlanResponse, error) {
	if err := graph.Check(req.Workflow); err != nil {
		return nil, fmt.Errorf("%w: %v", plan.ErrInvalidWorkflow, err)
	}

	engineName := HeuristicEngine
	var llmError, llmRaw string
	var result *plan.Result

	if e.oracle != nil {
		octx, cancel := context.WithTimeout(ctx, e.timeout)
		proposed, raw, err := e.oracle.ProposePlan(octx, req.Workflow)
		cancel()
		llmRaw = raw
		if err == nil {
			err = plan.Verify(req.Workflow, proposed)
		}
		if err != nil {
			llmError = err.Error()
			e.debugLog("[engine.Plan] oracle plan rejected, falling back to heuristic: %v", err)
		} else {
			result = proposed
			engineName = e.oracle.Name()
		}
	}

	if result == nil {
		built, err := plan.Build(req.Workflow)
		if err != nil {
			return nil, err
		}
		result = built
	}

	e.debugLog("[engine.Plan] returning agents=%d humans=%d assignments=%d engine=%s",
		len(result.Agents), len(result.Humans), len(result.Assignments), engineName)
	return &PlanResponse{
		Agents:      result.Agents,
		Humans:      result.Humans,
		Assignments: result.Assignments,
		Engine:      engineName,
		LLMError:    llmError,
		LLMRaw:      llmRaw,
	}, nil
}
