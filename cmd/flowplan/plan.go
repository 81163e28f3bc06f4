package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pmorrow/flowplan/internal/config"
	"github.com/pmorrow/flowplan/internal/engine"
	"github.com/pmorrow/flowplan/internal/history"
	"github.com/pmorrow/flowplan/internal/render"
	"github.com/pmorrow/flowplan/pkg/models"
)

var (
	planFormat string
	planNoLLM  bool
)

var planCmd = &cobra.Command{
	Use:   "plan [workflow-file]",
	Short: "Build an ownership plan for a workflow",
	Long: `Cluster a workflow's tasks into agent and human owners, with a task
contract for every assignment.

The workflow is read from the given JSON or YAML file. Without an
argument, the latest decompose run from the project history is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		var wf models.Workflow
		if len(args) == 1 {
			wf, err = loadWorkflowFile(args[0])
		} else {
			wf, err = latestWorkflow()
		}
		if err != nil {
			return err
		}

		eng, err := newEngine(cfg, planNoLLM)
		if err != nil {
			return err
		}

		resp, err := eng.Plan(cmd.Context(), engine.PlanRequest{Workflow: wf})
		if err != nil {
			return err
		}

		if err := printPlanResult(resp); err != nil {
			return err
		}

		if cfg.History.Enabled {
			if err := saveRun(history.KindPlan, wf.Title, resp.Engine, resp); err != nil {
				fmt.Fprintf(os.Stderr, "%s could not save history: %v\n", color.YellowString("!"), err)
			}
		}

		return nil
	},
}

func init() {
	planCmd.Flags().StringVarP(&planFormat, "format", "o", "pretty", "Output format: pretty or json")
	planCmd.Flags().BoolVar(&planNoLLM, "no-llm", false, "Skip the LLM oracle and use heuristics only")
}

func printPlanResult(resp *engine.PlanResponse) error {
	switch planFormat {
	case "json":
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal response: %w", err)
		}
		fmt.Println(string(data))

	case "pretty":
		fmt.Print(render.New().Plan(resp.Agents, resp.Humans, resp.Assignments))
		if resp.LLMError != "" {
			fmt.Fprintf(os.Stderr, "%s oracle unavailable, used heuristics: %s\n",
				color.YellowString("!"), resp.LLMError)
		}
		fmt.Printf("\nEngine: %s\n", resp.Engine)

	default:
		return fmt.Errorf("unknown format %q (want pretty or json)", planFormat)
	}
	return nil
}

// loadWorkflowFile reads a workflow from a JSON or YAML file. YAML is
// converted through JSON so both formats share the same field names.
func loadWorkflowFile(path string) (models.Workflow, error) {
	var wf models.Workflow

	data, err := os.ReadFile(path)
	if err != nil {
		return wf, fmt.Errorf("read workflow file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return wf, fmt.Errorf("parse YAML workflow: %w", err)
		}
		data, err = json.Marshal(raw)
		if err != nil {
			return wf, fmt.Errorf("convert YAML workflow: %w", err)
		}
	}

	if err := json.Unmarshal(data, &wf); err != nil {
		return wf, fmt.Errorf("parse workflow: %w", err)
	}
	return wf, nil
}

// latestWorkflow loads the workflow from the most recent decompose run.
func latestWorkflow() (models.Workflow, error) {
	var wf models.Workflow

	store, err := openStore()
	if err != nil {
		return wf, err
	}
	defer store.Close()

	entry, err := store.Latest(history.KindDecompose)
	if errors.Is(err, history.ErrNoHistory) {
		return wf, fmt.Errorf("no decompose run in history: pass a workflow file or run 'flowplan decompose' first")
	}
	if err != nil {
		return wf, err
	}

	var saved engine.DecomposeResponse
	if err := json.Unmarshal(entry.Payload, &saved); err != nil {
		return wf, fmt.Errorf("parse saved run: %w", err)
	}
	return saved.Workflow, nil
}
