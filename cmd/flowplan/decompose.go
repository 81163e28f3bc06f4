package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/pmorrow/flowplan/internal/config"
	"github.com/pmorrow/flowplan/internal/engine"
	"github.com/pmorrow/flowplan/internal/history"
	"github.com/pmorrow/flowplan/internal/mermaid"
	"github.com/pmorrow/flowplan/internal/render"
	"github.com/pmorrow/flowplan/pkg/models"
)

var (
	decomposeFile        string
	decomposeTitle       string
	decomposeGranularity string
	decomposeFormat      string
	decomposeDirection   string
	decomposeWatch       bool
	decomposeNoLLM       bool
)

var decomposeCmd = &cobra.Command{
	Use:   "decompose [text]",
	Short: "Decompose a process description into a task graph",
	Long: `Decompose a free-text process description into a validated workflow.

The description can be passed as an argument, read from a file with
--file, or piped on stdin. The result is a task graph with dependencies,
a topological execution order, and a Mermaid diagram.

With --watch, the input file is re-decomposed every time it changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyDecomposeDefaults(cfg)

		granularity := models.Granularity(decomposeGranularity)
		if !granularity.Valid() {
			return fmt.Errorf("invalid granularity %q (want low, medium, or high)", decomposeGranularity)
		}

		eng, err := newEngine(cfg, decomposeNoLLM)
		if err != nil {
			return err
		}

		if decomposeWatch {
			if decomposeFile == "" {
				return fmt.Errorf("--watch requires --file")
			}
			return watchAndDecompose(cmd.Context(), eng, cfg, granularity)
		}

		text, err := readDecomposeInput(args)
		if err != nil {
			return err
		}

		return decomposeOnce(cmd.Context(), eng, cfg, text, granularity)
	},
}

func init() {
	decomposeCmd.Flags().StringVarP(&decomposeFile, "file", "f", "", "Read the process description from a file")
	decomposeCmd.Flags().StringVar(&decomposeTitle, "title", "", "Workflow title (derived from the text if empty)")
	decomposeCmd.Flags().StringVarP(&decomposeGranularity, "granularity", "g", "", "Task granularity: low, medium, or high")
	decomposeCmd.Flags().StringVarP(&decomposeFormat, "format", "o", "pretty", "Output format: pretty, json, or mermaid")
	decomposeCmd.Flags().StringVarP(&decomposeDirection, "direction", "d", "", "Mermaid diagram direction (TD or LR)")
	decomposeCmd.Flags().BoolVarP(&decomposeWatch, "watch", "w", false, "Re-run whenever the input file changes")
	decomposeCmd.Flags().BoolVar(&decomposeNoLLM, "no-llm", false, "Skip the LLM oracle and use heuristics only")
}

// applyDecomposeDefaults fills unset flags from configuration.
func applyDecomposeDefaults(cfg *config.Config) {
	if decomposeGranularity == "" {
		decomposeGranularity = cfg.Defaults.Granularity
	}
	if decomposeDirection == "" {
		decomposeDirection = cfg.Defaults.Direction
	}
}

// readDecomposeInput resolves the process description from args, --file,
// or stdin.
func readDecomposeInput(args []string) (string, error) {
	if decomposeFile != "" {
		data, err := os.ReadFile(decomposeFile)
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		return string(data), nil
	}

	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	// Fall back to stdin when it is piped
	stat, err := os.Stdin.Stat()
	if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	return "", fmt.Errorf("no input: pass text as an argument, use --file, or pipe on stdin")
}

func decomposeOnce(ctx context.Context, eng *engine.Engine, cfg *config.Config, text string, granularity models.Granularity) error {
	resp, err := eng.Decompose(ctx, engine.DecomposeRequest{
		Text:        text,
		Title:       decomposeTitle,
		Granularity: granularity,
	})
	if err != nil {
		return err
	}

	if err := printDecomposeResult(os.Stdout, resp); err != nil {
		return err
	}

	if cfg.History.Enabled {
		if err := saveRun(history.KindDecompose, resp.Workflow.Title, resp.Engine, resp); err != nil {
			fmt.Fprintf(os.Stderr, "%s could not save history: %v\n", color.YellowString("!"), err)
		}
	}

	return nil
}

func printDecomposeResult(w io.Writer, resp *engine.DecomposeResponse) error {
	switch decomposeFormat {
	case "json":
		// The engine compiles the diagram with the default direction;
		// honor --direction here the same way the mermaid format does.
		resp.Diagram = diagramFor(resp.Workflow)
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal response: %w", err)
		}
		fmt.Fprintln(w, string(data))

	case "mermaid":
		fmt.Fprintln(w, diagramFor(resp.Workflow))

	case "pretty":
		r := render.New()
		fmt.Fprint(w, r.Workflow(resp.Workflow, resp.TopoOrder))
		if out := r.Issues(resp.Issues); out != "" {
			fmt.Fprint(w, out)
		}
		if resp.LLMError != "" {
			fmt.Fprintf(os.Stderr, "%s oracle unavailable, used heuristics: %s\n",
				color.YellowString("!"), resp.LLMError)
		}
		fmt.Fprintf(w, "\nEngine: %s\n", resp.Engine)

	default:
		return fmt.Errorf("unknown format %q (want pretty, json, or mermaid)", decomposeFormat)
	}
	return nil
}

// diagramFor compiles the Mermaid diagram honoring the direction flag.
func diagramFor(wf models.Workflow) string {
	if decomposeDirection != "" && decomposeDirection != "TD" {
		return mermaid.CompileDirection(wf, decomposeDirection)
	}
	return mermaid.Compile(wf)
}

// watchAndDecompose re-runs decomposition whenever the input file is
// written. It blocks until the context is cancelled or the watcher fails.
func watchAndDecompose(ctx context.Context, eng *engine.Engine, cfg *config.Config, granularity models.Granularity) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file on save, which
	// drops a watch registered on the file itself.
	dir := filepath.Dir(decomposeFile)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	runOnce := func() {
		text, err := readDecomposeInput(nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
			return
		}
		if err := decomposeOnce(ctx, eng, cfg, text, granularity); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		}
	}

	runOnce()
	fmt.Fprintf(os.Stderr, "Watching %s for changes (ctrl-c to stop)\n", decomposeFile)

	target := filepath.Clean(decomposeFile)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
				runOnce()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "%s watch error: %v\n", color.RedString("error:"), err)
		}
	}
}
