package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pmorrow/flowplan/internal/history"
)

var (
	historyKind  string
	historyLimit int
	historyPurge time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past decompose and plan runs",
	Long: `List runs recorded in the project-local history database
(.flowplan/history.db). The latest decompose run is what 'flowplan plan'
uses when no workflow file is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if historyPurge > 0 {
			count, err := store.Purge(historyPurge)
			if err != nil {
				return err
			}
			fmt.Printf("Purged %d runs older than %s\n", count, historyPurge)
			return nil
		}

		entries, err := store.List(historyKind, historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		for _, e := range entries {
			title := e.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("%s  %-9s  %-9s  %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Kind, e.Engine, title)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyKind, "kind", history.KindDecompose, "Run kind to list: decompose or plan")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to list")
	historyCmd.Flags().DurationVar(&historyPurge, "purge-older-than", 0, "Delete runs older than this duration instead of listing")
}

// openStore opens the project-local history database.
func openStore() (*history.Store, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return history.Open(history.DefaultPath(cwd))
}

// saveRun records a run result in the project-local history database.
func saveRun(kind, title, engineName string, payload any) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal run payload: %w", err)
	}

	_, err = store.Save(kind, title, engineName, data)
	return err
}
