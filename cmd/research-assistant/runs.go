// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List and inspect recorded runs",
	Long: `Runs browses the local run database. Without a subcommand it lists all
recorded runs, most recent first. Use runs show to print one run's full
record, including per-stage results and quality scores.`,
	RunE: runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one recorded run in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func runRunsList(cmd *cobra.Command, args []string) error {
	runs, err := openRunStore(cmd)
	if err != nil {
		return err
	}
	defer runs.Close()

	summaries, err := runs.List(context.Background())
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-19s  %-6s  %-9s  %s\n",
		"Run", "State", "Started", "Score", "Citations", "Query")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for _, s := range summaries {
		query := s.Query
		if len(query) > 40 {
			query = query[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-19s  %-6.1f  %-9d  %s\n",
			s.RunID, s.State, s.StartedAt.Format("2006-01-02 15:04:05"),
			s.Score, s.Citations, query)
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(summaries))
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	runs, err := openRunStore(cmd)
	if err != nil {
		return err
	}
	defer runs.Close()

	result, documentPath, err := runs.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(os.Stdout, "Run:       %s\n", result.RunID)
	fmt.Fprintf(os.Stdout, "Query:     %s\n", result.Query)
	fmt.Fprintf(os.Stdout, "State:     %s\n", result.State)
	fmt.Fprintf(os.Stdout, "Started:   %s\n", result.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(os.Stdout, "Elapsed:   %.1fs\n", result.Elapsed.Seconds())
	fmt.Fprintf(os.Stdout, "Citations: %d\n", result.CitationCount)
	if documentPath != "" {
		fmt.Fprintf(os.Stdout, "Document:  %s\n", documentPath)
	}
	fmt.Fprintf(os.Stdout, "\n%-10s  %-10s  %-8s  %s\n", "Stage", "Status", "Attempts", "Score")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 44))
	for _, sr := range result.Stages {
		score := "-"
		if qs, ok := result.Scores[sr.Name]; ok {
			score = fmt.Sprintf("%.1f", qs.Aggregate)
		}
		fmt.Fprintf(os.Stdout, "%-10s  %-10s  %-8d  %s\n", sr.Name, sr.Status, sr.Attempts, score)
	}

	if len(result.ErrorLog) > 0 {
		fmt.Fprintln(os.Stdout, "\nErrors:")
		for _, e := range result.ErrorLog {
			fmt.Fprintf(os.Stdout, "  %s: %s (attempts: %d)\n", e.Stage, e.Message, e.Attempts)
		}
	}
	return nil
}

func openRunStore(cmd *cobra.Command) (*store.Store, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	cfg := loadConfig()
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	return store.Open(cfg.Storage)
}

func init() {
	runsCmd.PersistentFlags().String("data-dir", "", "directory for the run database (default data)")
	runsShowCmd.Flags().Bool("json", false, "output the full record as JSON")

	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
