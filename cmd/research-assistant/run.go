// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/capability"
	"github.com/pdiddy/research-assistant/internal/engine"
	"github.com/pdiddy/research-assistant/internal/pipeline"
	"github.com/pdiddy/research-assistant/internal/store"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "Execute a research run for a query",
	Long: `Run executes the full research workflow for a query: web research with
citation capture, analysis, document drafting with a rendered bibliography,
and publication to the output directory. Each content-producing stage is
scored against quality criteria and the run is recorded in the run store.

With --replay, capability responses are read from a recorded YAML script
instead of performing live searches, making the run fully deterministic.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	format, _ := cmd.Flags().GetString("format")
	audience, _ := cmd.Flags().GetString("audience")
	depth, _ := cmd.Flags().GetString("depth")
	style, _ := cmd.Flags().GetString("style")
	replay, _ := cmd.Flags().GetString("replay")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg := loadConfig()
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if style == "" {
		style = cfg.Citation.Style
	}

	logger, err := buildLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var provider capability.Provider
	if replay != "" {
		scripted, err := capability.LoadScript(replay)
		if err != nil {
			return fmt.Errorf("loading replay script: %w", err)
		}
		provider = scripted
	} else {
		provider = capability.NewLocal(cfg, logger)
	}

	runs, err := store.Open(cfg.Storage)
	if err != nil {
		return err
	}
	defer runs.Close()

	opts := types.RunOptions{
		Format:   format,
		Audience: audience,
		Depth:    depth,
		Style:    style,
	}

	runner := engine.NewRunner(pipeline.NewFactory(cfg, provider, logger), logger)
	ctx := context.Background()

	runID, err := runner.StartRun(ctx, query, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Run %s started for: %s\n", runID, query)

	result, err := runner.Wait(ctx, runID)
	if err != nil {
		return err
	}

	documentPath := artifactPath(result)
	if err := runs.Save(ctx, *result, documentPath); err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	printSummary(os.Stdout, result, documentPath)

	if result.State == types.RunFailed {
		return fmt.Errorf("run %s failed", runID)
	}
	return nil
}

// buildLogger returns a production zap logger, or a development logger
// when verbose output is requested.
func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// artifactPath extracts the published document path from the run result.
func artifactPath(result *types.WorkflowResult) string {
	for _, sr := range result.Stages {
		if sr.Name != "publish" || sr.Payload == nil {
			continue
		}
		if p, ok := sr.Payload["artifact_path"].(string); ok {
			return p
		}
	}
	return ""
}

// printSummary writes the human-readable run report.
func printSummary(w io.Writer, result *types.WorkflowResult, documentPath string) {
	fmt.Fprintf(w, "\nRun %s: %s (%.1fs)\n", result.RunID, result.State, result.Elapsed.Seconds())
	fmt.Fprintf(w, "\n%-10s  %-10s  %-8s  %s\n", "Stage", "Status", "Attempts", "Score")
	fmt.Fprintln(w, strings.Repeat("-", 44))
	for _, sr := range result.Stages {
		score := "-"
		if qs, ok := result.Scores[sr.Name]; ok {
			score = fmt.Sprintf("%.1f", qs.Aggregate)
		}
		fmt.Fprintf(w, "%-10s  %-10s  %-8d  %s\n", sr.Name, sr.Status, sr.Attempts, score)
	}

	fmt.Fprintf(w, "\nCitations: %d\n", result.CitationCount)
	if documentPath != "" {
		fmt.Fprintf(w, "Document:  %s\n", documentPath)
	}

	var suggestions []string
	for _, name := range []string{"research", "analysis", "content"} {
		if qs, ok := result.Scores[name]; ok {
			suggestions = append(suggestions, qs.Suggestions...)
		}
	}
	if len(suggestions) > 0 {
		fmt.Fprintln(w, "\nSuggestions:")
		seen := make(map[string]bool)
		for _, s := range suggestions {
			if seen[s] {
				continue
			}
			seen[s] = true
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}

	if len(result.ErrorLog) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, e := range result.ErrorLog {
			fmt.Fprintf(w, "  %s: %s (attempts: %d)\n", e.Stage, e.Message, e.Attempts)
		}
	}
}

func init() {
	runCmd.Flags().String("format", "comprehensive_report", "output format: comprehensive_report, executive_briefing, presentation, technical_summary, policy_brief")
	runCmd.Flags().String("audience", "general", "target audience: academic, professional, executive, technical, general")
	runCmd.Flags().String("depth", "detailed", "research depth: overview, detailed, comprehensive, expert")
	runCmd.Flags().String("style", "", "citation style: APA, MLA, Chicago (default APA)")
	runCmd.Flags().String("replay", "", "replay capability responses from a recorded YAML script")
	runCmd.Flags().String("output-dir", "", "directory for published documents (default output/documents)")
	runCmd.Flags().String("data-dir", "", "directory for the run database (default data)")
	runCmd.Flags().Bool("verbose", false, "verbose structured logging")

	rootCmd.AddCommand(runCmd)
}
