// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-assistant CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the research-assistant CLI.
var rootCmd = &cobra.Command{
	Use:   "research-assistant",
	Short: "Multi-stage research runs producing cited, quality-scored documents",
	Long: `research-assistant coordinates a staged research workflow: it searches the
web for sources, analyzes the findings, drafts a document with a rendered
bibliography, and scores each stage's output against quality criteria.

Start a run with the run command; past runs are recorded in a local SQLite
database and browsable with the runs command.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-assistant.yaml or ~/.config/research-assistant/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-assistant")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-assistant"))
		}
	}

	viper.SetEnvPrefix("RESEARCH_ASSISTANT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the typed configuration from viper, applying
// defaults for everything unset.
func loadConfig() types.Config {
	cfg := types.Config{
		Stages: make(map[string]types.StageConfig),
		Scoring: types.ScoringConfig{
			Threshold:     viper.GetFloat64("scoring.threshold"),
			ReferenceYear: viper.GetInt("scoring.reference_year"),
		},
		Citation: types.CitationConfig{
			Style: viper.GetString("citation.style"),
		},
		Search: types.SearchConfig{
			Timeout:    viper.GetDuration("search.timeout"),
			UserAgent:  viper.GetString("search.user_agent"),
			MaxResults: viper.GetInt("search.max_results"),
		},
		Storage: types.StorageConfig{
			DataDir: viper.GetString("storage.data_dir"),
		},
		Output: types.OutputConfig{
			Dir: viper.GetString("output.dir"),
		},
	}

	if viper.IsSet("scoring.weights") {
		cfg.Scoring.Weights = types.Weights{
			Credibility:  viper.GetFloat64("scoring.weights.credibility"),
			Relevance:    viper.GetFloat64("scoring.weights.relevance"),
			Accuracy:     viper.GetFloat64("scoring.weights.accuracy"),
			Completeness: viper.GetFloat64("scoring.weights.completeness"),
			Timeliness:   viper.GetFloat64("scoring.weights.timeliness"),
		}
	}

	for _, name := range []string{"research", "analysis", "content", "publish"} {
		key := "stages." + name
		if !viper.IsSet(key) {
			continue
		}
		cfg.Stages[name] = types.StageConfig{
			Timeout:    viper.GetDuration(key + ".timeout"),
			MaxRetries: viper.GetInt(key + ".max_retries"),
			Critical:   viper.GetBool(key + ".critical"),
		}
	}

	if cfg.Output.Dir == "" {
		cfg.Output.Dir = filepath.Join("output", "documents")
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 15 * time.Second
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
