/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valpere/knyhotran/internal/config"
	"github.com/valpere/knyhotran/internal/store"
)

var (
	inputFile    string
	configFile   string
	providerName string
	targetLang   string
	noCache      bool
	verbose      bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate one chapter JSON file to an HTML page",
	Long: `Translate a single scraped chapter record (JSON with book, index,
title, content) and write the rendered HTML page under the book's
output directory.

The chapter is split into 100-line chunks; chunks the provider cannot
handle are recursively halved down to a 500-character floor, transient
failures are retried, and the reassembled translation must pass a
completeness check before anything is written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if providerName != "" {
			cfg.Provider = providerName
		}
		if targetLang != "" {
			cfg.TargetLang = targetLang
		}
		if noCache {
			cfg.NoCache = true
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration: %w", err)
		}

		prov, err := buildProvider(cfg)
		if err != nil {
			return err
		}

		ctx := context.Background()

		var db *store.Store
		if !cfg.NoCache && cfg.DBPath != "" {
			db, err = store.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
		}

		runner := buildRunner(cfg, prov, db, newLogger(verbose))

		outPath, err := translateChapterFile(ctx, cfg, runner, db, prov.Name(), inputFile)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Wrote %s\n", outPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Chapter JSON file to translate (required)")
	translateCmd.Flags().StringVar(&configFile, "config", "", "Config file (default ./knyhotran.yaml)")
	translateCmd.Flags().StringVarP(&providerName, "provider", "p", "", "Translation provider: openai, gemini, ollama, google")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language code")
	translateCmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable the chunk translation memory")
	translateCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	translateCmd.MarkFlagRequired("input")
}
