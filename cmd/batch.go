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
	"path/filepath"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/valpere/knyhotran/internal/config"
	"github.com/valpere/knyhotran/internal/store"
)

var batchDir string

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Translate every chapter JSON file in a directory",
	Long: `Translate all *.json chapter records found in a directory, in
filename order. Chapters that fail are reported at the end; the command
exits non-zero if any chapter failed. Already-translated chunks are
served from the translation memory, so re-running a partially failed
batch only pays for what is missing.`,
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

		files, err := filepath.Glob(filepath.Join(batchDir, "*.json"))
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no chapter files in %s", batchDir)
		}
		sort.Strings(files)

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

		bar := progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("chapters"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)

		var failed []string
		for _, file := range files {
			if _, err := translateChapterFile(ctx, cfg, runner, db, prov.Name(), file); err != nil {
				fmt.Fprintf(os.Stderr, "\n%s: %v\n", file, err)
				failed = append(failed, file)
			}
			_ = bar.Add(1)
		}
		fmt.Fprintln(os.Stderr)

		fmt.Printf("Translated %d/%d chapters\n", len(files)-len(failed), len(files))
		if len(failed) > 0 {
			for _, f := range failed {
				fmt.Printf("  failed: %s\n", f)
			}
			return fmt.Errorf("%d chapters failed", len(failed))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchDir, "dir", "d", "", "Directory of chapter JSON files (required)")
	batchCmd.MarkFlagRequired("dir")
}
