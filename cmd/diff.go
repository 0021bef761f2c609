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
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/valpere/texdiff/internal"
	"github.com/valpere/texdiff/internal/config"
	"github.com/valpere/texdiff/internal/pipeline"
	"github.com/valpere/texdiff/internal/render"
	"github.com/valpere/texdiff/internal/store"
)

var (
	diffOutput  string
	diffPreview bool
	diffStdout  bool
)

var diffCmd = &cobra.Command{
	Use:   "diff OLD NEW",
	Short: "Compare two versions of a LaTeX document",
	Long: `Compare two versions of a LaTeX document word by word.

Both files are reduced to their document body with one line per paragraph,
compared with "git diff --word-diff --no-index", and the result is written
with LaTeX highlighting:

  added text    \textcolor{<addition-colour>}{...}
  removed text  \textcolor{<deletion-colour>}{\st{...}}

The output needs \usepackage{xcolor} and \usepackage{soul} to compile.

Use --preview to show the comparison in the terminal instead.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldPath, newPath := args[0], args[1]
		if !diffStdout && !diffPreview {
			if same(diffOutput, oldPath) || same(diffOutput, newPath) {
				return fmt.Errorf("output file cannot be one of the input files")
			}
		}

		ctx := cmd.Context()
		cfg := appConfig
		style := cfg.Style()
		provider := buildProvider(cfg)

		p := pipeline.New(provider, pipeline.Config{
			Style:   style,
			Markers: cfg.Markers(),
			Timeout: cfg.Timeout,
			Logger:  logger,
		})

		oldDoc, newDoc, err := p.Flatten(ctx, oldPath, newPath)
		if err != nil {
			return err
		}

		key := store.OutputKey{
			OldHash:        store.ContentHash(oldDoc.Flat),
			NewHash:        store.ContentHash(newDoc.Flat),
			AdditionColour: style.Addition,
			DeletionColour: style.Deletion,
			Provider:       providerKey(cfg, provider),
		}
		record := internal.Comparison{
			ID:             uuid.New().String(),
			OldPath:        oldPath,
			NewPath:        newPath,
			OldHash:        key.OldHash,
			NewHash:        key.NewHash,
			AdditionColour: style.Addition,
			DeletionColour: style.Deletion,
			Provider:       provider.Name(),
			Warnings:       len(oldDoc.Warnings) + len(newDoc.Warnings),
			Timestamp:      time.Now(),
		}
		if !diffStdout && !diffPreview {
			record.OutputPath = diffOutput
		}

		var db *store.Store
		if !cfg.NoCache && cfg.DBPath != "" {
			db, err = openStore(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
		}

		// Preview needs the raw word diff, which is not cached.
		if db != nil && !diffPreview {
			cached, found, cacheErr := db.GetCachedOutput(ctx, key)
			if cacheErr != nil {
				logger.Warn("cache lookup failed", "error", cacheErr)
			}
			if found {
				logger.Info("using cached comparison")
				if err := emit(cmd, cached.Text); err != nil {
					return err
				}
				record.FromCache = true
				record.Additions, record.Deletions = cached.Additions, cached.Deletions
				if err := db.SaveComparison(ctx, record); err != nil {
					logger.Warn("failed to record comparison", "error", err)
				}
				if !diffStdout {
					fmt.Fprintf(cmd.OutOrStdout(), "Changes: %d additions, %d deletions\n", cached.Additions, cached.Deletions)
				}
				return nil
			}
		}

		result, err := p.Compare(ctx, oldDoc, newDoc)
		if err != nil {
			return err
		}

		if diffPreview {
			return render.New(cmd.OutOrStdout(), style).Write(result.Raw)
		}

		text := result.Text()
		if err := emit(cmd, text); err != nil {
			return err
		}

		if db != nil {
			record.Additions = result.Additions
			record.Deletions = result.Deletions
			cached := store.CachedOutput{Text: text, Additions: result.Additions, Deletions: result.Deletions}
			if err := db.SaveOutput(ctx, key, cached); err != nil {
				logger.Warn("failed to cache comparison", "error", err)
			}
			if err := db.SaveComparison(ctx, record); err != nil {
				logger.Warn("failed to record comparison", "error", err)
			}
		}

		if !diffStdout {
			fmt.Fprintf(cmd.OutOrStdout(), "Changes: %d additions, %d deletions\n", result.Additions, result.Deletions)
		}
		return nil
	},
}

// emit writes text to the output file or, with --stdout, to the command's
// output stream.
func emit(cmd *cobra.Command, text string) error {
	if diffStdout {
		_, err := fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	}
	if err := writeOutput(diffOutput, text); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", diffOutput)
	return nil
}

func same(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().StringVarP(&diffOutput, "output", "o", config.DefaultOutput, "Output file for the highlighted LaTeX")
	diffCmd.Flags().BoolVar(&diffStdout, "stdout", false, "Write the highlighted LaTeX to stdout instead of a file")
	diffCmd.Flags().BoolVar(&diffPreview, "preview", false, "Show the comparison in the terminal instead of writing LaTeX")

	diffCmd.Flags().String("addition-colour", "green", "xcolor name for added text")
	diffCmd.Flags().String("deletion-colour", "red", "xcolor name for removed text")
	diffCmd.Flags().Int("context-lines", 5000, "Context lines passed to git diff (-U)")
	diffCmd.Flags().String("begin-marker", `\begin{document}`, "Line marking the start of the document body")
	diffCmd.Flags().String("end-marker", `\end{document}`, "Line marking the end of the document body")
	diffCmd.Flags().Duration("timeout", time.Minute, "Maximum time allowed for the diff tool")
	diffCmd.Flags().String("git", "git", "git executable")

	diffCmd.Flags().String("db", config.DefaultDBPath, "Database path for comparison history")
	diffCmd.Flags().Bool("no-cache", false, "Disable comparison history and output cache")
}
