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
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/valpere/texdiff/internal/differ"
	"github.com/valpere/texdiff/internal/pipeline"
	"github.com/valpere/texdiff/internal/render"
)

var highlightPreview bool

var highlightCmd = &cobra.Command{
	Use:   "highlight [FILE]",
	Short: "Convert existing word-diff output to LaTeX highlighting",
	Long: `Read output of "git diff --word-diff" (or any tool using {+added+} and
[-removed-] markers) from FILE or stdin and print it with the markers
replaced by LaTeX colour commands.

  git diff --word-diff --no-index old.flat new.flat | texdiff highlight`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open input file: %w", err)
			}
			defer f.Close()
			in = f
		}

		lines, err := readLines(in)
		if err != nil {
			return err
		}
		lines = differ.StripHeader(lines)

		style := appConfig.Style()
		if highlightPreview {
			return render.New(cmd.OutOrStdout(), style).Write(lines)
		}

		result := pipeline.New(nil, pipeline.Config{Style: style, Logger: logger}).Highlight(lines)
		_, err = fmt.Fprint(cmd.OutOrStdout(), result.Text())
		return err
	},
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read diff: %w", err)
	}
	return lines, nil
}

func init() {
	rootCmd.AddCommand(highlightCmd)

	highlightCmd.Flags().BoolVar(&highlightPreview, "preview", false, "Render for the terminal instead of LaTeX")
	highlightCmd.Flags().String("addition-colour", "green", "xcolor name for added text")
	highlightCmd.Flags().String("deletion-colour", "red", "xcolor name for removed text")
}
