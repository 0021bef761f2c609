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
	"os"

	"github.com/spf13/cobra"

	"github.com/valpere/texdiff/internal/flatten"
)

var flattenOutput string

var flattenCmd = &cobra.Command{
	Use:   "flatten INPUT",
	Short: "Reduce a LaTeX document to one line per paragraph",
	Long: `Extract the body of a LaTeX document (between \begin{document} and
\end{document}) and unwrap every paragraph onto a single line, paragraphs
separated by one blank line.

This is the form texdiff compares; it is useful on its own for checking
what a comparison will see. Without --output the result goes to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		opts := appConfig.Markers()

		if flattenOutput != "" {
			if same(flattenOutput, input) {
				return fmt.Errorf("input file and output file cannot be the same")
			}
			res, err := flatten.FlattenFile(input, flattenOutput, opts)
			if err != nil {
				return err
			}
			logWarnings(input, res.Warnings)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d paragraphs to %s\n", len(res.Paragraphs), flattenOutput)
			return nil
		}

		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("%w: %w", flatten.ErrNotFound, err)
		}
		defer f.Close()

		res, err := flatten.FlattenReader(f, opts)
		if err != nil {
			return err
		}
		logWarnings(input, res.Warnings)
		_, err = fmt.Fprintln(cmd.OutOrStdout(), res.String())
		return err
	},
}

func init() {
	rootCmd.AddCommand(flattenCmd)

	flattenCmd.Flags().StringVarP(&flattenOutput, "output", "o", "", "Output file (default stdout)")
	flattenCmd.Flags().String("begin-marker", `\begin{document}`, "Line marking the start of the document body")
	flattenCmd.Flags().String("end-marker", `\end{document}`, "Line marking the end of the document body")
}
