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
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the comparison history",
	Long:  `List, inspect, and clear the SQLite comparison history and output cache.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded comparisons",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(appConfig.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.ListComparisons(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list comparisons: %w", err)
		}

		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No comparisons recorded.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWHEN\tOLD\tNEW\tADDED\tREMOVED\tWARNINGS\tCACHED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%v\n",
				e.ID, e.Timestamp.Format("2006-01-02 15:04"),
				snippet(e.OldPath), snippet(e.NewPath),
				e.Additions, e.Deletions, e.Warnings, e.FromCache)
		}
		return w.Flush()
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show comparison history statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(appConfig.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Comparisons:     %d\n", stats.Comparisons)
		fmt.Fprintf(out, "Served by cache: %d\n", stats.CacheHits)
		fmt.Fprintf(out, "Words added:     %d\n", stats.TotalAdditions)
		fmt.Fprintf(out, "Words removed:   %d\n", stats.TotalDeletions)
		fmt.Fprintf(out, "Cached outputs:  %d\n", stats.CachedOutputs)
		fmt.Fprintf(out, "Cache usage:     %d\n", stats.CacheUsage)
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recorded comparison by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(appConfig.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteComparison(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete comparison: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted comparison: %s\n", args[0])
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded comparisons and cached output",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(appConfig.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		outputs, err := db.ClearOutput(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		comparisons, err := db.ClearHistory(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d comparisons and %d cached outputs.\n", comparisons, outputs)
		return nil
	},
}

func snippet(s string) string {
	if len(s) > 40 {
		return "..." + s[len(s)-37:]
	}
	return s
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.PersistentFlags().String("db", "./data/texdiff.db", "Database path")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of comparisons to list (0 = all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
}
