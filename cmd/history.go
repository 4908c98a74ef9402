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
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/transcritic/internal"
	"github.com/valpere/transcritic/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the run history",
	Long: `List, inspect, and clear the SQLite run history written when --db is set.
The history is an audit log; it is never used to answer a translation request.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs in history.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tLANGUAGE\tSTATE\tEVALUATED\tMISMATCH\tTEXT")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\t%v\t%s\n",
				r.ID, r.Timestamp.Local().Format("2006-01-02 15:04"), r.TargetLanguage,
				r.State, r.State == internal.RunDone && !r.EvaluationFailed, r.LanguageMismatch, snippet(r.OriginalText, 40))
		}
		return w.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		r, err := db.GetRun(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no run with ID %s", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to get run: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:       %s\n", r.ID)
		fmt.Fprintf(out, "Created:  %s\n", r.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Language: %s\n", r.TargetLanguage)
		fmt.Fprintf(out, "State:    %s\n", r.State)
		if r.Error != "" {
			fmt.Fprintf(out, "Error:    %s\n", r.Error)
		}
		if r.LanguageMismatch {
			fmt.Fprintln(out, "Warning:  translation language mismatch")
		}
		fmt.Fprintf(out, "\nOriginal:\n%s\n", r.OriginalText)
		if r.TranslatedText != "" {
			fmt.Fprintf(out, "\nTranslation:\n%s\n", r.TranslatedText)
		}
		switch {
		case r.EvaluationRaw != "":
			fmt.Fprintf(out, "\nEvaluation:\n%s\n", r.EvaluationRaw)
		case r.EvaluationFailed:
			fmt.Fprintln(out, "\nEvaluation: unavailable")
		}
		return nil
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show run history statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Total runs:          %d\n", stats.TotalRuns)
		fmt.Fprintf(out, "Completed runs:      %d\n", stats.CompletedRuns)
		fmt.Fprintf(out, "Without evaluation:  %d\n", stats.DegradedRuns)
		fmt.Fprintf(out, "Failed translations: %d\n", stats.FailedRuns)
		fmt.Fprintf(out, "Language mismatches: %d\n", stats.LanguageMismatches)
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a run by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteRun(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete run: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted run: %s\n", args[0])
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all runs from history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearRuns(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d runs from history.\n", n)
		return nil
	},
}

// snippet shortens s to at most n runes for table output.
func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum runs to list (0 lists all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
}
