package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nutriverify/internal/catalog"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		states     []string
		limit      int
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog records",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := catalog.ListFilter{Limit: limit}
			for _, raw := range states {
				state, ok := catalog.ParseState(raw)
				if !ok {
					return fmt.Errorf("unknown state %q", raw)
				}
				filter.States = append(filter.States, state)
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			recs, err := store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if jsonOutput {
				var views []recordView
				for _, rec := range recs {
					views = append(views, newRecordView(rec))
				}
				return writeJSONList(cmd, views)
			}
			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(out, "No records")
				return nil
			}
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(recs))
			for _, rec := range recs {
				rows = append(rows, []string{
					strconv.FormatInt(rec.ID, 10),
					rec.DisplayName(),
					rec.Category,
					rec.Serving.String(),
					formatFloat(rec.Macros.Calories),
					colorState(rec.State, colorize),
					strconv.Itoa(rec.QualityScore),
					strings.Join(rec.ReviewFlags, ","),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Name", "Category", "Serving", "kcal", "State", "Score", "Flags"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&states, "state", "s", nil, "Filter by state (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum records to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a record with its verification audit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			rec, err := store.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("record %d not found", id)
			}
			view := newRecordView(rec)
			if jsonOutput {
				return writeJSON(cmd, view)
			}
			printRecord(cmd, view)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var (
		staleAfter time.Duration
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise catalog verification progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			stats, err := store.Stats(cmd.Context(), staleAfter)
			if err != nil {
				return err
			}
			if jsonOutput {
				byState := make(map[string]int, len(stats.ByState))
				for state, count := range stats.ByState {
					byState[string(state)] = count
				}
				return writeJSON(cmd, map[string]any{
					"total":                stats.Total,
					"by_state":             byState,
					"stale_processing":     stats.StaleProcessing,
					"duplicate_candidates": stats.DuplicateCandidates,
					"average_score":        stats.AverageScore,
				})
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(stats.ByState))
			for _, state := range catalog.AllStates() {
				rows = append(rows, []string{colorState(state, colorize), strconv.Itoa(stats.ByState[state])})
			}
			fmt.Fprintln(out, renderTable([]string{"State", "Records"}, rows,
				[]columnAlignment{alignLeft, alignRight}, "total", strconv.Itoa(stats.Total)))
			fmt.Fprintln(out, renderField("Stale processing", strconv.Itoa(stats.StaleProcessing)))
			fmt.Fprintln(out, renderField("Duplicate candidates", strconv.Itoa(stats.DuplicateCandidates)))
			fmt.Fprintln(out, renderField("Average score", strconv.FormatFloat(stats.AverageScore, 'f', 1, 64)))
			return nil
		},
	}
	cmd.Flags().DurationVar(&staleAfter, "stale-after", 30*time.Minute, "Age after which processing records count as stale")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newRequeueCommand(ctx *commandContext) *cobra.Command {
	var (
		all        bool
		verified   bool
		processing bool
	)
	cmd := &cobra.Command{
		Use:   "requeue [id...]",
		Short: "Return flagged records to unverified after review",
		Long: "Moves flagged records back to unverified and clears their review flags. --verified reopens\n" +
			"verified records instead; --processing releases records stuck in processing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if verified && processing {
				return errors.New("--verified and --processing are mutually exclusive")
			}
			if len(args) == 0 && !all {
				return errors.New("pass record ids or --all")
			}
			if processing && len(args) == 0 {
				return errors.New("--processing requires explicit record ids")
			}
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}

			var updated int64
			switch {
			case processing:
				for _, id := range ids {
					if err := store.Release(cmd.Context(), id); err != nil {
						return err
					}
					updated++
				}
			case verified:
				updated, err = store.Reopen(cmd.Context(), ids...)
			default:
				updated, err = store.Requeue(cmd.Context(), ids...)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d records\n", updated)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Apply to every record in the source state")
	cmd.Flags().BoolVar(&verified, "verified", false, "Reopen verified records")
	cmd.Flags().BoolVar(&processing, "processing", false, "Release records stuck in processing")
	return cmd
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id %q", raw)
	}
	return id, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
