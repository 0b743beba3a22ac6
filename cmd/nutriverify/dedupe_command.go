package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"nutriverify/internal/catalog"
	"nutriverify/internal/dedupe"
)

func newDedupeCommand(ctx *commandContext) *cobra.Command {
	var (
		threshold  float64
		limit      int
		persist    bool
		stored     bool
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Report near-duplicate record names",
		Long: "Compares folded record names pairwise and reports pairs whose similarity exceeds the\n" +
			"threshold. Pairs are advisory; --persist records them for review, --stored lists what\n" +
			"earlier runs recorded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}

			var candidates []catalog.DuplicateCandidate
			if stored {
				candidates, err = store.ListDuplicateCandidates(cmd.Context(), limit)
				if err != nil {
					return err
				}
			} else {
				if !cmd.Flags().Changed("threshold") {
					threshold = cfg.Dedupe.Threshold
				}
				recs, err := store.List(cmd.Context(), catalog.ListFilter{Limit: limit})
				if err != nil {
					return err
				}
				pool := make([]catalog.Record, 0, len(recs))
				for _, rec := range recs {
					pool = append(pool, *rec)
				}
				candidates = dedupe.ToCandidates(dedupe.NewDetector(threshold).Candidates(pool), time.Now().UTC())
				if persist && len(candidates) > 0 {
					if _, err := store.UpsertDuplicateCandidates(cmd.Context(), candidates); err != nil {
						return fmt.Errorf("persist duplicate candidates: %w", err)
					}
				}
			}

			if jsonOutput {
				type pairView struct {
					LeftID     int64   `json:"left_id"`
					RightID    int64   `json:"right_id"`
					LeftName   string  `json:"left_name"`
					RightName  string  `json:"right_name"`
					Similarity float64 `json:"similarity"`
				}
				var views []pairView
				for _, c := range candidates {
					views = append(views, pairView{c.LeftID, c.RightID, c.LeftName, c.RightName, c.Similarity})
				}
				return writeJSONList(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(candidates) == 0 {
				fmt.Fprintln(out, "No duplicate candidates")
				return nil
			}
			rows := make([][]string, 0, len(candidates))
			for _, c := range candidates {
				rows = append(rows, []string{
					strconv.FormatInt(c.LeftID, 10),
					c.LeftName,
					strconv.FormatInt(c.RightID, 10),
					c.RightName,
					strconv.FormatFloat(c.Similarity, 'f', 3, 64),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Left", "Name", "Right", "Name", "Similarity"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight},
			))
			if persist {
				fmt.Fprintf(out, "Recorded %d candidate pairs\n", len(candidates))
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Similarity threshold (default from config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Only compare the first N records (0 for all)")
	cmd.Flags().BoolVar(&persist, "persist", false, "Record detected pairs in the catalog")
	cmd.Flags().BoolVar(&stored, "stored", false, "List previously recorded pairs")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
