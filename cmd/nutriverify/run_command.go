package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"nutriverify/internal/dedupe"
	"nutriverify/internal/logging"
	"nutriverify/internal/notifications"
	"nutriverify/internal/pipeline"
	"nutriverify/internal/rules"
	"nutriverify/internal/verification"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		batchSize   int
		shardOffset int
		shards      int
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Claim and verify one batch of unverified records",
		Long: "Claims up to --batch-size unverified records starting at --shard-offset, runs each through\n" +
			"the rule engine and correction loop, and persists verified or flagged outcomes. Records the\n" +
			"oracle could not be reached for are returned to unverified.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			orc, err := ctx.oracle(logger)
			if err != nil {
				return err
			}
			lookup, err := ctx.lookup(logger)
			if err != nil {
				return err
			}

			opts := []verification.Option{
				verification.WithSettings(verification.SettingsFromConfig(cfg.Pipeline)),
				verification.WithLogger(logger),
			}
			if lookup != nil {
				opts = append(opts, verification.WithLookup(lookup))
			}
			controller := verification.NewController(rules.NewEngine(rules.ThresholdsFromConfig(cfg.Rules)), orc, opts...)

			notifier := notifications.NewService(cfg)
			settings := pipeline.SettingsFromConfig(cfg)
			if cmd.Flags().Changed("batch-size") {
				settings.BatchSize = batchSize
			}
			runner, err := pipeline.NewRunner(pipeline.Deps{
				Store:      store,
				Controller: controller,
				Oracle:     orc,
				Detector:   dedupe.NewDetector(cfg.Dedupe.Threshold),
				Notifier:   notifier,
				Logger:     logger,
			}, settings)
			if err != nil {
				return err
			}

			var summary pipeline.Summary
			if shards > 1 {
				offsets := make([]int, shards)
				for i := range offsets {
					offsets[i] = shardOffset + i*settings.BatchSize
				}
				summary, err = runner.RunShards(cmd.Context(), offsets)
			} else {
				summary, err = runner.RunBatch(cmd.Context(), shardOffset)
			}
			if err != nil {
				if notifyErr := notifier.NotifyError(context.WithoutCancel(cmd.Context()), err, "batch run"); notifyErr != nil {
					logger.Warn("error notification failed", logging.Error(notifyErr))
				}
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, summary)
			}
			printSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Records to claim (1-5, default from config)")
	cmd.Flags().IntVar(&shardOffset, "shard-offset", 0, "Offset into the unverified queue")
	cmd.Flags().IntVar(&shards, "shards", 1, "Concurrent shards, each starting one batch further along")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output summary as JSON")
	return cmd
}

func printSummary(cmd *cobra.Command, summary pipeline.Summary) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Batch "+summary.RunID, colorize) {
		fmt.Fprintln(out, line)
	}
	rows := [][]string{
		{"claimed", strconv.Itoa(summary.Claimed)},
		{"processed", strconv.Itoa(summary.Processed)},
		{"verified", strconv.Itoa(summary.Verified)},
		{"flagged", strconv.Itoa(summary.Flagged)},
		{"retried", strconv.Itoa(summary.Retried)},
		{"errors", strconv.Itoa(summary.Errors)},
		{"duplicate candidates", strconv.Itoa(summary.DuplicateCandidates)},
		{"remaining", strconv.Itoa(summary.Remaining)},
	}
	fmt.Fprintln(out, renderTable([]string{"Result", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	fmt.Fprintln(out, renderField("Duration", summary.Duration.Round(time.Millisecond).String()))
}
