package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nutriverify/internal/category"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var (
		brand      string
		useOracle  bool
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "classify <name>...",
		Short: "Classify food names into the category taxonomy",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			classifier := category.New()

			type result struct {
				Name       string            `json:"name"`
				Category   category.Category `json:"category"`
				Method     category.Method   `json:"method"`
				Confidence float64           `json:"confidence,omitempty"`
			}
			results := make([]result, 0, len(args))
			for _, name := range args {
				name = strings.TrimSpace(name)
				results = append(results, result{Name: name, Category: classifier.Classify(name), Method: category.MethodLexical})
			}

			if useOracle {
				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}
				orc, err := ctx.oracle(logger)
				if err != nil {
					return err
				}
				if orc == nil {
					return fmt.Errorf("--oracle requires llm.api_key to be configured")
				}
				minConfidence := float64(cfg.Pipeline.OracleCategoryMinConfidence)
				for i := range results {
					if results[i].Category != category.Other {
						continue
					}
					cls, err := orc.ClassifyCategory(cmd.Context(), results[i].Name, brand)
					if err != nil {
						return err
					}
					if cls.Category != category.Other && cls.Confidence >= minConfidence {
						results[i].Category = cls.Category
						results[i].Method = category.MethodOracle
						results[i].Confidence = cls.Confidence
					}
				}
			}

			if jsonOutput {
				return writeJSON(cmd, results)
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, string(r.Category), string(r.Method)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Name", "Category", "Method"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().StringVar(&brand, "brand", "", "Brand passed to the oracle")
	cmd.Flags().BoolVar(&useOracle, "oracle", false, "Ask the oracle when the lexical classifier returns Other")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
