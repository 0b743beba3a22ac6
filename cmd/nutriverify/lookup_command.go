package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"nutriverify/internal/reference"
)

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var (
		brand      string
		grams      float64
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "lookup <name>",
		Short: "Search the nutrient reference provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			lookup, err := ctx.lookup(logger)
			if err != nil {
				return err
			}
			if lookup == nil {
				return errors.New("reference lookups require reference.api_key (or FDC_API_KEY)")
			}
			query := reference.Query{Name: strings.Join(args, " "), Brand: brand}
			match, err := lookup.Lookup(cmd.Context(), query, grams)
			if errors.Is(err, reference.ErrNoMatch) {
				fmt.Fprintf(cmd.OutOrStdout(), "No reference match for %q\n", query.Name)
				return nil
			}
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, match)
			}

			out := cmd.OutOrStdout()
			for _, line := range renderSectionHeader(match.Description, shouldColorize(out)) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderField("FDC ID", strconv.FormatInt(match.FDCID, 10)))
			fmt.Fprintln(out, renderField("Data type", match.DataType))
			if match.Brand != "" {
				fmt.Fprintln(out, renderField("Brand", match.Brand))
			}
			fmt.Fprintln(out, renderField("Strategy", match.Strategy))
			fmt.Fprintln(out, renderField("Similarity", strconv.FormatFloat(match.Similarity, 'f', 2, 64)))
			fmt.Fprintln(out, renderField("Per 100 g", formatMacros(match.PerHundred.Macros)))
			fmt.Fprintln(out, renderField(fmt.Sprintf("Per %s g", formatFloat(match.MassGrams)), formatMacros(match.Scaled.Macros)))
			return nil
		},
	}
	cmd.Flags().StringVar(&brand, "brand", "", "Brand used for the branded search strategy")
	cmd.Flags().Float64Var(&grams, "grams", 100, "Serving mass to scale reference values to")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
