package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nutriverify/internal/catalog"
	"nutriverify/internal/config"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import catalog records from JSON lines or a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reader io.Reader
			source := strings.TrimSpace(args[0])
			if source == "-" {
				reader = cmd.InOrStdin()
			} else {
				path, err := config.ExpandPath(source)
				if err != nil {
					return err
				}
				file, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open import file: %w", err)
				}
				defer file.Close()
				reader = file
			}

			recs, err := catalog.DecodeImport(reader)
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			count, err := store.InsertMany(cmd.Context(), recs)
			if err != nil {
				return fmt.Errorf("insert records: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records\n", count)
			return nil
		},
	}
}
