package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/f4ah6o/docsearch-go/internal/validator"
)

var validateSQLite bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the generated index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		index, closeIndex, err := openIndex(cfg, validateSQLite)
		if err != nil {
			return err
		}
		defer closeIndex()

		index.Load(ctx)
		if err := index.Err(); err != nil {
			return fmt.Errorf("failed to load index: %w", err)
		}
		if report := validator.New().Validate(index.Records(ctx)); !report.OK() {
			return fmt.Errorf("validation failed with %d errors", len(report.Errors))
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateSQLite, "sqlite", false, "validate the SQLite store instead of the JSON index")
	rootCmd.AddCommand(validateCmd)
}
