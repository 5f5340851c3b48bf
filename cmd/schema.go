package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"recipebook/crawler/internal/storage/postgres"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Prints the catalog DDL",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), postgres.Schema)
		},
	}
}
