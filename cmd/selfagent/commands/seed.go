package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Fyuan0206/SelfAgent/pkg/skills"
)

// NewSeedCmd creates the seed command: write the built-in DBT catalog into a
// fresh sqlite database.
func NewSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed a sqlite skill catalog",
		Long: `Create the skill catalog database and load the built-in DBT catalog:
four modules, fifteen skills, and twelve matching rules.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			store, err := skills.OpenSQLite(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := skills.Seed(cmd.Context(), store); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded catalog at %s\n", dbPath)
			return nil
		},
	}

	cmd.Flags().String("db", "selfagent.db", "Path for the sqlite catalog")
	return cmd
}
