package main

import (
	"github.com/AnthoniusHendriyanto/backoffice-auth/config"
	"github.com/AnthoniusHendriyanto/backoffice-auth/db"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or list schema migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}
			cfg := config.Load()
			return db.Migrate(cmd.Context(), cfg.DBURL, direction)
		},
	}
}
