package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Initialize the database schema",
	Long: `Initialize the pokesag database with the pages table and, when SQLite
supports FTS5, the full-text index and its triggers.

It is safe to run multiple times. Use --rebuild-fts to repopulate the
full-text index from the pages table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := MustBeLocal("init-db"); err != nil {
			return err
		}
		logger.Info("initializing database", "path", cfg.DatabasePath())

		s, err := openLocalStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if rebuildFTS {
			if !s.FTS5Available() {
				return fmt.Errorf("rebuild full-text index: SQLite was built without FTS5")
			}
			if err := s.RebuildFTS(cmd.Context()); err != nil {
				return fmt.Errorf("rebuild full-text index: %w", err)
			}
			logger.Info("full-text index rebuilt")
		}

		logger.Info("database initialized successfully")
		return printStats(cmd, s)
	},
}

var rebuildFTS bool

func init() {
	initDBCmd.Flags().BoolVar(&rebuildFTS, "rebuild-fts", false, "repopulate the full-text index")
	rootCmd.AddCommand(initDBCmd)
}
