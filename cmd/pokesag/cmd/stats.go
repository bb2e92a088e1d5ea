package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pokesag/pokesag/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := MustBeLocal("stats"); err != nil {
			return err
		}
		s, err := openLocalStore()
		if err != nil {
			return err
		}
		defer s.Close()
		return printStats(cmd, s)
	},
}

func printStats(cmd *cobra.Command, s *store.Store) error {
	stats, err := s.GetStats(cmd.Context())
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	search := "full-text (FTS5)"
	if !stats.FullText {
		search = "substring fallback (no FTS5)"
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Database: %s\n", s.Path())
	fmt.Fprintf(w, "  Pages:       %d\n", stats.PageCount)
	fmt.Fprintf(w, "  Recipients:  %d\n", stats.RecipientCount)
	fmt.Fprintf(w, "  Sources:     %d\n", stats.SourceCount)
	fmt.Fprintf(w, "  Size:        %.2f MB\n", float64(stats.DatabaseSize)/(1024*1024))
	fmt.Fprintf(w, "  Search:      %s\n", search)
	return nil
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
