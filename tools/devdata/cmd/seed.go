package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pokesag/pokesag/internal/store"
	"github.com/pokesag/pokesag/tools/devdata/dataset"
)

var (
	seedDBFlag     string
	seedRowsFlag   int
	seedSeedFlag   uint64
	seedSpanFlag   time.Duration
	seedDryRunFlag bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert generated pages into a database",
	Long:  "Generates --rows pages spread over the --span before now and inserts them. The same --seed always produces the same pages.",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedDBFlag, "db", "", "database path (required)")
	seedCmd.Flags().IntVar(&seedRowsFlag, "rows", 0, "number of pages to generate (required)")
	seedCmd.Flags().Uint64Var(&seedSeedFlag, "seed", 1, "generator seed")
	seedCmd.Flags().DurationVar(&seedSpanFlag, "span", 24*time.Hour, "time range the pages cover")
	seedCmd.Flags().BoolVar(&seedDryRunFlag, "dry-run", false, "print the pages instead of inserting them")
	_ = seedCmd.MarkFlagRequired("rows")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedRowsFlag <= 0 {
		return fmt.Errorf("--rows must be a positive integer, got %d", seedRowsFlag)
	}
	if seedSpanFlag <= 0 {
		return fmt.Errorf("--span must be positive, got %s", seedSpanFlag)
	}

	gen := dataset.NewGenerator(seedSeedFlag, time.Now().UTC(), seedSpanFlag)
	pages := gen.Pages(seedRowsFlag)

	out := cmd.OutOrStdout()
	if seedDryRunFlag {
		for _, p := range pages {
			fmt.Fprintf(out, "%s  %-9s  %-12s  %s\n", p.RxDate.Format(time.DateTime), p.Recipient, p.Source, p.Content)
		}
		return nil
	}
	if seedDBFlag == "" {
		return fmt.Errorf("--db is required unless --dry-run is set")
	}

	s, err := store.Open(seedDBFlag)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()
	if err := s.InitSchema(); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	if err := s.InsertBatch(cmd.Context(), pages); err != nil {
		return fmt.Errorf("insert pages: %w", err)
	}

	fmt.Fprintf(out, "Inserted %d pages into %s\n", len(pages), s.Path())
	return nil
}
