package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pokesag/pokesag/internal/annotate"
	"github.com/pokesag/pokesag/internal/tui"
	"github.com/pokesag/pokesag/internal/viewmodel"
)

var (
	tuiAutoRefresh bool
	tuiSubstring   bool
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive pager viewer",
	Long: `Open a terminal viewer over received pages.

Recipients are drawn in a stable per-recipient color and known codes are
underlined, with their tooltips shown for the selected row.

Navigation:
  ↑/k, ↓/j    Move up/down
  n, p        Next / previous page
  g           Reload page 1
  r           Refresh now
  a           Toggle auto-refresh
  Enter       Search for the selected recipient
  /           Search (Tab switches full-text/substring, "source:NAME")
  c, Esc      Back to the latest pages
  t           Toggle 12/24-hour clock
  f           Toggle full-text/substring for plain searches
  q           Quit

The a, t and f toggles are remembered in viewer.toml in the pokesag home
directory and override the [client] defaults on the next start.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := openPageSource(cmd.Context())
		if err != nil {
			return err
		}
		defer src.Close()

		vm := viewmodel.New(src, viewmodel.Options{
			Planner:         src.planner,
			Annotator:       annotate.New().WithLogger(logger),
			RefreshInterval: src.refresh,
			Logger:          logger,
		})
		defer vm.Close()

		prefs, err := cfg.LoadPrefs()
		if err != nil {
			logger.Warn("ignoring saved viewer settings", "error", err)
		}
		model := tui.New(vm, tui.Options{
			FullText:    prefs.FullText && !tuiSubstring,
			Clock24h:    prefs.Clock24h,
			AutoRefresh: prefs.AutoRefresh || tuiAutoRefresh,
			Version:     Version,
			Dictionary:  src.dictionary,
			Prefs:       cfg,
		})
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		tui.Watch(vm, p)

		if _, err := p.Run(); err != nil {
			return fmt.Errorf("run tui: %w", err)
		}
		return nil
	},
}

func init() {
	tuiCmd.Flags().BoolVar(&tuiAutoRefresh, "auto-refresh", false, "start with auto-refresh on")
	tuiCmd.Flags().BoolVar(&tuiSubstring, "substring", false, "plain searches use substring matching instead of full-text")
	rootCmd.AddCommand(tuiCmd)
}
