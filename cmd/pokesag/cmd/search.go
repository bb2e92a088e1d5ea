package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/pokesag/pokesag/internal/annotate"
	"github.com/pokesag/pokesag/internal/query"
	"github.com/pokesag/pokesag/internal/viewmodel"
)

var (
	searchMode  string
	searchPage  int
	searchJSON  bool
	searchColor string
	search12h   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Print one page of pages or search results",
	Long: `Print one page of received pages, newest first.

With no query, prints the latest pages. Modes:
  fulltext   web-search syntax: words, "quoted phrases", -exclusions, OR
  substring  text contained in the message, or an exact recipient
  source     source name prefix, case-insensitive

Examples:
  pokesag search
  pokesag search cardiac -test
  pokesag search --mode substring 1140792
  pokesag search --mode source FLEX --page 2`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	q := strings.Join(args, " ")
	mode, err := resolveSearchMode(searchMode, q)
	if err != nil {
		return err
	}
	if mode.NeedsQuery() && strings.TrimSpace(q) == "" {
		return fmt.Errorf("%s search needs a query", mode)
	}

	src, err := openPageSource(cmd.Context())
	if err != nil {
		return err
	}
	defer src.Close()

	plan := src.planner.Plan(query.SearchState{Mode: mode, Query: q, Page: searchPage})
	msgs, err := src.Pages(cmd.Context(), plan)
	if err != nil {
		return fmt.Errorf("%s search: %w", mode, err)
	}

	a := annotate.New().WithLogger(logger)
	if src.dictionary != nil {
		a.Load(cmd.Context(), src.dictionary)
	}
	clock := viewmodel.Clock24h
	if search12h || !cfg.Client.Clock24h {
		clock = viewmodel.Clock12h
	}
	rows := viewmodel.Render(msgs, a, clock)

	out := cmd.OutOrStdout()
	if searchJSON {
		return writeSearchJSON(out, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No pages found.")
		return nil
	}
	profile, err := colorProfile(searchColor, out)
	if err != nil {
		return err
	}
	writeSearchTable(out, rows, profile)
	fmt.Fprintf(out, "\nPage %d, %d rows\n", plan.Page, len(rows))
	return nil
}

// resolveSearchMode picks latest mode for an empty query when no mode was
// given, and full-text otherwise.
func resolveSearchMode(flag, q string) (query.Mode, error) {
	if flag == "" {
		if strings.TrimSpace(q) == "" {
			return query.ModeLatest, nil
		}
		if cfg != nil && !cfg.Client.FullText {
			return query.ModeSubstring, nil
		}
		return query.ModeFullText, nil
	}
	return query.ParseMode(flag)
}

// colorProfile decides whether to emit ANSI colors. "auto" colors only a
// terminal and honors NO_COLOR through termenv.
func colorProfile(mode string, w io.Writer) (termenv.Profile, error) {
	switch mode {
	case "never":
		return termenv.Ascii, nil
	case "always":
		return termenv.TrueColor, nil
	case "", "auto":
		f, ok := w.(*os.File)
		if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			return termenv.Ascii, nil
		}
		return termenv.NewOutput(f).EnvColorProfile(), nil
	default:
		return termenv.Ascii, fmt.Errorf("invalid --color %q: expected auto, always or never", mode)
	}
}

const (
	recipientCol = 9
	sourceCol    = 12
)

// writeSearchTable prints rows as an aligned table. Recipients are drawn in
// their color, annotated tokens are underlined, and each row's tooltips
// follow on indented lines.
func writeSearchTable(w io.Writer, rows []viewmodel.Row, profile termenv.Profile) {
	out := termenv.NewOutput(w, termenv.WithProfile(profile))
	timeCol := 0
	for _, r := range rows {
		timeCol = max(timeCol, runewidth.StringWidth(r.Received))
	}

	header := strings.Join([]string{
		pad("RECEIVED", timeCol),
		pad("RECIPIENT", recipientCol),
		pad("SOURCE", sourceCol),
		"MESSAGE",
	}, "  ")
	fmt.Fprintln(w, out.String(header).Bold())

	for _, r := range rows {
		recipient := out.String(pad(r.Message.Recipient, recipientCol)).
			Foreground(out.Color(r.Color.Hex())).
			Bold()

		var content strings.Builder
		for _, seg := range r.Segments {
			text := oneLine(seg.Text)
			if seg.Decorated() {
				content.WriteString(out.String(text).Underline().String())
			} else {
				content.WriteString(text)
			}
		}

		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			pad(r.Received, timeCol),
			recipient,
			pad(r.Message.Source, sourceCol),
			content.String(),
		)
		seen := map[string]bool{}
		for _, seg := range r.Segments {
			if seg.Decorated() && !seen[seg.Text] {
				seen[seg.Text] = true
				fmt.Fprintf(w, "%s  %s\n", strings.Repeat(" ", timeCol),
					out.String(seg.Text+": "+seg.Tooltip).Faint())
			}
		}
	}
}

// pad fits s to width cells, truncating with "...".
func pad(s string, width int) string {
	s = oneLine(s)
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "...")
	}
	return runewidth.FillRight(s, width)
}

func oneLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(s)
}

// searchRow is the JSON form of a search result.
type searchRow struct {
	ID        int64             `json:"id"`
	RxDate    string            `json:"rx_date"`
	Source    string            `json:"source"`
	Recipient string            `json:"recipient"`
	Content   string            `json:"content"`
	Color     string            `json:"color"`
	Codes     map[string]string `json:"codes,omitempty"`
}

func writeSearchJSON(w io.Writer, rows []viewmodel.Row) error {
	output := make([]searchRow, len(rows))
	for i, r := range rows {
		sr := searchRow{
			ID:        r.Message.ID,
			RxDate:    r.Message.RxDate.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Source:    r.Message.Source,
			Recipient: r.Message.Recipient,
			Content:   r.Message.Content,
			Color:     r.Color.String(),
		}
		for _, seg := range r.Segments {
			if seg.Decorated() {
				if sr.Codes == nil {
					sr.Codes = map[string]string{}
				}
				sr.Codes[seg.Text] = seg.Tooltip
			}
		}
		output[i] = sr
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func init() {
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "", "search mode: latest, fulltext, substring or source")
	searchCmd.Flags().IntVarP(&searchPage, "page", "p", 1, "page number")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output JSON")
	searchCmd.Flags().StringVar(&searchColor, "color", "auto", "colorize output: auto, always or never")
	searchCmd.Flags().BoolVar(&search12h, "12h", false, "print 12-hour receive times")
	rootCmd.AddCommand(searchCmd)
}
