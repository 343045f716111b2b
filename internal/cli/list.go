package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jask/cortracker/internal/config"
	"github.com/jask/cortracker/internal/cor"
	"github.com/jask/cortracker/internal/csvcodec"
	"github.com/jask/cortracker/internal/display"
	"github.com/jask/cortracker/internal/store"
	"github.com/jask/cortracker/internal/view"
)

// filterFlags are shared by list and board.
type filterFlags struct {
	query    string
	statuses []string
	trades   []string
	subs     []string
	tags     []string
	min      string
	max      string
	aging    string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.query, "q", "q", "", "Search COR number, title, sub, trade, owner ref, RFI and tags")
	fl.StringSliceVar(&f.statuses, "status", nil, "Only these statuses (repeatable or comma separated)")
	fl.StringSliceVar(&f.trades, "trade", nil, "Only these trades")
	fl.StringSliceVar(&f.subs, "sub", nil, "Only these subcontractors")
	fl.StringSliceVar(&f.tags, "tag", nil, "Records carrying any of these tags")
	fl.StringVar(&f.min, "min", "", "Minimum amount")
	fl.StringVar(&f.max, "max", "", "Maximum amount")
	fl.StringVar(&f.aging, "aging", "any", "Aging bucket: any, >30, >60 or >90")
}

func (f *filterFlags) filters() (view.Filters, error) {
	statuses, err := parseStatuses(f.statuses)
	if err != nil {
		return view.Filters{}, err
	}
	aging, err := parseAging(f.aging)
	if err != nil {
		return view.Filters{}, err
	}
	return view.Filters{
		Query:          f.query,
		Statuses:       statuses,
		Trades:         f.trades,
		Subcontractors: f.subs,
		Tags:           f.tags,
		MinAmount:      view.ParseBound(f.min),
		MaxAmount:      view.ParseBound(f.max),
		Aging:          aging,
	}, nil
}

func newListCommand(s *session) *cobra.Command {
	var (
		ff     filterFlags
		sortBy string
		desc   bool
		output string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the filtered and sorted COR table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := ff.filters()
			if err != nil {
				return err
			}
			sort := view.DefaultSort
			if sortBy != "" {
				key, err := parseSortKey(sortBy)
				if err != nil {
					return err
				}
				sort = view.Sort{Key: key, Dir: view.Asc}
				if desc {
					sort.Dir = view.Desc
				}
			}
			now := s.now()
			snap := configureView(s.app.Store, filters, sort, store.ViewTable)
			rows := snap.Project(now)

			out := cmd.OutOrStdout()
			switch output {
			case "table":
				renderTable(out, s.app.Config.UI, rows, now)
				renderSummary(out, s.app.Config.UI.CurrencySymbol, len(rows), view.Summarize(snap.Records, now))
				return nil
			case "csv":
				if err := csvcodec.Write(out, rows); err != nil {
					return err
				}
				_, err := fmt.Fprintln(out)
				return err
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if rows == nil {
					rows = []cor.Record{}
				}
				return enc.Encode(rows)
			}
			return unknownName("output", output, []string{"table", "csv", "json"})
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort key (default createdAt, newest first)")
	cmd.Flags().BoolVar(&desc, "desc", false, "Sort descending")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, csv or json")
	return cmd
}

// configureView puts filters, sort and display mode on the store so the
// snapshot carries the same view configuration the TUI would use.
func configureView(st *store.Store, f view.Filters, sort view.Sort, mode store.View) store.Snapshot {
	st.ResetFilters()
	st.SetFilters(view.FilterPatch{
		Query:          &f.Query,
		Statuses:       &f.Statuses,
		Trades:         &f.Trades,
		Subcontractors: &f.Subcontractors,
		Tags:           &f.Tags,
		MinAmount:      f.MinAmount,
		MaxAmount:      f.MaxAmount,
		Aging:          &f.Aging,
	})
	st.SetSort(sort)
	st.SetView(mode)
	return st.Snapshot()
}

func renderTable(w io.Writer, ui config.UIConfig, rows []cor.Record, now time.Time) {
	loc := display.Location(ui.Timezone)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("COR", "TITLE", "SUB", "TRADE", "SUBMITTED", "DUE", "STATUS", "PRIORITY", "AMOUNT", "AGE", "TAGS")
	for _, r := range rows {
		t.Row(
			r.CORNumber,
			display.Truncate(r.Title, 40),
			display.Truncate(r.Subcontractor, 24),
			display.Text(r.Trade),
			display.Date(r.SubmittedAt, ui.DateFormat, loc),
			display.Date(r.DueAt, ui.DateFormat, loc),
			r.Status.String(),
			r.Priority.String(),
			display.Currency(ui.CurrencySymbol, r.Amount),
			ageCell(r, now),
			display.Tags(r.Tags),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func ageCell(r cor.Record, now time.Time) string {
	if r.SubmittedAt == nil {
		return display.Missing
	}
	return strconv.Itoa(r.AgeDays(now)) + "d"
}

func renderSummary(w io.Writer, symbol string, shown int, m view.Metrics) {
	fmt.Fprintf(w, "%s of %s records | open %s | closed %s | pending %s | >30d %d | >60d %d | >90d %d\n",
		display.Count(shown), display.Count(m.Total), display.Count(m.OpenCount), display.Count(m.Closed()),
		display.Currency(symbol, m.PendingValue), m.Over30, m.Over60, m.Over90)
}

func newBoardCommand(s *session) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Print records grouped by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := ff.filters()
			if err != nil {
				return err
			}
			snap := configureView(s.app.Store, filters, view.DefaultSort, store.ViewKanban)
			rows := snap.Project(s.now())
			out := cmd.OutOrStdout()
			heading := lipgloss.NewStyle().Bold(true)
			for _, col := range view.Board(rows) {
				fmt.Fprintln(out, heading.Render(fmt.Sprintf("%s (%d)", col.Status, len(col.Records))))
				for _, r := range col.Records {
					fmt.Fprintf(out, "  %-10s %-40s %12s  %s\n",
						r.CORNumber, display.Truncate(r.Title, 40),
						display.Currency(s.app.Config.UI.CurrencySymbol, r.Amount), r.Priority)
				}
			}
			return nil
		},
	}
	ff.register(cmd)
	return cmd
}
