package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"

	"github.com/jask/cortracker/internal/config"
	"github.com/jask/cortracker/internal/cor"
	"github.com/jask/cortracker/internal/display"
	"github.com/jask/cortracker/internal/logger"
	"github.com/jask/cortracker/internal/service"
	"github.com/jask/cortracker/internal/store"
	"github.com/jask/cortracker/internal/view"
)

// App is the bubbletea model over a record store.
type App struct {
	ctx       context.Context
	store     *store.Store
	services  Services
	ui        config.UIConfig
	memo      *view.Memo
	log       *logger.Logger
	now       func() time.Time
	tz        *time.Location
	exportDir string

	snap    store.Snapshot
	rows    []cor.Record // projected, in display order
	metrics view.Metrics
	cursor  int
	width   int

	modal       modalState
	input       string
	facetCursor int
	pendingNum  string
	deleteID    string
	status      string
	lastImport  *service.ImportResult
}

// Services are the file-facing operations the TUI can trigger.
type Services struct {
	Import *service.ImportService
	Export *service.ExportService
}

// Options configures New.
type Options struct {
	Store    *store.Store
	Services Services
	UI       config.UIConfig
	Log      *logger.Logger
	Now      func() time.Time
	// ExportDir receives CORs-YYYY-MM-DD.csv files; empty means the working directory.
	ExportDir string
}

type modalState string

const (
	modalNone          modalState = ""
	modalSearch        modalState = "search"
	modalImport        modalState = "import"
	modalNewNumber     modalState = "newNumber"
	modalNewTitle      modalState = "newTitle"
	modalConfirmDelete modalState = "confirmDelete"
	modalFacets        modalState = "facets"
	modalMinAmount     modalState = "minAmount"
	modalMaxAmount     modalState = "maxAmount"
)

// New builds the model and takes the first projection.
func New(ctx context.Context, opts Options) *App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if opts.UI.AmountStep <= 0 {
		opts.UI.AmountStep = 100
	}
	if opts.UI.DateFormat == "" {
		opts.UI.DateFormat = time.DateOnly
	}
	a := &App{
		ctx:       ctx,
		store:     opts.Store,
		services:  opts.Services,
		ui:        opts.UI,
		memo:      view.NewMemo(time.Minute),
		log:       opts.Log,
		now:       opts.Now,
		tz:        display.Location(opts.UI.Timezone),
		exportDir: opts.ExportDir,
	}
	a.refresh()
	return a
}

// Run starts the program on the alternate screen and blocks until it quits.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (a *App) Init() tea.Cmd { return nil }

// refresh re-reads the store and re-projects, keeping the cursor on the same
// record when it is still visible.
func (a *App) refresh() {
	var selected string
	if r, ok := a.selected(); ok {
		selected = r.ID
	}
	a.snap = a.store.Snapshot()
	now := a.now()
	projected := a.memo.Project(a.snap.Version, a.snap.Records, a.snap.Filters, a.snap.Sort, now)
	if a.snap.View == store.ViewKanban {
		projected = flatten(view.Board(projected))
	}
	a.rows = projected
	a.metrics = a.memo.Summarize(a.snap.Version, a.snap.Records, now)
	a.log.Debug("projected", "version", a.snap.Version, "rows", len(a.rows), "memo_entries", a.memo.Len())

	a.cursor = min(a.cursor, max(len(a.rows)-1, 0))
	for i, r := range a.rows {
		if r.ID == selected {
			a.cursor = i
			break
		}
	}
}

func flatten(cols []view.Column) []cor.Record {
	var out []cor.Record
	for _, c := range cols {
		out = append(out, c.Records...)
	}
	return out
}

func (a *App) selected() (cor.Record, bool) {
	if a.cursor < 0 || a.cursor >= len(a.rows) {
		return cor.Record{}, false
	}
	return a.rows[a.cursor], true
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = m.Width
	case tea.KeyMsg:
		if a.modal != modalNone {
			return a.handleModalKey(m)
		}
		return a.handleKey(m)
	case changedMsg:
		a.status = string(m)
		a.refresh()
	case importDoneMsg:
		a.lastImport = &m.Result
		a.status = fmt.Sprintf("imported %d records from %s", m.Result.Imported, filepath.Base(m.Path))
		a.refresh()
	case statusMsg:
		a.status = string(m)
	case errMsg:
		a.status = "error: " + m.Error()
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.rows)-1 {
			a.cursor++
		}
	case "home":
		a.cursor = 0
	case "end":
		a.cursor = max(len(a.rows)-1, 0)
	case "v":
		a.store.ToggleView()
		a.refresh()
	case "a":
		if r, ok := a.selected(); ok {
			return a, a.mutateCmd(func() bool { return a.store.AdvanceStatus(r.ID) }, r.CORNumber+" advanced")
		}
	case "p":
		if r, ok := a.selected(); ok {
			return a, a.mutateCmd(func() bool { return a.store.CyclePriority(r.ID) }, r.CORNumber+" priority changed")
		}
	case "+", "=":
		if r, ok := a.selected(); ok {
			return a, a.mutateCmd(func() bool { return a.store.AdjustAmount(r.ID, a.ui.AmountStep) }, r.CORNumber+" amount raised")
		}
	case "-", "_":
		if r, ok := a.selected(); ok {
			return a, a.mutateCmd(func() bool { return a.store.AdjustAmount(r.ID, -a.ui.AmountStep) }, r.CORNumber+" amount lowered")
		}
	case "x":
		if r, ok := a.selected(); ok {
			a.deleteID = r.ID
			a.modal = modalConfirmDelete
		}
	case "n":
		a.modal = modalNewNumber
		a.input = ""
		a.pendingNum = ""
	case "/":
		a.modal = modalSearch
		a.input = a.snap.Filters.Query
	case "i":
		a.modal = modalImport
		a.input = ""
	case "e":
		a.status = "exporting..."
		return a, a.exportCmd()
	case "s":
		a.store.SortBy(nextSortKey(a.snap.Sort.Key))
		a.refresh()
		a.status = "sort: " + a.snap.Sort.String()
	case "S":
		a.store.SortBy(a.snap.Sort.Key)
		a.refresh()
		a.status = "sort: " + a.snap.Sort.String()
	case "g":
		next := a.snap.Filters.Aging.Next()
		a.store.SetFilters(view.FilterPatch{Aging: &next})
		a.refresh()
		a.status = "aging: " + next.String()
	case "f":
		a.modal = modalFacets
		a.facetCursor = 0
	case "m":
		a.modal = modalMinAmount
		a.input = formatBound(a.snap.Filters.MinAmount)
	case "M":
		a.modal = modalMaxAmount
		a.input = formatBound(a.snap.Filters.MaxAmount)
	case "r":
		a.store.ResetFilters()
		a.refresh()
		a.status = "filters cleared"
	}
	return a, nil
}

// nextSortKey cycles the keys offered in the UI.
func nextSortKey(k view.SortKey) view.SortKey {
	keys := []view.SortKey{
		view.SortCreatedAt, view.SortCORNumber, view.SortTitle, view.SortSubcontractor,
		view.SortTrade, view.SortSubmittedAt, view.SortDueAt, view.SortStatus,
		view.SortPriority, view.SortAmount, view.SortAgingDays,
	}
	for i, key := range keys {
		if key == k {
			return keys[(i+1)%len(keys)]
		}
	}
	return keys[0]
}

func (a *App) handleModalKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.String() == "ctrl+c" {
		return a, tea.Quit
	}
	if a.modal == modalFacets {
		return a.handleFacetKey(m)
	}
	if a.modal == modalConfirmDelete {
		switch m.String() {
		case "y", "Y":
			id := a.deleteID
			a.modal, a.deleteID = modalNone, ""
			return a, a.mutateCmd(func() bool { return a.store.Delete(id) }, "deleted")
		default:
			a.modal, a.deleteID = modalNone, ""
			a.status = "delete cancelled"
		}
		return a, nil
	}

	switch m.Type {
	case tea.KeyEsc:
		a.modal, a.input = modalNone, ""
		return a, nil
	case tea.KeyEnter:
		return a.submitModal()
	case tea.KeyBackspace, tea.KeyCtrlH, tea.KeyDelete:
		if r := []rune(a.input); len(r) > 0 {
			a.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		a.input += " "
	case tea.KeyRunes:
		a.input += string(m.Runes)
	}
	if a.modal == modalSearch {
		q := a.input
		a.store.SetFilters(view.FilterPatch{Query: &q})
		a.refresh()
	}
	return a, nil
}

func (a *App) submitModal() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(a.input)
	switch a.modal {
	case modalSearch:
		a.modal, a.input = modalNone, ""
		a.store.SetFilters(view.FilterPatch{Query: &input})
		a.refresh()
	case modalImport:
		if input == "" {
			a.status = "enter a CSV path"
			return a, nil
		}
		a.modal, a.input = modalNone, ""
		return a, a.importCmd(input)
	case modalMinAmount, modalMaxAmount:
		a.applyBound(a.modal, input)
		a.modal, a.input = modalNone, ""
	case modalNewNumber:
		a.pendingNum = input
		a.modal, a.input = modalNewTitle, ""
	case modalNewTitle:
		d := cor.Draft{CORNumber: a.pendingNum, Title: input}
		a.modal, a.input, a.pendingNum = modalNone, "", ""
		return a, func() tea.Msg {
			r := a.store.Create(d)
			return changedMsg("added " + r.CORNumber)
		}
	}
	return a, nil
}

// facets

type facetGroup string

const (
	groupStatus facetGroup = "Status"
	groupTrade  facetGroup = "Trade"
	groupSub    facetGroup = "Subcontractor"
	groupTag    facetGroup = "Tag"
)

type facetOption struct {
	group  facetGroup
	value  string
	status cor.Status
}

// facetOptions lists every status, then the trades, subcontractors and tags
// present in the collection.
func (a *App) facetOptions() []facetOption {
	var out []facetOption
	for _, st := range cor.Statuses() {
		out = append(out, facetOption{group: groupStatus, value: st.String(), status: st})
	}
	f := view.FacetsOf(a.snap.Records)
	for _, g := range []struct {
		group  facetGroup
		values []string
	}{{groupTrade, f.Trades}, {groupSub, f.Subcontractors}, {groupTag, f.Tags}} {
		for _, v := range g.values {
			out = append(out, facetOption{group: g.group, value: v})
		}
	}
	return out
}

func (a *App) facetOn(o facetOption) bool {
	f := a.snap.Filters
	switch o.group {
	case groupStatus:
		return slices.Contains(f.Statuses, o.status)
	case groupTrade:
		return slices.Contains(f.Trades, o.value)
	case groupSub:
		return slices.Contains(f.Subcontractors, o.value)
	case groupTag:
		return slices.Contains(f.Tags, o.value)
	}
	return false
}

func (a *App) toggleFacet(o facetOption) {
	f := a.snap.Filters
	var p view.FilterPatch
	switch o.group {
	case groupStatus:
		next := toggle(f.Statuses, o.status)
		p.Statuses = &next
	case groupTrade:
		next := toggle(f.Trades, o.value)
		p.Trades = &next
	case groupSub:
		next := toggle(f.Subcontractors, o.value)
		p.Subcontractors = &next
	case groupTag:
		next := toggle(f.Tags, o.value)
		p.Tags = &next
	}
	a.store.SetFilters(p)
	a.refresh()
}

func toggle[T comparable](set []T, v T) []T {
	if slices.Contains(set, v) {
		return lo.Without(set, v)
	}
	return append(slices.Clone(set), v)
}

func (a *App) handleFacetKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	opts := a.facetOptions()
	switch m.String() {
	case "esc", "f", "q":
		a.modal = modalNone
	case "up", "k":
		if a.facetCursor > 0 {
			a.facetCursor--
		}
	case "down", "j":
		if a.facetCursor < len(opts)-1 {
			a.facetCursor++
		}
	case " ", "enter", "x":
		if a.facetCursor < len(opts) {
			a.toggleFacet(opts[a.facetCursor])
		}
	case "c":
		empty := []string{}
		a.store.SetFilters(view.FilterPatch{
			Statuses: &[]cor.Status{}, Trades: &empty, Subcontractors: &empty, Tags: &empty,
		})
		a.refresh()
		a.status = "facet filters cleared"
	}
	return a, nil
}

// amount bounds

func formatBound(b *float64) string {
	if b == nil {
		return ""
	}
	return strconv.FormatFloat(*b, 'f', -1, 64)
}

// applyBound sets the min or max amount from input. Blank or non-numeric
// input clears the bound.
func (a *App) applyBound(which modalState, input string) {
	b := view.ParseBound(input)
	p := view.FilterPatch{}
	label := "min amount"
	if which == modalMaxAmount {
		label = "max amount"
		p.MaxAmount, p.ClearMaxAmount = b, b == nil
	} else {
		p.MinAmount, p.ClearMinAmount = b, b == nil
	}
	a.store.SetFilters(p)
	a.refresh()
	if b == nil {
		a.status = label + ": any"
		return
	}
	a.status = label + ": " + display.Currency(a.ui.CurrencySymbol, *b)
}

// commands

// mutateCmd runs a store mutation off the update loop; persistence happens
// inside it.
func (a *App) mutateCmd(fn func() bool, done string) tea.Cmd {
	return func() tea.Msg {
		if !fn() {
			return changedMsg("record no longer exists")
		}
		return changedMsg(done)
	}
}

func (a *App) importCmd(path string) tea.Cmd {
	abs := path
	if !filepath.IsAbs(path) {
		if p, err := filepath.Abs(path); err == nil {
			abs = p
		}
	}
	a.status = "importing..."
	if a.services.Import == nil {
		return func() tea.Msg { return errMsg{fmt.Errorf("import service not configured")} }
	}
	return func() tea.Msg {
		res, err := a.services.Import.ImportFile(a.ctx, abs)
		if err != nil {
			// One generic message; the cause is logged by the service.
			return errMsg{service.ErrImportFailed}
		}
		return importDoneMsg{Path: abs, Result: res}
	}
}

func (a *App) exportCmd() tea.Cmd {
	if a.services.Export == nil {
		return func() tea.Msg { return errMsg{fmt.Errorf("export service not configured")} }
	}
	now := a.now()
	return func() tea.Msg {
		path, err := a.services.Export.ExportFile(a.ctx, a.exportDir, now)
		if err != nil {
			a.log.Warn("export failed", "dir", a.exportDir, "error", err)
			return errMsg{err}
		}
		return statusMsg("exported to " + path)
	}
}

type changedMsg string

type statusMsg string

type errMsg struct{ error }

type importDoneMsg struct {
	Path   string
	Result service.ImportResult
}
