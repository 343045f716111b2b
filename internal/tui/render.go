package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/cortracker/internal/cor"
	"github.com/jask/cortracker/internal/display"
	"github.com/jask/cortracker/internal/store"
	"github.com/jask/cortracker/internal/view"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(colorBrand)
	headerStyle   = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Reverse(true).Foreground(colorFocus)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	filterBadge   = lipgloss.NewStyle().Bold(true).Foreground(colorFocus)
	columnStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1).Width(28)
)

func (a *App) View() string {
	var body string
	if a.snap.View == store.ViewKanban {
		body = a.renderKanban()
	} else {
		body = a.renderTable()
	}
	out := a.renderHeader() + "\n" + body + "\n" + a.renderHelp()
	if a.modal != modalNone {
		out += "\n\n" + a.renderModal()
	}
	if a.status != "" {
		out += "\n" + a.status
	}
	return out
}

func (a *App) renderHeader() string {
	m := a.metrics
	title := titleStyle.Render("COR Tracker")
	kpis := fmt.Sprintf("Open %d  Pending %s  >30d %d  >60d %d  >90d %d  Closed %d  Total %d",
		m.OpenCount, display.Currency(a.ui.CurrencySymbol, m.PendingValue), m.Over30, m.Over60, m.Over90, m.Closed(), m.Total)
	desc := mutedStyle.Render(a.describeView())
	if a.snap.Filters.Active() {
		desc = filterBadge.Render("FILTERED") + " " + desc
	}
	return title + "\n" + kpis + "\n" + desc
}

func (a *App) describeView() string {
	f := a.snap.Filters
	parts := []string{fmt.Sprintf("%d shown", len(a.rows)), "sort " + a.snap.Sort.String()}
	if f.Query != "" {
		parts = append(parts, fmt.Sprintf("search %q", f.Query))
	}
	if f.Aging != view.AgingAny {
		parts = append(parts, "aging "+f.Aging.String())
	}
	if n := len(f.Statuses) + len(f.Trades) + len(f.Subcontractors) + len(f.Tags); n > 0 {
		parts = append(parts, fmt.Sprintf("%d facet filters", n))
	}
	if f.MinAmount != nil {
		parts = append(parts, "min "+display.Currency(a.ui.CurrencySymbol, *f.MinAmount))
	}
	if f.MaxAmount != nil {
		parts = append(parts, "max "+display.Currency(a.ui.CurrencySymbol, *f.MaxAmount))
	}
	return strings.Join(parts, " | ")
}

func (a *App) renderTable() string {
	if len(a.rows) == 0 {
		return "No CORs match the current filters."
	}
	now := a.now()
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-10s %-34s %-20s %-12s %-10s %-10s %-14s %-6s %12s %5s",
		"COR", "Title", "Subcontractor", "Trade", "Submitted", "Due", "Status", "Prio", "Amount", "Age")))
	for i, r := range a.rows {
		age := display.Missing
		if r.SubmittedAt != nil {
			age = fmt.Sprintf("%dd", r.AgeDays(now))
		}
		line := fmt.Sprintf("%-10s %-34s %-20s %-12s %-10s %-10s %-14s %-6s %12s %5s",
			display.Truncate(r.CORNumber, 10),
			display.Truncate(r.Title, 34),
			display.Truncate(display.Text(r.Subcontractor), 20),
			display.Truncate(display.Text(r.Trade), 12),
			display.Date(r.SubmittedAt, a.ui.DateFormat, a.tz),
			display.Date(r.DueAt, a.ui.DateFormat, a.tz),
			r.Status,
			r.Priority,
			display.Currency(a.ui.CurrencySymbol, r.Amount),
			age,
		)
		b.WriteString("\n")
		if i == a.cursor {
			b.WriteString(selectedStyle.Render("▶ " + line))
		} else {
			b.WriteString("  " + line)
		}
	}
	if r, ok := a.selected(); ok {
		b.WriteString("\n\n" + a.renderDetail(r))
	}
	return b.String()
}

func (a *App) renderDetail(r cor.Record) string {
	attachments := display.Missing
	if r.Attachments != nil {
		attachments = fmt.Sprint(*r.Attachments)
	}
	return fmt.Sprintf("%s %s\nOwner ref: %s  RFI: %s  Tags: %s  Attachments: %s\nNotes: %s\nCreated: %s",
		headerStyle.Render(r.CORNumber), statusLabel(r.Status),
		display.Text(r.OwnerRef), display.Text(r.RFI), display.Tags(r.Tags), attachments,
		display.Text(r.Notes),
		r.CreatedAt.In(a.tz).Format(a.ui.DateFormat+" 15:04"))
}

func (a *App) renderKanban() string {
	selectedID := ""
	if r, ok := a.selected(); ok {
		selectedID = r.ID
	}
	cols := view.Board(a.rows)
	rendered := make([]string, 0, len(cols))
	for _, col := range cols {
		var b strings.Builder
		b.WriteString(statusLabel(col.Status) + fmt.Sprintf(" (%d)", len(col.Records)))
		for _, r := range col.Records {
			card := fmt.Sprintf("%s %s\n%s · %s",
				r.CORNumber, display.Currency(a.ui.CurrencySymbol, r.Amount),
				display.Truncate(r.Title, 24), priorityLabel(r.Priority))
			if r.ID == selectedID {
				card = selectedStyle.Render(card)
			}
			b.WriteString("\n\n" + card)
		}
		rendered = append(rendered, columnStyle.Render(b.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (a *App) renderHelp() string {
	return mutedStyle.Render("[j/k] Move  [v] Table/Kanban  [a] Advance  [p] Priority  [+/-] Amount  [x] Delete  [n] New  [/] Search  [s/S] Sort  [g] Aging  [f] Filters  [m/M] Min/Max  [r] Reset filters  [i] Import  [e] Export  [q] Quit")
}

func (a *App) renderModal() string {
	switch a.modal {
	case modalSearch:
		return titleStyle.Render("Search") + fmt.Sprintf("\n%s\n[enter] Apply  [esc] Close", a.input)
	case modalImport:
		body := fmt.Sprintf("\nCSV path: %s\n[enter] Import  [esc] Cancel", a.input)
		if a.lastImport != nil {
			body += fmt.Sprintf("\nLast import: %d records", a.lastImport.Imported)
		}
		return titleStyle.Render("Import CSV") + body
	case modalNewNumber:
		return titleStyle.Render("New COR") + fmt.Sprintf("\nCOR number (blank for automatic): %s\n[enter] Next  [esc] Cancel", a.input)
	case modalNewTitle:
		return titleStyle.Render("New COR") + fmt.Sprintf("\nTitle: %s\n[enter] Create  [esc] Cancel", a.input)
	case modalFacets:
		return titleStyle.Render("Filters") + "\n" + a.renderFacets() +
			"\n[j/k] Move  [space] Toggle  [c] Clear  [esc] Close"
	case modalMinAmount:
		return titleStyle.Render("Minimum amount") + fmt.Sprintf("\n%s\n[enter] Apply (blank for any)  [esc] Cancel", a.input)
	case modalMaxAmount:
		return titleStyle.Render("Maximum amount") + fmt.Sprintf("\n%s\n[enter] Apply (blank for any)  [esc] Cancel", a.input)
	case modalConfirmDelete:
		name := a.deleteID
		if r, ok := a.snap.Find(a.deleteID); ok {
			name = r.CORNumber
		}
		return titleStyle.Render("Delete "+name+"?") + "\n[y] Yes  [n] No"
	}
	return ""
}

func (a *App) renderFacets() string {
	var b strings.Builder
	var group facetGroup
	for i, o := range a.facetOptions() {
		if o.group != group {
			group = o.group
			b.WriteString(headerStyle.Render(string(group)) + "\n")
		}
		mark := "[ ]"
		if a.facetOn(o) {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s", mark, display.Text(o.value))
		if i == a.facetCursor {
			b.WriteString(selectedStyle.Render("▶ "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
