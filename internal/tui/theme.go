package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/cortracker/internal/cor"
)

// Mocha palette, true-colour hex.
const (
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorSapphire lipgloss.Color = "#74c7ec"
	colorLavender lipgloss.Color = "#b4befe"
	colorPink     lipgloss.Color = "#f5c2e7"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorSurface2 lipgloss.Color = "#585b70"
)

const (
	colorBrand  = colorPink
	colorFocus  = colorLavender
	colorMuted  = colorOverlay1
	colorBorder = colorSurface2
)

// statusColors tints the status label.
var statusColors = map[cor.Status]lipgloss.Color{
	cor.StatusDraft:         colorOverlay1,
	cor.StatusSubmitted:     colorSapphire,
	cor.StatusPendingReview: colorYellow,
	cor.StatusPendingRFI:    colorPeach,
	cor.StatusApproved:      colorGreen,
	cor.StatusRejected:      colorRed,
	cor.StatusVoid:          colorSurface2,
}

var priorityColors = map[cor.Priority]lipgloss.Color{
	cor.PriorityHigh:   colorRed,
	cor.PriorityMedium: colorYellow,
	cor.PriorityLow:    colorMuted,
}

func statusLabel(s cor.Status) string {
	return lipgloss.NewStyle().Foreground(statusColors[s]).Render(s.String())
}

func priorityLabel(p cor.Priority) string {
	return lipgloss.NewStyle().Foreground(priorityColors[p]).Render(p.String())
}
