package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"multibagger/internal/settings"
	"multibagger/models"
	"multibagger/schedule"
	"multibagger/viewmodel"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// newTable builds a bordered table with the shared header style
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderTitle(w io.Writer, title string) {
	fmt.Fprintln(w, titleStyle.Render(title))
}

func renderSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render(msg))
}

func renderError(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render(msg))
}

// renderRecommendations prints the derived list with selected rows highlighted
func renderRecommendations(w io.Writer, items []viewmodel.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No recommendations match the current filter."))
		return
	}

	t := newTable("#", "Ticker", "Company", "Sector", "Score", "Price", "Target", "Upside", "Risk")
	for _, it := range items {
		t.Row(
			strconv.Itoa(it.Rank),
			it.Ticker,
			it.CompanyName,
			it.Sector,
			fmt.Sprintf("%.1f", it.CompositeScore),
			it.CurrentPrice,
			it.TargetPrice,
			it.UpsidePercentage,
			it.RiskLevel,
		)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case row >= 0 && row < len(items) && items[row].Selected:
			return selectedStyle
		default:
			return cellStyle
		}
	})
	fmt.Fprintln(w, t.Render())

	for _, it := range items {
		if !it.Expanded {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", headerStyle.Render(it.Ticker+" - "+it.CompanyName))
		fmt.Fprintf(w, "  Rationale:  %s\n", it.BuyRationale)
		fmt.Fprintf(w, "  Key risks:  %s\n", it.KeyRisks)
		fmt.Fprintf(w, "  Entry:      %s   Stop loss: %s\n", it.EntryPoint, it.StopLoss)
		fmt.Fprintf(w, "  Catalyst:   %s\n", it.Catalyst)
		fmt.Fprintf(w, "  Insiders:   %s\n", it.InsiderActivity)
	}
}

// renderSummary prints the run-level fields of a result
func renderSummary(w io.Writer, res *models.AnalysisResult, completedAt string) {
	if res == nil {
		return
	}
	fmt.Fprintf(w, "Screened %d candidates, %d recommendations (%s)\n",
		res.TotalCandidatesScreened, len(res.Recommendations), completedAt)
	if res.MarketOutlook != "" {
		fmt.Fprintf(w, "Outlook: %s\n", res.MarketOutlook)
	}
	if res.AnalysisSummary != "" {
		fmt.Fprintf(w, "%s\n", mutedStyle.Render(res.AnalysisSummary))
	}
	fmt.Fprintln(w)
}

// renderHistory prints the history log, newest first
func renderHistory(w io.Writer, entries []models.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No analyses recorded yet."))
		return
	}

	t := newTable("When", "Screened", "Picks", "Outlook")
	for _, e := range entries {
		t.Row(e.Timestamp, strconv.Itoa(e.TotalCandidatesScreened), strconv.Itoa(e.RecommendationsCount), e.MarketOutlook)
	}
	fmt.Fprintln(w, t.Render())
}

// renderSchedule prints the schedule mirror
func renderSchedule(w io.Writer, snap schedule.Snapshot) {
	s := snap.Schedule
	if s == nil {
		fmt.Fprintln(w, mutedStyle.Render(schedule.MsgScheduleMissing))
		return
	}

	status := successStyle.Render("active")
	if !s.IsActive {
		status = mutedStyle.Render("paused")
	}
	fmt.Fprintf(w, "Schedule:  %s (%s)\n", s.ID, status)
	fmt.Fprintf(w, "Runs:      %s", snap.Description)
	if s.Timezone != "" {
		fmt.Fprintf(w, " %s", s.Timezone)
	}
	fmt.Fprintln(w)
	if s.NextRunTime != nil {
		fmt.Fprintf(w, "Next run:  %s\n", *s.NextRunTime)
	}
	if s.LastRunAt != nil {
		outcome := "unknown"
		if s.LastRunSuccess != nil {
			outcome = "failed"
			if *s.LastRunSuccess {
				outcome = "succeeded"
			}
		}
		fmt.Fprintf(w, "Last run:  %s (%s)\n", *s.LastRunAt, outcome)
	}
}

// renderLogs prints schedule execution logs
func renderLogs(w io.Writer, logs []models.ExecutionLog) {
	if len(logs) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No executions logged."))
		return
	}

	t := newTable("Executed", "Result", "Attempt", "Detail")
	for _, l := range logs {
		result := "ok"
		detail := l.PayloadMessage
		if !l.Success {
			result = "failed"
			detail = l.ErrorMessage
		}
		t.Row(l.ExecutedAt, result, fmt.Sprintf("%d/%d", l.Attempt, l.MaxAttempts), detail)
	}
	fmt.Fprintln(w, t.Render())
}

// renderDelivery prints the metadata the alert agent reported
func renderDelivery(w io.Writer, d *models.AlertDelivery) {
	renderSuccess(w, fmt.Sprintf("Sent %d stocks to %s (%s)", d.StocksIncluded, d.ChannelName, d.DeliveryStatus))
	if d.MessagePreview != "" {
		fmt.Fprintln(w, mutedStyle.Render(d.MessagePreview))
	}
}

// renderPreferences prints stored preferences
func renderPreferences(w io.Writer, p settings.Preferences) {
	fmt.Fprintf(w, "Team ID:              %s\n", orUnset(p.TeamID))
	fmt.Fprintf(w, "Channel ID:           %s\n", orUnset(p.ChannelID))
	fmt.Fprintf(w, "Alert risk threshold: %s\n", p.AlertRiskThreshold)
	fmt.Fprintf(w, "Alert minimum score:  %.1f\n", p.AlertMinScore)
}

func orUnset(s string) string {
	if s == "" {
		return mutedStyle.Render("(not set)")
	}
	return s
}
