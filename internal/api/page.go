package api

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"multibagger/internal/app"
)

// statusPage renders a plain overview of the dashboard state
func statusPage(st app.State) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Multibagger Screener</title></head><body>`)
		b.WriteString(`<h1>Multibagger Screener</h1>`)

		fmt.Fprintf(&b, `<p id="analysis-state">Analysis: %s (%.0f%%)</p>`,
			templ.EscapeString(st.Analysis.State), st.Analysis.Progress)
		if st.Analysis.Error != "" {
			fmt.Fprintf(&b, `<p id="analysis-error">%s</p>`, templ.EscapeString(st.Analysis.Error))
		}
		if st.ActiveAgent != "" {
			fmt.Fprintf(&b, `<p id="active-agent">Waiting on %s</p>`, templ.EscapeString(st.ActiveAgent))
		}

		b.WriteString(`<ul id="stats">`)
		fmt.Fprintf(&b, `<li>Screened: %d</li>`, st.Stats.TotalScreened)
		fmt.Fprintf(&b, `<li>Recommendations: %d</li>`, st.Stats.ActiveRecommendations)
		fmt.Fprintf(&b, `<li>Analyses completed: %d</li>`, st.Stats.AnalysesCompleted)
		if st.Stats.LastAnalysisTime != "" {
			fmt.Fprintf(&b, `<li>Last analysis: %s</li>`, templ.EscapeString(st.Stats.LastAnalysisTime))
		}
		b.WriteString(`</ul>`)

		if len(st.Recommendations) > 0 {
			b.WriteString(`<table id="recommendations"><tr><th>Rank</th><th>Ticker</th><th>Company</th><th>Score</th><th>Upside</th><th>Risk</th></tr>`)
			for _, rec := range st.Recommendations {
				fmt.Fprintf(&b, `<tr><td>%d</td><td>%s</td><td>%s</td><td>%.1f</td><td>%s</td><td>%s</td></tr>`,
					rec.Rank,
					templ.EscapeString(rec.Ticker),
					templ.EscapeString(rec.CompanyName),
					rec.CompositeScore,
					templ.EscapeString(rec.UpsidePercentage),
					templ.EscapeString(rec.RiskLevel))
			}
			b.WriteString(`</table>`)
		} else {
			b.WriteString(`<p id="empty">No recommendations yet.</p>`)
		}

		if s := st.Schedule.Schedule; s != nil {
			state := "paused"
			if s.IsActive {
				state = "active"
			}
			fmt.Fprintf(&b, `<p id="schedule">Schedule %s: %s (%s)</p>`,
				templ.EscapeString(s.ID), templ.EscapeString(st.Schedule.Description), state)
		}

		b.WriteString(`</body></html>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
