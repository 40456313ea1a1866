package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/palmgate/leadgen-cli/internal/model"
)

// FormatReport generates a human-readable run report.
func FormatReport(report *model.RunReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Lead Run Report: %s\n", report.RunID)
	fmt.Fprintf(&b, "Started: %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Duration: %dms\n\n", report.Duration)

	// Summary.
	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Leads scraped: %d\n", report.LeadsScraped)
	fmt.Fprintf(&b, "- Unique leads: %d\n", report.LeadsUnique)
	fmt.Fprintf(&b, "- Qualified: %d (%.0f%%)\n", report.Qualified, report.QualifiedRate*100)
	fmt.Fprintf(&b, "- Rejected: %d\n", report.Rejected)
	fmt.Fprintf(&b, "- Verified: %.0f%%\n", report.VerifiedRate*100)
	if report.SyntheticFallback {
		b.WriteString("- Synthetic fallback: yes\n")
	}
	b.WriteString("\n")

	// Per-source counts.
	b.WriteString("## Sources\n")
	for _, name := range sortedKeys(report.PerSource) {
		fmt.Fprintf(&b, "- %s: %d leads\n", name, report.PerSource[name])
	}
	for _, name := range sortedKeys(report.SourceFailures) {
		fmt.Fprintf(&b, "- %s: %d fetch failures\n", name, report.SourceFailures[name])
	}
	b.WriteString("\n")

	// Score distribution.
	b.WriteString("## Scores\n")
	for score, count := range report.ScoreHistogram {
		if count == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %d: %d leads\n", score, count)
	}
	b.WriteString("\n")

	if len(report.SinkSuccess) > 0 {
		b.WriteString("## CRM Sinks\n")
		for _, name := range sortedRateKeys(report.SinkSuccess) {
			fmt.Fprintf(&b, "- %s: %.0f%% success\n", name, report.SinkSuccess[name]*100)
		}
		b.WriteString("\n")
	}

	if len(report.ChannelSuccess) > 0 {
		b.WriteString("## Outreach Channels\n")
		for _, name := range sortedRateKeys(report.ChannelSuccess) {
			fmt.Fprintf(&b, "- %s: %.0f%% success\n", name, report.ChannelSuccess[name]*100)
		}
		b.WriteString("\n")
	}

	// Demand profile over qualified leads.
	if report.Qualified > 0 {
		b.WriteString("## Qualified Demand\n")
		fmt.Fprintf(&b, "- Budget: avg %d AED (min %d, max %d)\n",
			report.AvgBudget, report.MinBudget, report.MaxBudget)
		for _, area := range sortedKeys(report.TopAreas) {
			fmt.Fprintf(&b, "- Area %s: %d leads\n", area, report.TopAreas[area])
		}
		for _, pt := range sortedKeys(report.PropertyTypes) {
			fmt.Fprintf(&b, "- Type %s: %d leads\n", pt, report.PropertyTypes[pt])
		}
		b.WriteString("\n")
	}

	// Stage results.
	b.WriteString("## Stages\n")
	for _, stage := range report.Stages {
		fmt.Fprintf(&b, "- %s: %s (%dms)\n", stage.Name, stage.Status, stage.Duration)
		for _, event := range stage.Events {
			fmt.Fprintf(&b, "  %s\n", event)
		}
	}

	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedRateKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
