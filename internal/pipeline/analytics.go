package pipeline

import (
	"strconv"
	"strings"
	"time"

	"github.com/palmgate/leadgen-cli/internal/model"
)

// BuildReport aggregates the final lead states and run counters into the
// end-of-run report. Aggregation is read-only over the leads and always
// succeeds; a run with zero leads produces a report full of zeros, not an
// error.
func BuildReport(rc *RunContext, leads []model.Lead, finished time.Time) *model.RunReport {
	report := &model.RunReport{
		RunID:             rc.RunID,
		StartedAt:         rc.StartedAt,
		Duration:          finished.Sub(rc.StartedAt).Milliseconds(),
		LeadsScraped:      rc.LeadsScraped(),
		LeadsUnique:       len(leads),
		PerSource:         rc.SourceCounts(),
		SourceFailures:    rc.SourceFailures(),
		Verification:      make(map[string]int),
		SinkSuccess:       make(map[string]float64),
		ChannelSuccess:    make(map[string]float64),
		StageDurations:    make(map[string]int64),
		Stages:            rc.Stages(),
		SyntheticFallback: rc.SyntheticUsed(),
		TopAreas:          make(map[string]int),
		PropertyTypes:     make(map[string]int),
	}

	var verified int
	sinkSynced := make(map[string]int)
	sinkFailed := make(map[string]int)
	chanSent := make(map[string]int)
	chanFailed := make(map[string]int)

	var budgetSum, budgetCount int64
	for i := range leads {
		lead := &leads[i]

		report.Verification[string(lead.Verification)]++
		if lead.Verification == model.VerificationVerified {
			verified++
		}

		if lead.Score != nil {
			report.ScoreHistogram[*lead.Score]++
		}

		switch lead.Qualification {
		case model.QualificationQualified:
			report.Qualified++
		case model.QualificationRejected:
			report.Rejected++
		}

		for name, r := range lead.CRMSync {
			switch r.Status {
			case model.SyncSynced:
				sinkSynced[name]++
			case model.SyncFailed:
				sinkFailed[name]++
			}
		}
		for name, r := range lead.Communication {
			switch r.Status {
			case model.SendSent:
				chanSent[name]++
			case model.SendFailed:
				chanFailed[name]++
			}
		}

		if lead.Qualification != model.QualificationQualified {
			continue
		}
		if area := strings.TrimSpace(lead.Attr(model.AttrArea)); area != "" {
			report.TopAreas[area]++
		}
		if pt := strings.TrimSpace(lead.Attr(model.AttrPropertyType)); pt != "" {
			report.PropertyTypes[strings.ToLower(pt)]++
		}
		if budget, err := strconv.ParseInt(strings.TrimSpace(lead.Attr(model.AttrBudget)), 10, 64); err == nil && budget > 0 {
			budgetSum += budget
			budgetCount++
			if report.MinBudget == 0 || budget < report.MinBudget {
				report.MinBudget = budget
			}
			if budget > report.MaxBudget {
				report.MaxBudget = budget
			}
		}
	}

	report.QualifiedRate = safeRate(report.Qualified, len(leads))
	report.VerifiedRate = safeRate(verified, len(leads))
	if budgetCount > 0 {
		report.AvgBudget = budgetSum / budgetCount
	}

	// Success rates count attempts only: skips are neither success nor
	// failure, so a run where every lead skipped a channel reports 0.
	for name := range union(sinkSynced, sinkFailed) {
		report.SinkSuccess[name] = safeRate(sinkSynced[name], sinkSynced[name]+sinkFailed[name])
	}
	for name := range union(chanSent, chanFailed) {
		report.ChannelSuccess[name] = safeRate(chanSent[name], chanSent[name]+chanFailed[name])
	}

	for _, stage := range report.Stages {
		report.StageDurations[stage.Name] = stage.Duration
	}

	return report
}

// safeRate divides without panicking; a zero denominator means rate 0.
func safeRate(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func union(a, b map[string]int) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}
