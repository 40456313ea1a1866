package pipeline

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/palmgate/leadgen-cli/internal/config"
	"github.com/palmgate/leadgen-cli/internal/model"
)

// budgetTolerance widens the configured budget band for partial credit.
// A budget within 25% outside the band still signals a workable buyer.
const budgetTolerance = 0.25

// QualifyStage scores every lead against the configured rule set and splits
// the batch into qualified and rejected. Scoring is pure and deterministic;
// the same lead and rules always produce the same score.
type QualifyStage struct {
	rules config.QualificationConfig
	now   func() time.Time
}

// NewQualifyStage creates the stage from the configured rule set.
func NewQualifyStage(rules config.QualificationConfig) *QualifyStage {
	return &QualifyStage{rules: rules, now: time.Now}
}

// Run scores leads in place.
func (s *QualifyStage) Run(rc *RunContext, leads []model.Lead) {
	var qualified int
	for i := range leads {
		score := s.score(&leads[i])
		leads[i].Score = &score

		// A failed verification vetoes qualification outright, no matter
		// how strong the rest of the profile scores.
		if score >= s.rules.Threshold && leads[i].Verification != model.VerificationFailed {
			leads[i].Qualification = model.QualificationQualified
			qualified++
		} else {
			leads[i].Qualification = model.QualificationRejected
		}
		leads[i].Touch(s.now())
	}

	rc.AddEvent("qualified %d of %d leads (threshold %d)", qualified, len(leads), s.rules.Threshold)
	zap.L().With(zap.String("stage", "qualify")).Info("qualification complete",
		zap.Int("qualified", qualified),
		zap.Int("rejected", len(leads)-qualified),
	)
}

func (s *QualifyStage) score(lead *model.Lead) int {
	score := 0
	score += s.budgetPoints(lead.Attr(model.AttrBudget))
	score += s.propertyTypePoints(lead.Attr(model.AttrPropertyType))
	score += s.bedroomPoints(lead.Attr(model.AttrBedrooms))

	if contactComplete(lead) {
		score += s.rules.ContactPoints
	}

	switch lead.Verification {
	case model.VerificationVerified:
		score += s.rules.VerifiedPoints
	case model.VerificationFailed:
		score -= s.rules.VerificationPenalty
	}

	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

func (s *QualifyStage) budgetPoints(raw string) int {
	budget, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || budget <= 0 {
		return 0
	}
	if budget >= s.rules.MinBudget && budget <= s.rules.MaxBudget {
		return s.rules.BudgetFullPoints
	}
	lower := int64(float64(s.rules.MinBudget) * (1 - budgetTolerance))
	upper := int64(float64(s.rules.MaxBudget) * (1 + budgetTolerance))
	if budget >= lower && budget <= upper {
		return s.rules.BudgetPartialPoints
	}
	return 0
}

func (s *QualifyStage) propertyTypePoints(raw string) int {
	want := strings.ToLower(strings.TrimSpace(raw))
	if want == "" {
		return 0
	}
	for _, t := range s.rules.PropertyTypes {
		if strings.EqualFold(t, want) {
			return s.rules.PropertyTypePoints
		}
	}
	return 0
}

func (s *QualifyStage) bedroomPoints(raw string) int {
	beds, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	if beds >= s.rules.MinBedrooms && beds <= s.rules.MaxBedrooms {
		return s.rules.BedroomPoints
	}
	return 0
}

// contactComplete requires both a usable phone and a well-formed email.
func contactComplete(lead *model.Lead) bool {
	return normalizePhone(lead.Attr(model.AttrPhone)) != "" &&
		normalizeEmail(lead.Attr(model.AttrEmail)) != ""
}
