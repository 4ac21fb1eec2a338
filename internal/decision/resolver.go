// Package decision resolves rule results and the model score into one
// final, auditable decision. Resolution is deterministic and pure given
// its inputs.
package decision

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/rules"
)

// DecisionValidityHours is how long a produced decision is quoted as valid.
const DecisionValidityHours = 24

// Input carries everything the resolver needs.
type Input struct {
	Features   domain.FeatureSet
	Score      float64
	TopFactors []domain.ModelFactor
	Rules      *rules.CheckResult
	Thresholds domain.Thresholds
}

// Resolve applies the fixed decision precedence:
//
//  1. any auto_reject match  -> rejected (hard veto)
//  2. any auto_approve match -> approved
//  3. otherwise the score against min_credit_score decides
//
// Confidence is high when the score sits beyond either confidence
// threshold, medium in between. Risk level bands the raw score
// independently of the decision.
func Resolve(in *Input) *domain.DecisionResult {
	result := &domain.DecisionResult{
		RequestID:              uuid.New().String(),
		Timestamp:              time.Now().UTC(),
		Decision:               domain.DecisionManualReview, // overwritten below
		CreditScore:            round(in.Score*100, 2),
		Confidence:             confidence(in.Score, in.Thresholds),
		RiskLevel:              RiskLevel(in.Score),
		MonthlyPaymentEstimate: round(in.Features.Number("estimated_monthly_payment"), 2),
		DebtToIncomeRatio:      round(in.Features.Number("debt_to_income_ratio"), 4),
		Factors:                factors(in.TopFactors, in.Features),
		Recommendations:        recommendations(in.Rules),
		RulesApplied:           rulesApplied(in.Rules),
		ValidForHours:          DecisionValidityHours,
	}

	switch {
	case len(in.Rules.AutoReject) > 0:
		result.Decision = domain.DecisionRejected
	case len(in.Rules.AutoApprove) > 0:
		result.Decision = domain.DecisionApproved
	case in.Score >= in.Thresholds.MinCreditScore:
		result.Decision = domain.DecisionApproved
	default:
		result.Decision = domain.DecisionRejected
	}

	return result
}

// RiskLevel bands the raw probability score.
func RiskLevel(score float64) string {
	switch {
	case score >= 0.8:
		return domain.RiskLow
	case score >= 0.6:
		return domain.RiskMedium
	case score >= 0.4:
		return domain.RiskHigh
	default:
		return domain.RiskVeryHigh
	}
}

func confidence(score float64, t domain.Thresholds) string {
	if score >= t.HighConfidence || score <= t.LowConfidence {
		return domain.ConfidenceHigh
	}
	return domain.ConfidenceMedium
}

// factors labels the model's top-3 global factors with a coarse heuristic
// direction: "negative" when the factor name contains "ratio" or "debt"
// and its current value exceeds 0.5, otherwise "positive". This is a
// directional hint on feature names, not a sensitivity analysis.
func factors(top []domain.ModelFactor, fs domain.FeatureSet) []domain.CreditFactor {
	if len(top) > 3 {
		top = top[:3]
	}

	out := make([]domain.CreditFactor, 0, len(top))
	for _, mf := range top {
		impact := "positive"
		if strings.Contains(mf.Factor, "ratio") || strings.Contains(mf.Factor, "debt") {
			if fs.Number(mf.Factor) > 0.5 {
				impact = "negative"
			}
		}
		out = append(out, domain.CreditFactor{
			Factor:      mf.Factor,
			Impact:      impact,
			Description: fmt.Sprintf("Based on historical data for %s", mf.Factor),
		})
	}
	return out
}

// recommendations concatenates rule messages first, then the
// guarantor/collateral flags.
func recommendations(r *rules.CheckResult) []string {
	out := make([]string, 0, len(r.Recommendations)+len(r.Flags))
	out = append(out, r.Recommendations...)
	out = append(out, r.Flags...)
	return out
}

// rulesApplied names the reject and approve rules only. Guarantor and
// collateral rules surface through flags, not here; the asymmetry comes
// from the rule engine's bucket categorization and is part of the
// contract.
func rulesApplied(r *rules.CheckResult) []string {
	out := make([]string, 0, len(r.AutoReject)+len(r.AutoApprove))
	for _, rule := range r.AutoReject {
		out = append(out, rule.Name)
	}
	for _, rule := range r.AutoApprove {
		out = append(out, rule.Name)
	}
	return out
}

func round(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}
