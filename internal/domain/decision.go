package domain

import (
	"time"
)

// Decision outcomes.
// DecisionManualReview exists in the contract but no resolver branch
// currently produces it.
const (
	DecisionApproved     = "approved"
	DecisionRejected     = "rejected"
	DecisionManualReview = "manual_review"
)

// Confidence labels. ConfidenceLow exists in the contract but is never
// assigned by the current resolver logic.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Risk bands over the raw probability score, independent of the decision.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskVeryHigh = "very_high"
)

// CreditFactor is one explanatory factor attached to a decision. Impact is
// a coarse heuristic direction label derived from the factor name and its
// current value, not a causal attribution.
type CreditFactor struct {
	Factor      string `json:"factor"`
	Impact      string `json:"impact"` // "positive" or "negative"
	Description string `json:"description"`
}

// DecisionResult is the complete outcome of one credit check. It is built
// once per request and never mutated afterwards.
type DecisionResult struct {
	RequestID              string         `json:"request_id"`
	Timestamp              time.Time      `json:"timestamp"`
	Decision               string         `json:"decision"`
	CreditScore            float64        `json:"credit_score"` // 0-100 scale
	Confidence             string         `json:"confidence"`
	RiskLevel              string         `json:"risk_level"`
	MonthlyPaymentEstimate float64        `json:"monthly_payment_estimate"`
	DebtToIncomeRatio      float64        `json:"debt_to_income_ratio"`
	Factors                []CreditFactor `json:"factors"`
	Recommendations        []string       `json:"recommendations"`
	RulesApplied           []string       `json:"rules_applied"`
	ValidForHours          int            `json:"valid_for_hours"`
}

// DecisionRecord is the persisted audit form of a DecisionResult.
type DecisionRecord struct {
	ID            string          `json:"id"` // equals DecisionResult.RequestID
	ApplicationID string          `json:"applicationId"`
	ClientID      string          `json:"clientId"`
	Decision      string          `json:"decision"`
	CreditScore   float64         `json:"creditScore"`
	RiskLevel     string          `json:"riskLevel"`
	Confidence    string          `json:"confidence"`
	Result        *DecisionResult `json:"result"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ModelFactor is one entry of the model's global feature importance ranking.
type ModelFactor struct {
	Factor     string  `json:"factor"`
	Importance float64 `json:"importance"`
}

// ModelInfo describes the loaded scoring artifact.
type ModelInfo struct {
	Name       string             `json:"name"`
	Version    string             `json:"version"`
	Loaded     bool               `json:"loaded"`
	Metrics    map[string]float64 `json:"metrics"`
	TopFactors []ModelFactor      `json:"top_factors"`
}
