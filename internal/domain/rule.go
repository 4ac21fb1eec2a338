package domain

// Rule bucket names. Buckets are evaluated in this order; an auto_reject
// match vetoes everything after it.
const (
	BucketAutoReject        = "auto_reject"
	BucketAutoApprove       = "auto_approve"
	BucketRequireGuarantor  = "require_guarantor"
	BucketRequireCollateral = "require_collateral"
)

// Rule is a single configurable business rule: a named boolean CEL
// condition over feature names with a human-readable message.
type Rule struct {
	Name      string `json:"name"`
	Condition string `json:"condition"`
	Message   string `json:"message"`
}

// RuleSet groups rules into the four action buckets. Order within a bucket
// is the declaration order in the config document and is preserved in
// evaluation output.
type RuleSet struct {
	AutoReject        []Rule `json:"auto_reject"`
	AutoApprove       []Rule `json:"auto_approve"`
	RequireGuarantor  []Rule `json:"require_guarantor"`
	RequireCollateral []Rule `json:"require_collateral"`
}

// RuleConfig is the whole rule configuration document. It is replaced
// wholesale, never patched.
type RuleConfig struct {
	Version    string             `json:"version"`
	Rules      RuleSet            `json:"rules"`
	Thresholds map[string]float64 `json:"thresholds"`
}

// Threshold keys understood by the decision pipeline.
const (
	ThresholdMinCreditScore = "min_credit_score"
	ThresholdHighConfidence = "high_confidence_threshold"
	ThresholdLowConfidence  = "low_confidence_threshold"
)

// Thresholds are the resolved numeric cutoffs after per-key defaulting.
type Thresholds struct {
	MinCreditScore float64 `json:"min_credit_score"`
	HighConfidence float64 `json:"high_confidence_threshold"`
	LowConfidence  float64 `json:"low_confidence_threshold"`
}

// DefaultThresholds returns the built-in cutoffs used when the config
// omits a key or the whole thresholds section.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinCreditScore: 0.5,
		HighConfidence: 0.8,
		LowConfidence:  0.4,
	}
}
