// Package rules provides the CEL-Go based business rule engine.
//
// Rule conditions are boolean CEL expressions over feature names. Only the
// names in the feature set are resolvable; the expressions cannot call
// functions, reach attributes, or touch anything outside the declared
// environment. Evaluation is total and fail-safe-false: a condition that
// does not compile or does not evaluate never fires and never surfaces an
// error to the caller.
package rules

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/features"
)

// Engine evaluates the configured rule buckets against a feature set.
// The loaded configuration is an immutable snapshot behind an atomic
// pointer: concurrent evaluations always observe a whole document, and
// LoadConfig swaps the whole snapshot in one store.
type Engine struct {
	env     *cel.Env
	current atomic.Pointer[snapshot]
}

type snapshot struct {
	config     *domain.RuleConfig
	buckets    map[string][]compiledRule
	thresholds domain.Thresholds
}

type compiledRule struct {
	rule    domain.Rule
	program cel.Program // nil when the condition failed to compile
	loadErr string
}

// NewEngine creates an engine with an empty rule set and default
// thresholds. The CEL environment declares exactly the feature names the
// deriver produces; any other identifier fails compilation.
func NewEngine() (*Engine, error) {
	opts := []cel.EnvOption{
		// Conditions compare int literals against float features.
		cel.CrossTypeNumericComparisons(true),
	}
	for _, name := range features.Numeric {
		opts = append(opts, cel.Variable(name, cel.DoubleType))
	}
	for _, name := range features.Categorical {
		opts = append(opts, cel.Variable(name, cel.StringType))
	}
	for _, name := range features.Boolean {
		opts = append(opts, cel.Variable(name, cel.BoolType))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	e := &Engine{env: env}
	e.current.Store(e.compile(&domain.RuleConfig{}))
	return e, nil
}

// LoadConfig compiles the document and atomically replaces the active
// snapshot. Rules whose conditions do not compile are kept but marked
// broken; they never fire. The swap is all-or-nothing: evaluations running
// concurrently finish against the snapshot they started with.
func (e *Engine) LoadConfig(cfg *domain.RuleConfig) error {
	if cfg == nil {
		return fmt.Errorf("rule config is required")
	}
	e.current.Store(e.compile(cfg))
	return nil
}

// Config returns the currently loaded configuration document.
func (e *Engine) Config() *domain.RuleConfig {
	return e.current.Load().config
}

// Thresholds returns the active cutoffs with per-key defaults applied.
func (e *Engine) Thresholds() domain.Thresholds {
	return e.current.Load().thresholds
}

// RulesCount returns the number of loaded rules across all buckets.
func (e *Engine) RulesCount() int {
	snap := e.current.Load()
	n := 0
	for _, bucket := range snap.buckets {
		n += len(bucket)
	}
	return n
}

// Fault records a single rule condition that failed to compile or
// evaluate. Faults are diagnostics only; a faulted rule is treated as
// non-firing.
type Fault struct {
	Bucket string `json:"bucket"`
	Rule   string `json:"rule"`
	Reason string `json:"reason"`
}

// CheckResult is the outcome of one rule pass. Firing order within each
// bucket follows config declaration order.
type CheckResult struct {
	AutoReject        []domain.Rule
	AutoApprove       []domain.Rule
	RequireGuarantor  []domain.Rule
	RequireCollateral []domain.Rule
	Flags             []string
	Recommendations   []string
	Faults            []Fault
}

// CheckRules evaluates every bucket against the feature set with fixed
// precedence:
//
//  1. auto_reject - any match is a hard veto; nothing else is evaluated.
//  2. require_guarantor - matches flag only when the request has no guarantor.
//  3. require_collateral - matches flag only when the request has no collateral.
//  4. auto_approve - each match appends an approval recommendation.
func (e *Engine) CheckRules(fs domain.FeatureSet) *CheckResult {
	snap := e.current.Load()
	result := &CheckResult{}
	activation := map[string]any(fs)

	for _, cr := range snap.buckets[domain.BucketAutoReject] {
		if e.fires(cr, activation, domain.BucketAutoReject, result) {
			result.AutoReject = append(result.AutoReject, cr.rule)
			result.Recommendations = append(result.Recommendations, cr.rule.Message)
		}
	}
	if len(result.AutoReject) > 0 {
		return result
	}

	for _, cr := range snap.buckets[domain.BucketRequireGuarantor] {
		if e.fires(cr, activation, domain.BucketRequireGuarantor, result) && !fs.Bool("has_guarantor") {
			result.RequireGuarantor = append(result.RequireGuarantor, cr.rule)
			result.Flags = append(result.Flags, "Guarantor Required: "+cr.rule.Message)
		}
	}

	for _, cr := range snap.buckets[domain.BucketRequireCollateral] {
		if e.fires(cr, activation, domain.BucketRequireCollateral, result) && !fs.Bool("has_collateral") {
			result.RequireCollateral = append(result.RequireCollateral, cr.rule)
			result.Flags = append(result.Flags, "Collateral Required: "+cr.rule.Message)
		}
	}

	for _, cr := range snap.buckets[domain.BucketAutoApprove] {
		if e.fires(cr, activation, domain.BucketAutoApprove, result) {
			result.AutoApprove = append(result.AutoApprove, cr.rule)
			result.Recommendations = append(result.Recommendations, "Auto-approval criteria met: "+cr.rule.Message)
		}
	}

	return result
}

// fires evaluates one compiled rule. Any failure is recorded as a fault
// and reported as non-firing.
func (e *Engine) fires(cr compiledRule, activation map[string]any, bucket string, result *CheckResult) bool {
	if cr.program == nil {
		result.Faults = append(result.Faults, Fault{Bucket: bucket, Rule: cr.rule.Name, Reason: cr.loadErr})
		return false
	}

	out, _, err := cr.program.Eval(activation)
	if err != nil {
		slog.Warn("rule condition failed to evaluate",
			"rule", cr.rule.Name,
			"bucket", bucket,
			"error", err,
		)
		result.Faults = append(result.Faults, Fault{Bucket: bucket, Rule: cr.rule.Name, Reason: err.Error()})
		return false
	}

	fired, ok := out.(types.Bool)
	if !ok {
		result.Faults = append(result.Faults, Fault{
			Bucket: bucket,
			Rule:   cr.rule.Name,
			Reason: fmt.Sprintf("condition returned %s, want bool", out.Type().TypeName()),
		})
		return false
	}

	return bool(fired)
}

func (e *Engine) compile(cfg *domain.RuleConfig) *snapshot {
	snap := &snapshot{
		config:     cfg,
		buckets:    make(map[string][]compiledRule, 4),
		thresholds: resolveThresholds(cfg.Thresholds),
	}

	for bucket, rules := range map[string][]domain.Rule{
		domain.BucketAutoReject:        cfg.Rules.AutoReject,
		domain.BucketAutoApprove:       cfg.Rules.AutoApprove,
		domain.BucketRequireGuarantor:  cfg.Rules.RequireGuarantor,
		domain.BucketRequireCollateral: cfg.Rules.RequireCollateral,
	} {
		compiled := make([]compiledRule, 0, len(rules))
		for _, rule := range rules {
			compiled = append(compiled, e.compileRule(bucket, rule))
		}
		snap.buckets[bucket] = compiled
	}

	return snap
}

func (e *Engine) compileRule(bucket string, rule domain.Rule) compiledRule {
	cr := compiledRule{rule: rule}

	ast, issues := e.env.Compile(rule.Condition)
	if issues != nil && issues.Err() != nil {
		cr.loadErr = issues.Err().Error()
		slog.Warn("rule condition failed to compile",
			"rule", rule.Name,
			"bucket", bucket,
			"error", cr.loadErr,
		)
		return cr
	}

	if ast.OutputType() != cel.BoolType {
		cr.loadErr = fmt.Sprintf("condition must return bool, got %s", ast.OutputType())
		slog.Warn("rule condition has wrong result type",
			"rule", rule.Name,
			"bucket", bucket,
			"type", ast.OutputType().String(),
		)
		return cr
	}

	program, err := e.env.Program(ast)
	if err != nil {
		cr.loadErr = err.Error()
		slog.Warn("rule program construction failed",
			"rule", rule.Name,
			"bucket", bucket,
			"error", err,
		)
		return cr
	}

	cr.program = program
	return cr
}

// resolveThresholds applies per-key defaults: each missing key falls back
// independently, including when the thresholds section is absent entirely.
func resolveThresholds(configured map[string]float64) domain.Thresholds {
	t := domain.DefaultThresholds()
	if configured == nil {
		return t
	}
	if v, ok := configured[domain.ThresholdMinCreditScore]; ok {
		t.MinCreditScore = v
	}
	if v, ok := configured[domain.ThresholdHighConfidence]; ok {
		t.HighConfidence = v
	}
	if v, ok := configured[domain.ThresholdLowConfidence]; ok {
		t.LowConfidence = v
	}
	return t
}
