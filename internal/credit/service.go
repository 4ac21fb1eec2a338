// Package credit wires the decision pipeline together and exposes the
// transport-independent operations: credit checks, rule configuration
// management, model info, and decision retrieval.
package credit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/opensource-finance/harrier/internal/decision"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/features"
	"github.com/opensource-finance/harrier/internal/rules"
)

var tracer = otel.Tracer("harrier-credit")

// decisionCacheTTL bounds how long decision records are served from cache.
const decisionCacheTTL = 24 * time.Hour

// Service runs credit checks and owns the rule configuration lifecycle.
// The pipeline itself (derive, score, rules, resolve) is pure; the service
// adds audit persistence, caching, and event publication around it.
type Service struct {
	scorer domain.Scorer
	engine *rules.Engine
	store  *rules.Store
	repo   domain.Repository
	cache  domain.Cache
	bus    domain.EventBus
}

// NewService creates a credit service. Repository, cache, and bus are
// optional; a nil dependency disables the corresponding side effect.
func NewService(scorer domain.Scorer, engine *rules.Engine, store *rules.Store, repo domain.Repository, cache domain.Cache, bus domain.EventBus) *Service {
	return &Service{
		scorer: scorer,
		engine: engine,
		store:  store,
		repo:   repo,
		cache:  cache,
		bus:    bus,
	}
}

// LoadRules reads the rule document from the store into the engine.
// A missing document degrades to an empty rule set and default
// thresholds: the engine then decides purely on the score threshold.
func (s *Service) LoadRules() error {
	cfg, err := s.store.Load()
	if errors.Is(err, rules.ErrConfigMissing) {
		slog.Warn("no rule configuration found, starting with empty rule set",
			"path", s.store.Path(),
		)
		return s.engine.LoadConfig(&domain.RuleConfig{})
	}
	if err != nil {
		return err
	}
	return s.engine.LoadConfig(cfg)
}

// CheckCredit runs the full decision pipeline for one application.
// Fails with a ValidationError on malformed input and with
// ErrModelUnavailable when no scoring artifact is loaded; in both cases no
// decision is produced.
func (s *Service) CheckCredit(ctx context.Context, req *domain.CreditCheckRequest) (*domain.DecisionResult, error) {
	ctx, span := tracer.Start(ctx, "credit.check")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	clientID := req.ClientID
	if clientID == "" {
		clientID = uuid.New().String()
	}

	fs := features.Derive(&req.Client, &req.Loan)

	score, err := s.scorer.Score(fs)
	if err != nil {
		return nil, err
	}

	ruleResult := s.engine.CheckRules(fs)

	result := decision.Resolve(&decision.Input{
		Features:   fs,
		Score:      score,
		TopFactors: s.scorer.TopFactors(3),
		Rules:      ruleResult,
		Thresholds: s.engine.Thresholds(),
	})

	span.SetAttributes(
		attribute.String("credit.decision", result.Decision),
		attribute.Float64("credit.score", result.CreditScore),
		attribute.String("credit.risk_level", result.RiskLevel),
	)

	slog.Info("credit check completed",
		"request_id", result.RequestID,
		"client_id", clientID,
		"decision", result.Decision,
		"credit_score", result.CreditScore,
		"risk_level", result.RiskLevel,
		"rules_applied", len(result.RulesApplied),
		"rule_faults", len(ruleResult.Faults),
	)

	s.record(ctx, clientID, req, result)

	return result, nil
}

// record persists the application and decision, caches the decision, and
// publishes events. All of it is best-effort: an audit failure is logged,
// never bounced back onto an already-made decision.
func (s *Service) record(ctx context.Context, clientID string, req *domain.CreditCheckRequest, result *domain.DecisionResult) {
	now := time.Now().UTC()

	app := &domain.Application{
		ID:        uuid.New().String(),
		ClientID:  clientID,
		Profile:   req.Client,
		Loan:      req.Loan,
		CreatedAt: now,
	}

	rec := &domain.DecisionRecord{
		ID:            result.RequestID,
		ApplicationID: app.ID,
		ClientID:      clientID,
		Decision:      result.Decision,
		CreditScore:   result.CreditScore,
		RiskLevel:     result.RiskLevel,
		Confidence:    result.Confidence,
		Result:        result,
		CreatedAt:     now,
	}

	if s.repo != nil {
		if err := s.repo.SaveApplication(ctx, app); err != nil {
			slog.Error("failed to save application", "id", app.ID, "error", err)
		}
		if err := s.repo.SaveDecision(ctx, rec); err != nil {
			slog.Error("failed to save decision", "id", rec.ID, "error", err)
		}
	}

	if s.cache != nil {
		if err := s.cache.SetDecision(ctx, rec, decisionCacheTTL); err != nil {
			slog.Warn("failed to cache decision", "id", rec.ID, "error", err)
		}
	}

	if s.bus != nil {
		payload, err := json.Marshal(rec)
		if err != nil {
			slog.Error("failed to encode decision event", "id", rec.ID, "error", err)
			return
		}
		if err := s.bus.Publish(ctx, domain.TopicDecision, payload); err != nil {
			slog.Warn("failed to publish decision event", "id", rec.ID, "error", err)
		}
	}
}

// GetDecision retrieves a decision record, cache first, then the audit
// store.
func (s *Service) GetDecision(ctx context.Context, id string) (*domain.DecisionRecord, error) {
	if s.cache != nil {
		rec, err := s.cache.GetDecision(ctx, id)
		if err != nil {
			slog.Warn("decision cache read failed", "id", id, "error", err)
		} else if rec != nil {
			return rec, nil
		}
	}

	if s.repo == nil {
		return nil, fmt.Errorf("no decision store available")
	}
	return s.repo.GetDecision(ctx, id)
}

// ListApplications returns a client's applications submitted since the
// given time.
func (s *Service) ListApplications(ctx context.Context, clientID string, since time.Time) ([]*domain.Application, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("no application store available")
	}
	return s.repo.ListApplicationsByClient(ctx, clientID, since)
}

// RuleConfig returns the currently active rule configuration document.
func (s *Service) RuleConfig() *domain.RuleConfig {
	return s.engine.Config()
}

// ReplaceRuleConfig swaps the whole rule document: the engine snapshot is
// replaced atomically and the document is persisted back to its path.
// There is no partial merge.
func (s *Service) ReplaceRuleConfig(ctx context.Context, cfg *domain.RuleConfig) error {
	_, span := tracer.Start(ctx, "credit.rules.replace")
	defer span.End()

	if err := s.engine.LoadConfig(cfg); err != nil {
		return err
	}

	if err := s.store.Save(cfg); err != nil {
		return fmt.Errorf("rules active but not persisted: %w", err)
	}

	slog.Info("rule configuration replaced",
		"version", cfg.Version,
		"rules_count", s.engine.RulesCount(),
	)
	return nil
}

// ModelInfo describes the loaded scoring artifact.
func (s *Service) ModelInfo() *domain.ModelInfo {
	type infoProvider interface {
		Info() *domain.ModelInfo
	}
	if p, ok := s.scorer.(infoProvider); ok {
		return p.Info()
	}
	return &domain.ModelInfo{
		Name:       "credit-scoring-model",
		Loaded:     true,
		Metrics:    s.scorer.Metrics(),
		TopFactors: s.scorer.TopFactors(10),
	}
}

// ModelLoaded reports whether scoring is available.
func (s *Service) ModelLoaded() bool {
	_, err := s.scorer.Score(domain.FeatureSet{})
	return !errors.Is(err, domain.ErrModelUnavailable)
}
