// Package worker provides async processing of decision events.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/opensource-finance/harrier/internal/domain"
)

// Worker consumes decision events from the bus and raises alerts for
// outcomes that need follow-up: rejections, rule-flagged applications, and
// high-risk approvals.
type Worker struct {
	bus  domain.EventBus
	repo domain.Repository

	subscriptions []domain.Subscription
	mu            sync.Mutex
	alerts        int64
	processed     int64
	ctx           context.Context
	cancel        context.CancelFunc
}

// Alert is the payload published on the alert topic.
type Alert struct {
	DecisionID  string  `json:"decision_id"`
	ClientID    string  `json:"client_id"`
	Decision    string  `json:"decision"`
	CreditScore float64 `json:"credit_score"`
	RiskLevel   string  `json:"risk_level"`
	Reason      string  `json:"reason"`
}

// NewWorker creates a decision event worker.
func NewWorker(bus domain.EventBus, repo domain.Repository) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:    bus,
		repo:   repo,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes to the decision topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicDecision, w.handleDecision)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("worker started", "topic", domain.TopicDecision)
	return nil
}

// handleDecision inspects a decision event and publishes an alert when it
// warrants attention.
func (w *Worker) handleDecision(ctx context.Context, msg *domain.Message) error {
	var rec domain.DecisionRecord
	if err := json.Unmarshal(msg.Payload, &rec); err != nil {
		slog.Error("failed to parse decision event",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	w.mu.Lock()
	w.processed++
	w.mu.Unlock()

	reason := alertReason(&rec)
	if reason == "" {
		return nil
	}

	alert := Alert{
		DecisionID:  rec.ID,
		ClientID:    rec.ClientID,
		Decision:    rec.Decision,
		CreditScore: rec.CreditScore,
		RiskLevel:   rec.RiskLevel,
		Reason:      reason,
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	if err := w.bus.Publish(ctx, domain.TopicAlert, payload); err != nil {
		slog.Error("failed to publish alert",
			"decision_id", rec.ID,
			"error", err,
		)
		return err
	}

	w.mu.Lock()
	w.alerts++
	w.mu.Unlock()

	slog.Info("alert published",
		"decision_id", rec.ID,
		"client_id", rec.ClientID,
		"reason", reason,
	)

	return nil
}

// alertReason decides whether a decision needs an alert. Empty string
// means no alert.
func alertReason(rec *domain.DecisionRecord) string {
	switch {
	case rec.Decision == domain.DecisionRejected:
		return "application rejected"
	case rec.Result != nil && len(rec.Result.RulesApplied) > 0:
		return "rules triggered"
	case rec.RiskLevel == domain.RiskHigh:
		return "high risk approval"
	default:
		return ""
	}
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	slog.Info("worker stopped")
	return nil
}

// Stats reports processed and alerted event counts.
type Stats struct {
	Processed int64 `json:"processed"`
	Alerts    int64 `json:"alerts"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{Processed: w.processed, Alerts: w.alerts}
}
