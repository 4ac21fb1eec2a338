package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

func newTestRepo(t *testing.T) domain.Repository {
	t.Helper()

	repo, err := New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "harrier_test.db"),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleApplication(id, clientID string, createdAt time.Time) *domain.Application {
	return &domain.Application{
		ID:       id,
		ClientID: clientID,
		Profile: domain.ApplicantProfile{
			Age:            30,
			Gender:         domain.GenderMale,
			MonthlyIncome:  2500,
			EmploymentType: domain.EmploymentFormal,
		},
		Loan: domain.LoanRequest{
			RequestedLoanAmount: 8000,
			LoanPurpose:         domain.PurposeBusiness,
			LoanTenureMonths:    12,
		},
		CreatedAt: createdAt,
	}
}

func TestSaveAndGetApplication(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	app := sampleApplication("app-001", "client-001", time.Now().UTC())
	if err := repo.SaveApplication(ctx, app); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := repo.GetApplication(ctx, "app-001")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if got.ClientID != "client-001" {
		t.Errorf("client id = %q, want client-001", got.ClientID)
	}
	if got.Profile.MonthlyIncome != 2500 {
		t.Errorf("profile not round-tripped: %+v", got.Profile)
	}
	if got.Loan.RequestedLoanAmount != 8000 {
		t.Errorf("loan not round-tripped: %+v", got.Loan)
	}
}

func TestGetApplicationNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetApplication(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveApplicationRequiresID(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.SaveApplication(context.Background(), &domain.Application{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestListApplicationsByClient(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Two recent for client-001, one old, one for another client
	repo.SaveApplication(ctx, sampleApplication("app-1", "client-001", now.Add(-1*time.Hour)))
	repo.SaveApplication(ctx, sampleApplication("app-2", "client-001", now.Add(-2*time.Hour)))
	repo.SaveApplication(ctx, sampleApplication("app-3", "client-001", now.Add(-48*time.Hour)))
	repo.SaveApplication(ctx, sampleApplication("app-4", "client-002", now))

	apps, err := repo.ListApplicationsByClient(ctx, "client-001", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(apps) != 2 {
		t.Fatalf("expected 2 applications, got %d", len(apps))
	}
	// Newest first
	if apps[0].ID != "app-1" || apps[1].ID != "app-2" {
		t.Errorf("unexpected order: %s, %s", apps[0].ID, apps[1].ID)
	}
}

func TestSaveAndGetDecision(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := &domain.DecisionRecord{
		ID:            "dec-001",
		ApplicationID: "app-001",
		ClientID:      "client-001",
		Decision:      domain.DecisionApproved,
		CreditScore:   74.5,
		RiskLevel:     domain.RiskMedium,
		Confidence:    domain.ConfidenceMedium,
		Result: &domain.DecisionResult{
			RequestID:       "dec-001",
			Decision:        domain.DecisionApproved,
			CreditScore:     74.5,
			Recommendations: []string{"Auto-approval criteria met: strong saver"},
			RulesApplied:    []string{"strong_saver"},
			ValidForHours:   24,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := repo.SaveDecision(ctx, rec); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := repo.GetDecision(ctx, "dec-001")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if got.Decision != domain.DecisionApproved {
		t.Errorf("decision = %q, want approved", got.Decision)
	}
	if got.CreditScore != 74.5 {
		t.Errorf("credit score = %v, want 74.5", got.CreditScore)
	}
	if got.Result == nil || len(got.Result.RulesApplied) != 1 {
		t.Errorf("full result not round-tripped: %+v", got.Result)
	}
}

func TestGetDecisionNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetDecision(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPing(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("ping failed: %v", err)
	}
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := New(domain.RepositoryConfig{Driver: "oracle"})
	if err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLRepository{driver: "postgres"}
	got := pg.rebind("INSERT INTO t (a, b) VALUES (?, ?)")
	want := "INSERT INTO t (a, b) VALUES ($1, $2)"
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}

	lite := &SQLRepository{driver: "sqlite"}
	if got := lite.rebind("SELECT ?"); got != "SELECT ?" {
		t.Errorf("sqlite rebind should be identity, got %q", got)
	}
}
