// Package repository provides the audit store implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveApplication stores a submitted credit application.
func (r *SQLRepository) SaveApplication(ctx context.Context, app *domain.Application) error {
	if app == nil || app.ID == "" {
		return fmt.Errorf("%w: application id is required", ErrInvalidInput)
	}

	profile, err := json.Marshal(app.Profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	loan, err := json.Marshal(app.Loan)
	if err != nil {
		return fmt.Errorf("failed to encode loan: %w", err)
	}

	query := `
		INSERT INTO applications (
			id, client_id, profile, loan, created_at
		) VALUES (?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		app.ID, app.ClientID, string(profile), string(loan), app.CreatedAt,
	)
	return err
}

// GetApplication retrieves an application by ID.
func (r *SQLRepository) GetApplication(ctx context.Context, id string) (*domain.Application, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: application id is required", ErrInvalidInput)
	}

	query := `
		SELECT id, client_id, profile, loan, created_at
		FROM applications
		WHERE id = ?
	`

	var app domain.Application
	var profile, loan string

	err := r.db.QueryRowContext(ctx, r.rebind(query), id).Scan(
		&app.ID, &app.ClientID, &profile, &loan, &app.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(profile), &app.Profile); err != nil {
		return nil, fmt.Errorf("failed to parse application profile: %w", err)
	}
	if err := json.Unmarshal([]byte(loan), &app.Loan); err != nil {
		return nil, fmt.Errorf("failed to parse application loan: %w", err)
	}

	return &app, nil
}

// ListApplicationsByClient retrieves a client's applications since a time,
// newest first.
func (r *SQLRepository) ListApplicationsByClient(ctx context.Context, clientID string, since time.Time) ([]*domain.Application, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: clientID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, client_id, profile, loan, created_at
		FROM applications
		WHERE client_id = ? AND created_at >= ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), clientID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []*domain.Application
	for rows.Next() {
		var app domain.Application
		var profile, loan string

		if err := rows.Scan(&app.ID, &app.ClientID, &profile, &loan, &app.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(profile), &app.Profile); err != nil {
			return nil, fmt.Errorf("failed to parse application profile: %w", err)
		}
		if err := json.Unmarshal([]byte(loan), &app.Loan); err != nil {
			return nil, fmt.Errorf("failed to parse application loan: %w", err)
		}
		apps = append(apps, &app)
	}

	return apps, rows.Err()
}

// SaveDecision stores a decision record.
func (r *SQLRepository) SaveDecision(ctx context.Context, rec *domain.DecisionRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("%w: decision id is required", ErrInvalidInput)
	}

	result, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("failed to encode decision result: %w", err)
	}

	query := `
		INSERT INTO decisions (
			id, application_id, client_id, decision, credit_score,
			risk_level, confidence, result, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		rec.ID, rec.ApplicationID, rec.ClientID, rec.Decision,
		rec.CreditScore, rec.RiskLevel, rec.Confidence,
		string(result), rec.CreatedAt,
	)
	return err
}

// GetDecision retrieves a decision record by ID.
func (r *SQLRepository) GetDecision(ctx context.Context, id string) (*domain.DecisionRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: decision id is required", ErrInvalidInput)
	}

	query := `
		SELECT id, application_id, client_id, decision, credit_score,
			   risk_level, confidence, result, created_at
		FROM decisions
		WHERE id = ?
	`

	var rec domain.DecisionRecord
	var result string

	err := r.db.QueryRowContext(ctx, r.rebind(query), id).Scan(
		&rec.ID, &rec.ApplicationID, &rec.ClientID, &rec.Decision,
		&rec.CreditScore, &rec.RiskLevel, &rec.Confidence,
		&result, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(result), &rec.Result); err != nil {
		return nil, fmt.Errorf("failed to parse decision result: %w", err)
	}

	return &rec, nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
