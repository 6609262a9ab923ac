package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"ml-audit-platform/internal/core/domain"
	"ml-audit-platform/internal/core/ports/output"
)

const (
	createAuditRunsTable = `
		CREATE TABLE IF NOT EXISTS audit_runs (
			id                  UUID PRIMARY KEY,
			created_at          TIMESTAMPTZ NOT NULL,
			total_dependencies  INTEGER NOT NULL,
			vulnerable_packages INTEGER NOT NULL,
			license_violations  INTEGER NOT NULL,
			passed              BOOLEAN NOT NULL,
			report              JSONB NOT NULL
		)
	`
	createAuditRunsIndex = `
		CREATE INDEX IF NOT EXISTS audit_runs_created_at_idx ON audit_runs (created_at DESC)
	`
)

type auditRunRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRunRepository(pool *pgxpool.Pool) ports.AuditRunRepository {
	return &auditRunRepo{pool: pool}
}

// EnsureSchema creates the audit_runs table when it does not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range []string{createAuditRunsTable, createAuditRunsIndex} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: ensure schema: %w", domain.ErrAuditStoreFailed, err)
		}
	}
	return nil
}

func (r *auditRunRepo) Save(ctx context.Context, report *domain.AuditReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("%w: marshal report: %w", domain.ErrAuditStoreFailed, err)
	}

	run := report.Summary()
	query := `
		INSERT INTO audit_runs
			(id, created_at, total_dependencies, vulnerable_packages, license_violations, passed, report)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`
	_, err = r.pool.Exec(ctx, query,
		run.ID, run.CreatedAt, run.TotalDependencies, run.VulnerablePackages,
		run.LicenseViolations, run.Passed, reportJSON,
	)
	if err != nil {
		return fmt.Errorf("%w: insert audit run: %w", domain.ErrAuditStoreFailed, err)
	}
	return nil
}

func (r *auditRunRepo) ListRecent(ctx context.Context, limit int) ([]*domain.AuditRun, error) {
	query := `
		SELECT id, created_at, total_dependencies, vulnerable_packages, license_violations, passed
		FROM audit_runs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list audit runs: %w", domain.ErrAuditStoreFailed, err)
	}
	defer rows.Close()

	var runs []*domain.AuditRun
	for rows.Next() {
		run := &domain.AuditRun{}
		if err := rows.Scan(
			&run.ID, &run.CreatedAt, &run.TotalDependencies,
			&run.VulnerablePackages, &run.LicenseViolations, &run.Passed,
		); err != nil {
			return nil, fmt.Errorf("%w: scan audit run: %w", domain.ErrAuditStoreFailed, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate audit runs: %w", domain.ErrAuditStoreFailed, err)
	}
	return runs, nil
}
