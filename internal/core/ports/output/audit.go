package ports

import (
	"context"

	"ml-audit-platform/internal/core/domain"
)

// VulnerabilityScanner wraps one CVE scanning tool (pip-audit, safety).
type VulnerabilityScanner interface {
	Name() string
	Scan(ctx context.Context) (domain.VulnerabilityIndex, error)
}

// LicenseScanner lists installed dependencies with their licenses.
type LicenseScanner interface {
	Licenses(ctx context.Context) ([]domain.Dependency, error)
}

// OutdatedScanner lists dependencies with a newer release available.
type OutdatedScanner interface {
	Outdated(ctx context.Context) ([]domain.OutdatedPackage, error)
}

// ReportWriter renders and persists report files, returning the paths written.
type ReportWriter interface {
	Write(ctx context.Context, report *domain.AuditReport) ([]string, error)
}

// AuditRunRepository stores audit history.
type AuditRunRepository interface {
	Save(ctx context.Context, report *domain.AuditReport) error
	ListRecent(ctx context.Context, limit int) ([]*domain.AuditRun, error)
}
