package piptools

import (
	"context"

	"ml-audit-platform/internal/core/domain"
	"ml-audit-platform/internal/core/ports/output"
)

// ============================================================================
// Vulnerability scanners
// ============================================================================

type pipAuditScanner struct {
	runner       Runner
	requirements string
}

// NewPipAudit scans requirements with pip-audit. An empty requirements path
// audits the active environment instead.
func NewPipAudit(runner Runner, requirements string) ports.VulnerabilityScanner {
	return &pipAuditScanner{runner: runner, requirements: requirements}
}

func (s *pipAuditScanner) Name() string { return "pip-audit" }

func (s *pipAuditScanner) Scan(ctx context.Context) (domain.VulnerabilityIndex, error) {
	var args []string
	if s.requirements != "" {
		args = append(args, "-r", s.requirements)
	}
	args = append(args, "--format", "json")

	out, err := s.runner.Run(ctx, "pip-audit", args...)
	if err != nil {
		return nil, err
	}
	return ParsePipAudit(out), nil
}

type safetyScanner struct {
	runner Runner
}

func NewSafety(runner Runner) ports.VulnerabilityScanner {
	return &safetyScanner{runner: runner}
}

func (s *safetyScanner) Name() string { return "safety" }

func (s *safetyScanner) Scan(ctx context.Context) (domain.VulnerabilityIndex, error) {
	out, err := s.runner.Run(ctx, "safety", "check", "--json")
	if err != nil {
		return nil, err
	}
	return ParseSafety(out)
}

// ============================================================================
// Inventory scanners
// ============================================================================

type licenseScanner struct {
	runner Runner
}

func NewPipLicenses(runner Runner) ports.LicenseScanner {
	return &licenseScanner{runner: runner}
}

func (s *licenseScanner) Licenses(ctx context.Context) ([]domain.Dependency, error) {
	out, err := s.runner.Run(ctx, "pip-licenses", "--format=json", "--with-urls", "--with-authors")
	if err != nil {
		return nil, err
	}
	return ParsePipLicenses(out)
}

type outdatedScanner struct {
	runner Runner
}

func NewPipOutdated(runner Runner) ports.OutdatedScanner {
	return &outdatedScanner{runner: runner}
}

func (s *outdatedScanner) Outdated(ctx context.Context) ([]domain.OutdatedPackage, error) {
	out, err := s.runner.Run(ctx, "pip", "list", "--outdated", "--format=json")
	if err != nil {
		return nil, err
	}
	return ParseOutdated(out)
}
