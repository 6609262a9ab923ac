package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ml-audit-platform/internal/core/domain"
	ports "ml-audit-platform/internal/core/ports/output"
)

const (
	sourceLicenses = "pip-licenses"
	sourceOutdated = "pip list --outdated"
)

// AuditOptions controls how collected data is judged.
type AuditOptions struct {
	Policy         domain.LicensePolicy
	FailOnOutdated bool
}

// AuditService collects dependency data from the external tools and produces a report.
type AuditService struct {
	pipAudit ports.VulnerabilityScanner
	safety   ports.VulnerabilityScanner
	licenses ports.LicenseScanner
	outdated ports.OutdatedScanner
	writer   ports.ReportWriter
	runs     ports.AuditRunRepository
	opts     AuditOptions
	now      func() time.Time
}

// NewAuditService creates an audit service. runs may be nil when no history store is configured.
func NewAuditService(
	pipAudit ports.VulnerabilityScanner,
	safety ports.VulnerabilityScanner,
	licenses ports.LicenseScanner,
	outdated ports.OutdatedScanner,
	writer ports.ReportWriter,
	runs ports.AuditRunRepository,
	opts AuditOptions,
) *AuditService {
	return &AuditService{
		pipAudit: pipAudit,
		safety:   safety,
		licenses: licenses,
		outdated: outdated,
		writer:   writer,
		runs:     runs,
		opts:     opts,
		now:      time.Now,
	}
}

// Run executes one audit. Tool failures become report warnings and failed checks;
// only a cancelled context or a report write failure returns an error.
func (s *AuditService) Run(ctx context.Context) (*domain.AuditReport, error) {
	report := &domain.AuditReport{
		ID:          uuid.New(),
		GeneratedAt: s.now().UTC(),
		Checks:      make(map[domain.CheckName]bool, len(domain.AllChecks)),
	}

	var (
		mu                               sync.Mutex
		pipAuditOK, safetyOK, licensesOK bool
	)
	warn := func(source string, err error) {
		log.WithError(err).WithField("source", source).Warn("Audit source failed")
		mu.Lock()
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", source, err))
		mu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		idx, err := s.pipAudit.Scan(ctx)
		if err != nil {
			warn(s.pipAudit.Name(), err)
			return nil
		}
		report.PipAudit, pipAuditOK = idx, true
		return nil
	})
	g.Go(func() error {
		idx, err := s.safety.Scan(ctx)
		if err != nil {
			warn(s.safety.Name(), err)
			return nil
		}
		report.Safety, safetyOK = idx, true
		return nil
	})
	g.Go(func() error {
		deps, err := s.licenses.Licenses(ctx)
		if err != nil {
			warn(sourceLicenses, err)
			return nil
		}
		report.Dependencies, licensesOK = deps, true
		return nil
	})
	g.Go(func() error {
		outdated, err := s.outdated.Outdated(ctx)
		if err != nil {
			warn(sourceOutdated, err)
			return nil
		}
		report.Outdated = outdated
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if report.PipAudit == nil {
		report.PipAudit = domain.VulnerabilityIndex{}
	}
	if report.Safety == nil {
		report.Safety = domain.VulnerabilityIndex{}
	}
	report.Vulnerabilities = domain.MergeVulnerabilities(report.PipAudit, report.Safety)
	report.LicenseViolations = s.opts.Policy.Violations(report.Dependencies)

	report.Checks[domain.CheckVulnerabilities] = len(report.Vulnerabilities) == 0 && (pipAuditOK || safetyOK)
	report.Checks[domain.CheckLicenses] = licensesOK && len(report.LicenseViolations) == 0
	report.Checks[domain.CheckOutdated] = !s.opts.FailOnOutdated || len(report.Outdated) == 0
	report.Checks[domain.CheckSBOM] = licensesOK

	files, err := s.writer.Write(ctx, report)
	if err != nil {
		return report, fmt.Errorf("write audit reports: %w", err)
	}
	report.Files = files

	if s.runs != nil {
		if err := s.runs.Save(ctx, report); err != nil {
			warn("history", err)
		}
	}

	log.WithFields(log.Fields{
		"audit_id":           report.ID,
		"dependencies":       len(report.Dependencies),
		"vulnerable":         len(report.Vulnerabilities),
		"license_violations": len(report.LicenseViolations),
		"outdated":           len(report.Outdated),
		"passed":             report.Passed(),
		"failed_checks":      report.FailedChecks(),
	}).Info("Audit completed")

	return report, nil
}

// History lists the most recent recorded audit runs.
func (s *AuditService) History(ctx context.Context, limit int) ([]*domain.AuditRun, error) {
	if s.runs == nil {
		return nil, fmt.Errorf("%w: no database configured", domain.ErrAuditStoreFailed)
	}
	if limit <= 0 {
		limit = 10
	}
	return s.runs.ListRecent(ctx, limit)
}
