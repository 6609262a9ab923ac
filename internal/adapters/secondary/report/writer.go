package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"ml-audit-platform/internal/core/domain"
	"ml-audit-platform/internal/core/ports/output"
)

const (
	fileReportMD   = "AUDIT_REPORT.md"
	fileReportJSON = "audit-report.json"
	fileTableMD    = "AUDIT_TABLE.md"
	fileTableJSON  = "AUDIT_TABLE.json"
	fileSummaryMD  = "GITHUB_SUMMARY.md"
	fileSBOM       = "sbom_report.json"

	generator = "mlctl audit"
)

type fileWriter struct {
	outDir      string
	stepSummary string
}

// NewFileWriter writes report files into outDir. When stepSummary is set the
// summary is also appended to that file (GitHub's $GITHUB_STEP_SUMMARY).
func NewFileWriter(outDir, stepSummary string) ports.ReportWriter {
	return &fileWriter{outDir: outDir, stepSummary: stepSummary}
}

func (w *fileWriter) Write(ctx context.Context, r *domain.AuditReport) ([]string, error) {
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	v := newView(r)
	renders := []struct {
		name   string
		render func() ([]byte, error)
	}{
		{fileReportMD, func() ([]byte, error) { return execute(fileReportMD, v) }},
		{fileReportJSON, func() ([]byte, error) { return marshal(newJSONReport(r, v)) }},
		{fileTableMD, func() ([]byte, error) { return execute(fileTableMD, v) }},
		{fileTableJSON, func() ([]byte, error) { return marshal(newJSONTable(r, v)) }},
		{fileSummaryMD, func() ([]byte, error) { return execute(fileSummaryMD, v) }},
		{fileSBOM, func() ([]byte, error) { return marshal(newSBOM(r)) }},
	}

	written := make([]string, 0, len(renders))
	for _, f := range renders {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		data, err := f.render()
		if err != nil {
			return written, fmt.Errorf("render %s: %w", f.name, err)
		}
		path := filepath.Join(w.outDir, f.name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", f.name, err)
		}
		written = append(written, path)
	}

	if w.stepSummary != "" {
		if err := w.appendStepSummary(v); err != nil {
			log.WithError(err).WithField("path", w.stepSummary).Warn("Could not append step summary")
		}
	}

	log.WithFields(log.Fields{"dir": w.outDir, "files": len(written)}).Info("Audit reports written")
	return written, nil
}

func (w *fileWriter) appendStepSummary(v view) error {
	data, err := execute(fileSummaryMD, v)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(w.stepSummary, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func execute(name string, v view) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshal(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// ============================================================================
// JSON documents
// ============================================================================

type jsonMetadata struct {
	ID        string `json:"id,omitempty"`
	Timestamp string `json:"timestamp"`
	Generator string `json:"generator,omitempty"`
	Version   string `json:"version,omitempty"`
}

type jsonSource struct {
	Vulnerabilities domain.VulnerabilityIndex `json:"vulnerabilities"`
	PackageCount    int                       `json:"package_count"`
}

type jsonDependency struct {
	Name            string   `json:"name"`
	Version         string   `json:"version"`
	License         string   `json:"license"`
	Vulnerabilities []string `json:"vulnerabilities"`
}

type jsonReport struct {
	Metadata jsonMetadata `json:"metadata"`
	Summary  struct {
		TotalDependencies    int                `json:"total_dependencies"`
		TotalVulnerabilities int                `json:"total_vulnerabilities"`
		SafePackages         int                `json:"safe_packages"`
		VulnerabilityStatus  string             `json:"vulnerability_status"`
		Passed               bool               `json:"passed"`
		FailedChecks         []domain.CheckName `json:"failed_checks"`
	} `json:"summary"`
	Checks               map[domain.CheckName]bool `json:"checks"`
	AuditSources         map[string]jsonSource     `json:"audit_sources"`
	Dependencies         []jsonDependency          `json:"dependencies"`
	VulnerabilityDetails domain.VulnerabilityIndex `json:"vulnerability_details"`
	LicenseViolations    []domain.LicenseViolation `json:"license_violations"`
	Outdated             []domain.OutdatedPackage  `json:"outdated"`
	Warnings             []string                  `json:"warnings"`
}

func newJSONReport(r *domain.AuditReport, v view) jsonReport {
	var doc jsonReport
	doc.Metadata = jsonMetadata{ID: v.ID, Timestamp: v.Timestamp, Generator: generator, Version: "1.0"}
	doc.Summary.TotalDependencies = v.Total
	doc.Summary.TotalVulnerabilities = v.Vulnerable
	doc.Summary.SafePackages = v.Safe
	doc.Summary.VulnerabilityStatus = "PASS"
	if v.Vulnerable > 0 {
		doc.Summary.VulnerabilityStatus = "WARNING"
	}
	doc.Summary.Passed = v.Passed
	doc.Summary.FailedChecks = nonNil(r.FailedChecks())
	doc.Checks = r.Checks
	doc.AuditSources = map[string]jsonSource{
		"pip_audit": {Vulnerabilities: nonNilIndex(r.PipAudit), PackageCount: len(r.PipAudit)},
		"safety":    {Vulnerabilities: nonNilIndex(r.Safety), PackageCount: len(r.Safety)},
	}
	doc.Dependencies = make([]jsonDependency, 0, len(v.Rows))
	for _, row := range v.Rows {
		doc.Dependencies = append(doc.Dependencies, jsonDependency{
			Name:            row.Package,
			Version:         row.Version,
			License:         row.License,
			Vulnerabilities: row.Vulnerabilities,
		})
	}
	doc.VulnerabilityDetails = nonNilIndex(r.Vulnerabilities)
	doc.LicenseViolations = nonNil(r.LicenseViolations)
	doc.Outdated = nonNil(r.Outdated)
	doc.Warnings = nonNil(r.Warnings)
	return doc
}

type jsonTable struct {
	Metadata struct {
		Timestamp          string `json:"timestamp"`
		TotalPackages      int    `json:"total_packages"`
		VulnerablePackages int    `json:"vulnerable_packages"`
	} `json:"metadata"`
	Table []TableRow `json:"table"`
}

func newJSONTable(r *domain.AuditReport, v view) jsonTable {
	var doc jsonTable
	doc.Metadata.Timestamp = v.Timestamp
	doc.Metadata.TotalPackages = len(r.Dependencies)
	doc.Metadata.VulnerablePackages = len(r.Vulnerabilities)
	doc.Table = v.Rows
	return doc
}

type sbomComponent struct {
	Name    string `json:"Name"`
	Version string `json:"Version"`
	License string `json:"License"`
}

func newSBOM(r *domain.AuditReport) []sbomComponent {
	out := make([]sbomComponent, 0, len(r.Dependencies))
	for _, dep := range r.SortedDependencies() {
		out = append(out, sbomComponent{Name: dep.Name, Version: dep.Version, License: dep.License})
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func nonNilIndex(idx domain.VulnerabilityIndex) domain.VulnerabilityIndex {
	if idx == nil {
		return domain.VulnerabilityIndex{}
	}
	return idx
}
