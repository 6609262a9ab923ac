// Package report renders an audit report into Markdown and JSON files.
package report

import (
	"sort"
	"strings"
	"time"

	"ml-audit-platform/internal/core/domain"
)

const (
	maxVulnCell  = 50
	summaryLimit = 10
	emptyCell    = "—"
)

// TableRow is one line of the Package | Version | License | Vulnerabilities table.
type TableRow struct {
	Package         string   `json:"Package"`
	Version         string   `json:"Version"`
	License         string   `json:"License"`
	Vulnerabilities []string `json:"Vulnerabilities"`
}

// Cell renders the vulnerability column, truncated to fit the table.
func (r TableRow) Cell() string {
	return vulnCell(r.Vulnerabilities)
}

func vulnCell(ids []string) string {
	if len(ids) == 0 {
		return emptyCell
	}
	s := strings.Join(ids, ", ")
	if len(s) > maxVulnCell {
		s = s[:maxVulnCell-3] + "..."
	}
	return s
}

// BuildTable lists every dependency, sorted case-insensitively by name,
// with the merged vulnerabilities reported against it.
func BuildTable(r *domain.AuditReport) []TableRow {
	deps := r.SortedDependencies()
	rows := make([]TableRow, 0, len(deps))
	for _, dep := range deps {
		ids := r.Vulnerabilities[dep.Name]
		if ids == nil {
			ids = []string{}
		}
		rows = append(rows, TableRow{
			Package:         dep.Name,
			Version:         dep.Version,
			License:         dep.License,
			Vulnerabilities: ids,
		})
	}
	return rows
}

type checkView struct {
	Name   domain.CheckName
	Passed bool
}

type sourceView struct {
	Name     string
	Packages []vulnView
}

type vulnView struct {
	Package string
	IDs     []string
}

type licenseCount struct {
	License string
	Count   int
}

// view is the data handed to every Markdown template.
type view struct {
	ID                string
	Timestamp         string
	Date              string
	Total             int
	Vulnerable        int
	Safe              int
	SafetyRate        float64
	Passed            bool
	Checks            []checkView
	Rows              []TableRow
	Details           []vulnView
	Sources           []sourceView
	LicenseViolations []domain.LicenseViolation
	LicenseCounts     []licenseCount
	Outdated          []domain.OutdatedPackage
	Warnings          []string
	Top               []TableRow
	Remaining         int
}

func newView(r *domain.AuditReport) view {
	rows := BuildTable(r)
	v := view{
		ID:                r.ID.String(),
		Timestamp:         r.GeneratedAt.Format(time.RFC3339),
		Date:              r.GeneratedAt.Format("2006-01-02 15:04:05 UTC"),
		Total:             len(r.Dependencies),
		Vulnerable:        len(r.Vulnerabilities),
		Safe:              r.SafePackages(),
		Passed:            r.Passed(),
		Rows:              rows,
		Details:           vulnViews(r.Vulnerabilities),
		LicenseViolations: r.LicenseViolations,
		LicenseCounts:     licenseCounts(r),
		Outdated:          r.Outdated,
		Warnings:          r.Warnings,
	}
	v.Sources = []sourceView{
		{Name: "pip-audit", Packages: vulnViews(r.PipAudit)},
		{Name: "safety", Packages: vulnViews(r.Safety)},
	}
	if v.Total > 0 {
		v.SafetyRate = float64(v.Safe) / float64(v.Total) * 100
	}
	for _, name := range domain.AllChecks {
		if passed, ok := r.Checks[name]; ok {
			v.Checks = append(v.Checks, checkView{Name: name, Passed: passed})
		}
	}
	v.Top = rows
	if len(rows) > summaryLimit {
		v.Top = rows[:summaryLimit]
		v.Remaining = len(rows) - summaryLimit
	}
	return v
}

func vulnViews(idx domain.VulnerabilityIndex) []vulnView {
	var out []vulnView
	for _, pkg := range idx.Packages() {
		out = append(out, vulnView{Package: pkg, IDs: idx[pkg]})
	}
	return out
}

func licenseCounts(r *domain.AuditReport) []licenseCount {
	var out []licenseCount
	for license, n := range r.LicenseCounts() {
		out = append(out, licenseCount{License: license, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].License < out[j].License
	})
	return out
}
