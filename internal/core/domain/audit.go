package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const UnknownValue = "Unknown"

// Dependency is one installed package as reported by the license scanner.
type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	License string `json:"license"`
}

// VulnerabilityIndex maps a package name to the advisory IDs reported against it.
type VulnerabilityIndex map[string][]string

func (v VulnerabilityIndex) Add(pkg, id string) {
	for _, existing := range v[pkg] {
		if existing == id {
			return
		}
	}
	v[pkg] = append(v[pkg], id)
}

// Packages returns the package names in sorted order.
func (v VulnerabilityIndex) Packages() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MergeVulnerabilities unions several indexes. IDs are deduplicated and sorted per package.
func MergeVulnerabilities(indexes ...VulnerabilityIndex) VulnerabilityIndex {
	merged := make(VulnerabilityIndex)
	for _, idx := range indexes {
		for pkg, ids := range idx {
			for _, id := range ids {
				merged.Add(pkg, id)
			}
		}
	}
	for pkg := range merged {
		sort.Strings(merged[pkg])
	}
	return merged
}

type OutdatedPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Latest  string `json:"latest_version"`
}

type LicenseViolation struct {
	Package string `json:"package"`
	License string `json:"license"`
}

// LicensePolicy flags licenses containing any denied token, e.g. "GPL".
type LicensePolicy struct {
	Denied []string
}

func (p LicensePolicy) Violations(deps []Dependency) []LicenseViolation {
	var out []LicenseViolation
	for _, dep := range deps {
		for _, token := range p.Denied {
			if strings.Contains(dep.License, token) {
				out = append(out, LicenseViolation{Package: dep.Name, License: dep.License})
				break
			}
		}
	}
	return out
}

type CheckName string

const (
	CheckVulnerabilities CheckName = "vulnerabilities"
	CheckLicenses        CheckName = "licenses"
	CheckOutdated        CheckName = "outdated"
	CheckSBOM            CheckName = "sbom"
)

var AllChecks = []CheckName{CheckVulnerabilities, CheckLicenses, CheckOutdated, CheckSBOM}

// AuditReport is the outcome of one audit run.
type AuditReport struct {
	ID                uuid.UUID          `json:"id"`
	GeneratedAt       time.Time          `json:"generated_at"`
	Dependencies      []Dependency       `json:"dependencies"`
	PipAudit          VulnerabilityIndex `json:"pip_audit"`
	Safety            VulnerabilityIndex `json:"safety"`
	Vulnerabilities   VulnerabilityIndex `json:"vulnerabilities"`
	LicenseViolations []LicenseViolation `json:"license_violations"`
	Outdated          []OutdatedPackage  `json:"outdated"`
	Checks            map[CheckName]bool `json:"checks"`
	Warnings          []string           `json:"warnings,omitempty"`
	Files             []string           `json:"files,omitempty"`
}

func (r *AuditReport) Passed() bool {
	for _, name := range AllChecks {
		if passed, ok := r.Checks[name]; ok && !passed {
			return false
		}
	}
	return true
}

// FailedChecks lists failing checks in the fixed AllChecks order.
func (r *AuditReport) FailedChecks() []CheckName {
	var failed []CheckName
	for _, name := range AllChecks {
		if passed, ok := r.Checks[name]; ok && !passed {
			failed = append(failed, name)
		}
	}
	return failed
}

// SortedDependencies orders dependencies by name, case-insensitively.
func (r *AuditReport) SortedDependencies() []Dependency {
	deps := append([]Dependency(nil), r.Dependencies...)
	sort.SliceStable(deps, func(i, j int) bool {
		return strings.ToLower(deps[i].Name) < strings.ToLower(deps[j].Name)
	})
	return deps
}

func (r *AuditReport) LicenseCounts() map[string]int {
	counts := make(map[string]int)
	for _, dep := range r.Dependencies {
		counts[dep.License]++
	}
	return counts
}

// SafePackages counts dependencies without a known vulnerability.
func (r *AuditReport) SafePackages() int {
	safe := len(r.Dependencies) - len(r.Vulnerabilities)
	if safe < 0 {
		return 0
	}
	return safe
}

// AuditRun is the persisted summary of an AuditReport.
type AuditRun struct {
	ID                 uuid.UUID `json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	TotalDependencies  int       `json:"total_dependencies"`
	VulnerablePackages int       `json:"vulnerable_packages"`
	LicenseViolations  int       `json:"license_violations"`
	Passed             bool      `json:"passed"`
}

func (r *AuditReport) Summary() AuditRun {
	return AuditRun{
		ID:                 r.ID,
		CreatedAt:          r.GeneratedAt,
		TotalDependencies:  len(r.Dependencies),
		VulnerablePackages: len(r.Vulnerabilities),
		LicenseViolations:  len(r.LicenseViolations),
		Passed:             r.Passed(),
	}
}
