package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ml-audit-platform/internal/core/domain"
)

func sampleReport() *domain.AuditReport {
	deps := []domain.Dependency{
		{Name: "beta", Version: "2.0", License: "BSD"},
		{Name: "Alpha", Version: "1.0", License: "MIT"},
	}
	for i := 1; i <= 10; i++ {
		deps = append(deps, domain.Dependency{Name: fmt.Sprintf("pkg%02d", i), Version: "0.1", License: "Apache-2.0"})
	}
	alphaIDs := []string{"CVE-2024-10001", "CVE-2024-10002", "CVE-2024-10003", "CVE-2024-10004"}

	return &domain.AuditReport{
		ID:              uuid.MustParse("7b0e4cb8-3f5e-4c55-9a36-5e4c7a1d2b10"),
		GeneratedAt:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Dependencies:    deps,
		PipAudit:        domain.VulnerabilityIndex{"Alpha": alphaIDs[:2]},
		Safety:          domain.VulnerabilityIndex{"Alpha": alphaIDs},
		Vulnerabilities: domain.VulnerabilityIndex{"Alpha": alphaIDs},
		Outdated:        []domain.OutdatedPackage{{Name: "beta", Version: "2.0", Latest: "3.0"}},
		Checks: map[domain.CheckName]bool{
			domain.CheckVulnerabilities: false,
			domain.CheckLicenses:        true,
			domain.CheckOutdated:        true,
			domain.CheckSBOM:            true,
		},
		Warnings: []string{"safety: audit tool not available"},
	}
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestVulnCell(t *testing.T) {
	assert.Equal(t, "—", vulnCell(nil))
	assert.Equal(t, "CVE-2024-1, 64227", vulnCell([]string{"CVE-2024-1", "64227"}))

	long := vulnCell([]string{"CVE-2024-10001", "CVE-2024-10002", "CVE-2024-10003", "CVE-2024-10004"})
	assert.Len(t, long, 50)
	assert.Equal(t, "CVE-2024-10001, CVE-2024-10002, CVE-2024-10003,...", long)
}

func TestBuildTable_SortsCaseInsensitively(t *testing.T) {
	rows := BuildTable(sampleReport())

	require.Len(t, rows, 12)
	assert.Equal(t, "Alpha", rows[0].Package)
	assert.Equal(t, "beta", rows[1].Package)
	assert.Len(t, rows[0].Vulnerabilities, 4)
	assert.NotNil(t, rows[1].Vulnerabilities)
	assert.Empty(t, rows[1].Vulnerabilities)
}

func TestFileWriter_Write(t *testing.T) {
	dir := t.TempDir()
	stepSummary := filepath.Join(t.TempDir(), "step-summary.md")
	require.NoError(t, os.WriteFile(stepSummary, []byte("previous step\n"), 0o644))

	files, err := NewFileWriter(dir, stepSummary).Write(context.Background(), sampleReport())
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{
		"AUDIT_REPORT.md", "audit-report.json", "AUDIT_TABLE.md",
		"AUDIT_TABLE.json", "GITHUB_SUMMARY.md", "sbom_report.json",
	}, names)

	md := readFile(t, dir, "AUDIT_REPORT.md")
	assert.Contains(t, md, "| Package | Version | License | Vulnerabilities |")
	assert.Contains(t, md, "| Alpha | 1.0 | MIT | CVE-2024-10001, CVE-2024-10002, CVE-2024-10003,... |")
	assert.Contains(t, md, "| beta | 2.0 | BSD | — |")
	assert.Contains(t, md, "1 package(s) with vulnerabilities detected")
	assert.Contains(t, md, "| vulnerabilities | FAIL |")
	assert.Contains(t, md, "- **Vulnerabilities:** CVE-2024-10001, CVE-2024-10002, CVE-2024-10003, CVE-2024-10004")
	assert.Contains(t, md, "| beta | 2.0 | 3.0 |")
	assert.Contains(t, md, "- safety: audit tool not available")
	assert.Less(t, strings.Index(md, "| Alpha |"), strings.Index(md, "| beta |"))

	table := readFile(t, dir, "AUDIT_TABLE.md")
	assert.True(t, strings.HasPrefix(table, "# Audit Table"))
	assert.Contains(t, table, "| pkg10 | 0.1 | Apache-2.0 | — |")

	summary := readFile(t, dir, "GITHUB_SUMMARY.md")
	assert.Contains(t, summary, "**Safety Rate:** 91.7%")
	assert.Contains(t, summary, "- Alpha (1.0) 🔴")
	assert.Contains(t, summary, "- pkg08 (0.1) ✅")
	assert.NotContains(t, summary, "pkg09")
	assert.Contains(t, summary, "... and 2 more dependencies")
	assert.Contains(t, summary, "Failed checks: vulnerabilities")

	step := readFile(t, filepath.Dir(stepSummary), filepath.Base(stepSummary))
	assert.True(t, strings.HasPrefix(step, "previous step\n"))
	assert.Contains(t, step, "**Safety Rate:** 91.7%")

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(readFile(t, dir, "audit-report.json")), &doc))
	summaryJSON := doc["summary"].(map[string]interface{})
	assert.Equal(t, float64(12), summaryJSON["total_dependencies"])
	assert.Equal(t, float64(11), summaryJSON["safe_packages"])
	assert.Equal(t, "WARNING", summaryJSON["vulnerability_status"])
	assert.Equal(t, []interface{}{"vulnerabilities"}, summaryJSON["failed_checks"])
	sources := doc["audit_sources"].(map[string]interface{})
	assert.Equal(t, float64(1), sources["pip_audit"].(map[string]interface{})["package_count"])

	var tableDoc jsonTable
	require.NoError(t, json.Unmarshal([]byte(readFile(t, dir, "AUDIT_TABLE.json")), &tableDoc))
	assert.Equal(t, 12, tableDoc.Metadata.TotalPackages)
	assert.Equal(t, 1, tableDoc.Metadata.VulnerablePackages)
	assert.Equal(t, "Alpha", tableDoc.Table[0].Package)

	var sbom []sbomComponent
	require.NoError(t, json.Unmarshal([]byte(readFile(t, dir, "sbom_report.json")), &sbom))
	assert.Len(t, sbom, 12)
	assert.Equal(t, sbomComponent{Name: "Alpha", Version: "1.0", License: "MIT"}, sbom[0])
}

func TestFileWriter_CleanReport(t *testing.T) {
	dir := t.TempDir()
	r := &domain.AuditReport{
		ID:           uuid.New(),
		GeneratedAt:  time.Now(),
		Dependencies: []domain.Dependency{{Name: "numpy", Version: "1.26.0", License: "BSD"}},
		Checks:       map[domain.CheckName]bool{domain.CheckVulnerabilities: true},
	}

	_, err := NewFileWriter(dir, "").Write(context.Background(), r)
	require.NoError(t, err)

	assert.Contains(t, readFile(t, dir, "AUDIT_REPORT.md"), "**PASS** - No vulnerabilities detected")
	summary := readFile(t, dir, "GITHUB_SUMMARY.md")
	assert.Contains(t, summary, "**Safety Rate:** 100.0%")
	assert.Contains(t, summary, "All audit checks passed")
	assert.NotContains(t, summary, "more dependencies")

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(readFile(t, dir, "audit-report.json")), &doc))
	assert.Equal(t, map[string]interface{}{}, doc["vulnerability_details"])
	assert.Equal(t, []interface{}{}, doc["warnings"])
}

func TestFileWriter_UnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := NewFileWriter(filepath.Join(blocker, "reports"), "").Write(context.Background(), sampleReport())
	assert.Error(t, err)
}
