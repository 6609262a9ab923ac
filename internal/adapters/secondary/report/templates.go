package report

import (
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"join": func(ids []string) string { return strings.Join(ids, ", ") },
}

const tableTmpl = `{{define "table"}}| Package | Version | License | Vulnerabilities |
|---------|---------|---------|------------------|
{{range .}}| {{.Package}} | {{.Version}} | {{.License}} | {{.Cell}} |
{{end}}{{end}}`

const reportTmpl = `# ML Audit Platform - Security Report

**Generated:** {{.Timestamp}}
**Audit ID:** {{.ID}}

---

## Executive Summary

| Metric | Value |
|--------|-------|
| **Total Dependencies** | {{.Total}} |
| **Total Vulnerabilities** | {{.Vulnerable}} |
| **Safe Packages** | {{.Safe}} |
| **License Violations** | {{len .LicenseViolations}} |
| **Outdated Packages** | {{len .Outdated}} |
| **Report Date** | {{.Date}} |

---

## Security Status

{{if eq .Vulnerable 0}}✅ **PASS** - No vulnerabilities detected in dependencies{{else}}⚠️ **WARNING** - {{.Vulnerable}} package(s) with vulnerabilities detected{{end}}

| Check | Result |
|-------|--------|
{{range .Checks}}| {{.Name}} | {{if .Passed}}pass{{else}}FAIL{{end}} |
{{end}}
---

## Audit Table (Package | Version | License | Vulnerabilities)

{{template "table" .Rows}}
{{- if .Details}}
---

## Vulnerability Details
{{range .Details}}
### {{.Package}}
- **Vulnerabilities:** {{join .IDs}}
{{end}}{{end}}
---

## Audit Tool Reports
{{range .Sources}}
### {{.Name}} Results
{{if .Packages}}- **Packages with vulnerabilities:** {{len .Packages}}
{{range .Packages}}  - {{.Package}}: {{join .IDs}}
{{end}}{{else}}- ✅ No vulnerabilities found
{{end}}{{end}}
---

## License Inventory

| License | Packages |
|---------|----------|
{{range .LicenseCounts}}| {{.License}} | {{.Count}} |
{{end}}
{{- if .LicenseViolations}}
### License Violations
{{range .LicenseViolations}}- {{.Package}}: {{.License}}
{{end}}{{end}}
{{- if .Outdated}}
---

## Outdated Packages

| Package | Installed | Latest |
|---------|-----------|--------|
{{range .Outdated}}| {{.Name}} | {{.Version}} | {{.Latest}} |
{{end}}{{end}}
{{- if .Warnings}}
---

## Warnings
{{range .Warnings}}- {{.}}
{{end}}{{end}}
---

## Compliance Checklist

- [x] Dependency analysis completed
- [x] License analysis completed
- [x] CVE vulnerability scan (pip-audit) completed
- [x] Additional vulnerability scan (safety) completed
- {{if .Passed}}[x] Security gates passed{{else}}[!] Security gates require attention{{end}}
`

const auditTableTmpl = `# Audit Table (Package | Version | License | Vulnerabilities)

**Generated:** {{.Timestamp}}

{{template "table" .Rows}}`

const summaryTmpl = `## ML Audit Platform - Security Report

### Summary Statistics
- **Total Dependencies Analyzed:** {{.Total}}
- **Vulnerabilities Found:** {{.Vulnerable}}
- **Safe Packages:** {{.Safe}}
- **Safety Rate:** {{printf "%.1f" .SafetyRate}}%

### Status
{{if .Passed}}✅ **PASS** - All audit checks passed{{else}}⚠️ **WARNING** - Failed checks:{{range .Checks}}{{if not .Passed}} {{.Name}}{{end}}{{end}}{{end}}

### Top {{len .Top}} Dependencies
{{range .Top}}- {{.Package}} ({{.Version}}){{if .Vulnerabilities}} 🔴{{else}} ✅{{end}}
{{end}}
{{- if .Remaining}}
... and {{.Remaining}} more dependencies
{{end}}`

var templates = template.Must(template.New("report").Funcs(funcs).Parse(tableTmpl))

func init() {
	template.Must(templates.New(fileReportMD).Parse(reportTmpl))
	template.Must(templates.New(fileTableMD).Parse(auditTableTmpl))
	template.Must(templates.New(fileSummaryMD).Parse(summaryTmpl))
}
