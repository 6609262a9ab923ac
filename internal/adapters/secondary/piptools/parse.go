package piptools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"ml-audit-platform/internal/core/domain"
)

const unknownID = "N/A"

var cveLine = regexp.MustCompile(`(\w[\w-]*)\s+.*?(CVE-\d{4}-\d+)`)

type pipAuditReport struct {
	Dependencies []struct {
		Name  string `json:"name"`
		Vulns []struct {
			ID string `json:"id"`
		} `json:"vulns"`
	} `json:"dependencies"`
	// Older pip-audit releases emitted a flat list.
	Vulnerabilities []struct {
		Name string `json:"name"`
		ID   string `json:"id"`
	} `json:"vulnerabilities"`
}

// ParsePipAudit reads pip-audit JSON output. Anything that is not JSON is
// scanned line by line for "<package> ... CVE-YYYY-NNNN".
func ParsePipAudit(out []byte) domain.VulnerabilityIndex {
	idx := domain.VulnerabilityIndex{}

	var report pipAuditReport
	if err := json.Unmarshal(out, &report); err == nil {
		for _, dep := range report.Dependencies {
			for _, v := range dep.Vulns {
				idx.Add(dep.Name, orUnknownID(v.ID))
			}
		}
		for _, v := range report.Vulnerabilities {
			idx.Add(orUnknown(v.Name), orUnknownID(v.ID))
		}
		return idx
	}

	for _, line := range strings.Split(string(out), "\n") {
		if m := cveLine.FindStringSubmatch(line); m != nil {
			idx.Add(m[1], m[2])
		}
	}
	return idx
}

type safetyEntry struct {
	Package string  `json:"package"`
	CVE     *string `json:"cve"`
	ID      *string `json:"id"`
}

type safetyReport struct {
	Vulnerabilities []struct {
		PackageName     string `json:"package_name"`
		VulnerabilityID string `json:"vulnerability_id"`
		CVE             string `json:"CVE"`
	} `json:"vulnerabilities"`
}

// ParseSafety reads `safety check --json`. Three layouts are accepted: a list of
// objects, a list of positional arrays (safety 1.x) and the safety 2.x report object.
func ParseSafety(out []byte) (domain.VulnerabilityIndex, error) {
	idx := domain.VulnerabilityIndex{}
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return idx, nil
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: safety: %v", domain.ErrToolOutputFormat, err)
		}
		for _, raw := range items {
			addSafetyItem(idx, raw)
		}
		return idx, nil
	}

	var report safetyReport
	if err := json.Unmarshal(trimmed, &report); err != nil {
		return nil, fmt.Errorf("%w: safety: %v", domain.ErrToolOutputFormat, err)
	}
	for _, v := range report.Vulnerabilities {
		id := v.CVE
		if id == "" {
			id = v.VulnerabilityID
		}
		idx.Add(orUnknown(v.PackageName), orUnknownID(id))
	}
	return idx, nil
}

func addSafetyItem(idx domain.VulnerabilityIndex, raw json.RawMessage) {
	var entry safetyEntry
	if err := json.Unmarshal(raw, &entry); err == nil {
		id := ""
		switch {
		case entry.CVE != nil && *entry.CVE != "":
			id = *entry.CVE
		case entry.ID != nil:
			id = *entry.ID
		}
		idx.Add(orUnknown(entry.Package), orUnknownID(id))
		return
	}

	// [name, affected spec, installed version, advisory, id]
	var row []string
	if err := json.Unmarshal(raw, &row); err == nil && len(row) >= 5 {
		idx.Add(orUnknown(row[0]), orUnknownID(row[4]))
	}
}

// ParsePipLicenses reads pip-licenses JSON. Missing fields become "Unknown".
func ParsePipLicenses(out []byte) ([]domain.Dependency, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return []domain.Dependency{}, nil
	}

	var entries []struct {
		Name    string `json:"Name"`
		Version string `json:"Version"`
		License string `json:"License"`
	}
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, fmt.Errorf("%w: pip-licenses: %v", domain.ErrToolOutputFormat, err)
	}

	deps := make([]domain.Dependency, 0, len(entries))
	for _, e := range entries {
		deps = append(deps, domain.Dependency{
			Name:    orUnknown(e.Name),
			Version: orUnknown(e.Version),
			License: orUnknown(e.License),
		})
	}
	return deps, nil
}

// ParseOutdated reads `pip list --outdated --format=json`.
func ParseOutdated(out []byte) ([]domain.OutdatedPackage, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return []domain.OutdatedPackage{}, nil
	}

	var pkgs []domain.OutdatedPackage
	if err := json.Unmarshal(trimmed, &pkgs); err != nil {
		return nil, fmt.Errorf("%w: pip list: %v", domain.ErrToolOutputFormat, err)
	}
	return pkgs, nil
}

func orUnknown(s string) string {
	if s == "" {
		return domain.UnknownValue
	}
	return s
}

func orUnknownID(s string) string {
	if s == "" {
		return unknownID
	}
	return s
}
