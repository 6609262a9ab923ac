package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ml-audit-platform/internal/adapters/secondary/piptools"
	"ml-audit-platform/internal/adapters/secondary/postgres"
	"ml-audit-platform/internal/adapters/secondary/report"
	"ml-audit-platform/internal/core/domain"
	ports "ml-audit-platform/internal/core/ports/output"
	"ml-audit-platform/internal/core/services"
)

var errAuditFailed = errors.New("audit failed")

var (
	auditRequirements   string
	auditOut            string
	auditDatabaseURL    string
	auditFailOnOutdated bool
	auditDenied         []string
	historyLimit        int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit Python dependencies for vulnerabilities, licenses and updates",
	Long: `Runs pip-audit, safety, pip-licenses and "pip list --outdated" concurrently,
merges the vulnerability findings, applies the license policy and writes
AUDIT_REPORT.md, audit-report.json, AUDIT_TABLE.md, AUDIT_TABLE.json,
GITHUB_SUMMARY.md and sbom_report.json.

A tool that is missing or times out is reported as a warning. The command exits
with status 1 when any check fails.`,
	RunE: runAudit,
}

var auditHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent audit runs recorded in Postgres",
	RunE:  runAuditHistory,
}

func init() {
	auditCmd.Flags().StringVar(&auditRequirements, "requirements", "", "Requirements file for pip-audit (default: AUDIT_REQUIREMENTS)")
	auditCmd.Flags().StringVar(&auditOut, "out", "", "Report directory (default: AUDIT_OUTPUT_DIR)")
	auditCmd.Flags().BoolVar(&auditFailOnOutdated, "fail-on-outdated", false, "Fail the audit when outdated packages exist")
	auditCmd.Flags().StringSliceVar(&auditDenied, "deny-license", nil, "License substrings that fail the audit (default: AUDIT_DENIED_LICENSES)")
	auditCmd.PersistentFlags().StringVar(&auditDatabaseURL, "database-url", "", "Postgres URL for audit history (default: AUDIT_DATABASE_URL)")
	auditHistoryCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to list")
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	requirements := firstNonEmpty(auditRequirements, cfg.Audit.Requirements)
	if _, err := os.Stat(requirements); err != nil {
		log.WithField("requirements", requirements).Warn("Requirements file not found, auditing the active environment")
		requirements = ""
	}
	denied := auditDenied
	if len(denied) == 0 {
		denied = cfg.Audit.DeniedLicenses
	}

	runs, closeStore, err := openHistory(ctx)
	if err != nil {
		log.WithError(err).Warn("Audit history disabled")
	}
	defer closeStore()

	runner := piptools.ExecRunner{Timeout: cfg.Audit.ToolTimeout}
	svc := services.NewAuditService(
		piptools.NewPipAudit(runner, requirements),
		piptools.NewSafety(runner),
		piptools.NewPipLicenses(runner),
		piptools.NewPipOutdated(runner),
		report.NewFileWriter(firstNonEmpty(auditOut, cfg.Audit.OutputDir), os.Getenv("GITHUB_STEP_SUMMARY")),
		runs,
		services.AuditOptions{
			Policy:         domain.LicensePolicy{Denied: denied},
			FailOnOutdated: auditFailOnOutdated,
		},
	)

	rep, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	printChecks(cmd.OutOrStdout(), rep)

	if !rep.Passed() {
		return fmt.Errorf("%w: %v", errAuditFailed, rep.FailedChecks())
	}
	return nil
}

func runAuditHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	runs, closeStore, err := openHistory(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := services.NewAuditService(nil, nil, nil, nil, nil, runs, services.AuditOptions{})
	history, err := svc.History(ctx, historyLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tDEPENDENCIES\tVULNERABLE\tLICENSE VIOLATIONS\tPASSED")
	for _, run := range history {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%t\n",
			run.ID, run.CreatedAt.Format(time.RFC3339), run.TotalDependencies,
			run.VulnerablePackages, run.LicenseViolations, run.Passed)
	}
	return w.Flush()
}

// openHistory connects to the audit history database when one is configured.
// The returned repository is nil when no database URL is set.
func openHistory(ctx context.Context) (ports.AuditRunRepository, func(), error) {
	noop := func() {}
	url := firstNonEmpty(auditDatabaseURL, cfg.Audit.DatabaseURL)
	if url == "" {
		return nil, noop, nil
	}

	pool, err := postgres.Connect(ctx, url)
	if err != nil {
		return nil, noop, err
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, noop, err
	}
	return postgres.NewAuditRunRepository(pool), pool.Close, nil
}

func printChecks(w io.Writer, rep *domain.AuditReport) {
	for _, name := range domain.AllChecks {
		status := "PASS"
		if !rep.Checks[name] {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%-16s %s\n", name, status)
	}
	for _, warning := range rep.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	for _, path := range rep.Files {
		fmt.Fprintf(w, "wrote %s\n", path)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
