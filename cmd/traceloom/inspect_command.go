package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"traceloom/internal/recovery"
	"traceloom/internal/runs"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var domain string

	cmd := &cobra.Command{
		Use:   "inspect [session-id]",
		Short: "Reconcile a session's progress ledger against its results",
		Long: `Inspect compares a session's progress ledger with its result file and
reports anomalies: completed items without a result, successful results
the ledger never recorded, and failed attempts awaiting retry. It never
modifies anything.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var session runs.Session
			switch {
			case len(args) == 1:
				session, err = runs.ParseID(args[0])
				if err != nil {
					return err
				}
			case domain != "":
				latest, ok, err := runs.Latest(cfg.Paths.ResultsDir, domain)
				if err != nil {
					return err
				}
				if !ok {
					cmd.Printf("No sessions found for domain %q in %s\n", domain, cfg.Paths.ResultsDir)
					return nil
				}
				session = latest
			default:
				return errors.New("provide a session id or --domain")
			}

			report, err := recovery.Inspect(
				session.LedgerPath(cfg.Paths.ResultsDir),
				session.SinkPath(cfg.Paths.ResultsDir),
			)
			if errors.Is(err, recovery.ErrMissingArtifacts) {
				cmd.Printf("Session %s has no artifacts on disk; nothing to inspect.\n", session.ID())
				return nil
			}
			if err != nil {
				return err
			}

			printReport(cmd, session, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "Inspect the most recent session for this domain")

	return cmd
}

func printReport(cmd *cobra.Command, session runs.Session, report *recovery.Report) {
	status := "consistent"
	if !report.Consistent() {
		status = "anomalies found"
	}

	rows := [][]string{
		{"Session", session.ID()},
		{"Status", status},
		{"Completed (ledger)", strconv.Itoa(report.TotalCompleted)},
		{"Attempted (results)", strconv.Itoa(report.TotalAttempted)},
		{"Failed attempts", strconv.Itoa(len(report.FailedAttempts))},
	}
	if len(report.MissingResults) > 0 {
		rows = append(rows, []string{"Missing results", strings.Join(report.MissingResults, ", ")})
	}
	if len(report.UnledgeredSuccesses) > 0 {
		rows = append(rows, []string{"Unledgered successes", strings.Join(report.UnledgeredSuccesses, ", ")})
	}
	cmd.Println(renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))

	if len(report.UnledgeredSuccesses) > 0 {
		cmd.Println("Unledgered successes will be retried on the next resumed run.")
	}
	if len(report.MissingResults) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Missing results indicate a damaged results file; the ledger claims items the file does not hold.")
	}
}
