package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"traceloom/internal/runs"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var domain string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded batch sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := runs.OpenStore(cfg.Paths.ResultsDir)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), domain)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				cmd.Println("No sessions recorded.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				finished := "running"
				if entry.FinishedAt != nil {
					finished = entry.FinishedAt.Local().Format(time.DateTime)
				}
				rows = append(rows, []string{
					entry.ID,
					entry.Domain,
					entry.StartedAt.Local().Format(time.DateTime),
					finished,
					strconv.Itoa(entry.Skipped),
					strconv.Itoa(entry.Succeeded),
					strconv.Itoa(entry.Failed),
				})
			}
			cmd.Println(renderTable(
				[]string{"Session", "Domain", "Started", "Finished", "Skipped", "Succeeded", "Failed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "Only list sessions for this domain")

	return cmd
}
