package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"traceloom/internal/config"
	"traceloom/internal/dataset"
	"traceloom/internal/dispatch"
	"traceloom/internal/logging"
	"traceloom/internal/pipeline"
	"traceloom/internal/prompts"
	"traceloom/internal/runs"
	"traceloom/internal/services/llm"
	"traceloom/internal/sink"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		limit        int
		noResume     bool
		workers      int
		strictLedger bool
	)

	cmd := &cobra.Command{
		Use:   "run <domain>",
		Short: "Run a reasoning-trace batch over a dataset domain",
		Long: `Run processes every item of a dataset domain through the reasoning
pipeline, persisting each result incrementally. Interrupted runs resume
where they left off unless --no-resume is given.

Domains: handwriting, documents, radiology.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			domain := args[0]
			items, promptsFile, err := enumerateDomain(cfg, domain)
			if err != nil {
				return err
			}
			items = dataset.Limit(items, limit)

			set, err := prompts.LoadFile(promptsFile, domain)
			if err != nil {
				return err
			}

			llmCfg := cfg.GetLLM()
			if llmCfg.APIKey == "" {
				return fmt.Errorf("no API key configured: set [llm] api_key or OPENROUTER_API_KEY")
			}
			client := llm.NewClient(llm.Config{
				APIKey:         llmCfg.APIKey,
				BaseURL:        llmCfg.BaseURL,
				Model:          llmCfg.Model,
				TextModel:      llmCfg.TextModel,
				Referer:        llmCfg.Referer,
				Title:          llmCfg.Title,
				TimeoutSeconds: llmCfg.TimeoutSeconds,
			})

			setup, err := dispatch.Prepare(dispatch.PrepareOptions{
				ResultsDir:      cfg.Paths.ResultsDir,
				Domain:          domain,
				Resume:          !noResume,
				StrictLedger:    strictLedger || cfg.Batch.StrictLedger,
				SinkLockTimeout: time.Duration(cfg.Batch.SinkLockTimeoutSeconds) * time.Second,
			}, logger)
			if err != nil {
				return err
			}

			// Questions derive from the session seed and item identity, so a
			// resumed run asks the same question per item as its first pass.
			engine := pipeline.New(client, set, pipeline.Options{
				MaxStrategies:             cfg.Pipeline.MaxStrategies,
				MaxTokens:                 cfg.Pipeline.MaxTokens,
				RefinementMaxTokens:       cfg.Pipeline.RefinementMaxTokens,
				NaturalReasoningMaxTokens: cfg.Pipeline.NaturalReasoningMaxTokens,
				FinalResponseMaxTokens:    cfg.Pipeline.FinalResponseMaxTokens,
				Temperature:               cfg.Pipeline.Temperature,
				QuestionSeed:              setup.Session.StartedAt.Unix(),
			}, logger)

			if workers <= 0 {
				workers = cfg.Batch.MaxWorkers
			}
			dispatchCfg := dispatch.Config{
				MaxWorkers:  workers,
				ItemTimeout: time.Duration(cfg.Batch.ItemTimeoutSeconds) * time.Second,
			}

			var bar *progressbar.ProgressBar
			if stdoutIsTerminal() {
				dispatchCfg.OnItemDone = func(done, total int) {
					if bar == nil {
						bar = progressbar.NewOptions(total,
							progressbar.OptionSetDescription("processing "+domain),
							progressbar.OptionShowCount(),
							progressbar.OptionClearOnFinish(),
						)
					}
					_ = bar.Set(done)
				}
			}

			store, err := runs.OpenStore(cfg.Paths.ResultsDir)
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := store.Begin(runCtx, setup.Session,
				setup.Sink.Path(), setup.Ledger.Path()); err != nil {
				logger.Warn("session registry unavailable", logging.Error(err))
			}

			dispatcher := dispatch.New(setup.Session, setup.Ledger, setup.Sink, dispatchCfg, logger)
			summary, runErr := dispatcher.Run(runCtx, items, engine.Process)
			if bar != nil {
				_ = bar.Finish()
			}

			if err := store.Finish(runCtx, setup.Session.ID(),
				summary.Skipped, summary.Succeeded, summary.Failed); err != nil {
				logger.Warn("session registry update failed", logging.Error(err))
			}

			if summary.Succeeded > 0 {
				if err := writeSimplified(cfg, setup); err != nil {
					logger.Warn("simplified projection failed", logging.Error(err))
				}
			}

			printSummary(cmd, summary, setup)
			return runErr
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Process at most this many items (0 means all)")
	cmd.Flags().BoolVar(&noResume, "no-resume", false, "Start a fresh session instead of resuming the latest one")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent pipeline workers (defaults to config)")
	cmd.Flags().BoolVar(&strictLedger, "strict-ledger", false, "Abort on a corrupt progress ledger instead of restarting it")

	return cmd
}

func enumerateDomain(cfg *config.Config, domain string) ([]dataset.Item, string, error) {
	switch domain {
	case "handwriting":
		items, err := dataset.HandwritingSource{
			ImagesDir: cfg.Handwriting.ImagesDir,
			XMLDir:    cfg.Handwriting.XMLDir,
		}.Enumerate()
		return items, cfg.Handwriting.PromptsFile, err
	case "documents":
		items, err := dataset.DocumentsSource{
			ManifestPath: cfg.Documents.ManifestPath,
			Granularity:  cfg.Documents.Granularity,
		}.Enumerate()
		return items, cfg.Documents.PromptsFile, err
	case "radiology":
		items, err := dataset.RadiologySource{
			ManifestPath: cfg.Radiology.ManifestPath,
			Modality:     cfg.Radiology.Modality,
		}.Enumerate()
		return items, cfg.Radiology.PromptsFile, err
	default:
		return nil, "", fmt.Errorf("unknown domain %q (expected handwriting, documents, or radiology)", domain)
	}
}

func writeSimplified(cfg *config.Config, setup dispatch.Setup) error {
	simplified, err := setup.Sink.Finalize()
	if err != nil {
		return err
	}
	return sink.WriteSimplified(setup.Session.SimplifiedPath(cfg.Paths.ResultsDir), simplified)
}

func printSummary(cmd *cobra.Command, summary dispatch.Summary, setup dispatch.Setup) {
	rows := [][]string{{
		summary.Session.ID(),
		strconv.Itoa(summary.Total()),
		strconv.Itoa(summary.Skipped),
		strconv.Itoa(summary.Succeeded),
		strconv.Itoa(summary.Failed),
		setup.Sink.Path(),
	}}
	cmd.Println(renderTable(
		[]string{"Session", "Total", "Skipped", "Succeeded", "Failed", "Results"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
}
