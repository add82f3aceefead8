package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/y2cl/ljextractor/internal/config"
	"github.com/y2cl/ljextractor/internal/logging"
)

// newRunCmd creates the 'run' subcommand. Without flags it drops into the
// interactive menu; the flags allow scripted one-shot runs.
func newRunCmd() *cobra.Command {
	var (
		runAll  bool
		count   int
		postRef string
		baseURL string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Starts the harvester",
		Long: `Harvests the configured blog. With no flags an interactive menu asks
which mode to run; --all, --count, and --post select a mode directly.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := logging.New(cfg.Logging.Development, cfg.Logging.File)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := newHarvestApp(cfg, logger, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if baseURL != "" {
				app.session.SetBaseURL(baseURL)
			}

			switch {
			case runAll:
				return app.runHarvest(ctx, 0)
			case count > 0:
				return app.runHarvest(ctx, count)
			case postRef != "":
				return app.runOne(ctx, postRef)
			default:
				return app.runMenu(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			}
		},
	}

	cmd.Flags().BoolVar(&runAll, "all", false, "archive every post")
	cmd.Flags().IntVar(&count, "count", 0, "archive only the first N posts in listing order")
	cmd.Flags().StringVar(&postRef, "post", "", "archive one post by URL or numeric identifier")
	cmd.Flags().StringVar(&baseURL, "url", "", "override the target blog base URL")

	return cmd
}
