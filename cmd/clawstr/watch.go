package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/heartbeat"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/logger"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/presenter"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/runstore"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the pipeline on a schedule and on skill file changes",
	Long: `Runs the consolidation pipeline periodically and whenever a skill document
under the skills directory is created or modified. With --once a single
scheduled run executes and the command exits.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		interval, _ := cmd.Flags().GetDuration("interval")
		debounce, _ := cmd.Flags().GetDuration("debounce")
		once, _ := cmd.Flags().GetBool("once")

		runner := func(ctx context.Context) error {
			summary, err := executeRun(ctx)
			if err != nil {
				return err
			}
			presenter.Stats(presenter.ConvertSummary(summary))
			return nil
		}

		var opts []heartbeat.Option
		if storePath := viper.GetString("store_path"); storePath != "" {
			store, err := runstore.New(ctx, storePath)
			if err != nil {
				presenter.Error(err, "Failed to open run store")
				return
			}
			defer store.Close()
			opts = append(opts, heartbeat.WithRunSource(store))
		}
		scheduler := heartbeat.NewScheduler(interval, runner, opts...)

		if once {
			if err := scheduler.RunOnce(ctx); err != nil {
				presenter.Error(err, "Scheduled run failed")
			}
			return
		}

		config := orchestratorConfigFromViper()
		watcher := heartbeat.NewWatcher(config.SkillsRoot(), runner, debounce)

		group, ctx := errgroup.WithContext(ctx)
		group.Go(func() error { return scheduler.Start(ctx) })
		group.Go(func() error { return watcher.Start(ctx) })

		presenter.Info("Watching for skill changes... Press Ctrl+C to stop")
		if err := group.Wait(); err != nil && err != context.Canceled {
			logger.G(ctx).WithError(err).Error("watch mode stopped")
		}
	},
}

func init() {
	watchCmd.Flags().Duration("interval", heartbeat.DefaultInterval, "Time between scheduled runs")
	watchCmd.Flags().Duration("debounce", heartbeat.DefaultDebounce, "Quiet period after a file change before a run fires")
	watchCmd.Flags().Bool("once", false, "Execute a single scheduled run and exit")
}
