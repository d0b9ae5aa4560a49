package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/gitops"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/logger"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/orchestrator"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/presenter"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/relay"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/runstore"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the consolidation pipeline once",
	Long: `Discover skill documents, cluster similar ones, consolidate each cluster
into a master skill, publish the masters, and archive the originals. With
auto-commit enabled the published and archived files are committed afterwards.`,
}

func init() {
	// Assigned in init rather than in the composite literal: the closure
	// references executeRun, which references runCmd for its flags, and a
	// literal Run field would make that an initialization cycle.
	runCmd.Run = func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		summary, err := executeRun(ctx)
		if err != nil {
			presenter.Error(err, "Orchestration failed")
			os.Exit(1)
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			encoded, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				presenter.Error(err, "Failed to encode run summary")
				os.Exit(1)
			}
			fmt.Println(string(encoded))
			return
		}

		presenter.Stats(presenter.ConvertSummary(summary))
	}

	runCmd.Flags().Bool("json", false, "Print the run summary as JSON")
	runCmd.Flags().Bool("no-commit", false, "Skip committing published and archived files")
	runCmd.Flags().Bool("push", false, "Push the consolidation commit to the remote")
	runCmd.Flags().String("relay-url", "", "Endpoint to announce consolidated skills to")

	viper.BindPFlag("relay_url", runCmd.Flags().Lookup("relay-url"))
}

// executeRun runs the pipeline once and drives the post-run collaborators:
// run history, git commit and push, and relay announcements.
func executeRun(ctx context.Context) (*orchestrator.Summary, error) {
	config := orchestratorConfigFromViper()
	if noCommit, _ := runCmd.Flags().GetBool("no-commit"); noCommit {
		config.AutoCommit = false
	}
	if push, _ := runCmd.Flags().GetBool("push"); push {
		config.AutoPush = true
	}

	orch, err := orchestrator.New(config)
	if err != nil {
		return nil, err
	}

	summary, runErr := orch.Run(ctx)

	if storePath := viper.GetString("store_path"); storePath != "" && summary != nil {
		if err := saveSummary(ctx, storePath, summary); err != nil {
			logger.G(ctx).WithError(err).Error("failed to persist run summary")
		}
	}
	if runErr != nil {
		return summary, runErr
	}

	if summary.Status == orchestrator.StatusSuccess && summary.SkillsConsolidated > 0 {
		if orch.Config().AutoCommit {
			vc, err := gitops.New(orch.Config().RepoPath)
			if err != nil {
				logger.G(ctx).WithError(err).Error("failed to open repository for commit")
			} else if err := commitRun(ctx, orch.Config(), vc, summary); err != nil {
				logger.G(ctx).WithError(err).Error("failed to commit consolidation")
			}
		}
		if url := viper.GetString("relay_url"); url != "" {
			channel, err := relay.New(url)
			if err != nil {
				logger.G(ctx).WithError(err).Error("failed to create relay client")
			} else {
				announceMasters(ctx, channel, summary)
			}
		}
	}

	return summary, nil
}

func saveSummary(ctx context.Context, storePath string, summary *orchestrator.Summary) error {
	store, err := runstore.New(ctx, storePath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(ctx, summary)
}

func commitRun(ctx context.Context, config orchestrator.Config, vc orchestrator.VersionControl, summary *orchestrator.Summary) error {
	// Staging the directories picks up both the new files and the deletions
	// left behind by archived originals.
	paths := []string{config.SkillsDir, config.OutputDir, config.ArchiveDir}
	if err := vc.Stage(ctx, paths); err != nil {
		return err
	}

	message := fmt.Sprintf("Consolidate %d skills into %d master skills",
		summary.SkillsArchived, summary.SkillsConsolidated)
	hash, err := vc.Commit(ctx, message)
	if err != nil {
		return err
	}
	if hash == "" {
		return nil
	}
	presenter.Success(fmt.Sprintf("Committed consolidation as %s", hash[:8]))

	if config.AutoPush {
		if err := vc.Push(ctx, config.Remote, config.Branch); err != nil {
			return err
		}
		presenter.Success(fmt.Sprintf("Pushed to %s", config.Remote))
	}
	return nil
}

func announceMasters(ctx context.Context, channel orchestrator.PublishChannel, summary *orchestrator.Summary) {
	for _, master := range summary.Masters {
		if err := channel.Announce(ctx, master, ""); err != nil {
			logger.G(ctx).WithError(err).WithField("skill", master.Name).Error("failed to announce skill")
		}
	}
}
