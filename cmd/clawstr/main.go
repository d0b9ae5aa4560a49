package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/logger"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/orchestrator"
)

func init() {
	// Environment variables
	viper.SetEnvPrefix("CLAWSTR")
	viper.AutomaticEnv()

	// Config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.clawstr")
	viper.AddConfigPath(".")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()

	viper.SetDefault("skills_dir", orchestrator.DefaultSkillsDir)
	viper.SetDefault("archive_dir", orchestrator.DefaultArchiveDir)
	viper.SetDefault("similarity_threshold", orchestrator.DefaultSimilarityThreshold)
	viper.SetDefault("duplicate_threshold", orchestrator.DefaultDuplicateThreshold)
	viper.SetDefault("auto_commit", true)
	viper.SetDefault("remote", orchestrator.DefaultRemote)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "fmt")
}

var tracerShutdown func(context.Context) error

var rootCmd = &cobra.Command{
	Use:   "clawstr",
	Short: "Skill consolidation orchestrator",
	Long: `Clawstr discovers skill documents in a repository, groups similar ones by
embedding similarity, consolidates each group into a master skill, publishes
the result, and archives the originals.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetLogLevel(viper.GetString("log_level"))
		logger.SetLogFormat(viper.GetString("log_format"))

		shutdown, err := initTracing(cmd.Context())
		if err != nil {
			logger.G(cmd.Context()).WithError(err).Warn("failed to initialize tracing")
			return
		}
		tracerShutdown = shutdown
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if tracerShutdown != nil {
			if err := tracerShutdown(cmd.Context()); err != nil {
				logger.G(cmd.Context()).WithError(err).Warn("failed to shut down tracing")
			}
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(1)
	},
}

// orchestratorConfigFromViper assembles the pipeline configuration from
// flags, environment, and config file.
func orchestratorConfigFromViper() orchestrator.Config {
	repo := viper.GetString("repo")
	if repo == "" {
		repo = "."
	}
	return orchestrator.Config{
		RepoPath:            repo,
		SkillsDir:           viper.GetString("skills_dir"),
		OutputDir:           viper.GetString("output_dir"),
		ArchiveDir:          viper.GetString("archive_dir"),
		SimilarityThreshold: viper.GetFloat64("similarity_threshold"),
		DuplicateThreshold:  viper.GetFloat64("duplicate_threshold"),
		AutoCommit:          viper.GetBool("auto_commit"),
		AutoPush:            viper.GetBool("auto_push"),
		Remote:              viper.GetString("remote"),
		Branch:              viper.GetString("branch"),
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.PersistentFlags().String("repo", "", "Path to the target repository (defaults to the working directory)")
	rootCmd.PersistentFlags().String("skills-dir", orchestrator.DefaultSkillsDir, "Directory under the repo scanned for skills")
	rootCmd.PersistentFlags().String("archive-dir", orchestrator.DefaultArchiveDir, "Directory under the repo superseded skills are moved to")
	rootCmd.PersistentFlags().Float64("threshold", orchestrator.DefaultSimilarityThreshold, "Similarity threshold for grouping skills")
	rootCmd.PersistentFlags().String("store-path", "", "SQLite database path for run history (empty disables persistence)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt, json, text)")

	viper.BindPFlag("repo", rootCmd.PersistentFlags().Lookup("repo"))
	viper.BindPFlag("skills_dir", rootCmd.PersistentFlags().Lookup("skills-dir"))
	viper.BindPFlag("archive_dir", rootCmd.PersistentFlags().Lookup("archive-dir"))
	viper.BindPFlag("similarity_threshold", rootCmd.PersistentFlags().Lookup("threshold"))
	viper.BindPFlag("store_path", rootCmd.PersistentFlags().Lookup("store-path"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(withTracing(runCmd))
	rootCmd.AddCommand(withTracing(watchCmd))
	rootCmd.AddCommand(withTracing(serveCmd))
	rootCmd.AddCommand(withTracing(duplicatesCmd))
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
