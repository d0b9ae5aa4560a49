package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/orchestrator"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/presenter"
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "Report near-duplicate skill pairs without changing anything",
	Long: `Scans the skills directory and prints pairs of skills whose similarity
meets the duplicate threshold. Read-only: nothing is consolidated or moved.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		orch, err := orchestrator.New(orchestratorConfigFromViper())
		if err != nil {
			presenter.Error(err, "Invalid orchestrator configuration")
			os.Exit(1)
		}

		pairs, err := orch.Duplicates(ctx)
		if err != nil {
			presenter.Error(err, "Duplicate scan failed")
			os.Exit(1)
		}

		if len(pairs) == 0 {
			presenter.Info("No duplicate skills found")
			return
		}

		presenter.Section(fmt.Sprintf("Found %d duplicate pair(s)", len(pairs)))
		for _, pair := range pairs {
			presenter.Info(fmt.Sprintf("%s <-> %s (%.2f)", pair.A.Name, pair.B.Name, pair.Score))
		}
	},
}
