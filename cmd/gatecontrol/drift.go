package main

import (
	"fmt"

	"gatecontrol-hq/gatecontrol/pkg/cli"
	"gatecontrol-hq/gatecontrol/pkg/drift"

	"github.com/spf13/cobra"
)

var driftFlags struct {
	failOnDrift bool
}

var driftCmd = &cobra.Command{
	Use:   "drift",
	Short: "Detect drift between published files, history and the model",
}

var driftCheckCmd = &cobra.Command{
	Use:   "check [environment]",
	Short: "Check one or every environment for drift",
	Long: `Compare each published file with the last successful publish (tampered) and
with the current model (pending changes).

Examples:
  gatecontrol drift check
  gatecontrol drift check prod --fail-on-drift`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDriftCheck,
}

func init() {
	rootCmd.AddCommand(driftCmd)
	driftCmd.AddCommand(driftCheckCmd)

	driftCheckCmd.Flags().BoolVar(&driftFlags.failOnDrift, "fail-on-drift", false, "exit with status 1 when drift is found")
}

func runDriftCheck(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return cli.NewCommandError("drift check", err)
	}
	defer a.Close()

	var reports []drift.Report
	if len(args) == 1 {
		env, err := a.resolveEnvironment(args[0])
		if err != nil {
			return cli.NewCommandError("drift check", err)
		}
		report, err := a.drift.Check(cmd.Context(), env.ID)
		if err != nil {
			return cli.NewCommandError("drift check", err)
		}
		reports = []drift.Report{report}
	} else {
		reports = a.drift.CheckAll(cmd.Context())
	}

	if err := printResult(cmd, driftTable(reports)); err != nil {
		return err
	}

	drifted := 0
	for _, r := range reports {
		if r.Drifted() {
			drifted++
		}
	}
	if driftFlags.failOnDrift && drifted > 0 {
		return cli.NewCommandError("drift check", fmt.Errorf("%d environments drifted", drifted))
	}
	return nil
}
