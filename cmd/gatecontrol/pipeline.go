package main

import (
	"fmt"
	"os"

	"gatecontrol-hq/gatecontrol/pkg/cli"
	"gatecontrol-hq/gatecontrol/pkg/generator"
	"gatecontrol-hq/gatecontrol/pkg/model"
	"gatecontrol-hq/gatecontrol/pkg/publisher"
	"gatecontrol-hq/gatecontrol/pkg/telemetry/logging"

	"github.com/spf13/cobra"
)

var generateFlags struct {
	out string
}

var generateCmd = &cobra.Command{
	Use:   "generate <environment>",
	Short: "Print the Ocelot document of an environment",
	Long: `Compile an environment into its Ocelot configuration document and print it
in canonical form. The environment may be given by id or name. Nothing is
validated or published.

Examples:
  gatecontrol generate dev
  gatecontrol generate dev --out /tmp/ocelot.json`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

var validateCmd = &cobra.Command{
	Use:   "validate <environment>",
	Short: "Validate the compiled document of an environment",
	Long: `Validate an environment and print the issues found. Exits with status 2 when
the environment has errors.

Examples:
  gatecontrol validate dev
  gatecontrol validate dev -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var publishFlags struct {
	all           bool
	actor         string
	changeRequest string
	targets       []string
}

var publishCmd = &cobra.Command{
	Use:   "publish [environment]",
	Short: "Validate and publish an environment",
	Long: `Validate an environment and, if it is valid, write its document to the publish
root, run the configured mirrors and reload the target nodes. Every attempt is
recorded in the publish history. Exits with status 2 when validation fails.

Examples:
  gatecontrol publish dev --actor alice
  gatecontrol publish prod --change-request 8f3e... --target gateway-1 --target gateway-2
  gatecontrol publish --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(generateCmd, validateCmd, publishCmd)

	generateCmd.Flags().StringVar(&generateFlags.out, "out", "", "write the document to this file instead of stdout")

	publishCmd.Flags().BoolVar(&publishFlags.all, "all", false, "publish every environment")
	publishCmd.Flags().StringVar(&publishFlags.actor, "actor", "", "actor recorded on the publish (default $USER)")
	publishCmd.Flags().StringVar(&publishFlags.changeRequest, "change-request", "", "change request id to link")
	publishCmd.Flags().StringSliceVar(&publishFlags.targets, "target", nil, "gateway node to reload (repeatable)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return cli.NewCommandError("generate", err)
	}
	defer a.Close()

	env, err := a.resolveEnvironment(args[0])
	if err != nil {
		return cli.NewCommandError("generate", err)
	}
	data, _, err := generator.New(a.store).BuildAndHash(env.ID)
	if err != nil {
		return cli.NewCommandError("generate", err)
	}

	if generateFlags.out != "" {
		if err := os.WriteFile(generateFlags.out, data, 0o644); err != nil {
			return cli.NewCommandError("generate", err)
		}
		return nil
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	defer a.Close()

	env, err := a.resolveEnvironment(args[0])
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	report, err := a.publisher.Validator().ValidateEnvironment(env.ID)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	if err := printResult(cmd, reportTable{report}); err != nil {
		return err
	}
	if !report.IsValid() {
		return cli.NewCommandError("validate", fmt.Errorf("environment %s: %w", env.Name, cli.ErrValidationFailed))
	}
	return nil
}

func runPublish(cmd *cobra.Command, args []string) error {
	if publishFlags.all == (len(args) == 1) {
		return cli.NewCommandError("publish", fmt.Errorf("give exactly one environment or --all"))
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return cli.NewCommandError("publish", err)
	}
	defer a.Close()

	var envs []model.Environment
	if publishFlags.all {
		envs = a.store.Environments()
	} else {
		env, err := a.resolveEnvironment(args[0])
		if err != nil {
			return cli.NewCommandError("publish", err)
		}
		envs = []model.Environment{env}
	}

	actor := publishFlags.actor
	if actor == "" {
		actor = os.Getenv("USER")
	}
	ctx := logging.WithActor(cmd.Context(), actor)

	var progress *cli.BatchProgress
	if len(envs) > 1 {
		progress = cli.NewBatchProgress(cmd.ErrOrStderr(), "published", len(envs))
	}

	records := make(publishTable, 0, len(envs))
	failed := 0
	for _, env := range envs {
		rec, err := a.publisher.Publish(ctx, publisher.Request{
			EnvironmentID:   env.ID,
			Actor:           actor,
			ChangeRequestID: publishFlags.changeRequest,
			TargetNodes:     publishFlags.targets,
		})
		if err != nil {
			if progress != nil {
				progress.Abort(env.Name, err)
			}
			return cli.NewCommandError("publish", err)
		}
		ok := rec.Status == model.PublishSucceeded
		if !ok {
			failed++
		}
		records = append(records, rec)
		if progress != nil {
			progress.Step(env.Name, ok)
		}
	}
	if progress != nil {
		progress.Finish()
	}

	if err := printResult(cmd, records); err != nil {
		return err
	}
	if failed > 0 {
		return cli.NewCommandError("publish", fmt.Errorf("%d of %d environments: %w", failed, len(envs), cli.ErrValidationFailed))
	}
	return nil
}
