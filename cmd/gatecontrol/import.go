package main

import (
	"fmt"
	"io"
	"os"

	"gatecontrol-hq/gatecontrol/pkg/cli"

	"github.com/spf13/cobra"
)

var importFlags struct {
	environmentName string
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import an existing Ocelot configuration",
	Long: `Create an environment with services and routes from an ocelot.json file.
Use "-" to read from stdin. Routes that cannot be parsed are reported and
skipped.

Examples:
  gatecontrol import ocelot.json --environment-name legacy
  cat ocelot.json | gatecontrol import -`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importFlags.environmentName, "environment-name", "n", "", "name of the created environment (default \"Imported\")")
}

func runImport(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return cli.NewCommandError("import", err)
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return cli.NewCommandError("import", err)
	}
	defer a.Close()

	result, err := a.importer.Import(cmd.Context(), data, importFlags.environmentName)
	if err != nil {
		return cli.NewCommandError("import", err)
	}

	format, _ := cli.ParseOutputFormat(outputFormat)
	if format != cli.FormatText {
		return printResult(cmd, result)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "environment %s: %d routes, %d services imported\n",
		result.EnvironmentID, result.RoutesImported, result.ServicesCreated)
	for _, msg := range result.Errors {
		fmt.Fprintf(out, "  warning: %s\n", msg)
	}
	return nil
}
