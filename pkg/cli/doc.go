/*
Package cli provides helpers shared by the gatecontrol commands.

Output Formatting:

Commands print results as text, JSON or CSV. Values that implement Tabular
render as aligned columns in text mode and as rows in CSV mode; anything
else is printed with %v (text) or encoded as indented JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

Progress Reporting:

Commands that work through several environments print one line per
environment and a summary on stderr:

	progress := cli.NewBatchProgress(os.Stderr, "published", len(envs))
	for _, env := range envs {
		progress.Step(env.Name, publishEnv(env))
	}
	progress.Finish()

Errors and Exit Codes:

ExitCode maps command errors to process exit codes so scripts can tell a
rejected publish (2) from a bad configuration (3) or any other failure (1).

Signal Handling:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
