package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cloudposse/confmerge/pkg/load"
	"github.com/cloudposse/confmerge/pkg/merge"
)

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge [flags] SOURCE...",
		Short: "Merge configuration sources and print the result",
		Long: `Merge configuration sources in order and print the merged tree.

A SOURCE is a file path (.yaml, .yml, .json, .toml, .ini, .cfg, .env),
"env" for the whole process environment, or "env:PREFIX" for variables
starting with PREFIX. Sources from a --config plan come first.`,
		Example: `  confmerge merge base.yaml prod.yaml env:APP_
  confmerge merge --strategy raise_on_conflict a.json b.json
  confmerge merge --field-merge tags=append_unique --group database.host,database.port base.yaml override.toml
  confmerge merge --config plan.yaml --report --format json`,
		RunE: runMerge,
	}

	flags := cmd.Flags()
	flags.String("strategy", "", "Merge strategy: last_wins, first_wins, raise_on_conflict")
	flags.StringArray("field-merge", nil, "Per-field strategy as path=strategy (repeatable)")
	flags.StringArray("group", nil, "Comma-separated fields that must change together (repeatable)")
	flags.Bool("skip-broken", false, "Skip sources that fail to load")
	flags.Bool("skip-invalid", false, "Drop values that cannot be coerced instead of failing")
	flags.String("expand-env", "", "Variable expansion in values: default, strict, disabled")
	flags.String("format", "", "Output format: yaml or json")
	flags.Bool("report", false, "Print the merge report with the origin of every field")
	return cmd
}

func runMerge(cmd *cobra.Command, args []string) error {
	defer Cleanup()

	plan, err := readPlan(cmd)
	if err != nil {
		return err
	}
	if err := setupLogging(plan.Logs); err != nil {
		return err
	}
	format, err := parseFormat(plan.Output.Format)
	if err != nil {
		return err
	}

	opts, err := buildOptions(plan, args)
	if err != nil {
		return err
	}

	merged, report, err := load.LoadTree(cmd.Context(), opts)
	if err != nil {
		if report != nil {
			if renderErr := render(cmd.OutOrStdout(), report, format); renderErr != nil {
				return renderErr
			}
		}
		return err
	}

	var out any = merged
	if plan.Output.Report {
		out = reportOutput(report)
	}
	return render(cmd.OutOrStdout(), out, format)
}

func reportOutput(report *merge.Report) any {
	if report == nil {
		return &merge.Report{}
	}
	return report
}
