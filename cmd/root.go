package cmd

import (
	"os"

	"github.com/spf13/cobra"

	errUtils "github.com/cloudposse/confmerge/errors"
	log "github.com/cloudposse/confmerge/pkg/logger"
	"github.com/cloudposse/confmerge/pkg/schema"
)

// logFile is the file opened for --logs-file, closed by Cleanup.
var logFile *os.File

// NewRootCmd builds the command tree. Each call returns fresh commands with
// their own flag state.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "confmerge",
		Short: "Merge layered configuration sources",
		Long: `confmerge merges configuration from files and environment variables in order,
applying per-field merge strategies, field groups and conflict detection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "Path to a merge plan file (yaml, json or toml)")
	root.PersistentFlags().String("logs-level", "", "Log level: Trace, Debug, Info, Warning, Off")
	root.PersistentFlags().String("logs-file", "", "Write logs to this file instead of stderr")

	root.AddCommand(newMergeCmd(), newVersionCmd())
	return root
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// Cleanup releases resources opened while running a command.
func Cleanup() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// setupLogging applies the logs section of the plan to the default logger.
func setupLogging(logs schema.Logs) error {
	level, err := log.ParseLogLevel(logs.Level)
	if err != nil {
		return errUtils.Build(err).
			WithHint("Set --logs-level or CONFMERGE_LOGS_LEVEL to one of Trace, Debug, Info, Warning, Off").
			WithExitCode(errUtils.ExitCodeInvalidInvocation).
			Err()
	}
	log.SetLevel(level.ToLevel())

	if logs.File == "" || logs.File == "/dev/stderr" {
		return nil
	}
	f, err := os.OpenFile(logs.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errUtils.Build(err).WithContext("file", logs.File).Err()
	}
	Cleanup()
	logFile = f
	log.Default().SetOutput(f)
	return nil
}
