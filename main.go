package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudposse/confmerge/cmd"
	errUtils "github.com/cloudposse/confmerge/errors"
	log "github.com/cloudposse/confmerge/pkg/logger"
)

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		cmd.Cleanup()
		// POSIX exit code: 128 + signal number.
		if s, ok := sig.(syscall.Signal); ok {
			errUtils.OsExit(128 + int(s))
		}
		errUtils.OsExit(130)
	}()

	log.Default().SetReportTimestamp(false)

	errUtils.OsExit(run())
}

// run executes the CLI and returns the process exit code.
func run() int {
	defer cmd.Cleanup()

	if err := cmd.Execute(); err != nil {
		errUtils.CheckErrorAndPrint(err)
		exitCode := errUtils.GetExitCode(err)
		log.Debug("Exiting with exit code", "code", exitCode)
		return exitCode
	}
	return 0
}
