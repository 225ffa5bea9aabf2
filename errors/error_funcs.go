package errors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	log "github.com/cloudposse/confmerge/pkg/logger"
)

// OsExit is a variable for testing, so we can mock os.Exit.
var OsExit = os.Exit

// Stderr is where CheckErrorAndPrint writes. Tests replace it.
var Stderr io.Writer = os.Stderr

// Format renders an error followed by its hints, one per line.
func Format(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Error: ")
	sb.WriteString(err.Error())

	hints := errors.GetAllHints(err)
	if len(hints) > 0 {
		sb.WriteString("\n\nHints:")
		for _, hint := range hints {
			sb.WriteString("\n  - ")
			sb.WriteString(hint)
		}
	}

	return sb.String()
}

// CheckErrorAndPrint prints an error message with its hints.
func CheckErrorAndPrint(err error) {
	if err == nil {
		return
	}
	if _, printErr := fmt.Fprintln(Stderr, Format(err)); printErr != nil {
		log.Error("failed to print error", "error", printErr)
		log.Error(err.Error())
	}
}

// CheckErrorPrintAndExit prints an error message and exits with the code
// derived from the error chain.
func CheckErrorPrintAndExit(err error) {
	if err == nil {
		return
	}

	CheckErrorAndPrint(err)
	Exit(GetExitCode(err))
}

// Exit exits the program with the specified exit code.
func Exit(exitCode int) {
	OsExit(exitCode)
}
