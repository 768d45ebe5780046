package runner

import (
	"fmt"

	"github.com/julianshen/docsmith/internal/output"
)

// Exit codes returned by the CLI.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitWarnings = 2
)

// ExitError is returned when the command should exit with a non-zero code.
// Using a typed error instead of os.Exit ensures deferred cleanup runs.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCodeFromReport returns ExitFailure for a failed run. In strict mode a
// run that produced warnings returns ExitWarnings.
func ExitCodeFromReport(r *output.Report, strict bool) int {
	if r == nil || r.Error != "" {
		return ExitFailure
	}
	if strict && len(r.Warnings) > 0 {
		return ExitWarnings
	}
	return ExitOK
}
