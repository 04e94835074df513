// Package apperr defines the error kinds a publish run can fail with.
package apperr

import "errors"

var (
	// ErrConfig marks a misconfiguration detected at startup.
	ErrConfig = errors.New("configuration error")
	// ErrIO marks a failure reading a note or writing a page.
	ErrIO = errors.New("i/o error")
	// ErrVCS marks a failed git command.
	ErrVCS = errors.New("version control error")
)

// Process exit codes.
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitConfig  = 2
	ExitIO      = 3
	ExitVCS     = 4
)

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrConfig):
		return ExitConfig
	case errors.Is(err, ErrIO):
		return ExitIO
	case errors.Is(err, ErrVCS):
		return ExitVCS
	default:
		return ExitFailure
	}
}
