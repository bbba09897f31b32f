package launcher

import (
	"errors"
	"fmt"
	"os/exec"
)

// SetupError reports a failed environment preparation. The training process
// was not started.
type SetupError struct {
	ExitCode int
	Err      error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("environment setup failed with exit code %d: %v", e.ExitCode, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// TrainingError reports a training process that did not exit successfully.
type TrainingError struct {
	ExitCode int
	Err      error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training process failed with exit code %d: %v", e.ExitCode, e.Err)
}

func (e *TrainingError) Unwrap() error { return e.Err }

// ExitCode maps err to the exit status of the launcher: 0 for nil, the exit
// code of the failed child for setup and training errors, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var setupErr *SetupError
	if errors.As(err, &setupErr) {
		return setupErr.ExitCode
	}
	var trainErr *TrainingError
	if errors.As(err, &trainErr) {
		return trainErr.ExitCode
	}
	return 1
}

// exitCode extracts the child's exit status. A child killed by a signal maps
// to 128+signal like in a shell; a child that never started maps to 127.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
		return signalExitCode(exitErr)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return 127
	}
	return 1
}
