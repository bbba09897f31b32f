//go:build !unix

package launcher

import (
	"os/exec"
	"time"
)

func setProcessGroup(cmd *exec.Cmd, killWait time.Duration) {
	cmd.WaitDelay = killWait
}

func signalExitCode(*exec.ExitError) int { return 1 }
