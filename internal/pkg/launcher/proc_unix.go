//go:build unix

package launcher

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"
)

const groupPollInterval = 100 * time.Millisecond

// setProcessGroup puts cmd in its own process group. On cancellation the
// group gets SIGTERM, and SIGKILL once killWait has passed with members of
// the group still alive.
func setProcessGroup(cmd *exec.Cmd, killWait time.Duration) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return terminateGroup(cmd.Process.Pid, killWait)
	}
	cmd.WaitDelay = killWait
}

// terminateGroup blocks until the group is gone or has been killed.
func terminateGroup(pgid int, killWait time.Duration) error {
	if err := syscall.Kill(-pgid, syscall.SIGTERM); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
	deadline := time.Now().Add(killWait)
	for time.Now().Before(deadline) {
		if !groupAlive(pgid) {
			return nil
		}
		time.Sleep(groupPollInterval)
	}
	if err := syscall.Kill(-pgid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}

func groupAlive(pgid int) bool {
	return syscall.Kill(-pgid, 0) == nil
}

func signalExitCode(exitErr *exec.ExitError) int {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return 1
}
