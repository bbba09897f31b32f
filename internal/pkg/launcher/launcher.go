// Package launcher prepares the compute node environment and starts the
// training process in place of the rendered batch script.
package launcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	shellquote "github.com/kballard/go-shellquote"

	"trainjob/internal/pkg/batch"
	"trainjob/internal/pkg/jobspec"
)

// DefaultKillWait matches the Slurm default delay between SIGTERM and SIGKILL.
const DefaultKillWait = 30 * time.Second

// ExecCommandFunc has the signature of exec.CommandContext. Returned commands
// must be bound to ctx.
type ExecCommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Launcher runs the setup commands and the training process as children of
// the current process.
type Launcher struct {
	execCommand ExecCommandFunc
	logger      *slog.Logger

	// Shell runs the setup script. Module loads and activation are shell
	// functions, so it has to be bash on most clusters.
	Shell    string
	KillWait time.Duration
	Stdout   io.Writer
	Stderr   io.Writer
}

// New returns a Launcher wired to the real process table and standard streams.
func New(logger *slog.Logger) *Launcher {
	return (&Launcher{}).Set(exec.CommandContext, logger)
}

func (l *Launcher) Set(exec ExecCommandFunc, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	l.execCommand = exec
	l.logger = logger
	if l.Shell == "" {
		l.Shell = "bash"
	}
	if l.KillWait == 0 {
		l.KillWait = DefaultKillWait
	}
	if l.Stdout == nil {
		l.Stdout = os.Stdout
	}
	if l.Stderr == nil {
		l.Stderr = os.Stderr
	}
	return l
}

// setup output goes to stderr, fd 3 carries the resulting environment
const prepareTemplate = "exec 3>&1 1>&2\n%senv -0 >&3\n"

// Prepare runs the setup commands of env in a single shell that stops at the
// first failure and returns the environment that shell ended with.
func (l *Launcher) Prepare(ctx context.Context, env jobspec.Environment) ([]string, error) {
	script := fmt.Sprintf(prepareTemplate, batch.SetupScript(env))
	cmd := l.execCommand(ctx, l.Shell, "-c", script)
	cmd.Stderr = l.Stderr
	setProcessGroup(cmd, l.KillWait)

	l.logger.Info("preparing environment", "modules", len(env.Modules), "activate", env.Activate, "pins", len(env.Pins))
	start := time.Now()
	out, err := cmd.Output()
	if err != nil {
		l.logger.Error("environment setup failed", "cmd", l.Shell, "err", err)
		return nil, &SetupError{ExitCode: exitCode(err), Err: err}
	}
	l.logger.Debug("environment prepared", "duration", time.Since(start))
	return parseEnviron(out), nil
}

func parseEnviron(out []byte) []string {
	environ := make([]string, 0)
	for _, kv := range bytes.Split(out, []byte{0}) {
		if len(kv) == 0 {
			continue
		}
		// bash exports its own bookkeeping variable
		if bytes.HasPrefix(kv, []byte("_=")) {
			continue
		}
		environ = append(environ, string(kv))
	}
	return environ
}

// Invoke starts the training process with environ in dir and waits for it.
// Cancelling ctx signals the whole process group.
func (l *Launcher) Invoke(ctx context.Context, inv jobspec.Invocation, environ []string, dir string) error {
	argv := inv.Command()
	cmd := l.execCommand(ctx, lookPath(argv[0], environ), argv[1:]...)
	cmd.Env = environ
	cmd.Dir = dir
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	setProcessGroup(cmd, l.KillWait)

	l.logger.Info("starting training", "cmd", shellquote.Join(argv...), "dir", dir)
	start := time.Now()
	if err := cmd.Run(); err != nil {
		code := exitCode(err)
		l.logger.Error("training failed", "exit_code", code, "duration", time.Since(start), "err", err)
		return &TrainingError{ExitCode: code, Err: err}
	}
	l.logger.Info("training finished", "duration", time.Since(start))
	return nil
}

// Run prepares the environment then invokes the training process. Nothing
// is invoked when the preparation failed.
func (l *Launcher) Run(ctx context.Context, spec jobspec.Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	environ, err := l.Prepare(ctx, spec.Environment)
	if err != nil {
		return err
	}
	return l.Invoke(ctx, spec.Invocation, environ, spec.Resources.WorkDir)
}

// lookPath resolves name against the PATH of the prepared environment, since
// activation usually puts a different interpreter first. Unresolved names are
// returned unchanged.
func lookPath(name string, environ []string) string {
	if strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	var path string
	for _, kv := range environ {
		if v, ok := strings.CutPrefix(kv, "PATH="); ok {
			path = v
		}
	}
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if fi, err := os.Stat(candidate); err == nil && fi.Mode().IsRegular() && fi.Mode().Perm()&0o111 != 0 {
			return candidate
		}
	}
	return name
}
