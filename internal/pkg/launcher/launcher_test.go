package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"trainjob/internal/pkg/jobspec"
)

// helper: launcher running setup with sh and writing to buffers
func newTestLauncher(exec ExecCommandFunc) (*Launcher, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	l := &Launcher{Shell: "sh", Stdout: &stdout, Stderr: &stderr}
	l.Set(exec, slog.New(slog.DiscardHandler))
	return l, &stdout, &stderr
}

// helper: runs the setup shell for real and replaces the training process
// with trainScript, recording whether it was started
func trainingExec(trainScript string, invoked *bool) ExecCommandFunc {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if name == "sh" {
			return exec.CommandContext(ctx, name, args...)
		}
		*invoked = true
		return exec.CommandContext(ctx, "sh", append([]string{"-c", trainScript, filepath.Base(name)}, args...)...)
	}
}

func testSpec(workDir string) jobspec.Spec {
	spec := jobspec.Default()
	spec.Resources.WorkDir = workDir
	spec.Environment = jobspec.Environment{
		ActivateCommand: "export",
		Activate:        "TRAINJOB_ACTIVE=segmentation",
		PinCommand:      "echo",
		Pins:            []jobspec.Pin{{Name: "keras", Version: "2.1.2"}},
	}
	return spec
}

func TestPrepare_CapturesEnvironment(t *testing.T) {
	l, stdout, stderr := newTestLauncher(exec.CommandContext)
	environ, err := l.Prepare(context.Background(), testSpec(t.TempDir()).Environment)
	if err != nil {
		t.Fatalf("Prepare error: %v", err)
	}
	if !slices.Contains(environ, "TRAINJOB_ACTIVE=segmentation") {
		t.Errorf("activated variable missing from %q", environ)
	}
	if !strings.Contains(stderr.String(), "keras==2.1.2") {
		t.Errorf("setup output should go to stderr, got %q", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("setup must not write to stdout, got %q", stdout.String())
	}
}

func TestPrepare_StopsAtFirstFailure(t *testing.T) {
	l, _, stderr := newTestLauncher(exec.CommandContext)
	env := jobspec.Environment{
		ActivateCommand: "exit",
		Activate:        "3",
		PinCommand:      "echo",
		Pins:            []jobspec.Pin{{Name: "after", Version: "1"}},
	}
	_, err := l.Prepare(context.Background(), env)
	var setupErr *SetupError
	if !errors.As(err, &setupErr) {
		t.Fatalf("expected *SetupError, got %v", err)
	}
	if setupErr.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", setupErr.ExitCode)
	}
	if strings.Contains(stderr.String(), "after==1") {
		t.Error("commands after the failing one must not run")
	}
}

func TestRun_SetupFailureSkipsTraining(t *testing.T) {
	var invoked bool
	l, _, _ := newTestLauncher(trainingExec("exit 0", &invoked))
	spec := testSpec(t.TempDir())
	spec.Environment.ActivateCommand = "false"

	err := l.Run(context.Background(), spec)
	if err == nil {
		t.Fatal("expected an error")
	}
	if invoked {
		t.Error("training must not start after a setup failure")
	}
	if code := ExitCode(err); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}

func TestRun_PropagatesTrainingExitCode(t *testing.T) {
	var invoked bool
	dir := t.TempDir()
	l, stdout, _ := newTestLauncher(trainingExec(`echo "$0 $TRAINJOB_ACTIVE $*"; pwd; exit 7`, &invoked))

	err := l.Run(context.Background(), testSpec(dir))
	var trainErr *TrainingError
	if !errors.As(err, &trainErr) {
		t.Fatalf("expected *TrainingError, got %v", err)
	}
	if ExitCode(err) != 7 {
		t.Errorf("expected exit code 7, got %d", ExitCode(err))
	}
	out := stdout.String()
	want := "python segmentation -m src.train --model enet-naive-upsampling-encoder-only"
	if !strings.Contains(out, want) {
		t.Errorf("training output %q does not contain %q", out, want)
	}
	if !strings.Contains(out, "--maxjobs 6") {
		t.Errorf("maxjobs not passed: %q", out)
	}
	if !strings.Contains(out, dir) {
		t.Errorf("training must run in %s, got %q", dir, out)
	}
}

func TestRun_Success(t *testing.T) {
	var invoked bool
	l, _, _ := newTestLauncher(trainingExec("exit 0", &invoked))
	if err := l.Run(context.Background(), testSpec(t.TempDir())); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !invoked {
		t.Error("training was not started")
	}
}

func TestRun_InvalidSpec(t *testing.T) {
	var invoked bool
	l, _, _ := newTestLauncher(trainingExec("exit 0", &invoked))
	spec := testSpec(t.TempDir())
	spec.Invocation.MaxJobs = 33
	if err := l.Run(context.Background(), spec); err == nil || invoked {
		t.Errorf("invalid spec must be rejected before anything runs, err=%v invoked=%v", err, invoked)
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{&SetupError{ExitCode: 2, Err: errors.New("x")}, 2},
		{fmt.Errorf("run: %w", &TrainingError{ExitCode: 5, Err: errors.New("x")}), 5},
		{errors.New("plain"), 1},
	}
	for _, tc := range cases {
		if got := ExitCode(tc.err); got != tc.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestExitCode_CommandNotFound(t *testing.T) {
	err := exec.Command("trainjob-no-such-command").Run()
	if got := exitCode(err); got != 127 {
		t.Errorf("expected 127, got %d", got)
	}
}

func TestParseEnviron(t *testing.T) {
	got := parseEnviron([]byte("A=1\x00_=/usr/bin/env\x00B=two words\x00"))
	if !slices.Equal(got, []string{"A=1", "B=two words"}) {
		t.Errorf("unexpected environ %q", got)
	}
}

func TestLookPath(t *testing.T) {
	if got := lookPath("./python", []string{"PATH=/nowhere"}); got != "./python" {
		t.Errorf("paths must not be resolved, got %q", got)
	}
	if got := lookPath("sh", []string{"PATH=/nowhere:/bin:/usr/bin"}); !filepath.IsAbs(got) {
		t.Errorf("expected sh to be resolved, got %q", got)
	}
	if got := lookPath("trainjob-no-such-command", []string{"PATH=/bin"}); got != "trainjob-no-such-command" {
		t.Errorf("unresolved names are kept, got %q", got)
	}
}
