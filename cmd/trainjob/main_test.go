package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trainjob/internal/pkg/batch"
	"trainjob/internal/pkg/jobspec"
)

func TestRun_Render(t *testing.T) {
	var out bytes.Buffer
	if code := run([]string{"render", "--log.level=error"}, &out); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	want, err := batch.Render(jobspec.Default())
	if err != nil {
		t.Fatal(err)
	}
	if out.String() != string(want) {
		t.Errorf("unexpected script:\n%s", out.String())
	}
}

func TestRun_RenderDirectivesFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trainjob.yaml")
	doc := "job:\n  resources:\n    job_name: seg\n    memory: 64GiB\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if code := run([]string{"--config", path, "--log.level=error", "render", "--directives"}, &out); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 7 || lines[2] != "#SBATCH --mem=64G" || lines[6] != "#SBATCH --job-name=seg" {
		t.Errorf("unexpected directives %q", lines)
	}
}

func TestRun_Errors(t *testing.T) {
	var out bytes.Buffer
	if code := run([]string{"no-such-command"}, &out); code != 2 {
		t.Errorf("expected usage error 2, got %d", code)
	}
	if code := run([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "--log.level=error", "render"}, &out); code != 1 {
		t.Errorf("expected 1 for a missing config, got %d", code)
	}
}

func TestRun_RenderWorkDirFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trainjob.yaml")
	if err := os.WriteFile(path, []byte("job:\n  resources:\n    workdir: /scratch/seg\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if code := run([]string{"--config", path, "--log.level=error", "render"}, &out); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	script := out.String()
	if !strings.Contains(script, "#SBATCH --chdir=/scratch/seg\n") || !strings.Contains(script, "--wdir /scratch/seg ") {
		t.Errorf("working directories disagree:\n%s", script)
	}
	if strings.Contains(script, jobspec.DefaultWorkDir) {
		t.Errorf("default working directory leaked into the script:\n%s", script)
	}
}
