package config

import (
	"os"
	"path/filepath"
	"testing"

	"trainjob/internal/pkg/jobspec"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trainjob.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Listen != DefaultListenAddress || cfg.Server.Slurmdb.Enabled() {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	want := jobspec.Default()
	if cfg.Job.Invocation != want.Invocation || cfg.Job.Resources != want.Resources {
		t.Errorf("expected the default job, got %+v", cfg.Job)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Job.Invocation.MaxJobs != 6 {
		t.Errorf("expected default maxjobs, got %d", cfg.Job.Invocation.MaxJobs)
	}
}

func TestLoad_Overlay(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
job:
  resources:
    memory: 64 GiB
    time: 2d
  invocation:
    maxjobs: 12
server:
  listen: 127.0.0.1:9000
  slurmdb:
    ClusterName: hpc
    host: db.example.org
    port: 3306
`))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	res := cfg.Job.Resources
	if res.Memory != "64G" {
		t.Errorf("memory not normalized: %q", res.Memory)
	}
	if res.TimeLimit.String() != "2-00:00:00" {
		t.Errorf("unexpected time limit %s", res.TimeLimit)
	}
	if res.Partition != "gpu" || res.GPU.Type != "teslap100" {
		t.Errorf("defaults lost: %+v", res)
	}
	if cfg.Job.Invocation.MaxJobs != 12 {
		t.Errorf("unexpected maxjobs %d", cfg.Job.Invocation.MaxJobs)
	}
	if !cfg.Server.Slurmdb.Enabled() || cfg.Server.Slurmdb.ClusterName != "hpc" || cfg.Server.Listen != "127.0.0.1:9000" {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"maxjobs":     "job:\n  invocation:\n    maxjobs: 64\n",
		"memory":      "job:\n  resources:\n    memory: lots\n",
		"unknown key": "job:\n  resources:\n    gpus: 2\n",
		"time":        "job:\n  resources:\n    time: soon\n",
	}
	for name, doc := range cases {
		if _, err := Load(writeConfig(t, doc)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoad_WorkDirFollowsResources(t *testing.T) {
	cfg, err := Load(writeConfig(t, "job:\n  resources:\n    workdir: /scratch/seg\n"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Job.Resources.WorkDir != "/scratch/seg" || cfg.Job.Invocation.WorkDir != "/scratch/seg" {
		t.Errorf("--chdir and --wdir disagree: %q vs %q", cfg.Job.Resources.WorkDir, cfg.Job.Invocation.WorkDir)
	}
}

func TestLoad_WorkDirExplicit(t *testing.T) {
	cfg, err := Load(writeConfig(t, "job:\n  resources:\n    workdir: /scratch/seg\n  invocation:\n    wdir: /scratch/seg/run1\n"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Job.Invocation.WorkDir != "/scratch/seg/run1" {
		t.Errorf("explicit wdir overridden: %q", cfg.Job.Invocation.WorkDir)
	}

	cfg, err = Load(writeConfig(t, "job:\n  invocation:\n    maxjobs: 4\n"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Job.Invocation.WorkDir != jobspec.DefaultWorkDir {
		t.Errorf("expected default wdir, got %q", cfg.Job.Invocation.WorkDir)
	}
}

func TestLoad_RejectsDirectiveInjection(t *testing.T) {
	cases := map[string]string{
		"job name newline": "job:\n  resources:\n    job_name: \"seg\\nrm -rf $HOME\"\n",
		"partition space":  "job:\n  resources:\n    partition: \"gpu long\"\n",
		"output newline":   "job:\n  resources:\n    output: \"out\\ntouch /tmp/x\"\n",
		"workdir space":    "job:\n  resources:\n    workdir: \"/wrk/a b\"\n",
	}
	for name, doc := range cases {
		if _, err := Load(writeConfig(t, doc)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}
