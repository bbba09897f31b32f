package slurmctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"trainjob/internal/pkg/client/slurmctl/models"
)

const samplePartitions = `PartitionName=p1
   AllowGroups=root,group1,group2 AllowAccounts=root,acct1,acct2 AllowQos=ALL
   AllocNodes=ALL Default=NO QoS=N/A
   DefaultTime=NONE DisableRootJobs=NO ExclusiveUser=NO GraceTime=0 Hidden=NO
   MaxNodes=UNLIMITED MaxTime=UNLIMITED MinNodes=0 LLN=NO MaxCPUsPerNode=UNLIMITED
   Nodes=node44
   PriorityJobFactor=1 PriorityTier=1 RootOnly=NO ReqResv=NO OverSubscribe=NO
   OverTimeLimit=NONE PreemptMode=OFF
   State=UP TotalCPUs=36 TotalNodes=1 SelectTypeParameters=NONE
   JobDefaults=(null)
   DefMemPerNode=UNLIMITED MaxMemPerNode=UNLIMITED

PartitionName=gpu
   AllowGroups=ALL AllowAccounts=ALL AllowQos=ALL
   AllocNodes=ALL Default=NO QoS=N/A
   DefaultTime=NONE DisableRootJobs=NO ExclusiveUser=NO GraceTime=0 Hidden=NO
   MaxNodes=UNLIMITED MaxTime=5-00:00:00 MinNodes=0 LLN=NO MaxCPUsPerNode=UNLIMITED
   Nodes=g[1-4]
   PriorityJobFactor=1 PriorityTier=1 RootOnly=NO ReqResv=NO OverSubscribe=NO
   OverTimeLimit=NONE PreemptMode=OFF
   State=DRAIN TotalCPUs=96 TotalNodes=4 SelectTypeParameters=NONE
   JobDefaults=(null)
   DefMemPerNode=UNLIMITED MaxMemPerNode=UNLIMITED`

// helper: build fake exec that returns output based on args
func fakeExec(outputFn func(name string, args ...string) string) ExecCommandFunc {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		// Use sh -c to emit prebuilt content
		script := fmt.Sprintf("cat <<'EOF'\n%s\nEOF\n", outputFn(name, args...))
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
}

// helper: fake exec that fails with the given output and exit code
func failingExec(output string, code int) ExecCommandFunc {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		script := fmt.Sprintf("cat <<'EOF'\n%s\nEOF\nexit %d\n", output, code)
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
}

func TestParsePartitions_MultiplePartitions(t *testing.T) {
	parts := parsePartitions(samplePartitions)

	if len(parts) != 2 {
		t.Fatalf("expected 2 partitions, got %d", len(parts))
	}

	p1 := parts[0]
	if p1.Name() != "p1" {
		t.Errorf("p1 PartitionName expected p1, got %q", p1.Name())
	}
	if p1["Nodes"] != "node44" {
		t.Errorf("p1 Nodes expected node44, got %q", p1["Nodes"])
	}
	if !p1.Up() {
		t.Errorf("p1 expected to be UP, got %q", p1["State"])
	}

	p2 := parts[1]
	if p2.Name() != "gpu" {
		t.Errorf("p2 PartitionName expected gpu, got %q", p2.Name())
	}
	if p2.Up() {
		t.Errorf("gpu partition is drained, Up() should be false")
	}
	if p2["MaxTime"] != "5-00:00:00" {
		t.Errorf("gpu MaxTime expected 5-00:00:00, got %q", p2["MaxTime"])
	}
}

func TestParsePartitions_WithoutBlankLines(t *testing.T) {
	parts := parsePartitions("PartitionName=a State=UP\nPartitionName=b State=DOWN\n")
	if len(parts) != 2 || parts[0].Name() != "a" || parts[1].Name() != "b" {
		t.Fatalf("unexpected partitions %+v", parts)
	}
}

func TestGetPartitions_AllAndSingle(t *testing.T) {
	blocks := strings.Split(samplePartitions, "\n\nPartitionName=")
	if len(blocks) != 2 {
		t.Fatalf("unexpected sample split: %d", len(blocks))
	}
	gpuBlock := "PartitionName=" + blocks[1]

	sc := (&Client{}).Set(fakeExec(func(name string, args ...string) string {
		if name != "scontrol" {
			return ""
		}
		if len(args) == 2 && args[0] == "show" && args[1] == "partition" {
			return samplePartitions
		}
		if len(args) == 3 && args[2] == "gpu" {
			return gpuBlock
		}
		return ""
	}), nil)

	all, err := sc.GetPartitions(context.Background())
	if err != nil {
		t.Fatalf("GetPartitions error: %v", err)
	}
	if len(all) != 2 || all[0].Name() != "p1" || all[1].Name() != "gpu" {
		t.Errorf("unexpected partition order or names: %+v", all)
	}

	gpu, err := sc.GetPartition(context.Background(), "gpu")
	if err != nil {
		t.Fatalf("GetPartition error: %v", err)
	}
	if gpu["TotalNodes"] != "4" {
		t.Errorf("expected TotalNodes 4, got %q", gpu["TotalNodes"])
	}

	if _, err := sc.GetPartition(context.Background(), "missing"); err == nil {
		t.Error("expected error for an empty scontrol answer")
	}
}

func TestGetPartition_ControllerError(t *testing.T) {
	sc := (&Client{}).Set(failingExec("Partition missing not found", 1), nil)
	if _, err := sc.GetPartition(context.Background(), "missing"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSubmit_PassesScriptOnStdin(t *testing.T) {
	captured := filepath.Join(t.TempDir(), "script.sh")
	var gotArgs []string
	sc := (&Client{}).Set(func(ctx context.Context, name string, args ...string) *exec.Cmd {
		gotArgs = append([]string{name}, args...)
		return exec.CommandContext(ctx, "sh", "-c", fmt.Sprintf("cat > %q; echo 'sbatch: warning: none'; echo '4242;cluster1'", captured))
	}, nil)

	script := []byte("#!/bin/bash\n#SBATCH --partition=gpu\nexec true\n")
	sub, err := sc.Submit(context.Background(), script, "--hold")
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if sub.JobID != "4242" || sub.Cluster != "cluster1" {
		t.Errorf("unexpected submission %+v", sub)
	}
	if strings.Join(gotArgs, " ") != "sbatch --parsable --hold" {
		t.Errorf("unexpected command %q", gotArgs)
	}
	b, err := os.ReadFile(captured)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != string(script) {
		t.Errorf("script not passed on stdin, got %q", b)
	}
}

func TestSubmit_Failure(t *testing.T) {
	sc := (&Client{}).Set(func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", "echo 'sbatch: error: invalid partition' >&2; exit 1")
	}, nil)
	_, err := sc.Submit(context.Background(), []byte("#!/bin/bash\n"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid partition") {
		t.Errorf("error should carry sbatch stderr, got %v", err)
	}
}

func TestParseSubmission(t *testing.T) {
	cases := []struct {
		in      string
		id      string
		cluster string
		wantErr bool
	}{
		{"12345\n", "12345", "", false},
		{"12345;c1\n", "12345", "c1", false},
		{"sbatch: warning: x\n99\n\n", "99", "", false},
		{"", "", "", true},
		{"Submitted batch job 12\n", "", "", true},
	}
	for _, tc := range cases {
		sub, err := parseSubmission(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.in, err)
			continue
		}
		if sub.JobID != tc.id || sub.Cluster != tc.cluster {
			t.Errorf("%q: unexpected submission %+v", tc.in, sub)
		}
	}
}

func TestGetNodes(t *testing.T) {
	out := strings.Join([]string{
		"g1 gpu* idle 128000 24 2 12 1 gpu:teslap100:4(S:0-1)",
		"g1 long idle 128000 24 2 12 1 gpu:teslap100:4(S:0-1)",
		"g2 gpu mix 128000 24 2 12 1 gpu:teslak80:2",
		"broken line",
	}, "\n")
	sc := (&Client{}).Set(fakeExec(func(name string, args ...string) string {
		return out
	}), nil)
	nodes, err := sc.GetNodes(context.Background(), "gpu")
	if err != nil {
		t.Fatalf("GetNodes error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	g1 := nodes["g1"]
	if strings.Join(g1.Partition, ",") != "gpu,long" {
		t.Errorf("unexpected partitions %v", g1.Partition)
	}
	if !g1.HasGPU("teslap100", 1) || !g1.HasGPU("", 4) {
		t.Errorf("g1 should provide teslap100 GPUs: %q", g1.GPU)
	}
	if g1.HasGPU("teslap100", 5) {
		t.Error("g1 only has 4 GPUs")
	}
	if !g1.Schedulable() || !nodes["g2"].Schedulable() {
		t.Error("idle and mix nodes should be schedulable")
	}
	if nodes["g2"].HasGPU("teslap100", 1) {
		t.Error("g2 has no teslap100")
	}
}

func TestNode_Schedulable(t *testing.T) {
	cases := map[string]bool{
		"idle": true, "mix": true, "alloc": true, "idle~": true, "comp": true, "MIXED": true,
		"drain": false, "drng": false, "down": false, "down*": false, "idle*": false,
		"fail": false, "maint": false, "": false,
	}
	for state, want := range cases {
		n := &models.Node{Name: "g1", State: state}
		if got := n.Schedulable(); got != want {
			t.Errorf("%q: expected %v, got %v", state, want, got)
		}
	}
}

func TestGetJob(t *testing.T) {
	sc := (&Client{}).Set(fakeExec(func(name string, args ...string) string {
		return "4242|R|alice|ml|8|g1|gpu|normal|None"
	}), nil)
	job, err := sc.GetJob(context.Background(), "4242")
	if err != nil {
		t.Fatalf("GetJob error: %v", err)
	}
	if job.State != "R" || job.Nodelist != "g1" || job.Partition != "gpu" {
		t.Errorf("unexpected job %+v", job)
	}

	gone := (&Client{}).Set(failingExec("slurm_load_jobs error: Invalid job id specified", 1), nil)
	if _, err := gone.GetJob(context.Background(), "1"); !errors.Is(err, ErrJobNotQueued) {
		t.Errorf("expected ErrJobNotQueued, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	var got []string
	sc := (&Client{}).Set(func(ctx context.Context, name string, args ...string) *exec.Cmd {
		got = append([]string{name}, args...)
		return exec.CommandContext(ctx, "true")
	}, nil)
	if err := sc.Cancel(context.Background(), "4242"); err != nil {
		t.Fatal(err)
	}
	if strings.Join(got, " ") != "scancel 4242" {
		t.Errorf("unexpected command %q", got)
	}

	bad := (&Client{}).Set(failingExec("scancel: error: Kill job error on job id 1: Invalid job id specified", 1), nil)
	if err := bad.Cancel(context.Background(), "1"); err == nil {
		t.Error("expected error")
	}
}
