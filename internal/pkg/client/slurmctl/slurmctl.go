package slurmctl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"trainjob/internal/pkg/client/slurmctl/models"
)

// Package-level default Client for convenience wiring.
var defaultClient *Client

// SetDefault sets the package-level default slurmctl Client.
func SetDefault(c *Client) { defaultClient = c }

// Default returns the package-level default slurmctl Client.
func Default() *Client { return defaultClient }

// ExecCommandFunc 定义 exec.CommandContext 的函数签名，方便 mock 测试.
type ExecCommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Client 提供使用命令与 slurmctld 交互的功能.
type Client struct {
	execCommand ExecCommandFunc
	logger      *slog.Logger
}

// New returns a Client running the Slurm commands found in PATH.
func New(logger *slog.Logger) *Client {
	return (&Client{}).Set(exec.CommandContext, logger)
}

func (c *Client) Set(exec ExecCommandFunc, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c.execCommand = exec
	c.logger = logger
	return c
}

// Submit 提交批处理脚本. 脚本通过 stdin 传给 sbatch --parsable, extraArgs 追加在
// 脚本内 #SBATCH 指令之后生效 (命令行参数优先).
func (c *Client) Submit(ctx context.Context, script []byte, extraArgs ...string) (*models.Submission, error) {
	args := append([]string{"--parsable"}, extraArgs...)
	cmd := c.execCommand(ctx, "sbatch", args...)
	cmd.Stdin = bytes.NewReader(script)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		c.logger.Error("failed to exec sbatch command", "stderr", stderr.String(), "cmd", cmd.String(), "err", err)
		return nil, fmt.Errorf("sbatch failed: %s: %w", strings.TrimSpace(stderr.String()), err)
	}
	sub, err := parseSubmission(string(out))
	if err != nil {
		c.logger.Error("unexpected sbatch output", "output", string(out), "err", err)
		return nil, err
	}
	c.logger.Info("job submitted", "jobid", sub.JobID, "cluster", sub.Cluster)
	return sub, nil
}

// parseSubmission parses "jobid" or "jobid;cluster". sbatch may print
// warnings before the id, so the last non-empty line is used.
func parseSubmission(out string) (*models.Submission, error) {
	var last string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			last = line
		}
	}
	if last == "" {
		return nil, fmt.Errorf("empty sbatch output")
	}
	id, cluster, _ := strings.Cut(last, ";")
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return nil, fmt.Errorf("invalid job id %q in sbatch output", id)
	}
	return &models.Submission{JobID: id, Cluster: cluster}, nil
}

// Cancel 取消作业 (scancel).
func (c *Client) Cancel(ctx context.Context, jobid string) error {
	cmd := c.execCommand(ctx, "scancel", jobid)
	out, err := cmd.CombinedOutput()
	if err != nil {
		c.logger.Error("failed to exec scancel command", "output", string(out), "cmd", cmd.String(), "err", err)
		return fmt.Errorf("failed to cancel job %s: %s", jobid, strings.TrimSpace(string(out)))
	}
	return nil
}

// GetNodes 获取集群中节点信息, 该函数通过执行 sinfo -h -N -o "%N %P %t %m %c %X %Y %Z %G" 实现数据获取.
// "节点名称(%N) 所属分区(%P) 节点状态(%t) 内存大小(%m), 总cpus(%c) Socket(%X) Cores(%Y) Threads(%Z) Tres(%G)"
// 可选过滤：partition(-p)
func (c *Client) GetNodes(ctx context.Context, condPartition string) (models.Nodes, error) {
	nodes := make(models.Nodes)
	args := []string{"-h", "-N"}
	if condPartition != "" {
		args = append(args, "-p", condPartition)
	}
	args = append(args, "-o", "%N %P %t %m %c %X %Y %Z %G")
	cmd := c.execCommand(ctx, "sinfo", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		c.logger.Error("failed to exec sinfo command", "output", string(out), "cmd", cmd.String(), "err", err)
		return nil, fmt.Errorf("failed to exec sinfo command")
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 9 {
			c.logger.Warn("invalid sinfo output line, skip", "line", line)
			continue
		}
		memory, _ := strconv.Atoi(fields[3])
		cpus, _ := strconv.Atoi(fields[4])
		socket, _ := strconv.Atoi(fields[5])
		cores, _ := strconv.Atoi(fields[6])
		threads, _ := strconv.Atoi(fields[7])
		node, ok := nodes[fields[0]]
		if !ok {
			node = &models.Node{
				Name:      fields[0],
				Partition: make([]string, 0),
				State:     fields[2],
				Memory:    memory,
				CPUs:      cpus,
				Socket:    socket,
				Cores:     cores,
				Threads:   threads,
				GPU:       fields[8],
			}
			nodes[fields[0]] = node
		}
		// sinfo 标记默认分区为 "gpu*"
		node.Partition = append(node.Partition, strings.TrimSuffix(fields[1], "*"))
	}

	return nodes, nil
}

const squeueFormat = "%i|%t|%u|%a|%C|%N|%P|%q|%r"

// GetJobs 获取调度队列中作业信息.
// squeue -o "%i %t %u %a %C %N %P %q %r"
// JOBID ST USER ACCOUNT CPUS NODELIST PARTITION QOS REASON
func (c *Client) GetJobs(ctx context.Context) (models.Jobs, error) {
	jobs := make(models.Jobs, 0)
	cmd := c.execCommand(ctx, "squeue", "-h", "-o", squeueFormat)
	out, err := cmd.CombinedOutput()
	if err != nil {
		c.logger.Error("unable to get all jobs in scheduling queue", "output", string(out), "cmd", cmd.String(), "err", err)
		return nil, fmt.Errorf("failed to exec squeue command")
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		job, ok := parseJobLine(line)
		if !ok {
			c.logger.Warn("invalid squeue output line, skip", "line", line)
			continue
		}
		jobs = append(jobs, *job)
	}

	return jobs, nil
}

// ErrJobNotQueued is returned by GetJob when squeue no longer knows the job.
var ErrJobNotQueued = errors.New("job not in scheduling queue")

func (c *Client) GetJob(ctx context.Context, jobid string) (*models.Job, error) {
	cmd := c.execCommand(ctx, "squeue", "-h", "-j", jobid, "-o", squeueFormat)
	out, err := cmd.CombinedOutput()
	if err != nil {
		// squeue 对已结束并被清理的作业返回 "Invalid job id specified"
		if strings.Contains(string(out), "Invalid job id") {
			return nil, ErrJobNotQueued
		}
		c.logger.Error("unable to get job in scheduling queue", "output", string(out), "cmd", cmd.String(), "err", err)
		return nil, fmt.Errorf("unable to get job in scheduling queue")
	}
	line := strings.TrimSpace(string(out))
	if line == "" {
		return nil, ErrJobNotQueued
	}
	job, ok := parseJobLine(line)
	if !ok {
		c.logger.Warn("invalid squeue output line, skip", "line", line)
		return nil, fmt.Errorf("invalid squeue output line")
	}
	return job, nil
}

func parseJobLine(line string) (*models.Job, bool) {
	fields := strings.Split(line, "|")
	if len(fields) != 9 {
		return nil, false
	}
	return &models.Job{
		Jobid:     fields[0],
		State:     fields[1],
		User:      fields[2],
		Account:   fields[3],
		CPUs:      fields[4],
		Nodelist:  fields[5],
		Partition: fields[6],
		QoS:       fields[7],
		Reason:    fields[8],
	}, true
}

func (c *Client) GetStepsOfJob(ctx context.Context, jobid string) (models.Steps, error) {
	steps := make(models.Steps, 0)
	cmd := c.execCommand(ctx, "squeue", "-s", "-h", "-j", jobid, "-O", "stepid,stepname,stepstate")
	out, err := cmd.CombinedOutput()
	if err != nil {
		c.logger.Error("unable to execute command", "output", string(out), "cmd", cmd.String(), "err", err)
		return nil, fmt.Errorf("failed to exec squeue command")
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) != 3 {
			c.logger.Warn("invalid squeue output line, skip", "line", line)
			continue
		}
		steps = append(steps, models.Step{
			ID:    fields[0],
			Name:  fields[1],
			State: fields[2],
		})
	}

	return steps, nil
}

// GetPartitions 获取分区详情.
func (c *Client) GetPartitions(ctx context.Context) (models.Partitions, error) {
	cmd := c.execCommand(ctx, "scontrol", "show", "partition")
	out, err := cmd.CombinedOutput()
	if err != nil {
		c.logger.Error("unable to get all partitions's information", "output", string(out), "cmd", cmd.String(), "err", err)
		return nil, fmt.Errorf("failed to exec %s", cmd.String())
	}

	return parsePartitions(string(out)), nil
}

// GetPartition returns one partition. A partition unknown to the controller is
// an error.
func (c *Client) GetPartition(ctx context.Context, name string) (models.Partition, error) {
	cmd := c.execCommand(ctx, "scontrol", "show", "partition", name)
	out, err := cmd.CombinedOutput()
	if err != nil {
		c.logger.Error("unable to get partition information", "output", string(out), "cmd", cmd.String(), "err", err)
		return nil, fmt.Errorf("partition %q: %s", name, strings.TrimSpace(string(out)))
	}
	part := parsePartition(string(out))
	if part.Name() == "" {
		return nil, fmt.Errorf("partition %q not found", name)
	}
	return part, nil
}

// parsePartitions 解析 scontrol show partition 的输出为一个或多个 partition 字段映射。
// 输入可包含多个分区，分区之间通常以空行分隔；每行可能包含多个以空格分隔的 key=value 对。
// 返回按出现顺序的分区切片，每个分区以 map[string]string 表示。
func parsePartitions(content string) models.Partitions {
	parts := make(models.Partitions, 0)
	current := make(models.Partition)

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())

		// 空行表示一个分区的结束
		if trimmed == "" {
			if len(current) > 0 {
				parts = append(parts, current)
				current = make(models.Partition)
			}
			continue
		}

		for _, tok := range strings.Fields(trimmed) {
			if eq := strings.IndexByte(tok, '='); eq >= 0 {
				key := tok[:eq]
				val := tok[eq+1:]
				// 若遇到新的 PartitionName 且当前分区已存在 PartitionName，则视为新分区开始
				if key == "PartitionName" && current.Name() != "" {
					parts = append(parts, current)
					current = make(models.Partition)
				}
				current[key] = val
			}
		}
	}

	if len(current) > 0 {
		parts = append(parts, current)
	}

	return parts
}

func parsePartition(content string) models.Partition {
	parts := parsePartitions(content)
	if len(parts) == 0 {
		return make(models.Partition)
	}
	return parts[0]
}
