package models

import (
	"strconv"
	"strings"
)

// Nodes is keyed by node name.
type Nodes map[string]*Node

type Node struct {
	Name      string   `json:"name"`
	Partition []string `json:"partition"`
	State     string   `json:"state"`
	Memory    int      `json:"memory"` // MB
	CPUs      int      `json:"cpus"`
	Socket    int      `json:"socket"`
	Cores     int      `json:"cores"`
	Threads   int      `json:"threads"`
	GPU       string   `json:"gpu"` // sinfo %G, e.g. gpu:teslap100:4(S:0-1)
}

// HasGPU reports whether the node advertises at least count GPUs of gpuType.
// An empty gpuType matches any GPU generic resource.
func (n *Node) HasGPU(gpuType string, count int) bool {
	for _, gres := range strings.Split(n.GPU, ",") {
		// strip socket binding, e.g. "(S:0-1)"
		if i := strings.IndexByte(gres, '('); i >= 0 {
			gres = gres[:i]
		}
		parts := strings.Split(gres, ":")
		if len(parts) < 2 || parts[0] != "gpu" {
			continue
		}
		var typ, num string
		if len(parts) == 2 {
			num = parts[1]
		} else {
			typ, num = parts[1], parts[2]
		}
		if gpuType != "" && typ != gpuType {
			continue
		}
		if n, err := strconv.Atoi(num); err == nil && n >= count {
			return true
		}
	}
	return false
}

// 不可调度的 sinfo %t 状态
var unschedulableStates = map[string]bool{
	"down": true, "drain": true, "drng": true, "fail": true, "failg": true,
	"maint": true, "inval": true, "unk": true, "futr": true,
}

// Schedulable reports whether new jobs can start on the node. A node that
// does not respond ("idle*") is not schedulable.
func (n *Node) Schedulable() bool {
	state := strings.ToLower(n.State)
	if strings.HasSuffix(state, "*") {
		return false
	}
	state = strings.TrimRight(state, "~#!%$@^-+")
	return state != "" && !unschedulableStates[state]
}

// Partitions holds `scontrol show partition` records in output order.
type Partitions []Partition

// Partition maps scontrol keys (PartitionName, State, Nodes, ...) to values.
type Partition map[string]string

// Name returns the PartitionName field.
func (p Partition) Name() string { return p["PartitionName"] }

// Up reports whether the partition accepts and schedules jobs.
func (p Partition) Up() bool { return p["State"] == "UP" }
