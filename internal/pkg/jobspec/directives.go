package jobspec

import "strconv"

// Directive option names understood by sbatch. Porting to another scheduler
// only means remapping these.
const (
	DirectiveGres      = "gres"
	DirectivePartition = "partition"
	DirectiveMemory    = "mem"
	DirectiveCPUs      = "cpus-per-task"
	DirectiveTime      = "time"
	DirectiveWorkDir   = "chdir"
	DirectiveJobName   = "job-name"
	DirectiveOutput    = "output"

	// DirectivePrefix starts every directive line of a batch script.
	DirectivePrefix = "#SBATCH"
)

// Directive is one scheduler option.
type Directive struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Flag returns the directive in command line form, e.g. --partition=gpu.
func (d Directive) Flag() string { return "--" + d.Name + "=" + d.Value }

// String returns the directive as a batch script line.
func (d Directive) String() string { return DirectivePrefix + " " + d.Flag() }

// Directives returns the resource request in a fixed order: GPU, partition,
// memory, CPUs, time, working directory, then job name and output when set.
func (r Resources) Directives() []Directive {
	ds := make([]Directive, 0, 8)
	mem := r.Memory
	if norm, err := NormalizeMemory(mem); err == nil {
		mem = norm
	}
	if g := r.GPU.String(); g != "" {
		ds = append(ds, Directive{Name: DirectiveGres, Value: g})
	}
	ds = append(ds,
		Directive{Name: DirectivePartition, Value: r.Partition},
		Directive{Name: DirectiveMemory, Value: mem},
		Directive{Name: DirectiveCPUs, Value: strconv.Itoa(r.CPUs)},
		Directive{Name: DirectiveTime, Value: r.TimeLimit.String()},
		Directive{Name: DirectiveWorkDir, Value: r.WorkDir},
	)
	if r.JobName != "" {
		ds = append(ds, Directive{Name: DirectiveJobName, Value: r.JobName})
	}
	if r.Output != "" {
		ds = append(ds, Directive{Name: DirectiveOutput, Value: r.Output})
	}
	return ds
}
