package launcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"trainjob/internal/pkg/client/slurmctl/models"
	"trainjob/internal/pkg/jobspec"
)

// Cluster is the part of the scheduler client used by Preflight.
type Cluster interface {
	GetPartition(ctx context.Context, name string) (models.Partition, error)
	GetNodes(ctx context.Context, partition string) (models.Nodes, error)
}

// Preflight checks that spec can be scheduled before it is submitted: the
// partition exists and is up, and one of its nodes provides the requested
// GPUs, memory and CPUs. With checkConfig the trainer configuration must be
// a JSON object, resolved against the working directory when relative. All
// failed checks are reported together.
func Preflight(ctx context.Context, cluster Cluster, spec jobspec.Spec, checkConfig bool) error {
	var errs []error

	res := spec.Resources
	part, err := cluster.GetPartition(ctx, res.Partition)
	switch {
	case err != nil:
		errs = append(errs, err)
	case !part.Up():
		errs = append(errs, fmt.Errorf("partition %q is %s", res.Partition, part["State"]))
	}

	if err == nil {
		nodes, err := cluster.GetNodes(ctx, res.Partition)
		if err != nil {
			errs = append(errs, err)
		} else if err := anyNodeFits(nodes, res); err != nil {
			errs = append(errs, fmt.Errorf("partition %q: %w", res.Partition, err))
		}
	}

	if checkConfig {
		if err := checkTrainerConfig(spec.Invocation); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// anyNodeFits reports an error unless one schedulable node provides the
// requested GPUs, memory and CPUs at the same time.
func anyNodeFits(nodes models.Nodes, res jobspec.Resources) error {
	memBytes, err := jobspec.MemoryBytes(res.Memory)
	if err != nil {
		return err
	}
	memMB := int(memBytes / humanize.MiByte)
	for _, n := range nodes {
		if !n.Schedulable() {
			continue
		}
		if res.GPU.Count > 0 && !n.HasGPU(res.GPU.Type, res.GPU.Count) {
			continue
		}
		if n.Memory >= memMB && n.CPUs >= res.CPUs {
			return nil
		}
	}
	if res.GPU.Count > 0 {
		return fmt.Errorf("no schedulable node provides %s with %s memory and %d CPUs", res.GPU, res.Memory, res.CPUs)
	}
	return fmt.Errorf("no schedulable node provides %s memory and %d CPUs", res.Memory, res.CPUs)
}

func checkTrainerConfig(inv jobspec.Invocation) error {
	path := inv.Config
	if !filepath.IsAbs(path) {
		path = filepath.Join(inv.WorkDir, path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("trainer config: %w", err)
	}
	var cfg map[string]any
	if err := json.Unmarshal(b, &cfg); err != nil {
		return fmt.Errorf("trainer config %s: %w", path, err)
	}
	return nil
}
