package jobspec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

var slurmMemRe = regexp.MustCompile(`^([0-9]+)\s*([KkMmGgTt]?)$`)

// KB, MB, GB and TB are read as binary units, as sbatch does.
var decimalSuffixRe = regexp.MustCompile(`^([0-9.]+)\s*([KkMmGgTt])[Bb]$`)

var slurmUnits = []struct {
	suffix string
	bytes  uint64
}{
	{"T", humanize.TiByte},
	{"G", humanize.GiByte},
	{"M", humanize.MiByte},
	{"K", humanize.KiByte},
}

// NormalizeMemory returns the memory request in the notation accepted by
// sbatch --mem. Slurm notation ("42G", "4096") is kept as is, human sizes
// ("42 GiB", "512MB") are converted to the largest exact binary unit. Every
// unit is binary: "4096MB" is 4G.
func NormalizeMemory(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty memory request")
	}
	if m := slurmMemRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil || n == 0 {
			return "", fmt.Errorf("invalid memory request %q", s)
		}
		return strconv.FormatUint(n, 10) + strings.ToUpper(m[2]), nil
	}

	if m := decimalSuffixRe.FindStringSubmatch(s); m != nil {
		s = m[1] + " " + m[2] + "iB"
	}
	b, err := humanize.ParseBytes(s)
	if err != nil {
		return "", fmt.Errorf("invalid memory request %q: %w", s, err)
	}
	for _, u := range slurmUnits {
		if b >= u.bytes && b%u.bytes == 0 {
			return strconv.FormatUint(b/u.bytes, 10) + u.suffix, nil
		}
	}
	return "", fmt.Errorf("memory request %q is not a whole number of KiB", s)
}

// MemoryBytes returns the size in bytes of a memory request. A bare number
// is in MiB, as for sbatch.
func MemoryBytes(s string) (uint64, error) {
	norm, err := NormalizeMemory(s)
	if err != nil {
		return 0, err
	}
	m := slurmMemRe.FindStringSubmatch(norm)
	n, _ := strconv.ParseUint(m[1], 10, 64)
	switch m[2] {
	case "K":
		return n * humanize.KiByte, nil
	case "G":
		return n * humanize.GiByte, nil
	case "T":
		return n * humanize.TiByte, nil
	default:
		return n * humanize.MiByte, nil
	}
}
