package jobspec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"
)

// TimeLimit is a wall-clock limit for a job.
type TimeLimit time.Duration

// MinTimeLimit is the shortest limit sbatch can express. A zero --time
// would mean no limit at all.
const MinTimeLimit = time.Second

// ParseTimeLimit accepts every time format understood by sbatch --time
// ("minutes", "minutes:seconds", "hours:minutes:seconds", "days-hours",
// "days-hours:minutes", "days-hours:minutes:seconds") as well as unit
// suffixed durations such as "72h", "3d" or "1w".
func ParseTimeLimit(s string) (TimeLimit, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time limit")
	}
	if strings.IndexFunc(s, isUnitLetter) >= 0 {
		d, err := str2duration.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid time limit %q: %w", s, err)
		}
		if d < MinTimeLimit {
			return 0, fmt.Errorf("invalid time limit %q: must be at least %s", s, MinTimeLimit)
		}
		return TimeLimit(d), nil
	}

	var days int
	rest := s
	hasDays := false
	if i := strings.IndexByte(s, '-'); i >= 0 {
		n, err := atoiNonNeg(s[:i])
		if err != nil {
			return 0, fmt.Errorf("invalid time limit %q: %w", s, err)
		}
		days, rest, hasDays = n, s[i+1:], true
	}

	parts := strings.Split(rest, ":")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := atoiNonNeg(p)
		if err != nil {
			return 0, fmt.Errorf("invalid time limit %q: %w", s, err)
		}
		nums[i] = n
	}

	var h, m, sec int
	switch {
	case hasDays && len(nums) == 1:
		h = nums[0]
	case hasDays && len(nums) == 2:
		h, m = nums[0], nums[1]
	case len(nums) == 3:
		h, m, sec = nums[0], nums[1], nums[2]
	case !hasDays && len(nums) == 1:
		m = nums[0]
	case !hasDays && len(nums) == 2:
		m, sec = nums[0], nums[1]
	default:
		return 0, fmt.Errorf("invalid time limit %q", s)
	}

	d := time.Duration(days)*24*time.Hour +
		time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second
	if d <= 0 {
		return 0, fmt.Errorf("invalid time limit %q: must be positive", s)
	}
	return TimeLimit(d), nil
}

func isUnitLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func atoiNonNeg(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative component %d", n)
	}
	return n, nil
}

// String renders the limit as days-hours:minutes:seconds, e.g. 3-00:00:00.
// Sub-second remainders round up.
func (t TimeLimit) String() string {
	total := int64((time.Duration(t) + time.Second - 1) / time.Second)
	days := total / 86400
	total %= 86400
	return fmt.Sprintf("%d-%02d:%02d:%02d", days, total/3600, (total%3600)/60, total%60)
}

// Duration returns the limit as a time.Duration.
func (t TimeLimit) Duration() time.Duration { return time.Duration(t) }

// MarshalText implements encoding.TextMarshaler.
func (t TimeLimit) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeLimit) UnmarshalText(b []byte) error {
	v, err := ParseTimeLimit(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// UnmarshalYAML accepts both string and bare integer (minutes) scalars.
func (t *TimeLimit) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: time limit must be a scalar", value.Line)
	}
	return t.UnmarshalText([]byte(value.Value))
}
