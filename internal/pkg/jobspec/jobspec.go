package jobspec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// MaxJobsCeiling is the upper bound the training program accepts for --maxjobs.
const MaxJobsCeiling = 32

// DefaultWorkDir is the working directory of the literal training scenario.
const DefaultWorkDir = "/wrk/semantic-segmentation"

// Spec is the complete, immutable description of one training job: what the
// scheduler must reserve, how the node environment is prepared and what is
// finally invoked.
type Spec struct {
	Resources   Resources   `yaml:"resources" json:"resources"`
	Environment Environment `yaml:"environment" json:"environment"`
	Invocation  Invocation  `yaml:"invocation" json:"invocation"`
}

// GPU is a generic resource request for GPUs of an optional type.
type GPU struct {
	Type  string `yaml:"type" json:"type" validate:"omitempty,slurmword,excludesall=:"`
	Count int    `yaml:"count" json:"count" validate:"gte=0"`
}

// String returns the value as expected by --gres, e.g. gpu:teslap100:1.
// An empty string means no GPU is requested.
func (g GPU) String() string {
	if g.Count <= 0 {
		return ""
	}
	if g.Type == "" {
		return "gpu:" + strconv.Itoa(g.Count)
	}
	return fmt.Sprintf("gpu:%s:%d", g.Type, g.Count)
}

// Resources is the resource request handed to the scheduler at submission.
type Resources struct {
	JobName   string    `yaml:"job_name" json:"job_name,omitempty" validate:"omitempty,slurmword"`
	GPU       GPU       `yaml:"gpu" json:"gpu"`
	Partition string    `yaml:"partition" json:"partition" validate:"required,slurmword"`
	Memory    string    `yaml:"memory" json:"memory" validate:"required,slurmmem"`
	CPUs      int       `yaml:"cpus" json:"cpus" validate:"gte=1"`
	TimeLimit TimeLimit `yaml:"time" json:"time" validate:"slurmtime"`
	WorkDir   string    `yaml:"workdir" json:"workdir" validate:"required,startswith=/,slurmword"`
	Output    string    `yaml:"output" json:"output,omitempty" validate:"omitempty,slurmword"`
}

// Pin fixes a library to an exact version inside the runtime environment.
type Pin struct {
	Name    string `yaml:"name" json:"name" validate:"required"`
	Version string `yaml:"version" json:"version" validate:"required"`
}

func (p Pin) String() string { return p.Name + "==" + p.Version }

// Environment describes how the compute node environment is prepared before
// the training program starts. Order matters: modules, activation, pins.
type Environment struct {
	Modules         []string `yaml:"modules" json:"modules" validate:"dive,required"`
	Activate        string   `yaml:"activate" json:"activate,omitempty"`
	ActivateCommand string   `yaml:"activate_command" json:"activate_command,omitempty"`
	Pins            []Pin    `yaml:"pins" json:"pins" validate:"dive"`
	PinCommand      string   `yaml:"pin_command" json:"pin_command,omitempty"`
}

// Invocation is the fixed argument contract of the training entry point.
type Invocation struct {
	Interpreter string `yaml:"interpreter" json:"interpreter" validate:"required"`
	Entrypoint  string `yaml:"entrypoint" json:"entrypoint" validate:"required"`
	Model       string `yaml:"model" json:"model" validate:"required"`
	ModelFolder string `yaml:"mfolder" json:"mfolder" validate:"required"`
	Trainer     string `yaml:"trainer" json:"trainer" validate:"required"`
	Config      string `yaml:"config" json:"config" validate:"required"`
	WorkDir     string `yaml:"wdir" json:"wdir" validate:"required,startswith=/"`
	MaxJobs     int    `yaml:"maxjobs" json:"maxjobs" validate:"gte=1,maxjobs"`
}

// Args returns the six flag/value pairs passed to the entry point, in order.
func (i Invocation) Args() []string {
	return []string{
		"--model", i.Model,
		"--mfolder", i.ModelFolder,
		"--trainer", i.Trainer,
		"--config", i.Config,
		"--wdir", i.WorkDir,
		"--maxjobs", strconv.Itoa(i.MaxJobs),
	}
}

// Command returns the full argv of the training process.
func (i Invocation) Command() []string {
	return append([]string{i.Interpreter, "-m", i.Entrypoint}, i.Args()...)
}

// Default returns the literal scenario: one P100 on the gpu partition for
// three days, training the encoder-only ENet with the mean teacher trainer.
func Default() Spec {
	return Spec{
		Resources: Resources{
			GPU:       GPU{Type: "teslap100", Count: 1},
			Partition: "gpu",
			Memory:    "42G",
			CPUs:      8,
			TimeLimit: TimeLimit(72 * time.Hour),
			WorkDir:   DefaultWorkDir,
		},
		Environment: Environment{
			Modules:         []string{"python-env/2.7.10", "cuda/9.0", "cudnn/7.0-cuda9"},
			Activate:        "segmentation",
			ActivateCommand: "source activate",
			Pins: []Pin{
				{Name: "keras", Version: "2.1.2"},
				{Name: "tensorflow-gpu", Version: "1.4.1"},
			},
			PinCommand: "pip install --user",
		},
		Invocation: Invocation{
			Interpreter: "python",
			Entrypoint:  "src.train",
			Model:       "enet-naive-upsampling-encoder-only",
			ModelFolder: "mean-teacher/enet-naive-upsampling-encoder-only",
			Trainer:     "classification_supervised_mean_teacher",
			Config:      "./config/classification-supervised-mean-teacher.json",
			WorkDir:     DefaultWorkDir,
			MaxJobs:     6,
		},
	}
}

// Normalize fills derived defaults and rewrites the memory request in Slurm
// notation. It is idempotent.
func (s *Spec) Normalize() error {
	mem, err := NormalizeMemory(s.Resources.Memory)
	if err != nil {
		return err
	}
	s.Resources.Memory = mem
	if s.Environment.ActivateCommand == "" {
		s.Environment.ActivateCommand = "source activate"
	}
	if s.Environment.PinCommand == "" {
		s.Environment.PinCommand = "pip install --user"
	}
	if s.Invocation.Interpreter == "" {
		s.Invocation.Interpreter = "python"
	}
	if s.Invocation.Entrypoint == "" {
		s.Invocation.Entrypoint = "src.train"
	}
	if s.Invocation.WorkDir == "" {
		s.Invocation.WorkDir = s.Resources.WorkDir
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("slurmmem", func(fl validator.FieldLevel) bool {
		_, err := NormalizeMemory(fl.Field().String())
		return err == nil
	})
	// values written after #SBATCH end at the first blank
	_ = v.RegisterValidation("slurmword", func(fl validator.FieldLevel) bool {
		return isWord(fl.Field().String())
	})
	_ = v.RegisterValidation("slurmtime", func(fl validator.FieldLevel) bool {
		return time.Duration(fl.Field().Int()) >= MinTimeLimit
	})
	_ = v.RegisterValidation("maxjobs", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= MaxJobsCeiling
	})
	return v
}

func isWord(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) < 0
}

// Validate checks s with go-playground/validator.
func (s Spec) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid job spec: %w", err)
	}
	return nil
}
