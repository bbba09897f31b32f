package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"trainjob/internal/pkg/jobspec"
)

// DefaultListenAddress is used by serve when server.listen is not set.
const DefaultListenAddress = ":8080"

type Config struct {
	Job    jobspec.Spec `yaml:"job"`
	Server Server       `yaml:"server"`
}

type Server struct {
	Listen  string  `yaml:"listen"`
	Slurmdb Slurmdb `yaml:"slurmdb"`
}

type Slurmdb struct {
	ClusterName     string `yaml:"ClusterName"`
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	Charset         string `yaml:"charset"`
	ParseTime       bool   `yaml:"parseTime"`
	Loc             string `yaml:"loc"`
	TLS             string `yaml:"tls"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime string `yaml:"connMaxLifetime"`
}

// Enabled reports whether an accounting database is configured.
func (s Slurmdb) Enabled() bool { return s.Host != "" }

// Default returns the configuration used without a file: the literal
// training scenario and no accounting database.
func Default() *Config {
	return &Config{
		Job:    jobspec.Default(),
		Server: Server{Listen: DefaultListenAddress},
	}
}

// Load reads a YAML config file from the given path and decodes it over
// Default, so omitted keys keep their default value. An empty path returns
// Default. The job spec is normalized and validated.
//
// job.invocation.wdir follows job.resources.workdir unless set explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		cfg.Job.Invocation.WorkDir = ""
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := cfg.Job.Normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Job.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
