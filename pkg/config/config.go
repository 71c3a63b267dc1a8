package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Model   ModelConfig   `yaml:"model"`
	Journal JournalConfig `yaml:"journal"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr"`     // HTTP Listen Address (e.g. :8080)
	TCPAddr string `yaml:"tcp_addr"` // TCP Listen Address (e.g. :9090)
}

type ModelConfig struct {
	Weights      []float64 `yaml:"weights"` // initial parameters; wins over size
	Size         int       `yaml:"size"`    // zero-initialized slot count
	Algorithm    string    `yaml:"algorithm"`
	TrainStepMS  int       `yaml:"train_step_ms"`
	InferDelayMS int       `yaml:"infer_delay_ms"`
}

type JournalConfig struct {
	Backend  string `yaml:"backend"` // memory | file | sqlite
	Path     string `yaml:"path"`
	Capacity int    `yaml:"capacity"`
}

func (m ModelConfig) TrainStep() time.Duration {
	return time.Duration(m.TrainStepMS) * time.Millisecond
}

func (m ModelConfig) InferDelay() time.Duration {
	return time.Duration(m.InferDelayMS) * time.Millisecond
}

func Load(configPath string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:    ":8080",
			TCPAddr: ":9090",
		},
		Model: ModelConfig{
			Algorithm:    "scale",
			TrainStepMS:  500,
			InferDelayMS: 500,
		},
		Journal: JournalConfig{
			Backend:  "memory",
			Path:     "oml_data/journal.db",
			Capacity: 1024,
		},
	}

	if configPath == "" {
		for _, p := range []string{"configs/oml.yaml", "oml.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, err
				}
				applyDefaults(cfg)
				return cfg, nil
			}
		}
		applyDefaults(cfg)
		return cfg, nil // no file found: use defaults
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	// Default weights apply only when neither weights nor size is given,
	// so a size-only config gets a zero-initialized model of that size.
	if len(cfg.Model.Weights) == 0 && cfg.Model.Size <= 0 {
		cfg.Model.Weights = []float64{1.0, 2.0}
	}
	if cfg.Model.Algorithm == "" {
		cfg.Model.Algorithm = "scale"
	}
	if cfg.Model.TrainStepMS <= 0 {
		cfg.Model.TrainStepMS = 500
	}
	if cfg.Model.InferDelayMS <= 0 {
		cfg.Model.InferDelayMS = 500
	}
	if cfg.Journal.Backend == "" {
		cfg.Journal.Backend = "memory"
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = "oml_data/journal.db"
	}
	if cfg.Journal.Capacity <= 0 {
		cfg.Journal.Capacity = 1024
	}
}
