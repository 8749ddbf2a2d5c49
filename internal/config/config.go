package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds Elenchus configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Engine    EngineConfig    `yaml:"engine"`
	Bundle    BundleConfig    `yaml:"bundle"`
	Projects  []ProjectConfig `yaml:"projects"`
	Audit     AuditConfig     `yaml:"audit"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	MLAssist  MLAssistConfig  `yaml:"ml_assist"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"` // HTTP listen address, e.g. ":8080"
}

// EngineConfig tunes the classifier thresholds. Zero values mean "use the
// built-in default".
type EngineConfig struct {
	CodeBlockLineThreshold int `yaml:"code_block_line_threshold"`
	ProseSentenceThreshold int `yaml:"prose_sentence_threshold"`
	MaxInputLength         int `yaml:"max_input_length"`
}

// BundleConfig points to an optional declarative rule bundle.
type BundleConfig struct {
	Path string `yaml:"path"`
}

// ProjectConfig binds API keys to a project and an optional per-project
// engine profile (stricter or more lenient than the default).
type ProjectConfig struct {
	ID      string        `yaml:"id"`
	APIKeys []string      `yaml:"api_keys"`
	Engine  *EngineConfig `yaml:"engine"`
}

type AuditConfig struct {
	Enabled        bool              `yaml:"enabled"`
	File           string            `yaml:"file"`        // JSONL path, empty disables the file sink
	WebhookURL     string            `yaml:"webhook_url"` // empty disables the webhook sink
	WebhookHeaders map[string]string `yaml:"webhook_headers"`
	QueueSize      int               `yaml:"queue_size"`
	Workers        int               `yaml:"workers"`
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"` // grpc | http
	Service  string `yaml:"service"`
	Version  string `yaml:"version"`
}

// MLAssistConfig enables the optional ONNX decisiveness scorer. Scores are
// advisory only; they never change a verdict.
type MLAssistConfig struct {
	Enabled   bool   `yaml:"enabled"`
	BundleDir string `yaml:"bundle_dir"`
	SeqLen    int    `yaml:"seq_len"`
}

// Load reads configuration from a YAML file.
// If the file doesn't exist, it returns a default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Telemetry.Service == "" {
		cfg.Telemetry.Service = "elenchus"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	if cfg.Audit.QueueSize <= 0 {
		cfg.Audit.QueueSize = 1000
	}
	if cfg.Audit.Workers <= 0 {
		cfg.Audit.Workers = 1
	}
	if cfg.MLAssist.SeqLen <= 0 {
		cfg.MLAssist.SeqLen = 256
	}
}
