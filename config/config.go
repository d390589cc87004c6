// Package config loads the read-only process configuration: the agent
// endpoint directory plus HTTP and orchestration tuning. Configuration is
// resolved once at process start (defaults, then optional YAML file, then
// AGENT_*_URL environment overrides) and passed explicitly to the components
// that need it; nothing reads ambient global state afterwards.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/ragmesh/core"
)

// Directory maps agent names to their base URLs. It is treated as immutable
// after Load for the lifetime of the process.
type Directory map[string]string

// Endpoint resolves the base URL for an agent name.
func (d Directory) Endpoint(agent string) (string, bool) {
	url, ok := d[agent]
	return url, ok
}

// Agents returns the configured agent names in sorted order.
func (d Directory) Agents() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Config is the full process configuration.
type Config struct {
	// Port the HTTP front door listens on.
	Port int `yaml:"port"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogFormat is json or text.
	LogFormat string `yaml:"log_format"`
	// StageTimeout bounds each individual agent call.
	StageTimeout time.Duration `yaml:"stage_timeout"`
	// HealthTimeout bounds each agent health probe.
	HealthTimeout time.Duration `yaml:"health_timeout"`
	// BatchConcurrency bounds concurrent batch ingestion items.
	BatchConcurrency int `yaml:"batch_concurrency"`
	// RetryAttempts bounds re-attempts for unreachable/timed-out agent calls.
	// Zero disables retry entirely.
	RetryAttempts int `yaml:"retry_attempts"`
	// Agents maps agent names to base URLs.
	Agents Directory `yaml:"agents"`
}

// Default returns the baseline configuration with the conventional agent
// ports used by the docker-compose deployment.
func Default() *Config {
	return &Config{
		Port:             3007,
		LogLevel:         "info",
		LogFormat:        "json",
		StageTimeout:     30 * time.Second,
		HealthTimeout:    2 * time.Second,
		BatchConcurrency: 4,
		RetryAttempts:    0,
		Agents: Directory{
			core.AgentQueryParser: "http://query-parser-agent:3002",
			core.AgentIngestion:   "http://ingestion-agent:3001",
			core.AgentRetrieval:   "http://retrieval-agent:3003",
			core.AgentRanking:     "http://ranking-agent:3004",
			core.AgentGeneration:  "http://generation-agent:3005",
			core.AgentValidation:  "http://validation-agent:3006",
		},
	}
}

// UnmarshalYAML overlays only the keys present in the document onto the
// receiver, accepting Go duration strings ("30s") for the timeout fields.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Port             *int      `yaml:"port"`
		LogLevel         *string   `yaml:"log_level"`
		LogFormat        *string   `yaml:"log_format"`
		StageTimeout     *string   `yaml:"stage_timeout"`
		HealthTimeout    *string   `yaml:"health_timeout"`
		BatchConcurrency *int      `yaml:"batch_concurrency"`
		RetryAttempts    *int      `yaml:"retry_attempts"`
		Agents           Directory `yaml:"agents"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.Port != nil {
		c.Port = *raw.Port
	}
	if raw.LogLevel != nil {
		c.LogLevel = *raw.LogLevel
	}
	if raw.LogFormat != nil {
		c.LogFormat = *raw.LogFormat
	}
	if raw.StageTimeout != nil {
		d, err := time.ParseDuration(*raw.StageTimeout)
		if err != nil {
			return fmt.Errorf("invalid stage_timeout: %w", err)
		}
		c.StageTimeout = d
	}
	if raw.HealthTimeout != nil {
		d, err := time.ParseDuration(*raw.HealthTimeout)
		if err != nil {
			return fmt.Errorf("invalid health_timeout: %w", err)
		}
		c.HealthTimeout = d
	}
	if raw.BatchConcurrency != nil {
		c.BatchConcurrency = *raw.BatchConcurrency
	}
	if raw.RetryAttempts != nil {
		c.RetryAttempts = *raw.RetryAttempts
	}
	if raw.Agents != nil {
		for agent, url := range raw.Agents {
			c.Agents[agent] = url
		}
	}

	return nil
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides, in that order. An empty path skips the file step.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overlays AGENT_<NAME>_URL variables onto the endpoint directory,
// matching the variable names the agent deployment already uses.
func (c *Config) applyEnv() {
	for _, agent := range core.AgentNames() {
		if url := os.Getenv(EnvVar(agent)); url != "" {
			c.Agents[agent] = url
		}
	}
	if port := os.Getenv("CREW_CONTROL_PORT"); port != "" {
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err == nil && p > 0 {
			c.Port = p
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = strings.ToLower(level)
	}
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.StageTimeout <= 0 {
		return fmt.Errorf("stage_timeout must be positive")
	}
	if c.BatchConcurrency <= 0 {
		return fmt.Errorf("batch_concurrency must be positive")
	}
	for agent, url := range c.Agents {
		if url == "" {
			return fmt.Errorf("agent %s has an empty endpoint", agent)
		}
	}
	return nil
}

// EnvVar returns the environment variable name overriding an agent endpoint,
// e.g. AGENT_QUERY_PARSER_URL for "query-parser".
func EnvVar(agent string) string {
	return "AGENT_" + strings.ToUpper(strings.ReplaceAll(agent, "-", "_")) + "_URL"
}
