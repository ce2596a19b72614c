package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	LLM      LLM      `yaml:"llm"`
	Extract  Extract  `yaml:"extract"`
	Judge    Judge    `yaml:"judge"`
	Database Database `yaml:"database"`
	Output   Output   `yaml:"output"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
	Feeds    []Feed   `yaml:"feeds"`
}

type LLM struct {
	Provider       string  `yaml:"provider"`
	Model          string  `yaml:"model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	BaseURL        string  `yaml:"base_url"`
	Temperature    float64 `yaml:"temperature"`
}

type Extract struct {
	Renderer  string        `yaml:"renderer"`
	Mode      string        `yaml:"mode"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type Judge struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
	SystemPrompt   string        `yaml:"system_prompt"`
}

type Database struct {
	URL string `yaml:"url"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

// envOverrides are read from the process environment after the file.
// Empty values leave the file setting untouched.
type envOverrides struct {
	DatabaseURL       string `envconfig:"DATABASE_URL"`
	SignalDatabaseURL string `envconfig:"SIGNAL_DATABASE_URL"`
	LogLevel          string `envconfig:"SIGNAL_LOG_LEVEL"`
	Port              int    `envconfig:"SIGNAL_PORT"`
	Provider          string `envconfig:"SIGNAL_LLM_PROVIDER"`
	Renderer          string `envconfig:"SIGNAL_RENDERER"`
}

// ConfigDir returns the XDG config directory for signalengine.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "signalengine")
}

// DataDir returns the XDG data directory for signalengine.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "signalengine")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/signalengine/config.yaml > ./config.yaml
// An empty path with a nil error means no file was found and the embedded
// defaults should be used.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// Load reads and parses a config YAML file, then applies environment
// overrides. An empty path loads the embedded defaults.
func Load(path string) (*Config, error) {
	data := DefaultConfigYAML
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		LLM: LLM{
			Provider:       "gemini",
			Model:          "gemini-2.0-flash",
			EmbeddingModel: "text-embedding-004",
			APIKeyEnv:      "GOOGLE_API_KEY",
			Temperature:    0.1,
		},
		Extract: Extract{
			Renderer:  "browser",
			Mode:      "full",
			Timeout:   15 * time.Second,
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Judge: Judge{
			MaxAttempts:    3,
			InitialBackoff: 2 * time.Second,
			MaxBackoff:     10 * time.Second,
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	if env.SignalDatabaseURL != "" {
		c.Database.URL = env.SignalDatabaseURL
	} else if env.DatabaseURL != "" {
		c.Database.URL = env.DatabaseURL
	}
	if env.LogLevel != "" {
		c.Logging.Level = env.LogLevel
	}
	if env.Port != 0 {
		c.Server.Port = env.Port
	}
	if env.Provider != "" {
		c.LLM.Provider = env.Provider
	}
	if env.Renderer != "" {
		c.Extract.Renderer = env.Renderer
	}
	return nil
}

// Validate checks enumerated settings and numeric bounds.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "gemini", "openai", "ollama":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	switch c.Extract.Renderer {
	case "browser", "http":
	default:
		return fmt.Errorf("unknown renderer %q", c.Extract.Renderer)
	}
	switch c.Extract.Mode {
	case "full", "readability":
	default:
		return fmt.Errorf("unknown extract mode %q", c.Extract.Mode)
	}
	if c.Extract.Timeout <= 0 {
		return fmt.Errorf("extract timeout must be positive")
	}
	if c.Judge.MaxAttempts < 1 {
		return fmt.Errorf("judge max_attempts must be at least 1")
	}
	if c.Judge.InitialBackoff <= 0 || c.Judge.MaxBackoff < c.Judge.InitialBackoff {
		return fmt.Errorf("judge backoff must satisfy 0 < initial_backoff <= max_backoff")
	}
	return nil
}

// APIKey returns the credential named by llm.api_key_env, or "" when unset.
func (c *Config) APIKey() string {
	if c.LLM.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.LLM.APIKeyEnv)
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DatabaseURL returns the configured store DSN, defaulting to a SQLite file
// inside the data directory.
func (c *Config) DatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return filepath.Join(c.GetDataDir(), "signalengine.db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
