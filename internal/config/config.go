package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Paths           Paths           `yaml:"paths"`
	Models          Models          `yaml:"models"`
	Extractor       Extractor       `yaml:"extractor"`
	Sample          Sample          `yaml:"sample"`
	Characteristics Characteristics `yaml:"characteristics"`
	Server          Server          `yaml:"server"`
	Logging         Logging         `yaml:"logging"`
}

type Paths struct {
	WorksFile           string `yaml:"works_file"`
	DissertationsFile   string `yaml:"dissertations_file" validate:"required"`
	SubstitutionsFile   string `yaml:"substitutions_file"`
	UniversityDir       string `yaml:"university_dir"`
	CharacteristicsFile string `yaml:"characteristics_file"`
	NoveltyFile         string `yaml:"novelty_file" validate:"required"`
	DissertationsMaster string `yaml:"dissertations_master"`
	MaintenanceDir      string `yaml:"maintenance_dir" validate:"required"`
	StatisticsDir       string `yaml:"statistics_dir" validate:"required"`
	DataDir             string `yaml:"data_dir"`
}

type Models struct {
	NounPhrases string `yaml:"noun_phrases" validate:"required"`
}

type Extractor struct {
	Backend           string  `yaml:"backend" validate:"oneof=heuristic ollama openai"`
	OllamaURL         string  `yaml:"ollama_url"`
	OpenAIModel       string  `yaml:"openai_model"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Workers           int     `yaml:"workers" validate:"gte=1"`
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
	Stem              bool    `yaml:"stem"`
	CacheTTLHours     int     `yaml:"cache_ttl_hours" validate:"gte=0"`
}

type Sample struct {
	MinYear  int    `yaml:"min_year" validate:"gte=0"`
	MaxYear  int    `yaml:"max_year" validate:"gtefield=MinYear"`
	Language string `yaml:"language" validate:"required"`
}

type Characteristics struct {
	CorrectedDomestic bool `yaml:"corrected_domestic"`
}

type Server struct {
	Port int `yaml:"port" validate:"gte=0,lte=65535"`
}

type Logging struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error TRACE DEBUG INFO WARN ERROR"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// ConfigDir returns the XDG config directory for dissnovelty.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "dissnovelty")
}

// DataDir returns the XDG data directory for dissnovelty.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "dissnovelty")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/dissnovelty/config.yaml > ./config.yaml
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

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'dissnovelty init' to create a default config",
		xdgConfig,
	)
}

// Load reads, parses and validates a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
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
		Paths: Paths{
			DissertationsFile:   "data/dissertations.csv",
			NoveltyFile:         "data/novelty.csv",
			CharacteristicsFile: "data/characteristics.csv",
			UniversityDir:       "data/universities",
			DissertationsMaster: "data/master",
			MaintenanceDir:      "output/maintenance",
			StatisticsDir:       "output/statistics",
		},
		Models: Models{NounPhrases: "llama3.1:8b"},
		Extractor: Extractor{
			Backend:           "heuristic",
			OllamaURL:         "http://localhost:11434",
			OpenAIModel:       "gpt-4o-mini",
			APIKeyEnv:         "OPENAI_API_KEY",
			Workers:           4,
			RequestsPerSecond: 0,
			CacheTTLHours:     0,
		},
		Sample: Sample{
			MinYear:  1890,
			MaxYear:  1912,
			Language: "German",
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "info", Format: "console"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks field constraints declared in struct tags.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Paths.DataDir != "" {
		return c.Paths.DataDir
	}
	return DataDir()
}

// DatabasePath is where the run store and phrase cache live.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.GetDataDir(), "dissnovelty.db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
