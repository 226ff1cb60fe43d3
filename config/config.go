package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
)

type Config struct {
	AppName  string `json:"app_name" toml:"app_name"`
	Version  string `json:"version" toml:"version"`
	LogLevel string `json:"log_level" toml:"log_level"`

	Capturer  CapturerConfig  `json:"capturer" toml:"capturer"`
	Processor ProcessorConfig `json:"processor" toml:"processor"`
	Sink      SinkConfig      `json:"sink" toml:"sink"`
	Sentinel  SentinelConfig  `json:"sentinel" toml:"sentinel"`
	Store     StoreConfig     `json:"store" toml:"store"`
}

type CapturerConfig struct {
	Type       string         `json:"type" toml:"type"` // file, postgres
	BufferSize int            `json:"buffer_size" toml:"buffer_size"`
	File       FileConfig     `json:"file" toml:"file"`
	Postgres   PostgresConfig `json:"postgres" toml:"postgres"`
}

type FileConfig struct {
	Path   string `json:"path" toml:"path"` // "-" reads stdin
	Follow bool   `json:"follow" toml:"follow"`
}

type DatabaseConfig struct {
	Hosts    []string `json:"hosts" toml:"hosts"`
	Port     uint16   `json:"port" toml:"port"`
	Username string   `json:"username" toml:"username"`
	Password string   `json:"password" toml:"password"`
	Database string   `json:"database" toml:"database"`
}

type PostgresConfig struct {
	DatabaseConfig
	Table        string   `json:"table" toml:"table"`
	PollInterval Duration `json:"poll_interval" toml:"poll_interval"`
	BatchSize    int      `json:"batch_size" toml:"batch_size"`
}

type ProcessorConfig struct {
	Filter        FilterConfig `json:"filter" toml:"filter"`
	ExcludeFields []string     `json:"exclude_fields" toml:"exclude_fields"`
	Debug         bool         `json:"debug" toml:"debug"`
}

type FilterConfig struct {
	EntityTypes        []string `json:"entity_types" toml:"entity_types"`
	ExcludeEntityTypes []string `json:"exclude_entity_types" toml:"exclude_entity_types"`
	EventTypes         []string `json:"event_types" toml:"event_types"`
}

type SinkConfig struct {
	Type           string `json:"type" toml:"type"` // console, stdout, debug
	Color          bool   `json:"color" toml:"color"`
	MaxColumnWidth int    `json:"max_column_width" toml:"max_column_width"`
	PrettyPrint    bool   `json:"pretty_print" toml:"pretty_print"`
}

type SentinelConfig struct {
	BatchSize          int      `json:"batch_size" toml:"batch_size"`
	FlushInterval      Duration `json:"flush_interval" toml:"flush_interval"`
	CheckpointInterval Duration `json:"checkpoint_interval" toml:"checkpoint_interval"`
}

type StoreConfig struct {
	Type     string         `json:"type" toml:"type"` // memory, file, postgres
	Path     string         `json:"path" toml:"path"`
	Postgres DatabaseConfig `json:"postgres" toml:"postgres"`
	Table    string         `json:"table" toml:"table"`
}

// Duration is a time.Duration written as a string such as "5s" in config files.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(v)
	return nil
}

func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()

	switch {
	case strings.HasSuffix(path, ".json"):
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case strings.HasSuffix(path, ".toml"):
		if _, err := toml.Decode(string(data), config); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", path)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// Validate reports every problem found, joined into one error.
func (c *Config) Validate() error {
	var errs []error

	switch c.Capturer.Type {
	case "file":
		if c.Capturer.File.Path == "" {
			errs = append(errs, errors.New("capturer.file.path is required"))
		}
	case "postgres":
		if len(c.Capturer.Postgres.Hosts) == 0 {
			errs = append(errs, errors.New("capturer.postgres.hosts is required"))
		}
		if c.Capturer.Postgres.PollInterval <= 0 {
			errs = append(errs, errors.New("capturer.postgres.poll_interval must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported capturer type: %q", c.Capturer.Type))
	}
	if c.Capturer.BufferSize < 0 {
		errs = append(errs, errors.New("capturer.buffer_size must not be negative"))
	}

	switch c.Sink.Type {
	case "console", "stdout", "debug":
	default:
		errs = append(errs, fmt.Errorf("unsupported sink type: %q", c.Sink.Type))
	}

	switch c.Store.Type {
	case "memory":
	case "file":
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for file store"))
		}
	case "postgres":
		if len(c.Store.Postgres.Hosts) == 0 {
			errs = append(errs, errors.New("store.postgres.hosts is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported store type: %q", c.Store.Type))
	}

	if c.Sentinel.BatchSize <= 0 {
		errs = append(errs, errors.New("sentinel.batch_size must be positive"))
	}
	if c.Sentinel.FlushInterval <= 0 {
		errs = append(errs, errors.New("sentinel.flush_interval must be positive"))
	}

	return errors.Join(errs...)
}

func DefaultConfig() *Config {
	return &Config{
		AppName:  "catalog-sentinel",
		Version:  "0.1.0",
		LogLevel: "info",
		Capturer: CapturerConfig{
			Type:       "file",
			BufferSize: 64,
			File:       FileConfig{Path: "-"},
			Postgres: PostgresConfig{
				DatabaseConfig: DatabaseConfig{Port: 5432},
				Table:          "change_event",
				PollInterval:   Duration(5 * time.Second),
				BatchSize:      100,
			},
		},
		Sink: SinkConfig{
			Type:           "console",
			Color:          true,
			MaxColumnWidth: 100,
			PrettyPrint:    true,
		},
		Sentinel: SentinelConfig{
			BatchSize:          100,
			FlushInterval:      Duration(5 * time.Second),
			CheckpointInterval: Duration(time.Minute),
		},
		Store: StoreConfig{
			Type:     "memory",
			Postgres: DatabaseConfig{Port: 5432},
			Table:    "sentinel_checkpoint",
		},
	}
}
