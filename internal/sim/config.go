package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/davidvella/levelq"
	"github.com/davidvella/levelq/level"
	"github.com/davidvella/levelq/priority"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("sim: invalid config")

// SpillConfig selects where external queues write their runs.
type SpillConfig struct {
	// Store is "file" or "pebble".
	Store string `yaml:"store" json:"store"`
	// Dir holds the runs. Empty uses a temporary directory for files and an
	// in-memory database for pebble.
	Dir     string `yaml:"dir" json:"dir"`
	MaxRuns int    `yaml:"max_runs" json:"max_runs"`
}

// Config describes one synthetic sweep.
type Config struct {
	// Levels is the number of levels of the synthetic diagram.
	Levels int `yaml:"levels" json:"levels"`
	// Files is the number of level sources the levels are spread over.
	Files int `yaml:"files" json:"files"`
	// Requests bounds the number of requests pushed during the sweep.
	Requests int `yaml:"requests" json:"requests"`
	// Fanout is the number of requests each processed request creates.
	Fanout int `yaml:"fanout" json:"fanout"`
	// Span is how many levels ahead a created request may point.
	Span int `yaml:"span" json:"span"`
	// SkipEmpty fast-forwards over levels without requests.
	SkipEmpty bool `yaml:"skip_empty" json:"skip_empty"`

	LookAhead   int    `yaml:"look_ahead" json:"look_ahead"`
	Mode        string `yaml:"mode" json:"mode"`
	InitLevel   string `yaml:"init_level" json:"init_level"`
	Order       string `yaml:"order" json:"order"`
	MemoryBytes int64  `yaml:"memory_bytes" json:"memory_bytes"`
	MaxSize     int    `yaml:"max_size" json:"max_size"`
	Seed        uint64 `yaml:"seed" json:"seed"`

	Spill SpillConfig `yaml:"spill" json:"spill"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Levels:      32,
		Files:       1,
		Requests:    10000,
		Fanout:      2,
		Span:        4,
		SkipEmpty:   true,
		LookAhead:   1,
		Mode:        "internal",
		InitLevel:   "eager",
		Order:       "ascending",
		MemoryBytes: 64 << 20,
		MaxSize:     16384,
		Seed:        42,
		Spill: SpillConfig{
			Store:   "file",
			MaxRuns: 16,
		},
	}
}

// Load reads a YAML config from path. Fields missing from the file keep their
// defaults; unknown fields are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML config on top of DefaultConfig and validates it.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal encodes cfg as YAML.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(4)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	check(c.Levels > 0, "levels must be positive, got %d", c.Levels)
	check(c.Files > 0, "files must be positive, got %d", c.Files)
	check(c.Requests >= 0, "requests must not be negative, got %d", c.Requests)
	check(c.Fanout >= 0, "fanout must not be negative, got %d", c.Fanout)
	check(c.Span > 0, "span must be positive, got %d", c.Span)
	check(c.LookAhead >= 0, "look_ahead must not be negative, got %d", c.LookAhead)
	check(c.MemoryBytes > 0, "memory_bytes must be positive, got %d", c.MemoryBytes)
	check(c.MaxSize >= 0, "max_size must not be negative, got %d", c.MaxSize)
	check(c.Spill.MaxRuns >= 0, "spill.max_runs must not be negative, got %d", c.Spill.MaxRuns)

	_, err := priority.ParseMode(c.Mode)
	check(err == nil, "mode must be internal or external, got %q", c.Mode)
	_, err = c.initLevel()
	check(err == nil, "init_level must be eager or lazy, got %q", c.InitLevel)
	_, err = c.levelComparator()
	check(err == nil, "order must be ascending or descending, got %q", c.Order)
	check(c.Spill.Store == "file" || c.Spill.Store == "pebble",
		"spill.store must be file or pebble, got %q", c.Spill.Store)

	return errors.Join(errs...)
}

func (c Config) initLevel() (levelq.InitLevel, error) {
	switch c.InitLevel {
	case "eager":
		return levelq.InitEager, nil
	case "lazy":
		return levelq.InitLazy, nil
	}
	return 0, fmt.Errorf("unknown init level %q", c.InitLevel)
}

func (c Config) levelComparator() (level.Comparator, error) {
	switch c.Order {
	case "ascending":
		return level.Ascending, nil
	case "descending":
		return level.Descending, nil
	}
	return nil, fmt.Errorf("unknown order %q", c.Order)
}
