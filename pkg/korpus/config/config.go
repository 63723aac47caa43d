package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/korpus/internal/log"
	"github.com/cognicore/korpus/pkg/korpus/internalerr"
	"github.com/cognicore/korpus/pkg/korpus/metadata"
	"github.com/cognicore/korpus/pkg/korpus/source"
)

// Environment variables that override file settings.
const (
	EnvSource     = "KORPUS_SOURCE"
	EnvTarget     = "KORPUS_TARGET"
	EnvPattern    = "KORPUS_PATTERN"
	EnvGlob       = "KORPUS_GLOB"
	EnvOnMismatch = "KORPUS_ON_MISMATCH"
	EnvLogLevel   = "KORPUS_LOG_LEVEL"
)

// Config is a run configuration.
type Config struct {
	Source     string `yaml:"source"`
	Target     string `yaml:"target"`
	Pattern    string `yaml:"pattern"`
	Glob       string `yaml:"glob"`
	OnMismatch string `yaml:"on_mismatch"`
	Stoplist   string `yaml:"stoplist"`
	Lexicon    string `yaml:"lexicon"`
	Dict       string `yaml:"dict"`
	MinLength  int    `yaml:"min_length"`
	LogLevel   string `yaml:"log_level"`
}

// Default returns a config with every optional field set.
func Default() *Config {
	return &Config{
		Pattern:    metadata.DefaultPattern,
		Glob:       source.DefaultGlob,
		OnMismatch: source.MismatchFail.String(),
		LogLevel:   log.LevelInfo,
	}
}

// Load reads a YAML run file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv loads envFile (if it exists) into the process environment and
// then copies any KORPUS_* variables into cfg. Variables already set in the
// environment win over the file.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	for env, dst := range map[string]*string{
		EnvSource:     &c.Source,
		EnvTarget:     &c.Target,
		EnvPattern:    &c.Pattern,
		EnvGlob:       &c.Glob,
		EnvOnMismatch: &c.OnMismatch,
		EnvLogLevel:   &c.LogLevel,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*dst = v
		}
	}
	return nil
}

// Validate checks the fields needed for an export.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Source) == "" {
		problems = append(problems, "source is required")
	}
	if strings.TrimSpace(c.Target) == "" {
		problems = append(problems, "target is required")
	}
	if _, err := source.ParseMismatchPolicy(c.OnMismatch); err != nil {
		problems = append(problems, fmt.Sprintf("on_mismatch %q must be fail or stem", c.OnMismatch))
	}
	if _, err := metadata.Compile(c.Pattern); err != nil {
		problems = append(problems, fmt.Sprintf("pattern: %v", err))
	}
	if c.MinLength < 0 {
		problems = append(problems, "min_length must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", internalerr.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// SourceOptions converts the config into source options.
func (c *Config) SourceOptions() (source.Options, error) {
	pattern, err := metadata.Compile(c.Pattern)
	if err != nil {
		return source.Options{}, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	policy, err := source.ParseMismatchPolicy(c.OnMismatch)
	if err != nil {
		return source.Options{}, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	return source.Options{
		Dir:        c.Source,
		Pattern:    pattern,
		Glob:       c.Glob,
		OnMismatch: policy,
	}, nil
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, fmt.Errorf("parse stoplist %s: %w", path, err)
	}
	return &sl, nil
}

// Dict represents the multi-token dictionary
type Dict struct {
	Entries []DictEntry
}

// DictEntry represents a dictionary entry
type DictEntry struct {
	Canonical string
	Variants  []string
	Category  string
}

// LoadDict loads the multi-token dictionary from a file.
// Format: canonical|variant1|variant2|category
// Blank lines and lines starting with # are skipped.
func LoadDict(path string) (*Dict, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dict := &Dict{}
	for n, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 2 {
			return nil, fmt.Errorf("%w: %s:%d: want canonical|variant...|category", internalerr.ErrInvalidConfig, path, n+1)
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		dict.Entries = append(dict.Entries, DictEntry{
			Canonical: parts[0],
			Variants:  parts[1 : len(parts)-1],
			Category:  parts[len(parts)-1],
		})
	}
	return dict, nil
}
