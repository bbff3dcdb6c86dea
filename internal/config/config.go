package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rohmanhakim/exitwrap/internal/clierr"
	"github.com/rohmanhakim/exitwrap/pkg/hashutil"
)

// FailNone makes the entry point succeed. Any other failure kind is one of
// the clierr.Kind names.
const FailNone = "none"

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Environment variables read by WithEnv.
const (
	EnvLogLevel   = "EXITWRAP_LOG_LEVEL"
	EnvFormat     = "EXITWRAP_FORMAT"
	EnvFail       = "EXITWRAP_FAIL"
	EnvMessage    = "EXITWRAP_MESSAGE"
	EnvMaxAttempt = "EXITWRAP_MAX_ATTEMPT"
)

type Config struct {
	//===============
	// Reporting
	//===============
	// Minimum level for diagnostic logs on stderr: debug, info, warn, error or off
	logLevel string
	// How the termination handler renders a failure: text or json
	format string
	// Digest used for the report fingerprint
	fingerprintAlgo hashutil.HashAlgo

	//===============
	// Entry point
	//===============
	// Which failure the demo entry point returns
	failKind string
	// Message carried by the demo failure
	failMessage string

	//===============
	// Supervisor
	//===============
	// Maximum number of child runs, including the first
	maxAttempt int
	// Randomized variation added on top of each backoff
	jitter time.Duration
	// Controls the random number generator used for jitter
	randomSeed int64
	// Initial delay for backoff
	backoffInitialDuration time.Duration
	// Multiplier during exponential backoff
	backoffMultiplier float64
	// Capped maximum delay for backoff
	backoffMaxDuration time.Duration

	// first problem found while applying env overrides, reported by Build
	err error
}

type configDTO struct {
	LogLevel               string  `json:"logLevel,omitempty"`
	Format                 string  `json:"format,omitempty"`
	FingerprintAlgo        string  `json:"fingerprintAlgo,omitempty"`
	Fail                   string  `json:"fail,omitempty"`
	Message                string  `json:"message,omitempty"`
	MaxAttempt             int     `json:"maxAttempt,omitempty"`
	Jitter                 string  `json:"jitter,omitempty"`
	RandomSeed             int64   `json:"randomSeed,omitempty"`
	BackoffInitialDuration string  `json:"backoffInitialDuration,omitempty"`
	BackoffMultiplier      float64 `json:"backoffMultiplier,omitempty"`
	BackoffMaxDuration     string  `json:"backoffMaxDuration,omitempty"`
}

func (c *Config) applyDTO(dto configDTO) error {
	if dto.LogLevel != "" {
		c.logLevel = dto.LogLevel
	}
	if dto.Format != "" {
		c.format = dto.Format
	}
	if dto.FingerprintAlgo != "" {
		c.fingerprintAlgo = hashutil.HashAlgo(dto.FingerprintAlgo)
	}
	if dto.Fail != "" {
		c.failKind = dto.Fail
	}
	if dto.Message != "" {
		c.failMessage = dto.Message
	}
	if dto.MaxAttempt != 0 {
		c.maxAttempt = dto.MaxAttempt
	}
	if dto.RandomSeed != 0 {
		c.randomSeed = dto.RandomSeed
	}
	if dto.BackoffMultiplier != 0 {
		c.backoffMultiplier = dto.BackoffMultiplier
	}

	durations := []struct {
		raw    string
		target *time.Duration
		name   string
	}{
		{dto.Jitter, &c.jitter, "jitter"},
		{dto.BackoffInitialDuration, &c.backoffInitialDuration, "backoffInitialDuration"},
		{dto.BackoffMaxDuration, &c.backoffMaxDuration, "backoffMaxDuration"},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.target = parsed
	}
	return nil
}

// WithConfigFile starts from defaults and applies the JSON file at path.
func WithConfigFile(path string) (*Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	cfgDTO := configDTO{}
	if err := json.Unmarshal(configContent, &cfgDTO); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	cfg := WithDefault()
	if err := cfg.applyDTO(cfgDTO); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}
	return cfg, nil
}

// WithDefault creates a new Config with default values for all fields.
// The default demo failure is the retryable "Error processing".
func WithDefault() *Config {
	defaultConfig := Config{
		logLevel:               "warn",
		format:                 FormatText,
		fingerprintAlgo:        hashutil.HashAlgoBLAKE3,
		failKind:               clierr.KindRetryable.String(),
		failMessage:            "Error processing",
		maxAttempt:             3,
		jitter:                 100 * time.Millisecond,
		randomSeed:             time.Now().UnixNano(),
		backoffInitialDuration: 200 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     10 * time.Second,
	}
	return &defaultConfig
}

// WithEnv applies the EXITWRAP_* entries found in env. A malformed value is
// remembered and returned by Build.
func (c *Config) WithEnv(env map[string]string) *Config {
	if v, ok := env[EnvLogLevel]; ok && v != "" {
		c.logLevel = v
	}
	if v, ok := env[EnvFormat]; ok && v != "" {
		c.format = v
	}
	if v, ok := env[EnvFail]; ok && v != "" {
		c.failKind = v
	}
	if v, ok := env[EnvMessage]; ok && v != "" {
		c.failMessage = v
	}
	if v, ok := env[EnvMaxAttempt]; ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.err = errors.Join(c.err, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, EnvMaxAttempt, v))
		} else {
			c.maxAttempt = n
		}
	}
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) WithFormat(format string) *Config {
	c.format = format
	return c
}

func (c *Config) WithFingerprintAlgo(algo hashutil.HashAlgo) *Config {
	c.fingerprintAlgo = algo
	return c
}

func (c *Config) WithFailKind(kind string) *Config {
	c.failKind = kind
	return c
}

func (c *Config) WithFailMessage(msg string) *Config {
	c.failMessage = msg
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) Build() (Config, error) {
	if c.err != nil {
		return Config{}, c.err
	}

	switch c.logLevel {
	case "debug", "info", "warn", "error", "off":
	default:
		return Config{}, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.logLevel)
	}

	switch c.format {
	case FormatText, FormatJSON:
	default:
		return Config{}, fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.format)
	}

	if _, err := hashutil.ParseHashAlgo(string(c.fingerprintAlgo)); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}

	if c.failKind != FailNone {
		if _, err := clierr.ParseKind(c.failKind); err != nil {
			return Config{}, fmt.Errorf("%w: unknown failure kind %q", ErrInvalidConfig, c.failKind)
		}
	}

	if c.maxAttempt < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempt must be at least 1, got %d", ErrInvalidConfig, c.maxAttempt)
	}
	if c.backoffMultiplier < 1 {
		return Config{}, fmt.Errorf("%w: backoffMultiplier must be at least 1, got %v", ErrInvalidConfig, c.backoffMultiplier)
	}
	if c.jitter < 0 || c.backoffInitialDuration < 0 || c.backoffMaxDuration < 0 {
		return Config{}, fmt.Errorf("%w: durations cannot be negative", ErrInvalidConfig)
	}

	return *c, nil
}

func (c Config) LogLevel() string {
	return c.logLevel
}

func (c Config) Format() string {
	return c.format
}

func (c Config) FingerprintAlgo() hashutil.HashAlgo {
	return c.fingerprintAlgo
}

func (c Config) FailKind() string {
	return c.failKind
}

// Failure is the classification the entry point should fail with. ok is
// false when the entry point should succeed.
func (c Config) Failure() (kind clierr.Kind, ok bool) {
	if c.failKind == FailNone {
		return clierr.KindOpaque, false
	}
	kind, err := clierr.ParseKind(c.failKind)
	return kind, err == nil
}

func (c Config) FailMessage() string {
	return c.failMessage
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}
