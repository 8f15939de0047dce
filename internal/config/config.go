// Package config provides configuration management for the thread relay worker.
package config

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingPlatform          = errors.New("source.platform is required")
	ErrMissingAPIBaseURL        = errors.New("source.api_base_url is required")
	ErrSourceMissingURLOrFile   = errors.New("either source.url or source.file is required")
	ErrMissingSelector          = errors.New("source.selectors entry is required")
	ErrMissingRelayBaseURL      = errors.New("relay.base_url is required")
	ErrInvalidRelayTimeout      = errors.New("relay.timeout_sec must be at least 1")
	ErrInvalidRelayRate         = errors.New("relay.max_requests_per_sec must be non-negative")
	ErrInvalidMaxPages          = errors.New("crawler.max_pages must be at least 1")
	ErrInvalidPageDelay         = errors.New("crawler.page_delay_ms and page_jitter_ms must be non-negative")
	ErrInvalidReplyLimit        = errors.New("crawler.reply_limit must be at least 1")
	ErrInvalidReplyConcurrency  = errors.New("crawler.reply_concurrency must be non-negative")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidJitter            = errors.New("retry.jitter_ms must be non-negative")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be 'text' or 'json'")
)

// Config represents the complete worker configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Crawler CrawlerConfig `yaml:"crawler"`
	Relay   RelayConfig   `yaml:"relay"`
	Logging LoggingConfig `yaml:"logging"`
}

// SourceConfig describes where the discussion thread is read from.
type SourceConfig struct {
	Platform   string         `yaml:"platform"`
	APIBaseURL string         `yaml:"api_base_url"`
	URL        string         `yaml:"url"`
	File       string         `yaml:"file"`
	Selectors  SelectorConfig `yaml:"selectors"`
}

// SelectorConfig holds the CSS selectors of the rendered article page.
type SelectorConfig struct {
	Title     string `yaml:"title"`
	Timestamp string `yaml:"timestamp"`
	Body      string `yaml:"body"`
	Canonical string `yaml:"canonical"`
}

// IsLocalFile returns true if this source uses a local file.
func (s *SourceConfig) IsLocalFile() bool {
	return s.File != ""
}

// GetSource returns the file path if local, or URL if remote.
func (s *SourceConfig) GetSource() string {
	if s.IsLocalFile() {
		return s.File
	}

	return s.URL
}

// CrawlerConfig contains settings for the comments API traversal.
type CrawlerConfig struct {
	UserAgent        string      `yaml:"user_agent"`
	Retry            RetryPolicy `yaml:"retry"`
	MaxPages         int         `yaml:"max_pages"`
	PageDelayMs      int         `yaml:"page_delay_ms"`
	PageJitterMs     int         `yaml:"page_jitter_ms"`
	ReplyLimit       int         `yaml:"reply_limit"`
	ReplyConcurrency int         `yaml:"reply_concurrency"`
}

// RetryPolicy defines retry behavior.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	JitterMs          int     `yaml:"jitter_ms"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// RelayConfig describes the storage backend records are posted to.
type RelayConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKey            string  `yaml:"api_key"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	MaxRequestsPerSec float64 `yaml:"max_requests_per_sec"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration with every optional value filled in.
// Source URL and relay base URL are left empty; they have no sensible default.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Platform:   "dcard",
			APIBaseURL: "https://www.dcard.tw",
			Selectors: SelectorConfig{
				Title:     "article h1",
				Timestamp: "article time",
				Body:      "article .content",
				Canonical: "link[rel='canonical']",
			},
		},
		Crawler: CrawlerConfig{
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			MaxPages:     3,
			PageDelayMs:  1000,
			PageJitterMs: 500,
			ReplyLimit:   50,
			Retry: RetryPolicy{
				MaxAttempts:       3,
				InitialDelayMs:    2000,
				MaxDelayMs:        10000,
				BackoffMultiplier: 1.0,
				JitterMs:          250,
				TimeoutSec:        30,
			},
		},
		Relay: RelayConfig{
			TimeoutSec: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from YAML file on top of Default.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.ValidateSource(); err != nil {
		return err
	}

	if c.Relay.BaseURL == "" {
		return ErrMissingRelayBaseURL
	}

	if c.Relay.TimeoutSec < 1 {
		return ErrInvalidRelayTimeout
	}

	if c.Relay.MaxRequestsPerSec < 0 {
		return ErrInvalidRelayRate
	}

	if c.Crawler.MaxPages < 1 {
		return ErrInvalidMaxPages
	}

	if c.Crawler.PageDelayMs < 0 || c.Crawler.PageJitterMs < 0 {
		return ErrInvalidPageDelay
	}

	if c.Crawler.ReplyLimit < 1 {
		return ErrInvalidReplyLimit
	}

	if c.Crawler.ReplyConcurrency < 0 {
		return ErrInvalidReplyConcurrency
	}

	if err := c.Crawler.Retry.Validate(); err != nil {
		return err
	}

	return c.Logging.Validate()
}

// ValidateSource checks only what page extraction needs, so the extractor
// command can run without a relay backend configured.
func (c *Config) ValidateSource() error {
	src := c.Source

	if src.Platform == "" {
		return ErrMissingPlatform
	}

	if src.APIBaseURL == "" {
		return ErrMissingAPIBaseURL
	}

	if src.URL == "" && src.File == "" {
		return ErrSourceMissingURLOrFile
	}

	selectors := map[string]string{
		"title":     src.Selectors.Title,
		"timestamp": src.Selectors.Timestamp,
		"body":      src.Selectors.Body,
		"canonical": src.Selectors.Canonical,
	}

	for name, sel := range selectors {
		if sel == "" {
			return fmt.Errorf("%w: %s", ErrMissingSelector, name)
		}
	}

	return nil
}

// Validate validates the retry policy.
func (rp *RetryPolicy) Validate() error {
	if rp.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if rp.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if rp.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if rp.JitterMs < 0 {
		return ErrInvalidJitter
	}

	if rp.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	return nil
}

// Validate validates the logging config.
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return ErrInvalidLogLevel
	}

	if l.Format != "text" && l.Format != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

// BaseDelay returns the backoff delay after the given failed attempt, without jitter.
// A multiplier of 1.0 gives a fixed pause.
func (rp *RetryPolicy) BaseDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delayMs := float64(rp.InitialDelayMs) * math.Pow(rp.BackoffMultiplier, float64(attempt-1))

	// Cap at max delay
	if rp.MaxDelayMs > 0 && delayMs > float64(rp.MaxDelayMs) {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(delayMs) * time.Millisecond
}

// Delay returns BaseDelay plus a random jitter in [0, JitterMs].
func (rp *RetryPolicy) Delay(attempt int) time.Duration {
	return rp.BaseDelay(attempt) + Jitter(rp.JitterMs)
}

// GetTimeout returns the per-request timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// GetTimeout returns the per-POST timeout duration.
func (r *RelayConfig) GetTimeout() time.Duration {
	return time.Duration(r.TimeoutSec) * time.Second
}

// PageDelay returns the fixed pause taken before every page request after the first.
func (c *CrawlerConfig) PageDelay() time.Duration {
	return time.Duration(c.PageDelayMs) * time.Millisecond
}

// PageJitter returns the upper bound of the random jitter added to PageDelay.
func (c *CrawlerConfig) PageJitter() time.Duration {
	return time.Duration(c.PageJitterMs) * time.Millisecond
}

// Jitter returns a uniformly random duration in [0, maxMs] milliseconds.
func Jitter(maxMs int) time.Duration {
	if maxMs <= 0 {
		return 0
	}

	return time.Duration(rand.Int64N(int64(maxMs)+1)) * time.Millisecond
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Platform: %s, Source: %s, Relay: %s, MaxPages: %d, MaxAttempts: %d}",
		c.Source.Platform,
		c.Source.GetSource(),
		c.Relay.BaseURL,
		c.Crawler.MaxPages,
		c.Crawler.Retry.MaxAttempts,
	)
}
