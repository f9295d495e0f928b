// Package config loads runtime settings from .env, an optional YAML file and
// the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable pointing at a YAML overlay.
const FileEnv = "PLAGCHECK_CONFIG"

type Config struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"maxUploadBytes"`

	Log    LogConfig    `yaml:"log"`
	Search SearchConfig `yaml:"search"`
	Proxy  ProxyConfig  `yaml:"proxy"`
	APIs   APIConfig    `yaml:"apis"`
	Cache  CacheConfig  `yaml:"cache"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}

type SearchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	Stagger   time.Duration `yaml:"stagger"`
	MinDelay  time.Duration `yaml:"minDelay"`
	MaxDelay  time.Duration `yaml:"maxDelay"`
	HL        string        `yaml:"hl"`
	GL        string        `yaml:"gl"`
	Filler    string        `yaml:"filler"`
	Web       bool          `yaml:"web"`
	Scholar   bool          `yaml:"scholar"`
	News      bool          `yaml:"news"`
	Fallback  bool          `yaml:"keywordFallback"`
	Breaker   BreakerConfig `yaml:"breaker"`
	APIPerSec float64       `yaml:"apiRatePerSec"`
}

type BreakerConfig struct {
	MaxFailures uint32        `yaml:"maxFailures"`
	Cooldown    time.Duration `yaml:"cooldown"`
}

type ProxyConfig struct {
	Service string `yaml:"service"`
	APIKey  string `yaml:"apiKey"`
}

type APIConfig struct {
	DeepSeekKey    string `yaml:"deepseekKey"`
	WowinstonKey   string `yaml:"wowinstonKey"`
	DetectingAIKey string `yaml:"detectingAiKey"`
	OpenAIKey      string `yaml:"openaiKey"`
}

type CacheConfig struct {
	Path          string        `yaml:"path"`
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redisAddr"`
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDb"`
}

func Default() Config {
	return Config{
		Addr:           ":3000",
		MaxUploadBytes: 10 << 20,
		Log:            LogConfig{Level: "info", Format: "console"},
		Search: SearchConfig{
			Timeout:   15 * time.Second,
			Stagger:   600 * time.Millisecond,
			MinDelay:  2 * time.Second,
			MaxDelay:  5 * time.Second,
			HL:        "es",
			GL:        "es",
			Web:       true,
			Scholar:   true,
			Fallback:  true,
			Breaker:   BreakerConfig{MaxFailures: 3, Cooldown: 30 * time.Second},
			APIPerSec: 2,
		},
		Cache: CacheConfig{TTL: 24 * time.Hour},
	}
}

// Load reads .env (if present), then the YAML file named by PLAGCHECK_CONFIG
// (if set), then environment overrides.
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.overlayEnv(); err != nil {
		return Config{}, err
	}
	cfg.Validate()
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) overlayEnv() error {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	c.Addr = getenvString("PLAGCHECK_ADDR", c.Addr)
	c.Log.Level = getenvString("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getenvString("LOG_FORMAT", c.Log.Format)

	s := &c.Search
	var err error
	s.Timeout, err = getenvDuration("SEARCH_TIMEOUT", s.Timeout)
	collect(err)
	s.Stagger, err = getenvDuration("SEARCH_STAGGER", s.Stagger)
	collect(err)
	s.MinDelay, err = getenvDuration("RATE_MIN_DELAY", s.MinDelay)
	collect(err)
	s.MaxDelay, err = getenvDuration("RATE_MAX_DELAY", s.MaxDelay)
	collect(err)
	s.HL = getenvString("SEARCH_LOCALE_HL", s.HL)
	s.GL = getenvString("SEARCH_LOCALE_GL", s.GL)
	s.Filler = getenvString("SEARCH_FILLER", s.Filler)
	s.Web, err = getenvBool("SEARCH_WEB", s.Web)
	collect(err)
	s.Scholar, err = getenvBool("SEARCH_SCHOLAR", s.Scholar)
	collect(err)
	s.News, err = getenvBool("SEARCH_NEWS", s.News)
	collect(err)
	s.Fallback, err = getenvBool("KEYWORD_FALLBACK", s.Fallback)
	collect(err)

	failures, err := getenvInt("BREAKER_MAX_FAILURES", int(s.Breaker.MaxFailures))
	collect(err)
	if failures >= 0 {
		s.Breaker.MaxFailures = uint32(failures)
	}
	s.Breaker.Cooldown, err = getenvDuration("BREAKER_COOLDOWN", s.Breaker.Cooldown)
	collect(err)
	s.APIPerSec, err = getenvFloat("API_RATE_PER_SEC", s.APIPerSec)
	collect(err)

	c.Proxy.Service = getenvString("PROXY_SERVICE", c.Proxy.Service)
	c.Proxy.APIKey = getenvString("PROXY_API_KEY", c.Proxy.APIKey)

	c.APIs.DeepSeekKey = getenvString("DEEPSEEK_API_KEY", c.APIs.DeepSeekKey)
	c.APIs.WowinstonKey = getenvString("WOWINSTON_API_KEY", c.APIs.WowinstonKey)
	c.APIs.DetectingAIKey = getenvString("DETECTINGAI_API_KEY", c.APIs.DetectingAIKey)
	c.APIs.OpenAIKey = getenvString("OPENAI_API_KEY", c.APIs.OpenAIKey)

	c.Cache.Path = getenvString("CACHE_PATH", c.Cache.Path)
	c.Cache.TTL, err = getenvDuration("CACHE_TTL", c.Cache.TTL)
	collect(err)
	c.Cache.RedisAddr = getenvString("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisPassword = getenvString("REDIS_PASSWORD", c.Cache.RedisPassword)
	c.Cache.RedisDB, err = getenvInt("REDIS_DB", c.Cache.RedisDB)
	collect(err)

	upload, err := getenvInt("MAX_UPLOAD_BYTES", int(c.MaxUploadBytes))
	collect(err)
	c.MaxUploadBytes = int64(upload)

	return errors.Join(errs...)
}

// Validate clamps values that would make no sense at runtime.
func (c *Config) Validate() {
	d := Default()
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = d.Addr
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}

	s := &c.Search
	if s.Timeout <= 0 {
		s.Timeout = d.Search.Timeout
	}
	s.Stagger = max(s.Stagger, 0)
	s.MinDelay = max(s.MinDelay, 0)
	s.MaxDelay = max(s.MaxDelay, s.MinDelay)
	if s.HL == "" {
		s.HL = d.Search.HL
	}
	if s.GL == "" {
		s.GL = d.Search.GL
	}
	if s.Breaker.MaxFailures == 0 {
		s.Breaker.MaxFailures = d.Search.Breaker.MaxFailures
	}
	s.Breaker.Cooldown = max(s.Breaker.Cooldown, 0)
	s.APIPerSec = max(s.APIPerSec, 0)

	c.Cache.TTL = max(c.Cache.TTL, 0)

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
		c.Log.Format = strings.ToLower(c.Log.Format)
	default:
		c.Log.Format = d.Log.Format
	}
}

func getenvString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// getenvDuration accepts Go durations ("15s") and bare milliseconds ("600").
func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
