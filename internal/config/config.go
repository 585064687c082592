// Package config handles fishbot runtime configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AssetsDir       string
	DataDir         string
	CueTemplate     string
	SampleRate      int
	CueThreshold    float64
	SilenceFloor    float64
	CueTimeout      time.Duration
	SettleDelay     time.Duration
	JitterMin       time.Duration
	JitterMax       time.Duration
	PollInterval    time.Duration
	PointerOffsetX  int
	MoveDuration    time.Duration
	RetrievePause   time.Duration
	CaptureInterval time.Duration
	HTTPAddr        string
	AllowedOrigins  []string
	CatchLogEnabled bool
	LogLevel        string
	LogFormat       string
}

func Load() *Config {
	cfg := &Config{
		AssetsDir:       getEnv("FISHBOT_ASSETS", "assets"),
		DataDir:         getEnv("FISHBOT_DATA_DIR", "."),
		CueTemplate:     getEnv("CUE_TEMPLATE", "Catchsound.mp3"),
		SampleRate:      getEnvInt("SAMPLE_RATE", 48000),
		CueThreshold:    getEnvFloat("CUE_THRESHOLD", 60.0),
		SilenceFloor:    getEnvFloat("CUE_SILENCE_FLOOR", 0.01),
		CueTimeout:      getEnvDuration("CUE_TIMEOUT", 30*time.Second),
		SettleDelay:     getEnvDuration("SETTLE_DELAY", 3*time.Second),
		JitterMin:       getEnvDuration("JITTER_MIN", time.Second),
		JitterMax:       getEnvDuration("JITTER_MAX", 2*time.Second),
		PollInterval:    getEnvDuration("POLL_INTERVAL", 100*time.Millisecond),
		PointerOffsetX:  getEnvInt("POINTER_OFFSET_X", 25),
		MoveDuration:    getEnvDuration("MOVE_DURATION", 450*time.Millisecond),
		RetrievePause:   getEnvDuration("RETRIEVE_PAUSE", time.Second),
		CaptureInterval: getEnvDuration("CAPTURE_INTERVAL", 10*time.Millisecond),
		HTTPAddr:        getEnv("HTTP_ADDR", ""),
		AllowedOrigins:  getEnvList("ALLOWED_ORIGINS", []string{"localhost:*", "127.0.0.1:*"}),
		CatchLogEnabled: getEnvBool("CATCHLOG_ENABLED", true),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
	}
	if cfg.JitterMax < cfg.JitterMin {
		cfg.JitterMax = cfg.JitterMin
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	return cfg
}

// CuePath resolves the cue template inside the assets directory unless it is absolute.
func (c *Config) CuePath() string {
	if filepath.IsAbs(c.CueTemplate) {
		return c.CueTemplate
	}
	return filepath.Join(c.AssetsDir, c.CueTemplate)
}

func (c *Config) CatalogPath() string { return filepath.Join(c.DataDir, "areas.json") }
func (c *Config) PrefsPath() string   { return filepath.Join(c.DataDir, "options.txt") }
func (c *Config) CatchLogPath() string {
	return filepath.Join(c.DataDir, "catches.db")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

// getEnvDuration accepts Go duration strings ("450ms") or bare seconds ("1.5").
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second))
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}
