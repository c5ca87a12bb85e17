package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// RunnerConfig is the immutable process-wide configuration. It is loaded once
// at startup and read-only thereafter.
type RunnerConfig struct {
	APIBaseURL       string
	AdminSecret      string
	TickInterval     time.Duration
	MaxPerTick       int
	RequestTimeout   time.Duration
	RunOnce          bool
	HealthPort       int // 0 disables the health server
	LogLevel         string
	LogFormat        string
	ReactionsEnabled bool
	MetricsEnabled   bool
	SecondMeAPIBase  string
}

// Load reads the runner configuration from the environment.
// ADMIN_SECRET is required; everything else has a default.
func Load() (*RunnerConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("API_BASE_URL", "http://localhost:4000")
	v.SetDefault("TICK_SECONDS", 10)
	v.SetDefault("MAX_PER_TICK", 3)
	v.SetDefault("REQUEST_TIMEOUT_MS", 30_000)
	v.SetDefault("RUN_ONCE", false)
	v.SetDefault("HEALTH_PORT", 0)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("REACTIONS_ENABLED", true)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("SECONDME_API_BASE", "https://app.mindos.com/gate/lab")

	adminSecret := v.GetString("ADMIN_SECRET")
	if adminSecret == "" {
		return nil, fmt.Errorf("missing ADMIN_SECRET env var")
	}

	tickSeconds := v.GetInt("TICK_SECONDS")
	if tickSeconds < 1 {
		tickSeconds = 1
	}

	maxPerTick := v.GetInt("MAX_PER_TICK")
	if maxPerTick < 1 {
		maxPerTick = 1
	}

	requestTimeoutMs := v.GetInt("REQUEST_TIMEOUT_MS")
	if requestTimeoutMs < 1_000 {
		requestTimeoutMs = 1_000
	}

	healthPort := v.GetInt("HEALTH_PORT")
	if healthPort < 0 {
		healthPort = 0
	}
	if healthPort > 65535 {
		healthPort = 65535
	}

	return &RunnerConfig{
		APIBaseURL:       v.GetString("API_BASE_URL"),
		AdminSecret:      adminSecret,
		TickInterval:     time.Duration(tickSeconds) * time.Second,
		MaxPerTick:       maxPerTick,
		RequestTimeout:   time.Duration(requestTimeoutMs) * time.Millisecond,
		RunOnce:          v.GetBool("RUN_ONCE"),
		HealthPort:       healthPort,
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
		ReactionsEnabled: v.GetBool("REACTIONS_ENABLED"),
		MetricsEnabled:   v.GetBool("METRICS_ENABLED"),
		SecondMeAPIBase:  v.GetString("SECONDME_API_BASE"),
	}, nil
}
