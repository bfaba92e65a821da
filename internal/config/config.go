// Package config содержит загрузку и валидацию конфигурации.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config представляет конфигурацию приложения
type Config struct {
	// Database
	DatabaseURL string

	// Logging
	LogLevel string

	// App Data Directory
	AppDataDir string

	// Spotify
	Spotify SpotifyConfig

	// Pipeline
	Pipeline PipelineConfig

	// Fallback (клиент analysis proxy)
	Fallback FallbackConfig

	// Proxy (сервер analysis proxy)
	Proxy ProxyConfig

	// Heart rate receiver
	HeartRate HeartRateConfig

	// Health
	HealthPort         string
	HealthCheckEnabled bool
}

// SpotifyConfig представляет конфигурацию Spotify клиента
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Timeout      time.Duration
}

// PipelineConfig представляет конфигурацию пайплайна рекомендаций
type PipelineConfig struct {
	// Cooldown между попытками для одного и того же трека
	Cooldown time.Duration
	// Максимум повторов при дубликатах от fallback
	MaxSeedRetries int
	// Минимальное число треков в плейлисте для quality filter
	PlaylistMinTracks int
	// Размер журнала событий рекомендаций
	EventLogSize int
	// Интервал опроса текущего трека плеера
	PlayerPollInterval time.Duration
}

// FallbackConfig представляет конфигурацию клиента analysis proxy
type FallbackConfig struct {
	ProxyURL string
	// Интервал между опросами статуса анализа
	PollInterval time.Duration
	// Верхняя граница числа опросов одного анализа
	MaxPollAttempts int
	Timeout         time.Duration
}

// ProxyConfig представляет конфигурацию сервера analysis proxy
type ProxyConfig struct {
	Port        string
	UpstreamURL string
	UpstreamKey string
	// Публичный URL для webhook уведомлений от провайдера анализа
	CallbackURL string
	// Секрет для проверки подписи webhook; пустое значение отключает проверку
	WebhookSecret   string
	CacheTTL        time.Duration
	CacheMaxEntries int
	Timeout         time.Duration
}

// HeartRateConfig представляет конфигурацию приемника пульса
type HeartRateConfig struct {
	Port string
	// Максимальный правдоподобный пульс, значения выше отбрасываются
	MaxPlausibleBPM int
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	// Загружаем .env файл если он существует
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL: getEnv("DB_DSN", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		AppDataDir:  getEnv("APP_DATA_DIR", "./data"),
		Spotify: SpotifyConfig{
			ClientID:     getEnv("SPOTIFY_CLIENT_ID", ""),
			ClientSecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),
			RefreshToken: getEnv("SPOTIFY_REFRESH_TOKEN", ""),
			Timeout:      getEnvDuration("SPOTIFY_TIMEOUT", 30*time.Second),
		},
		Pipeline: PipelineConfig{
			Cooldown:           getEnvDuration("PIPELINE_COOLDOWN", 15*time.Second),
			MaxSeedRetries:     getEnvInt("PIPELINE_MAX_SEED_RETRIES", 3),
			PlaylistMinTracks:  getEnvInt("PIPELINE_PLAYLIST_MIN_TRACKS", 20),
			EventLogSize:       getEnvInt("PIPELINE_EVENT_LOG_SIZE", 100),
			PlayerPollInterval: getEnvDuration("PIPELINE_PLAYER_POLL_INTERVAL", 5*time.Second),
		},
		Fallback: FallbackConfig{
			ProxyURL:        getEnv("FALLBACK_PROXY_URL", "http://localhost:8091"),
			PollInterval:    getEnvDuration("FALLBACK_POLL_INTERVAL", 5*time.Second),
			MaxPollAttempts: getEnvInt("FALLBACK_MAX_POLL_ATTEMPTS", 60),
			Timeout:         getEnvDuration("FALLBACK_TIMEOUT", 15*time.Second),
		},
		Proxy: ProxyConfig{
			Port:            getEnv("PROXY_PORT", "8091"),
			UpstreamURL:     getEnv("PROXY_UPSTREAM_URL", ""),
			UpstreamKey:     getEnv("PROXY_UPSTREAM_KEY", ""),
			CallbackURL:     getEnv("PROXY_CALLBACK_URL", ""),
			WebhookSecret:   getEnv("PROXY_WEBHOOK_SECRET", ""),
			CacheTTL:        getEnvDuration("PROXY_CACHE_TTL", 24*time.Hour),
			CacheMaxEntries: getEnvInt("PROXY_CACHE_MAX_ENTRIES", 1000),
			Timeout:         getEnvDuration("PROXY_TIMEOUT", 15*time.Second),
		},
		HeartRate: HeartRateConfig{
			Port:            getEnv("HEART_RATE_PORT", "8090"),
			MaxPlausibleBPM: getEnvInt("HEART_RATE_MAX_PLAUSIBLE_BPM", 230),
		},
		HealthPort:         getEnv("HEALTH_PORT", "8080"),
		HealthCheckEnabled: getEnvBool("HEALTH_CHECK_ENABLED", true),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate проверяет общую часть конфигурации
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DB_DSN is required")
	}

	if c.Pipeline.MaxSeedRetries < 1 {
		return fmt.Errorf("PIPELINE_MAX_SEED_RETRIES must be positive")
	}

	if c.Pipeline.Cooldown < 0 {
		return fmt.Errorf("PIPELINE_COOLDOWN must not be negative")
	}

	if c.Fallback.PollInterval <= 0 {
		return fmt.Errorf("FALLBACK_POLL_INTERVAL must be positive")
	}

	if c.Pipeline.EventLogSize < 1 {
		return fmt.Errorf("PIPELINE_EVENT_LOG_SIZE must be positive")
	}

	if c.Proxy.CacheMaxEntries < 1 {
		return fmt.Errorf("PROXY_CACHE_MAX_ENTRIES must be positive")
	}

	return nil
}

// ValidateSpotify проверяет поля, обязательные для клиентского демона
func (c *Config) ValidateSpotify() error {
	if c.Spotify.ClientID == "" {
		return fmt.Errorf("SPOTIFY_CLIENT_ID is required")
	}

	if c.Spotify.ClientSecret == "" {
		return fmt.Errorf("SPOTIFY_CLIENT_SECRET is required")
	}

	if c.Spotify.RefreshToken == "" {
		return fmt.Errorf("SPOTIFY_REFRESH_TOKEN is required")
	}

	return nil
}

// ValidateProxy проверяет поля, обязательные для сервера analysis proxy
func (c *Config) ValidateProxy() error {
	if c.Proxy.UpstreamURL == "" {
		return fmt.Errorf("PROXY_UPSTREAM_URL is required")
	}

	return nil
}

// getEnv получает переменную окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool получает переменную окружения как bool
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как time.Duration
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
