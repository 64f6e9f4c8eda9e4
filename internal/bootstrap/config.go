package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SettingsBackendRedis    = "redis"
	SettingsBackendPostgres = "postgres"
	SettingsBackendMemory   = "memory"
)

type Config struct {
	ServerAddr string
	LogLevel   string

	SettingsBackend string
	DatabaseDSN     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	VLMTimeout time.Duration

	RTCICEServers           []ICEServerConfig
	RTCPortMin              int
	RTCPortMax              int
	ScreenshareGrantTimeout time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	OTLPEndpoint string
	ServiceName  string
}

type ICEServerConfig struct {
	URLs       []string
	Username   string
	Credential string
}

// LoadConfig reads the environment. A .env file in the working directory is
// loaded first when present; real environment variables win over it.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		SettingsBackend: strings.ToLower(getEnv("SETTINGS_BACKEND", SettingsBackendRedis)),
		DatabaseDSN:     getEnv("DATABASE_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		VLMTimeout: getEnvDuration("VLM_TIMEOUT", 60*time.Second),

		RTCICEServers:           parseICEServers(getEnv("RTC_ICE_SERVERS", "stun:stun.l.google.com:19302")),
		RTCPortMin:              getEnvInt("RTC_PORT_MIN", 0),
		RTCPortMax:              getEnvInt("RTC_PORT_MAX", 0),
		ScreenshareGrantTimeout: getEnvDuration("SCREENSHARE_GRANT_TIMEOUT", 60*time.Second),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 5),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "live-commentary"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseICEServers(envValue string) []ICEServerConfig {
	var servers []ICEServerConfig
	for _, url := range strings.Split(envValue, ",") {
		url = strings.TrimSpace(url)
		if url != "" {
			servers = append(servers, ICEServerConfig{URLs: []string{url}})
		}
	}
	return servers
}
