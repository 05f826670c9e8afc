package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// History storage backends
const (
	HistoryBackendFile     = "file"
	HistoryBackendPostgres = "postgres"
	HistoryBackendRedis    = "redis"
)

// Config holds all application configuration.
// It is loaded once at startup and treated as read-only afterwards.
type Config struct {
	// Remote collaborators
	Agent    AgentConfig
	Schedule ScheduleConfig

	// Analysis run behaviour
	Analysis AnalysisConfig

	// History log persistence
	History  HistoryConfig
	Database DatabaseConfig
	Redis    RedisConfig

	// Event publishing
	Kafka KafkaConfig

	// Local encrypted preferences
	Settings SettingsConfig

	// HTTP configuration
	HTTP HTTPConfig

	// Logging configuration
	Log LogConfig
}

// AgentConfig holds the agent endpoint and the identifiers of the two logical agents
type AgentConfig struct {
	BaseURL        string
	APIKey         string
	CoordinatorID  string // screening agent
	AlertID        string // messaging delivery agent
	TimeoutSeconds int    // 0 disables the client-side timeout
}

// ScheduleConfig holds scheduler service configuration
type ScheduleConfig struct {
	BaseURL        string
	APIKey         string
	ScheduleID     string
	LogLimit       int
	TimeoutSeconds int // 0 disables the client-side timeout
}

// AnalysisConfig holds progress simulation parameters
type AnalysisConfig struct {
	ProgressTickMillis   int
	ProgressMaxIncrement float64
	ProgressCap          float64
}

// HistoryConfig holds history log configuration
type HistoryConfig struct {
	Capacity   int
	Backend    string // file, postgres or redis
	DataDir    string
	StorageKey string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds event publishing configuration
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// SettingsConfig holds the encrypted preferences store configuration
type SettingsConfig struct {
	DataDir    string
	Passphrase string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Addr                  string
	CORSAllowedOrigins    string
	RequestTimeoutSeconds int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Production bool
	Level      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Agent: AgentConfig{
			BaseURL:        getEnvString("AGENT_BASE_URL", "http://localhost:3000"),
			APIKey:         os.Getenv("AGENT_API_KEY"),
			CoordinatorID:  getEnvString("COORDINATOR_AGENT_ID", "699316c03f10687c1b73366e"),
			AlertID:        getEnvString("ALERT_AGENT_ID", "699316dacb2b470c78df003c"),
			TimeoutSeconds: getEnvInt("AGENT_TIMEOUT_SECONDS", 0),
		},
		Schedule: ScheduleConfig{
			BaseURL:        getEnvString("SCHEDULER_BASE_URL", "http://localhost:3000"),
			APIKey:         os.Getenv("SCHEDULER_API_KEY"),
			ScheduleID:     getEnvString("SCHEDULE_ID", "699316e1399dfadeac3775a8"),
			LogLimit:       getEnvInt("SCHEDULE_LOG_LIMIT", 10),
			TimeoutSeconds: getEnvInt("SCHEDULER_TIMEOUT_SECONDS", 0),
		},
		Analysis: AnalysisConfig{
			ProgressTickMillis:   getEnvInt("ANALYSIS_PROGRESS_TICK_MS", 800),
			ProgressMaxIncrement: getEnvFloat("ANALYSIS_PROGRESS_MAX_INCREMENT", 8),
			ProgressCap:          getEnvFloat("ANALYSIS_PROGRESS_CAP", 92),
		},
		History: HistoryConfig{
			Capacity:   getEnvInt("HISTORY_CAPACITY", 50),
			Backend:    strings.ToLower(getEnvString("HISTORY_BACKEND", HistoryBackendFile)),
			DataDir:    os.Getenv("HISTORY_DATA_DIR"),
			StorageKey: getEnvString("HISTORY_STORAGE_KEY", "multibagger_history"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS"),
			Topic:   getEnvString("KAFKA_TOPIC", "multibagger.events"),
		},
		Settings: SettingsConfig{
			DataDir:    os.Getenv("SETTINGS_DATA_DIR"),
			Passphrase: os.Getenv("SETTINGS_PASSPHRASE"),
		},
		HTTP: HTTPConfig{
			Addr:                  getEnvString("HTTP_ADDR", ":8080"),
			CORSAllowedOrigins:    getEnvString("CORS_ALLOWED_ORIGINS", "*"),
			RequestTimeoutSeconds: getEnvInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Log: LogConfig{
			Production: getEnvBool("LOG_PRODUCTION", false),
			Level:      getEnvString("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Agent.BaseURL == "" {
		return fmt.Errorf("AGENT_BASE_URL is required")
	}
	if c.Agent.CoordinatorID == "" || c.Agent.AlertID == "" {
		return fmt.Errorf("COORDINATOR_AGENT_ID and ALERT_AGENT_ID must not be empty")
	}
	if c.Schedule.ScheduleID == "" {
		return fmt.Errorf("SCHEDULE_ID must not be empty")
	}
	if c.History.Capacity <= 0 {
		return fmt.Errorf("HISTORY_CAPACITY must be positive, got %d", c.History.Capacity)
	}
	if c.Analysis.ProgressTickMillis <= 0 {
		return fmt.Errorf("ANALYSIS_PROGRESS_TICK_MS must be positive, got %d", c.Analysis.ProgressTickMillis)
	}
	if c.Analysis.ProgressCap <= 0 || c.Analysis.ProgressCap >= 100 {
		return fmt.Errorf("ANALYSIS_PROGRESS_CAP must be between 0 and 100, got %.1f", c.Analysis.ProgressCap)
	}

	switch c.History.Backend {
	case HistoryBackendFile:
	case HistoryBackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s history backend", HistoryBackendPostgres)
		}
	case HistoryBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the %s history backend", HistoryBackendRedis)
		}
	default:
		return fmt.Errorf("unknown HISTORY_BACKEND %q (want file, postgres or redis)", c.History.Backend)
	}

	return nil
}

// ProgressTick returns the progress simulator tick interval
func (c *Config) ProgressTick() time.Duration {
	return time.Duration(c.Analysis.ProgressTickMillis) * time.Millisecond
}

// AgentTimeout returns the agent client timeout; zero means no timeout
func (c *Config) AgentTimeout() time.Duration {
	return time.Duration(c.Agent.TimeoutSeconds) * time.Second
}

// ScheduleTimeout returns the scheduler client timeout; zero means no timeout
func (c *Config) ScheduleTimeout() time.Duration {
	return time.Duration(c.Schedule.TimeoutSeconds) * time.Second
}

// HasKafka returns true if event publishing is configured
func (c *Config) HasKafka() bool {
	return len(c.Kafka.Brokers) > 0
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			BaseURL:       "http://localhost:3000",
			CoordinatorID: "coordinator-agent",
			AlertID:       "alert-agent",
		},
		Schedule: ScheduleConfig{
			BaseURL:    "http://localhost:3000",
			ScheduleID: "weekly-screen",
			LogLimit:   10,
		},
		Analysis: AnalysisConfig{
			ProgressTickMillis:   800,
			ProgressMaxIncrement: 8,
			ProgressCap:          92,
		},
		History: HistoryConfig{
			Capacity:   50,
			Backend:    HistoryBackendFile,
			StorageKey: "multibagger_history",
		},
		Kafka: KafkaConfig{
			Topic: "multibagger.events",
		},
		HTTP: HTTPConfig{
			Addr:                  ":8080",
			CORSAllowedOrigins:    "*",
			RequestTimeoutSeconds: 30,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
