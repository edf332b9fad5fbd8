package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Storage     StorageConfig
	Queue       QueueConfig
	Transcriber TranscriberConfig
	Media       MediaConfig
	Render      RenderConfig
	Jobs        JobsConfig
	Logging     LoggingConfig
	Tracing     TracingConfig
	Webhooks    []WebhookConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	UseSSL          bool
}

// QueueConfig holds message queue configuration
type QueueConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Vhost    string
}

// TranscriberConfig holds speech-to-text service configuration
type TranscriberConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// MediaConfig holds external media toolchain configuration
type MediaConfig struct {
	FFmpegPath  string
	FFprobePath string
	TempDir     string
}

// RenderConfig holds subtitle rendering configuration
type RenderConfig struct {
	FontDir        string // bundled fonts shipped with the binary
	StorageFontDir string // user-provided fonts
	FrameWorkers   int    // 0 means one per CPU core
}

// JobsConfig holds generation job lifecycle configuration
type JobsConfig struct {
	TTL time.Duration
}

// LoggingConfig holds log output configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// WebhookConfig is one endpoint notified of generation lifecycle events
type WebhookConfig struct {
	URL    string
	Secret string
}

// TracingConfig holds distributed tracing configuration
type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	JaegerEndpoint string
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.readTimeout", "30s")
	viper.SetDefault("server.writeTimeout", "30s")
	viper.SetDefault("server.shutdownTimeout", "10s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "captionforge")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxConns", 25)
	viper.SetDefault("database.minConns", 5)

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Storage defaults
	viper.SetDefault("storage.endpoint", "localhost:9000")
	viper.SetDefault("storage.accessKeyID", "minioadmin")
	viper.SetDefault("storage.secretAccessKey", "minioadmin")
	viper.SetDefault("storage.bucketName", "captions")
	viper.SetDefault("storage.region", "us-east-1")
	viper.SetDefault("storage.useSSL", false)

	// Queue defaults
	viper.SetDefault("queue.host", "localhost")
	viper.SetDefault("queue.port", 5672)
	viper.SetDefault("queue.user", "guest")
	viper.SetDefault("queue.password", "guest")
	viper.SetDefault("queue.vhost", "/")

	// Transcriber defaults
	viper.SetDefault("transcriber.baseURL", "https://api.openai.com/v1")
	viper.SetDefault("transcriber.model", "whisper-1")
	viper.SetDefault("transcriber.timeout", "5m")

	// Media toolchain defaults
	viper.SetDefault("media.ffmpegPath", "ffmpeg")
	viper.SetDefault("media.ffprobePath", "ffprobe")
	viper.SetDefault("media.tempDir", "/tmp/captionforge")

	// Render defaults
	viper.SetDefault("render.fontDir", "assets/fonts")
	viper.SetDefault("render.storageFontDir", "storage/fonts")
	viper.SetDefault("render.frameWorkers", 0)

	// Job lifecycle defaults
	viper.SetDefault("jobs.ttl", "2h")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")

	// Tracing defaults
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.serviceName", "captionforge")
	viper.SetDefault("tracing.jaegerEndpoint", "http://localhost:14268/api/traces")
}
