package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/wb-go/wbf/zlog"
)

// Config holds the main configuration for the application.
type Config struct {
	Server    Server    `mapstructure:"server"`
	Watermark Watermark `mapstructure:"watermark"`
	Processor Processor `mapstructure:"processor"`
	Assets    Assets    `mapstructure:"assets"`
	Storage   Storage   `mapstructure:"storage"`
	Artifacts Artifacts `mapstructure:"artifacts"`
	Kafka     Kafka     `mapstructure:"kafka"`
	Retry     Retry     `mapstructure:"retry"`
}

// Server holds HTTP server-related configuration.
type Server struct {
	HTTPPort      string `mapstructure:"http_port"`       // HTTP port to listen on
	MaxUploadSize int64  `mapstructure:"max_upload_size"` // multipart memory limit in bytes
	PublicURL     string `mapstructure:"public_url"`      // prefix for download links, empty for relative links
}

// Watermark holds defaults for watermark requests.
type Watermark struct {
	Position  string  `mapstructure:"position"`
	Scale     float64 `mapstructure:"scale"`
	Opacity   float64 `mapstructure:"opacity"`
	Color     string  `mapstructure:"color"`
	FontPath  string  `mapstructure:"font_path"`  // TTF for text overlays, empty for Go Regular
	FontSize  float64 `mapstructure:"font_size"`  // text overlay point size
	TextAlpha uint8   `mapstructure:"text_alpha"` // text overlay alpha, 0-255
}

// Processor holds batch processing configuration.
type Processor struct {
	Workers int `mapstructure:"workers"` // concurrent images per batch, 1 for sequential
}

// Assets selects where overlay graphics are read from.
type Assets struct {
	Source string `mapstructure:"source"` // "embedded", "dir" or "minio"
	Dir    string `mapstructure:"dir"`    // directory for the "dir" source
	Prefix string `mapstructure:"prefix"` // object prefix for the "minio" source
}

// Storage holds configuration for the object storage backend.
type Storage struct {
	Endpoint   string `mapstructure:"endpoint"`
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
	BucketName string `mapstructure:"bucket_name"`
	UseSSL     bool   `mapstructure:"use_ssl"`
}

// Artifacts holds configuration for the artifact store.
type Artifacts struct {
	Backend       string        `mapstructure:"backend"`        // "memory" or "redis"
	TTL           time.Duration `mapstructure:"ttl"`            // 0 keeps artifacts forever
	SweepInterval time.Duration `mapstructure:"sweep_interval"` // memory janitor period
	Redis         Redis         `mapstructure:"redis"`
}

// Redis holds redis connection parameters.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// Kafka holds configuration for the artifact event topic.
type Kafka struct {
	Topic   string   `mapstructure:"topic"`   // Kafka topic name
	Brokers []string `mapstructure:"brokers"` // List of Kafka broker addresses, empty disables events
}

// Retry defines retry policy configuration.
type Retry struct {
	Attempts int           `mapstructure:"attempts"` // Number of retry attempts
	Delay    time.Duration `mapstructure:"delay"`    // Initial delay between retries
	Backoff  float64       `mapstructure:"backoff"`  // Backoff multiplier for delays
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", ":8080")
	v.SetDefault("server.max_upload_size", 32<<20)

	v.SetDefault("watermark.position", "center")
	v.SetDefault("watermark.scale", 0.5)
	v.SetDefault("watermark.opacity", 1.0)
	v.SetDefault("watermark.color", "black")
	v.SetDefault("watermark.font_size", 40.0)
	v.SetDefault("watermark.text_alpha", 100)

	v.SetDefault("processor.workers", 1)

	v.SetDefault("assets.source", "embedded")

	v.SetDefault("artifacts.backend", "memory")
	v.SetDefault("artifacts.ttl", 30*time.Minute)
	v.SetDefault("artifacts.sweep_interval", time.Minute)

	v.SetDefault("kafka.topic", "watermark-artifacts")

	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.delay", 200*time.Millisecond)
	v.SetDefault("retry.backoff", 2.0)
}

// mustBindEnv binds secrets to environment variables.
//
// It panics if any environment variable cannot be bound.
func mustBindEnv(v *viper.Viper) {
	bindings := map[string]string{
		"storage.access_key":       "MINIO_ACCESS_KEY",
		"storage.secret_key":       "MINIO_SECRET_KEY",
		"artifacts.redis.password": "REDIS_PASSWORD",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			zlog.Logger.Panic().Err(err).Msgf("failed to bind env %s", env)
		}
	}
}

// Load reads the configuration from the YAML file at path.
// A missing file is not an error: defaults and environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
		return nil, err
	}

	mustBindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad loads the configuration from the specified file path.
// It panics if the configuration file cannot be read or unmarshaled.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		zlog.Logger.Panic().Err(err).Msg("failed to load config")
	}

	return cfg
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}
