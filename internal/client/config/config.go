package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the client reads, e.g.
// FEEDSYNC_API_ENDPOINT or FEEDSYNC_S3_BUCKET.
const EnvPrefix = "FEEDSYNC"

// Config holds runtime settings for the sync engine and its collaborators.
type Config struct {
	// APIEndpoint is host:port of the feed API gRPC endpoint.
	APIEndpoint string `mapstructure:"api_endpoint"`
	// LiveURL is the websocket URL streaming authoritative entry updates.
	LiveURL string `mapstructure:"live_url"`
	// DatabaseDSN points at the local SQLite snapshot database.
	DatabaseDSN string `mapstructure:"database_dsn"`
	// DataDir holds scratch data such as preview copies.
	DataDir string `mapstructure:"data_dir"`
	// PageSize is the page size requested from the feed API.
	PageSize int `mapstructure:"page_size"`
	// RequestTimeout bounds each API round-trip.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	Upload UploadConfig `mapstructure:"upload"`
	S3     S3Config     `mapstructure:"s3"`
}

// UploadConfig bounds a composition session's attachment queue.
type UploadConfig struct {
	MaxFiles     int      `mapstructure:"max_files"`
	MaxFileSize  int64    `mapstructure:"max_file_size"`
	AllowedTypes []string `mapstructure:"allowed_types"`
	// Concurrency caps simultaneous transfers per queue.
	Concurrency int `mapstructure:"concurrency"`
}

// S3Config configures the S3-compatible attachment bucket.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	// PublicBaseURL, when set, is used to build object URLs instead of
	// presigned GET links.
	PublicBaseURL string        `mapstructure:"public_base_url"`
	UsePathStyle  bool          `mapstructure:"use_path_style"`
	URLExpiry     time.Duration `mapstructure:"url_expiry"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIEndpoint = "127.0.0.1:50051"
	c.LiveURL = "ws://127.0.0.1:8080/v1/live"
	c.DatabaseDSN = "feedsync.db"
	c.DataDir = ".feedsync"
	c.PageSize = 10
	c.RequestTimeout = 12 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"

	c.Upload = UploadConfig{
		MaxFiles:     8,
		MaxFileSize:  10 << 20,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		Concurrency:  3,
	}

	c.S3 = S3Config{
		Region:       "us-east-1",
		Bucket:       "joywork-attachments",
		KeyPrefix:    "attachments",
		UsePathStyle: true,
		URLExpiry:    15 * time.Minute,
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIEndpoint) == "" {
		errs = append(errs, errors.New("api_endpoint is required"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page_size must be positive, got %d", c.PageSize))
	}
	if c.Upload.MaxFiles <= 0 {
		errs = append(errs, fmt.Errorf("upload.max_files must be positive, got %d", c.Upload.MaxFiles))
	}
	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("upload.max_file_size must be positive, got %d", c.Upload.MaxFileSize))
	}
	if c.Upload.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("upload.concurrency must be positive, got %d", c.Upload.Concurrency))
	}
	if len(c.Upload.AllowedTypes) == 0 {
		errs = append(errs, errors.New("upload.allowed_types must not be empty"))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config from defaults, an optional config file, FEEDSYNC_*
// environment variables and flags. Later sources take precedence over earlier
// ones.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	return Load(viper.New(), flags)
}

// Load is LoadConfig with an explicit viper instance.
func Load(v *viper.Viper, flags *pflag.FlagSet) (*Config, error) {
	defaults := &Config{}
	defaults.LoadDefaults()
	setDefaults(v, defaults)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("api_endpoint", d.APIEndpoint)
	v.SetDefault("live_url", d.LiveURL)
	v.SetDefault("database_dsn", d.DatabaseDSN)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("page_size", d.PageSize)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)

	v.SetDefault("upload.max_files", d.Upload.MaxFiles)
	v.SetDefault("upload.max_file_size", d.Upload.MaxFileSize)
	v.SetDefault("upload.allowed_types", d.Upload.AllowedTypes)
	v.SetDefault("upload.concurrency", d.Upload.Concurrency)

	v.SetDefault("s3.endpoint", d.S3.Endpoint)
	v.SetDefault("s3.region", d.S3.Region)
	v.SetDefault("s3.access_key_id", d.S3.AccessKeyID)
	v.SetDefault("s3.secret_access_key", d.S3.SecretAccessKey)
	v.SetDefault("s3.bucket", d.S3.Bucket)
	v.SetDefault("s3.key_prefix", d.S3.KeyPrefix)
	v.SetDefault("s3.public_base_url", d.S3.PublicBaseURL)
	v.SetDefault("s3.use_path_style", d.S3.UsePathStyle)
	v.SetDefault("s3.url_expiry", d.S3.URLExpiry)
}

// readConfigFile loads the file named by the config key, or feedsync.{yaml,json}
// from the working directory when present.
func readConfigFile(v *viper.Viper) error {
	if path := v.GetString(configKey); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("feedsync")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}
