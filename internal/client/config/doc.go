// Package config loads runtime configuration for the feed sync client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file: the --config flag, FEEDSYNC_CONFIG, or
//     feedsync.yaml / feedsync.json in the working directory.
//  3. Environment variables prefixed with FEEDSYNC_; nested keys use
//     underscores, e.g. FEEDSYNC_S3_BUCKET or FEEDSYNC_UPLOAD_MAX_FILES.
//  4. Command-line flags registered with RegisterFlags, which override
//     earlier values when set.
//
// Durations accept Go duration strings ("15m"), lists accept comma separated
// strings in the environment:
//
//	api_endpoint: feed.joywork.local:50051
//	page_size: 20
//	upload:
//	  max_files: 8
//	  allowed_types: [image/png, image/jpeg]
//	s3:
//	  endpoint: http://127.0.0.1:9000
//	  url_expiry: 30m
//
// Primary API
//
//   - type Config: runtime settings
//   - func LoadConfig(*pflag.FlagSet) (*Config, error): defaults, file, env, flags
//   - func RegisterFlags(*pflag.FlagSet): declares the flags
//   - func (*Config) Validate() error: rejects unusable settings
package config
