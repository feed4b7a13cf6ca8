package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configKey = "config"

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"config":      configKey,
	"api":         "api_endpoint",
	"live":        "live_url",
	"db":          "database_dsn",
	"data-dir":    "data_dir",
	"page-size":   "page_size",
	"log-level":   "log_level",
	"log-format":  "log_format",
	"max-files":   "upload.max_files",
	"s3-endpoint": "s3.endpoint",
	"s3-bucket":   "s3.bucket",
}

// RegisterFlags declares the configuration flags on fs. Flag defaults are
// zero values; effective defaults come from (*Config).LoadDefaults.
//
//	-c, --config string      config file (yaml or json)
//	-a, --api string         address:port of the feed API
//	    --live string        websocket URL for live updates
//	    --db string          SQLite snapshot DSN
//	    --data-dir string    directory for preview copies
//	    --page-size int      feed page size
//	    --log-level string   debug|info|warn|error
//	    --log-format string  text|json
//	    --max-files int      attachment limit per post
//	    --s3-endpoint string S3-compatible endpoint URL
//	    --s3-bucket string   attachment bucket
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "config file (yaml or json)")
	fs.StringP("api", "a", "", "address and port of the feed API")
	fs.String("live", "", "websocket URL for live updates")
	fs.String("db", "", "SQLite snapshot DSN")
	fs.String("data-dir", "", "directory for preview copies")
	fs.Int("page-size", 0, "feed page size")
	fs.String("log-level", "", "log level (debug|info|warn|error)")
	fs.String("log-format", "", "log format (text|json)")
	fs.Int("max-files", 0, "attachment limit per post")
	fs.String("s3-endpoint", "", "S3-compatible endpoint URL")
	fs.String("s3-bucket", "", "attachment bucket")
}

// bindFlags binds every known flag present on fs. Only flags the user set
// override lower layers.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}
