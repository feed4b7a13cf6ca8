package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.APIEndpoint)
	assert.Equal(t, 10, c.PageSize)
	assert.Equal(t, 8, c.Upload.MaxFiles)
	assert.Equal(t, int64(10<<20), c.Upload.MaxFileSize)
	assert.Equal(t, 15*time.Minute, c.S3.URLExpiry)
	require.NoError(t, c.Validate())
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load(viper.New(), newFlags(t))
	require.NoError(t, err)

	want := &Config{}
	want.LoadDefaults()
	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempFile(t, "feedsync.yaml", `
api_endpoint: file-host:1
page_size: 5
request_timeout: 30s
upload:
  max_files: 4
  allowed_types: [image/png]
s3:
  bucket: from-file
  url_expiry: 1h
`)
	t.Setenv("FEEDSYNC_PAGE_SIZE", "25")
	t.Setenv("FEEDSYNC_S3_BUCKET", "from-env")

	cfg, err := Load(viper.New(), newFlags(t, "--config", path, "-a", "flag-host:2", "--s3-bucket", "from-flag"))
	require.NoError(t, err)

	assert.Equal(t, "flag-host:2", cfg.APIEndpoint, "flag beats file")
	assert.Equal(t, 25, cfg.PageSize, "env beats file")
	assert.Equal(t, "from-flag", cfg.S3.Bucket, "flag beats env")
	assert.Equal(t, 4, cfg.Upload.MaxFiles)
	assert.Equal(t, []string{"image/png"}, cfg.Upload.AllowedTypes)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Hour, cfg.S3.URLExpiry)
	assert.Equal(t, "us-east-1", cfg.S3.Region, "untouched keys keep defaults")
}

func TestLoad_EnvList(t *testing.T) {
	t.Setenv("FEEDSYNC_UPLOAD_ALLOWED_TYPES", "image/png,image/gif")

	cfg, err := Load(viper.New(), newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"image/png", "image/gif"}, cfg.Upload.AllowedTypes)
}

func TestLoad_JSONFile(t *testing.T) {
	path := writeTempFile(t, "cfg.json", `{"live_url": "ws://live.example/v1/live", "upload": {"concurrency": 1}}`)

	cfg, err := Load(viper.New(), newFlags(t, "-c", path))
	require.NoError(t, err)
	assert.Equal(t, "ws://live.example/v1/live", cfg.LiveURL)
	assert.Equal(t, 1, cfg.Upload.Concurrency)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(viper.New(), newFlags(t, "-c", filepath.Join(t.TempDir(), "nope.yaml")))
		require.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeTempFile(t, "bad.yaml", "page_size: [unterminated")
		_, err := Load(viper.New(), newFlags(t, "-c", path))
		require.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Load(viper.New(), newFlags(t, "--page-size=-1"))
		require.ErrorContains(t, err, "page_size must be positive")
	})
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	c := &Config{}
	err := c.Validate()
	require.Error(t, err)
	for _, s := range []string{"api_endpoint", "page_size", "max_files", "max_file_size", "concurrency", "allowed_types"} {
		assert.Contains(t, err.Error(), s)
	}
}
