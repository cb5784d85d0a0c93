package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Values accepted by ledger.on_missing.
const (
	OnMissingCreate = "create"
	OnMissingSkip   = "skip"
	OnMissingFail   = "fail"
)

// Values accepted by ledger.record.
const (
	RecordID       = "id"
	RecordFilename = "filename"
)

// AlbumConfig defines how the shared album is fetched.
type AlbumConfig struct {
	// BaseURL overrides the shared streams host derived from the album token.
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

// StorageConfig defines the S3-compatible bucket that photos are mirrored to.
type StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	Folder          string `mapstructure:"folder"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// LedgerConfig defines where and how already-uploaded items are recorded.
type LedgerConfig struct {
	Path           string `mapstructure:"path"`
	OnMissing      string `mapstructure:"on_missing"`
	Record         string `mapstructure:"record"`
	PartialUpdates bool   `mapstructure:"partial_updates"`
}

// Config defines the configuration for albumsync.
type Config struct {
	AlbumID              string  `mapstructure:"album_id"`
	MaxConcurrentUploads int     `mapstructure:"max_concurrent_uploads"`
	UploadsPerSecond     float64 `mapstructure:"uploads_per_second"`

	Album   AlbumConfig   `mapstructure:"album"`
	Storage StorageConfig `mapstructure:"storage"`
	Ledger  LedgerConfig  `mapstructure:"ledger"`

	path string `mapstructure:"-"`
}

// Path returns the config file the values were read from, or "" if only the
// environment was used.
func (c *Config) Path() string {
	return c.path
}

func (c *StorageConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("missing storage endpoint")
	}
	if c.AccessKeyID == "" || c.SecretAccessKey == "" {
		return fmt.Errorf("missing storage access_key_id or secret_access_key")
	}
	if c.Bucket == "" {
		return fmt.Errorf("missing storage bucket")
	}
	return nil
}

func (c *LedgerConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("missing ledger path")
	}
	switch c.OnMissing {
	case OnMissingCreate, OnMissingSkip, OnMissingFail:
	default:
		return fmt.Errorf("invalid ledger on_missing %q (want %s, %s or %s)", c.OnMissing, OnMissingCreate, OnMissingSkip, OnMissingFail)
	}
	switch c.Record {
	case RecordID, RecordFilename:
	default:
		return fmt.Errorf("invalid ledger record %q (want %s or %s)", c.Record, RecordID, RecordFilename)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.AlbumID == "" {
		return fmt.Errorf("missing album_id (%s)", c.source())
	}
	if c.MaxConcurrentUploads < 0 {
		return fmt.Errorf("max_concurrent_uploads must not be negative (%s)", c.source())
	}
	if c.UploadsPerSecond < 0 {
		return fmt.Errorf("uploads_per_second must not be negative (%s)", c.source())
	}
	if c.Album.Retries < 0 {
		return fmt.Errorf("album retries must not be negative (%s)", c.source())
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("invalid storage config (%s): %w", c.source(), err)
	}
	if err := c.Ledger.Validate(); err != nil {
		return fmt.Errorf("invalid ledger config (%s): %w", c.source(), err)
	}
	return nil
}

func (c *Config) source() string {
	if c.path == "" {
		return "environment"
	}
	return c.path
}

// DefaultConfigPath returns the default path for the albumsync config file.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to determine user config dir: %w", err)
	}
	return filepath.Join(dir, "albumsync", "config.toml"), nil
}

func setDefaults(v *viper.Viper) {
	// Every key needs a default so that AutomaticEnv can see it during Unmarshal.
	v.SetDefault("album_id", "")
	v.SetDefault("max_concurrent_uploads", 0)
	v.SetDefault("uploads_per_second", 0.0)

	v.SetDefault("album.base_url", "")
	v.SetDefault("album.timeout", 30*time.Second)
	v.SetDefault("album.retries", 2)

	v.SetDefault("storage.endpoint", "s3.amazonaws.com")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.folder", "stream")
	v.SetDefault("storage.use_ssl", true)

	v.SetDefault("ledger.path", "photos.json")
	v.SetDefault("ledger.on_missing", OnMissingCreate)
	v.SetDefault("ledger.record", RecordID)
	v.SetDefault("ledger.partial_updates", false)
}

// LoadConfig reads the config file, if there is one, and applies environment overrides.
// An explicitly named file must exist; the default file is optional.
func LoadConfig(configPathFlag string) (Config, error) {
	path := configPathFlag
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return Config{}, err
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	// Allow users to override config values with environment variables.
	// In particular, may be desired for the storage credentials.
	v.SetEnvPrefix("ALBUMSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	config := Config{}
	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("error reading (%s): %w", path, err)
		}
	} else {
		config.path = path
	}
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling (%s): %w", config.source(), err)
	}
	return config, nil
}
