// Package config loads command configuration from defaults, an optional
// config file, a .env file, FORMBLOCKS_* environment variables and flag
// overrides, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/goliatone/go-formblocks/pkg/attachment"
	"github.com/goliatone/go-formblocks/pkg/attachment/store"
	"github.com/goliatone/go-formblocks/pkg/logging"
)

// EnvPrefix prefixes every environment override, e.g. FORMBLOCKS_LOG_LEVEL.
const EnvPrefix = "FORMBLOCKS"

// Store drivers.
const (
	StoreLocal = "local"
	StoreS3    = "s3"
)

var (
	ErrUnknownStore = errors.New("config: unknown store driver")
	ErrMissingValue = errors.New("config: missing value")
)

type Config struct {
	Log     Log     `mapstructure:"log"`
	Server  Server  `mapstructure:"server"`
	Uploads Uploads `mapstructure:"uploads"`
	Store   Store   `mapstructure:"store"`
	Submit  Submit  `mapstructure:"submit"`
}

type Log struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	Output      string `mapstructure:"output"`
	FilePath    string `mapstructure:"file_path"`
	Development bool   `mapstructure:"development"`
}

type Server struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	FormsDir        string        `mapstructure:"forms_dir"`
	AssetsPath      string        `mapstructure:"assets_path"`
}

// Uploads holds the server side attachment rules. Sizes use the
// <number><K|M|G|T>iB notation.
type Uploads struct {
	RoutePath      string `mapstructure:"route_path"`
	FieldName      string `mapstructure:"field_name"`
	KeyPrefix      string `mapstructure:"key_prefix"`
	Accept         string `mapstructure:"accept"`
	MaxFileSize    string `mapstructure:"max_file_size"`
	MinItems       int    `mapstructure:"min_items"`
	MaxItems       int    `mapstructure:"max_items"`
	Multiple       bool   `mapstructure:"multiple"`
	MaxRequestSize string `mapstructure:"max_request_size"`
}

type Store struct {
	Driver  string `mapstructure:"driver"`
	Dir     string `mapstructure:"dir"`
	BaseURL string `mapstructure:"base_url"`
	S3      S3     `mapstructure:"s3"`
}

type S3 struct {
	Bucket        string        `mapstructure:"bucket"`
	Region        string        `mapstructure:"region"`
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	PublicBaseURL string        `mapstructure:"public_base_url"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

type Submit struct {
	Locale       string        `mapstructure:"locale"`
	SuccessModal string        `mapstructure:"success_modal"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// LoadOptions points Load at its sources. Overrides use dotted keys
// ("server.addr") and win over everything else.
type LoadOptions struct {
	EnvFile    string
	ConfigFile string
	Overrides  map[string]any
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.file_path", "")
	v.SetDefault("log.development", false)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.forms_dir", "")
	v.SetDefault("server.assets_path", "/assets/formblocks")

	v.SetDefault("uploads.route_path", "/api/uploads")
	v.SetDefault("uploads.field_name", "files")
	v.SetDefault("uploads.key_prefix", "uploads")
	v.SetDefault("uploads.accept", "")
	v.SetDefault("uploads.max_file_size", "2MiB")
	v.SetDefault("uploads.min_items", 1)
	v.SetDefault("uploads.max_items", -1)
	v.SetDefault("uploads.multiple", true)
	v.SetDefault("uploads.max_request_size", "64MiB")

	v.SetDefault("store.driver", StoreLocal)
	v.SetDefault("store.dir", "uploads")
	v.SetDefault("store.base_url", "/uploads")
	v.SetDefault("store.s3.bucket", "")
	v.SetDefault("store.s3.region", "us-east-1")
	v.SetDefault("store.s3.endpoint", "")
	v.SetDefault("store.s3.access_key", "")
	v.SetDefault("store.s3.secret_key", "")
	v.SetDefault("store.s3.public_base_url", "")
	v.SetDefault("store.s3.presign_expiry", 15*time.Minute)

	v.SetDefault("submit.locale", "")
	v.SetDefault("submit.success_modal", "")
	v.SetDefault("submit.timeout", 30*time.Second)
}

// Load resolves the configuration. A missing env file is ignored; a missing
// config file is an error.
func Load(opts LoadOptions) (Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", opts.ConfigFile, err)
		}
	}
	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross field requirements.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case StoreLocal:
		if c.Store.Dir == "" {
			return fmt.Errorf("%w: store.dir", ErrMissingValue)
		}
	case StoreS3:
		if c.Store.S3.Bucket == "" {
			return fmt.Errorf("%w: store.s3.bucket", ErrMissingValue)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.Store.Driver)
	}
	if _, err := c.Uploads.Constraints(); err != nil {
		return err
	}
	if _, err := c.Uploads.RequestLimit(); err != nil {
		return err
	}
	return nil
}

// Logging converts the log section for logging.New.
func (l Log) Logging() logging.Config {
	return logging.Config{
		Level:       l.Level,
		Format:      l.Format,
		Output:      l.Output,
		FilePath:    l.FilePath,
		Development: l.Development,
	}
}

// Constraints builds the attachment rules enforced by the upload endpoint.
func (u Uploads) Constraints() (attachment.Constraints, error) {
	opts := []attachment.ConstraintOption{
		attachment.WithAccept(attachment.ParseAccept(u.Accept)...),
		attachment.WithItemBounds(u.MinItems, u.MaxItems),
		attachment.WithMultiple(u.Multiple),
	}
	if u.MaxFileSize != "" {
		size, err := attachment.ParseSize(u.MaxFileSize)
		if err != nil {
			return attachment.Constraints{}, fmt.Errorf("config: uploads.max_file_size: %w", err)
		}
		opts = append(opts, attachment.WithMaxFileSize(size))
	}
	c, err := attachment.NewConstraints(opts...)
	if err != nil {
		return attachment.Constraints{}, fmt.Errorf("config: uploads: %w", err)
	}
	return c, nil
}

// RequestLimit returns the maximum multipart body size in bytes.
func (u Uploads) RequestLimit() (int64, error) {
	if u.MaxRequestSize == "" {
		return 0, nil
	}
	size, err := attachment.ParseSize(u.MaxRequestSize)
	if err != nil {
		return 0, fmt.Errorf("config: uploads.max_request_size: %w", err)
	}
	return size, nil
}

// S3Config converts the s3 section for store.NewS3StoreFromConfig.
func (s Store) S3Config() store.S3Config {
	return store.S3Config{
		Bucket:        s.S3.Bucket,
		Region:        s.S3.Region,
		Endpoint:      s.S3.Endpoint,
		AccessKey:     s.S3.AccessKey,
		SecretKey:     s.S3.SecretKey,
		PublicBaseURL: s.S3.PublicBaseURL,
		PresignExpiry: s.S3.PresignExpiry,
	}
}
