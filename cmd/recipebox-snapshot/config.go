package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"recipebox/internal/blob"
)

const (
	envPrefix = "RECIPEBOX"

	cfgKeyDriver      = "blob.driver"
	cfgKeyFSRoot      = "blob.fs_root"
	cfgKeyS3Bucket    = "blob.s3.bucket"
	cfgKeyS3Region    = "blob.s3.region"
	cfgKeyS3Endpoint  = "blob.s3.endpoint"
	cfgKeyS3PathStyle = "blob.s3.path_style"
	cfgKeyLogLevel    = "log.level"
)

// config is the resolved CLI configuration.
type config struct {
	Blob blob.Config `mapstructure:"blob"`
	Log  struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// newViper returns a viper instance with defaults and environment binding.
// RECIPEBOX_BLOB_DRIVER maps to blob.driver, and so on.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(cfgKeyDriver, string(blob.DriverFilesystem))
	v.SetDefault(cfgKeyFSRoot, "./snapshots")
	v.SetDefault(cfgKeyS3Bucket, "")
	v.SetDefault(cfgKeyS3Region, "")
	v.SetDefault(cfgKeyS3Endpoint, "")
	v.SetDefault(cfgKeyS3PathStyle, false)
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig reads the optional config file and decodes the merged settings.
func loadConfig(v *viper.Viper, path string) (config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("read config: %w", err)
		}
	}
	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

type blobOpener func(ctx context.Context, cfg blob.Config) (blob.Store, error)

func openBlobStore(ctx context.Context, cfg blob.Config) (blob.Store, error) {
	return blob.OpenConfig(ctx, cfg)
}
