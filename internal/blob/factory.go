package blob

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"recipebox/internal/infra/blob/fs"
	"recipebox/internal/infra/blob/memory"
	"recipebox/internal/infra/blob/s3"
)

// S3Config configures the s3 driver.
type S3Config = s3.Config

// Config selects and configures a blob driver.
type Config struct {
	Driver Driver   `mapstructure:"driver"`
	FSRoot string   `mapstructure:"fs_root"`
	S3     S3Config `mapstructure:"s3"`
}

// Environment variables read by ConfigFromEnv.
const (
	EnvDriver      = "RECIPEBOX_BLOB_DRIVER"        // fs|s3|memory (default fs)
	EnvFSRoot      = "RECIPEBOX_BLOB_FS_ROOT"       // default ./snapshots
	EnvS3Bucket    = "RECIPEBOX_BLOB_S3_BUCKET"     // required for s3
	EnvS3Region    = "RECIPEBOX_BLOB_S3_REGION"     // default us-east-1
	EnvS3Endpoint  = "RECIPEBOX_BLOB_S3_ENDPOINT"   // MinIO and other compatible endpoints
	EnvS3PathStyle = "RECIPEBOX_BLOB_S3_PATH_STYLE" // true|false
)

// ConfigFromEnv reads driver settings from the process environment. AWS
// credentials come from the default chain (AWS_ACCESS_KEY_ID etc.).
func ConfigFromEnv() Config {
	pathStyle, _ := strconv.ParseBool(os.Getenv(EnvS3PathStyle))
	return Config{
		Driver: Driver(os.Getenv(EnvDriver)),
		FSRoot: os.Getenv(EnvFSRoot),
		S3: S3Config{
			Bucket:    os.Getenv(EnvS3Bucket),
			Region:    os.Getenv(EnvS3Region),
			Endpoint:  os.Getenv(EnvS3Endpoint),
			PathStyle: pathStyle,
		},
	}
}

// OpenConfig constructs the Store selected by cfg.Driver, defaulting to fs.
func OpenConfig(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		return fs.New(cfg.FSRoot)
	case DriverS3:
		if cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("%s required for s3 driver", EnvS3Bucket)
		}
		return s3.New(ctx, cfg.S3)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}

// Open constructs a Store from the process environment.
func Open(ctx context.Context) (Store, error) {
	return OpenConfig(ctx, ConfigFromEnv())
}

// NewMemory returns an empty in-memory Store.
func NewMemory() Store { return memory.New() }

// NewMockS3ForTests returns an S3 Store backed by an in-process fake.
func NewMockS3ForTests() Store { return s3.NewMockForTests() }
