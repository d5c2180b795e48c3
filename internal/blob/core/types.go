// Package core defines the blob storage contract shared by the snapshot
// archive drivers.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	// DriverFilesystem stores snapshots below a local directory.
	DriverFilesystem Driver = "fs"
	// DriverS3 stores snapshots in an S3 or MinIO bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps snapshots in process memory.
	DriverMemory Driver = "memory"
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// SignedURLOptions holds options for generating a pre-signed URL.
type SignedURLOptions struct {
	Method string        // only GET is supported
	Expiry time.Duration // default DefaultURLExpiry
}

// DefaultURLExpiry bounds pre-signed URLs when no expiry is requested.
const DefaultURLExpiry = 15 * time.Minute

// Info describes a stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
}

// Store is the create-only object store snapshots are archived in.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	Driver() Driver
}

var (
	// ErrUnsupported is returned when an optional capability is not available.
	ErrUnsupported = errors.New("blobstore: unsupported operation")
	// ErrNotFound is matched by errors reporting a missing key.
	ErrNotFound = errors.New("blobstore: not found")
	// ErrExists is matched by errors reporting that Put would overwrite a key.
	ErrExists = errors.New("blobstore: already exists")
)

// NotFound wraps ErrNotFound with the missing key.
func NotFound(key string) error { return fmt.Errorf("blob %s: %w", key, ErrNotFound) }

// Exists wraps ErrExists with the conflicting key.
func Exists(key string) error { return fmt.Errorf("blob %s: %w", key, ErrExists) }

// CheckMethod rejects pre-sign methods other than GET.
func CheckMethod(method string) error {
	if method == "" || strings.EqualFold(method, "GET") {
		return nil
	}
	return fmt.Errorf("presign %s: %w", method, ErrUnsupported)
}
