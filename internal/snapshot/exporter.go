// Package snapshot archives store state as versioned JSON documents in a
// blob store and restores it on request.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"recipebox/internal/blob"
	"recipebox/internal/core"
)

const (
	// Version is the document format written by Export.
	Version = 1
	// KeyPrefix namespaces snapshot objects inside the blob store.
	KeyPrefix = "snapshots/"
	// ContentType is attached to every stored document.
	ContentType = "application/json"
)

// ErrUnsupportedVersion is returned when decoding a document of another format version.
var ErrUnsupportedVersion = errors.New("snapshot: unsupported document version")

// Document is the stored form of a snapshot. Collections keep insertion order.
type Document struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	core.Snapshot
}

// Record describes a completed export.
type Record struct {
	Key         string    `json:"key"`
	ExportedAt  time.Time `json:"exported_at"`
	SizeBytes   int64     `json:"size_bytes"`
	ETag        string    `json:"etag,omitempty"`
	Recipes     int       `json:"recipes"`
	Authors     int       `json:"authors"`
	Ingredients int       `json:"ingredients"`
}

// State is the part of the memory store snapshots read and restore.
type State interface {
	ExportState() core.Snapshot
	ImportState(core.Snapshot)
}

// Exporter moves snapshots between a State and a blob store.
type Exporter struct {
	state  State
	blobs  blob.Store
	logger core.Logger
	clock  core.Clock
	newID  func() (uuid.UUID, error)
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger used for export and import events.
func WithLogger(logger core.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock sets the clock stamped into exported documents.
func WithClock(clock core.Clock) Option {
	return func(e *Exporter) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// NewExporter builds an exporter over state and blobs.
func NewExporter(state State, blobs blob.Store, opts ...Option) *Exporter {
	e := &Exporter{
		state:  state,
		blobs:  blobs,
		logger: slog.New(slog.DiscardHandler),
		clock:  core.ClockFunc(time.Now),
		newID:  uuid.NewV7,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export captures the current state and writes it under a fresh key. The
// store lock is held only while the state is cloned.
func (e *Exporter) Export(ctx context.Context) (Record, error) {
	id, err := e.newID()
	if err != nil {
		return Record{}, fmt.Errorf("snapshot id: %w", err)
	}
	doc := Document{Version: Version, ExportedAt: e.clock.Now().UTC(), Snapshot: e.state.ExportState()}
	payload, err := json.Marshal(doc)
	if err != nil {
		return Record{}, fmt.Errorf("encode snapshot: %w", err)
	}
	key := KeyPrefix + id.String() + ".json"
	rec := Record{
		Key:         key,
		ExportedAt:  doc.ExportedAt,
		Recipes:     len(doc.Recipes),
		Authors:     len(doc.Authors),
		Ingredients: len(doc.Ingredients),
	}
	info, err := e.blobs.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: ContentType,
		Metadata: map[string]string{
			"version":     strconv.Itoa(Version),
			"recipes":     strconv.Itoa(rec.Recipes),
			"authors":     strconv.Itoa(rec.Authors),
			"ingredients": strconv.Itoa(rec.Ingredients),
		},
	})
	if err != nil {
		e.logger.Warn("snapshot export failed", "key", key, "error", err)
		return Record{}, fmt.Errorf("store snapshot %s: %w", key, err)
	}
	rec.SizeBytes = info.Size
	rec.ETag = info.ETag
	e.logger.Info("snapshot exported", "key", key, "driver", e.blobs.Driver(), "bytes", info.Size)
	return rec, nil
}

// Import replaces the state with the document stored under key. Records
// with empty or duplicate keys, and recipes with dangling references, are
// dropped by the store while importing.
func (e *Exporter) Import(ctx context.Context, key string) (Document, error) {
	doc, err := e.Load(ctx, key)
	if err != nil {
		return Document{}, err
	}
	e.state.ImportState(doc.Snapshot)
	e.logger.Info("snapshot imported", "key", key, "exported_at", doc.ExportedAt)
	return doc, nil
}

// Load fetches and decodes the document under key without touching state.
func (e *Exporter) Load(ctx context.Context, key string) (Document, error) {
	_, rc, err := e.blobs.Get(ctx, key)
	if err != nil {
		return Document{}, fmt.Errorf("fetch snapshot %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	doc, err := Decode(rc)
	if err != nil {
		return Document{}, fmt.Errorf("snapshot %s: %w", key, err)
	}
	return doc, nil
}

// List returns stored snapshots ordered by key. UUIDv7 keys sort by
// creation time.
func (e *Exporter) List(ctx context.Context) ([]blob.Info, error) {
	infos, err := e.blobs.List(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return infos, nil
}

// URL returns a time-limited download link where the driver supports one.
func (e *Exporter) URL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return e.blobs.PresignURL(ctx, key, blob.SignedURLOptions{Expiry: expiry})
}

// Decode reads a snapshot document, rejecting unknown versions.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode: %w", err)
	}
	if doc.Version != Version {
		return Document{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	return doc, nil
}
