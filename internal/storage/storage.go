package storage

import (
	"context"

	"github.com/bgatm/replay-engine/pkg/replay"
)

// Storage persists raw match documents and reconstructed replays. Replays
// are cached in Redis and written to the filesystem; raw documents are
// filesystem only. Load methods return (nil, nil) when the item is absent.
type Storage interface {
	Ping(ctx context.Context) error
	Close() error

	SaveReplay(ctx context.Context, g *replay.GameReplay) error
	LoadReplay(ctx context.Context, tableID string, perspective string) (*replay.GameReplay, error)

	SaveRawDocument(ctx context.Context, tableID string, perspective string, data []byte) error
	LoadRawDocument(ctx context.Context, tableID string, perspective string) ([]byte, error)

	// HasRawDocument reports existence without reading the document,
	// which can run to several megabytes.
	HasRawDocument(ctx context.Context, tableID string, perspective string) (bool, error)

	SaveTablePage(ctx context.Context, tableID string, perspective string, data []byte) error
	LoadTablePage(ctx context.Context, tableID string, perspective string) ([]byte, error)
}
