package storage

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
)

// Noop satisfies Service without touching any backend. Writes succeed, blob
// uploads return no address, provisioning is skipped and dashboard reads report
// ErrNotConfigured.
type Noop struct {
	logger *slog.Logger
}

func NewNoop(logger *slog.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) Name() string { return "noop" }

func (n *Noop) SaveRecord(ctx context.Context, table string, _ Entity) error {
	n.logger.DebugContext(ctx, "skipped saving entity, storage not configured", "table", table)
	return nil
}

func (n *Noop) UploadBlob(ctx context.Context, container, name string, _ io.Reader, _ string) (string, error) {
	n.logger.DebugContext(ctx, "skipped uploading blob, storage not configured", "container", container, "blob", name)
	return "", nil
}

func (n *Noop) EnqueueMessage(ctx context.Context, queue, _ string) error {
	n.logger.DebugContext(ctx, "skipped sending message, storage not configured", "queue", queue)
	return nil
}

func (n *Noop) UploadFile(ctx context.Context, share, directory, name string, _ []byte) error {
	n.logger.DebugContext(ctx, "skipped uploading file, storage not configured", "share", share, "directory", directory, "file", name)
	return nil
}

func (n *Noop) EnsureContainer(context.Context, string) error     { return nil }
func (n *Noop) EnsureQueue(context.Context, string) error         { return nil }
func (n *Noop) EnsureShare(context.Context, string, string) error { return nil }
func (n *Noop) EnsureTable(context.Context, string) error         { return nil }

func (n *Noop) ListRecords(context.Context, string) ([]json.RawMessage, error) {
	return nil, ErrNotConfigured
}

func (n *Noop) ListFiles(context.Context, string, string) ([]string, error) {
	return nil, ErrNotConfigured
}

func (n *Noop) QueueDepth(context.Context, string) (int, error) {
	return 0, ErrNotConfigured
}
