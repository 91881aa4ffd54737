package storage

import (
	"context"
	"encoding/json"
	"io"
)

// TableBackend is the capability set of a key/value table store.
// CreateTable must succeed when the table already exists.
type TableBackend interface {
	CreateTable(ctx context.Context, table string) error
	UpsertEntity(ctx context.Context, table, partitionKey, rowKey string, entity []byte) error
	ListEntities(ctx context.Context, table string) ([]json.RawMessage, error)
}

// BlobBackend is the capability set of an object store.
// CreateContainer must succeed when the container already exists.
type BlobBackend interface {
	CreateContainer(ctx context.Context, container string) error
	Upload(ctx context.Context, container, name string, content io.Reader, contentType string) (string, error)
}

// QueueBackend is the capability set of a message queue.
// CreateQueue must succeed when the queue already exists.
type QueueBackend interface {
	CreateQueue(ctx context.Context, queue string) error
	Enqueue(ctx context.Context, queue, payload string) error
	ApproximateDepth(ctx context.Context, queue string) (int, error)
}

// FileBackend is the capability set of a hierarchical file share.
// CreateShare and CreateDirectory must succeed when the resource already exists.
type FileBackend interface {
	CreateShare(ctx context.Context, share string) error
	CreateDirectory(ctx context.Context, share, directory string) error
	Upload(ctx context.Context, share, directory, name string, content []byte) error
	ListFiles(ctx context.Context, share, directory string) ([]string, error)
}

// Backends holds one handle per backend family. A nil handle means the family
// is not configured.
type Backends struct {
	Tables TableBackend
	Blobs  BlobBackend
	Queues QueueBackend
	Files  FileBackend
}

func (b Backends) complete() bool {
	return b.Tables != nil && b.Blobs != nil && b.Queues != nil && b.Files != nil
}
