// Package storage is the single entry point the storefront uses to reach its
// non-relational backends: a key/value table store, an object store, a message
// queue and a hierarchical file share.
//
// Callers depend on Service only. Which implementation sits behind it (live
// backends, in-memory backends or the no-op fallback) is decided once at
// startup.
package storage

import (
	"context"
	"encoding/json"
	"io"
)

// Resource names provisioned at startup and used by the storefront.
const (
	ProductImagesContainer = "product-images"
	OrderQueue             = "order-queue"
	ProcessingQueue        = "processing-queue"
	ContractsShare         = "contracts"
	ContractsDirectory     = "customer-contracts"
	CustomersTable         = "Customers"
	ProductsTable          = "Products"
)

// Entity is a record addressed by a coarse partition category and a unique row key.
type Entity interface {
	Keys() (partitionKey, rowKey string)
}

// Facade groups the four independent write paths. Each call creates its target
// resource when missing and then performs exactly one write. Nothing is retried.
type Facade interface {
	// SaveRecord upserts entity into table, replacing any record with the same keys.
	SaveRecord(ctx context.Context, table string, entity Entity) error
	// UploadBlob writes content to container/name, overwriting an existing blob,
	// and returns the blob's retrieval address. The address is empty when no
	// backend is configured.
	UploadBlob(ctx context.Context, container, name string, content io.Reader, contentType string) (string, error)
	// EnqueueMessage publishes payload to queue. A nil error means the queue
	// accepted the message, not that anyone consumed it.
	EnqueueMessage(ctx context.Context, queue, payload string) error
	// UploadFile writes content as share/directory/name in one full write.
	UploadFile(ctx context.Context, share, directory, name string, content []byte) error
}

// Provisioner creates resources if they do not exist yet. Every method is
// idempotent.
type Provisioner interface {
	EnsureContainer(ctx context.Context, container string) error
	EnsureQueue(ctx context.Context, queue string) error
	EnsureShare(ctx context.Context, share, directory string) error
	EnsureTable(ctx context.Context, table string) error
}

// Inspector serves best-effort reads for operational dashboards.
type Inspector interface {
	ListRecords(ctx context.Context, table string) ([]json.RawMessage, error)
	ListFiles(ctx context.Context, share, directory string) ([]string, error)
	QueueDepth(ctx context.Context, queue string) (int, error)
}

type Service interface {
	Facade
	Provisioner
	Inspector
	// Name identifies the implementation, e.g. "azure", "memory" or "noop".
	Name() string
}
