// Package azure adapts Azure Storage (tables, blobs, queues, file shares) to the
// storage backend interfaces.
package azure

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/service"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"github.com/abcretail/storefront/internal/storage"
)

// Clients holds one service client per Azure Storage family, all built from the
// same connection string. The SDK clients are safe for concurrent use.
type Clients struct {
	Tables *aztables.ServiceClient
	Blobs  *azblob.Client
	Queues *azqueue.ServiceClient
	Files  *service.Client
}

func NewClients(connectionString string) (*Clients, error) {
	tables, err := aztables.NewServiceClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("table service client: %w", err)
	}

	blobs, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("blob service client: %w", err)
	}

	queues, err := azqueue.NewServiceClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("queue service client: %w", err)
	}

	files, err := service.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("file service client: %w", err)
	}

	return &Clients{Tables: tables, Blobs: blobs, Queues: queues, Files: files}, nil
}

func (c *Clients) Backends() storage.Backends {
	return storage.Backends{
		Tables: NewTableStore(c.Tables),
		Blobs:  NewBlobStore(c.Blobs),
		Queues: NewQueueStore(c.Queues),
		Files:  NewFileStore(c.Files),
	}
}
