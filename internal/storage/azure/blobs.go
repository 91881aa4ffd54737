package azure

import (
	"context"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

type BlobStore struct {
	client *azblob.Client
}

func NewBlobStore(client *azblob.Client) *BlobStore {
	return &BlobStore{client: client}
}

// CreateContainer creates a container whose blobs are publicly readable.
func (s *BlobStore) CreateContainer(ctx context.Context, name string) error {
	access := container.PublicAccessTypeBlob
	_, err := s.client.CreateContainer(ctx, name, &container.CreateOptions{Access: &access})
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return classify(err)
	}
	return nil
}

func (s *BlobStore) Upload(ctx context.Context, containerName, name string, content io.Reader, contentType string) (string, error) {
	blobClient := s.client.ServiceClient().NewContainerClient(containerName).NewBlockBlobClient(name)

	_, err := blobClient.UploadStream(ctx, content, &blockblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return "", classify(err)
	}

	return blobClient.URL(), nil
}
