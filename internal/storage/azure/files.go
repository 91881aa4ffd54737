package azure

import (
	"bytes"
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/fileerror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/service"
)

// maxRangeSize is the largest range a single Put Range request accepts.
const maxRangeSize = 4 * 1024 * 1024

type FileStore struct {
	client *service.Client
}

func NewFileStore(client *service.Client) *FileStore {
	return &FileStore{client: client}
}

func (s *FileStore) CreateShare(ctx context.Context, share string) error {
	_, err := s.client.NewShareClient(share).Create(ctx, nil)
	if err != nil && !fileerror.HasCode(err, fileerror.ShareAlreadyExists) {
		return classify(err)
	}
	return nil
}

func (s *FileStore) CreateDirectory(ctx context.Context, share, directory string) error {
	_, err := s.client.NewShareClient(share).NewDirectoryClient(directory).Create(ctx, nil)
	if err != nil && !fileerror.HasCode(err, fileerror.ResourceAlreadyExists) {
		return classify(err)
	}
	return nil
}

// Upload creates the file at its final size and then writes every byte range.
func (s *FileStore) Upload(ctx context.Context, share, directory, name string, content []byte) error {
	fileClient := s.client.NewShareClient(share).NewDirectoryClient(directory).NewFileClient(name)

	if _, err := fileClient.Create(ctx, int64(len(content)), nil); err != nil {
		return classify(err)
	}

	for offset := 0; offset < len(content); offset += maxRangeSize {
		end := min(offset+maxRangeSize, len(content))
		body := streaming.NopCloser(bytes.NewReader(content[offset:end]))
		if _, err := fileClient.UploadRange(ctx, int64(offset), body, nil); err != nil {
			return classify(err)
		}
	}

	return nil
}

func (s *FileStore) ListFiles(ctx context.Context, share, directory string) ([]string, error) {
	pager := s.client.NewShareClient(share).NewDirectoryClient(directory).NewListFilesAndDirectoriesPager(nil)

	var names []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, classify(err)
		}
		if page.Segment == nil {
			continue
		}
		for _, file := range page.Segment.Files {
			if file.Name != nil {
				names = append(names, *file.Name)
			}
		}
	}

	return names, nil
}
