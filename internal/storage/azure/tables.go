package azure

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

const tableAlreadyExists = "TableAlreadyExists"

type TableStore struct {
	client *aztables.ServiceClient
}

func NewTableStore(client *aztables.ServiceClient) *TableStore {
	return &TableStore{client: client}
}

func (s *TableStore) CreateTable(ctx context.Context, table string) error {
	_, err := s.client.CreateTable(ctx, table, nil)
	if err != nil && !hasErrorCode(err, tableAlreadyExists) {
		return classify(err)
	}
	return nil
}

// UpsertEntity replaces the whole entity. No ETag is sent, so the last writer wins.
func (s *TableStore) UpsertEntity(ctx context.Context, table, _, _ string, entity []byte) error {
	_, err := s.client.NewClient(table).UpsertEntity(ctx, entity, &aztables.UpsertEntityOptions{
		UpdateMode: aztables.UpdateModeReplace,
	})
	return classify(err)
}

func (s *TableStore) ListEntities(ctx context.Context, table string) ([]json.RawMessage, error) {
	pager := s.client.NewClient(table).NewListEntitiesPager(nil)

	var entities []json.RawMessage
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, classify(err)
		}
		for _, entity := range page.Entities {
			entities = append(entities, json.RawMessage(entity))
		}
	}

	return entities, nil
}
