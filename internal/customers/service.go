// Package customers keeps the customer directory copy and customer contract
// documents in storage.
package customers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"path"
	"strings"

	"github.com/abcretail/storefront/internal/domain"
	"github.com/abcretail/storefront/internal/storage"
)

var ErrInvalidInput = errors.New("invalid input")

type Service struct {
	storage storage.Facade
	logger  *slog.Logger
}

func NewService(facade storage.Facade, logger *slog.Logger) *Service {
	return &Service{storage: facade, logger: logger}
}

// Register mirrors a newly registered identity into the Customers table.
// Registering the same identity again replaces the previous record.
func (s *Service) Register(ctx context.Context, identityUserID, email, displayName string) (domain.CustomerRecord, error) {
	identityUserID = strings.TrimSpace(identityUserID)
	if identityUserID == "" {
		return domain.CustomerRecord{}, fmt.Errorf("%w: identity user id is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.CustomerRecord{}, fmt.Errorf("%w: email: %w", ErrInvalidInput, err)
	}

	record := domain.NewCustomerRecord(identityUserID, strings.TrimSpace(email), strings.TrimSpace(displayName))
	if err := s.storage.SaveRecord(ctx, storage.CustomersTable, record); err != nil {
		return domain.CustomerRecord{}, fmt.Errorf("save customer record: %w", err)
	}

	s.logger.Info("customer registered", "identity_user_id", identityUserID)
	return record, nil
}

// UploadContract stores a contract document in the contracts share, replacing
// any file with the same name.
func (s *Service) UploadContract(ctx context.Context, filename string, content []byte) (string, error) {
	name := ContractFileName(filename)
	if name == "" {
		return "", fmt.Errorf("%w: contract file name is required", ErrInvalidInput)
	}

	if err := s.storage.UploadFile(ctx, storage.ContractsShare, storage.ContractsDirectory, name, content); err != nil {
		return "", fmt.Errorf("upload contract: %w", err)
	}

	s.logger.Info("contract uploaded", "file", name, "bytes", len(content))
	return name, nil
}

// ContractFileName strips any directory components from a client supplied
// file name. It returns "" when nothing usable is left.
func ContractFileName(filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/"))
	switch name {
	case ".", "..", "/":
		return ""
	}
	return name
}
