// Package catalog manages the products offered by the storefront.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abcretail/storefront/internal/domain"
	"github.com/abcretail/storefront/internal/storage"
	"github.com/abcretail/storefront/internal/store"
)

var ErrInvalidProduct = errors.New("invalid product")

// NewProduct is the input for Create. Image is optional.
type NewProduct struct {
	Name        string
	Description string
	Price       decimal.Decimal

	Image            io.Reader
	ImageFilename    string
	ImageContentType string
}

type Service struct {
	store   store.Store
	storage storage.Facade
	logger  *slog.Logger
}

func NewService(st store.Store, facade storage.Facade, logger *slog.Logger) *Service {
	return &Service{store: st, storage: facade, logger: logger}
}

// Create uploads the product image, if any, then inserts the product and
// mirrors it to the Products table. A failed upload aborts the creation. A
// failed mirror is only logged.
func (s *Service) Create(ctx context.Context, in NewProduct) (*domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if err := domain.ValidatePrice(in.Price); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProduct, err)
	}

	product := &domain.Product{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price.Round(2),
	}

	if in.Image != nil {
		blobName := BlobName(in.ImageFilename)
		url, err := s.storage.UploadBlob(ctx, storage.ProductImagesContainer, blobName, in.Image, in.ImageContentType)
		if err != nil {
			return nil, fmt.Errorf("upload product image: %w", err)
		}
		product.BlobName = blobName
		product.ImageURL = url
	}

	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	if err := s.storage.SaveRecord(ctx, storage.ProductsTable, domain.NewProductRecord(product)); err != nil {
		s.logger.Warn("failed to mirror product record", "error", err, "product_id", product.ID)
	}

	s.logger.Info("product created", "product_id", product.ID, "name", product.Name)
	return product, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.store.ListProducts(ctx)
}

// BlobName derives a unique blob name for an uploaded image, keeping the
// original file extension.
func BlobName(filename string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "product-" + id + filepath.Ext(filename)
}
