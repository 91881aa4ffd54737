package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abcretail/storefront/internal/domain"
	"github.com/abcretail/storefront/internal/storage"
	"github.com/abcretail/storefront/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) (*Service, *store.Memory, *storage.MemoryBackends) {
	t.Helper()

	mem := storage.NewMemoryBackends()
	live, err := storage.NewLive("memory", mem.Backends(), discardLogger())
	require.NoError(t, err)

	st := store.NewMemory()
	return NewService(st, live, discardLogger()), st, mem
}

func TestBlobName(t *testing.T) {
	re := regexp.MustCompile(`^product-[0-9a-f]{32}\.png$`)

	a := BlobName("photo.png")
	b := BlobName("photo.png")

	assert.Regexp(t, re, a)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^product-[0-9a-f]{32}$`, BlobName("noext"))
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("with image", func(t *testing.T) {
		svc, st, mem := newTestService(t)

		product, err := svc.Create(ctx, NewProduct{
			Name:             "Mug",
			Price:            decimal.RequireFromString("12.50"),
			Image:            strings.NewReader("png-bytes"),
			ImageFilename:    "mug.png",
			ImageContentType: "image/png",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, product.BlobName)
		assert.Equal(t, "memory://"+storage.ProductImagesContainer+"/"+product.BlobName, product.ImageURL)

		blob, ok := mem.Blob(storage.ProductImagesContainer, product.BlobName)
		require.True(t, ok)
		assert.Equal(t, "image/png", blob.ContentType)
		assert.Equal(t, "png-bytes", string(blob.Content))

		stored, err := st.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, product.ImageURL, stored.ImageURL)

		assert.Len(t, mem.Records(storage.ProductsTable), 1)
	})

	t.Run("without image", func(t *testing.T) {
		svc, _, mem := newTestService(t)

		product, err := svc.Create(ctx, NewProduct{Name: "Mug", Price: decimal.RequireFromString("1")})
		require.NoError(t, err)
		assert.Empty(t, product.ImageURL)
		assert.Empty(t, product.BlobName)
		assert.NotContains(t, mem.Resources(), "container:"+storage.ProductImagesContainer)
	})

	t.Run("invalid input", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.Create(ctx, NewProduct{Name: " ", Price: decimal.RequireFromString("1")})
		assert.ErrorIs(t, err, ErrInvalidProduct)

		_, err = svc.Create(ctx, NewProduct{Name: "Mug", Price: decimal.Zero})
		assert.ErrorIs(t, err, ErrInvalidProduct)
		assert.ErrorIs(t, err, domain.ErrInvalidPrice)

		_, err = svc.Create(ctx, NewProduct{Name: "Mug", Price: decimal.RequireFromString("1000000")})
		assert.ErrorIs(t, err, domain.ErrInvalidPrice)
	})

	t.Run("upload failure aborts creation", func(t *testing.T) {
		svc, st, mem := newTestService(t)
		mem.FailOn(storage.OpUploadBlob, storage.Rejected(errors.New("too large")))

		_, err := svc.Create(ctx, NewProduct{
			Name:          "Mug",
			Price:         decimal.RequireFromString("2"),
			Image:         strings.NewReader("x"),
			ImageFilename: "mug.jpg",
		})
		require.ErrorIs(t, err, storage.ErrBackendRejected)

		products, err := st.ListProducts(ctx)
		require.NoError(t, err)
		assert.Empty(t, products)
	})

	t.Run("mirror failure is tolerated", func(t *testing.T) {
		svc, st, mem := newTestService(t)
		mem.FailOn(storage.OpUpsertEntity, storage.Unavailable(errors.New("timeout")))

		product, err := svc.Create(ctx, NewProduct{Name: "Mug", Price: decimal.RequireFromString("2")})
		require.NoError(t, err)

		_, err = st.GetProduct(ctx, product.ID)
		assert.NoError(t, err)
	})

	t.Run("no-op storage leaves the image address empty", func(t *testing.T) {
		svc := NewService(store.NewMemory(), storage.NewNoop(discardLogger()), discardLogger())

		product, err := svc.Create(ctx, NewProduct{
			Name:          "Mug",
			Price:         decimal.RequireFromString("2"),
			Image:         strings.NewReader("x"),
			ImageFilename: "mug.jpg",
		})
		require.NoError(t, err)
		assert.Empty(t, product.ImageURL)
		assert.NotEmpty(t, product.BlobName)
	})
}
