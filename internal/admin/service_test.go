package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abcretail/storefront/internal/domain"
	"github.com/abcretail/storefront/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLive(t *testing.T) (*storage.Live, *storage.MemoryBackends) {
	t.Helper()

	mem := storage.NewMemoryBackends()
	live, err := storage.NewLive("memory", mem.Backends(), discardLogger())
	require.NoError(t, err)
	return live, mem
}

func TestService_Customers(t *testing.T) {
	ctx := context.Background()

	t.Run("lists records", func(t *testing.T) {
		live, _ := newLive(t)
		require.NoError(t, live.SaveRecord(ctx, storage.CustomersTable, domain.NewCustomerRecord("u1", "a@example.com", "A")))
		require.NoError(t, live.SaveRecord(ctx, storage.CustomersTable, domain.NewCustomerRecord("u2", "b@example.com", "B")))

		got := NewService(live, discardLogger()).Customers(ctx)
		assert.False(t, got.Unavailable)
		assert.Len(t, got.Items, 2)
	})

	t.Run("no-op storage is unavailable", func(t *testing.T) {
		got := NewService(storage.NewNoop(discardLogger()), discardLogger()).Customers(ctx)
		assert.True(t, got.Unavailable)
		assert.Empty(t, got.Items)
	})

	t.Run("read failure is unavailable", func(t *testing.T) {
		live, mem := newLive(t)
		require.NoError(t, live.EnsureTable(ctx, storage.CustomersTable))
		mem.FailOn(storage.OpListEntities, storage.Unavailable(errors.New("timeout")))

		got := NewService(live, discardLogger()).Customers(ctx)
		assert.True(t, got.Unavailable)
		assert.NotNil(t, got.Items)
	})
}

func TestService_Contracts(t *testing.T) {
	ctx := context.Background()
	live, _ := newLive(t)

	require.NoError(t, live.UploadFile(ctx, storage.ContractsShare, storage.ContractsDirectory, "b.pdf", []byte("b")))
	require.NoError(t, live.UploadFile(ctx, storage.ContractsShare, storage.ContractsDirectory, "a.pdf", []byte("a")))

	got := NewService(live, discardLogger()).Contracts(ctx)
	assert.False(t, got.Unavailable)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, got.Items)

	got = NewService(storage.NewNoop(discardLogger()), discardLogger()).Contracts(ctx)
	assert.True(t, got.Unavailable)
	assert.Empty(t, got.Items)
}

func TestService_QueueDepths(t *testing.T) {
	ctx := context.Background()

	t.Run("reports depths", func(t *testing.T) {
		live, _ := newLive(t)
		require.NoError(t, live.EnqueueMessage(ctx, storage.OrderQueue, "one"))
		require.NoError(t, live.EnqueueMessage(ctx, storage.OrderQueue, "two"))
		require.NoError(t, live.EnsureQueue(ctx, storage.ProcessingQueue))

		got := NewService(live, discardLogger()).QueueDepths(ctx)
		assert.False(t, got.Unavailable)
		assert.Equal(t, map[string]int{storage.OrderQueue: 2, storage.ProcessingQueue: 0}, got.Depths)
	})

	t.Run("failed read reports zero", func(t *testing.T) {
		live, mem := newLive(t)
		require.NoError(t, live.EnqueueMessage(ctx, storage.OrderQueue, "one"))
		mem.FailOn(storage.OpQueueDepth, storage.Unavailable(errors.New("timeout")))

		got := NewService(live, discardLogger()).QueueDepths(ctx)
		assert.False(t, got.Unavailable)
		assert.Equal(t, 0, got.Depths[storage.OrderQueue])
		assert.Equal(t, 0, got.Depths[storage.ProcessingQueue])
	})

	t.Run("no-op storage is unavailable", func(t *testing.T) {
		got := NewService(storage.NewNoop(discardLogger()), discardLogger()).QueueDepths(ctx)
		assert.True(t, got.Unavailable)
		assert.Empty(t, got.Depths)
	})
}

func TestHandler(t *testing.T) {
	h := NewHandler(NewService(storage.NewNoop(discardLogger()), discardLogger()), discardLogger())

	for _, path := range []string{"/admin/customers", "/admin/contracts", "/admin/queues"} {
		t.Run(path, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /admin/customers", h.HandleCustomers)
			mux.HandleFunc("GET /admin/contracts", h.HandleContracts)
			mux.HandleFunc("GET /admin/queues", h.HandleQueues)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var body map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, true, body["unavailable"])
		})
	}
}
