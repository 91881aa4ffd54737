package cart

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abcretail/storefront/internal/domain"
	"github.com/abcretail/storefront/internal/identity"
	"github.com/abcretail/storefront/internal/store"
)

func setup(t *testing.T) (*http.ServeMux, *domain.Product) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewMemory()
	product := &domain.Product{Name: "Mug", Price: decimal.RequireFromString("19.99")}
	require.NoError(t, st.CreateProduct(context.Background(), product))

	h := NewHandler(NewService(st, logger), logger)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart", h.HandleGet)
	mux.HandleFunc("POST /cart/items", h.HandleAdd)
	mux.HandleFunc("PATCH /cart/items/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE /cart/items/{id}", h.HandleRemove)
	return mux, product
}

func do(t *testing.T, mux *http.ServeMux, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set(identity.UserIDHeader, user)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandler_CartLifecycle(t *testing.T) {
	mux, product := setup(t)

	rec := do(t, mux, http.MethodPost, "/cart/items", "user-1", `{"product_id":"`+product.ID+`","quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, mux, http.MethodPost, "/cart/items", "user-1", `{"product_id":"`+product.ID+`","quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var item domain.CartItem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&item))
	assert.Equal(t, 2, item.Quantity)

	rec = do(t, mux, http.MethodGet, "/cart", "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view View
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	require.Len(t, view.Items, 1)
	assert.Equal(t, "39.98", view.Total.StringFixed(2))

	rec = do(t, mux, http.MethodPatch, "/cart/items/"+item.ID, "user-1", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&item))
	assert.Equal(t, 1, item.Quantity)

	rec = do(t, mux, http.MethodDelete, "/cart/items/"+item.ID, "user-2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, mux, http.MethodDelete, "/cart/items/"+item.ID, "user-1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, mux, http.MethodGet, "/cart", "user-1", "")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Empty(t, view.Items)
	assert.True(t, view.Total.IsZero())
}

func TestHandler_Errors(t *testing.T) {
	mux, _ := setup(t)

	tests := []struct {
		name       string
		method     string
		path       string
		user       string
		body       string
		wantStatus int
	}{
		{name: "anonymous cart", method: http.MethodGet, path: "/cart", wantStatus: http.StatusUnauthorized},
		{name: "anonymous add", method: http.MethodPost, path: "/cart/items", body: `{}`, wantStatus: http.StatusUnauthorized},
		{name: "bad body", method: http.MethodPost, path: "/cart/items", user: "u", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "missing product id", method: http.MethodPost, path: "/cart/items", user: "u", body: `{"quantity":1}`, wantStatus: http.StatusBadRequest},
		{name: "unknown product", method: http.MethodPost, path: "/cart/items", user: "u", body: `{"product_id":"nope","quantity":1}`, wantStatus: http.StatusNotFound},
		{name: "update unknown item", method: http.MethodPatch, path: "/cart/items/nope", user: "u", body: `{"quantity":2}`, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}
