package main

import (
	"encoding/json"
	"net/http"

	"github.com/abcretail/storefront/internal/admin"
	"github.com/abcretail/storefront/internal/cart"
	"github.com/abcretail/storefront/internal/catalog"
	"github.com/abcretail/storefront/internal/customers"
	"github.com/abcretail/storefront/internal/orders"
	"github.com/abcretail/storefront/internal/telemetry"
)

type handlers struct {
	catalog   *catalog.Handler
	cart      *cart.Handler
	orders    *orders.Handler
	customers *customers.Handler
	admin     *admin.Handler
	metrics   http.Handler
	storage   string
}

func newMux(h handlers) *http.ServeMux {
	mux := http.NewServeMux()
	route := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(fn))
	}

	route("GET /products", h.catalog.HandleList)
	route("GET /products/{id}", h.catalog.HandleGet)
	route("POST /products", h.catalog.HandleCreate)

	route("GET /cart", h.cart.HandleGet)
	route("POST /cart/items", h.cart.HandleAdd)
	route("PATCH /cart/items/{id}", h.cart.HandleUpdate)
	route("DELETE /cart/items/{id}", h.cart.HandleRemove)

	route("POST /orders", h.orders.HandlePlace)
	route("GET /orders", h.orders.HandleListMine)
	route("GET /orders/{id}", h.orders.HandleGet)

	route("POST /customers", h.customers.HandleRegister)

	route("GET /admin/orders", h.orders.HandleList)
	route("GET /admin/orders/{id}", h.orders.HandleAdminGet)
	route("PATCH /admin/orders/{id}/status", h.orders.HandleUpdateStatus)
	route("POST /admin/contracts", h.customers.HandleUploadContract)
	route("GET /admin/contracts", h.admin.HandleContracts)
	route("GET /admin/customers", h.admin.HandleCustomers)
	route("GET /admin/queues", h.admin.HandleQueues)

	route("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "storage": h.storage})
	})

	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}

	return mux
}
