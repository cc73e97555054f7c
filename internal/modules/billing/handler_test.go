package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/georgemunganga/storefront-backend/internal/modules/auth"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(router http.Handler, method, target string, actor *auth.Actor) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if actor != nil {
		req = req.WithContext(auth.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandler_BuyerRoutes(t *testing.T) {
	f := newFixture(t)
	snap := f.order("PAID", "Goa", OrderLine{ProductID: f.product, Name: "Kurta", Quantity: 1, UnitPricePaise: 1000})
	_, err := f.gen.Generate(context.Background(), snap.ID)
	require.NoError(t, err)

	router := chi.NewRouter()
	h := NewHandler(f.gen)
	h.RegisterRoutes(router)

	owner := &auth.Actor{UserID: snap.UserID, Role: auth.RoleCustomer}
	rec := serve(router, http.MethodGet, "/api/v1/invoices/my", owner)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)

	rec = serve(router, http.MethodGet, "/api/v1/invoices/order/"+snap.ID.String(), owner)
	assert.Equal(t, http.StatusOK, rec.Code)

	stranger := &auth.Actor{UserID: uuid.New(), Role: auth.RoleCustomer}
	rec = serve(router, http.MethodGet, "/api/v1/invoices/order/"+snap.ID.String(), stranger)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(router, http.MethodGet, "/api/v1/invoices/order/"+uuid.NewString(), owner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_AdminRoutes(t *testing.T) {
	f := newFixture(t)
	snap := f.order("PAID", "Goa", OrderLine{ProductID: f.product, Name: "Kurta", Quantity: 1, UnitPricePaise: 1000})
	inv, err := f.gen.Generate(context.Background(), snap.ID)
	require.NoError(t, err)

	router := chi.NewRouter()
	NewHandler(f.gen).RegisterAdminRoutes(router)

	rec := serve(router, http.MethodGet, "/api/v1/admin/invoices?status=GENERATED&limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 1)

	rec = serve(router, http.MethodGet, "/api/v1/admin/invoices?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, http.MethodGet, "/api/v1/admin/invoices/"+inv.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodPost, "/api/v1/admin/invoices/"+inv.ID.String()+"/regenerate-pdf", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
