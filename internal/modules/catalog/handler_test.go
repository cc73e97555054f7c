package catalog

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ProductAndRestock(t *testing.T) {
	repo := NewMemoryRepository()
	live, hidden, retired := uuid.New(), uuid.New(), uuid.New()
	repo.Put(&Product{ID: live, Name: "Saree", PricePaise: 250000, IsActive: true, HasVariants: true,
		Variants: []*Variant{
			{ID: uuid.New(), Name: "Red", IsActive: true, StockQuantity: 1},
			{ID: hidden, Name: "Blue", IsActive: false},
		}})
	repo.Put(&Product{ID: retired, Name: "Dupatta", StockQuantity: 4})

	h := NewHandler(NewService(repo))
	router := chi.NewRouter()
	h.RegisterRoutes(router)
	h.RegisterAdminRoutes(router)

	get := func(id string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/"+id, nil))
		return rec
	}

	rec := get(live.String())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Red")
	assert.NotContains(t, rec.Body.String(), hidden.String())

	assert.Equal(t, http.StatusNotFound, get(retired.String()).Code)
	assert.Equal(t, http.StatusNotFound, get(uuid.NewString()).Code)
	assert.Equal(t, http.StatusBadRequest, get("nope").Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/products/"+retired.String()+"/restock", strings.NewReader(`{"quantity":6}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"stock_quantity":10}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/products/"+retired.String()+"/restock", strings.NewReader(`{"quantity":0}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/products/"+live.String()+"/restock", strings.NewReader(`{"variant_id":"`+uuid.NewString()+`","quantity":1}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
