package inventory

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestHandler_CheckAvailability(t *testing.T) {
	repo, ids := seed(t, 2)
	router := chi.NewRouter()
	NewHandler(NewLedger(repo, time.Minute, nil)).RegisterRoutes(router)

	body := `{"items":[{"product_id":"` + ids[0].String() + `","quantity":2}]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/inventory/availability", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code)

	body = `{"items":[{"product_id":"` + ids[0].String() + `","quantity":3}]}`
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/inventory/availability", strings.NewReader(body)))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":false`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/inventory/availability", strings.NewReader(`{"items":[{"product_id":"nope","quantity":1}]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
