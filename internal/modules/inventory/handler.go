package inventory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Handler exposes inventory HTTP endpoints.
type Handler struct{ ledger *Ledger }

func NewHandler(ledger *Ledger) *Handler { return &Handler{ledger: ledger} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Post("/availability", h.checkAvailability) // POST /api/v1/inventory/availability
	})
}

func (h *Handler) checkAvailability(w http.ResponseWriter, r *http.Request) {
	var req AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if len(req.Items) == 0 {
		respond(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}

	lines := make([]Line, 0, len(req.Items))
	for _, it := range req.Items {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": "invalid product_id: " + it.ProductID})
			return
		}
		var vid uuid.UUID
		if it.VariantID != "" {
			if vid, err = uuid.Parse(it.VariantID); err != nil {
				respond(w, http.StatusBadRequest, map[string]string{"error": "invalid variant_id: " + it.VariantID})
				return
			}
		}
		if it.Quantity <= 0 {
			respond(w, http.StatusBadRequest, map[string]string{"error": "quantity must be > 0"})
			return
		}
		lines = append(lines, Line{ProductID: pid, VariantID: vid, Quantity: it.Quantity})
	}

	err := h.ledger.CheckAvailability(r.Context(), lines, nil)
	var short *InsufficientStockError
	switch {
	case err == nil:
		respond(w, http.StatusOK, map[string]interface{}{"available": true})
	case errors.As(err, &short):
		respond(w, http.StatusConflict, map[string]interface{}{
			"available": false,
			"item":      short.Item,
			"requested": short.Requested,
			"in_stock":  short.Available,
		})
	default:
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
