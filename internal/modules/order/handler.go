package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/georgemunganga/storefront-backend/internal/modules/auth"
	"github.com/georgemunganga/storefront-backend/internal/modules/inventory"
	"github.com/georgemunganga/storefront-backend/internal/modules/payment"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Handler exposes order HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts buyer routes. Mount behind auth.Middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)                          // POST /api/v1/orders
		r.Get("/my", h.listMine)                            // GET  /api/v1/orders/my
		r.Get("/{id}", h.getOrder)                          // GET  /api/v1/orders/{id}
		r.Post("/{id}/initiate-payment", h.initiatePayment) // POST /api/v1/orders/{id}/initiate-payment
		r.Post("/{id}/verify-payment", h.verifyPayment)     // POST /api/v1/orders/{id}/verify-payment
		r.Post("/{id}/payment-failed", h.paymentFailed)     // POST /api/v1/orders/{id}/payment-failed
		r.Post("/{id}/cancel", h.cancelOrder)               // POST /api/v1/orders/{id}/cancel
	})
}

// RegisterAdminRoutes mounts back-office routes. Mount behind auth.RequireAdmin.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/api/v1/admin/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)                      // GET  /api/v1/admin/orders?status=PAID&user_id=&from=&to=&limit=&offset=
		r.Get("/{id}", h.getOrder)                    // GET  /api/v1/admin/orders/{id}
		r.Post("/{id}/confirm", h.confirmOrder)       // POST /api/v1/admin/orders/{id}/confirm
		r.Post("/{id}/cod-collected", h.codCollected) // POST /api/v1/admin/orders/{id}/cod-collected
		r.Put("/{id}/status", h.updateStatus)         // PUT  /api/v1/admin/orders/{id}/status
		r.Post("/{id}/cancel", h.cancelOrder)         // POST /api/v1/admin/orders/{id}/cancel
	})
}

// ── Buyer ─────────────────────────────────────────────────────────────────────

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	res, err := h.service.CreateOrder(r.Context(), actor.UserID, req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusCreated, res)
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	orders, err := h.service.ListMyOrders(r.Context(), actor.UserID)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	o, err := h.service.GetOrder(r.Context(), id, actor)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) initiatePayment(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	res, err := h.service.InitiatePayment(r.Context(), id, actor.UserID)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, res)
}

func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var proof PaymentProof
	if err := json.NewDecoder(r.Body).Decode(&proof); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	res, err := h.service.VerifyPayment(r.Context(), id, actor.UserID, proof)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, res)
}

func (h *Handler) paymentFailed(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	o, err := h.service.HandlePaymentFailure(r.Context(), id, actor.UserID, body.Reason)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	res, err := h.service.CancelOrder(r.Context(), id, actor, body.Reason)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, res)
}

// ── Admin ─────────────────────────────────────────────────────────────────────

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	orders, err := h.service.ListOrders(r.Context(), f)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var body struct {
		Note string `json:"note"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	o, err := h.service.ConfirmOrder(r.Context(), id, actor, body.Note)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) codCollected(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	o, err := h.service.MarkCODCollected(r.Context(), id, actor)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var upd StatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	o, err := h.service.UpdateStatus(r.Context(), id, actor, upd)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func requireActor(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
	}
	return actor, ok
}

func actorAndID(w http.ResponseWriter, r *http.Request) (auth.Actor, uuid.UUID, bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return actor, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return actor, uuid.Nil, false
	}
	return actor, id, true
}

func parseFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	f := ListFilter{Status: Status(q.Get("status"))}
	if f.Status != "" {
		if _, known := validTransitions[f.Status]; !known {
			return f, errors.New("unknown status " + string(f.Status))
		}
	}
	if v := q.Get("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, errors.New("invalid user_id")
		}
		f.UserID = &id
	}
	for key, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		if v := q.Get(key); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				return f, errors.New("invalid " + key + " date, want YYYY-MM-DD")
			}
			*dst = &t
		}
	}
	for key, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return f, errors.New("invalid " + key)
			}
			*dst = n
		}
	}
	return f, nil
}

func respondErr(w http.ResponseWriter, err error) {
	var stockErr *inventory.InsufficientStockError
	if errors.As(err, &stockErr) {
		respond(w, http.StatusConflict, map[string]interface{}{
			"error":     err.Error(),
			"item":      stockErr.Item,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
		return
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrPaymentNotVerified):
		code = http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrReservationExpired),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrProductUnavailable),
		errors.Is(err, ErrVariantUnavailable):
		code = http.StatusConflict
	case errors.Is(err, payment.ErrGateway), errors.Is(err, payment.ErrCircuitOpen), errors.Is(err, payment.ErrNotConfigured):
		code = http.StatusBadGateway
	}
	respond(w, code, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
