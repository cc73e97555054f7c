package billing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/georgemunganga/storefront-backend/internal/modules/auth"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Handler exposes invoice HTTP endpoints.
type Handler struct{ invoices Service }

func NewHandler(invoices Service) *Handler { return &Handler{invoices: invoices} }

// RegisterRoutes mounts buyer routes. Mount behind auth.Middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/invoices", func(r chi.Router) {
		r.Get("/my", h.listMine)                // GET /api/v1/invoices/my
		r.Get("/order/{orderId}", h.getByOrder) // GET /api/v1/invoices/order/{orderId}
	})
}

// RegisterAdminRoutes mounts back-office routes. Mount behind auth.RequireAdmin.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/api/v1/admin/invoices", func(r chi.Router) {
		r.Get("/", h.list)                              // GET /api/v1/admin/invoices?status=&user_id=&from=&to=&limit=&offset=
		r.Get("/{id}", h.get)                           // GET /api/v1/admin/invoices/{id}
		r.Post("/{id}/regenerate-pdf", h.regenerateDoc) // POST /api/v1/admin/invoices/{id}/regenerate-pdf
	})
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	invs, err := h.invoices.ListByUser(r.Context(), actor.UserID)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, invs)
}

func (h *Handler) getByOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}
	inv, err := h.invoices.GetByOrder(r.Context(), orderID, actor)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, inv)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	invs, err := h.invoices.List(r.Context(), f)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, invs)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid invoice id"})
		return
	}
	inv, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, inv)
}

func (h *Handler) regenerateDoc(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid invoice id"})
		return
	}
	inv, err := h.invoices.RegenerateDocument(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, inv)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func parseFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	f := ListFilter{Status: InvoiceStatus(q.Get("status"))}
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
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errors.New("invalid limit")
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errors.New("invalid offset")
		}
		f.Offset = n
	}
	return f, nil
}

func respondErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, ErrPreconditionFailed):
		code = http.StatusUnprocessableEntity
	}
	respond(w, code, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
