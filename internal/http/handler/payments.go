package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fixbet/internal/auth"
	"fixbet/internal/clock"
	"fixbet/internal/payment"
)

type PaymentHandler struct {
	Svc   *payment.Service
	Clock clock.Clock
}

func splitID(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func canViewSplit(r *http.Request, ps *payment.PaymentSplit) bool {
	uid, _ := auth.UserIDFromContext(r.Context())
	role, _ := auth.RoleFromContext(r.Context())
	return role == auth.RoleAdmin || ps.ClientID == uid || ps.PlumberID == uid
}

// GetSplit returns the split materialized for a job.
func (h *PaymentHandler) GetSplit(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	ps, err := h.Svc.GetByJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if !canViewSplit(r, ps) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ps)
}

// ReleaseCheck runs the release gate against the stored snapshot
// without mutating anything. Both the plumber and the client get the
// full list of blockers.
func (h *PaymentHandler) ReleaseCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := splitID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	ps, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if !canViewSplit(r, ps) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payment.CheckRelease(ps, h.Clock.Now()))
}

// Release re-evaluates a split on demand, refreshing the compliance
// snapshot and releasing the held portion when eligible. Admin only.
func (h *PaymentHandler) Release(w http.ResponseWriter, r *http.Request) {
	id, ok := splitID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	decision, ps, err := h.Svc.Reevaluate(r.Context(), id)
	if err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"decision": decision,
		"split":    ps,
	})
}
