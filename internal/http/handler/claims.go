package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fixbet/internal/auth"
	"fixbet/internal/claim"
	"fixbet/internal/metrics"
	"fixbet/internal/payment"
	"fixbet/internal/tasks"
)

type ClaimHandler struct {
	Svc   *claim.Service
	Tasks *tasks.Repo
}

type submitClaimReq struct {
	InvoiceID   string   `json:"invoice_id" validate:"required"`
	Type        string   `json:"type" validate:"required,oneof=warranty damage dissatisfaction"`
	Priority    string   `json:"priority" validate:"required,oneof=urgent important aesthetic"`
	Description string   `json:"description" validate:"required"`
	Photos      []string `json:"photos" validate:"required,min=1"`
}

// Submit opens a claim. The referenced split is frozen in the same
// transaction, and an escalation check is scheduled at the response
// deadline.
func (h *ClaimHandler) Submit(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req submitClaimReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	c, err := h.Svc.Submit(r.Context(), claim.SubmitInput{
		InvoiceID:   req.InvoiceID,
		ClientID:    uid,
		Type:        req.Type,
		Priority:    req.Priority,
		Description: req.Description,
		Photos:      req.Photos,
	})
	if err != nil {
		switch {
		case errors.Is(err, claim.ErrNoPhotos):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, payment.ErrNotFound):
			http.Error(w, "invoice not found", http.StatusNotFound)
		default:
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}

	if err := h.Tasks.EnqueueClaimEscalation(c.ID, c.RespondBy); err != nil {
		http.Error(w, "failed to schedule escalation check", http.StatusInternalServerError)
		return
	}
	metrics.ClaimsSubmittedTotal.Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(c)
}

func (h *ClaimHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, claim.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	uid, _ := auth.UserIDFromContext(r.Context())
	role, _ := auth.RoleFromContext(r.Context())
	if role != auth.RoleAdmin && c.ClientID != uid && c.PlumberID != uid {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c)
}

type respondClaimReq struct {
	Accept bool `json:"accept"`
}

// Respond records the plumber's accept or dispute before the deadline.
func (h *ClaimHandler) Respond(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req respondClaimReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	c, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, claim.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if c.PlumberID != uid {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	c, err = h.Svc.Respond(r.Context(), id, req.Accept)
	if err != nil {
		if errors.Is(err, claim.ErrBadTransition) {
			http.Error(w, "claim already answered or closed", http.StatusConflict)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c)
}

type resolveClaimReq struct {
	Resolution string `json:"resolution" validate:"required"`
}

// Resolve closes out a claim after correction or arbitration. Admin
// only; clearing the split's hold happens inside the claim service.
func (h *ClaimHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveClaimReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	c, err := h.Svc.Resolve(r.Context(), chi.URLParam(r, "id"), req.Resolution)
	if err != nil {
		switch {
		case errors.Is(err, claim.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, claim.ErrBadTransition):
			http.Error(w, "claim must be answered or escalated first", http.StatusConflict)
		default:
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(c)
}
