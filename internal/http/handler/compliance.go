package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"fixbet/internal/auth"
	"fixbet/internal/clock"
	"fixbet/internal/compliance"
)

type ComplianceHandler struct {
	DB        *gorm.DB
	Evaluator compliance.Evaluator
	Clock     clock.Clock
}

type upsertDocumentReq struct {
	Type           string    `json:"type" validate:"required,oneof=business_license labor_standards_certificate union_certificate tax_compliance_certificate liability_insurance"`
	DocumentNumber string    `json:"document_number" validate:"required"`
	ExpiresAt      time.Time `json:"expires_at" validate:"required"`
}

// UpsertDocument records a new or renewed credential for the calling
// plumber. A renewal with a future expiry supersedes the expired
// document and restores compliance on the next check.
func (h *ComplianceHandler) UpsertDocument(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req upsertDocumentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	now := h.Clock.Now()
	doc := compliance.Document{
		PlumberID:      uid,
		Type:           req.Type,
		DocumentNumber: req.DocumentNumber,
		Status:         compliance.DocValid,
		ExpiresAt:      req.ExpiresAt,
		LastVerifiedAt: &now,
	}

	var existing compliance.Document
	err := h.DB.Where("plumber_id = ? AND type = ?", uid, req.Type).First(&existing).Error
	switch {
	case err == nil:
		doc.ID = existing.ID
		doc.CreatedAt = existing.CreatedAt
		doc.UpdatedAt = now
		err = h.DB.Save(&doc).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = h.DB.Create(&doc).Error
	}
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(&doc)
}

type documentStatusDTO struct {
	compliance.Document
	State string `json:"state"`
}

// Status reports per-document states and the aggregate for a plumber.
func (h *ComplianceHandler) Status(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	role, _ := auth.RoleFromContext(r.Context())

	plumberID := uid
	if raw := chi.URLParam(r, "id"); raw != "" {
		if role != auth.RoleAdmin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		plumberID = id
	}

	var docs []compliance.Document
	if err := h.DB.Where("plumber_id = ?", plumberID).Find(&docs).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	now := h.Clock.Now()
	out := make([]documentStatusDTO, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentStatusDTO{
			Document: d,
			State:    h.Evaluator.DocumentState(d, now),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"plumber_id": plumberID,
		"aggregate":  h.Evaluator.Aggregate(docs, now),
		"documents":  out,
	})
}
