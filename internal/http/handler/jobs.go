package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fixbet/internal/auth"
	"fixbet/internal/clock"
	"fixbet/internal/job"
	"fixbet/internal/payment"
	"fixbet/internal/tasks"
)

type JobHandler struct {
	Svc      *job.Service
	Payments *payment.Service
	Tasks    *tasks.Repo
	DB       *gorm.DB
	Clock    clock.Clock
}

func jobID(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// writeCheck reports a failed rule or validation check: every error
// and warning, so the caller sees the full picture at once.
func writeCheck(w http.ResponseWriter, res job.CheckResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(res)
}

func writeTransitionErr(w http.ResponseWriter, err error) {
	var ite *job.InvalidTransitionError
	switch {
	case errors.Is(err, job.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.As(err, &ite):
		http.Error(w, ite.Error(), http.StatusConflict)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

type createJobReq struct {
	Description string `json:"description" validate:"required"`
	Address     string `json:"address" validate:"required"`
	Urgency     string `json:"urgency" validate:"required,oneof=urgent normal"`
}

func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createJobReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	j := job.Job{
		ClientID:    uid,
		Description: req.Description,
		Address:     req.Address,
		Urgency:     req.Urgency,
		Status:      job.StatusPendingReview,
	}
	if err := h.DB.Create(&j).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(&j)
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	j, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeTransitionErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(j)
}

// Timeline returns the append-only transition history, oldest first.
func (h *JobHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if _, err := h.Svc.Get(r.Context(), id); err != nil {
		writeTransitionErr(w, err)
		return
	}
	recs, err := h.Svc.History(r.Context(), id)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(recs)
}

// Validate runs the structural per-state check against the stored job.
func (h *JobHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	j, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeTransitionErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(job.ValidateState(j, h.Clock))
}

type openBiddingReq struct {
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required"`
}

func (h *JobHandler) OpenBidding(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := jobID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req openBiddingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	j, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeTransitionErr(w, err)
		return
	}
	if j.ClientID != uid {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	res := job.EnforceBusinessRules(j, job.ActionStartBidding, job.ActionParams{
		BiddingStartsAt: &req.StartsAt,
		BiddingEndsAt:   &req.EndsAt,
	}, h.Clock)
	if !res.Valid {
		writeCheck(w, res)
		return
	}

	updated, err := h.Svc.Apply(r.Context(), job.ApplyInput{
		JobID:   id,
		ActorID: uid,
		To:      job.StatusInBet,
		Metadata: map[string]any{
			"bidding_starts_at": req.StartsAt.Format(time.RFC3339),
			"bidding_ends_at":   req.EndsAt.Format(time.RFC3339),
		},
		Patch: func(j *job.Job) {
			j.BiddingStartsAt = &req.StartsAt
			j.BiddingEndsAt = &req.EndsAt
		},
	})
	if err != nil {
		writeTransitionErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(updated)
}

type submitBidReq struct {
	Amount     decimal.Decimal `json:"amount" validate:"required"`
	DistanceKM *float64        `json:"distance_km"`
}

func (h *JobHandler) SubmitBid(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := jobID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req submitBidReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}

	j, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeTransitionErr(w, err)
		return
	}
	if j.Status != job.StatusInBet {
		http.Error(w, "job is not accepting bids", http.StatusConflict)
		return
	}

	res := job.EnforceBusinessRules(j, job.ActionSubmitBid, job.ActionParams{
		DistanceKM: req.DistanceKM,
	}, h.Clock)
	if !res.Valid {
		writeCheck(w, res)
		return
	}

	b := job.Bid{
		JobID:      id,
		PlumberID:  uid,
		Amount:     req.Amount,
		DistanceKM: req.DistanceKM,
	}
	if err := h.DB.Create(&b).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(&b)
}

type assignReq struct {
	BidID uint64 `json:"bid_id" validate:"required"`
}

func (h *JobHandler) Assign(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := jobID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req assignReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	j, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeTransitionErr(w, err)
		return
	}
	if j.ClientID != uid {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var b job.Bid
	if err := h.DB.Where("id = ? AND job_id = ?", req.BidID, id).First(&b).Error; err != nil {
		http.Error(w, "bid not found", http.StatusNotFound)
		return
	}

	updated, err := h.Svc.Apply(r.Context(), job.ApplyInput{
		JobID:   id,
		ActorID: uid,
		To:      job.StatusAssigned,
		Metadata: map[string]any{
			"bid_id":      b.ID,
			"plumber_id":  b.PlumberID,
			"winning_bid": b.Amount.String(),
		},
		Patch: func(j *job.Job) {
			j.PlumberID = &b.PlumberID
			j.WinnerBidID = &b.ID
			j.WinningBid = &b.Amount
			// The winning bid doubles as the system-suggested invoice
			// amount at completion.
			j.SuggestedAmount = &b.Amount
		},
	})
	if err != nil {
		writeTransitionErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(updated)
}

type enRouteReq struct {
	ETA *time.Time `json:"eta"`
}

func (h *JobHandler) EnRoute(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := jobID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req enRouteReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	j, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeTransitionErr(w, err)
		return
	}
	if j.PlumberID == nil || *j.PlumberID != uid {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	updated, err := h.Svc.Apply(r.Context(), job.ApplyInput{
		JobID:   id,
		ActorID: uid,
		To:      job.StatusEnRoute,
		Patch: func(j *job.Job) {
			j.ETA = req.ETA
		},
	})
	if err != nil {
		writeTransitionErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(updated)
}

type startWorkReq struct {
	DistanceMeters *float64 `json:"distance_meters" validate:"required"`
	DwellMet       bool     `json:"dwell_met"`
	TimerRef       *string  `json:"timer_ref"`
}

func (h *JobHandler) StartWork(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := jobID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req startWorkReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	j, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeTransitionErr(w, err)
		return
	}
	if j.PlumberID == nil || *j.PlumberID != uid {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	res := job.EnforceBusinessRules(j, job.ActionStartWork, job.ActionParams{
		DistanceMeters: req.DistanceMeters,
		DwellMet:       req.DwellMet,
	}, h.Clock)
	if !res.Valid {
		writeCheck(w, res)
		return
	}

	updated, err := h.Svc.Apply(r.Context(), job.ApplyInput{
		JobID:   id,
		ActorID: uid,
		To:      job.StatusInProgress,
		Patch: func(j *job.Job) {
			j.TimerRef = req.TimerRef
		},
	})
	if err != nil {
		writeTransitionErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"job":      updated,
		"warnings": res.Warnings,
	})
}

type completeWorkReq struct {
	InvoiceAmount   decimal.Decimal `json:"invoice_amount"`
	WorkDescription string          `json:"work_description" validate:"required"`
	Photos          []string        `json:"photos" validate:"required,min=2"`
}

// CompleteWork is the pivot of the whole lifecycle: it commits the
// in_progress -> completed transition with the evidence attached and
// materializes the 75/25 payment split in the same request.
func (h *JobHandler) CompleteWork(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := jobID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req completeWorkReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	if req.InvoiceAmount.LessThanOrEqual(decimal.Zero) {
		http.Error(w, "invalid invoice amount", http.StatusBadRequest)
		return
	}

	j, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeTransitionErr(w, err)
		return
	}
	if j.PlumberID == nil || *j.PlumberID != uid {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	res := job.EnforceBusinessRules(j, job.ActionCompleteWork, job.ActionParams{
		InvoiceAmount:   &req.InvoiceAmount,
		SuggestedAmount: j.SuggestedAmount,
		FinalPhotos:     len(req.Photos),
		WorkDescription: req.WorkDescription,
	}, h.Clock)
	if !res.Valid {
		writeCheck(w, res)
		return
	}

	invoiceID := uuid.NewString()
	updated, err := h.Svc.Apply(r.Context(), job.ApplyInput{
		JobID:   id,
		ActorID: uid,
		To:      job.StatusCompleted,
		Metadata: map[string]any{
			"invoice_id":     invoiceID,
			"invoice_amount": req.InvoiceAmount.String(),
		},
		Patch: func(j *job.Job) {
			j.InvoiceID = &invoiceID
			j.InvoiceAmount = &req.InvoiceAmount
			j.FinalPhotos = req.Photos
			j.WorkDescription = req.WorkDescription
		},
	})
	if err != nil {
		writeTransitionErr(w, err)
		return
	}

	ps, err := h.Payments.Materialize(r.Context(), payment.MaterializeInput{
		JobID:       updated.ID,
		InvoiceID:   invoiceID,
		PlumberID:   *updated.PlumberID,
		ClientID:    updated.ClientID,
		TotalAmount: req.InvoiceAmount,
		CompletedAt: *updated.CompletedAt,
	})
	if err != nil {
		http.Error(w, "failed to materialize payment split", http.StatusInternalServerError)
		return
	}

	if err := h.Tasks.EnqueueReleaseCheck(ps.ID, ps.HeldReleaseAt); err != nil {
		http.Error(w, "failed to schedule release check", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"job":   updated,
		"split": ps,
	})
}

type payReq struct {
	PaymentID     string `json:"payment_id" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required"`
}

func (h *JobHandler) Pay(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := jobID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req payReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	j, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeTransitionErr(w, err)
		return
	}
	if j.ClientID != uid {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	res := job.EnforceBusinessRules(j, job.ActionProcessPayment, job.ActionParams{
		PaymentMethod: req.PaymentMethod,
	}, h.Clock)
	if !res.Valid {
		writeCheck(w, res)
		return
	}

	updated, err := h.Svc.Apply(r.Context(), job.ApplyInput{
		JobID:   id,
		ActorID: uid,
		To:      job.StatusPaid,
		Metadata: map[string]any{
			"payment_id":     req.PaymentID,
			"payment_method": req.PaymentMethod,
		},
		Patch: func(j *job.Job) {
			j.PaymentID = &req.PaymentID
		},
	})
	if err != nil {
		writeTransitionErr(w, err)
		return
	}

	if err := h.Payments.SettleImmediate(r.Context(), id); err != nil && !errors.Is(err, payment.ErrNotFound) {
		http.Error(w, "failed to settle immediate portion", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"job":      updated,
		"warnings": res.Warnings,
	})
}

type closeReq struct {
	Rating *int `json:"rating"`
}

func (h *JobHandler) Close(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := jobID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req closeReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		http.Error(w, "rating must be 1-5", http.StatusBadRequest)
		return
	}

	j, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeTransitionErr(w, err)
		return
	}
	if j.ClientID != uid {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	updated, err := h.Svc.Apply(r.Context(), job.ApplyInput{
		JobID:   id,
		ActorID: uid,
		To:      job.StatusClosed,
		Patch: func(j *job.Job) {
			j.Rating = req.Rating
		},
	})
	if err != nil {
		writeTransitionErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(updated)
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *JobHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := jobID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req cancelReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	j, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeTransitionErr(w, err)
		return
	}
	role, _ := auth.RoleFromContext(r.Context())
	owner := j.ClientID == uid || (j.PlumberID != nil && *j.PlumberID == uid)
	if !owner && role != auth.RoleAdmin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	updated, err := h.Svc.Apply(r.Context(), job.ApplyInput{
		JobID:    id,
		ActorID:  uid,
		To:       job.StatusCancelled,
		Metadata: map[string]any{"reason": req.Reason},
	})
	if err != nil {
		writeTransitionErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(updated)
}
