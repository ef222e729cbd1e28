package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"rewards/internal/core"
	"rewards/internal/log"
	"rewards/internal/metrics"
)

const maxPurchaseBody = 1 << 16

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ready != nil {
		if err := s.opts.Ready.Ping(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			writeError(w, r, http.StatusServiceUnavailable, "record store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleAllRewards(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.opts.Rewards.GetAllRewards(r.Context())
	if err != nil {
		s.writeRewardsError(w, r, err)
		return
	}
	if len(summaries) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleAccountRewards(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")

	summary, err := s.opts.Rewards.GetRewardsForAccount(r.Context(), accountID)
	if err != nil {
		s.writeRewardsError(w, r, err)
		return
	}
	if summary.IsEmpty() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) writeRewardsError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrInvalidTransaction) {
		writeError(w, r, http.StatusInternalServerError, "purchase history contains an invalid transaction")
		return
	}
	writeError(w, r, http.StatusInternalServerError, "failed to load purchase records")
}

// purchaseRequest is the POST /api/purchases body. Amount accepts either a
// JSON number or a decimal string.
type purchaseRequest struct {
	AccountID string           `json:"accountId"`
	Amount    *decimal.Decimal `json:"amount"`
	Date      string           `json:"date"`
}

func (p purchaseRequest) record() (core.PurchaseRecord, error) {
	if p.Amount == nil {
		return core.PurchaseRecord{}, fmt.Errorf("%w: amount is required", core.ErrInvalidRecord)
	}
	date, err := core.ParseDate(p.Date)
	if err != nil {
		return core.PurchaseRecord{}, fmt.Errorf("%w: %v", core.ErrInvalidRecord, err)
	}
	return core.PurchaseRecord{
		AccountID:  strings.TrimSpace(p.AccountID),
		Amount:     *p.Amount,
		OccurredOn: date,
	}, nil
}

func (s *Server) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPurchaseBody))
	dec.DisallowUnknownFields()

	var req purchaseRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rec, err := req.record()
	if err == nil {
		err = rec.Validate()
	}
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ref, err := s.opts.Ingest.Ingest(ctx, rec)
	if err != nil {
		if core.IsValidationError(err) {
			writeError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.NewStructuredLogger(logger).LogError(ctx, "Failed to ingest purchase", err,
			log.ComponentIngest, log.OpIngest, log.LogFields{log.FieldAccountID: rec.AccountID})
		writeError(w, r, http.StatusInternalServerError, "failed to store purchase")
		return
	}

	logger.InfoContext(ctx, "Purchase recorded",
		log.FieldAccountID, rec.AccountID,
		log.FieldRecordRef, ref,
		"points", core.CalculatePoints(rec.Amount))

	writeJSON(w, http.StatusCreated, map[string]string{"ref": ref})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	metrics.RateLimited.WithLabelValues(r.URL.Path).Inc()
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, clientIP(r),
		log.FieldPath, r.URL.Path)
	writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}
