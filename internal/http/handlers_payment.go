package http

import (
	"net/http"
	"sync/atomic"

	"portalunk/internal/core"
	applog "portalunk/internal/log"
)

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.deps.Payments.List(r.Context())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	if payments == nil {
		payments = []core.PaymentRecord{}
	}
	writeJSON(w, http.StatusOK, payments)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := s.deps.Payments.Get(r.Context(), pathID(r))
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	payload, err := DecodePayload(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	payment, err := s.deps.Payments.Create(r.Context(), payload)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	atomic.AddInt64(&s.metrics.paymentsRecorded, 1)
	writeJSON(w, http.StatusCreated, payment)
}

// handleMarkPaid settles a payment. Repeating it keeps the first paid_at.
func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	payment, err := s.deps.Payments.MarkPaid(r.Context(), pathID(r))
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	atomic.AddInt64(&s.metrics.paymentsPaid, 1)
	writeJSON(w, http.StatusOK, payment)
}
