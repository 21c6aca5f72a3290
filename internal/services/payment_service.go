package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portalunk/internal/adapters"
	"portalunk/internal/amqp"
	"portalunk/internal/core"
	"portalunk/internal/finance"
	applog "portalunk/internal/log"
	"portalunk/internal/records"
	"portalunk/internal/store"
)

// PaymentService registers and settles payments. Reads go through
// adapters.PaymentsWithEvents so every payment carries its event.
type PaymentService struct {
	payments *adapters.PaymentsWithEvents
	events   store.EventStore
	notify   notifier
	now      func() time.Time
}

func NewPaymentService(payments store.PaymentStore, events store.EventStore, publisher amqp.Publisher, cache Invalidator) *PaymentService {
	return &PaymentService{
		payments: adapters.NewPaymentsWithEvents(payments, events),
		events:   events,
		notify:   newNotifier(publisher, cache),
		now:      time.Now,
	}
}

func (s *PaymentService) List(ctx context.Context) ([]core.PaymentRecord, error) {
	return s.payments.GetAll(ctx)
}

func (s *PaymentService) Get(ctx context.Context, id string) (core.PaymentRecord, error) {
	return s.payments.GetByID(ctx, id)
}

// Create validates the payload and stores the payment. The event must exist.
func (s *PaymentService) Create(ctx context.Context, payload records.Payload) (core.PaymentRecord, error) {
	p, err := records.BuildPaymentRecord(payload)
	if err != nil {
		return core.PaymentRecord{}, err
	}
	ev, err := s.events.GetByID(ctx, p.EventID)
	if errors.Is(err, store.ErrNotFound) {
		return core.PaymentRecord{}, core.NewValidationError("event_id", "unknown event")
	}
	if err != nil {
		return core.PaymentRecord{}, fmt.Errorf("load event %s: %w", p.EventID, err)
	}

	created, err := s.payments.Create(ctx, p)
	if err != nil {
		return core.PaymentRecord{}, fmt.Errorf("create payment: %w", err)
	}
	created.Event = &ev

	s.logRecorded(ctx, applog.OpCreate, created)
	s.notify.changed(ctx, amqp.PaymentCreated, created.ID)
	return created, nil
}

// MarkPaid sets the status to paid and stamps paid_at with the current time.
// Paying an already paid payment keeps its original paid_at.
func (s *PaymentService) MarkPaid(ctx context.Context, id string) (core.PaymentRecord, error) {
	current, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return core.PaymentRecord{}, fmt.Errorf("load payment %s: %w", id, err)
	}
	if core.IsPaidStatus(current.Status) && current.PaidAt != nil && strings.TrimSpace(*current.PaidAt) != "" {
		return current, nil
	}

	paidAt, _ := core.NormalizeTimestamp(s.now())
	patch := core.PaymentRecord{Status: core.StatusPaid, PaidAt: core.StringPtr(paidAt)}
	if _, err := s.payments.Update(ctx, id, patch); err != nil {
		return core.PaymentRecord{}, fmt.Errorf("mark payment %s paid: %w", id, err)
	}
	updated, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return core.PaymentRecord{}, fmt.Errorf("reload payment %s: %w", id, err)
	}

	s.logRecorded(ctx, applog.OpUpdate, updated)
	s.notify.changed(ctx, amqp.PaymentPaid, id)
	return updated, nil
}

// ProducerStats aggregates the payments of the events owned by producerID
// as of now in loc.
func (s *PaymentService) ProducerStats(ctx context.Context, producerID string, loc *time.Location) (core.ProducerStats, error) {
	if strings.TrimSpace(producerID) == "" {
		return core.ProducerStats{}, core.NewValidationError("producer_id", "is required")
	}
	all, err := s.payments.GetAll(ctx)
	if err != nil {
		return core.ProducerStats{}, fmt.Errorf("load payments: %w", err)
	}
	var mine []core.PaymentRecord
	for _, p := range all {
		if p.Event != nil && p.Event.ProducerID != nil && *p.Event.ProducerID == producerID {
			mine = append(mine, p)
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	return finance.ComputeProducerStats(mine, s.now().In(loc)), nil
}

func (s *PaymentService) logRecorded(ctx context.Context, op string, p core.PaymentRecord) {
	amount, _ := p.Amount.Float()
	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogPaymentRecorded(ctx, op, p.ID, p.EventID, amount, p.Status)
}
