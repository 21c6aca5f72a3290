package adapters

import (
	"context"
	"errors"
	"fmt"

	"portalunk/internal/core"
	"portalunk/internal/finance"
	"portalunk/internal/store"
)

// PaymentsWithEvents adapts a PaymentStore so that payments read through it
// carry their linked event. Writes go straight to the wrapped store.
type PaymentsWithEvents struct {
	store.PaymentStore
	events store.EventStore
}

func NewPaymentsWithEvents(payments store.PaymentStore, events store.EventStore) *PaymentsWithEvents {
	return &PaymentsWithEvents{PaymentStore: payments, events: events}
}

// GetAll implements store.PaymentStore
func (a *PaymentsWithEvents) GetAll(ctx context.Context) ([]core.PaymentRecord, error) {
	payments, err := a.PaymentStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	events, err := a.events.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load payment events: %w", err)
	}
	return finance.AttachEvents(payments, events), nil
}

// GetByID implements store.PaymentStore. A dangling event id is not an error.
func (a *PaymentsWithEvents) GetByID(ctx context.Context, id string) (core.PaymentRecord, error) {
	p, err := a.PaymentStore.GetByID(ctx, id)
	if err != nil {
		return p, err
	}
	ev, err := a.events.GetByID(ctx, p.EventID)
	switch {
	case err == nil:
		p.Event = &ev
	case !errors.Is(err, store.ErrNotFound):
		return p, fmt.Errorf("load payment event: %w", err)
	}
	return p, nil
}
