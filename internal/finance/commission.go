// Package finance implements the aggregation core: commission resolution,
// payment statistics and the temporal windows used by the dashboard.
//
// Every function here is pure. Inputs are snapshots already fetched from the
// stores; malformed numbers or dates skip the record instead of failing.
package finance

import (
	"math"

	"portalunk/internal/core"
)

// CalculateCommissionAmount returns fee*rate/100, floored at zero.
//
// It returns 0 when fee is not a finite positive number or rate is nil or
// not finite. The result is not rounded; callers round aggregates.
func CalculateCommissionAmount(fee float64, rate *float64) float64 {
	if math.IsNaN(fee) || math.IsInf(fee, 0) || fee <= 0 {
		return 0
	}
	if rate == nil || math.IsNaN(*rate) || math.IsInf(*rate, 0) {
		return 0
	}
	return math.Max(0, fee*(*rate)/100)
}

// ResolveCommission picks the commission contribution of a payment.
//
// Resolution order, first match wins:
//  1. explicit amount on the payment
//  2. explicit amount on the linked event
//  3. rate on the payment
//  4. rate on the event
//  5. zero
//
// Rates apply to the payment amount.
func ResolveCommission(p core.PaymentRecord) float64 {
	if v, ok := explicitAmount(p.CommissionAmount); ok {
		return v
	}
	if p.Event != nil {
		if v, ok := explicitAmount(p.Event.CommissionAmount); ok {
			return v
		}
	}

	amount := p.Amount.FloatOr(0)
	if rate := p.CommissionRate.Ptr(); rate != nil {
		return CalculateCommissionAmount(amount, rate)
	}
	if p.Event != nil {
		if rate := p.Event.CommissionRate.Ptr(); rate != nil {
			return CalculateCommissionAmount(amount, rate)
		}
	}
	return 0
}

func explicitAmount(n core.Number) (float64, bool) {
	v, ok := n.Float()
	if !ok || v < 0 {
		return 0, false
	}
	return v, true
}

// AttachEvents returns copies of payments carrying their linked event, so
// event-level commission can be resolved. Payments that already carry an
// event, or whose event is unknown, are copied as-is.
func AttachEvents(payments []core.PaymentRecord, events []core.EventRecord) []core.PaymentRecord {
	byID := make(map[string]*core.EventRecord, len(events))
	for i := range events {
		byID[events[i].ID] = &events[i]
	}
	out := make([]core.PaymentRecord, len(payments))
	for i, p := range payments {
		if p.Event == nil {
			if ev, ok := byID[p.EventID]; ok {
				evCopy := *ev
				p.Event = &evCopy
			}
		}
		out[i] = p
	}
	return out
}
