package records

import (
	"strings"

	"portalunk/internal/core"
)

type paymentInput struct {
	EventID          string   `json:"event_id" validate:"required"`
	Amount           *float64 `json:"amount" validate:"required,gte=0"`
	Status           string   `json:"status" validate:"max=32"`
	CommissionRate   *float64 `json:"commission_rate" validate:"omitempty,gte=0,lte=100"`
	CommissionAmount *float64 `json:"commission_amount" validate:"omitempty,gte=0"`
}

// BuildPaymentRecord builds a payment registration. Status defaults to
// pending.
func BuildPaymentRecord(payload Payload) (core.PaymentRecord, error) {
	p := SanitizeRecord(payload, PaymentColumns)

	in := paymentInput{
		Status: core.StatusPending,
	}
	in.EventID, _ = p.firstString("event_id")
	if s, ok := p.firstString("status"); ok {
		in.Status = s
	}

	var err error
	if in.Amount, err = numberField(p, "amount"); err != nil {
		return core.PaymentRecord{}, err
	}
	if in.CommissionRate, err = numberField(p, "commission_rate"); err != nil {
		return core.PaymentRecord{}, err
	}
	if in.CommissionAmount, err = numberField(p, "commission_amount"); err != nil {
		return core.PaymentRecord{}, err
	}
	if err := validateStruct(in); err != nil {
		return core.PaymentRecord{}, err
	}

	rec := core.PaymentRecord{
		EventID: in.EventID,
		Amount:  core.NumberOf(core.RoundCurrencyValue(*in.Amount)),
		Status:  strings.ToLower(in.Status),
		Method:  p.optString("method"),
		Notes:   p.optString("notes"),
	}
	if in.CommissionRate != nil {
		rec.CommissionRate = core.NumberOf(core.RoundCurrencyValue(*in.CommissionRate))
	}
	if in.CommissionAmount != nil {
		rec.CommissionAmount = core.NumberOf(core.RoundCurrencyValue(*in.CommissionAmount))
	}
	if p.present("paid_at") {
		if ts, ok := core.NormalizeTimestamp(p["paid_at"]); ok {
			rec.PaidAt = core.StringPtr(ts)
		}
	}
	if p.present("due_date") {
		d, ok := core.NormalizeDateOnly(p["due_date"])
		if !ok {
			return core.PaymentRecord{}, core.NewValidationError("due_date", "must be a valid date")
		}
		rec.DueDate = core.StringPtr(d)
	}
	return rec, nil
}

// numberField parses an optional numeric key. Absent keys give nil.
func numberField(p Payload, key string) (*float64, error) {
	if !p.present(key) {
		return nil, nil
	}
	v, ok := core.ParseNumericValue(p[key])
	if !ok {
		return nil, core.NewValidationError(key, "must be numeric")
	}
	return &v, nil
}
