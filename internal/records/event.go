package records

import (
	"math"
	"strings"

	"portalunk/internal/core"
)

// BuildEventRecord builds a new event from a create payload.
//
// Name and date are required. The fee is the first parseable of fee,
// cache_value and cache, defaulting to 0, and is mirrored into CacheValue.
// Optional fields are set only when the payload carries them.
func BuildEventRecord(payload Payload, primaryDJID string) (core.EventRecord, error) {
	p := SanitizeRecord(payload, EventColumns)

	name, ok := p.firstString("event_name", "title", "name")
	if !ok {
		return core.EventRecord{}, core.NewValidationError("event_name", "is required")
	}
	rawDate, ok := p.firstString("event_date", "date")
	if !ok {
		return core.EventRecord{}, core.NewValidationError("event_date", "is required")
	}
	date, ok := core.NormalizeDateOnly(rawDate)
	if !ok {
		return core.EventRecord{}, core.NewValidationError("event_date", "must be a valid date")
	}

	fee, _ := p.firstNumber("fee", "cache_value", "cache")
	if fee < 0 {
		return core.EventRecord{}, core.NewValidationError("fee", "must not be negative")
	}
	fee = core.RoundCurrencyValue(fee)

	ev := core.EventRecord{
		EventName:  name,
		EventDate:  date,
		Fee:        core.NumberOf(fee),
		CacheValue: core.NumberOf(fee),
	}

	primary := strings.TrimSpace(primaryDJID)
	if primary == "" {
		primary, _ = p.firstString("dj_id")
	}
	if p.present("dj_ids") {
		ev.DJIDs = MergeDJIDs(primary, p.stringList("dj_ids"))
		if primary == "" && len(ev.DJIDs) > 0 {
			primary = ev.DJIDs[0]
		}
	}
	if primary != "" {
		ev.DJID = core.StringPtr(primary)
	}

	if err := applyEventOptionals(&ev, p); err != nil {
		return core.EventRecord{}, err
	}
	return ev, nil
}

// BuildEventPatch builds a partial update. Only the keys present in the
// payload are set; a present but blank name or date is rejected.
func BuildEventPatch(payload Payload) (core.EventRecord, error) {
	p := SanitizeRecord(payload, EventColumns)
	var ev core.EventRecord

	for _, k := range []string{"event_name", "title", "name"} {
		if !p.present(k) {
			continue
		}
		name, ok := p.firstString(k)
		if !ok {
			return core.EventRecord{}, core.NewValidationError("event_name", "must not be blank")
		}
		ev.EventName = name
		break
	}

	for _, k := range []string{"event_date", "date"} {
		if !p.present(k) {
			continue
		}
		raw, _ := p.firstString(k)
		date, ok := core.NormalizeDateOnly(raw)
		if !ok {
			return core.EventRecord{}, core.NewValidationError("event_date", "must be a valid date")
		}
		ev.EventDate = date
		break
	}

	if p.present("fee") || p.present("cache") {
		fee, ok := p.firstNumber("fee", "cache")
		if !ok || fee < 0 {
			return core.EventRecord{}, core.NewValidationError("fee", "must be a non-negative number")
		}
		ev.Fee = core.NumberOf(core.RoundCurrencyValue(fee))
		ev.CacheValue = ev.Fee
	}
	if p.present("cache_value") {
		cv, err := p.optNumber("cache_value")
		if err != nil {
			return core.EventRecord{}, err
		}
		ev.CacheValue = cv
	}

	primary, hasPrimary := p.firstString("dj_id")
	if p.present("dj_ids") {
		ev.DJIDs = MergeDJIDs(primary, p.stringList("dj_ids"))
	}
	if hasPrimary {
		ev.DJID = core.StringPtr(primary)
	}

	if err := applyEventOptionals(&ev, p); err != nil {
		return core.EventRecord{}, err
	}
	return ev, nil
}

func applyEventOptionals(ev *core.EventRecord, p Payload) error {
	var err error
	if ev.CommissionRate, err = p.optNumber("commission_rate"); err != nil {
		return err
	}
	if rate, ok := ev.CommissionRate.Float(); ok && (rate < 0 || rate > 100) {
		return core.NewValidationError("commission_rate", "must be between 0 and 100")
	}
	if ev.CommissionAmount, err = p.optNumber("commission_amount"); err != nil {
		return err
	}

	if p.present("expected_attendees") {
		n, ok := core.ParseNumericValue(p["expected_attendees"])
		if !ok || n < 0 {
			return core.NewValidationError("expected_attendees", "must be a non-negative number")
		}
		attendees := int(math.Round(n))
		ev.ExpectedAttendees = &attendees
	}

	ev.ProducerID = p.optString("producer_id")
	ev.Status = p.optString("status")
	ev.Description = p.optString("description")
	ev.Location = p.optString("location")
	ev.Venue = p.optString("venue")
	ev.City = p.optString("city")
	ev.State = p.optString("state")
	ev.Address = p.optString("address")
	ev.PaymentProof = p.optString("payment_proof")
	ev.PaymentStatus = p.optString("payment_status")

	for key, dst := range map[string]**string{"start_time": &ev.StartTime, "end_time": &ev.EndTime} {
		if !p.present(key) {
			continue
		}
		if ts, ok := core.NormalizeTimestamp(p[key]); ok {
			*dst = core.StringPtr(ts)
		}
	}
	return nil
}
