package core

import (
	"errors"
	"strings"
)

type (
	// EventRecord is a booked event. Pointer and Number fields are optional:
	// nil (or an unset Number) means "leave unset", both on create and on
	// partial update.
	EventRecord struct {
		ID                string   `json:"id" gorm:"column:id;primaryKey"`
		EventName         string   `json:"event_name" gorm:"column:event_name"`
		EventDate         string   `json:"event_date" gorm:"column:event_date"` // YYYY-MM-DD
		Fee               Number   `json:"fee" gorm:"column:fee;type:numeric(12,2)"`
		CacheValue        Number   `json:"cache_value" gorm:"column:cache_value;type:numeric(12,2)"`
		DJID              *string  `json:"dj_id,omitempty" gorm:"column:dj_id"`
		DJIDs             []string `json:"dj_ids,omitempty" gorm:"column:dj_ids;type:text;serializer:json"`
		ProducerID        *string  `json:"producer_id,omitempty" gorm:"column:producer_id"`
		Status            *string  `json:"status,omitempty" gorm:"column:status"`
		CommissionRate    Number   `json:"commission_rate" gorm:"column:commission_rate;type:numeric(5,2)"`
		CommissionAmount  Number   `json:"commission_amount" gorm:"column:commission_amount;type:numeric(12,2)"`
		ExpectedAttendees *int     `json:"expected_attendees,omitempty" gorm:"column:expected_attendees"`
		Description       *string  `json:"description,omitempty" gorm:"column:description"`
		Location          *string  `json:"location,omitempty" gorm:"column:location"`
		Venue             *string  `json:"venue,omitempty" gorm:"column:venue"`
		City              *string  `json:"city,omitempty" gorm:"column:city"`
		State             *string  `json:"state,omitempty" gorm:"column:state"`
		Address           *string  `json:"address,omitempty" gorm:"column:address"`
		StartTime         *string  `json:"start_time,omitempty" gorm:"column:start_time"`
		EndTime           *string  `json:"end_time,omitempty" gorm:"column:end_time"`
		PaymentProof      *string  `json:"payment_proof,omitempty" gorm:"column:payment_proof"`
		PaymentStatus     *string  `json:"payment_status,omitempty" gorm:"column:payment_status"`
		CreatedAt         string   `json:"created_at,omitempty" gorm:"column:created_at"`
	}

	// PaymentRecord is a payment registered against an event. Event is the
	// denormalized event row, attached on read when available.
	PaymentRecord struct {
		ID               string       `json:"id" gorm:"column:id;primaryKey"`
		EventID          string       `json:"event_id" gorm:"column:event_id;index"`
		Amount           Number       `json:"amount" gorm:"column:amount;type:numeric(12,2)"`
		Status           string       `json:"status" gorm:"column:status"`
		PaidAt           *string      `json:"paid_at,omitempty" gorm:"column:paid_at"`
		DueDate          *string      `json:"due_date,omitempty" gorm:"column:due_date"`
		CommissionRate   Number       `json:"commission_rate" gorm:"column:commission_rate;type:numeric(5,2)"`
		CommissionAmount Number       `json:"commission_amount" gorm:"column:commission_amount;type:numeric(12,2)"`
		Method           *string      `json:"method,omitempty" gorm:"column:method"`
		Notes            *string      `json:"notes,omitempty" gorm:"column:notes"`
		CreatedAt        string       `json:"created_at,omitempty" gorm:"column:created_at"`
		Event            *EventRecord `json:"event,omitempty" gorm:"-"`
	}

	// DJRecord is an artist on the agency roster.
	DJRecord struct {
		ID         string  `json:"id" gorm:"column:id;primaryKey"`
		Name       string  `json:"name" gorm:"column:name"`
		ArtistName *string `json:"artist_name,omitempty" gorm:"column:artist_name"`
		Email      *string `json:"email,omitempty" gorm:"column:email"`
		Phone      *string `json:"phone,omitempty" gorm:"column:phone"`
		Genre      *string `json:"genre,omitempty" gorm:"column:genre"`
		Specialty  *string `json:"specialty,omitempty" gorm:"column:specialty"`
		City       *string `json:"city,omitempty" gorm:"column:city"`
		BaseFee    Number  `json:"base_fee" gorm:"column:base_fee;type:numeric(12,2)"`
		AvatarURL  *string `json:"avatar_url,omitempty" gorm:"column:avatar_url"`
		CreatedAt  string  `json:"created_at,omitempty" gorm:"column:created_at"`
	}
)

func (EventRecord) TableName() string   { return "events" }
func (PaymentRecord) TableName() string { return "payments" }
func (DJRecord) TableName() string      { return "djs" }

// ErrValidation is matched by every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a missing or malformed field on the write path.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// IsValidation reports whether err carries a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// Merge overwrites the fields set on patch. Empty strings, nil pointers and
// unset numbers are left alone.
func (e *EventRecord) Merge(patch EventRecord) {
	if strings.TrimSpace(patch.EventName) != "" {
		e.EventName = patch.EventName
	}
	if strings.TrimSpace(patch.EventDate) != "" {
		e.EventDate = patch.EventDate
	}
	mergeNumber(&e.Fee, patch.Fee)
	mergeNumber(&e.CacheValue, patch.CacheValue)
	mergeNumber(&e.CommissionRate, patch.CommissionRate)
	mergeNumber(&e.CommissionAmount, patch.CommissionAmount)
	if patch.DJIDs != nil {
		e.DJIDs = append([]string(nil), patch.DJIDs...)
	}
	if patch.ExpectedAttendees != nil {
		v := *patch.ExpectedAttendees
		e.ExpectedAttendees = &v
	}
	for _, f := range []struct{ dst, src **string }{
		{&e.DJID, &patch.DJID},
		{&e.ProducerID, &patch.ProducerID},
		{&e.Status, &patch.Status},
		{&e.Description, &patch.Description},
		{&e.Location, &patch.Location},
		{&e.Venue, &patch.Venue},
		{&e.City, &patch.City},
		{&e.State, &patch.State},
		{&e.Address, &patch.Address},
		{&e.StartTime, &patch.StartTime},
		{&e.EndTime, &patch.EndTime},
		{&e.PaymentProof, &patch.PaymentProof},
		{&e.PaymentStatus, &patch.PaymentStatus},
	} {
		mergeString(f.dst, *f.src)
	}
}

// Merge overwrites the fields set on patch.
func (p *PaymentRecord) Merge(patch PaymentRecord) {
	if strings.TrimSpace(patch.EventID) != "" {
		p.EventID = patch.EventID
	}
	if strings.TrimSpace(patch.Status) != "" {
		p.Status = patch.Status
	}
	mergeNumber(&p.Amount, patch.Amount)
	mergeNumber(&p.CommissionRate, patch.CommissionRate)
	mergeNumber(&p.CommissionAmount, patch.CommissionAmount)
	mergeString(&p.PaidAt, patch.PaidAt)
	mergeString(&p.DueDate, patch.DueDate)
	mergeString(&p.Method, patch.Method)
	mergeString(&p.Notes, patch.Notes)
}

// Merge overwrites the fields set on patch.
func (d *DJRecord) Merge(patch DJRecord) {
	if strings.TrimSpace(patch.Name) != "" {
		d.Name = patch.Name
	}
	mergeNumber(&d.BaseFee, patch.BaseFee)
	mergeString(&d.ArtistName, patch.ArtistName)
	mergeString(&d.Email, patch.Email)
	mergeString(&d.Phone, patch.Phone)
	mergeString(&d.Genre, patch.Genre)
	mergeString(&d.Specialty, patch.Specialty)
	mergeString(&d.City, patch.City)
	mergeString(&d.AvatarURL, patch.AvatarURL)
}

// DueDateOrEventDate returns the date a payment is expected by: its own due date when
// present, otherwise the linked event's date.
func (p PaymentRecord) DueDateOrEventDate() string {
	if p.DueDate != nil && strings.TrimSpace(*p.DueDate) != "" {
		return *p.DueDate
	}
	if p.Event != nil {
		return p.Event.EventDate
	}
	return ""
}

// PaidDate returns paid_at, falling back to created_at.
func (p PaymentRecord) PaidDate() string {
	if p.PaidAt != nil && strings.TrimSpace(*p.PaidAt) != "" {
		return *p.PaidAt
	}
	return p.CreatedAt
}

// GenreLabel is the label used to group DJs: genre, then specialty.
func (d DJRecord) GenreLabel() string {
	if d.Genre != nil && strings.TrimSpace(*d.Genre) != "" {
		return strings.TrimSpace(*d.Genre)
	}
	if d.Specialty != nil && strings.TrimSpace(*d.Specialty) != "" {
		return strings.TrimSpace(*d.Specialty)
	}
	return ""
}

// StatusValue returns the event status or "" when unset.
func (e EventRecord) StatusValue() string {
	if e.Status == nil {
		return ""
	}
	return *e.Status
}

func mergeString(dst **string, src *string) {
	if src == nil {
		return
	}
	v := *src
	*dst = &v
}

func mergeNumber(dst *Number, src Number) {
	if src.IsSet() {
		*dst = src
	}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }
