package records

import (
	"portalunk/internal/core"
)

type djInput struct {
	Name    string   `json:"name" validate:"required,max=120"`
	Email   string   `json:"email" validate:"omitempty,email"`
	BaseFee *float64 `json:"base_fee" validate:"omitempty,gte=0"`
}

// BuildDJRecord builds a new roster entry. The name falls back to
// artist_name.
func BuildDJRecord(payload Payload) (core.DJRecord, error) {
	p := SanitizeRecord(payload, DJColumns)

	var in djInput
	in.Name, _ = p.firstString("name", "artist_name")
	in.Email, _ = p.firstString("email")

	var err error
	if in.BaseFee, err = numberField(p, "base_fee"); err != nil {
		return core.DJRecord{}, err
	}
	if err := validateStruct(in); err != nil {
		return core.DJRecord{}, err
	}

	dj := core.DJRecord{Name: in.Name}
	applyDJOptionals(&dj, p)
	if in.BaseFee != nil {
		dj.BaseFee = core.NumberOf(core.RoundCurrencyValue(*in.BaseFee))
	}
	return dj, nil
}

// BuildDJPatch builds a partial DJ update from the keys present.
func BuildDJPatch(payload Payload) (core.DJRecord, error) {
	p := SanitizeRecord(payload, DJColumns)

	var dj core.DJRecord
	if p.present("name") {
		name, ok := p.firstString("name")
		if !ok {
			return core.DJRecord{}, core.NewValidationError("name", "must not be blank")
		}
		dj.Name = name
	}
	if p.present("email") {
		email, _ := p.firstString("email")
		if err := validate.Var(email, "omitempty,email"); err != nil {
			return core.DJRecord{}, core.NewValidationError("email", "must be a valid email")
		}
	}

	fee, err := numberField(p, "base_fee")
	if err != nil {
		return core.DJRecord{}, err
	}
	if fee != nil {
		if *fee < 0 {
			return core.DJRecord{}, core.NewValidationError("base_fee", "must be greater than or equal to 0")
		}
		dj.BaseFee = core.NumberOf(core.RoundCurrencyValue(*fee))
	}

	applyDJOptionals(&dj, p)
	return dj, nil
}

func applyDJOptionals(dj *core.DJRecord, p Payload) {
	dj.ArtistName = p.optString("artist_name")
	dj.Email = p.optString("email")
	dj.Phone = p.optString("phone")
	dj.Genre = p.optString("genre")
	dj.Specialty = p.optString("specialty")
	dj.City = p.optString("city")
	dj.AvatarURL = p.optString("avatar_url")
}
