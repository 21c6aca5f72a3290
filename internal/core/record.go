package core

// RecordID and Stamp let the stores handle the three record types
// generically. Stamp only fills fields that are still empty.

func (e EventRecord) RecordID() string   { return e.ID }
func (p PaymentRecord) RecordID() string { return p.ID }
func (d DJRecord) RecordID() string      { return d.ID }

func (e *EventRecord) Stamp(id, createdAt string) {
	stamp(&e.ID, &e.CreatedAt, id, createdAt)
}

func (p *PaymentRecord) Stamp(id, createdAt string) {
	stamp(&p.ID, &p.CreatedAt, id, createdAt)
}

func (d *DJRecord) Stamp(id, createdAt string) {
	stamp(&d.ID, &d.CreatedAt, id, createdAt)
}

func stamp(dstID, dstCreated *string, id, createdAt string) {
	if *dstID == "" {
		*dstID = id
	}
	if *dstCreated == "" {
		*dstCreated = createdAt
	}
}
