package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"portalunk/internal/core"
	"portalunk/internal/store"
)

// table maps one record type onto one SQL table. fields returns pointers to
// the record's fields in column order; the first column is the id.
type table[T any, P store.Record[T]] struct {
	db      *sql.DB
	name    string
	columns []string
	fields  func(P) []any
	now     func() time.Time
}

func (t *table[T, P]) selectSQL() string {
	return "SELECT " + strings.Join(t.columns, ", ") + " FROM " + t.name
}

func (t *table[T, P]) GetAll(ctx context.Context) ([]T, error) {
	rows, err := t.db.QueryContext(ctx, t.selectSQL()+" ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var rec T
		if err := rows.Scan(t.fields(P(&rec))...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.name, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	return out, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (t *table[T, P]) get(ctx context.Context, q queryRower, id string) (T, error) {
	var rec T
	err := q.QueryRowContext(ctx, t.selectSQL()+" WHERE id = ?", id).Scan(t.fields(P(&rec))...)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("get %s %s: %w", t.name, id, store.ErrNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("get %s %s: %w", t.name, id, err)
	}
	return rec, nil
}

func (t *table[T, P]) GetByID(ctx context.Context, id string) (T, error) {
	return t.get(ctx, t.db, id)
}

func (t *table[T, P]) Create(ctx context.Context, rec T) (T, error) {
	ts, _ := core.NormalizeTimestamp(t.now())
	P(&rec).Stamp(uuid.NewString(), ts)

	args, err := values(t.fields(P(&rec)))
	if err != nil {
		return rec, fmt.Errorf("create %s: %w", t.name, err)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")
	query := "INSERT INTO " + t.name + " (" + strings.Join(t.columns, ", ") + ") VALUES (" + placeholders + ")"
	if _, err := t.db.ExecContext(ctx, query, args...); err != nil {
		return rec, fmt.Errorf("create %s: %w", t.name, err)
	}
	return rec, nil
}

// Update reads, merges and writes back inside one transaction.
func (t *table[T, P]) Update(ctx context.Context, id string, patch T) (T, error) {
	var zero T
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("update %s: begin: %w", t.name, err)
	}
	defer tx.Rollback()

	rec, err := t.get(ctx, tx, id)
	if err != nil {
		return zero, err
	}
	P(&rec).Merge(patch)

	args, err := values(t.fields(P(&rec)))
	if err != nil {
		return zero, fmt.Errorf("update %s: %w", t.name, err)
	}
	sets := make([]string, 0, len(t.columns)-1)
	for _, c := range t.columns[1:] {
		sets = append(sets, c+" = ?")
	}
	query := "UPDATE " + t.name + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := tx.ExecContext(ctx, query, append(args[1:], id)...); err != nil {
		return zero, fmt.Errorf("update %s %s: %w", t.name, id, err)
	}
	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("update %s: commit: %w", t.name, err)
	}
	return rec, nil
}

func (t *table[T, P]) Delete(ctx context.Context, id string) error {
	res, err := t.db.ExecContext(ctx, "DELETE FROM "+t.name+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", t.name, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", t.name, id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %s %s: %w", t.name, id, store.ErrNotFound)
	}
	return nil
}

// values turns scan pointers into driver values: nil pointers become NULL
// and Valuers are called.
func values(fields []any) ([]any, error) {
	out := make([]any, len(fields))
	for i, f := range fields {
		v, err := driver.DefaultParameterConverter.ConvertValue(f)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// jsonList stores a string slice as a JSON array in a TEXT column.
type jsonList struct {
	dst *[]string
}

func (l jsonList) Value() (driver.Value, error) {
	if *l.dst == nil {
		return nil, nil
	}
	b, err := json.Marshal(*l.dst)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l jsonList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l.dst = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported dj_ids type %T", src)
	}
	return json.Unmarshal(raw, l.dst)
}

var eventColumns = []string{
	"id", "event_name", "event_date", "fee", "cache_value", "dj_id", "dj_ids",
	"producer_id", "status", "commission_rate", "commission_amount",
	"expected_attendees", "description", "location", "venue", "city", "state",
	"address", "start_time", "end_time", "payment_proof", "payment_status",
	"created_at",
}

func eventFields(e *core.EventRecord) []any {
	return []any{
		&e.ID, &e.EventName, &e.EventDate, &e.Fee, &e.CacheValue, &e.DJID, jsonList{&e.DJIDs},
		&e.ProducerID, &e.Status, &e.CommissionRate, &e.CommissionAmount,
		&e.ExpectedAttendees, &e.Description, &e.Location, &e.Venue, &e.City, &e.State,
		&e.Address, &e.StartTime, &e.EndTime, &e.PaymentProof, &e.PaymentStatus,
		&e.CreatedAt,
	}
}

var paymentColumns = []string{
	"id", "event_id", "amount", "status", "paid_at", "due_date",
	"commission_rate", "commission_amount", "method", "notes", "created_at",
}

func paymentFields(p *core.PaymentRecord) []any {
	return []any{
		&p.ID, &p.EventID, &p.Amount, &p.Status, &p.PaidAt, &p.DueDate,
		&p.CommissionRate, &p.CommissionAmount, &p.Method, &p.Notes, &p.CreatedAt,
	}
}

var djColumns = []string{
	"id", "name", "artist_name", "email", "phone", "genre", "specialty", "city",
	"base_fee", "avatar_url", "created_at",
}

func djFields(d *core.DJRecord) []any {
	return []any{
		&d.ID, &d.Name, &d.ArtistName, &d.Email, &d.Phone, &d.Genre, &d.Specialty, &d.City,
		&d.BaseFee, &d.AvatarURL, &d.CreatedAt,
	}
}
