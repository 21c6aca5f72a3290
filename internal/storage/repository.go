package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"portalunk/internal/core"
	"portalunk/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db       *sql.DB
	events   *table[core.EventRecord, *core.EventRecord]
	payments *table[core.PaymentRecord, *core.PaymentRecord]
	djs      *table[core.DJRecord, *core.DJRecord]
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db: db,
		events: &table[core.EventRecord, *core.EventRecord]{
			db: db, name: "events", columns: eventColumns, fields: eventFields, now: time.Now,
		},
		payments: &table[core.PaymentRecord, *core.PaymentRecord]{
			db: db, name: "payments", columns: paymentColumns, fields: paymentFields, now: time.Now,
		},
		djs: &table[core.DJRecord, *core.DJRecord]{
			db: db, name: "djs", columns: djColumns, fields: djFields, now: time.Now,
		},
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Stores exposes the three tables as collections.
func (r *SQLiteRepository) Stores() store.Stores {
	return store.Stores{
		Events:   r.events,
		Payments: r.payments,
		DJs:      r.djs,
	}
}
