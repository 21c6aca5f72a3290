// Package postgres stores the collections in PostgreSQL through gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"portalunk/internal/core"
	"portalunk/internal/store"
)

// Open connects and migrates the schema.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&core.EventRecord{}, &core.PaymentRecord{}, &core.DJRecord{}); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return db, nil
}

// Collection is a gorm backed store.Collection.
type Collection[T any, P store.Record[T]] struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewCollection[T any, P store.Record[T]](db *gorm.DB) *Collection[T, P] {
	return &Collection[T, P]{DB: db, now: time.Now}
}

func (c *Collection[T, P]) GetAll(ctx context.Context) ([]T, error) {
	var out []T
	if err := c.DB.WithContext(ctx).Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return out, nil
}

func (c *Collection[T, P]) GetByID(ctx context.Context, id string) (T, error) {
	return c.first(c.DB.WithContext(ctx), id)
}

func (c *Collection[T, P]) first(db *gorm.DB, id string) (T, error) {
	var rec T
	err := db.First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rec, fmt.Errorf("get %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("get %s: %w", id, err)
	}
	return rec, nil
}

func (c *Collection[T, P]) Create(ctx context.Context, rec T) (T, error) {
	ts, _ := core.NormalizeTimestamp(c.now())
	P(&rec).Stamp(uuid.NewString(), ts)
	if err := c.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return rec, fmt.Errorf("create: %w", err)
	}
	return rec, nil
}

// Update merges patch into the stored row and saves it in one transaction.
func (c *Collection[T, P]) Update(ctx context.Context, id string, patch T) (T, error) {
	var out T
	err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := c.first(tx, id)
		if err != nil {
			return err
		}
		P(&rec).Merge(patch)
		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("update %s: %w", id, err)
		}
		out = rec
		return nil
	})
	return out, err
}

// Delete returns store.ErrNotFound when nothing was deleted.
func (c *Collection[T, P]) Delete(ctx context.Context, id string) error {
	res := c.DB.WithContext(ctx).Delete(new(T), "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// Stores returns the three collections over db.
func Stores(db *gorm.DB) store.Stores {
	return store.Stores{
		Events:   NewCollection[core.EventRecord](db),
		Payments: NewCollection[core.PaymentRecord](db),
		DJs:      NewCollection[core.DJRecord](db),
	}
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the connection.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
