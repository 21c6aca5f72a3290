package services

import (
	"context"
	"fmt"

	"portalunk/internal/amqp"
	"portalunk/internal/core"
	"portalunk/internal/records"
	"portalunk/internal/store"
)

// DJService is the CRUD surface of the roster.
type DJService struct {
	djs    store.DJStore
	notify notifier
}

func NewDJService(djs store.DJStore, publisher amqp.Publisher, cache Invalidator) *DJService {
	return &DJService{djs: djs, notify: newNotifier(publisher, cache)}
}

func (s *DJService) List(ctx context.Context) ([]core.DJRecord, error) {
	return s.djs.GetAll(ctx)
}

func (s *DJService) Get(ctx context.Context, id string) (core.DJRecord, error) {
	return s.djs.GetByID(ctx, id)
}

func (s *DJService) Create(ctx context.Context, payload records.Payload) (core.DJRecord, error) {
	dj, err := records.BuildDJRecord(payload)
	if err != nil {
		return core.DJRecord{}, err
	}
	created, err := s.djs.Create(ctx, dj)
	if err != nil {
		return core.DJRecord{}, fmt.Errorf("create dj: %w", err)
	}
	s.notify.changed(ctx, amqp.DJCreated, created.ID)
	return created, nil
}

func (s *DJService) Update(ctx context.Context, id string, payload records.Payload) (core.DJRecord, error) {
	patch, err := records.BuildDJPatch(payload)
	if err != nil {
		return core.DJRecord{}, err
	}
	updated, err := s.djs.Update(ctx, id, patch)
	if err != nil {
		return core.DJRecord{}, fmt.Errorf("update dj %s: %w", id, err)
	}
	s.notify.changed(ctx, amqp.DJUpdated, id)
	return updated, nil
}

func (s *DJService) Delete(ctx context.Context, id string) error {
	if err := s.djs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete dj %s: %w", id, err)
	}
	s.notify.changed(ctx, amqp.DJDeleted, id)
	return nil
}
