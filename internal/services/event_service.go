package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"portalunk/internal/amqp"
	"portalunk/internal/blob"
	"portalunk/internal/core"
	"portalunk/internal/records"
	"portalunk/internal/store"
)

// EventService orchestrates event writes across the event store, the blob
// store and the message bus.
type EventService struct {
	events store.EventStore
	blobs  store.BlobStore
	bucket string
	notify notifier
}

func NewEventService(events store.EventStore, blobs store.BlobStore, bucket string, publisher amqp.Publisher, cache Invalidator) *EventService {
	return &EventService{
		events: events,
		blobs:  blobs,
		bucket: bucket,
		notify: newNotifier(publisher, cache),
	}
}

func (s *EventService) List(ctx context.Context) ([]core.EventRecord, error) {
	return s.events.GetAll(ctx)
}

func (s *EventService) Get(ctx context.Context, id string) (core.EventRecord, error) {
	return s.events.GetByID(ctx, id)
}

// Create builds and stores an event. primaryDJID, when set, leads the DJ
// list.
func (s *EventService) Create(ctx context.Context, payload records.Payload, primaryDJID string) (core.EventRecord, error) {
	ev, err := records.BuildEventRecord(payload, primaryDJID)
	if err != nil {
		return core.EventRecord{}, err
	}
	created, err := s.events.Create(ctx, ev)
	if err != nil {
		return core.EventRecord{}, fmt.Errorf("create event: %w", err)
	}

	slog.InfoContext(ctx, "Event created",
		"event_id", created.ID,
		"event_date", created.EventDate)
	s.notify.changed(ctx, amqp.EventCreated, created.ID)
	return created, nil
}

// Update applies a partial update.
func (s *EventService) Update(ctx context.Context, id string, payload records.Payload) (core.EventRecord, error) {
	patch, err := records.BuildEventPatch(payload)
	if err != nil {
		return core.EventRecord{}, err
	}
	updated, err := s.events.Update(ctx, id, patch)
	if err != nil {
		return core.EventRecord{}, fmt.Errorf("update event %s: %w", id, err)
	}
	s.notify.changed(ctx, amqp.EventUpdated, id)
	return updated, nil
}

// Delete removes the event and, best effort, its payment proof.
func (s *EventService) Delete(ctx context.Context, id string) error {
	ev, err := s.events.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	if ev.PaymentProof != nil {
		s.deleteProof(ctx, id, *ev.PaymentProof)
	}
	s.notify.changed(ctx, amqp.EventDeleted, id)
	return nil
}

// AttachPaymentProof uploads a proof file, points the event at it and then
// removes the proof it replaces. A failed update removes the new upload.
func (s *EventService) AttachPaymentProof(ctx context.Context, id, filename, contentType string, r io.Reader) (core.EventRecord, error) {
	if s.blobs == nil {
		return core.EventRecord{}, errors.New("blob storage not configured")
	}
	if strings.TrimSpace(filename) == "" {
		return core.EventRecord{}, core.NewValidationError("file", "is required")
	}
	ev, err := s.events.GetByID(ctx, id)
	if err != nil {
		return core.EventRecord{}, fmt.Errorf("load event %s: %w", id, err)
	}

	res, err := s.blobs.Upload(ctx, s.bucket, blob.ObjectName("events/"+id, filename), r, contentType)
	if err != nil {
		return core.EventRecord{}, fmt.Errorf("upload payment proof: %w", err)
	}

	updated, err := s.events.Update(ctx, id, core.EventRecord{PaymentProof: core.StringPtr(res.URL)})
	if err != nil {
		s.deleteProof(ctx, id, res.URL)
		return core.EventRecord{}, fmt.Errorf("save payment proof: %w", err)
	}
	if ev.PaymentProof != nil && *ev.PaymentProof != res.URL {
		s.deleteProof(ctx, id, *ev.PaymentProof)
	}

	slog.InfoContext(ctx, "Payment proof attached", "event_id", id, "path", res.Path)
	s.notify.changed(ctx, amqp.EventUpdated, id)
	return updated, nil
}

func (s *EventService) deleteProof(ctx context.Context, eventID, url string) {
	if s.blobs == nil || strings.TrimSpace(url) == "" {
		return
	}
	if err := s.blobs.Delete(ctx, url); err != nil {
		slog.WarnContext(ctx, "Failed to delete payment proof",
			"event_id", eventID, "url", url, "error", err)
	}
}
