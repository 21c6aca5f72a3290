package worker

import (
	"context"
	"log/slog"

	"portalunk/internal/amqp"
)

// Invalidator drops cached views.
type Invalidator interface {
	Invalidate()
}

// DirtyMarker schedules a report refresh.
type DirtyMarker interface {
	MarkDirty()
}

// ReportWorker reacts to finance events consumed from AMQP. Messages carry
// only the entity id, so handling one never fails: the report is rebuilt
// from the stores by the processor.
type ReportWorker struct {
	cache  Invalidator
	report DirtyMarker
}

func NewReportWorker(cache Invalidator, report DirtyMarker) *ReportWorker {
	return &ReportWorker{cache: cache, report: report}
}

// HandleMessage processes a single finance event message from AMQP
func (w *ReportWorker) HandleMessage(ctx context.Context, msg *amqp.FinanceEventMessage) error {
	slog.InfoContext(ctx, "Processing finance event",
		"type", msg.Type,
		"entity_id", msg.EntityID,
		"timestamp", msg.Timestamp)

	if w.cache != nil {
		w.cache.Invalidate()
	}
	if w.report != nil {
		w.report.MarkDirty()
	}
	return nil
}
