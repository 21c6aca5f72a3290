package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"portalunk/internal/core"
	"portalunk/internal/sheets"
)

// ReportSource produces the revenue report to export.
type ReportSource interface {
	Report(ctx context.Context) (core.RevenueReport, error)
}

// ReportProcessorConfig holds configuration for the report processor
type ReportProcessorConfig struct {
	// Interval is how often the report is rewritten regardless of changes (default: 15m)
	Interval time.Duration

	// Debounce groups bursts of change notifications into one export (default: 2s)
	Debounce time.Duration
}

// DefaultReportProcessorConfig returns sensible defaults
func DefaultReportProcessorConfig() ReportProcessorConfig {
	return ReportProcessorConfig{
		Interval: 15 * time.Minute,
		Debounce: 2 * time.Second,
	}
}

// ReportProcessor keeps the exported revenue report current. Changes mark it
// dirty; the loop exports dirty reports after a short debounce and exports
// unconditionally on every interval tick. A failed export leaves the report
// dirty so the next pass retries it.
type ReportProcessor struct {
	source ReportSource
	writer sheets.ReportWriter
	config ReportProcessorConfig

	dirty atomic.Bool
	kick  chan struct{}

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReportProcessor(source ReportSource, writer sheets.ReportWriter, config ReportProcessorConfig) *ReportProcessor {
	def := DefaultReportProcessorConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.Debounce < 0 {
		config.Debounce = 0
	}
	return &ReportProcessor{
		source: source,
		writer: writer,
		config: config,
		kick:   make(chan struct{}, 1),
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *ReportProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("report processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Report processor started",
		"interval", p.config.Interval,
		"debounce", p.config.Debounce)
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *ReportProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Report processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Report processor stop timed out")
		return ctx.Err()
	}
}

func (p *ReportProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// MarkDirty records that the underlying data changed.
func (p *ReportProcessor) MarkDirty() {
	p.dirty.Store(true)
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Dirty reports whether a change is waiting to be exported.
func (p *ReportProcessor) Dirty() bool {
	return p.dirty.Load()
}

// ExportNow builds and writes the report synchronously.
func (p *ReportProcessor) ExportNow(ctx context.Context) (string, error) {
	// Cleared before reading so a change landing mid-export stays pending.
	wasDirty := p.dirty.Swap(false)

	report, err := p.source.Report(ctx)
	if err != nil {
		if wasDirty {
			p.dirty.Store(true)
		}
		return "", fmt.Errorf("build report: %w", err)
	}
	ref, err := p.writer.WriteReport(ctx, report)
	if err != nil {
		if wasDirty {
			p.dirty.Store(true)
		}
		return "", fmt.Errorf("write report: %w", err)
	}

	slog.InfoContext(ctx, "Revenue report exported",
		"ref", ref,
		"months", len(report.Months))
	return ref, nil
}

func (p *ReportProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	// Export immediately on startup
	p.export(ctx)

	var debounce <-chan time.Time
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			debounce = nil
			p.export(ctx)
		case <-p.kick:
			if debounce == nil {
				debounce = time.After(p.config.Debounce)
			}
		case <-debounce:
			debounce = nil
			if p.dirty.Load() {
				p.export(ctx)
			}
		}
	}
}

func (p *ReportProcessor) export(ctx context.Context) {
	if _, err := p.ExportNow(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to export revenue report", "error", err)
	}
}
