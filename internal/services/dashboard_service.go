package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"portalunk/internal/cache"
	"portalunk/internal/core"
	"portalunk/internal/dashboard"
	"portalunk/internal/finance"
	"portalunk/internal/store"
)

// DashboardService reads the three collections and assembles dashboard
// views. Summaries are cached per reference day and options until the next
// write invalidates them.
type DashboardService struct {
	stores   store.Stores
	cache    cache.Cache[core.DashboardSummary]
	defaults dashboard.Options
	loc      *time.Location
	now      func() time.Time

	// generation moves on every Invalidate. A summary built across a bump
	// is returned but not cached.
	generation atomic.Uint64
}

var _ Invalidator = (*DashboardService)(nil)

// NewDashboardService creates the service. A nil cache disables caching and
// a nil location means UTC.
func NewDashboardService(stores store.Stores, c cache.Cache[core.DashboardSummary], defaults dashboard.Options, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardService{
		stores:   stores,
		cache:    c,
		defaults: fillOptions(defaults, dashboard.DefaultOptions()),
		loc:      loc,
		now:      time.Now,
	}
}

// Now is the current time in the service's zone.
func (s *DashboardService) Now() time.Time {
	return s.now().In(s.loc)
}

// Snapshot loads events, payments and DJs concurrently. Payments carry their
// linked event.
func (s *DashboardService) Snapshot(ctx context.Context) (dashboard.Snapshot, error) {
	var snap dashboard.Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		events, err := s.stores.Events.GetAll(gctx)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		snap.Events = events
		return nil
	})
	g.Go(func() error {
		payments, err := s.stores.Payments.GetAll(gctx)
		if err != nil {
			return fmt.Errorf("load payments: %w", err)
		}
		snap.Payments = payments
		return nil
	})
	g.Go(func() error {
		djs, err := s.stores.DJs.GetAll(gctx)
		if err != nil {
			return fmt.Errorf("load djs: %w", err)
		}
		snap.DJs = djs
		return nil
	})

	if err := g.Wait(); err != nil {
		return dashboard.Snapshot{}, err
	}
	snap.Payments = finance.AttachEvents(snap.Payments, snap.Events)
	return snap, nil
}

// Summary returns the dashboard for today. Zero option fields take the
// service defaults.
func (s *DashboardService) Summary(ctx context.Context, opts dashboard.Options) (core.DashboardSummary, error) {
	opts = fillOptions(opts, s.defaults)
	now := s.Now()
	key := fmt.Sprintf("%s|%d|%d|%d", now.Format(time.DateOnly), opts.UpcomingDays, opts.RevenueMonths, opts.TopGenres)

	if s.cache != nil {
		if summary, ok := s.cache.Get(key); ok {
			slog.DebugContext(ctx, "Dashboard cache hit", "key", key)
			return summary, nil
		}
	}

	gen := s.generation.Load()
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return core.DashboardSummary{}, err
	}
	summary := dashboard.Assemble(snap, now, opts)
	if s.cache != nil && s.generation.Load() == gen {
		s.cache.Set(key, summary)
	}
	return summary, nil
}

// RevenueChart returns the paid revenue of the last months months.
func (s *DashboardService) RevenueChart(ctx context.Context, months int) ([]core.MonthlyRevenueBucket, error) {
	summary, err := s.Summary(ctx, dashboard.Options{RevenueMonths: months})
	if err != nil {
		return nil, err
	}
	return summary.RevenueChartData, nil
}

// Upcoming lists the events within the next days days.
func (s *DashboardService) Upcoming(ctx context.Context, days int) (core.UpcomingEventsSummary, error) {
	summary, err := s.Summary(ctx, dashboard.Options{UpcomingDays: days})
	if err != nil {
		return core.UpcomingEventsSummary{}, err
	}
	return summary.Upcoming, nil
}

// Report builds the exported revenue report. It always reads fresh data.
func (s *DashboardService) Report(ctx context.Context) (core.RevenueReport, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return core.RevenueReport{}, err
	}
	now := s.Now()
	return core.RevenueReport{
		GeneratedAt: now,
		Months:      finance.MonthlyRevenueBuckets(snap.Payments, now, s.defaults.RevenueMonths),
		Stats:       finance.ComputeFinancialStats(snap.Payments),
	}, nil
}

// Invalidate drops every cached summary.
func (s *DashboardService) Invalidate() {
	s.generation.Add(1)
	if s.cache != nil {
		s.cache.Purge()
	}
}

func fillOptions(opts, defaults dashboard.Options) dashboard.Options {
	if opts.UpcomingDays <= 0 {
		opts.UpcomingDays = defaults.UpcomingDays
	}
	if opts.RevenueMonths <= 0 {
		opts.RevenueMonths = defaults.RevenueMonths
	}
	if opts.TopGenres <= 0 {
		opts.TopGenres = defaults.TopGenres
	}
	return opts
}
