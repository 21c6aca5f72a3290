// Package dashboard combines the finance aggregations into the summary
// served to the back office.
package dashboard

import (
	"cmp"
	"slices"
	"time"

	"portalunk/internal/core"
	"portalunk/internal/finance"
)

// OtherGenre labels DJs with neither genre nor specialty.
const OtherGenre = "Outros"

// Snapshot is one consistent read of the three collections.
type Snapshot struct {
	Events   []core.EventRecord
	Payments []core.PaymentRecord
	DJs      []core.DJRecord
}

// Options tunes the windows. Zero values take the defaults.
type Options struct {
	UpcomingDays  int
	RevenueMonths int
	TopGenres     int
}

func DefaultOptions() Options {
	return Options{UpcomingDays: 15, RevenueMonths: finance.DefaultRevenueMonths, TopGenres: 5}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.UpcomingDays <= 0 {
		o.UpcomingDays = d.UpcomingDays
	}
	if o.RevenueMonths <= 0 {
		o.RevenueMonths = d.RevenueMonths
	}
	if o.TopGenres <= 0 {
		o.TopGenres = d.TopGenres
	}
	return o
}

var (
	confirmedStatuses = []string{"confirmed", "confirmado", "confirmada"}
	pendingStatuses   = []string{"pending", "pendente"}
	completedStatuses = []string{"completed", "concluido", "concluído", "realizado", "finalizado"}
)

// Assemble builds the dashboard summary for now. It does not modify snap.
func Assemble(snap Snapshot, now time.Time, opts Options) core.DashboardSummary {
	opts = opts.withDefaults()
	upcoming := finance.UpcomingEventsWithin(snap.Events, opts.UpcomingDays, now)

	return core.DashboardSummary{
		GeneratedAt:        now,
		EventStatusSummary: SummarizeEventStatuses(snap.Events),
		Upcoming: core.UpcomingEventsSummary{
			Days:   opts.UpcomingDays,
			Count:  len(upcoming),
			Events: upcoming,
		},
		FinancialStats:   finance.ComputeFinancialStats(snap.Payments),
		RevenueChartData: finance.MonthlyRevenueBuckets(snap.Payments, now, opts.RevenueMonths),
		DJDistribution:   DJDistribution(snap.DJs, opts.TopGenres),
	}
}

// SummarizeEventStatuses counts events per normalized status. Percentages
// are of the total and are 0 for an empty collection.
func SummarizeEventStatuses(events []core.EventRecord) core.EventStatusSummary {
	s := core.EventStatusSummary{Total: len(events)}
	for _, ev := range events {
		status := core.NormalizeStatus(ev.StatusValue())
		switch {
		case slices.Contains(confirmedStatuses, status):
			s.Confirmed++
		case slices.Contains(pendingStatuses, status):
			s.Pending++
		case slices.Contains(completedStatuses, status):
			s.Completed++
		}
	}
	s.ConfirmedPct = percent(s.Confirmed, s.Total)
	s.PendingPct = percent(s.Pending, s.Total)
	s.CompletedPct = percent(s.Completed, s.Total)
	return s
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return core.RoundCurrencyValue(float64(n) * 100 / float64(total))
}

// DJDistribution counts DJs per genre label, most common first, ties by
// label, truncated to top entries.
func DJDistribution(djs []core.DJRecord, top int) []core.GenreCount {
	counts := make(map[string]int)
	for _, dj := range djs {
		label := dj.GenreLabel()
		if label == "" {
			label = OtherGenre
		}
		counts[label]++
	}

	out := make([]core.GenreCount, 0, len(counts))
	for genre, n := range counts {
		out = append(out, core.GenreCount{Genre: genre, Count: n})
	}
	slices.SortFunc(out, func(a, b core.GenreCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Genre, b.Genre)
	})
	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out
}
