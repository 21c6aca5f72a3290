package finance

import (
	"slices"
	"time"

	"portalunk/internal/core"
)

// DefaultRevenueMonths is the trailing window of the revenue chart.
const DefaultRevenueMonths = 6

// UpcomingEventsWithin returns the events dated within
// [start of today, start of today + days at 23:59:59], in now's location,
// sorted ascending by date. Ties keep their input order. Events whose date
// does not parse are left out.
func UpcomingEventsWithin(events []core.EventRecord, days int, now time.Time) []core.EventRecord {
	loc := now.Location()
	start := core.StartOfDay(now)
	limit := core.EndOfDay(start.AddDate(0, 0, days))

	type dated struct {
		at time.Time
		ev core.EventRecord
	}
	in := make([]dated, 0, len(events))
	for _, ev := range events {
		at, ok := core.ParseTime(ev.EventDate, loc)
		if !ok {
			continue
		}
		if at.Before(start) || at.After(limit) {
			continue
		}
		in = append(in, dated{at: at, ev: ev})
	}

	slices.SortStableFunc(in, func(a, b dated) int {
		return a.at.Compare(b.at)
	})

	out := make([]core.EventRecord, len(in))
	for i, d := range in {
		out[i] = d.ev
	}
	return out
}

// MonthlyRevenueBuckets sums paid revenue per calendar month over the
// trailing monthCount months ending at now's month, oldest first.
//
// All buckets exist even when empty. Buckets are keyed by (year, month);
// labels are for display only. Payments without a parseable paid date, or
// paid outside the window, are dropped.
func MonthlyRevenueBuckets(payments []core.PaymentRecord, now time.Time, monthCount int) []core.MonthlyRevenueBucket {
	if monthCount <= 0 {
		monthCount = DefaultRevenueMonths
	}
	loc := now.Location()
	current := core.MonthKeyOf(now)

	buckets := make([]core.MonthlyRevenueBucket, monthCount)
	index := make(map[core.MonthKey]int, monthCount)
	for i := range buckets {
		key := current.AddMonths(i - monthCount + 1)
		buckets[i] = core.MonthlyRevenueBucket{
			Key:       key,
			Year:      key.Year,
			Month:     int(key.Month),
			Label:     key.Label(),
			LongLabel: key.LongLabel(),
		}
		index[key] = i
	}

	for _, p := range payments {
		if !core.IsPaidStatus(p.Status) {
			continue
		}
		paidAt, ok := core.ParseTime(p.PaidDate(), loc)
		if !ok {
			continue
		}
		i, ok := index[core.MonthKeyOf(paidAt.In(loc))]
		if !ok {
			continue
		}
		buckets[i].Total += p.Amount.FloatOr(0)
	}

	for i := range buckets {
		buckets[i].Total = core.RoundCurrencyValue(buckets[i].Total)
	}
	return buckets
}
