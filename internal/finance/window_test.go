package finance

import (
	"testing"
	"time"

	"portalunk/internal/core"
)

func TestUpcomingEventsWithin_Boundaries(t *testing.T) {
	now := time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC)
	day := func(offset int) time.Time { return core.StartOfDay(now).AddDate(0, 0, offset) }

	events := []core.EventRecord{
		{ID: "yesterday", EventDate: day(-1).Format("2006-01-02")},
		{ID: "last-second", EventDate: core.EndOfDay(day(15)).Format("2006-01-02T15:04:05")},
		{ID: "too-far", EventDate: day(16).Format("2006-01-02")},
		{ID: "bad", EventDate: "bad-date"},
		{ID: "today-morning", EventDate: day(0).Format("2006-01-02")},
	}

	got := UpcomingEventsWithin(events, 15, now)

	ids := make([]string, len(got))
	for i, ev := range got {
		ids[i] = ev.ID
	}
	want := []string{"today-morning", "last-second"}
	if len(ids) != len(want) {
		t.Fatalf("UpcomingEventsWithin() ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestUpcomingEventsWithin_Scenario(t *testing.T) {
	now := time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)
	today := now.Format("2006-01-02")

	events := []core.EventRecord{
		{ID: "a", EventDate: today},
		{ID: "b", EventDate: now.AddDate(0, 0, 20).Format("2006-01-02")},
		{ID: "c", EventDate: "bad-date"},
	}

	got := UpcomingEventsWithin(events, 15, now)
	if len(got) != 1 || got[0].ID != "a" || got[0].EventDate != today {
		t.Errorf("UpcomingEventsWithin() = %+v, want only event a dated %s", got, today)
	}
}

func TestUpcomingEventsWithin_StableTies(t *testing.T) {
	now := time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)
	events := []core.EventRecord{
		{ID: "late", EventDate: "2025-06-05"},
		{ID: "tie-1", EventDate: "2025-06-03"},
		{ID: "early", EventDate: "2025-06-02"},
		{ID: "tie-2", EventDate: "2025-06-03"},
		{ID: "tie-3", EventDate: "2025-06-03"},
	}

	got := UpcomingEventsWithin(events, 15, now)

	want := []string{"early", "tie-1", "tie-2", "tie-3", "late"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d] = %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestUpcomingEventsWithin_LocalZone(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	// 22:00 in Sao Paulo is already the next UTC day.
	now := time.Date(2025, time.June, 1, 22, 0, 0, 0, loc)

	events := []core.EventRecord{
		{ID: "today", EventDate: "2025-06-01"},
		{ID: "limit", EventDate: "2025-06-03"},
		{ID: "out", EventDate: "2025-06-04"},
	}

	got := UpcomingEventsWithin(events, 2, now)
	if len(got) != 2 || got[0].ID != "today" || got[1].ID != "limit" {
		t.Errorf("UpcomingEventsWithin() = %+v", got)
	}
}

func TestMonthlyRevenueBuckets(t *testing.T) {
	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	payments := []core.PaymentRecord{
		{Amount: core.NumberOf(100.0), Status: "paid", PaidAt: core.StringPtr("2025-03-02")},
		{Amount: core.NumberOf("50,25"), Status: "pago", PaidAt: core.StringPtr("2025-03-20T10:00:00Z")},
		{Amount: core.NumberOf(70.0), Status: "paid", CreatedAt: "2025-01-05T12:00:00Z"},
		{Amount: core.NumberOf(999.0), Status: "pending", PaidAt: core.StringPtr("2025-03-02")},
		{Amount: core.NumberOf(30.0), Status: "paid", PaidAt: core.StringPtr("2024-08-31")},
		{Amount: core.NumberOf(15.0), Status: "paid", PaidAt: core.StringPtr("2024-10-01")},
		{Amount: core.NumberOf(5.0), Status: "paid"},
	}

	got := MonthlyRevenueBuckets(payments, now, 6)

	want := []struct {
		label string
		year  int
		total float64
	}{
		{"out", 2024, 15},
		{"nov", 2024, 0},
		{"dez", 2024, 0},
		{"jan", 2025, 70},
		{"fev", 2025, 0},
		{"mar", 2025, 150.25},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Label != w.label || got[i].Year != w.year || got[i].Total != w.total {
			t.Errorf("bucket[%d] = %+v, want %s/%d %v", i, got[i], w.label, w.year, w.total)
		}
	}
}

func TestMonthlyRevenueBuckets_AlwaysMonthCount(t *testing.T) {
	now := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)

	for _, n := range []int{1, 3, 6, 12, 24} {
		got := MonthlyRevenueBuckets(nil, now, n)
		if len(got) != n {
			t.Errorf("monthCount %d: got %d buckets", n, len(got))
		}
		for _, b := range got {
			if b.Total != 0 {
				t.Errorf("monthCount %d: bucket %s has %v", n, b.LongLabel, b.Total)
			}
		}
	}

	if got := MonthlyRevenueBuckets(nil, now, 0); len(got) != DefaultRevenueMonths {
		t.Errorf("default window = %d buckets, want %d", len(got), DefaultRevenueMonths)
	}
}

func TestMonthlyRevenueBuckets_NoCollisionAcrossYears(t *testing.T) {
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	payments := []core.PaymentRecord{
		{Amount: core.NumberOf(10.0), Status: "paid", PaidAt: core.StringPtr("2024-03-10")},
		{Amount: core.NumberOf(20.0), Status: "paid", PaidAt: core.StringPtr("2025-03-10")},
	}

	got := MonthlyRevenueBuckets(payments, now, 13)

	first, last := got[0], got[len(got)-1]
	if first.Label != last.Label {
		t.Fatalf("setup: expected same label, got %q and %q", first.Label, last.Label)
	}
	if first.Total != 10 || last.Total != 20 {
		t.Errorf("totals = %v / %v, want 10 / 20", first.Total, last.Total)
	}
	if first.LongLabel != "mar/24" || last.LongLabel != "mar/25" {
		t.Errorf("long labels = %q / %q", first.LongLabel, last.LongLabel)
	}
}
