package finance

import (
	"math"
	"time"

	"portalunk/internal/core"
)

// ComputeFinancialStats folds a payment collection into revenue totals.
//
// Every amount counts toward TotalRevenue. paid/pago feed PaidRevenue;
// pending/pendente/overdue/atrasado feed PendingRevenue and PendingCount.
// Other labels (rejected, unknown) count only in the total. Unparseable
// amounts count as zero.
func ComputeFinancialStats(payments []core.PaymentRecord) core.FinancialStats {
	var total, paid, pending, commission float64
	pendingCount := 0

	for _, p := range payments {
		amount := p.Amount.FloatOr(0)
		total += amount

		switch {
		case core.IsPaidStatus(p.Status):
			paid += amount
		case core.IsPendingStatus(p.Status):
			pending += amount
			pendingCount++
		}

		commission += ResolveCommission(p)
	}

	return core.FinancialStats{
		TotalRevenue:    core.RoundCurrencyValue(total),
		PaidRevenue:     core.RoundCurrencyValue(paid),
		PendingRevenue:  core.RoundCurrencyValue(pending),
		PendingCount:    pendingCount,
		TotalCommission: core.RoundCurrencyValue(commission),
		NetRevenue:      core.RoundCurrencyValue(math.Max(0, total-commission)),
	}
}

// IsOverdue reports whether an unpaid payment is past its due date.
//
// Comparison is by calendar day in now's location: the due day's end must
// fall before today's start, so a payment due today is never overdue.
// Payments whose due date cannot be parsed are never overdue.
func IsOverdue(p core.PaymentRecord, now time.Time) bool {
	if core.IsPaidStatus(p.Status) {
		return false
	}
	due, ok := core.ParseTime(p.DueDateOrEventDate(), now.Location())
	if !ok {
		return false
	}
	return core.EndOfDay(due.In(now.Location())).Before(core.StartOfDay(now))
}

// ComputeProducerStats is the producer-facing variant of
// ComputeFinancialStats. Unpaid payments past their due day, or already
// labelled overdue, move from pending to overdue.
func ComputeProducerStats(payments []core.PaymentRecord, now time.Time) core.ProducerStats {
	var total, paid, pending, overdue float64
	var pendingCount, overdueCount int

	for _, p := range payments {
		amount := p.Amount.FloatOr(0)
		total += amount

		switch {
		case core.IsPaidStatus(p.Status):
			paid += amount
		case core.IsOverdueStatus(p.Status) || (core.IsPendingStatus(p.Status) && IsOverdue(p, now)):
			overdue += amount
			overdueCount++
		case core.IsPendingStatus(p.Status):
			pending += amount
			pendingCount++
		}
	}

	return core.ProducerStats{
		TotalRevenue:   core.RoundCurrencyValue(total),
		PaidRevenue:    core.RoundCurrencyValue(paid),
		PendingRevenue: core.RoundCurrencyValue(pending),
		OverdueRevenue: core.RoundCurrencyValue(overdue),
		PendingCount:   pendingCount,
		OverdueCount:   overdueCount,
	}
}
