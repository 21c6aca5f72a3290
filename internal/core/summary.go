package core

import (
	"fmt"
	"time"
)

// FinancialStats is derived from a payment collection; never persisted.
type FinancialStats struct {
	TotalRevenue    float64 `json:"totalRevenue"`
	PaidRevenue     float64 `json:"paidRevenue"`
	PendingRevenue  float64 `json:"pendingRevenue"`
	PendingCount    int     `json:"pendingCount"`
	TotalCommission float64 `json:"totalCommission"`
	NetRevenue      float64 `json:"netRevenue"`
}

// ProducerStats is the producer-facing view, with overdue split out.
type ProducerStats struct {
	TotalRevenue   float64 `json:"totalRevenue"`
	PaidRevenue    float64 `json:"paidRevenue"`
	PendingRevenue float64 `json:"pendingRevenue"`
	OverdueRevenue float64 `json:"overdueRevenue"`
	PendingCount   int     `json:"pendingCount"`
	OverdueCount   int     `json:"overdueCount"`
}

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int
	Month time.Month
}

var shortMonthsPT = [...]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

// MonthKeyOf returns the month containing t, in t's location.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// Label is the pt-BR short month name, e.g. "mar". Display only.
func (k MonthKey) Label() string {
	if k.Month < time.January || k.Month > time.December {
		return ""
	}
	return shortMonthsPT[k.Month-1]
}

// LongLabel adds the two-digit year, e.g. "mar/25".
func (k MonthKey) LongLabel() string {
	return fmt.Sprintf("%s/%02d", k.Label(), k.Year%100)
}

// AddMonths shifts the key by n months.
func (k MonthKey) AddMonths(n int) MonthKey {
	t := time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// MonthlyRevenueBucket is the paid revenue of one month of the window.
type MonthlyRevenueBucket struct {
	Key       MonthKey `json:"-"`
	Year      int      `json:"year"`
	Month     int      `json:"month"`
	Label     string   `json:"label"`
	LongLabel string   `json:"longLabel"`
	Total     float64  `json:"total"`
}

// EventStatusSummary counts events per normalized status.
type EventStatusSummary struct {
	Total        int     `json:"total"`
	Confirmed    int     `json:"confirmed"`
	Pending      int     `json:"pending"`
	Completed    int     `json:"completed"`
	ConfirmedPct float64 `json:"confirmedPct"`
	PendingPct   float64 `json:"pendingPct"`
	CompletedPct float64 `json:"completedPct"`
}

// UpcomingEventsSummary lists events within the next Days days.
type UpcomingEventsSummary struct {
	Days   int           `json:"days"`
	Count  int           `json:"count"`
	Events []EventRecord `json:"events"`
}

// GenreCount is one bar of the DJ distribution chart.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// DashboardSummary is the view model served to the presentation layer.
type DashboardSummary struct {
	GeneratedAt        time.Time              `json:"generatedAt"`
	EventStatusSummary EventStatusSummary     `json:"eventStatusSummary"`
	Upcoming           UpcomingEventsSummary  `json:"upcomingEventsSummary"`
	FinancialStats     FinancialStats         `json:"financialStats"`
	RevenueChartData   []MonthlyRevenueBucket `json:"revenueChartData"`
	DJDistribution     []GenreCount           `json:"djDistribution"`
}

// RevenueReport is the exported monthly report.
type RevenueReport struct {
	GeneratedAt time.Time              `json:"generatedAt"`
	Months      []MonthlyRevenueBucket `json:"months"`
	Stats       FinancialStats         `json:"stats"`
}
