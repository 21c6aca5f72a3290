package http

import (
	"net/http"

	"portalunk/internal/core"
	"portalunk/internal/dashboard"
)

// handleDashboard returns the full dashboard summary. ?days= widens the
// upcoming window and ?months= the revenue chart.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	params := ParseWindowParams(r.URL.Query())
	summary, err := s.deps.Dashboard.Summary(r.Context(), dashboard.Options{
		UpcomingDays:  params.Days,
		RevenueMonths: params.Months,
	})
	if err != nil {
		writeError(w, r, "dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type revenueChartResponse struct {
	Months []core.MonthlyRevenueBucket `json:"months"`
}

func (s *Server) handleRevenueChart(w http.ResponseWriter, r *http.Request) {
	params := ParseWindowParams(r.URL.Query())
	months, err := s.deps.Dashboard.RevenueChart(r.Context(), params.Months)
	if err != nil {
		writeError(w, r, "revenue_chart", err)
		return
	}
	if months == nil {
		months = []core.MonthlyRevenueBucket{}
	}
	writeJSON(w, http.StatusOK, revenueChartResponse{Months: months})
}

func (s *Server) handleUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	params := ParseWindowParams(r.URL.Query())
	upcoming, err := s.deps.Dashboard.Upcoming(r.Context(), params.Days)
	if err != nil {
		writeError(w, r, "upcoming_events", err)
		return
	}
	writeJSON(w, http.StatusOK, upcoming)
}

type producerFinanceResponse struct {
	ProducerID string             `json:"producerId"`
	Stats      core.ProducerStats `json:"stats"`
}

// handleProducerFinance returns the revenue and overdue totals of the
// events a producer booked.
func (s *Server) handleProducerFinance(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	stats, err := s.deps.Payments.ProducerStats(r.Context(), id, s.location)
	if err != nil {
		writeError(w, r, "producer_finance", err)
		return
	}
	writeJSON(w, http.StatusOK, producerFinanceResponse{ProducerID: id, Stats: stats})
}
