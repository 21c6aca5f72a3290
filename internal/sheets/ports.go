// Package sheets renders the revenue report as a spreadsheet grid.
package sheets

import (
	"context"
	"fmt"

	"portalunk/internal/core"
)

// ReportWriter exports a revenue report and returns a reference to where it
// was written.
type ReportWriter interface {
	WriteReport(ctx context.Context, r core.RevenueReport) (ref string, err error)
}

const reportTimeLayout = "02/01/2006 15:04"

// ReportRows lays the report out as rows of cells. Money cells are BRL
// formatted.
func ReportRows(r core.RevenueReport) [][]string {
	rows := [][]string{
		{"Relatório de receita", r.GeneratedAt.Format(reportTimeLayout)},
		{},
		{"Mês", "Receita paga"},
	}
	for _, m := range r.Months {
		rows = append(rows, []string{m.LongLabel, core.FormatBRL(m.Total)})
	}
	s := r.Stats
	rows = append(rows,
		[]string{},
		[]string{"Receita total", core.FormatBRL(s.TotalRevenue)},
		[]string{"Receita recebida", core.FormatBRL(s.PaidRevenue)},
		[]string{"Receita pendente", core.FormatBRL(s.PendingRevenue)},
		[]string{"Pagamentos pendentes", fmt.Sprint(s.PendingCount)},
		[]string{"Comissão total", core.FormatBRL(s.TotalCommission)},
		[]string{"Receita líquida", core.FormatBRL(s.NetRevenue)},
	)
	return rows
}
