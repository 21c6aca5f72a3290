// Package memory keeps exported revenue reports in process. It backs the
// report worker when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"portalunk/internal/core"
	ports "portalunk/internal/sheets"
)

type Store struct {
	mu      sync.Mutex
	reports []core.RevenueReport
	grids   [][][]string
}

var _ ports.ReportWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// WriteReport stores the report with its rendered grid and returns a
// synthetic reference.
func (s *Store) WriteReport(ctx context.Context, r core.RevenueReport) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	s.grids = append(s.grids, ports.ReportRows(r))
	return fmt.Sprintf("mem:%d", len(s.reports)), nil
}

// Last returns the most recent report and its grid.
func (s *Store) Last() (core.RevenueReport, [][]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reports) == 0 {
		return core.RevenueReport{}, nil, false
	}
	i := len(s.reports) - 1
	return s.reports[i], s.grids[i], true
}

// Count is the number of reports written so far.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}
