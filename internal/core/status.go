package core

import "strings"

// Payment statuses are open strings compared case-insensitively against
// bilingual sets. Unknown labels are kept as-is.
var (
	paidStatuses    = statusSet("paid", "pago")
	pendingStatuses = statusSet("pending", "pendente", "overdue", "atrasado")
	overdueStatuses = statusSet("overdue", "atrasado")
)

const (
	StatusPaid    = "paid"
	StatusPending = "pending"
)

func statusSet(labels ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return set
}

// NormalizeStatus lower-cases and trims a status label.
func NormalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsPaidStatus reports paid/pago.
func IsPaidStatus(s string) bool {
	_, ok := paidStatuses[NormalizeStatus(s)]
	return ok
}

// IsPendingStatus reports pending/pendente/overdue/atrasado.
func IsPendingStatus(s string) bool {
	_, ok := pendingStatuses[NormalizeStatus(s)]
	return ok
}

// IsOverdueStatus reports a stored overdue/atrasado label.
func IsOverdueStatus(s string) bool {
	_, ok := overdueStatuses[NormalizeStatus(s)]
	return ok
}
