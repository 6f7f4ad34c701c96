package order

// QueryOrdersModel represents filter parameters for querying orders.
type QueryOrdersModel struct {
	CustomerID string   `json:"customerId,omitempty"`
	Statuses   []Status `json:"statuses,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	Offset     int      `json:"offset,omitempty"`
}

// Summary counts orders per status; every status is present.
type Summary map[Status]int64

// NewSummary returns a summary with every status set to zero.
func NewSummary() Summary {
	s := make(Summary, len(Statuses))
	for _, status := range Statuses {
		s[status] = 0
	}

	return s
}
