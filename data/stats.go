package data

// Stats aggregates the catalog. Books without a publisher are left out of ByPublisher.
type Stats struct {
	Total       int            `json:"total"`
	Available   int            `json:"available"`
	Loaned      int            `json:"loaned"`
	ByPublisher map[string]int `json:"by_publisher"`
}
