package fanout

import (
	"time"
)

/*
QueryResult is the per-service record a fanout run produces. It is created
once per service query, never mutated after construction, and serialized
verbatim into the JSON report.
*/
type QueryResult struct {
	Service       string `json:"service"`
	ServiceName   string `json:"service_name,omitempty"`
	Query         string `json:"query"`
	Method        string `json:"method,omitempty"`
	ExtractedData any    `json:"extracted_data,omitempty"`
	Timestamp     string `json:"timestamp"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`

	// RawHTML holds the page snapshot taken after extraction. It is kept
	// out of the JSON report and consumed only by archival observers.
	RawHTML string `json:"-"`
}

func newResult(service, query string) QueryResult {
	return QueryResult{
		Service:   service,
		Query:     query,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
