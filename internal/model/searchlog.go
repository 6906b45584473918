package model

import "time"

// SearchLog directions.
const (
	LogDirectionRequest  = "request"
	LogDirectionResponse = "response"
)

// SearchLog is one append-only audit row per outbound provider call.
// The pipeline only ever writes these; they are read back through the
// operational API, never by the pipeline itself.
type SearchLog struct {
	ID         string    `json:"id"`
	Provider   string    `json:"provider"`
	Direction  string    `json:"direction"`
	Query      string    `json:"query"`
	StatusCode *int      `json:"status_code,omitempty"`
	Payload    string    `json:"payload"`
	CreatedAt  time.Time `json:"created_at"`
}
