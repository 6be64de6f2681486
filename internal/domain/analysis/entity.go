package analysis

import "time"

// RecordID identifier type
type RecordID string

// Record is a persisted analysis. It is written once after a successful parse
// and never mutated.
type Record struct {
	ID        RecordID  `json:"id"`
	ImageURL  string    `json:"image_url"`
	Result    Result    `json:"analysis_result"`
	CreatedAt time.Time `json:"created_at"`
}
