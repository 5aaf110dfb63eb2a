package history

import (
	"time"
)

// Record is one completed execution of a workout template.
type Record struct {
	ID              int       `json:"id"`
	UserID          int       `json:"userId"`
	TemplateID      int       `json:"templateId"`
	ExecutedAt      time.Time `json:"executedAt"`
	DurationSeconds *int      `json:"durationSeconds,omitempty"`
	TotalVolume     *float64  `json:"totalVolume,omitempty"`
	Notes           *string   `json:"notes,omitempty"`

	// filled from the template when listing, empty if it no longer exists
	TemplateTitle string `json:"templateTitle,omitempty"`
	SplitLabel    string `json:"splitLabel,omitempty"`
}

type ListParams struct {
	UserID     int
	TemplateID *int
	Limit      int
	Offset     int
}
