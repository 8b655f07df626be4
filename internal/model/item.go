package model

import "time"

// FoundItem represents a single reported lost-and-found record.
type FoundItem struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	FoundLocation   string    `json:"found_location"`
	DepositLocation string    `json:"deposit_location"`
	FoundDate       string    `json:"found_date"`
	FoundTime       string    `json:"found_time"`
	Status          string    `json:"status"`
	ReporterID      int64     `json:"reporter_id"`
	CreatedAt       time.Time `json:"created_at"`

	// Reporter display fields, joined from the profiles table on listing.
	ReporterName  string `json:"reporter_name,omitempty"`
	ReporterEmail string `json:"reporter_email,omitempty"`
}

// Item statuses, in lifecycle order.
const (
	StatusFound    = "found"
	StatusClaimed  = "claimed"
	StatusReturned = "returned"
)

// statusRank orders the lifecycle. Unknown statuses rank 0.
var statusRank = map[string]int{
	StatusFound:    1,
	StatusClaimed:  2,
	StatusReturned: 3,
}

// StatusKnown reports whether status is one of the three lifecycle values.
func StatusKnown(status string) bool {
	return statusRank[status] > 0
}

// CanTransition reports whether an item may move from one status to the next.
// Transitions are forward-only and single-step: found → claimed → returned.
func CanTransition(from, to string) bool {
	f, t := statusRank[from], statusRank[to]
	return f > 0 && t > 0 && t == f+1
}

// StatusEvent records a single status transition for auditing.
type StatusEvent struct {
	ID         int64     `json:"id"`
	ItemID     int64     `json:"item_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ChangedBy  int64     `json:"changed_by"`
	ChangedAt  time.Time `json:"changed_at"`

	ChangedByName string `json:"changed_by_name,omitempty"`
}
