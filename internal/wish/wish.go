package wish

import "time"

// Status values a wish moves through on the backend.
const (
	StatusPending    = "pending"
	StatusAccepted   = "accepted"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Location is a resolved point with a display address. Manual address
// entry produces a degenerate value with zero coordinates.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// VoiceNote references a recorded note by local file path. Audio bytes
// are never uploaded; only counts travel in the payload.
type VoiceNote struct {
	Path            string
	DurationSeconds int
}

// Wish is a wish record as returned by the API.
type Wish struct {
	ID            string      `json:"wish_id"`
	UserID        string      `json:"user_id"`
	Type          Category    `json:"wish_type"`
	SubCategory   SubCategory `json:"sub_category,omitempty"`
	Title         string      `json:"title"`
	Description   string      `json:"description,omitempty"`
	Location      Location    `json:"location"`
	RadiusKm      float64     `json:"radius_km"`
	Remuneration  float64     `json:"remuneration"`
	IsImmediate   bool        `json:"is_immediate"`
	ScheduledTime *time.Time  `json:"scheduled_time,omitempty"`
	Status        string      `json:"status"`
	AcceptedBy    string      `json:"accepted_by,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// CreateRequest is the POST/PUT body for creating or updating a wish.
type CreateRequest struct {
	Type           Category    `json:"wish_type"`
	SubCategory    SubCategory `json:"sub_category,omitempty"`
	Title          string      `json:"title"`
	Description    string      `json:"description,omitempty"`
	Location       Location    `json:"location"`
	RadiusKm       float64     `json:"radius_km"`
	Remuneration   float64     `json:"remuneration"`
	IsImmediate    bool        `json:"is_immediate"`
	ScheduledTime  *time.Time  `json:"scheduled_time"`
	ImageCount     int         `json:"image_count"`
	VoiceNoteCount int         `json:"voice_note_count"`
}
