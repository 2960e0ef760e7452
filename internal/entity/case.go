package entity

import (
	"time"

	"github.com/google/uuid"
)

// Party is a person involved in a case other than the children.
type Party struct {
	Name string `json:"name"`
	Role string `json:"role"` // e.g. "self", "coparent", "attorney"
}

// Child is a child covered by a case.
type Child struct {
	Name string `json:"name"`
	Age  *int   `json:"age,omitempty"`
}

// CourtDate is an upcoming or past hearing.
type CourtDate struct {
	Date        string `json:"date"` // YYYY-MM-DD
	Description string `json:"description"`
}

// Case holds the metadata that frames extraction for a user's matter.
type Case struct {
	ID           uuid.UUID   `json:"id"`
	UserID       uuid.UUID   `json:"user_id"`
	Title        string      `json:"title"`
	Jurisdiction string      `json:"jurisdiction"`
	Parties      []Party     `json:"parties"`
	Children     []Child     `json:"children"`
	Goals        []string    `json:"goals"`
	RiskFlags    []string    `json:"risk_flags"`
	CourtDates   []CourtDate `json:"court_dates"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
