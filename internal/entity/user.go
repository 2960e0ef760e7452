package entity

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account for data transfer between layers.
type User struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Timezone    string    `json:"timezone"` // IANA name or fixed offset like "-05:00"
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
