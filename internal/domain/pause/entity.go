// internal/domain/pause/entity.go
package pause

import "time"

// PauseInterval is a period during which a client's contract clock is frozen.
type PauseInterval struct {
	ID           string     `json:"id"`
	ClientID     string     `json:"client_id"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"` // nil while open
	Reason       string     `json:"reason"`
	DaysDuration *int       `json:"days_duration,omitempty"`
	Applied      bool       `json:"applied"`
	CreatedBy    string     `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (p *PauseInterval) IsOpen() bool { return p.EndDate == nil }
