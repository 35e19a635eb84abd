// internal/domain/pause/dto.go
package pause

import "time"

type StartPauseRequest struct {
	Reason    string     `json:"reason"`
	PauseDate *time.Time `json:"pause_date"`
}

type EndPauseResponse struct {
	ClientID        string     `json:"client_id"`
	DaysElapsed     int        `json:"days_elapsed"`
	ContractEndDate *time.Time `json:"contract_end_date,omitempty"`
}
