// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing         EventType = "ping"
	EventTypePong         EventType = "pong"
	EventTypeConnected    EventType = "connected"
	EventTypeError        EventType = "error"
	EventTypeSubscribe    EventType = "subscribe"
	EventTypeUnsubscribe  EventType = "unsubscribe"

	// Contract events (server -> client)
	EventContractActivated   EventType = "contract.activated"
	EventContractPaused      EventType = "contract.paused"
	EventContractResumed     EventType = "contract.resumed"
	EventContractSyncPending EventType = "contract.sync_pending"
	EventContractUpdated     EventType = "contract.updated"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType              `json:"type"`
	Data      interface{}            `json:"data,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	ID        string                 `json:"id,omitempty"`
}

type ChannelType string

const (
	// ChannelContracts receives every contract event.
	ChannelContracts ChannelType = "contracts"
	// ChannelCoachPrefix + coach id receives events for one coach's clients.
	ChannelCoachPrefix ChannelType = "coach:"
)

func CoachChannel(coachID string) ChannelType {
	return ChannelCoachPrefix + ChannelType(coachID)
}

type SubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ContractEvent is published whenever a command changes a contract.
type ContractEvent struct {
	Type            EventType  `json:"type"`
	ClientID        string     `json:"client_id"`
	CoachID         string     `json:"coach_id,omitempty"`
	Phase           int        `json:"phase,omitempty"`
	ContractEndDate *time.Time `json:"contract_end_date,omitempty"`
	Status          string     `json:"status,omitempty"`
	DaysElapsed     int        `json:"days_elapsed,omitempty"`
	Message         string     `json:"message,omitempty"`
}

func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        ulid.Make().String(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
