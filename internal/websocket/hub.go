// internal/websocket/hub.go
package websocket

import (
	"context"
	"fmt"
	"sync"

	wstypes "contracts-service/internal/domain/websocket"
	"contracts-service/internal/pkg/jwt"

	"go.uber.org/zap"
)

// TokenVerifier is satisfied by *jwt.Verifier.
type TokenVerifier interface {
	Verify(token string) (*jwt.Claims, error)
}

// Hub fans contract events out to connected staff dashboards.
type Hub struct {
	// Registered clients by staff id
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	verifier TokenVerifier
	logger   *zap.Logger
}

type BroadcastMessage struct {
	Channels []wstypes.ChannelType
	Message  *wstypes.WSMessage
}

func NewHub(verifier TokenVerifier, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan *BroadcastMessage, 256),
		verifier:   verifier,
		logger:     logger,
	}
}

// AuthenticateClient validates the staff token presented on connect.
func (h *Hub) AuthenticateClient(token string) (*ClientAuth, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	claims, err := h.verifier.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &ClientAuth{
		Actor: claims.Actor(),
		Name:  claims.Name,
		Roles: claims.Roles,
	}, nil
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

// PublishContractEvent queues ev for every client subscribed to the contracts channel
// or to the owning coach's channel. It never blocks the calling command; when the
// queue is full the event is dropped and logged.
func (h *Hub) PublishContractEvent(ev wstypes.ContractEvent) {
	channels := []wstypes.ChannelType{wstypes.ChannelContracts}
	if ev.CoachID != "" {
		channels = append(channels, wstypes.CoachChannel(ev.CoachID))
	}

	msg := &BroadcastMessage{
		Channels: channels,
		Message:  wstypes.NewMessage(ev.Type, ev),
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping event",
			zap.String("type", string(ev.Type)),
			zap.String("client_id", ev.ClientID),
		)
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if h.clients[client.actor] == nil {
		h.clients[client.actor] = make(map[*Client]bool)
	}
	h.clients[client.actor][client] = true
	total := h.totalClients()
	h.mu.Unlock()

	h.logger.Info("websocket client connected",
		zap.String("actor", client.actor),
		zap.Int("total", total),
	)

	// Everyone starts on the global contracts channel.
	client.Subscribe(wstypes.ChannelContracts)
	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"actor":    client.actor,
		"roles":    client.roles,
		"channels": client.Channels(),
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.actor]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	client.Close()
	if len(clients) == 0 {
		delete(h.clients, client.actor)
	}

	h.logger.Info("websocket client disconnected",
		zap.String("actor", client.actor),
		zap.Int("total", h.totalClients()),
	)
}

func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for client := range clients {
			for _, ch := range msg.Channels {
				if client.IsSubscribed(ch) {
					client.SendMessage(msg.Message)
					break
				}
			}
		}
	}
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

// IsUserConnected checks if a staff member has any active connections
func (h *Hub) IsUserConnected(actor string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[actor]) > 0
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for actor, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
		delete(h.clients, actor)
	}
}
