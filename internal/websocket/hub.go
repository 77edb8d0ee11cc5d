package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Client is one connected admin dashboard.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
}

// DonationAlert is pushed to every connected dashboard when a donation
// is recorded.
type DonationAlert struct {
	DonorName     string    `json:"donorName"`
	Amount        float64   `json:"amount"`
	DonationType  string    `json:"donationType"`
	TransactionID string    `json:"transactionId"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Hub fans donation alerts out to all registered clients. All state is
// owned by the Run goroutine; other goroutines only touch the channels.
type Hub struct {
	clients        map[*Client]bool
	Register       chan *Client
	Unregister     chan *Client
	BroadcastAlert chan DonationAlert
}

func NewHub() *Hub {
	return &Hub{
		clients:        make(map[*Client]bool),
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		BroadcastAlert: make(chan DonationAlert, 16),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			log.Debug().Int("clients", len(h.clients)).Msg("donation feed client registered")

		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Debug().Int("clients", len(h.clients)).Msg("donation feed client unregistered")
			}

		case alert := <-h.BroadcastAlert:
			data, err := json.Marshal(alert)
			if err != nil {
				log.Error().Err(err).Msg("failed to marshal donation alert")
				continue
			}

			for client := range h.clients {
				select {
				case client.Send <- data:
				default:
					// Slow consumer, drop it.
					close(client.Send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Notify queues an alert without blocking the caller; if the hub is
// backed up the alert is dropped, the donation itself is already
// persisted.
func (h *Hub) Notify(alert DonationAlert) {
	select {
	case h.BroadcastAlert <- alert:
	default:
		log.Warn().Msg("donation feed backlog full, alert dropped")
	}
}
