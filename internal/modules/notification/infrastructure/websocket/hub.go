package websocket

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "notification_ws_clients",
	Help: "Open notification websocket connections",
})

type UnicastMessage struct {
	UserID  uuid.UUID
	Message []byte
}

// Hub tracks open sockets per user and routes notifications to them.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	clients map[uuid.UUID]map[*Client]struct{}

	unicast    chan UnicastMessage
	register   chan *Client
	unregister chan *Client

	stop     chan struct{}
	stopOnce sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		unicast:    make(chan UnicastMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]struct{})
			}
			h.clients[client.userID][client] = struct{}{}
			connectedClients.Inc()
			log.Printf("[WebSocket Hub] Client registered: %v (User: %s)", client.remoteAddr(), client.userID)
		case client := <-h.unregister:
			if h.remove(client) {
				log.Printf("[WebSocket Hub] Client unregistered: %v (User: %s)", client.remoteAddr(), client.userID)
			}
		case msg := <-h.unicast:
			for client := range h.clients[msg.UserID] {
				select {
				case client.send <- msg.Message:
				default:
					// Slow consumer.
					h.remove(client)
				}
			}
		case <-h.stop:
			log.Println("[WebSocket Hub] Stopping hub")
			for _, set := range h.clients {
				for client := range set {
					h.remove(client)
				}
			}
			return
		}
	}
}

func (h *Hub) remove(client *Client) bool {
	set, ok := h.clients[client.userID]
	if !ok {
		return false
	}
	if _, ok := set[client]; !ok {
		return false
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	close(client.send)
	connectedClients.Dec()
	return true
}

// SendToUser queues a message for every open socket of userID. It returns once the
// hub has taken the message or has stopped.
func (h *Hub) SendToUser(userID uuid.UUID, message []byte) {
	select {
	case h.unicast <- UnicastMessage{UserID: userID, Message: message}:
	case <-h.stop:
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}
