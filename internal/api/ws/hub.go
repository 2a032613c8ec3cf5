package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/flowpay/helpdesk/internal/events"
)

// Hub fans domain events out to connected dashboard sockets. It is a passive
// observer of the dispatcher; it never calls back into the services. A client
// that is offline when an event fires simply misses it and is expected to
// refresh from the REST endpoints on reconnect.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	logger  *zap.Logger
}

type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// NewHub creates the hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		logger:  logger,
	}
}

// Subscribe registers the hub for every event type on the dispatcher.
func (h *Hub) Subscribe(dispatcher events.Dispatcher) {
	for _, eventType := range events.AllTypes() {
		dispatcher.Subscribe(eventType, h.handleEvent)
	}
}

// Upgrade rejects plain HTTP requests on the socket route.
func (h *Hub) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler accepts a dashboard connection and holds it until the client goes
// away. Inbound messages are drained and ignored; the socket is push-only.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		h.add(conn)
		defer h.remove(conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}

func (h *Hub) handleEvent(_ context.Context, event events.Event) error {
	payload, err := json.Marshal(frame{Event: string(event.Type), Data: event.Payload})
	if err != nil {
		h.logger.Error("event marshal failed", zap.String("type", string(event.Type)), zap.Error(err))
		return err
	}
	h.broadcast(payload)
	return nil
}

func (h *Hub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Debug("dropping dashboard client", zap.Error(err))
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
	h.logger.Info("dashboard client connected", zap.Int("clients", len(h.clients)))
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		_ = conn.Close()
		delete(h.clients, conn)
	}
	h.logger.Info("dashboard client disconnected", zap.Int("clients", len(h.clients)))
}
