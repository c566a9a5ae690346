package api

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/parkpilot-core/internal/geo"
	"github.com/nerrad567/parkpilot-core/internal/infrastructure/config"
	"github.com/nerrad567/parkpilot-core/internal/infrastructure/logging"
	"github.com/nerrad567/parkpilot-core/internal/navigator"
)

// Message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"

	wsSendBufferSize = 256
)

// Event channels a client can subscribe to.
const (
	ChannelVehicleMoved   = "vehicle.moved"
	ChannelVehicleArrived = "vehicle.arrived"
	ChannelDetailChanged  = "detail.changed"
	ChannelRouteSelected  = "route.selected"
)

// stateChannels carry current state rather than one-off events. The hub
// keeps the last message on each and replays it to new subscribers, the
// way the MQTT state topics are retained.
var stateChannels = []string{ChannelVehicleMoved, ChannelDetailChanged, ChannelRouteSelected}

func knownChannel(ch string) bool {
	return ch == ChannelVehicleArrived || slices.Contains(stateChannels, ch)
}

// WSMessage is the envelope for every frame sent to a client.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// wsInbound is a client frame with its payload left undecoded.
type wsInbound struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// WSSubscribePayload is the payload for subscribe/unsubscribe messages.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// Hub fans navigator events out to WebSocket clients. It implements
// navigator.Sink.
type Hub struct {
	cfg     config.WebSocketConfig
	logger  *logging.Logger
	mu      sync.RWMutex
	clients map[*WSClient]struct{}

	retainMu sync.RWMutex
	retained map[string][]byte
}

// WSClient is one connected browser or dashboard.
type WSClient struct {
	hub           *Hub
	conn          *websocket.Conn
	send          chan []byte
	mu            sync.RWMutex
	subscriptions map[string]struct{}
}

// Origin policy is enforced by corsMiddleware.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// NewHub creates an empty hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:      cfg,
		logger:   logger,
		clients:  make(map[*WSClient]struct{}),
		retained: make(map[string][]byte),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", n)
}

// Unregister removes a client and closes its send channel. Only the call
// that actually removes the client closes the channel, so racing with
// closeAll is safe.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	n := len(h.clients)
	h.mu.Unlock()

	if existed {
		close(client.send)
	}
	h.logger.Debug("websocket client disconnected", "clients", n)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to every client subscribed to channel. Messages
// on state channels are also retained for later subscribers.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      WSTypeEvent,
		EventType: channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", "channel", channel, "error", err)
		return
	}

	if slices.Contains(stateChannels, channel) {
		h.retainMu.Lock()
		h.retained[channel] = data
		h.retainMu.Unlock()
	}

	// Client locks are taken after the hub lock is released.
	h.mu.RLock()
	clients := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range clients {
		if c.isSubscribed(channel) {
			c.trySend(data)
			sent++
		}
	}
	if sent > 0 {
		h.logger.Debug("broadcast sent", "channel", channel, "recipients", sent)
	}
}

func (h *Hub) retainedMessage(channel string) ([]byte, bool) {
	h.retainMu.RLock()
	defer h.retainMu.RUnlock()
	data, ok := h.retained[channel]
	return data, ok
}

// VehicleMoved broadcasts a vehicle frame.
func (h *Hub) VehicleMoved(f navigator.VehicleFrame) {
	h.Broadcast(ChannelVehicleMoved, f)
}

// Arrived broadcasts an arrival. Arrivals are not retained.
func (h *Hub) Arrived(e navigator.ArrivalEvent) {
	h.Broadcast(ChannelVehicleArrived, e)
}

// DetailChanged broadcasts a detail view frame.
func (h *Hub) DetailChanged(f navigator.DetailFrame) {
	h.Broadcast(ChannelDetailChanged, f)
}

// RouteSelected broadcasts the route with its GeoJSON line so map clients
// can draw it directly.
func (h *Hub) RouteSelected(r geo.Route) {
	feature, err := r.GeoJSON()
	if err != nil {
		h.logger.Error("failed to encode route", "facility", r.FacilityID, "error", err)
		return
	}
	h.Broadcast(ChannelRouteSelected, map[string]any{
		"route":   r,
		"geojson": json.RawMessage(feature),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		if c.conn != nil {
			c.conn.Close()
		}
		delete(h.clients, c)
	}
}

// handleWebSocket upgrades the request. A new client receives nothing until
// it subscribes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err, "request_id", requestID(r))
		return
	}

	client := &WSClient{
		hub:           s.hub,
		conn:          conn,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
	}
	s.hub.Register(client)

	go client.writePump(s.wsCfg)
	go client.readPump(s.wsCfg)
}

func (c *WSClient) readPump(cfg config.WebSocketConfig) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	wait := time.Duration(cfg.PingInterval+cfg.PongTimeout) * time.Second
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(wait)) }

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	_ = extend()
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			} else {
				c.hub.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		// Browsers that ignore protocol pings still keep the socket open by
		// sending application pings.
		_ = extend()
		c.handleMessage(data)
	}
}

func (c *WSClient) writePump(cfg config.WebSocketConfig) {
	ticker := time.NewTicker(time.Duration(cfg.PingInterval) * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	writeWait := time.Duration(cfg.PongTimeout) * time.Second
	write := func(kind int, data []byte) error {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		return c.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				_ = write(websocket.CloseMessage, nil)
				return
			}
			if err := write(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) handleMessage(data []byte) {
	var msg wsInbound
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("", "invalid JSON message")
		return
	}

	switch msg.Type {
	case WSTypeSubscribe:
		c.handleSubscribe(msg)
	case WSTypeUnsubscribe:
		c.handleUnsubscribe(msg)
	case WSTypePing:
		c.sendResponse(msg.ID, WSTypePong, nil)
	default:
		c.sendError(msg.ID, "unknown message type: "+msg.Type)
	}
}

func decodeChannels(raw json.RawMessage) ([]string, bool) {
	var p WSSubscribePayload
	if len(raw) == 0 || json.Unmarshal(raw, &p) != nil {
		return nil, false
	}
	return p.Channels, true
}

// handleSubscribe adds known channels, reports unknown ones back, then
// replays retained state for the channels just added.
func (c *WSClient) handleSubscribe(msg wsInbound) {
	channels, ok := decodeChannels(msg.Payload)
	if !ok {
		c.sendError(msg.ID, "invalid subscribe payload")
		return
	}

	accepted := make([]string, 0, len(channels))
	var rejected []string
	c.mu.Lock()
	for _, ch := range channels {
		if !knownChannel(ch) {
			rejected = append(rejected, ch)
			continue
		}
		if _, dup := c.subscriptions[ch]; !dup {
			c.subscriptions[ch] = struct{}{}
			accepted = append(accepted, ch)
		}
	}
	c.mu.Unlock()

	c.hub.logger.Debug("websocket client subscribed", "channels", accepted, "rejected", rejected)

	resp := map[string]any{"subscribed": accepted}
	if len(rejected) > 0 {
		resp["rejected"] = rejected
	}
	c.sendResponse(msg.ID, WSTypeResponse, resp)

	for _, ch := range accepted {
		if data, ok := c.hub.retainedMessage(ch); ok {
			c.trySend(data)
		}
	}
}

func (c *WSClient) handleUnsubscribe(msg wsInbound) {
	channels, ok := decodeChannels(msg.Payload)
	if !ok {
		c.sendError(msg.ID, "invalid unsubscribe payload")
		return
	}

	c.mu.Lock()
	for _, ch := range channels {
		delete(c.subscriptions, ch)
	}
	c.mu.Unlock()

	c.sendResponse(msg.ID, WSTypeResponse, map[string]any{"unsubscribed": channels})
}

// trySend drops the message when the client is slow or already gone.
func (c *WSClient) trySend(data []byte) {
	defer func() {
		_ = recover() // send on a channel closed by Unregister
	}()

	select {
	case c.send <- data:
	default:
	}
}

func (c *WSClient) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[channel]
	return ok
}

func (c *WSClient) sendResponse(id, msgType string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		return
	}
	c.trySend(data)
}

func (c *WSClient) sendError(id, message string) {
	c.sendResponse(id, WSTypeError, map[string]string{"message": message})
}
