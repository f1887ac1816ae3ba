// internal/server/handlers/websocket.go

package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"locbook/internal/adapter/bus"
	"locbook/internal/logging"
	"locbook/internal/metrics"
)

// WebSocketClient is one dashboard listening for catalogue changes
type WebSocketClient struct {
	id                string
	conn              *websocket.Conn
	send              chan []byte
	done              chan struct{}
	closeOnce         sync.Once
	natsSubscriptions []*nats.Subscription
	counted           bool
	config            WebSocketConfig
	log               zerolog.Logger
}

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64

	// Outgoing messages buffered per client before new ones are dropped
	SendBuffer int
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 4096,
		SendBuffer:     64,
	}
}

// eventMessage wraps a bus event for the browser
type eventMessage struct {
	Type    string          `json:"type"`
	Subject string          `json:"subject,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Time    time.Time       `json:"time"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventsWebSocketHandler relays place and config change events to dashboards
func EventsWebSocketHandler(natsConn *nats.Conn, config WebSocketConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if natsConn == nil {
			respondWithError(w, r, http.StatusServiceUnavailable, "Event stream unavailable", nil)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("failed to upgrade to websocket")
			return
		}

		id := uuid.New().String()
		client := &WebSocketClient{
			id:     id,
			conn:   conn,
			send:   make(chan []byte, config.SendBuffer),
			done:   make(chan struct{}),
			config: config,
			log:    logging.With("websocket").With().Str("client_id", id).Logger(),
		}

		if err := client.subscribe(natsConn); err != nil {
			client.log.Error().Err(err).Msg("failed to subscribe to events")
			client.closeConnection()
			return
		}

		metrics.WebSocketConnections.Inc()
		client.counted = true
		client.log.Debug().Msg("websocket connected")

		client.enqueue(mustMarshal(eventMessage{Type: "welcome", Time: time.Now().UTC()}))

		go client.writePump()
		go client.readPump()
	}
}

func mustMarshal(v interface{}) []byte {
	data, _ := json.Marshal(v)
	return data
}

func (c *WebSocketClient) subscribe(natsConn *nats.Conn) error {
	for _, subject := range []string{bus.PlaceEvents, bus.ConfigEvents} {
		sub, err := natsConn.Subscribe(subject, func(msg *nats.Msg) {
			payload := json.RawMessage(msg.Data)
			if !json.Valid(msg.Data) {
				payload = nil
			}
			c.enqueue(mustMarshal(eventMessage{
				Type:    "event",
				Subject: msg.Subject,
				Data:    payload,
				Time:    time.Now().UTC(),
			}))
		})
		if err != nil {
			return err
		}
		c.natsSubscriptions = append(c.natsSubscriptions, sub)
	}
	return nil
}

// enqueue never blocks; a client that falls behind loses events
func (c *WebSocketClient) enqueue(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.log.Warn().Msg("websocket client too slow, dropping event")
	}
}

// readPump drains the connection so pongs and close frames are processed
func (c *WebSocketClient) readPump() {
	defer c.closeConnection()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
	}
}

// writePump pumps queued events to the WebSocket connection
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// closeConnection unsubscribes and closes the socket; safe to call twice
func (c *WebSocketClient) closeConnection() {
	c.closeOnce.Do(func() {
		for _, sub := range c.natsSubscriptions {
			sub.Unsubscribe()
		}
		close(c.done)
		c.conn.Close()

		if c.counted {
			metrics.WebSocketConnections.Dec()
		}
		c.log.Debug().Msg("websocket closed")
	})
}
