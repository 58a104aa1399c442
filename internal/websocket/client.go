// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/guardian/internal/detection"
	"github.com/tomtom215/guardian/internal/logging"
	"github.com/tomtom215/guardian/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// clientIDCounter orders clients for deterministic broadcast.
var clientIDCounter atomic.Uint64

// Filter selects which reports a client receives.
type Filter struct {
	Detections []string        `json:"detections,omitempty"`
	MinLevel   detection.Level `json:"min_level,omitempty"`
}

// Matches reports whether r passes the filter.
func (f *Filter) Matches(r *detection.Report) bool {
	if f == nil {
		return true
	}
	if f.MinLevel != "" && !r.Level.AtLeast(f.MinLevel) {
		return false
	}
	if len(f.Detections) == 0 {
		return true
	}
	for _, d := range f.Detections {
		if d == r.Detection {
			return true
		}
	}
	return false
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	id     uint64
	hub    *Hub
	conn   *websocket.Conn
	send   chan Message
	filter atomic.Pointer[Filter]
}

// NewClient creates a new Client with a unique deterministic ID
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, 256),
	}
}

// ID returns the client's unique identifier
func (c *Client) ID() uint64 {
	return c.id
}

// SetFilter replaces the report filter. nil receives everything.
func (c *Client) SetFilter(f *Filter) {
	c.filter.Store(f)
}

// accepts reports whether the client wants msg.
func (c *Client) accepts(msg Message) bool {
	r, ok := msg.Data.(*detection.Report)
	if !ok {
		return true
	}
	return c.filter.Load().Matches(r)
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				metrics.WSErrors.WithLabelValues("unexpected_close").Inc()
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			break
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			metrics.WSErrors.WithLabelValues("decode").Inc()
			c.reply(Message{Type: MessageTypeError, Data: "invalid message"})
			continue
		}

		switch msg.Type {
		case MessageTypePing:
			c.reply(Message{Type: MessageTypePong})
		case MessageTypeSubscribe:
			c.subscribe(msg.Data)
		}
	}
}

// inbound keeps the payload raw so subscribe can decode it into a Filter.
type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) subscribe(raw json.RawMessage) {
	var f Filter
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &f); err != nil {
			c.reply(Message{Type: MessageTypeError, Data: "invalid subscribe payload"})
			return
		}
	}
	if f.MinLevel != "" {
		if _, err := detection.ParseLevel(string(f.MinLevel)); err != nil {
			c.reply(Message{Type: MessageTypeError, Data: err.Error()})
			return
		}
	}
	c.SetFilter(&f)
	c.reply(Message{Type: MessageTypeSubscribed, Data: f})
	logging.Debug().
		Uint64("client_id", c.id).
		Strs("detections", f.Detections).
		Str("min_level", string(f.MinLevel)).
		Msg("websocket client subscribed")
}

func (c *Client) reply(msg Message) {
	select {
	case c.send <- msg:
	default:
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// The hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				logging.Error().Err(err).Msg("failed to write JSON message")
				return
			}
			metrics.WSMessagesSent.Inc()

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
