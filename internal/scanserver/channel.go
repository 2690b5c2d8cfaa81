package scanserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mmcdole/scandesk/internal/domain"
)

const (
	writeWait             = 10 * time.Second
	defaultPingPeriod     = 54 * time.Second
	defaultReconnectDelay = 2 * time.Second
	maxMessageSize        = 64 * 1024
)

// Push event names sent by the capture backend
const (
	EventPhotoProcessed     = "photoProcessed"
	EventProcessingComplete = "processingComplete"
	EventProcessingStarted  = "processingStarted"
)

// envelope is a single push frame: {"event": "...", "data": {...}}
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type photoProcessedData struct {
	Filename string `json:"filename"`
}

type processingCompleteData struct {
	Message string `json:"message"`
}

// ChannelOptions tunes the push channel connection
type ChannelOptions struct {
	EventsPath     string        // path of the websocket endpoint, e.g. "/ws"
	ReconnectDelay time.Duration // wait between dial attempts
	PingPeriod     time.Duration // keepalive interval; pong deadline is derived from it
}

// Channel maintains the long-lived push subscription to the capture backend
// and fans events out to subscribed handlers. It implements domain.EventSource.
type Channel struct {
	url            string
	clientID       string
	dialer         *websocket.Dialer
	reconnectDelay time.Duration
	pingPeriod     time.Duration
	pongWait       time.Duration
	logger         *slog.Logger

	mu       sync.RWMutex
	handlers map[int]domain.EventHandler
	nextID   int
}

// NewChannel creates a push channel for the server at baseURL. No connection
// is made until Run is called.
func NewChannel(baseURL string, opts ChannelOptions, logger *slog.Logger) (*Channel, error) {
	if logger == nil {
		logger = slog.Default()
	}

	wsURL, err := websocketURL(baseURL, opts.EventsPath)
	if err != nil {
		return nil, err
	}

	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = defaultPingPeriod
	}

	return &Channel{
		url:            wsURL,
		clientID:       uuid.NewString(),
		dialer:         &websocket.Dialer{HandshakeTimeout: writeWait},
		reconnectDelay: opts.ReconnectDelay,
		pingPeriod:     opts.PingPeriod,
		pongWait:       (opts.PingPeriod * 10) / 9,
		logger:         logger,
		handlers:       make(map[int]domain.EventHandler),
	}, nil
}

// websocketURL maps http(s)://host to ws(s)://host/path
func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server URL scheme: %q", u.Scheme)
	}
	if path == "" {
		path = "/ws"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path += path
	return u.String(), nil
}

// URL returns the websocket endpoint
func (c *Channel) URL() string {
	return c.url
}

// Subscribe registers h for push events
func (c *Channel) Subscribe(h domain.EventHandler) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.handlers[id] = h
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.handlers, id)
		c.mu.Unlock()
	}
}

// Run keeps the subscription alive until ctx is cancelled. A dropped
// connection is re-dialed after the reconnect delay; events sent while
// disconnected are lost.
func (c *Channel) Run(ctx context.Context) error {
	for {
		err := c.connect(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			c.logger.Warn("push channel disconnected", "error", err, "url", c.url, "retryIn", c.reconnectDelay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
		}
	}
}

// connect dials once and pumps messages until the connection ends
func (c *Channel) connect(ctx context.Context) error {
	header := http.Header{}
	header.Set("X-Client-ID", c.clientID)

	conn, _, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	c.logger.Info("push channel connected", "url", c.url)

	done := make(chan struct{})
	defer close(done)

	// Closing the connection unblocks ReadMessage on cancellation.
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			conn.Close()
		case <-done:
		}
	}()

	go c.pingPump(conn, done)

	return c.readPump(conn)
}

// readPump pumps frames from the connection to the subscribed handlers
func (c *Channel) readPump(conn *websocket.Conn) error {
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(c.pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		conn.SetReadDeadline(time.Now().Add(c.pongWait))

		// Servers may batch several envelopes into one frame, newline separated.
		for _, line := range bytes.Split(message, []byte{'\n'}) {
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			c.handleFrame(line)
		}
	}
}

// pingPump keeps the connection alive until done is closed
func (c *Channel) pingPump(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Debug("push channel ping failed", "error", err)
				return
			}
		}
	}
}

func (c *Channel) handleFrame(frame []byte) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		c.logger.Warn("invalid push message", "error", err)
		return
	}

	switch env.Event {
	case EventPhotoProcessed:
		var data photoProcessedData
		if err := json.Unmarshal(env.Data, &data); err != nil || data.Filename == "" {
			c.logger.Warn("invalid photoProcessed payload", "data", string(env.Data))
			return
		}
		c.logger.Debug("photo processed", "filename", data.Filename)
		for _, h := range c.snapshotHandlers() {
			h.OnPhotoAdded(data.Filename)
		}

	case EventProcessingComplete:
		var data processingCompleteData
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &data); err != nil {
				c.logger.Warn("invalid processingComplete payload", "data", string(env.Data))
				return
			}
		}
		c.logger.Info("processing complete", "message", data.Message)
		for _, h := range c.snapshotHandlers() {
			h.OnBatchComplete(data.Message)
		}

	case EventProcessingStarted:
		for _, h := range c.snapshotHandlers() {
			h.OnProcessingStarted()
		}

	default:
		c.logger.Debug("ignoring push event", "event", env.Event)
	}
}

func (c *Channel) snapshotHandlers() []domain.EventHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.EventHandler, 0, len(c.handlers))
	for _, h := range c.handlers {
		out = append(out, h)
	}
	return out
}
