package quotex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const reconnectDelay = 3 * time.Second

// WSClient handles the candle stream connection and message routing.
type WSClient struct {
	url     string
	header  func() http.Header
	handler func([]byte)
	logger  *zap.Logger

	mu     sync.Mutex // guards conn, topics and closed; serialises writes
	conn   *websocket.Conn
	topics []string
	closed bool
}

// NewWSClient creates a new WebSocket client with the given URL and logger.
func NewWSClient(url string, logger *zap.Logger) *WSClient {
	return &WSClient{
		url:    url,
		logger: logger,
	}
}

// SetMessageHandler sets the function to handle incoming messages.
func (c *WSClient) SetMessageHandler(h func([]byte)) {
	c.handler = h
}

// SetHeader sets a provider of extra handshake headers (e.g., the session token).
func (c *WSClient) SetHeader(h func() http.Header) {
	c.header = h
}

// Connect establishes the WebSocket connection. It does not start the listener.
func (c *WSClient) Connect(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		c.logger.Error("Failed to connect to WebSocket", zap.String("url", c.url), zap.Error(err))
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.logger.Info("WebSocket connected", zap.String("url", c.url))
	return nil
}

// Subscribe sends a subscription for the given topics and remembers them for reconnects.
func (c *WSClient) Subscribe(topics ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return errors.New("websocket not connected")
	}

	subMsg := map[string]interface{}{
		"op":   "subscribe",
		"args": topics,
	}
	if err := c.conn.WriteJSON(subMsg); err != nil {
		return fmt.Errorf("websocket subscribe failed: %w", err)
	}

	c.topics = append(c.topics, topics...)
	return nil
}

// Topics returns the topics subscribed so far.
func (c *WSClient) Topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.topics))
	copy(out, c.topics)
	return out
}

// Listen reads frames until ctx is cancelled or Close is called, reconnecting
// and resubscribing after read errors.
func (c *WSClient) Listen(ctx context.Context) {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			if c.stopped(ctx) {
				return
			}
			c.logger.Error("WebSocket read error", zap.Error(err))

			// Retry reconnecting until stopped
			for {
				select {
				case <-ctx.Done():
					return
				case <-time.After(reconnectDelay):
				}
				if c.stopped(ctx) {
					return
				}
				if err := c.reconnectAndResubscribe(ctx); err != nil {
					c.logger.Warn("Retrying reconnect...", zap.Error(err))
					continue
				}
				c.logger.Info("Reconnected successfully")
				break
			}
			continue // Start listening again with the new connection
		}

		if c.handler != nil {
			c.handler(msg)
		}
	}
}

// Close stops the listener and closes the connection.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *WSClient) stopped(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *WSClient) dial(ctx context.Context) (*websocket.Conn, error) {
	var header http.Header
	if c.header != nil {
		header = c.header()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
	return conn, err
}

func (c *WSClient) reconnectAndResubscribe(ctx context.Context) error {
	// Attempt to connect to the WebSocket server
	newConn, err := c.dial(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		_ = newConn.Close()
		return errors.New("websocket closed")
	}

	// Close the old connection if it exists
	if c.conn != nil {
		_ = c.conn.Close()
	}

	// Replace the current connection
	c.conn = newConn

	if len(c.topics) == 0 {
		return nil
	}

	// Build subscription message payload
	subMsg := map[string]interface{}{
		"op":   "subscribe",
		"args": c.topics,
	}

	// Send the subscription message
	if err := c.conn.WriteJSON(subMsg); err != nil {
		return fmt.Errorf("websocket subscribe failed: %w", err)
	}

	return nil
}
