package kiosk

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 20 * time.Second
	maxEventSize = 4096
	sendBuffer   = 64
)

// ErrClosed is returned by ReadEvents once the connection has been closed locally.
var ErrClosed = errors.New("kiosk: connection closed")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts sockets opened by pages of this station. Browsers always
// send Origin on a websocket handshake; a request without one is not a page.
func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// Conn is one kiosk websocket. Writes go through a single writer goroutine.
type Conn struct {
	ID string

	ws        *websocket.Conn
	out       chan Message
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// Upgrade turns an HTTP request into a kiosk connection and starts its writer.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	c := &Conn{
		ID:     id,
		ws:     ws,
		out:    make(chan Message, sendBuffer),
		done:   make(chan struct{}),
		logger: slog.Default().With(slog.String("conn_id", id), slog.String("path", r.URL.Path)),
	}
	go c.writeLoop()
	return c, nil
}

// Send queues msg for the kiosk. A full queue means the page stopped reading; the message is dropped.
func (c *Conn) Send(msg Message) {
	select {
	case <-c.done:
	case c.out <- msg:
	default:
		c.logger.Warn("kiosk send queue full, dropping message", slog.String("type", msg.Type))
	}
}

// ReadEvents blocks reading events and hands each to fn until the socket closes.
func (c *Conn) ReadEvents(fn func(Event)) error {
	c.ws.SetReadLimit(maxEventSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return ErrClosed
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.logger.Warn("discarding malformed kiosk event", slog.Any("err", err))
			continue
		}
		fn(ev)
	}
}

// Close stops the writer and closes the socket. Safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *Conn) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(msg); err != nil {
				c.logger.Warn("kiosk write failed", slog.Any("err", err))
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.Close()
				return
			}
		}
	}
}
