package commentary

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/eleven-am/live-commentary/internal/dto"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
)

const (
	CommandToggleCapture  = "toggle_capture"
	CommandSendMessage    = "send_message"
	CommandSetContext     = "set_context"
	CommandUpdateSettings = "update_settings"
	CommandResetSeen      = "reset_seen"
)

// EventError reports a rejected command back to the page.
const EventError EventType = "error"

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type feedError struct {
	Type    EventType `json:"type"`
	Command string    `json:"command,omitempty"`
	Error   string    `json:"error"`
}

// feedConn streams one widget's events to a page and applies its commands.
type feedConn struct {
	ws     *websocket.Conn
	widget *Orchestrator
	logger *slog.Logger
	// allow gates chat messages with the same budget as the HTTP route.
	allow  func() bool
	send   chan any
	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func newFeedConn(ws *websocket.Conn, widget *Orchestrator, allow func() bool, logger *slog.Logger) *feedConn {
	return &feedConn{
		ws:     ws,
		widget: widget,
		allow:  allow,
		logger: logger.With("widget_id", widget.ID()),
		send:   make(chan any, 128),
		done:   make(chan struct{}),
	}
}

func (c *feedConn) enqueue(v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- v:
	default:
		c.logger.Warn("send buffer full, dropping event")
	}
}

func (c *feedConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	close(c.send)
	c.mu.Unlock()

	return c.ws.Close()
}

// snapshot primes a new connection with the current chat, state and settings.
func (c *feedConn) snapshot() {
	id := c.widget.ID()
	st := c.widget.State()
	s := c.widget.Settings().Redacted()

	c.enqueue(Event{Type: EventMessages, WidgetID: id, Messages: c.widget.Messages()})
	c.enqueue(Event{Type: EventState, WidgetID: id, State: &st})
	c.enqueue(Event{Type: EventSettings, WidgetID: id, Settings: &s})
}

func (c *feedConn) forward(events <-chan Event) {
	for {
		select {
		case <-c.done:
			return
		case ev, ok := <-events:
			if !ok {
				c.Close()
				return
			}
			c.enqueue(ev)
		}
	}
}

func (c *feedConn) readPump(ctx context.Context) {
	defer c.Close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket read error", "error", err)
			}
			return
		}

		var cmd dto.WidgetCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.enqueue(feedError{Type: EventError, Error: "invalid command"})
			continue
		}
		c.apply(ctx, cmd)
	}
}

func (c *feedConn) apply(ctx context.Context, cmd dto.WidgetCommand) {
	switch cmd.Type {
	case CommandToggleCapture:
		c.widget.ToggleCapture()
	case CommandSendMessage:
		text := strings.TrimSpace(cmd.Text)
		if text == "" {
			c.enqueue(feedError{Type: EventError, Command: cmd.Type, Error: "text is required"})
			return
		}
		if c.allow != nil && !c.allow() {
			c.enqueue(feedError{Type: EventError, Command: cmd.Type, Error: "too many requests"})
			return
		}
		c.widget.SendMessage(text)
	case CommandSetContext:
		c.widget.SetContext(cmd.Data)
	case CommandUpdateSettings:
		if _, err := c.widget.UpdateSettings(ctx, toSettingsPatch(cmd.Settings)); err != nil {
			c.enqueue(feedError{Type: EventError, Command: cmd.Type, Error: err.Error()})
		}
	case CommandResetSeen:
		c.widget.ResetSeen()
	default:
		c.enqueue(feedError{Type: EventError, Command: cmd.Type, Error: "unknown command"})
	}
}

func (c *feedConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				c.logger.Error("failed to marshal event", "error", err)
				continue
			}

			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Error("websocket write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// Feed godoc
// @Summary      Widget live feed
// @Description  Upgrades to a WebSocket that streams chat, state and settings events and accepts widget commands
// @Tags         widgets
// @Param        id   path  string  true  "Widget ID"
// @Success      101  "Switching Protocols"
// @Failure      404  {object}  shared.APIError
// @Router       /widgets/{id}/ws [get]
func (h *Handler) Feed(c echo.Context) error {
	o, err := h.widget(c)
	if err != nil {
		return err
	}

	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return err
	}

	key := rateLimitKey(c.RealIP(), o.ID())
	conn := newFeedConn(ws, o, func() bool { return h.limits.allow(key) }, h.logger)
	events, unsubscribe := o.Subscribe()
	defer unsubscribe()

	h.logger.Info("feed connected", "widget_id", o.ID())

	conn.snapshot()
	go conn.writePump()
	go conn.forward(events)
	conn.readPump(context.WithoutCancel(c.Request().Context()))

	h.logger.Info("feed disconnected", "widget_id", o.ID())
	return nil
}
