package commentary

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type wireEvent struct {
	Type     EventType     `json:"type"`
	Command  string        `json:"command"`
	Error    string        `json:"error"`
	Message  *ChatMessage  `json:"message"`
	Messages []ChatMessage `json:"messages"`
	State    *State        `json:"state"`
}

func dialFeed(t *testing.T, f *handlerFixture, widgetID string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(f.e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/widgets/" + widgetID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(wireEvent) bool) wireEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var ev wireEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if match(ev) {
			return ev
		}
	}
}

func TestFeed_SnapshotAndEvents(t *testing.T) {
	f := newHandlerFixture(t, DefaultRateLimiterConfig())
	w := f.createWidget(t, `{}`)
	conn := dialFeed(t, f, w.ID)

	snap := readUntil(t, conn, func(ev wireEvent) bool { return ev.Type == EventMessages })
	if len(snap.Messages) != 2 {
		t.Errorf("expected welcome messages in snapshot, got %d", len(snap.Messages))
	}
	readUntil(t, conn, func(ev wireEvent) bool { return ev.Type == EventSettings })

	o, _ := f.manager.Get(w.ID)
	o.AddMessage("live", "viewer", "", "")

	ev := readUntil(t, conn, func(ev wireEvent) bool { return ev.Type == EventMessage })
	if ev.Message == nil || ev.Message.Text != "live" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestFeed_Commands(t *testing.T) {
	f := newHandlerFixture(t, DefaultRateLimiterConfig())
	w := f.createWidget(t, `{"mode":"external"}`)
	conn := dialFeed(t, f, w.ID)
	readUntil(t, conn, func(ev wireEvent) bool { return ev.Type == EventSettings })

	if err := conn.WriteJSON(map[string]any{"type": CommandSetContext, "data": map[string]any{"round": 2}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	o, _ := f.manager.Get(w.ID)
	waitFor(t, "context applied", func() bool { return o.Context()["round"] == float64(2) })

	o.enqueue([]string{"seen once"}, "")
	if err := conn.WriteJSON(map[string]any{"type": CommandResetSeen}); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, "seen reset", func() bool { return o.State().Seen == 0 })

	if err := conn.WriteJSON(map[string]any{"type": "dance"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	ev := readUntil(t, conn, func(ev wireEvent) bool { return ev.Type == EventError })
	if ev.Command != "dance" {
		t.Errorf("expected error for dance command, got %+v", ev)
	}

	if err := conn.WriteJSON(map[string]any{"type": CommandUpdateSettings, "settings": map[string]any{"topK": 0}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	ev = readUntil(t, conn, func(ev wireEvent) bool { return ev.Type == EventError })
	if ev.Command != CommandUpdateSettings {
		t.Errorf("expected settings rejection, got %+v", ev)
	}

	if err := conn.WriteJSON(map[string]any{"type": CommandSendMessage, "text": "hey"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	ev = readUntil(t, conn, func(ev wireEvent) bool { return ev.Type == EventMessage && ev.Message.Username == MeUsername })
	if ev.Message.Text != "hey" {
		t.Errorf("unexpected message %+v", ev.Message)
	}
}

func TestFeed_SendMessageRateLimited(t *testing.T) {
	f := newHandlerFixture(t, RateLimiterConfig{RequestsPerSecond: 0.001, Burst: 1})
	w := f.createWidget(t, `{"mode":"external"}`)
	conn := dialFeed(t, f, w.ID)
	readUntil(t, conn, func(ev wireEvent) bool { return ev.Type == EventSettings })

	if err := conn.WriteJSON(map[string]any{"type": CommandSendMessage, "text": "first"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, conn, func(ev wireEvent) bool { return ev.Type == EventMessage && ev.Message.Username == MeUsername })

	if err := conn.WriteJSON(map[string]any{"type": CommandSendMessage, "text": "second"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	ev := readUntil(t, conn, func(ev wireEvent) bool { return ev.Type == EventError })
	if ev.Command != CommandSendMessage || ev.Error != "too many requests" {
		t.Errorf("expected rate limit rejection, got %+v", ev)
	}

	o, _ := f.manager.Get(w.ID)
	for _, m := range o.Messages() {
		if m.Text == "second" {
			t.Error("limited message should not be posted")
		}
	}
}

func TestFeed_UnknownWidget(t *testing.T) {
	f := newHandlerFixture(t, DefaultRateLimiterConfig())
	srv := httptest.NewServer(f.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/widgets/wgt_missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != 404 {
		t.Errorf("expected 404 response, got %+v", resp)
	}
}
