package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type testView struct {
	Tick int `json:"tick"`
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.Clients() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Clients() = %d, want %d", h.Clients(), want)
}

func readView(t *testing.T, conn *websocket.Conn) testView {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg struct {
		Type string   `json:"type"`
		View testView `json:"view"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	if msg.Type != "view" {
		t.Fatalf("message type = %q, want view", msg.Type)
	}
	return msg.View
}

func TestPublishReachesConnectedClients(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()
	defer hub.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	waitForClients(t, hub, 2)

	if err := hub.Publish(context.Background(), testView{Tick: 7}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if got := readView(t, a); got.Tick != 7 {
		t.Fatalf("client a tick = %d, want 7", got.Tick)
	}
	if got := readView(t, b); got.Tick != 7 {
		t.Fatalf("client b tick = %d, want 7", got.Tick)
	}
}

func TestLateClientReceivesLatestView(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()
	defer hub.Close()

	hub.Publish(context.Background(), testView{Tick: 1})
	hub.Publish(context.Background(), testView{Tick: 2})

	conn := dial(t, srv)
	if got := readView(t, conn); got.Tick != 2 {
		t.Fatalf("replayed tick = %d, want 2", got.Tick)
	}
}

func TestClientDisconnectUnregisters(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	waitForClients(t, hub, 0)
}

func TestPublishRejectsUnencodableView(t *testing.T) {
	hub := NewHub(nil)
	if err := hub.Publish(context.Background(), func() {}); err == nil {
		t.Fatal("expected encode error for a func value")
	}
}
