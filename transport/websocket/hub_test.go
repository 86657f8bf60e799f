package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yassinfayed/sakoban/game/engine"
)

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

func testState() *engine.PuzzleState {
	def, err := engine.ParseLayout(1, []string{"#####", "#@$.#", "#####"})
	if err != nil {
		panic(err)
	}
	state := engine.Initialize(*def, "anon_1")
	return &state
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func waitForClients(t *testing.T, hub *Hub, sessionID string, expected int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount(sessionID) == expected {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d clients in session %s, got %d", expected, sessionID, hub.ClientCount(sessionID))
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if cap(hub.broadcast) != engine.WebSocketBufferSize {
		t.Errorf("Expected broadcast buffer %d, got %d", engine.WebSocketBufferSize, cap(hub.broadcast))
	}
	if hub.register == nil || hub.unregister == nil {
		t.Error("Hub registration channels are nil")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)

	clients, exists := hub.sessions["test-session"]
	if !exists {
		t.Fatal("Session was not created")
	}
	if !clients.Has(client) || clients.Size() != 1 {
		t.Error("Client was not registered in session")
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.sessions["test-session"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}
	if _, ok := <-client.send; ok {
		t.Error("Send channel should be closed")
	}

	// A second unregister is a no-op
	hub.unregisterClient(client)
}

func TestHubMultipleClientsInSession(t *testing.T) {
	hub := NewHub()
	client1 := newTestClient(hub, "multi")
	client2 := newTestClient(hub, "multi")
	other := newTestClient(hub, "other")

	hub.registerClient(client1)
	hub.registerClient(client2)
	hub.registerClient(other)

	if hub.sessions["multi"].Size() != 2 {
		t.Errorf("Expected 2 clients in session, got %d", hub.sessions["multi"].Size())
	}

	hub.unregisterClient(client1)
	if !hub.sessions["multi"].Has(client2) || hub.sessions["multi"].Size() != 1 {
		t.Error("client2 should still be registered alone")
	}

	hub.broadcastMessage(&Message{SessionID: "multi", Event: EventState})
	if len(client2.send) != 1 || len(other.send) != 0 {
		t.Error("Broadcast should reach only the addressed session")
	}
}

func TestHubBroadcastState(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "broadcast-test")
	hub.registerClient(client)

	hub.BroadcastState("broadcast-test", testState())
	hub.broadcastMessage(<-hub.broadcast)

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.SessionID != "broadcast-test" || message.Event != EventState {
			t.Errorf("Unexpected message header %+v", message)
		}
		if message.GameState.Player != (engine.Position{X: 1, Y: 1}) || message.GameState.UserID != "anon_1" {
			t.Error("Puzzle state not correctly transmitted")
		}
		if len(message.Board) != 3 || message.Board[1] != "#@$.#" {
			t.Errorf("Unexpected board %v", message.Board)
		}
	default:
		t.Error("No message delivered to client")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, sessionID: "slow", send: make(chan []byte)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "slow", Event: EventState})

	if _, exists := hub.sessions["slow"]; exists {
		t.Error("Slow client should have been dropped")
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub()

	hub.BroadcastEvent("event-test", EventLevelComplete, map[string]int{"moves": 12})

	select {
	case message := <-hub.broadcast:
		if message.SessionID != "event-test" || message.Event != EventLevelComplete {
			t.Errorf("Unexpected message %+v", message)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No broadcast message queued")
	}
}

func TestHubRunStopsOnCancel(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "stop")
	hub.registerClient(client)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	cancel()

	select {
	case <-hub.done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if _, ok := <-client.send; ok {
		t.Error("Client channels should be closed on shutdown")
	}
	if hub.ClientCount("stop") != 0 {
		t.Error("Expected no clients after shutdown")
	}
}

func newWSServer(hub *Hub) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
}

func TestWebSocketUpgrade(t *testing.T) {
	hub := startHub(t)
	server := newWSServer(hub)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=ws-test"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}

	waitForClients(t, hub, "ws-test", 1)

	conn.Close()
	waitForClients(t, hub, "ws-test", 0)
}

func TestWebSocketMessageReceive(t *testing.T) {
	hub := startHub(t)
	server := newWSServer(hub)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=msg-test"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, "msg-test", 1)

	state := testState()
	state.Moves = 7
	hub.BroadcastState("msg-test", state)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, messageData, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}

	var message Message
	if err := json.Unmarshal(messageData, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if message.SessionID != "msg-test" || message.GameState.Moves != 7 {
		t.Errorf("Unexpected message %+v", message)
	}
}

func TestWebSocketSessionIDIsCaseInsensitive(t *testing.T) {
	hub := startHub(t)
	server := newWSServer(hub)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=AB12"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, "ab12", 1)
	if hub.ClientCount("Ab12") != 1 {
		t.Error("Expected client count lookup to ignore case")
	}

	hub.BroadcastState("ab12", testState())

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, messageData, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Expected broadcast to reach the client: %v", err)
	}

	var message Message
	if err := json.Unmarshal(messageData, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if message.SessionID != "ab12" || message.Event != EventState {
		t.Errorf("Unexpected message %+v", message)
	}
}
