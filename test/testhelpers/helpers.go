// Package testhelpers provides common utilities shared across the Parley
// integration tests: spinning up test servers, dialing WebSocket clients,
// and exchanging event envelopes.
package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// WireEvent mirrors the envelope every frame carries on the wire.
type WireEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// CreateTestServer creates a test HTTP server with the given handler. The
// returned server should be closed after use.
func CreateTestServer(handler http.Handler) *httptest.Server {
	return httptest.NewServer(handler)
}

// ConnectWebSocket dials the WebSocket endpoint with the default allowed
// origin set, so the connection passes the origin policy.
func ConnectWebSocket(url string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	headers := http.Header{}
	headers.Set("Origin", "http://localhost:8080")

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// SendEvent writes one event envelope to the connection.
func SendEvent(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"event": event, "payload": payload}); err != nil {
		t.Fatalf("Failed to send %s event: %v", event, err)
	}
}

// WaitForEvent reads frames until one matches the wanted event name,
// discarding interleaved broadcasts, and returns its payload. It fails the
// test after the deadline.
func WaitForEvent(t *testing.T, conn *websocket.Conn, event string) json.RawMessage {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for {
		wire, ok := nextEvent(t, conn, deadline)
		if !ok {
			t.Fatalf("Timed out waiting for %s event", event)
		}
		if wire.Event == event {
			return wire.Payload
		}
	}
}

// WaitForEventMatching reads frames until the wanted event's decoded payload
// satisfies the predicate. Useful for broadcasts that fire repeatedly, like
// room lists.
func WaitForEventMatching(t *testing.T, conn *websocket.Conn, event string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for {
		wire, ok := nextEvent(t, conn, deadline)
		if !ok {
			t.Fatalf("Timed out waiting for matching %s event", event)
		}
		if wire.Event == event && match(wire.Payload) {
			return wire.Payload
		}
	}
}

func nextEvent(t *testing.T, conn *websocket.Conn, deadline time.Time) (WireEvent, bool) {
	t.Helper()

	if time.Now().After(deadline) {
		return WireEvent{}, false
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}

	var wire WireEvent
	if err := conn.ReadJSON(&wire); err != nil {
		return WireEvent{}, false
	}
	return wire, true
}

// MakeRequest creates and executes an HTTP request, returning the response.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	return resp
}

// AssertStatusCode checks that the response carries the expected status.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// CloseWebSocket gracefully closes a WebSocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}
