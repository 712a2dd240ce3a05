package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"wagevo/internal/domain/shift"
	"wagevo/internal/platform/metrics"
)

func testClient(hub *Hub, owner string, buffer int) *Client {
	return &Client{id: clientIDCounter.Add(1), ownerID: owner, hub: hub, send: make(chan Message, buffer), pong: make(chan Message, 1)}
}

func startHub(t *testing.T, collector *metrics.Collector) (*Hub, context.CancelFunc, chan error) {
	t.Helper()
	hub := NewHub(collector)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()
	t.Cleanup(cancel)
	return hub, cancel, done
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func receive(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case msg := <-client.send:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestHubDeliversOnlyToOwner(t *testing.T) {
	collector := metrics.New()
	hub, _, _ := startHub(t, collector)

	ana := testClient(hub, "ana", 4)
	ben := testClient(hub, "ben", 4)
	hub.Register <- ana
	hub.Register <- ben
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	hub.PublishEvent(shift.Event{Type: shift.EventShiftStarted, OwnerID: "ana", ShiftID: "s1"})
	msg := receive(t, ana)
	if msg.Type != MessageTypeEvent {
		t.Fatalf("expected event message, got %q", msg.Type)
	}
	evt, ok := msg.Data.(shift.Event)
	if !ok || evt.ShiftID != "s1" {
		t.Fatalf("unexpected payload %#v", msg.Data)
	}
	select {
	case other := <-ben.send:
		t.Fatalf("ben received %v", other)
	case <-time.After(50 * time.Millisecond):
	}
	if got := collector.Snapshot()["streamDeliveredTotal"]; got != uint64(1) {
		t.Fatalf("expected one delivery, got %v", got)
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub, _, _ := startHub(t, nil)
	slow := testClient(hub, "ana", 1)
	hub.Register <- slow
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Publish("ana", Message{Type: MessageTypeEvent})
	hub.Publish("ana", Message{Type: MessageTypeEvent})
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	<-slow.send
	if _, ok := <-slow.send; ok {
		t.Fatal("expected send channel to be closed")
	}
}

func TestHubUnregister(t *testing.T) {
	collector := metrics.New()
	hub, _, _ := startHub(t, collector)
	client := testClient(hub, "ana", 1)
	hub.Register <- client
	hub.Unregister <- client
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
	// A second unregister from the other pump is a no-op.
	hub.Unregister <- client
	if got := collector.Snapshot()["streamClients"]; got != int64(0) {
		t.Fatalf("expected zero stream clients, got %v", got)
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub, cancel, done := startHub(t, nil)
	client := testClient(hub, "ana", 1)
	hub.Register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	if _, ok := <-client.send; ok {
		t.Fatal("expected client channel closed on shutdown")
	}
	if hub.ClientCount() != 0 {
		t.Fatal("expected no clients after shutdown")
	}
}

func TestDroppedClientStillAnswersPing(t *testing.T) {
	hub, _, _ := startHub(t, nil)
	upgrader := websocket.Upgrader{}
	accepted := make(chan *Client, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, "ana")
		client.send = make(chan Message, 1)
		hub.Register <- client
		accepted <- client
		// No writePump: it stands in for a writer stuck on a slow network.
		go client.readPump()
	}))
	defer srv.Close()

	peer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer peer.Close()
	client := <-accepted
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Publish("ana", Message{Type: MessageTypeEvent})
	hub.Publish("ana", Message{Type: MessageTypeEvent})
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	if err := peer.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("write ping failed: %v", err)
	}
	select {
	case msg := <-client.pong:
		if msg.Type != MessageTypePong {
			t.Fatalf("expected pong, got %q", msg.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pong")
	}
}
