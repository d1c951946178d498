// Aquascape - Aquarium Monitoring Dashboard Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aquascape

package websocket

import (
	"context"
	"errors"
	"testing"
	"time"
)

// startHub runs a hub until the test ends.
func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

// createTestClient creates a client without a connection.
func createTestClient(hub *Hub, subject string) *Client {
	return &Client{id: clientIDCounter.Add(1), subject: subject, hub: hub, send: make(chan Message, 4)}
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.GetClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.GetClientCount(), n)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		if !ok {
			t.Fatal("client channel closed")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func checkNoMessage(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.send:
		t.Errorf("unexpected message for %s: %+v", c.subject, msg)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestHub_SendToRoutesBySubject(t *testing.T) {
	t.Parallel()

	hub := startHub(t)
	aliceTab1 := createTestClient(hub, "alice")
	aliceTab2 := createTestClient(hub, "alice")
	bob := createTestClient(hub, "bob")
	hub.Register <- aliceTab1
	hub.Register <- aliceTab2
	hub.Register <- bob
	waitForClients(t, hub, 3)

	if got := hub.SubjectClientCount("alice"); got != 2 {
		t.Errorf("SubjectClientCount(alice) = %d, want 2", got)
	}

	hub.SendTo("alice", MessageTypeAlertsUpdated, map[string]string{"aquarium_id": "42"})

	for _, c := range []*Client{aliceTab1, aliceTab2} {
		msg := receive(t, c)
		if msg.Type != MessageTypeAlertsUpdated {
			t.Errorf("Type = %q", msg.Type)
		}
	}
	checkNoMessage(t, bob)
}

func TestHub_Unregister(t *testing.T) {
	t.Parallel()

	hub := startHub(t)
	c := createTestClient(hub, "alice")
	hub.Register <- c
	waitForClients(t, hub, 1)

	hub.Unregister <- c
	waitForClients(t, hub, 0)
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed after unregister")
	}

	// A second unregister is harmless.
	hub.Unregister <- c
	waitForClients(t, hub, 0)
}

func TestHub_SlowClientDropped(t *testing.T) {
	t.Parallel()

	hub := startHub(t)
	slow := &Client{id: clientIDCounter.Add(1), subject: "alice", hub: hub, send: make(chan Message)}
	hub.Register <- slow
	waitForClients(t, hub, 1)

	hub.SendTo("alice", MessageTypePing, nil)
	waitForClients(t, hub, 0)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	c := createTestClient(hub, "alice")
	hub.Register <- c
	waitForClients(t, hub, 1)

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	if hub.GetClientCount() != 0 {
		t.Error("clients remain after shutdown")
	}
	if _, ok := <-c.send; ok {
		t.Error("client channel should be closed on shutdown")
	}
}

func TestHub_SendRaw(t *testing.T) {
	t.Parallel()

	hub := startHub(t)
	c := createTestClient(hub, "alice")
	hub.Register <- c
	waitForClients(t, hub, 1)

	hub.SendRaw("alice", MessageTypeSchedulePrompt, []byte(`{"aquarium_id":42}`))
	msg := receive(t, c)
	data, ok := msg.Data.(map[string]interface{})
	if !ok || data["aquarium_id"] != float64(42) {
		t.Errorf("Data = %#v", msg.Data)
	}

	hub.SendRaw("alice", MessageTypeSchedulePrompt, []byte(`not json`))
	checkNoMessage(t, c)
}

func TestGetShutdownReason(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if r := getShutdownReason(ctx); r != ShutdownReasonContextCanceled {
		t.Errorf("reason = %q", r)
	}
	ctx, cancel = context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	if r := getShutdownReason(ctx); r != ShutdownReasonContextDeadline {
		t.Errorf("reason = %q", r)
	}
}

func TestMarshalMessage(t *testing.T) {
	t.Parallel()

	b, err := MarshalMessage(Message{Type: MessageTypePong})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"type":"pong","data":null}` {
		t.Errorf("MarshalMessage() = %s", b)
	}
}
