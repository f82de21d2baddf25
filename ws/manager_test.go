package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convo_backend/internal/events"
)

func TestManagerRosterBookkeeping(t *testing.T) {
	manager := NewManager()
	go manager.Run()
	defer manager.Shutdown()

	alice := newClient(manager, nil, "alice")
	bob := newClient(manager, nil, "bob")

	manager.register <- alice
	manager.register <- bob

	require.Eventually(t, func() bool {
		return manager.ConnectedUsers() == 2
	}, time.Second, 10*time.Millisecond)

	manager.unregister <- bob
	require.Eventually(t, func() bool {
		return manager.ConnectedUsers() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestManagerDeliversToRecipientsOnly(t *testing.T) {
	manager := NewManager()
	go manager.Run()
	defer manager.Shutdown()

	alice := newClient(manager, nil, "alice")
	bob := newClient(manager, nil, "bob")
	eve := newClient(manager, nil, "eve")

	manager.register <- alice
	manager.register <- bob
	manager.register <- eve
	require.Eventually(t, func() bool {
		return manager.ConnectedUsers() == 3
	}, time.Second, 10*time.Millisecond)

	envelope, err := events.NewEnvelope(events.TypeMessageSent, "c1", "alice",
		[]string{"alice", "bob"}, events.MessagePayload{MessageID: "m1", Seq: 1})
	require.NoError(t, err)
	manager.Publish(envelope)

	for _, client := range []*Client{alice, bob} {
		select {
		case frame := <-client.send:
			var decoded events.Envelope
			require.NoError(t, json.Unmarshal(frame, &decoded))
			assert.Equal(t, events.TypeMessageSent, decoded.Type)
			assert.Equal(t, "c1", decoded.ConversationID)
		case <-time.After(time.Second):
			t.Fatalf("client %s did not receive the frame", client.userID)
		}
	}

	select {
	case <-eve.send:
		t.Fatal("eve is not a recipient and must not receive the frame")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManagerDetachAfterShutdown(t *testing.T) {
	manager := NewManager()
	go manager.Run()

	alice := newClient(manager, nil, "alice")
	manager.register <- alice
	require.Eventually(t, func() bool {
		return manager.ConnectedUsers() == 1
	}, time.Second, 10*time.Millisecond)

	manager.Shutdown()

	// With the hub stopped, nothing drains unregister; detach must still
	// return instead of stranding the reader goroutine.
	detached := make(chan struct{})
	go func() {
		alice.detach()
		close(detached)
	}()

	select {
	case <-detached:
	case <-time.After(time.Second):
		t.Fatal("detach blocked after hub shutdown")
	}
	assert.Equal(t, 0, manager.ConnectedUsers())
}

func TestManagerMultipleConnectionsPerUser(t *testing.T) {
	manager := NewManager()
	go manager.Run()
	defer manager.Shutdown()

	phone := newClient(manager, nil, "alice")
	laptop := newClient(manager, nil, "alice")

	manager.register <- phone
	manager.register <- laptop
	require.Eventually(t, func() bool {
		return manager.ConnectedUsers() == 1
	}, time.Second, 10*time.Millisecond)

	envelope, err := events.NewEnvelope(events.TypeReadChanged, "c1", "alice",
		[]string{"alice"}, events.ReadChangedPayload{UserID: "alice", LastReadSeq: 3})
	require.NoError(t, err)
	manager.Publish(envelope)

	for _, client := range []*Client{phone, laptop} {
		select {
		case <-client.send:
		case <-time.After(time.Second):
			t.Fatal("every connection of a user receives the frame")
		}
	}

	// Dropping one device keeps the user online.
	manager.unregister <- phone
	require.Eventually(t, func() bool {
		return manager.ConnectedUsers() == 1
	}, time.Second, 10*time.Millisecond)

	manager.unregister <- laptop
	require.Eventually(t, func() bool {
		return manager.ConnectedUsers() == 0
	}, time.Second, 10*time.Millisecond)
}
