package ws

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mmuslimabdulj/tunelink/internal/domain"
)

func TestSendMessageValidation(t *testing.T) {
	hub, store := newTestHub()

	cases := []struct {
		name     string
		sender   string
		receiver string
		content  string
	}{
		{"empty content", "alice", "bob", ""},
		{"missing receiver", "alice", "", "hi"},
		{"missing sender", "", "bob", "hi"},
		{"identity with newline", "alice", "bob\nmallory", "hi"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := hub.SendMessage(context.Background(), tc.sender, tc.receiver, tc.content)
			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}

	if got := store.stored(); len(got) != 0 {
		t.Fatalf("invalid sends must not be persisted, got %d", len(got))
	}
}

func TestSendMessageOfflineReceiverStillPersisted(t *testing.T) {
	hub, store := newTestHub()
	alice := newMockClient(hub, "alice")
	hub.Register(alice)
	drain(alice)

	msg, err := hub.SendMessage(context.Background(), "alice", "bob", "see you later")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	stored := store.stored()
	if len(stored) != 1 || stored[0].ID != msg.ID {
		t.Fatalf("expected the message persisted, got %v", stored)
	}

	// Sender still gets the echo, nobody gets receive_message
	var echo domain.Message
	expectEvent(t, alice, EventMessageSent, &echo)
	if echo.ReceiverID != "bob" {
		t.Fatalf("unexpected echo: %+v", echo)
	}
	select {
	case raw := <-alice.send:
		t.Fatalf("unexpected extra event: %s", raw)
	default:
	}
}

func TestSendMessageStoreFailure(t *testing.T) {
	hub, store := newTestHub()
	store.err = errors.New("disk on fire")

	alice := newMockClient(hub, "alice")
	bob := newMockClient(hub, "bob")
	hub.Register(alice)
	hub.Register(bob)
	drain(alice)
	drain(bob)

	_, err := hub.SendMessage(context.Background(), "alice", "bob", "hi")
	var sErr *domain.StoreError
	if !errors.As(err, &sErr) {
		t.Fatalf("expected StoreError, got %v", err)
	}

	// A failed persist means no partial delivery at all
	for name, c := range map[string]*Client{"alice": alice, "bob": bob} {
		select {
		case raw := <-c.send:
			t.Fatalf("unexpected event for %s after store failure: %s", name, raw)
		default:
		}
	}
}

func TestSendMessageOrderingPerSender(t *testing.T) {
	hub, store := newTestHub()
	alice := newMockClient(hub, "alice")
	hub.Register(alice)
	drain(alice)

	const n = 5
	for i := 0; i < n; i++ {
		if _, err := hub.SendMessage(context.Background(), "alice", "bob", fmt.Sprintf("msg-%d", i)); err != nil {
			t.Fatalf("send %d failed: %v", i, err)
		}
	}

	for i := 0; i < n; i++ {
		var echo domain.Message
		expectEvent(t, alice, EventMessageSent, &echo)
		if want := fmt.Sprintf("msg-%d", i); echo.Content != want {
			t.Fatalf("echo %d out of order: got %q, want %q", i, echo.Content, want)
		}
	}

	stored := store.stored()
	for i := 0; i < n; i++ {
		if want := fmt.Sprintf("msg-%d", i); stored[i].Content != want {
			t.Fatalf("persist %d out of order: got %q, want %q", i, stored[i].Content, want)
		}
	}
}

func TestSendMessageMultiDeviceEcho(t *testing.T) {
	hub, _ := newTestHub()
	phone := newMockClient(hub, "alice")
	laptop := newMockClient(hub, "alice")
	bob := newMockClient(hub, "bob")
	hub.Register(phone)
	hub.Register(laptop)
	hub.Register(bob)
	for _, c := range []*Client{phone, laptop, bob} {
		drain(c)
	}

	if _, err := hub.SendMessage(context.Background(), "alice", "bob", "hi"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	// Both of the sender's devices observe the echo
	expectEvent(t, phone, EventMessageSent, nil)
	expectEvent(t, laptop, EventMessageSent, nil)
	expectEvent(t, bob, EventReceiveMessage, nil)
}
