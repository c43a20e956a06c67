package ws

import (
	"errors"
	"strings"
	"testing"

	"github.com/mmuslimabdulj/tunelink/internal/domain"
)

func TestSetActivityUnknownIdentity(t *testing.T) {
	hub, _ := newTestHub()

	err := hub.SetActivity("ghost", "Playing: Song X")
	if !errors.Is(err, domain.ErrUnknownIdentity) {
		t.Fatalf("expected ErrUnknownIdentity, got %v", err)
	}
}

func TestSetActivityBroadcastsToOthers(t *testing.T) {
	hub, _ := newTestHub()
	alice := newMockClient(hub, "alice")
	bob := newMockClient(hub, "bob")
	hub.Register(alice)
	hub.Register(bob)
	drain(alice)
	drain(bob)

	if err := hub.SetActivity("alice", "Playing: Song X"); err != nil {
		t.Fatalf("set activity: %v", err)
	}

	var update ActivityUpdatedPayload
	expectEvent(t, bob, EventActivityUpdated, &update)
	if update.UserID != "alice" || update.Activity != "Playing: Song X" {
		t.Fatalf("unexpected update: %+v", update)
	}

	// The updating identity's own connections are not notified
	select {
	case raw := <-alice.send:
		t.Fatalf("unexpected event on updater's connection: %s", raw)
	default:
	}
}

func TestActivitiesSnapshotOrderedAndOverwritten(t *testing.T) {
	hub, _ := newTestHub()
	for _, id := range []string{"carol", "alice", "bob"} {
		hub.Register(newMockClient(hub, id))
	}

	hub.SetActivity("carol", "Idle")
	hub.SetActivity("alice", "Playing: One")
	hub.SetActivity("alice", "Playing: Two")

	pairs := hub.Activities()
	if len(pairs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(pairs))
	}
	if pairs[0][0] != "alice" || pairs[1][0] != "carol" {
		t.Fatalf("expected identity-sorted pairs, got %v", pairs)
	}
	if pairs[0][1] != "Playing: Two" {
		t.Fatalf("expected overwrite, got %q", pairs[0][1])
	}
}

func TestActivityRemovedOnLeave(t *testing.T) {
	hub, _ := newTestHub()
	alice := newMockClient(hub, "alice")
	hub.Register(alice)
	hub.SetActivity("alice", "Playing: Song X")

	hub.Unregister(alice)

	if got := hub.Activities(); len(got) != 0 {
		t.Fatalf("activity should be garbage collected with presence, got %v", got)
	}
}

func TestSetActivityTooLong(t *testing.T) {
	hub, _ := newTestHub()
	alice := newMockClient(hub, "alice")
	hub.Register(alice)

	err := hub.SetActivity("alice", strings.Repeat("x", domain.MaxActivityLength+1))
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
