package presence_test

import (
	"testing"

	"github.com/pixhy/voizchat/internal/service/presence"
)

type fakeSession struct {
	userID string
	got    [][]byte
}

func (s *fakeSession) UserID() string { return s.userID }

func (s *fakeSession) Push(data []byte) { s.got = append(s.got, data) }

func TestRegistryRegisterIdempotent(t *testing.T) {
	registry := presence.NewRegistry()
	sess := &fakeSession{userID: "alice"}

	registry.Register(sess)
	registry.Register(sess)

	if got := registry.SessionsFor("alice"); len(got) != 1 {
		t.Fatalf("expected 1 session, got %d", len(got))
	}
}

func TestRegistryMultipleSessionsInOrder(t *testing.T) {
	registry := presence.NewRegistry()
	first := &fakeSession{userID: "alice"}
	second := &fakeSession{userID: "alice"}

	registry.Register(first)
	registry.Register(second)

	sessions := registry.SessionsFor("alice")
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0] != presence.Session(first) || sessions[1] != presence.Session(second) {
		t.Fatal("sessions not returned in registration order")
	}
}

func TestRegistryUnregister(t *testing.T) {
	registry := presence.NewRegistry()
	first := &fakeSession{userID: "alice"}
	second := &fakeSession{userID: "alice"}

	registry.Register(first)
	registry.Register(second)
	registry.Unregister(first)

	sessions := registry.SessionsFor("alice")
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session after unregister, got %d", len(sessions))
	}
	if sessions[0] != presence.Session(second) {
		t.Fatal("wrong session survived unregister")
	}

	registry.Unregister(second)
	if registry.Online("alice") {
		t.Fatal("user should be offline after last session is gone")
	}
}

func TestRegistryUnregisterUnknownIsNoop(t *testing.T) {
	registry := presence.NewRegistry()
	registry.Unregister(&fakeSession{userID: "ghost"})

	if registry.Online("ghost") {
		t.Fatal("ghost should not be online")
	}
}

func TestRegistrySessionsForUnknownUser(t *testing.T) {
	registry := presence.NewRegistry()
	if got := registry.SessionsFor("nobody"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
