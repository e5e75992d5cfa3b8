package broadcast_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/pixhy/voizchat/internal/service/broadcast"
	"github.com/pixhy/voizchat/internal/service/presence"
)

type fakeSession struct {
	userID string
	got    [][]byte
}

func (s *fakeSession) UserID() string   { return s.userID }
func (s *fakeSession) Push(data []byte) { s.got = append(s.got, data) }

type fakeMembers struct {
	members map[string][]string
	err     error
}

func (f *fakeMembers) ChannelMemberIDs(_ context.Context, channelID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.members[channelID], nil
}

func decodeEvent(t *testing.T, payload []byte) broadcast.Event {
	t.Helper()
	var event broadcast.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	return event
}

func TestSendToUserDeliversToAllSessions(t *testing.T) {
	registry := presence.NewRegistry()
	first := &fakeSession{userID: "alice"}
	second := &fakeSession{userID: "alice"}
	registry.Register(first)
	registry.Register(second)

	router := broadcast.NewRouter(registry, &fakeMembers{})
	router.SendToUser("alice", "ping", map[string]string{"k": "v"})

	for _, sess := range []*fakeSession{first, second} {
		if len(sess.got) != 1 {
			t.Fatalf("expected 1 delivery, got %d", len(sess.got))
		}
		event := decodeEvent(t, sess.got[0])
		if event.Cmd != "ping" {
			t.Fatalf("unexpected cmd %q", event.Cmd)
		}
	}
}

func TestSendToUserWithoutSessionsIsSilent(t *testing.T) {
	router := broadcast.NewRouter(presence.NewRegistry(), &fakeMembers{})
	router.SendToUser("offline", "ping", nil)
}

func TestSendToChannelSkipsSender(t *testing.T) {
	registry := presence.NewRegistry()
	alice := &fakeSession{userID: "alice"}
	bob := &fakeSession{userID: "bob"}
	registry.Register(alice)
	registry.Register(bob)

	members := &fakeMembers{members: map[string][]string{
		"ch-1": {"alice", "bob"},
	}}
	router := broadcast.NewRouter(registry, members)

	if err := router.SendToChannel(context.Background(), "ch-1", "whiteboard", nil, "alice"); err != nil {
		t.Fatalf("SendToChannel err: %v", err)
	}

	if len(alice.got) != 0 {
		t.Fatalf("sender should be skipped, got %d deliveries", len(alice.got))
	}
	if len(bob.got) != 1 {
		t.Fatalf("expected 1 delivery to bob, got %d", len(bob.got))
	}
}

func TestSendToChannelIncludesEveryoneWithEmptySkip(t *testing.T) {
	registry := presence.NewRegistry()
	alice := &fakeSession{userID: "alice"}
	bob := &fakeSession{userID: "bob"}
	registry.Register(alice)
	registry.Register(bob)

	members := &fakeMembers{members: map[string][]string{
		"ch-1": {"alice", "bob"},
	}}
	router := broadcast.NewRouter(registry, members)

	if err := router.SendToChannel(context.Background(), "ch-1", "message", nil, ""); err != nil {
		t.Fatalf("SendToChannel err: %v", err)
	}
	if len(alice.got) != 1 || len(bob.got) != 1 {
		t.Fatalf("expected delivery to both members, got %d/%d", len(alice.got), len(bob.got))
	}
}

func TestSendToChannelSerializesOnce(t *testing.T) {
	registry := presence.NewRegistry()
	alice := &fakeSession{userID: "alice"}
	bob := &fakeSession{userID: "bob"}
	registry.Register(alice)
	registry.Register(bob)

	members := &fakeMembers{members: map[string][]string{
		"ch-1": {"alice", "bob"},
	}}
	router := broadcast.NewRouter(registry, members)

	if err := router.SendToChannel(context.Background(), "ch-1", "message", map[string]int{"seq": 1}, ""); err != nil {
		t.Fatalf("SendToChannel err: %v", err)
	}
	if len(alice.got) != 1 || len(bob.got) != 1 {
		t.Fatalf("expected one delivery each, got %d/%d", len(alice.got), len(bob.got))
	}
	if !bytes.Equal(alice.got[0], bob.got[0]) {
		t.Fatalf("recipients got different payloads: %s vs %s", alice.got[0], bob.got[0])
	}
}

func TestSendToChannelMarshalError(t *testing.T) {
	members := &fakeMembers{members: map[string][]string{
		"ch-1": {"alice"},
	}}
	router := broadcast.NewRouter(presence.NewRegistry(), members)

	if err := router.SendToChannel(context.Background(), "ch-1", "message", make(chan int), ""); err == nil {
		t.Fatal("expected marshal error for unencodable payload")
	}
}

func TestSendToChannelMemberLookupError(t *testing.T) {
	members := &fakeMembers{err: errors.New("db down")}
	router := broadcast.NewRouter(presence.NewRegistry(), members)

	if err := router.SendToChannel(context.Background(), "ch-1", "message", nil, ""); err == nil {
		t.Fatal("expected error from member lookup")
	}
}
