package friend_test

import (
	"context"
	"errors"
	"testing"

	friendmodel "github.com/pixhy/voizchat/internal/model/friend"
	"github.com/pixhy/voizchat/internal/model/user"
	friendservice "github.com/pixhy/voizchat/internal/service/friend"
)

type memStore struct {
	edges map[string]friendmodel.Edge
}

func newMemStore() *memStore {
	return &memStore{edges: make(map[string]friendmodel.Edge)}
}

func key(a, b string) string {
	lo, hi := friendmodel.PairKey(a, b)
	return lo + "|" + hi
}

func (m *memStore) FriendEdge(_ context.Context, a, b string) (friendmodel.Edge, error) {
	edge, ok := m.edges[key(a, b)]
	if !ok {
		return friendmodel.Edge{}, friendservice.ErrNotFound
	}
	return edge, nil
}

func (m *memStore) CreateFriendEdge(_ context.Context, edge friendmodel.Edge) error {
	k := edge.UserLo + "|" + edge.UserHi
	if _, ok := m.edges[k]; ok {
		return friendservice.ErrDuplicateRequest
	}
	m.edges[k] = edge
	return nil
}

func (m *memStore) AcceptFriendEdge(_ context.Context, lo, hi, requesterID string, acceptedAt int64) error {
	k := lo + "|" + hi
	edge, ok := m.edges[k]
	if !ok || !edge.Pending || edge.RequesterID != requesterID {
		return friendservice.ErrNotFound
	}
	edge.Pending = false
	edge.AcceptedAt = acceptedAt
	m.edges[k] = edge
	return nil
}

func (m *memStore) DeleteFriendEdge(_ context.Context, lo, hi string, pending bool) error {
	k := lo + "|" + hi
	edge, ok := m.edges[k]
	if !ok || edge.Pending != pending {
		return friendservice.ErrNotFound
	}
	delete(m.edges, k)
	return nil
}

func (m *memStore) UserInfo(_ context.Context, userID string) (user.Info, error) {
	return user.Info{UserID: userID, Username: userID}, nil
}

func (m *memStore) Friends(_ context.Context, userID string) ([]user.Info, error) {
	return m.collect(userID, func(e friendmodel.Edge) bool { return !e.Pending }), nil
}

func (m *memStore) IncomingRequests(_ context.Context, userID string) ([]user.Info, error) {
	return m.collect(userID, func(e friendmodel.Edge) bool {
		return e.Pending && e.RequesterID != userID
	}), nil
}

func (m *memStore) OutgoingRequests(_ context.Context, userID string) ([]user.Info, error) {
	return m.collect(userID, func(e friendmodel.Edge) bool {
		return e.Pending && e.RequesterID == userID
	}), nil
}

func (m *memStore) collect(userID string, keep func(friendmodel.Edge) bool) []user.Info {
	var infos []user.Info
	for _, edge := range m.edges {
		if edge.UserLo != userID && edge.UserHi != userID {
			continue
		}
		if keep(edge) {
			other := edge.Other(userID)
			infos = append(infos, user.Info{UserID: other, Username: other})
		}
	}
	return infos
}

type notification struct {
	userID string
	cmd    string
	update friendmodel.StateUpdate
}

type recorder struct {
	sent []notification
}

func (r *recorder) SendToUser(userID, cmd string, data any) {
	update, _ := data.(friendmodel.StateUpdate)
	r.sent = append(r.sent, notification{userID: userID, cmd: cmd, update: update})
}

func (r *recorder) stateFor(t *testing.T, userID string) friendmodel.StateLabel {
	t.Helper()
	for _, n := range r.sent {
		if n.userID == userID {
			return n.update.NewState
		}
	}
	t.Fatalf("no notification sent to %s", userID)
	return ""
}

func newService() (*friendservice.Service, *memStore, *recorder) {
	store := newMemStore()
	notify := &recorder{}
	return friendservice.NewService(store, notify), store, notify
}

func TestRequestCreatesPendingEdge(t *testing.T) {
	svc, store, notify := newService()
	ctx := context.Background()

	if err := svc.Request(ctx, "alice", "bob"); err != nil {
		t.Fatalf("Request err: %v", err)
	}

	edge, err := store.FriendEdge(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("FriendEdge err: %v", err)
	}
	if !edge.Pending || edge.RequesterID != "alice" {
		t.Fatalf("unexpected edge: %+v", edge)
	}

	if got := notify.stateFor(t, "alice"); got != friendmodel.StateRequestOutgoing {
		t.Fatalf("requester got %q", got)
	}
	if got := notify.stateFor(t, "bob"); got != friendmodel.StateRequestIncoming {
		t.Fatalf("target got %q", got)
	}
}

func TestRequestToSelf(t *testing.T) {
	svc, _, _ := newService()
	if err := svc.Request(context.Background(), "alice", "alice"); !errors.Is(err, friendservice.ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
}

func TestRequestTwiceIsDuplicate(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	if err := svc.Request(ctx, "alice", "bob"); err != nil {
		t.Fatalf("first Request err: %v", err)
	}
	if err := svc.Request(ctx, "alice", "bob"); !errors.Is(err, friendservice.ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}
}

func TestCrossedRequestsAccept(t *testing.T) {
	svc, store, notify := newService()
	ctx := context.Background()

	if err := svc.Request(ctx, "alice", "bob"); err != nil {
		t.Fatalf("Request err: %v", err)
	}
	notify.sent = nil

	if err := svc.Request(ctx, "bob", "alice"); err != nil {
		t.Fatalf("crossed Request err: %v", err)
	}

	edge, err := store.FriendEdge(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("FriendEdge err: %v", err)
	}
	if edge.Pending {
		t.Fatal("edge should be accepted")
	}

	if got := notify.stateFor(t, "alice"); got != friendmodel.StateAcceptOutgoing {
		t.Fatalf("requester got %q", got)
	}
	if got := notify.stateFor(t, "bob"); got != friendmodel.StateAcceptIncoming {
		t.Fatalf("accepter got %q", got)
	}
}

func TestRequestWhenAlreadyFriends(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	if err := svc.Request(ctx, "alice", "bob"); err != nil {
		t.Fatalf("Request err: %v", err)
	}
	if err := svc.Request(ctx, "bob", "alice"); err != nil {
		t.Fatalf("accept err: %v", err)
	}

	if err := svc.Request(ctx, "alice", "bob"); !errors.Is(err, friendservice.ErrAlreadyFriends) {
		t.Fatalf("expected ErrAlreadyFriends, got %v", err)
	}
}

func TestRemovePendingRequest(t *testing.T) {
	svc, store, notify := newService()
	ctx := context.Background()

	if err := svc.Request(ctx, "alice", "bob"); err != nil {
		t.Fatalf("Request err: %v", err)
	}
	notify.sent = nil

	// The target rejects; labels still follow the requester/target roles.
	if err := svc.Remove(ctx, "bob", "alice"); err != nil {
		t.Fatalf("Remove err: %v", err)
	}

	if _, err := store.FriendEdge(ctx, "alice", "bob"); !errors.Is(err, friendservice.ErrNotFound) {
		t.Fatalf("edge should be gone, got %v", err)
	}
	if got := notify.stateFor(t, "alice"); got != friendmodel.StateRemoveOutgoing {
		t.Fatalf("requester got %q", got)
	}
	if got := notify.stateFor(t, "bob"); got != friendmodel.StateRemoveIncoming {
		t.Fatalf("target got %q", got)
	}
}

func TestRemoveFriendship(t *testing.T) {
	svc, _, notify := newService()
	ctx := context.Background()

	if err := svc.Request(ctx, "alice", "bob"); err != nil {
		t.Fatalf("Request err: %v", err)
	}
	if err := svc.Request(ctx, "bob", "alice"); err != nil {
		t.Fatalf("accept err: %v", err)
	}
	notify.sent = nil

	if err := svc.Remove(ctx, "alice", "bob"); err != nil {
		t.Fatalf("Remove err: %v", err)
	}

	if got := notify.stateFor(t, "alice"); got != friendmodel.StateRemoveFriend {
		t.Fatalf("alice got %q", got)
	}
	if got := notify.stateFor(t, "bob"); got != friendmodel.StateRemoveFriend {
		t.Fatalf("bob got %q", got)
	}
}

func TestRemoveWithoutEdge(t *testing.T) {
	svc, _, _ := newService()
	if err := svc.Remove(context.Background(), "alice", "bob"); !errors.Is(err, friendservice.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListsReflectState(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	if err := svc.Request(ctx, "alice", "bob"); err != nil {
		t.Fatalf("Request err: %v", err)
	}

	outgoing, err := svc.OutgoingRequests(ctx, "alice")
	if err != nil || len(outgoing) != 1 || outgoing[0].UserID != "bob" {
		t.Fatalf("outgoing = %v err = %v", outgoing, err)
	}
	incoming, err := svc.IncomingRequests(ctx, "bob")
	if err != nil || len(incoming) != 1 || incoming[0].UserID != "alice" {
		t.Fatalf("incoming = %v err = %v", incoming, err)
	}

	if err := svc.Request(ctx, "bob", "alice"); err != nil {
		t.Fatalf("accept err: %v", err)
	}

	friends, err := svc.Friends(ctx, "alice")
	if err != nil || len(friends) != 1 || friends[0].UserID != "bob" {
		t.Fatalf("friends = %v err = %v", friends, err)
	}
	outgoing, err = svc.OutgoingRequests(ctx, "alice")
	if err != nil || len(outgoing) != 0 {
		t.Fatalf("outgoing after accept = %v err = %v", outgoing, err)
	}
}
