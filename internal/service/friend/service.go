// Package friend implements the pending/accepted state machine over the
// undirected relationship between two users. Every transition notifies both
// participants through the broadcast router.
package friend

import (
	"context"
	"errors"
	"log"
	"time"

	friendmodel "github.com/pixhy/voizchat/internal/model/friend"
	"github.com/pixhy/voizchat/internal/model/user"
)

var (
	ErrInvalidTarget    = errors.New("cannot send a friend request to yourself")
	ErrDuplicateRequest = errors.New("friend request already sent")
	ErrAlreadyFriends   = errors.New("users are already friends")
	ErrNotFound         = errors.New("friend relationship not found")
)

// Store persists friend edges. Conditional mutations carry their expected
// prior state in the WHERE clause so concurrent transitions cannot observe
// a half-applied edge.
type Store interface {
	// FriendEdge returns the edge for the unordered pair, or ErrNotFound.
	FriendEdge(ctx context.Context, a, b string) (friendmodel.Edge, error)
	// CreateFriendEdge inserts a pending edge; ErrDuplicateRequest if the
	// pair already has one.
	CreateFriendEdge(ctx context.Context, edge friendmodel.Edge) error
	// AcceptFriendEdge flips pending to accepted, but only while the edge
	// is still pending with the given requester; ErrNotFound otherwise.
	AcceptFriendEdge(ctx context.Context, lo, hi, requesterID string, acceptedAt int64) error
	// DeleteFriendEdge removes the edge, but only while its pending flag
	// matches; ErrNotFound otherwise.
	DeleteFriendEdge(ctx context.Context, lo, hi string, pending bool) error

	UserInfo(ctx context.Context, userID string) (user.Info, error)
	Friends(ctx context.Context, userID string) ([]user.Info, error)
	IncomingRequests(ctx context.Context, userID string) ([]user.Info, error)
	OutgoingRequests(ctx context.Context, userID string) ([]user.Info, error)
}

// Notifier pushes events to a user's live sessions.
type Notifier interface {
	SendToUser(userID, cmd string, data any)
}

// Service is the friend relationship state machine.
type Service struct {
	store  Store
	notify Notifier
	now    func() time.Time
}

// NewService wires the state machine to its store and notifier.
func NewService(store Store, notify Notifier) *Service {
	return &Service{store: store, notify: notify, now: time.Now}
}

// Request handles a friend request from fromID to toID. If toID has already
// requested fromID, the crossed requests collapse into an acceptance.
func (s *Service) Request(ctx context.Context, fromID, toID string) error {
	if fromID == toID {
		return ErrInvalidTarget
	}

	edge, err := s.store.FriendEdge(ctx, fromID, toID)
	switch {
	case errors.Is(err, ErrNotFound):
		return s.create(ctx, fromID, toID)
	case err != nil:
		return err
	}
	return s.advance(ctx, edge, fromID)
}

func (s *Service) create(ctx context.Context, fromID, toID string) error {
	lo, hi := friendmodel.PairKey(fromID, toID)
	edge := friendmodel.Edge{UserLo: lo, UserHi: hi, RequesterID: fromID, Pending: true}

	err := s.store.CreateFriendEdge(ctx, edge)
	if errors.Is(err, ErrDuplicateRequest) {
		// Lost a race against a concurrent request on the same pair.
		// Re-read and let the existing edge decide the transition.
		existing, readErr := s.store.FriendEdge(ctx, fromID, toID)
		if readErr != nil {
			return err
		}
		return s.advance(ctx, existing, fromID)
	}
	if err != nil {
		return err
	}

	s.notifyState(ctx, fromID, toID, friendmodel.StateRequestOutgoing)
	s.notifyState(ctx, toID, fromID, friendmodel.StateRequestIncoming)
	return nil
}

func (s *Service) advance(ctx context.Context, edge friendmodel.Edge, fromID string) error {
	if !edge.Pending {
		return ErrAlreadyFriends
	}
	if edge.RequesterID == fromID {
		return ErrDuplicateRequest
	}
	return s.accept(ctx, edge, fromID)
}

func (s *Service) accept(ctx context.Context, edge friendmodel.Edge, accepterID string) error {
	err := s.store.AcceptFriendEdge(ctx, edge.UserLo, edge.UserHi, edge.RequesterID, s.now().Unix())
	if err != nil {
		return err
	}

	s.notifyState(ctx, edge.RequesterID, accepterID, friendmodel.StateAcceptOutgoing)
	s.notifyState(ctx, accepterID, edge.RequesterID, friendmodel.StateAcceptIncoming)
	return nil
}

// Remove deletes whatever edge exists between the two users: a pending
// request is retracted or rejected, an accepted friendship is dissolved.
func (s *Service) Remove(ctx context.Context, fromID, otherID string) error {
	if fromID == otherID {
		return ErrInvalidTarget
	}

	edge, err := s.store.FriendEdge(ctx, fromID, otherID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteFriendEdge(ctx, edge.UserLo, edge.UserHi, edge.Pending); err != nil {
		return err
	}

	if edge.Pending {
		target := edge.Target()
		s.notifyState(ctx, edge.RequesterID, target, friendmodel.StateRemoveOutgoing)
		s.notifyState(ctx, target, edge.RequesterID, friendmodel.StateRemoveIncoming)
		return nil
	}

	s.notifyState(ctx, fromID, otherID, friendmodel.StateRemoveFriend)
	s.notifyState(ctx, otherID, fromID, friendmodel.StateRemoveFriend)
	return nil
}

// Friends lists accepted friends of the user.
func (s *Service) Friends(ctx context.Context, userID string) ([]user.Info, error) {
	return s.store.Friends(ctx, userID)
}

// IncomingRequests lists users who have requested this user.
func (s *Service) IncomingRequests(ctx context.Context, userID string) ([]user.Info, error) {
	return s.store.IncomingRequests(ctx, userID)
}

// OutgoingRequests lists users this user has requested.
func (s *Service) OutgoingRequests(ctx context.Context, userID string) ([]user.Info, error) {
	return s.store.OutgoingRequests(ctx, userID)
}

// notifyState tells receiverID that the relationship with otherID changed.
// Labels are phrased from the receiver's perspective.
func (s *Service) notifyState(ctx context.Context, receiverID, otherID string, state friendmodel.StateLabel) {
	info, err := s.store.UserInfo(ctx, otherID)
	if err != nil {
		log.Printf("[friend] lookup %s for notification: %v", otherID, err)
		return
	}
	s.notify.SendToUser(receiverID, "friend-state-update", friendmodel.StateUpdate{
		OtherUser: info,
		NewState:  state,
	})
}
