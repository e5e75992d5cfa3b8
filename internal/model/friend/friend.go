package friend

import "github.com/pixhy/voizchat/internal/model/user"

// Edge is the relationship between an unordered pair of users. The pair is
// stored canonically (UserLo < UserHi) so at most one edge can exist per
// pair. RequesterID records which side sent the request; it matters while
// the edge is pending and is kept afterwards.
type Edge struct {
	UserLo      string
	UserHi      string
	RequesterID string
	Pending     bool
	AcceptedAt  int64
}

// PairKey orders two user ids canonically.
func PairKey(a, b string) (lo, hi string) {
	if a < b {
		return a, b
	}
	return b, a
}

// Other returns the counterpart of userID on this edge.
func (e Edge) Other(userID string) string {
	if e.UserLo == userID {
		return e.UserHi
	}
	return e.UserLo
}

// Target returns the user the request was sent to.
func (e Edge) Target() string {
	return e.Other(e.RequesterID)
}

// StateLabel names a relationship change from the receiving user's
// perspective, matching what the web client expects.
type StateLabel string

const (
	StateRequestOutgoing StateLabel = "request-outgoing"
	StateRequestIncoming StateLabel = "request-incoming"
	StateAcceptOutgoing  StateLabel = "accept-outgoing"
	StateAcceptIncoming  StateLabel = "accept-incoming"
	StateRemoveOutgoing  StateLabel = "remove-outgoing"
	StateRemoveIncoming  StateLabel = "remove-incoming"
	StateRemoveFriend    StateLabel = "remove-friend"
)

// StateUpdate is the payload of a friend-state-update event.
type StateUpdate struct {
	OtherUser user.Info  `json:"other_user"`
	NewState  StateLabel `json:"new_state"`
}
