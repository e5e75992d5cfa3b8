// Package broadcast fans events out to the live sessions of target users.
// Delivery is best-effort: recipients without open sessions are skipped
// silently and no event is ever queued for later.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/pixhy/voizchat/internal/service/presence"
)

// Event is the outbound envelope pushed to clients.
type Event struct {
	Cmd  string `json:"cmd"`
	Data any    `json:"data"`
}

// MemberSource resolves a channel to its member user ids.
type MemberSource interface {
	ChannelMemberIDs(ctx context.Context, channelID string) ([]string, error)
}

// Router delivers events through the connection registry.
type Router struct {
	registry *presence.Registry
	members  MemberSource
}

// NewRouter wires the router to the registry and the channel directory.
func NewRouter(registry *presence.Registry, members MemberSource) *Router {
	return &Router{registry: registry, members: members}
}

// SendToUser pushes the event to every open session of the user, in the
// order the sessions were registered. A user with no sessions is not an
// error; the event is dropped.
func (r *Router) SendToUser(userID, cmd string, data any) {
	payload, err := json.Marshal(Event{Cmd: cmd, Data: data})
	if err != nil {
		log.Printf("[broadcast] marshal %s event: %v", cmd, err)
		return
	}
	r.pushToUser(userID, payload)
}

// SendToChannel delivers the event to every member of the channel except
// skipUserID (pass "" to include everyone). The envelope is serialized
// once and the same bytes go to every recipient.
func (r *Router) SendToChannel(ctx context.Context, channelID, cmd string, data any, skipUserID string) error {
	memberIDs, err := r.members.ChannelMemberIDs(ctx, channelID)
	if err != nil {
		return fmt.Errorf("resolve channel members: %w", err)
	}
	payload, err := json.Marshal(Event{Cmd: cmd, Data: data})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", cmd, err)
	}
	for _, userID := range memberIDs {
		if userID == skipUserID {
			continue
		}
		r.pushToUser(userID, payload)
	}
	return nil
}

func (r *Router) pushToUser(userID string, payload []byte) {
	for _, session := range r.registry.SessionsFor(userID) {
		session.Push(payload)
	}
}
