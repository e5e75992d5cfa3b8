// Package chat manages channels, message posting and per-user read
// cursors. Sequence numbers are assigned per channel, strictly increasing
// and gap-free; the read cursor only ever moves forward.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	chatmodel "github.com/pixhy/voizchat/internal/model/chat"
	"github.com/pixhy/voizchat/internal/model/user"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrNotAMember      = errors.New("user is not a member of the channel")
	ErrEmptyMessage    = errors.New("message body is empty")
	ErrMessageTooLong  = fmt.Errorf("message exceeds %d characters", chatmodel.MaxMessageLength)
	ErrChatNotOpen     = errors.New("chat is not open")
)

// Store persists channels, memberships, messages and opened chats.
type Store interface {
	// ChannelByID returns the channel, or ErrChannelNotFound.
	ChannelByID(ctx context.Context, channelID string) (chatmodel.Channel, error)
	// ResolveOrCreateDirectChannel atomically finds or creates the direct
	// channel for the canonical pair key. When candidate wins, both users
	// become members with cursor 0. Concurrent callers get the same row.
	ResolveOrCreateDirectChannel(ctx context.Context, candidate chatmodel.Channel, pairKey, userA, userB string) (chatmodel.Channel, error)
	IsMember(ctx context.Context, channelID, userID string) (bool, error)
	ChannelMemberInfos(ctx context.Context, channelID string) ([]user.Info, error)
	// InsertMessage assigns the next per-channel sequence number and
	// bumps the channel's last-activity timestamp in one transaction.
	InsertMessage(ctx context.Context, channelID, senderID, body string, now int64) (chatmodel.Message, error)
	// Messages returns up to limit messages with seq < before (0 means
	// from the newest), newest first.
	Messages(ctx context.Context, channelID string, before int64, limit int) ([]chatmodel.Message, error)
	// MarkRead sets the cursor to max(cursor, seq); ErrNotAMember when
	// the membership row does not exist.
	MarkRead(ctx context.Context, channelID, userID string, seq int64) error
	// UnreadCount counts messages with seq greater than the cursor.
	UnreadCount(ctx context.Context, channelID, userID string) (int64, error)

	OpenChat(ctx context.Context, userID, channelID string, now int64) error
	CloseChat(ctx context.Context, userID, channelID string) error
	OpenedChannels(ctx context.Context, userID string) ([]chatmodel.Channel, error)
}

// Broadcaster fans events out to channel members' live sessions.
type Broadcaster interface {
	SendToChannel(ctx context.Context, channelID, cmd string, data any, skipUserID string) error
}

// OpenedChat is a channel as seen from one user's conversation list.
type OpenedChat struct {
	Channel chatmodel.Channel `json:"channel"`
	Users   []user.Info       `json:"users"`
	Unread  int64             `json:"unread_count"`
}

// Service coordinates channel state with realtime fan-out.
type Service struct {
	store     Store
	broadcast Broadcaster
	now       func() time.Time
}

// NewService wires the chat service to its store and broadcaster.
func NewService(store Store, broadcast Broadcaster) *Service {
	return &Service{store: store, broadcast: broadcast, now: time.Now}
}

// ResolveOrCreateDirectChannel returns the one direct channel for the pair,
// creating it on first use. Safe under concurrent calls for the same pair.
func (s *Service) ResolveOrCreateDirectChannel(ctx context.Context, userA, userB string) (chatmodel.Channel, error) {
	lo, hi := pairKey(userA, userB)
	candidate := chatmodel.Channel{
		ChannelID:  uuid.NewString(),
		Kind:       chatmodel.KindDirect,
		LastUpdate: s.now().Unix(),
	}
	return s.store.ResolveOrCreateDirectChannel(ctx, candidate, lo+"|"+hi, userA, userB)
}

// PostMessage stores the message and pushes a message event to every member
// of the channel, including the sender.
func (s *Service) PostMessage(ctx context.Context, channelID, senderID, body string) (chatmodel.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return chatmodel.Message{}, ErrEmptyMessage
	}
	if len(body) > chatmodel.MaxMessageLength {
		return chatmodel.Message{}, ErrMessageTooLong
	}

	msg, err := s.store.InsertMessage(ctx, channelID, senderID, body, s.now().Unix())
	if err != nil {
		return chatmodel.Message{}, err
	}

	if err := s.broadcast.SendToChannel(ctx, channelID, "message", msg, ""); err != nil {
		log.Printf("[chat] broadcast message %s/%d: %v", channelID, msg.Seq, err)
	}
	return msg, nil
}

// History returns up to limit messages before the given sequence number
// (0 for the newest), newest first. The caller must be a member.
func (s *Service) History(ctx context.Context, channelID, userID string, before int64, limit int) ([]chatmodel.Message, error) {
	if err := s.requireMember(ctx, channelID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.Messages(ctx, channelID, before, limit)
}

// MarkRead advances the user's read cursor to seq. A stale seq lower than
// the current cursor leaves it unchanged.
func (s *Service) MarkRead(ctx context.Context, channelID, userID string, seq int64) error {
	if _, err := s.store.ChannelByID(ctx, channelID); err != nil {
		return err
	}
	return s.store.MarkRead(ctx, channelID, userID, seq)
}

// UnreadCount reports how many messages in the channel the user has not
// read yet.
func (s *Service) UnreadCount(ctx context.Context, channelID, userID string) (int64, error) {
	if err := s.requireMember(ctx, channelID, userID); err != nil {
		return 0, err
	}
	return s.store.UnreadCount(ctx, channelID, userID)
}

// Relay membership-checks the sender and forwards an ephemeral event (for
// example whiteboard strokes or call signaling) to the channel's other
// members. Nothing is persisted.
func (s *Service) Relay(ctx context.Context, channelID, senderID, cmd string, data any) error {
	if err := s.requireMember(ctx, channelID, senderID); err != nil {
		return err
	}
	return s.broadcast.SendToChannel(ctx, channelID, cmd, data, senderID)
}

// OpenChatWithUser resolves (or creates) the direct channel shared with the
// other user and adds it to the caller's conversation list.
func (s *Service) OpenChatWithUser(ctx context.Context, userID, otherID string) (OpenedChat, error) {
	channel, err := s.ResolveOrCreateDirectChannel(ctx, userID, otherID)
	if err != nil {
		return OpenedChat{}, err
	}
	if err := s.store.OpenChat(ctx, userID, channel.ChannelID, s.now().Unix()); err != nil {
		return OpenedChat{}, err
	}
	return s.openedChat(ctx, userID, channel)
}

// OpenChatChannel adds an existing channel the user belongs to into their
// conversation list.
func (s *Service) OpenChatChannel(ctx context.Context, userID, channelID string) (OpenedChat, error) {
	channel, err := s.store.ChannelByID(ctx, channelID)
	if err != nil {
		return OpenedChat{}, err
	}
	if err := s.requireMember(ctx, channelID, userID); err != nil {
		return OpenedChat{}, err
	}
	if err := s.store.OpenChat(ctx, userID, channelID, s.now().Unix()); err != nil {
		return OpenedChat{}, err
	}
	return s.openedChat(ctx, userID, channel)
}

// CloseChat removes the channel from the user's conversation list.
func (s *Service) CloseChat(ctx context.Context, userID, channelID string) error {
	return s.store.CloseChat(ctx, userID, channelID)
}

// OpenedChats lists the user's open conversations with counterpart users
// and unread counts.
func (s *Service) OpenedChats(ctx context.Context, userID string) ([]OpenedChat, error) {
	channels, err := s.store.OpenedChannels(ctx, userID)
	if err != nil {
		return nil, err
	}
	chats := make([]OpenedChat, 0, len(channels))
	for _, channel := range channels {
		chat, err := s.openedChat(ctx, userID, channel)
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, nil
}

func (s *Service) openedChat(ctx context.Context, userID string, channel chatmodel.Channel) (OpenedChat, error) {
	members, err := s.store.ChannelMemberInfos(ctx, channel.ChannelID)
	if err != nil {
		return OpenedChat{}, err
	}
	others := make([]user.Info, 0, len(members))
	for _, member := range members {
		if member.UserID != userID {
			others = append(others, member)
		}
	}
	unread, err := s.store.UnreadCount(ctx, channel.ChannelID, userID)
	if err != nil {
		return OpenedChat{}, err
	}
	return OpenedChat{Channel: channel, Users: others, Unread: unread}, nil
}

func (s *Service) requireMember(ctx context.Context, channelID, userID string) error {
	if _, err := s.store.ChannelByID(ctx, channelID); err != nil {
		return err
	}
	member, err := s.store.IsMember(ctx, channelID, userID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotAMember
	}
	return nil
}

func pairKey(a, b string) (lo, hi string) {
	if a < b {
		return a, b
	}
	return b, a
}
