// Package ws is the realtime gateway: it authenticates websocket sessions,
// registers them with the connection registry and dispatches inbound
// frames to the core services.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/pixhy/voizchat/internal/model/user"
	"github.com/pixhy/voizchat/internal/service/broadcast"
	chatservice "github.com/pixhy/voizchat/internal/service/chat"
	"github.com/pixhy/voizchat/internal/service/presence"
)

const handshakeWait = 10 * time.Second

// errProtocol marks violations that terminate the session instead of
// producing an error envelope.
var errProtocol = errors.New("protocol violation")

// Authenticator resolves the login token to an account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (user.User, error)
}

// Handler upgrades websocket connections and serves them.
type Handler struct {
	gate     Authenticator
	registry *presence.Registry
	chatSvc  *chatservice.Service
	upgrader websocket.Upgrader
}

// New creates the gateway handler.
func New(gate Authenticator, registry *presence.Registry, chatSvc *chatservice.Service) *Handler {
	return &Handler{
		gate:     gate,
		registry: registry,
		chatSvc:  chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type envelope struct {
	Cmd  string          `json:"cmd"`
	Data json.RawMessage `json:"data"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	account, ok := h.handshake(r.Context(), conn)
	if !ok {
		return
	}

	sess := newSession(account.UserID, conn)
	go sess.writePump()

	h.registry.Register(sess)
	defer func() {
		h.registry.Unregister(sess)
		sess.close()
	}()

	log.Printf("[ws] session opened user=%s", account.UserID)
	h.push(sess, "login-ok", map[string]any{"user": account.Info()})

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error user=%s: %v", account.UserID, err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		cmd, ok := ParseCommand(env.Cmd)
		if !ok {
			h.closePolicy(conn, "unknown command: "+env.Cmd)
			return
		}

		if err := h.dispatch(r.Context(), sess, cmd, env.Data); err != nil {
			if errors.Is(err, errProtocol) {
				h.closePolicy(conn, err.Error())
				return
			}
			h.push(sess, "error", map[string]string{"message": err.Error()})
		}
	}
}

// handshake enforces that the very first frame is a valid login.
func (h *Handler) handshake(ctx context.Context, conn *websocket.Conn) (user.User, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeWait))

	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		h.closePolicy(conn, "login required")
		return user.User{}, false
	}
	if cmd, ok := ParseCommand(env.Cmd); !ok || cmd != CommandLogin {
		h.closePolicy(conn, "login required")
		return user.User{}, false
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil || payload.Token == "" {
		h.closePolicy(conn, "login required")
		return user.User{}, false
	}

	account, err := h.gate.Authenticate(ctx, payload.Token)
	if err != nil {
		h.closePolicy(conn, "authentication failed")
		return user.User{}, false
	}
	return account, true
}

func (h *Handler) dispatch(ctx context.Context, sess *session, cmd Command, raw json.RawMessage) error {
	switch cmd {
	case CommandLogin:
		return fmt.Errorf("%w: already authenticated", errProtocol)

	case CommandReadMessage:
		var payload struct {
			ChannelID string `json:"channel_id"`
			MessageID int64  `json:"message_id"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil || payload.ChannelID == "" {
			return fmt.Errorf("%w: malformed read_message payload", errProtocol)
		}
		return h.chatSvc.MarkRead(ctx, payload.ChannelID, sess.UserID(), payload.MessageID)

	case CommandWhiteboard:
		channelID, err := channelIDOf(raw)
		if err != nil {
			return fmt.Errorf("%w: malformed whiteboard payload", errProtocol)
		}
		return h.chatSvc.Relay(ctx, channelID, sess.UserID(), cmd.String(), raw)

	case CommandCallInvite, CommandCallAnswer, CommandCallIceCandidate, CommandCallEnd:
		var payload map[string]any
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("%w: malformed %s payload", errProtocol, cmd)
		}
		channelID, _ := payload["channel_id"].(string)
		if channelID == "" {
			return fmt.Errorf("%w: malformed %s payload", errProtocol, cmd)
		}
		payload["caller_id"] = sess.UserID()
		return h.chatSvc.Relay(ctx, channelID, sess.UserID(), cmd.String(), payload)
	}

	return fmt.Errorf("%w: unhandled command %s", errProtocol, cmd)
}

// push marshals an event envelope onto the session's queue.
func (h *Handler) push(sess *session, cmd string, data any) {
	payload, err := json.Marshal(broadcast.Event{Cmd: cmd, Data: data})
	if err != nil {
		log.Printf("[ws] marshal %s event: %v", cmd, err)
		return
	}
	sess.Push(payload)
}

func (h *Handler) closePolicy(conn *websocket.Conn, reason string) {
	deadline := time.Now().Add(writeWait)
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
}

func channelIDOf(raw json.RawMessage) (string, error) {
	var payload struct {
		ChannelID string `json:"channel_id"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", err
	}
	if payload.ChannelID == "" {
		return "", errors.New("channel_id is required")
	}
	return payload.ChannelID, nil
}
