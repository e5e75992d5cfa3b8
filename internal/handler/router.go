package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	channelHandler "github.com/pixhy/voizchat/internal/handler/channel"
	friendHandler "github.com/pixhy/voizchat/internal/handler/friend"
	openedChatHandler "github.com/pixhy/voizchat/internal/handler/openedchat"
	userHandler "github.com/pixhy/voizchat/internal/handler/user"
	wsHandler "github.com/pixhy/voizchat/internal/handler/ws"
	middlewarePkg "github.com/pixhy/voizchat/internal/middleware"
	"github.com/pixhy/voizchat/internal/service/auth"
	chatService "github.com/pixhy/voizchat/internal/service/chat"
	friendService "github.com/pixhy/voizchat/internal/service/friend"
	"github.com/pixhy/voizchat/internal/service/presence"
	userService "github.com/pixhy/voizchat/internal/service/user"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(gate *auth.Gate, registry *presence.Registry, userSvc *userService.Service, friendSvc *friendService.Service, chatSvc *chatService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	users := userHandler.New(userSvc)
	friends := friendHandler.New(friendSvc)
	openedChats := openedChatHandler.New(chatSvc, userSvc)
	channels := channelHandler.New(chatSvc)
	gateway := wsHandler.New(gate, registry, chatSvc)

	r.Route("/api", func(api chi.Router) {
		users.RegisterPublicRoutes(api)

		// The websocket endpoint authenticates via its first frame, not
		// via the Authorization header.
		gateway.RegisterRoutes(api)

		api.Group(func(protected chi.Router) {
			protected.Use(middlewarePkg.RequireAuth(gate))
			users.RegisterProtectedRoutes(protected)
			friends.RegisterRoutes(protected)
			openedChats.RegisterRoutes(protected)
			channels.RegisterRoutes(protected)
		})
	})

	return r
}
