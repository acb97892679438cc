package handlers

import (
	"net/http"

	"sayit/internal/middleware"
	"sayit/internal/realtime"
	"sayit/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type WebSocketHandler struct {
	hub        *realtime.Hub
	jwtManager *auth.JWTManager
	upgrader   websocket.Upgrader
	log        logrus.FieldLogger
}

// NewWebSocketHandler accepts upgrades from allowedOrigins; "*" allows any.
func NewWebSocketHandler(hub *realtime.Hub, jwtManager *auth.JWTManager, allowedOrigins []string, log logrus.FieldLogger) *WebSocketHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &WebSocketHandler{
		hub:        hub,
		jwtManager: jwtManager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
		log: log,
	}
}

// HandleWebSocket authenticates from ?token= (browsers cannot set headers on
// the upgrade request) and subscribes the socket to the caller's
// notifications.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	actor := middleware.GetActor(c)
	if actor == nil {
		var ok bool
		actor, ok = middleware.ActorFromToken(h.jwtManager, c.Query("token"))
		if !ok {
			c.JSON(http.StatusUnauthorized, Response{Message: "Invalid or expired token"})
			return
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.hub.Attach(conn, actor.Subject)
}
