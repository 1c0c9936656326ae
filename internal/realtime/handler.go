package realtime

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mattkerbyy/bubbly/backend/internal/auth"
	"github.com/mattkerbyy/bubbly/backend/pkg/logger"
)

// Handler upgrades authenticated requests on /ws and runs the connection.
type Handler struct {
	hub       *Hub
	tokens    *auth.TokenManager
	messenger Messenger
	perSecond rate.Limit
	burst     int
	upgrader  websocket.Upgrader
}

// NewHandler builds the websocket endpoint. eventsPerSecond bounds inbound
// events per connection; allowedOrigins of "*" accepts any origin.
func NewHandler(hub *Hub, tokens *auth.TokenManager, messenger Messenger, eventsPerSecond float64, allowedOrigins []string) *Handler {
	burst := int(eventsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Handler{
		hub:       hub,
		tokens:    tokens,
		messenger: messenger,
		perSecond: rate.Limit(eventsPerSecond),
		burst:     burst,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		for _, o := range allowed {
			if strings.EqualFold(strings.TrimRight(o, "/"), u.Scheme+"://"+u.Host) {
				return true
			}
		}
		return false
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

// Serve rejects unauthenticated requests before upgrading, so a bad token
// never touches presence.
func (h *Handler) Serve(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token, _ = auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	}
	claims, err := h.tokens.Parse(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Uint("user_id", claims.UserID), zap.Error(err))
		return nil
	}

	client := newClient(uuid.NewString(), claims.UserID, h.hub, h.messenger, conn, rate.NewLimiter(h.perSecond, h.burst))
	h.hub.register(client)
	go client.writePump()
	client.readPump(c.Request().Context())
	return nil
}
