package realtime

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/veilgram/feedsvc/config"
	"github.com/veilgram/feedsvc/pkg/logger"
)

// Handler upgrades feed subscribers onto the hub.
type Handler struct {
	hub      *Hub
	secret   string
	sendBuf  int
	limiter  *rate.Limiter
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, cfg config.RealtimeConfig) *Handler {
	perSec := cfg.ConnectPerSec
	if perSec <= 0 {
		perSec = 50
	}
	burst := cfg.ConnectBurst
	if burst <= 0 {
		burst = 100
	}
	return &Handler{
		hub:     hub,
		secret:  cfg.JWTSecret,
		sendBuf: cfg.SendBufferSize,
		limiter: rate.NewLimiter(rate.Limit(perSec), burst),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origin checks belong to the gateway in front of this service
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeWS handles GET /feed/ws. Identity is resolved before the connection
// joins any group; an unauthenticated socket is refused with close code 4401
// rather than accepted and then dropped.
func (h *Handler) ServeWS(c *gin.Context) {
	if !h.limiter.Allow() {
		c.AbortWithStatus(http.StatusTooManyRequests)
		return
	}

	userID, authErr := resolveUserID(c.Request, h.secret)

	// clients that offered the token as a subprotocol need it echoed back or
	// they fail their own handshake check
	var respHeader http.Header
	if proto := c.GetHeader("Sec-WebSocket-Protocol"); proto != "" {
		first := strings.TrimSpace(strings.Split(proto, ",")[0])
		respHeader = http.Header{"Sec-WebSocket-Protocol": {first}}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, respHeader)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	if authErr != nil || userID == "" {
		msg := websocket.FormatCloseMessage(CloseUnauthorized, "unauthorized")
		_ = conn.WriteMessage(websocket.CloseMessage, msg)
		_ = conn.Close()
		return
	}

	client := newClient(h.hub, conn, userID, h.sendBuf)
	go client.run()
}
