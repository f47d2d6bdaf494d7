package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"dinehub/internal/domain"
	"dinehub/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler exposes the three channel endpoints. The tenant context middleware
// runs before these, so the token has already been verified.
type Handler struct {
	hub *Hub
	lg  *logger.Logger
}

func NewHandler(hub *Hub, lg *logger.Logger) *Handler {
	return &Handler{hub: hub, lg: lg}
}

// Orders subscribes the connection to the tenant's order stream.
func (h *Handler) Orders(c *gin.Context) {
	tc := tenantFrom(c)
	h.subscribe(c, []string{OrdersGroup(tc.TenantID)})
}

// Kitchen subscribes to the tenant kitchen stream, optionally narrowed to a
// station via ?station=grill.
func (h *Handler) Kitchen(c *gin.Context) {
	tc := tenantFrom(c)
	// Events go to both the station group and the all-stations group, so a
	// connection joins exactly one of them.
	h.subscribe(c, []string{KitchenGroup(tc.TenantID, c.Query("station"))})
}

// Notifications subscribes to the caller's personal stream.
func (h *Handler) Notifications(c *gin.Context) {
	tc := tenantFrom(c)
	h.subscribe(c, []string{NotifyGroup(tc.TenantID, tc.UserID)})
}

func (h *Handler) subscribe(c *gin.Context, groups []string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.lg.Warn("ws_upgrade_failed", map[string]any{"error": err.Error()})
		return
	}
	for _, g := range groups {
		h.hub.Join(g, conn)
	}
	// Reconnecting clients re-join their groups on every new connection;
	// nothing is replayed here. Missed events come from the durable
	// notification records.
	go h.drain(conn)
}

// drain keeps the read side alive so close/ping frames are processed; any
// read error means the client is gone.
func (h *Handler) drain(conn *websocket.Conn) {
	defer func() {
		h.hub.LeaveAll(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func tenantFrom(c *gin.Context) domain.TenantContext {
	v, _ := c.Get("tenant")
	tc, _ := v.(domain.TenantContext)
	return tc
}
