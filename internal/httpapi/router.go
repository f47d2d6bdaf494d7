package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dinehub/internal/logger"
	"dinehub/internal/repository"
	"dinehub/internal/service"
	"dinehub/internal/ws"
)

// NewRouter wires the full HTTP surface: REST endpoints plus the three
// realtime channel upgrades.
func NewRouter(
	orders service.OrderServiceInterface,
	kots service.KOTServiceInterface,
	tables service.TableServiceInterface,
	notifications repository.Notifications,
	hub *ws.Hub,
	lg *logger.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	oh := NewOrdersHandler(orders, lg)
	kh := NewKOTHandler(kots, lg)
	th := NewTablesHandler(tables, lg)
	nh := NewNotificationsHandler(notifications, lg)
	wh := ws.NewHandler(hub, lg)

	api := r.Group("/", TenantContext())
	{
		api.POST("/orders", oh.Create)
		api.GET("/orders", oh.List)
		api.GET("/orders/:id", oh.Get)
		api.PATCH("/orders/:id/status", oh.UpdateStatus)
		api.PATCH("/orders/:id/cancel", oh.Cancel)
		api.PATCH("/orders/:id/items", oh.UpdateItems)
		api.DELETE("/orders/:id", oh.Delete)

		api.GET("/kot", kh.List)
		api.PATCH("/kot/:id/acknowledge", kh.Acknowledge)
		api.PATCH("/kot/:id/start-preparing", kh.StartPreparing)
		api.PATCH("/kot/:id/mark-ready", kh.MarkReady)

		api.GET("/tables", th.List)
		api.PATCH("/tables/:id/status", th.SetStatus)

		api.GET("/notifications", nh.List)
		api.PATCH("/notifications/:id/read", nh.MarkRead)

		api.GET("/ws/orders", wh.Orders)
		api.GET("/ws/kitchen", wh.Kitchen)
		api.GET("/ws/notifications", wh.Notifications)
	}

	return r
}
