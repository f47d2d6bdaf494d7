package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dinehub/internal/domain"
	"dinehub/internal/logger"
	"dinehub/internal/service"
)

type KOTHandler struct {
	svc service.KOTServiceInterface
	lg  *logger.Logger
}

func NewKOTHandler(svc service.KOTServiceInterface, lg *logger.Logger) *KOTHandler {
	return &KOTHandler{svc: svc, lg: lg}
}

// List returns tickets still in flight, priorities derived at this instant.
func (h *KOTHandler) List(c *gin.Context) {
	tickets, err := h.svc.ListActive(c.Request.Context(), tenant(c))
	if err != nil {
		fail(c, h.lg, err)
		return
	}
	now := time.Now().UTC()
	views := make([]domain.TicketView, 0, len(tickets))
	for i := range tickets {
		views = append(views, tickets[i].View(now, h.svc.Policy()))
	}
	c.JSON(http.StatusOK, gin.H{"tickets": views})
}

func (h *KOTHandler) Acknowledge(c *gin.Context) {
	h.transition(c, h.svc.Acknowledge)
}

func (h *KOTHandler) StartPreparing(c *gin.Context) {
	h.transition(c, h.svc.StartPreparing)
}

func (h *KOTHandler) MarkReady(c *gin.Context) {
	h.transition(c, h.svc.MarkReady)
}

func (h *KOTHandler) transition(c *gin.Context, op func(ctx context.Context, tc domain.TenantContext, id string) (*domain.KitchenTicket, error)) {
	t, err := op(c.Request.Context(), tenant(c), c.Param("id"))
	if err != nil {
		fail(c, h.lg, err)
		return
	}
	c.JSON(http.StatusOK, t.View(time.Now().UTC(), h.svc.Policy()))
}
