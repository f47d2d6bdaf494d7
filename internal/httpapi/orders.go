package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dinehub/internal/domain"
	"dinehub/internal/logger"
	"dinehub/internal/service"
)

type OrdersHandler struct {
	svc service.OrderServiceInterface
	lg  *logger.Logger
}

func NewOrdersHandler(svc service.OrderServiceInterface, lg *logger.Logger) *OrdersHandler {
	return &OrdersHandler{svc: svc, lg: lg}
}

func (h *OrdersHandler) Create(c *gin.Context) {
	var in service.CreateOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, h.lg, domain.Validationf("invalid JSON body"))
		return
	}
	o, err := h.svc.Create(c.Request.Context(), tenant(c), in)
	if err != nil {
		fail(c, h.lg, err)
		return
	}
	c.JSON(http.StatusCreated, o.View())
}

func (h *OrdersHandler) Get(c *gin.Context) {
	o, err := h.svc.Get(c.Request.Context(), tenant(c), c.Param("id"))
	if err != nil {
		fail(c, h.lg, err)
		return
	}
	c.JSON(http.StatusOK, o.View())
}

func (h *OrdersHandler) List(c *gin.Context) {
	var statuses []domain.OrderStatus
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			statuses = append(statuses, domain.OrderStatus(s))
		}
	}
	orders, err := h.svc.List(c.Request.Context(), tenant(c), statuses)
	if err != nil {
		fail(c, h.lg, err)
		return
	}
	views := make([]domain.OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, orders[i].View())
	}
	c.JSON(http.StatusOK, gin.H{"orders": views})
}

func (h *OrdersHandler) UpdateStatus(c *gin.Context) {
	var body struct {
		Status  string `json:"status"`
		Version int64  `json:"version"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Status == "" {
		fail(c, h.lg, domain.Validationf("status is required"))
		return
	}
	o, err := h.svc.UpdateStatus(c.Request.Context(), tenant(c), c.Param("id"), domain.OrderStatus(body.Status), body.Version)
	if err != nil {
		fail(c, h.lg, err)
		return
	}
	c.JSON(http.StatusOK, o.View())
}

func (h *OrdersHandler) Cancel(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, h.lg, domain.Validationf("invalid JSON body"))
		return
	}
	o, err := h.svc.Cancel(c.Request.Context(), tenant(c), c.Param("id"), body.Reason)
	if err != nil {
		fail(c, h.lg, err)
		return
	}
	c.JSON(http.StatusOK, o.View())
}

func (h *OrdersHandler) Delete(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, h.lg, domain.Validationf("invalid JSON body"))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), tenant(c), c.Param("id"), body.Reason); err != nil {
		fail(c, h.lg, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OrdersHandler) UpdateItems(c *gin.Context) {
	var in service.UpdateItemsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, h.lg, domain.Validationf("invalid JSON body"))
		return
	}
	o, err := h.svc.UpdateItems(c.Request.Context(), tenant(c), c.Param("id"), in)
	if err != nil {
		fail(c, h.lg, err)
		return
	}
	c.JSON(http.StatusOK, o.View())
}
