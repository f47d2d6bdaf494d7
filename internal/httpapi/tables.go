package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dinehub/internal/domain"
	"dinehub/internal/logger"
	"dinehub/internal/service"
)

type TablesHandler struct {
	svc service.TableServiceInterface
	lg  *logger.Logger
}

func NewTablesHandler(svc service.TableServiceInterface, lg *logger.Logger) *TablesHandler {
	return &TablesHandler{svc: svc, lg: lg}
}

func (h *TablesHandler) List(c *gin.Context) {
	tables, err := h.svc.List(c.Request.Context(), tenant(c))
	if err != nil {
		fail(c, h.lg, err)
		return
	}
	views := make([]domain.TableView, 0, len(tables))
	for i := range tables {
		views = append(views, tables[i].View())
	}
	c.JSON(http.StatusOK, gin.H{"tables": views})
}

// SetStatus is the manual override (e.g. marking a table Cleaning). It does
// not touch the bound order.
func (h *TablesHandler) SetStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Status == "" {
		fail(c, h.lg, domain.Validationf("status is required"))
		return
	}
	t, err := h.svc.AssignStatus(c.Request.Context(), tenant(c), c.Param("id"), domain.TableStatus(body.Status))
	if err != nil {
		fail(c, h.lg, err)
		return
	}
	c.JSON(http.StatusOK, t.View())
}
