package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/schoolerp/backend/internal/application/status"
	"github.com/schoolerp/backend/internal/interfaces/http/router"
)

type transition func(ctx context.Context, id string) (*status.Result, error)

// StatusHandler exposes the one-click status changes of the library,
// hostel, transport and cafeteria modules
type StatusHandler struct {
	BaseHandler
	service *status.Service
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(service *status.Service) *StatusHandler {
	return &StatusHandler{service: service}
}

// Routes returns one group per module
func (h *StatusHandler) Routes() []*router.DomainGroup {
	return []*router.DomainGroup{
		router.NewDomainGroup("library", "/library").
			POST("/issues/:id/return", h.handle(h.service.ReturnIssue)),
		router.NewDomainGroup("hostel", "/hostel").
			POST("/allocations/:id/end", h.handle(h.service.EndAllocation)).
			POST("/payments/:id/pay", h.handle(h.service.PayHostel)),
		router.NewDomainGroup("transport", "/transport").
			POST("/assignments/:id/toggle", h.handle(h.service.ToggleAssignment)).
			POST("/payments/:id/pay", h.handle(h.service.PayTransport)),
		router.NewDomainGroup("cafeteria", "/cafeteria").
			POST("/orders/:id/pay", h.handle(h.service.PayOrder)),
	}
}

func (h *StatusHandler) handle(fn transition) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := fn(c.Request.Context(), c.Param("id"))
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, res)
	}
}
