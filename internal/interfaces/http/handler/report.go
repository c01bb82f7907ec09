package handler

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/schoolerp/backend/internal/application/report"
	domain "github.com/schoolerp/backend/internal/domain/report"
	"github.com/schoolerp/backend/internal/interfaces/http/dto"
	"github.com/schoolerp/backend/internal/interfaces/http/router"
)

// ReportHandler serves module reports and their exports
type ReportHandler struct {
	BaseHandler
	service *report.Service
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service *report.Service) *ReportHandler {
	return &ReportHandler{service: service}
}

// Routes registers the /reports group
func (h *ReportHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("reports", "/reports").
		GET("/:module", h.Get).
		GET("/:module/export/:kind", h.Export).
		POST("/:module/reload", h.Reload)
}

func (h *ReportHandler) dateRange(c *gin.Context, q dto.DateRangeQuery) (domain.DateRange, bool) {
	r, err := domain.NewDateRange(q.StartDate, q.EndDate)
	if err != nil {
		h.HandleError(c, err)
		return domain.DateRange{}, false
	}
	return r, true
}

// Get handles GET /reports/:module?start_date=&end_date=
func (h *ReportHandler) Get(c *gin.Context) {
	var q dto.DateRangeQuery
	if !h.BindQuery(c, &q) {
		return
	}
	r, ok := h.dateRange(c, q)
	if !ok {
		return
	}
	data, err := h.service.Report(c.Request.Context(), c.Param("module"), r)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, data)
}

// Export handles GET /reports/:module/export/:kind?format=csv|xlsx and
// answers with an attachment
func (h *ReportHandler) Export(c *gin.Context) {
	var q dto.ExportQuery
	if !h.BindQuery(c, &q) {
		return
	}
	r, ok := h.dateRange(c, q.DateRangeQuery)
	if !ok {
		return
	}
	file, err := h.service.Export(c.Request.Context(), c.Param("module"), c.Param("kind"), q.Format, r)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename}))
	c.Header("X-Export-Rows", strconv.Itoa(file.Rows))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// Reload handles POST /reports/:module/reload
func (h *ReportHandler) Reload(c *gin.Context) {
	module := c.Param("module")
	if err := h.service.Reload(c.Request.Context(), module); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"module": module, "reloaded": true})
}
