package handler

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	printingapp "github.com/schoolerp/backend/internal/application/printing"
	"github.com/schoolerp/backend/internal/interfaces/http/dto"
	"github.com/schoolerp/backend/internal/interfaces/http/router"
)

// PrintHandler renders printable documents
type PrintHandler struct {
	BaseHandler
	service *printingapp.Service
}

// NewPrintHandler creates a new PrintHandler
func NewPrintHandler(service *printingapp.Service) *PrintHandler {
	return &PrintHandler{service: service}
}

// Routes registers the /print group
func (h *PrintHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("print", "/print").
		GET("/:kind/:id", h.Render).
		POST("/:kind/:id/archive", h.Archive)
}

// Render handles GET /print/:kind/:id?format=html|pdf; the document is
// returned inline
func (h *PrintHandler) Render(c *gin.Context) {
	var q dto.PrintQuery
	if !h.BindQuery(c, &q) {
		return
	}
	kind, err := printingapp.ParseKind(c.Param("kind"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	format, err := printingapp.ParseFormat(q.Format)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	doc, err := h.service.Render(c.Request.Context(), kind, c.Param("id"), format)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": doc.Filename}))
	if doc.Pages > 0 {
		c.Header("X-Document-Pages", strconv.Itoa(doc.Pages))
	}
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}

// Archive handles POST /print/:kind/:id/archive
func (h *PrintHandler) Archive(c *gin.Context) {
	var q dto.PrintQuery
	if !h.BindQuery(c, &q) {
		return
	}
	kind, err := printingapp.ParseKind(c.Param("kind"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	format, err := printingapp.ParseFormat(q.Format)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	res, err := h.service.Archive(c.Request.Context(), kind, c.Param("id"), format)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, res)
}
