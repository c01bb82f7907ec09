package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/schoolerp/backend/internal/application/records"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/interfaces/http/router"
)

// RecordHandler exposes generic CRUD over the registered collections
type RecordHandler struct {
	BaseHandler
	service *records.Service
}

// NewRecordHandler creates a new RecordHandler
func NewRecordHandler(service *records.Service) *RecordHandler {
	return &RecordHandler{service: service}
}

// Routes registers the /collections group
func (h *RecordHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("records", "/collections").
		GET("/:collection", h.List).
		POST("/:collection", h.Create).
		GET("/:collection/:id", h.Get).
		PUT("/:collection/:id", h.Update).
		DELETE("/:collection/:id", h.Delete)
}

// List handles GET /collections/:collection?field=&value=
func (h *RecordHandler) List(c *gin.Context) {
	var filter *shared.Filter
	if field := c.Query("field"); field != "" {
		filter = &shared.Filter{Field: field, Value: c.Query("value")}
	}
	docs, err := h.service.List(c.Request.Context(), c.Param("collection"), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, docs, len(docs))
}

// Get handles GET /collections/:collection/:id
func (h *RecordHandler) Get(c *gin.Context) {
	doc, err := h.service.Get(c.Request.Context(), c.Param("collection"), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Create handles POST /collections/:collection
func (h *RecordHandler) Create(c *gin.Context) {
	var fields shared.Document
	if !h.BindJSON(c, &fields) {
		return
	}
	doc, err := h.service.Create(c.Request.Context(), c.Param("collection"), fields)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// Update handles PUT /collections/:collection/:id as a partial merge
func (h *RecordHandler) Update(c *gin.Context) {
	var partial shared.Document
	if !h.BindJSON(c, &partial) {
		return
	}
	doc, err := h.service.Update(c.Request.Context(), c.Param("collection"), c.Param("id"), partial)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Delete handles DELETE /collections/:collection/:id
func (h *RecordHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("collection"), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
