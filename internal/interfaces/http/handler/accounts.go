package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/schoolerp/backend/internal/application/accounts"
	domain "github.com/schoolerp/backend/internal/domain/accounts"
	"github.com/schoolerp/backend/internal/interfaces/http/dto"
	"github.com/schoolerp/backend/internal/interfaces/http/router"
)

// maxImportFileSize bounds the transactions CSV upload
const maxImportFileSize = 10 << 20

// AccountsHandler handles fee chalans, invoices, class fees and the
// transactions import
type AccountsHandler struct {
	BaseHandler
	service *accounts.Service
}

// NewAccountsHandler creates a new AccountsHandler
func NewAccountsHandler(service *accounts.Service) *AccountsHandler {
	return &AccountsHandler{service: service}
}

// Routes registers the /accounts group
func (h *AccountsHandler) Routes() *router.DomainGroup {
	group := router.NewDomainGroup("accounts", "/accounts")
	group.Group("chalans", "/chalans").
		POST("/generate", h.GenerateChalan).
		POST("/bulk", h.BulkGenerate).
		GET("/bulk/:id", h.BulkJob).
		POST("/mark-overdue", h.MarkOverdue).
		POST("/:id/pay", h.PayChalan)
	group.POST("/invoices/:id/pay", h.PayInvoice)
	group.GET("/class-fees/:classId", h.GetClassFees)
	group.PUT("/class-fees/:classId", h.UpsertClassFees)
	group.POST("/transactions/import", h.ImportTransactions)
	return group
}

// GenerateChalan handles POST /accounts/chalans/generate
func (h *AccountsHandler) GenerateChalan(c *gin.Context) {
	var req accounts.GenerateChalanRequest
	if !h.BindJSON(c, &req) {
		return
	}
	chalan, err := h.service.GenerateChalan(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, chalan)
}

// BulkGenerate handles POST /accounts/chalans/bulk. The run continues
// after the response; poll BulkJob for progress.
func (h *AccountsHandler) BulkGenerate(c *gin.Context) {
	var req accounts.BulkChalanRequest
	if !h.BindJSON(c, &req) {
		return
	}
	job, err := h.service.BulkGenerateChalans(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, job)
}

// BulkJob handles GET /accounts/chalans/bulk/:id
func (h *AccountsHandler) BulkJob(c *gin.Context) {
	job, err := h.service.BulkJob(c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if job.Err() != nil {
		// partial runs still carry the job body
		c.JSON(dto.GetHTTPStatus(dto.ErrCodeBulkPartial), dto.NewSuccessResponse(job))
		return
	}
	h.Success(c, job)
}

// MarkOverdue handles POST /accounts/chalans/mark-overdue
func (h *AccountsHandler) MarkOverdue(c *gin.Context) {
	res, err := h.service.MarkOverdue(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// PayChalan handles POST /accounts/chalans/:id/pay
func (h *AccountsHandler) PayChalan(c *gin.Context) {
	var req accounts.PayChalanRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.PayChalan(c.Request.Context(), c.Param("id"), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"id": c.Param("id"), "status": domain.ChalanPaid})
}

// PayInvoice handles POST /accounts/invoices/:id/pay
func (h *AccountsHandler) PayInvoice(c *gin.Context) {
	if err := h.service.PayInvoice(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"id": c.Param("id"), "status": domain.InvoicePaid})
}

// GetClassFees handles GET /accounts/class-fees/:classId
func (h *AccountsHandler) GetClassFees(c *gin.Context) {
	fees, err := h.service.GetClassFees(c.Request.Context(), c.Param("classId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fees)
}

// UpsertClassFees handles PUT /accounts/class-fees/:classId
func (h *AccountsHandler) UpsertClassFees(c *gin.Context) {
	var amounts domain.FeeAmounts
	if !h.BindJSON(c, &amounts) {
		return
	}
	fees, err := h.service.UpsertClassFees(c.Request.Context(), c.Param("classId"), amounts)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fees)
}

// ImportTransactions handles POST /accounts/transactions/import with a
// multipart "file" field
func (h *AccountsHandler) ImportTransactions(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > maxImportFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "file exceeds maximum size of 10MB")
		return
	}

	res, err := h.service.ImportTransactions(c.Request.Context(), file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}
