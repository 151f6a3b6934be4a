package handler

import (
	"errors"
	"net/http"

	"invoice-backend/internal/middleware"
	"invoice-backend/internal/pdf"
	"invoice-backend/internal/service"
	"invoice-backend/pkg/pagination"
	"invoice-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/invoices")
	invoices.Use(middleware.RequireAuth())
	{
		invoices.POST("", h.CreateInvoice)
		invoices.GET("", h.ListInvoices)
		invoices.GET("/number", h.NewInvoiceNumber)
		invoices.GET("/summary", h.GetSummary)
		invoices.GET("/:id", h.GetInvoice)
		invoices.GET("/:id/pdf", h.GetInvoicePDF)
		invoices.PUT("/:id", h.UpdateInvoice)
		invoices.DELETE("/:id", h.DeleteInvoice)
	}
}

// currentUserID extracts the authenticated user's id stored by RequireAuth.
// A malformed value aborts with 401; the middleware guarantees presence.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, _ := c.Get("userID")
	sub, _ := raw.(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token subject"))
		return uuid.Nil, false
	}
	return userID, true
}

func notFoundOr(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
}

// CreateInvoice persists a new invoice after recomputing its totals
// @Summary      Create invoice
// @Description  Validates the submitted form, recomputes all derived totals and persists the invoice
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.InvoiceFormRequest  true  "Invoice Form Payload"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.InvoiceFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, fields, err := h.invoiceService.CreateInvoice(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	if len(fields) > 0 {
		c.JSON(http.StatusUnprocessableEntity, response.Invalid(http.StatusUnprocessableEntity, fields))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// ListInvoices returns the caller's invoices, newest first
// @Summary      List invoices
// @Description  Retrieves a paginated list of the caller's invoices, optionally filtered by status or search term
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status (Draft, Sent, Paid, Overdue)"
// @Param        search  query     string  false  "Match against invoice number or client name"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	filter := service.InvoiceFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), userID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// NewInvoiceNumber hands out a fresh editable invoice number for a new form
// @Summary      Generate invoice number
// @Description  Returns a generated invoice number (INV-YYYYMMDD-RRRR) to prefill a new form
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/invoices/number [get]
func (h *InvoiceHandler) NewInvoiceNumber(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]string{
		"invoice_number": h.invoiceService.NewInvoiceNumber(),
	}))
}

// GetSummary aggregates the caller's invoices by status
// @Summary      Invoice summary
// @Description  Returns per-status counts and the paid revenue sum for the caller's invoices
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.InvoiceSummary}
// @Failure      500  {object}  response.Response
// @Router       /api/invoices/summary [get]
func (h *InvoiceHandler) GetSummary(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	summary, err := h.invoiceService.GetSummary(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// GetInvoice returns one invoice owned by the caller
// @Summary      Get invoice
// @Description  Retrieves a single invoice by ID
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		notFoundOr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// GetInvoicePDF streams the printable document for an invoice
// @Summary      Download invoice PDF
// @Description  Renders the invoice as a printable A4 PDF with localized amounts and dates
// @Tags         invoices
// @Security     BearerAuth
// @Produce      application/pdf
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {file}    file
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) GetInvoicePDF(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoiceRecord(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		notFoundOr(c, err)
		return
	}

	doc, err := pdf.Render(invoice)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+invoice.InvoiceNumber+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}

// UpdateInvoice replaces an invoice's form fields and recomputes totals
// @Summary      Update invoice
// @Description  Validates the submitted form, recomputes all derived totals and saves the invoice
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Invoice ID"
// @Param        payload  body      service.InvoiceFormRequest  true  "Invoice Form Payload"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/invoices/{id} [put]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.InvoiceFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, fields, err := h.invoiceService.UpdateInvoice(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		notFoundOr(c, err)
		return
	}
	if len(fields) > 0 {
		c.JSON(http.StatusUnprocessableEntity, response.Invalid(http.StatusUnprocessableEntity, fields))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// DeleteInvoice removes an invoice owned by the caller
// @Summary      Delete invoice
// @Description  Deletes an invoice by ID
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), userID, c.Param("id")); err != nil {
		notFoundOr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]string{"message": "invoice deleted"}))
}
