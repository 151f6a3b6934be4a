package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"invoice-backend/internal/model"
	"invoice-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrNotFound marks lookups that touched no owned record. Handlers map it to
// a 404 gateway error instead of a generic failure.
var ErrNotFound = errors.New("record not found")

var defaultTaxPercent = decimal.NewFromInt(11)

// --- DTOs ---

type LineItemRequest struct {
	Name  string          `json:"name"`
	Qty   int             `json:"qty"`
	Unit  string          `json:"unit"`
	Price decimal.Decimal `json:"price"`
}

// InvoiceFormRequest is the full invoice form the browser submits. The
// derived totals are intentionally absent: whatever the client may have
// computed is recomputed here before anything is persisted.
type InvoiceFormRequest struct {
	InvoiceNumber   string            `json:"invoice_number"`
	Business        string            `json:"business"`
	BusinessContact string            `json:"business_contact"`
	LogoDataURL     string            `json:"logo_data_url"`
	Client          string            `json:"client"`
	ClientEmail     string            `json:"client_email"`
	ClientPhone     string            `json:"client_phone"`
	DueDate         string            `json:"due_date"` // 2006-01-02
	Items           []LineItemRequest `json:"items"`
	PaymentMethod   string            `json:"payment_method"`
	Status          string            `json:"status"`
	DiscountPercent decimal.Decimal   `json:"discount_percent"`
	TaxPercent      *decimal.Decimal  `json:"tax_percent"` // defaults to 11 when omitted
	TaxEnabled      *bool             `json:"tax_enabled"` // defaults to true when omitted
}

func (r InvoiceFormRequest) taxPercentOrDefault() decimal.Decimal {
	if r.TaxPercent == nil {
		return defaultTaxPercent
	}
	return *r.TaxPercent
}

func (r InvoiceFormRequest) taxEnabledOrDefault() bool {
	if r.TaxEnabled == nil {
		return true
	}
	return *r.TaxEnabled
}

// modelItems applies the write-time coercions of the form editor: quantities
// below zero are clamped to zero (negatives are then caught by validation,
// matching the editor's reject-at-validation behavior for prices).
func (r InvoiceFormRequest) modelItems() model.LineItems {
	return lo.Map(r.Items, func(it LineItemRequest, _ int) model.LineItem {
		qty := it.Qty
		if qty < 0 {
			qty = 0
		}
		return model.LineItem{Name: it.Name, Qty: qty, Unit: it.Unit, Price: it.Price}
	})
}

type InvoiceFilter struct {
	Status string
	Search string
	Page   int
	Limit  int
}

type InvoiceResponse struct {
	ID              string           `json:"id"`
	InvoiceNumber   string           `json:"invoice_number"`
	Business        string           `json:"business"`
	BusinessContact string           `json:"business_contact"`
	LogoDataURL     string           `json:"logo_data_url,omitempty"`
	Client          string           `json:"client"`
	ClientEmail     string           `json:"client_email"`
	ClientPhone     string           `json:"client_phone"`
	DueDate         string           `json:"due_date"`
	Items           []model.LineItem `json:"items"`
	PaymentMethod   string           `json:"payment_method"`
	Status          string           `json:"status"`
	DiscountPercent string           `json:"discount_percent"`
	TaxPercent      string           `json:"tax_percent"`
	TaxEnabled      bool             `json:"tax_enabled"`
	Subtotal        string           `json:"subtotal"`
	DiscountValue   string           `json:"discount_value"`
	TaxValue        string           `json:"tax_value"`
	Total           string           `json:"total"`
	CreatedAt       string           `json:"created_at"`
	UpdatedAt       string           `json:"updated_at"`
}

type StatusSummary struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type InvoiceSummary struct {
	TotalInvoices int64           `json:"total_invoices"`
	ByStatus      []StatusSummary `json:"by_status"`
	PaidRevenue   string          `json:"paid_revenue"`
}

// InvoicePublisher pushes change events to the owner's connected clients so
// they can re-fetch the list.
type InvoicePublisher interface {
	PublishInvoiceEvent(userID uuid.UUID, eventType, invoiceID, invoiceNumber string)
}

const (
	EventInvoiceCreated = "invoice.created"
	EventInvoiceUpdated = "invoice.updated"
	EventInvoiceDeleted = "invoice.deleted"
)

// --- Interface ---

type InvoiceService interface {
	CreateInvoice(ctx context.Context, ownerID uuid.UUID, req InvoiceFormRequest) (InvoiceResponse, map[string]string, error)
	UpdateInvoice(ctx context.Context, ownerID uuid.UUID, id string, req InvoiceFormRequest) (InvoiceResponse, map[string]string, error)
	DeleteInvoice(ctx context.Context, ownerID uuid.UUID, id string) error
	GetInvoice(ctx context.Context, ownerID uuid.UUID, id string) (InvoiceResponse, error)
	GetInvoiceRecord(ctx context.Context, ownerID uuid.UUID, id string) (*model.Invoice, error)
	ListInvoices(ctx context.Context, ownerID uuid.UUID, filter InvoiceFilter) ([]InvoiceResponse, int64, error)
	GetSummary(ctx context.Context, ownerID uuid.UUID) (InvoiceSummary, error)
	NewInvoiceNumber() string
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	publisher   InvoicePublisher
	now         func() time.Time
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher InvoicePublisher,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		publisher:   publisher,
		now:         time.Now,
	}
}

// --- Implementation ---

func (s *invoiceService) CreateInvoice(ctx context.Context, ownerID uuid.UUID, req InvoiceFormRequest) (InvoiceResponse, map[string]string, error) {
	if fields := ValidateInvoiceForm(req, s.now()); len(fields) > 0 {
		return InvoiceResponse{}, fields, nil
	}

	invoice := s.buildInvoice(ownerID, req)
	if invoice.InvoiceNumber == "" {
		invoice.InvoiceNumber = s.NewInvoiceNumber()
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.invoiceRepo.Create(txCtx, invoice); createErr != nil {
			return fmt.Errorf("failed to create invoice: %w", createErr)
		}
		return s.recordAudit(txCtx, ownerID, model.ActionCreateInvoice, invoice)
	})
	if err != nil {
		return InvoiceResponse{}, nil, err
	}

	s.publish(ownerID, EventInvoiceCreated, invoice)
	return toInvoiceResponse(*invoice), nil, nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, ownerID uuid.UUID, id string, req InvoiceFormRequest) (InvoiceResponse, map[string]string, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, nil, fmt.Errorf("invalid invoice id: %w", err)
	}

	if fields := ValidateInvoiceForm(req, s.now()); len(fields) > 0 {
		return InvoiceResponse{}, fields, nil
	}

	var invoice *model.Invoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		invoice, findErr = s.invoiceRepo.FindByID(txCtx, ownerID, invoiceID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("invoice %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to load invoice: %w", findErr)
		}

		// Last write wins. Concurrent edits from other sessions are not
		// detected, matching the product's concurrency model.
		updated := s.buildInvoice(ownerID, req)
		updated.ID = invoice.ID
		updated.CreatedAt = invoice.CreatedAt
		if updated.InvoiceNumber == "" {
			updated.InvoiceNumber = invoice.InvoiceNumber
		}
		invoice = updated

		if saveErr := s.invoiceRepo.Update(txCtx, invoice); saveErr != nil {
			return fmt.Errorf("failed to update invoice: %w", saveErr)
		}
		return s.recordAudit(txCtx, ownerID, model.ActionUpdateInvoice, invoice)
	})
	if err != nil {
		return InvoiceResponse{}, nil, err
	}

	s.publish(ownerID, EventInvoiceUpdated, invoice)
	return toInvoiceResponse(*invoice), nil, nil
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, ownerID uuid.UUID, id string) error {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid invoice id: %w", err)
	}

	var invoice *model.Invoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		invoice, findErr = s.invoiceRepo.FindByID(txCtx, ownerID, invoiceID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("invoice %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to load invoice: %w", findErr)
		}

		if delErr := s.invoiceRepo.Delete(txCtx, ownerID, invoiceID); delErr != nil {
			if errors.Is(delErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("invoice %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to delete invoice: %w", delErr)
		}
		return s.recordAudit(txCtx, ownerID, model.ActionDeleteInvoice, invoice)
	})
	if err != nil {
		return err
	}

	s.publish(ownerID, EventInvoiceDeleted, invoice)
	return nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, ownerID uuid.UUID, id string) (InvoiceResponse, error) {
	invoice, err := s.GetInvoiceRecord(ctx, ownerID, id)
	if err != nil {
		return InvoiceResponse{}, err
	}
	return toInvoiceResponse(*invoice), nil
}

// GetInvoiceRecord returns the raw model for consumers that need more than
// the JSON shape, such as the PDF renderer.
func (s *invoiceService) GetInvoiceRecord(ctx context.Context, ownerID uuid.UUID, id string) (*model.Invoice, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice id: %w", err)
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, ownerID, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invoice %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	return invoice, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, ownerID uuid.UUID, filter InvoiceFilter) ([]InvoiceResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Status != "" && !model.ValidStatus(filter.Status) {
		return nil, 0, fmt.Errorf("unknown status filter %q", filter.Status)
	}

	invoices, total, err := s.invoiceRepo.List(ctx, ownerID, repository.InvoiceListFilter{
		Status: filter.Status,
		Search: filter.Search,
		Page:   filter.Page,
		Limit:  filter.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch invoices: %w", err)
	}

	return lo.Map(invoices, func(inv model.Invoice, _ int) InvoiceResponse {
		return toInvoiceResponse(inv)
	}), total, nil
}

func (s *invoiceService) GetSummary(ctx context.Context, ownerID uuid.UUID) (InvoiceSummary, error) {
	counts, err := s.invoiceRepo.CountByStatus(ctx, ownerID)
	if err != nil {
		return InvoiceSummary{}, fmt.Errorf("failed to aggregate invoices: %w", err)
	}

	summary := InvoiceSummary{ByStatus: []StatusSummary{}}
	for _, c := range counts {
		summary.TotalInvoices += c.Count
		summary.ByStatus = append(summary.ByStatus, StatusSummary{Status: c.Status, Count: c.Count})
	}

	paid, err := s.invoiceRepo.SumTotalByStatus(ctx, ownerID, model.StatusPaid)
	if err != nil {
		return InvoiceSummary{}, fmt.Errorf("failed to aggregate paid revenue: %w", err)
	}
	summary.PaidRevenue = paid

	return summary, nil
}

// NewInvoiceNumber generates the default editable invoice number handed to a
// freshly opened form: INV-YYYYMMDD-RRRR with a random 4-digit suffix.
func (s *invoiceService) NewInvoiceNumber() string {
	return fmt.Sprintf("INV-%s-%d", s.now().Format("20060102"), rand.IntN(9000)+1000)
}

// --- Helpers ---

// buildInvoice assembles a model from the validated form, recomputing every
// derived field. Assumes ValidateInvoiceForm already passed (the due date
// parse cannot fail here).
func (s *invoiceService) buildInvoice(ownerID uuid.UUID, req InvoiceFormRequest) *model.Invoice {
	items := req.modelItems()
	taxPercent := req.taxPercentOrDefault()
	taxEnabled := req.taxEnabledOrDefault()
	totals := CalculateTotals(items, req.DiscountPercent, taxPercent, taxEnabled)
	dueDate, _ := time.Parse(dueDateLayout, req.DueDate)

	status := req.Status
	if status == "" {
		status = model.StatusDraft
	}
	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = model.PaymentTransferBank
	}

	return &model.Invoice{
		UserID:          ownerID,
		InvoiceNumber:   req.InvoiceNumber,
		Business:        req.Business,
		BusinessContact: req.BusinessContact,
		LogoDataURL:     req.LogoDataURL,
		Client:          req.Client,
		ClientEmail:     req.ClientEmail,
		ClientPhone:     req.ClientPhone,
		DueDate:         dueDate,
		Items:           items,
		PaymentMethod:   paymentMethod,
		Status:          status,
		DiscountPercent: req.DiscountPercent,
		TaxPercent:      taxPercent,
		TaxEnabled:      taxEnabled,
		Subtotal:        totals.Subtotal,
		DiscountValue:   totals.DiscountValue,
		TaxValue:        totals.TaxValue,
		Total:           totals.Total,
	}
}

func (s *invoiceService) recordAudit(ctx context.Context, ownerID uuid.UUID, action string, invoice *model.Invoice) error {
	details, _ := json.Marshal(map[string]interface{}{
		"invoice_number": invoice.InvoiceNumber,
		"client":         invoice.Client,
		"status":         invoice.Status,
		"total":          invoice.Total,
	})

	entry := &model.AuditLog{
		UserID:     &ownerID,
		Action:     action,
		EntityID:   invoice.ID.String(),
		EntityName: invoice.InvoiceNumber,
		Details:    string(details),
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to record audit log: %w", err)
	}
	return nil
}

func (s *invoiceService) publish(ownerID uuid.UUID, eventType string, invoice *model.Invoice) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishInvoiceEvent(ownerID, eventType, invoice.ID.String(), invoice.InvoiceNumber)
}

// --- Mapping ---

func toInvoiceResponse(inv model.Invoice) InvoiceResponse {
	items := inv.Items
	if items == nil {
		items = model.LineItems{}
	}

	return InvoiceResponse{
		ID:              inv.ID.String(),
		InvoiceNumber:   inv.InvoiceNumber,
		Business:        inv.Business,
		BusinessContact: inv.BusinessContact,
		LogoDataURL:     inv.LogoDataURL,
		Client:          inv.Client,
		ClientEmail:     inv.ClientEmail,
		ClientPhone:     inv.ClientPhone,
		DueDate:         inv.DueDate.Format(dueDateLayout),
		Items:           items,
		PaymentMethod:   inv.PaymentMethod,
		Status:          inv.Status,
		DiscountPercent: inv.DiscountPercent.String(),
		TaxPercent:      inv.TaxPercent.String(),
		TaxEnabled:      inv.TaxEnabled,
		Subtotal:        inv.Subtotal.String(),
		DiscountValue:   inv.DiscountValue.String(),
		TaxValue:        inv.TaxValue.String(),
		Total:           inv.Total.String(),
		CreatedAt:       inv.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       inv.UpdatedAt.Format(time.RFC3339),
	}
}
