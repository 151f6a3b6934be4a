package repository

import (
	"context"

	"invoice-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceListFilter narrows the owner-scoped invoice listing
type InvoiceListFilter struct {
	Status string // Draft, Sent, Paid, Overdue or empty for all
	Search string // partial match on invoice_number or client
	Page   int
	Limit  int
}

// StatusCount is one row of the per-status summary aggregate
type StatusCount struct {
	Status string
	Count  int64
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Invoice, error)
	List(ctx context.Context, ownerID uuid.UUID, filter InvoiceListFilter) ([]model.Invoice, int64, error)
	Update(ctx context.Context, invoice *model.Invoice) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	CountByStatus(ctx context.Context, ownerID uuid.UUID) ([]StatusCount, error)
	SumTotalByStatus(ctx context.Context, ownerID uuid.UUID, status string) (string, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).First(&invoice, "id = ? AND user_id = ?", id, ownerID).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) List(ctx context.Context, ownerID uuid.UUID, filter InvoiceListFilter) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Invoice{}).Where("user_id = ?", ownerID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("invoice_number ILIKE ? OR client ILIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("created_at desc").Offset(offset).Limit(filter.Limit).Find(&invoices).Error; err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Save(invoice).Error
}

// Delete is a hard delete. Missing rows surface as gorm.ErrRecordNotFound so
// callers can report a gateway error instead of silently succeeding.
func (r *invoiceRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ? AND user_id = ?", id, ownerID).Delete(&model.Invoice{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *invoiceRepository) CountByStatus(ctx context.Context, ownerID uuid.UUID) ([]StatusCount, error) {
	var counts []StatusCount
	err := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Select("status, COUNT(*) as count").
		Where("user_id = ?", ownerID).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *invoiceRepository) SumTotalByStatus(ctx context.Context, ownerID uuid.UUID, status string) (string, error) {
	var row struct {
		Value string
	}
	err := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Select("COALESCE(SUM(total), 0) as value").
		Where("user_id = ? AND status = ?", ownerID, status).
		Scan(&row).Error
	if err != nil {
		return "", err
	}
	return row.Value, nil
}
