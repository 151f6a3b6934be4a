package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"invoice-backend/internal/model"
	"invoice-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// --- in-memory fakes ---

type fakeInvoiceRepo struct {
	invoices map[uuid.UUID]*model.Invoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: map[uuid.UUID]*model.Invoice{}}
}

func (f *fakeInvoiceRepo) Create(_ context.Context, invoice *model.Invoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	invoice.CreatedAt = time.Now()
	invoice.UpdatedAt = invoice.CreatedAt
	cp := *invoice
	f.invoices[invoice.ID] = &cp
	return nil
}

func (f *fakeInvoiceRepo) FindByID(_ context.Context, ownerID, id uuid.UUID) (*model.Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok || inv.UserID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvoiceRepo) List(_ context.Context, ownerID uuid.UUID, filter repository.InvoiceListFilter) ([]model.Invoice, int64, error) {
	var out []model.Invoice
	for _, inv := range f.invoices {
		if inv.UserID != ownerID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(inv.InvoiceNumber), strings.ToLower(filter.Search)) &&
			!strings.Contains(strings.ToLower(inv.Client), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *inv)
	}
	return out, int64(len(out)), nil
}

func (f *fakeInvoiceRepo) Update(_ context.Context, invoice *model.Invoice) error {
	if _, ok := f.invoices[invoice.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	invoice.UpdatedAt = time.Now()
	cp := *invoice
	f.invoices[invoice.ID] = &cp
	return nil
}

func (f *fakeInvoiceRepo) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	inv, ok := f.invoices[id]
	if !ok || inv.UserID != ownerID {
		return gorm.ErrRecordNotFound
	}
	delete(f.invoices, id)
	return nil
}

func (f *fakeInvoiceRepo) CountByStatus(_ context.Context, ownerID uuid.UUID) ([]repository.StatusCount, error) {
	byStatus := map[string]int64{}
	for _, inv := range f.invoices {
		if inv.UserID == ownerID {
			byStatus[inv.Status]++
		}
	}
	var counts []repository.StatusCount
	for status, count := range byStatus {
		counts = append(counts, repository.StatusCount{Status: status, Count: count})
	}
	return counts, nil
}

func (f *fakeInvoiceRepo) SumTotalByStatus(_ context.Context, ownerID uuid.UUID, status string) (string, error) {
	sum := decimal.Zero
	for _, inv := range f.invoices {
		if inv.UserID == ownerID && inv.Status == status {
			sum = sum.Add(inv.Total)
		}
	}
	return sum.String(), nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Create(_ context.Context, entry *model.AuditLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, _, _ int) ([]model.AuditLog, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}

type passthroughTxManager struct{}

func (passthroughTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) PublishInvoiceEvent(_ uuid.UUID, eventType, _, _ string) {
	p.events = append(p.events, eventType)
}

// --- suite ---

type InvoiceServiceTestSuite struct {
	suite.Suite
	repo      *fakeInvoiceRepo
	audit     *fakeAuditRepo
	publisher *recordingPublisher
	svc       InvoiceService
	ownerID   uuid.UUID
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceTestSuite))
}

func (s *InvoiceServiceTestSuite) SetupTest() {
	s.repo = newFakeInvoiceRepo()
	s.audit = &fakeAuditRepo{}
	s.publisher = &recordingPublisher{}
	s.svc = NewInvoiceService(s.repo, s.audit, passthroughTxManager{}, s.publisher)
	s.ownerID = uuid.New()
}

func (s *InvoiceServiceTestSuite) formRequest() InvoiceFormRequest {
	return InvoiceFormRequest{
		InvoiceNumber: "INV-20260901-4321",
		Business:      "Studio Pixel",
		Client:        "PT Maju Jaya",
		DueDate:       "2099-12-31",
		Items: []LineItemRequest{
			{Name: "Jasa Desain", Qty: 2, Unit: "pcs", Price: d("50000")},
			{Name: "Jasa Revisi", Qty: 1, Unit: "pcs", Price: d("30000")},
		},
		DiscountPercent: d("10"),
	}
}

func (s *InvoiceServiceTestSuite) TestCreateRecomputesTotals() {
	resp, fields, err := s.svc.CreateInvoice(context.Background(), s.ownerID, s.formRequest())

	require.NoError(s.T(), err)
	require.Empty(s.T(), fields)

	assert.Equal(s.T(), "130000", resp.Subtotal)
	assert.Equal(s.T(), "13000", resp.DiscountValue)
	assert.Equal(s.T(), "12870", resp.TaxValue)
	assert.Equal(s.T(), "129870", resp.Total)
	assert.Equal(s.T(), "11", resp.TaxPercent)
	assert.True(s.T(), resp.TaxEnabled)
	assert.Equal(s.T(), model.StatusDraft, resp.Status)
	assert.Equal(s.T(), model.PaymentTransferBank, resp.PaymentMethod)
	assert.Equal(s.T(), []string{EventInvoiceCreated}, s.publisher.events)
}

func (s *InvoiceServiceTestSuite) TestCreateGeneratesNumberWhenBlank() {
	req := s.formRequest()
	req.InvoiceNumber = ""

	resp, fields, err := s.svc.CreateInvoice(context.Background(), s.ownerID, req)

	require.NoError(s.T(), err)
	require.Empty(s.T(), fields)
	assert.Regexp(s.T(), regexp.MustCompile(`^INV-\d{8}-\d{4}$`), resp.InvoiceNumber)
}

func (s *InvoiceServiceTestSuite) TestGeneratedNumberSuffixRange() {
	re := regexp.MustCompile(`^INV-\d{8}-([1-9]\d{3})$`)
	for i := 0; i < 50; i++ {
		number := s.svc.NewInvoiceNumber()
		assert.Regexp(s.T(), re, number)
	}
}

func (s *InvoiceServiceTestSuite) TestCreateReturnsFieldErrors() {
	req := s.formRequest()
	req.Client = ""
	req.Items = nil

	_, fields, err := s.svc.CreateInvoice(context.Background(), s.ownerID, req)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Nama klien wajib diisi", fields["client"])
	assert.Equal(s.T(), "Tambahkan minimal 1 item", fields["items"])
	assert.Empty(s.T(), s.repo.invoices)
	assert.Empty(s.T(), s.publisher.events)
}

func (s *InvoiceServiceTestSuite) TestUpdateRecomputesAndKeepsIdentity() {
	created, _, err := s.svc.CreateInvoice(context.Background(), s.ownerID, s.formRequest())
	require.NoError(s.T(), err)

	req := s.formRequest()
	req.Items = []LineItemRequest{{Name: "Jasa Desain", Qty: 1, Unit: "pcs", Price: d("100000")}}
	req.DiscountPercent = decimal.Zero
	disabled := false
	req.TaxEnabled = &disabled

	updated, fields, err := s.svc.UpdateInvoice(context.Background(), s.ownerID, created.ID, req)

	require.NoError(s.T(), err)
	require.Empty(s.T(), fields)
	assert.Equal(s.T(), created.ID, updated.ID)
	assert.Equal(s.T(), "100000", updated.Subtotal)
	assert.Equal(s.T(), "0", updated.TaxValue)
	assert.Equal(s.T(), "100000", updated.Total)
	assert.Equal(s.T(), "11", updated.TaxPercent, "disabling tax keeps the stored percent")
	assert.Equal(s.T(), []string{EventInvoiceCreated, EventInvoiceUpdated}, s.publisher.events)
}

func (s *InvoiceServiceTestSuite) TestSaveThenReloadRoundTrip() {
	req := s.formRequest()
	req.Items = []LineItemRequest{
		{Name: "Jasa Desain", Qty: 2, Unit: "pcs", Price: d("50000")},
		{Name: "Materai", Qty: 3, Unit: "lembar", Price: d("1.11")},
		{Name: "Jasa Revisi", Qty: 1, Unit: "pcs", Price: d("30000")},
	}
	req.DiscountPercent = d("3")

	saved, fields, err := s.svc.CreateInvoice(context.Background(), s.ownerID, req)
	require.NoError(s.T(), err)
	require.Empty(s.T(), fields)

	reloaded, err := s.svc.GetInvoice(context.Background(), s.ownerID, saved.ID)
	require.NoError(s.T(), err)

	// Item order is insertion order, preserved through storage.
	require.Len(s.T(), reloaded.Items, 3)
	assert.Equal(s.T(), "Jasa Desain", reloaded.Items[0].Name)
	assert.Equal(s.T(), "Materai", reloaded.Items[1].Name)
	assert.Equal(s.T(), "Jasa Revisi", reloaded.Items[2].Name)
	assert.Equal(s.T(), saved.Items, reloaded.Items)

	// Derived totals reload exactly, fractional digits included.
	assert.Equal(s.T(), saved.Subtotal, reloaded.Subtotal)
	assert.Equal(s.T(), saved.DiscountValue, reloaded.DiscountValue)
	assert.Equal(s.T(), saved.TaxValue, reloaded.TaxValue)
	assert.Equal(s.T(), saved.Total, reloaded.Total)
	assert.Equal(s.T(), "130003.33", reloaded.Subtotal)
	assert.Equal(s.T(), "3900.0999", reloaded.DiscountValue)
	assert.Equal(s.T(), "13871.355311", reloaded.TaxValue)
	assert.Equal(s.T(), "139974.585411", reloaded.Total)
}

func (s *InvoiceServiceTestSuite) TestOwnershipScoping() {
	created, _, err := s.svc.CreateInvoice(context.Background(), s.ownerID, s.formRequest())
	require.NoError(s.T(), err)

	stranger := uuid.New()

	_, err = s.svc.GetInvoice(context.Background(), stranger, created.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)

	err = s.svc.DeleteInvoice(context.Background(), stranger, created.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)

	list, total, err := s.svc.ListInvoices(context.Background(), stranger, InvoiceFilter{})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), list)
	assert.Zero(s.T(), total)
}

func (s *InvoiceServiceTestSuite) TestDeleteMissingIsNotFound() {
	err := s.svc.DeleteInvoice(context.Background(), s.ownerID, uuid.NewString())
	assert.ErrorIs(s.T(), err, ErrNotFound)

	err = s.svc.DeleteInvoice(context.Background(), s.ownerID, "not-a-uuid")
	assert.Error(s.T(), err)
	assert.False(s.T(), errors.Is(err, ErrNotFound))
}

func (s *InvoiceServiceTestSuite) TestDeleteRemovesAndAudits() {
	created, _, err := s.svc.CreateInvoice(context.Background(), s.ownerID, s.formRequest())
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.svc.DeleteInvoice(context.Background(), s.ownerID, created.ID))

	_, err = s.svc.GetInvoice(context.Background(), s.ownerID, created.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)

	require.Len(s.T(), s.audit.entries, 2)
	assert.Equal(s.T(), model.ActionCreateInvoice, s.audit.entries[0].Action)
	assert.Equal(s.T(), model.ActionDeleteInvoice, s.audit.entries[1].Action)
	assert.Equal(s.T(), []string{EventInvoiceCreated, EventInvoiceDeleted}, s.publisher.events)
}

func (s *InvoiceServiceTestSuite) TestListFilters() {
	first := s.formRequest()
	first.InvoiceNumber = "INV-20260901-1111"
	first.Client = "PT Maju Jaya"
	first.Status = model.StatusPaid
	_, _, err := s.svc.CreateInvoice(context.Background(), s.ownerID, first)
	require.NoError(s.T(), err)

	second := s.formRequest()
	second.InvoiceNumber = "INV-20260901-2222"
	second.Client = "CV Berkah"
	_, _, err = s.svc.CreateInvoice(context.Background(), s.ownerID, second)
	require.NoError(s.T(), err)

	paid, _, err := s.svc.ListInvoices(context.Background(), s.ownerID, InvoiceFilter{Status: model.StatusPaid})
	require.NoError(s.T(), err)
	require.Len(s.T(), paid, 1)
	assert.Equal(s.T(), "INV-20260901-1111", paid[0].InvoiceNumber)

	byClient, _, err := s.svc.ListInvoices(context.Background(), s.ownerID, InvoiceFilter{Search: "berkah"})
	require.NoError(s.T(), err)
	require.Len(s.T(), byClient, 1)
	assert.Equal(s.T(), "CV Berkah", byClient[0].Client)

	_, _, err = s.svc.ListInvoices(context.Background(), s.ownerID, InvoiceFilter{Status: "Cancelled"})
	assert.Error(s.T(), err)
}

func (s *InvoiceServiceTestSuite) TestSummaryAggregates() {
	paid := s.formRequest()
	paid.Status = model.StatusPaid
	_, _, err := s.svc.CreateInvoice(context.Background(), s.ownerID, paid)
	require.NoError(s.T(), err)

	draft := s.formRequest()
	draft.InvoiceNumber = "INV-20260901-9999"
	_, _, err = s.svc.CreateInvoice(context.Background(), s.ownerID, draft)
	require.NoError(s.T(), err)

	summary, err := s.svc.GetSummary(context.Background(), s.ownerID)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), int64(2), summary.TotalInvoices)
	assert.Equal(s.T(), "129870", summary.PaidRevenue)
}

func (s *InvoiceServiceTestSuite) TestNegativeQtyClampedThenRejected() {
	req := s.formRequest()
	req.Items = []LineItemRequest{{Name: "Aneh", Qty: -3, Unit: "pcs", Price: d("1000")}}

	_, fields, err := s.svc.CreateInvoice(context.Background(), s.ownerID, req)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Kuantitas minimal 1", fields["item-qty-0"])
}
