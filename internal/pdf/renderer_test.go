package pdf

import (
	"testing"
	"time"

	"invoice-backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFormatRupiah(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"130000", "Rp 130.000"},
		{"1500000", "Rp 1.500.000"},
		{"0", "Rp 0"},
		{"999", "Rp 999"},
		{"12870.5", "Rp 12.870,50"},
		{"0.995", "Rp 1"},
		{"999.995", "Rp 1.000"},
		{"0.994", "Rp 0,99"},
		{"1249.999", "Rp 1.250"},
		{"-2500", "Rp -2.500"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRupiah(d(tt.in)), "input %s", tt.in)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "17 Agustus 2026", FormatDate(time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1 Januari 2027", FormatDate(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestRenderProducesPDF(t *testing.T) {
	inv := &model.Invoice{
		InvoiceNumber: "INV-20260901-1234",
		Business:      "Studio Pixel",
		Client:        "PT Maju Jaya",
		ClientEmail:   "finance@majujaya.co.id",
		DueDate:       time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		Items: model.LineItems{
			{Name: "Jasa Desain", Qty: 2, Unit: "pcs", Price: d("50000")},
			{Name: "Jasa Revisi", Qty: 1, Unit: "pcs", Price: d("30000")},
		},
		PaymentMethod:   model.PaymentTransferBank,
		Status:          model.StatusDraft,
		DiscountPercent: d("10"),
		TaxPercent:      d("11"),
		TaxEnabled:      true,
		Subtotal:        d("130000"),
		DiscountValue:   d("13000"),
		TaxValue:        d("12870"),
		Total:           d("129870"),
	}

	doc, err := Render(inv)
	require.NoError(t, err)
	require.NotEmpty(t, doc)
	assert.Equal(t, "%PDF", string(doc[:4]))
}

func TestRenderSkipsUnusableLogo(t *testing.T) {
	inv := &model.Invoice{
		InvoiceNumber: "INV-20260901-5678",
		Business:      "Studio Pixel",
		Client:        "CV Berkah",
		LogoDataURL:   "data:image/png;base64,!!!not-base64!!!",
		DueDate:       time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		Items: model.LineItems{
			{Name: "Item", Qty: 1, Unit: "pcs", Price: d("1000")},
		},
		PaymentMethod: model.PaymentQRIS,
		Status:        model.StatusSent,
		TaxPercent:    d("11"),
		Subtotal:      d("1000"),
		Total:         d("1110"),
		TaxValue:      d("110"),
		TaxEnabled:    true,
	}

	doc, err := Render(inv)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(doc[:4]))
}
