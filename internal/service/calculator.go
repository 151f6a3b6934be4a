package service

import (
	"invoice-backend/internal/model"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Totals holds the derived monetary fields of an invoice. Values stay
// unrounded decimals; formatting happens only at the presentation layer.
type Totals struct {
	Subtotal      decimal.Decimal
	DiscountValue decimal.Decimal
	Taxable       decimal.Decimal
	TaxValue      decimal.Decimal
	Total         decimal.Decimal
}

// CalculateTotals derives subtotal, discount, taxable base, tax and total
// from the line items and the discount/tax percentages. The discount applies
// to the subtotal and the tax applies to the post-discount base — tax is
// never computed over the raw subtotal. With tax disabled the tax value is
// forced to zero while the percent itself is left to be stored as-is.
func CalculateTotals(items []model.LineItem, discountPercent, taxPercent decimal.Decimal, taxEnabled bool) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Qty))))
	}

	discountValue := subtotal.Mul(discountPercent).Div(oneHundred)
	taxable := subtotal.Sub(discountValue)

	taxValue := decimal.Zero
	if taxEnabled {
		taxValue = taxable.Mul(taxPercent).Div(oneHundred)
	}

	return Totals{
		Subtotal:      subtotal,
		DiscountValue: discountValue,
		Taxable:       taxable,
		TaxValue:      taxValue,
		Total:         taxable.Add(taxValue),
	}
}
