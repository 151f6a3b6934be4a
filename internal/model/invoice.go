package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod enum constants
const (
	PaymentTransferBank = "Transfer Bank"
	PaymentQRIS         = "QRIS"
	PaymentCash         = "Cash"
	PaymentOther        = "Other"
)

// InvoiceStatus enum constants
const (
	StatusDraft   = "Draft"
	StatusSent    = "Sent"
	StatusPaid    = "Paid"
	StatusOverdue = "Overdue"
)

// LineItem is a single billable row on an invoice. Items are embedded in the
// invoice record as JSONB so their insertion order survives storage.
type LineItem struct {
	Name  string          `json:"name"`
	Qty   int             `json:"qty"`
	Unit  string          `json:"unit"`
	Price decimal.Decimal `json:"price"`
}

// LineItems maps an ordered item list onto a jsonb column
type LineItems []LineItem

func (li LineItems) Value() (driver.Value, error) {
	if li == nil {
		li = LineItems{}
	}
	return json.Marshal(li)
}

func (li *LineItems) Scan(value interface{}) error {
	if value == nil {
		*li = LineItems{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported source type for LineItems")
	}
	return json.Unmarshal(raw, li)
}

// Invoice is one issued invoice owned by the user that created it.
// Subtotal, discount_value, tax_value and total are derived columns —
// recomputed from items/discount_percent/tax_percent on every write, never
// taken from client input.
type Invoice struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User            *User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	InvoiceNumber   string          `gorm:"type:varchar(30);not null;index" json:"invoice_number"` // INV-YYYYMMDD-RRRR by default, user-editable
	Business        string          `gorm:"type:varchar(255);not null" json:"business"`
	BusinessContact string          `gorm:"type:varchar(255)" json:"business_contact"`
	LogoDataURL     string          `gorm:"type:text" json:"logo_data_url"`
	Client          string          `gorm:"type:varchar(255);not null" json:"client"`
	ClientEmail     string          `gorm:"type:varchar(255)" json:"client_email"`
	ClientPhone     string          `gorm:"type:varchar(30)" json:"client_phone"`
	DueDate         time.Time       `gorm:"type:date;not null" json:"due_date"`
	Items           LineItems       `gorm:"type:jsonb;not null" json:"items"`
	PaymentMethod   string          `gorm:"type:varchar(20);not null;default:'Transfer Bank'" json:"payment_method"`
	Status          string          `gorm:"type:varchar(10);not null;default:'Draft';index" json:"status"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"discount_percent"`
	TaxPercent      decimal.Decimal `gorm:"type:decimal(7,4);not null;default:11" json:"tax_percent"`
	TaxEnabled      bool            `gorm:"not null;default:true" json:"tax_enabled"`
	// Derived columns are unconstrained numeric: the recompute pipeline keeps
	// full precision, so a fixed scale would silently round on store and a
	// reload would no longer reproduce the computed values.
	Subtotal        decimal.Decimal `gorm:"type:numeric;not null" json:"subtotal"`
	DiscountValue   decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"discount_value"`
	TaxValue        decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"tax_value"`
	Total           decimal.Decimal `gorm:"type:numeric;not null" json:"total"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ValidStatus reports whether s is one of the four invoice statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// ValidPaymentMethod reports whether m is a supported payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentTransferBank, PaymentQRIS, PaymentCash, PaymentOther:
		return true
	}
	return false
}
