package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Preference stores per-user invoice form defaults: business identity and
// the discount/tax/payment values new invoices start from. One row per user,
// created lazily with the seeded defaults on first read.
type Preference struct {
	ID                     uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID                 uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User                   *User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Business               string          `gorm:"type:varchar(255)" json:"business"`
	BusinessContact        string          `gorm:"type:varchar(255)" json:"business_contact"`
	LogoDataURL            string          `gorm:"type:text" json:"logo_data_url"`
	DefaultTaxPercent      decimal.Decimal `gorm:"type:decimal(7,4);not null;default:11" json:"default_tax_percent"`
	DefaultDiscountPercent decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"default_discount_percent"`
	DefaultPaymentMethod   string          `gorm:"type:varchar(20);not null;default:'Transfer Bank'" json:"default_payment_method"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}
