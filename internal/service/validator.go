package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"invoice-backend/internal/model"
	"invoice-backend/pkg/dataurl"

	"github.com/h2non/filetype"
	"github.com/shopspring/decimal"
)

const dueDateLayout = "2006-01-02"

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	// Indonesian mobile numbers: +62 or 0, then 8, a non-zero digit, then 6-10 more digits
	phoneRegex = regexp.MustCompile(`^(\+62|0)8[1-9][0-9]{6,10}$`)
)

// ValidateInvoiceForm checks the full form state and returns a field -> message
// map; an empty map means the form is valid. It never returns an error value:
// the caller inspects the map and blocks submission when it is non-empty.
// now supplies the current day for the due-date check.
func ValidateInvoiceForm(req InvoiceFormRequest, now time.Time) map[string]string {
	errs := map[string]string{}

	if strings.TrimSpace(req.Client) == "" {
		errs["client"] = "Nama klien wajib diisi"
	}
	if strings.TrimSpace(req.Business) == "" {
		errs["business"] = "Nama bisnis wajib diisi"
	}

	if req.DueDate == "" {
		errs["dueDate"] = "Pilih tanggal jatuh tempo"
	} else if due, err := time.Parse(dueDateLayout, req.DueDate); err != nil {
		errs["dueDate"] = "Format tanggal jatuh tempo tidak valid"
	} else {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if due.Before(today) {
			errs["dueDate"] = "Tanggal jatuh tempo tidak boleh sebelum hari ini"
		}
	}

	if len(req.Items) == 0 {
		errs["items"] = "Tambahkan minimal 1 item"
	}

	seen := map[string]int{}
	for idx, it := range req.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			errs[fmt.Sprintf("item-%d", idx)] = "Nama item wajib"
		} else {
			if _, dup := seen[name]; dup {
				errs[fmt.Sprintf("item-dup-%d", idx)] = "Nama item duplikat"
			}
			seen[name] = idx
		}
		if it.Qty <= 0 {
			errs[fmt.Sprintf("item-qty-%d", idx)] = "Kuantitas minimal 1"
		}
		if it.Price.IsNegative() {
			errs[fmt.Sprintf("item-price-%d", idx)] = "Harga tidak boleh negatif"
		}
	}

	if req.ClientEmail != "" && !emailRegex.MatchString(req.ClientEmail) {
		errs["clientEmail"] = "Format email tidak valid"
	}
	if req.ClientPhone != "" && !phoneRegex.MatchString(req.ClientPhone) {
		errs["clientPhone"] = "Format nomor telepon tidak valid"
	}

	if !percentInRange(req.DiscountPercent) {
		errs["discountPercent"] = "Diskon harus antara 0 dan 100"
	}
	if !percentInRange(req.taxPercentOrDefault()) {
		errs["taxPercent"] = "PPN harus antara 0 dan 100"
	}

	if req.PaymentMethod != "" && !model.ValidPaymentMethod(req.PaymentMethod) {
		errs["paymentMethod"] = "Metode pembayaran tidak valid"
	}
	if req.Status != "" && !model.ValidStatus(req.Status) {
		errs["status"] = "Status tidak valid"
	}

	if req.LogoDataURL != "" {
		if msg := validateLogo(req.LogoDataURL); msg != "" {
			errs["logo"] = msg
		}
	}

	return errs
}

func percentInRange(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(oneHundred)
}

func validateLogo(logo string) string {
	data, err := dataurl.DecodeImage(logo)
	if err == dataurl.ErrTooLarge {
		return "Logo melebihi batas 1 MB"
	}
	if err != nil {
		return "Logo harus berupa data URL gambar base64"
	}
	if !filetype.IsImage(data) {
		return "Logo bukan file gambar yang dikenal"
	}
	return ""
}
