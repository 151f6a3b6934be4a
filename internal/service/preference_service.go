package service

import (
	"context"
	"errors"
	"fmt"

	"invoice-backend/internal/model"
	"invoice-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PreferenceRequest struct {
	Business               string           `json:"business"`
	BusinessContact        string           `json:"business_contact"`
	LogoDataURL            string           `json:"logo_data_url"`
	DefaultTaxPercent      *decimal.Decimal `json:"default_tax_percent"`
	DefaultDiscountPercent *decimal.Decimal `json:"default_discount_percent"`
	DefaultPaymentMethod   string           `json:"default_payment_method"`
}

type PreferenceResponse struct {
	Business               string `json:"business"`
	BusinessContact        string `json:"business_contact"`
	LogoDataURL            string `json:"logo_data_url"`
	DefaultTaxPercent      string `json:"default_tax_percent"`
	DefaultDiscountPercent string `json:"default_discount_percent"`
	DefaultPaymentMethod   string `json:"default_payment_method"`
}

type PreferenceService interface {
	GetPreferences(ctx context.Context, userID uuid.UUID) (PreferenceResponse, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, req PreferenceRequest) (PreferenceResponse, map[string]string, error)
}

type preferenceService struct {
	repo repository.PreferenceRepository
}

func NewPreferenceService(repo repository.PreferenceRepository) PreferenceService {
	return &preferenceService{repo: repo}
}

// GetPreferences returns the user's saved form defaults, creating the row
// with the seeded defaults on first read.
func (s *preferenceService) GetPreferences(ctx context.Context, userID uuid.UUID) (PreferenceResponse, error) {
	pref, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return PreferenceResponse{}, err
	}
	return toPreferenceResponse(pref), nil
}

func (s *preferenceService) UpdatePreferences(ctx context.Context, userID uuid.UUID, req PreferenceRequest) (PreferenceResponse, map[string]string, error) {
	fields := map[string]string{}
	if req.DefaultTaxPercent != nil && !percentInRange(*req.DefaultTaxPercent) {
		fields["defaultTaxPercent"] = "PPN harus antara 0 dan 100"
	}
	if req.DefaultDiscountPercent != nil && !percentInRange(*req.DefaultDiscountPercent) {
		fields["defaultDiscountPercent"] = "Diskon harus antara 0 dan 100"
	}
	if req.DefaultPaymentMethod != "" && !model.ValidPaymentMethod(req.DefaultPaymentMethod) {
		fields["defaultPaymentMethod"] = "Metode pembayaran tidak valid"
	}
	if req.LogoDataURL != "" {
		if msg := validateLogo(req.LogoDataURL); msg != "" {
			fields["logo"] = msg
		}
	}
	if len(fields) > 0 {
		return PreferenceResponse{}, fields, nil
	}

	pref, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return PreferenceResponse{}, nil, err
	}

	pref.Business = req.Business
	pref.BusinessContact = req.BusinessContact
	pref.LogoDataURL = req.LogoDataURL
	if req.DefaultTaxPercent != nil {
		pref.DefaultTaxPercent = *req.DefaultTaxPercent
	}
	if req.DefaultDiscountPercent != nil {
		pref.DefaultDiscountPercent = *req.DefaultDiscountPercent
	}
	if req.DefaultPaymentMethod != "" {
		pref.DefaultPaymentMethod = req.DefaultPaymentMethod
	}

	if err := s.repo.Update(ctx, pref); err != nil {
		return PreferenceResponse{}, nil, fmt.Errorf("failed to update preferences: %w", err)
	}

	return toPreferenceResponse(pref), nil, nil
}

func (s *preferenceService) loadOrCreate(ctx context.Context, userID uuid.UUID) (*model.Preference, error) {
	pref, err := s.repo.GetByUser(ctx, userID)
	if err == nil {
		return pref, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	pref = &model.Preference{
		UserID:               userID,
		DefaultTaxPercent:    defaultTaxPercent,
		DefaultPaymentMethod: model.PaymentTransferBank,
	}
	if err := s.repo.Create(ctx, pref); err != nil {
		return nil, fmt.Errorf("failed to create preferences: %w", err)
	}
	return pref, nil
}

func toPreferenceResponse(pref *model.Preference) PreferenceResponse {
	return PreferenceResponse{
		Business:               pref.Business,
		BusinessContact:        pref.BusinessContact,
		LogoDataURL:            pref.LogoDataURL,
		DefaultTaxPercent:      pref.DefaultTaxPercent.String(),
		DefaultDiscountPercent: pref.DefaultDiscountPercent.String(),
		DefaultPaymentMethod:   pref.DefaultPaymentMethod,
	}
}
