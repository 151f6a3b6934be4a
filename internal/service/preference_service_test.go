package service

import (
	"context"
	"testing"

	"invoice-backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakePreferenceRepo struct {
	prefs map[uuid.UUID]*model.Preference
}

func newFakePreferenceRepo() *fakePreferenceRepo {
	return &fakePreferenceRepo{prefs: map[uuid.UUID]*model.Preference{}}
}

func (f *fakePreferenceRepo) GetByUser(_ context.Context, userID uuid.UUID) (*model.Preference, error) {
	pref, ok := f.prefs[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *pref
	return &cp, nil
}

func (f *fakePreferenceRepo) Create(_ context.Context, pref *model.Preference) error {
	if pref.ID == uuid.Nil {
		pref.ID = uuid.New()
	}
	cp := *pref
	f.prefs[pref.UserID] = &cp
	return nil
}

func (f *fakePreferenceRepo) Update(_ context.Context, pref *model.Preference) error {
	cp := *pref
	f.prefs[pref.UserID] = &cp
	return nil
}

func TestPreferencesSeededOnFirstRead(t *testing.T) {
	svc := NewPreferenceService(newFakePreferenceRepo())

	prefs, err := svc.GetPreferences(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, "11", prefs.DefaultTaxPercent)
	assert.Equal(t, "0", prefs.DefaultDiscountPercent)
	assert.Equal(t, model.PaymentTransferBank, prefs.DefaultPaymentMethod)
}

func TestPreferencesUpdateRoundTrip(t *testing.T) {
	svc := NewPreferenceService(newFakePreferenceRepo())
	userID := uuid.New()

	tax := d("12")
	discount := d("5")
	updated, fields, err := svc.UpdatePreferences(context.Background(), userID, PreferenceRequest{
		Business:               "Studio Pixel",
		DefaultTaxPercent:      &tax,
		DefaultDiscountPercent: &discount,
		DefaultPaymentMethod:   model.PaymentQRIS,
	})
	require.NoError(t, err)
	require.Empty(t, fields)
	assert.Equal(t, "12", updated.DefaultTaxPercent)

	again, err := svc.GetPreferences(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "Studio Pixel", again.Business)
	assert.Equal(t, "5", again.DefaultDiscountPercent)
	assert.Equal(t, model.PaymentQRIS, again.DefaultPaymentMethod)
}

func TestPreferencesUpdateValidation(t *testing.T) {
	svc := NewPreferenceService(newFakePreferenceRepo())

	over := d("120")
	_, fields, err := svc.UpdatePreferences(context.Background(), uuid.New(), PreferenceRequest{
		DefaultTaxPercent:    &over,
		DefaultPaymentMethod: "Cek",
		LogoDataURL:          "not-a-data-url",
	})
	require.NoError(t, err)

	assert.Contains(t, fields, "defaultTaxPercent")
	assert.Contains(t, fields, "defaultPaymentMethod")
	assert.Contains(t, fields, "logo")
}
