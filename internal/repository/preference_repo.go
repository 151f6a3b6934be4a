package repository

import (
	"context"

	"invoice-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PreferenceRepository interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*model.Preference, error)
	Create(ctx context.Context, pref *model.Preference) error
	Update(ctx context.Context, pref *model.Preference) error
}

type preferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*model.Preference, error) {
	var pref model.Preference
	if err := GetDB(ctx, r.db).First(&pref, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &pref, nil
}

func (r *preferenceRepository) Create(ctx context.Context, pref *model.Preference) error {
	return GetDB(ctx, r.db).Create(pref).Error
}

func (r *preferenceRepository) Update(ctx context.Context, pref *model.Preference) error {
	return GetDB(ctx, r.db).Save(pref).Error
}
