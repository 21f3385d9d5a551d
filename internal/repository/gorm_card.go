package repository

import (
	"context"

	"github.com/fallousenghor/visit-backend/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCardRepo implements CardRepository using GORM.
type GormCardRepo struct {
	db *gorm.DB
}

func NewGormCardRepo(db *gorm.DB) CardRepository {
	return &GormCardRepo{db: db}
}

func (r *GormCardRepo) Create(ctx context.Context, card *model.BusinessCard) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(card).Error)
}

func (r *GormCardRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.BusinessCard, error) {
	var card model.BusinessCard
	if err := r.db.WithContext(ctx).First(&card, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &card, nil
}

func (r *GormCardRepo) GetByMerchantID(ctx context.Context, merchantID uuid.UUID) (*model.BusinessCard, error) {
	var card model.BusinessCard
	err := r.db.WithContext(ctx).Preload("Merchant").Where("merchant_id = ?", merchantID).First(&card).Error
	if err != nil {
		return nil, translate(err)
	}
	return &card, nil
}

// GetByCode loads the card for a public scan with the merchant, its schedule
// ordered by weekday and its active payment methods.
func (r *GormCardRepo) GetByCode(ctx context.Context, code string) (*model.BusinessCard, error) {
	var card model.BusinessCard
	err := r.db.WithContext(ctx).
		Preload("Merchant").
		Preload("Merchant.OpeningHours", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC")
		}).
		Preload("Merchant.PaymentMethods", "is_active = ?", true).
		Where("qr_code = ?", code).
		First(&card).Error
	if err != nil {
		return nil, translate(err)
	}
	return &card, nil
}

func (r *GormCardRepo) ExistsForMerchant(ctx context.Context, merchantID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.BusinessCard{}).Where("merchant_id = ?", merchantID).Count(&count).Error
	return count > 0, err
}

// Update applies fields and returns the refreshed card with its merchant.
func (r *GormCardRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*model.BusinessCard, error) {
	if len(fields) > 0 {
		result := r.db.WithContext(ctx).Model(&model.BusinessCard{}).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			return nil, translate(result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	return r.GetByIDWithMerchant(ctx, id)
}

func (r *GormCardRepo) GetByIDWithMerchant(ctx context.Context, id uuid.UUID) (*model.BusinessCard, error) {
	var card model.BusinessCard
	if err := r.db.WithContext(ctx).Preload("Merchant").First(&card, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &card, nil
}

func (r *GormCardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.BusinessCard{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
