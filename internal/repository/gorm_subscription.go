package repository

import (
	"context"

	"github.com/fallousenghor/visit-backend/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormSubscriptionRepo implements SubscriptionRepository using GORM.
type GormSubscriptionRepo struct {
	db *gorm.DB
}

func NewGormSubscriptionRepo(db *gorm.DB) SubscriptionRepository {
	return &GormSubscriptionRepo{db: db}
}

func (r *GormSubscriptionRepo) Create(ctx context.Context, s *model.Subscription) error {
	return translate(r.db.WithContext(ctx).Create(s).Error)
}

func (r *GormSubscriptionRepo) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("status = ?", model.SubscriptionActive).
		Count(&count).Error
	return count, err
}

// ActiveRevenue sums the price of every ACTIVE subscription.
func (r *GormSubscriptionRepo) ActiveRevenue(ctx context.Context) (decimal.Decimal, error) {
	var row struct {
		Total decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Select("SUM(price) AS total").
		Where("status = ?", model.SubscriptionActive).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !row.Total.Valid {
		return decimal.Zero, nil
	}
	return row.Total.Decimal, nil
}
