package repository

import (
	"context"
	"time"

	"github.com/fallousenghor/visit-backend/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormScanRepo implements ScanRepository using GORM.
type GormScanRepo struct {
	db *gorm.DB
}

func NewGormScanRepo(db *gorm.DB) ScanRepository {
	return &GormScanRepo{db: db}
}

func (r *GormScanRepo) Create(ctx context.Context, s *model.Scan) error {
	return translate(r.db.WithContext(ctx).Create(s).Error)
}

func (r *GormScanRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Scan{}).Count(&count).Error
	return count, err
}

func (r *GormScanRepo) CountByMerchant(ctx context.Context, merchantID uuid.UUID, since *time.Time) (int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Scan{}).Where("merchant_id = ?", merchantID)
	if since != nil {
		query = query.Where("scanned_at >= ?", *since)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *GormScanRepo) ListSince(ctx context.Context, merchantID uuid.UUID, since time.Time) ([]model.Scan, error) {
	var scans []model.Scan
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND scanned_at >= ?", merchantID, since).
		Order("scanned_at ASC").
		Find(&scans).Error
	return scans, err
}

func (r *GormScanRepo) CountByDevice(ctx context.Context, merchantID uuid.UUID) ([]DeviceCount, error) {
	var rows []DeviceCount
	err := r.db.WithContext(ctx).Model(&model.Scan{}).
		Select("device_type, COUNT(*) AS count").
		Where("merchant_id = ?", merchantID).
		Group("device_type").
		Scan(&rows).Error
	return rows, err
}

func (r *GormScanRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID, page Page) ([]model.Scan, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Scan{}).Where("merchant_id = ?", merchantID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var scans []model.Scan
	err := query.Order("scanned_at DESC").Offset(page.Offset()).Limit(page.Size).Find(&scans).Error
	if err != nil {
		return nil, 0, err
	}
	return scans, total, nil
}

// Recent returns the latest n scans with a summary of their merchant.
func (r *GormScanRepo) Recent(ctx context.Context, n int) ([]model.Scan, error) {
	var scans []model.Scan
	if err := r.db.WithContext(ctx).Order("scanned_at DESC").Limit(n).Find(&scans).Error; err != nil {
		return nil, err
	}
	if len(scans) == 0 {
		return scans, nil
	}

	ids := make([]uuid.UUID, 0, len(scans))
	for _, s := range scans {
		ids = append(ids, s.MerchantID)
	}
	var summaries []model.MerchantSummary
	err := r.db.WithContext(ctx).Model(&model.Merchant{}).
		Select("id, business_name, city").
		Where("id IN ?", ids).
		Scan(&summaries).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]model.MerchantSummary, len(summaries))
	for _, s := range summaries {
		byID[s.ID] = s
	}
	for i := range scans {
		if s, ok := byID[scans[i].MerchantID]; ok {
			summary := s
			scans[i].Merchant = &summary
		}
	}
	return scans, nil
}
