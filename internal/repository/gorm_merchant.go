package repository

import (
	"context"
	"strings"

	"github.com/fallousenghor/visit-backend/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMerchantRepo implements MerchantRepository using GORM.
type GormMerchantRepo struct {
	db *gorm.DB
}

func NewGormMerchantRepo(db *gorm.DB) MerchantRepository {
	return &GormMerchantRepo{db: db}
}

func (r *GormMerchantRepo) Create(ctx context.Context, m *model.Merchant) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error)
}

func (r *GormMerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Merchant, error) {
	var m model.Merchant
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *GormMerchantRepo) GetWithCreator(ctx context.Context, id uuid.UUID) (*model.Merchant, error) {
	var m model.Merchant
	if err := r.db.WithContext(ctx).Preload("CreatedBy").First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// GetDetail loads a merchant with its card, schedule, active payment methods,
// five latest subscriptions, creator and scan count.
func (r *GormMerchantRepo) GetDetail(ctx context.Context, id uuid.UUID) (*model.Merchant, error) {
	var m model.Merchant
	err := r.db.WithContext(ctx).
		Preload("BusinessCard").
		Preload("CreatedBy").
		Preload("OpeningHours", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC")
		}).
		Preload("PaymentMethods", "is_active = ?", true).
		Preload("Subscriptions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Limit(5)
		}).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Scan{}).Where("merchant_id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	m.ScanCount = &count
	return &m, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *GormMerchantRepo) List(ctx context.Context, filter MerchantFilter, page Page) ([]model.Merchant, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Merchant{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where(
			`LOWER(business_name) LIKE ? ESCAPE '\' OR LOWER(owner_name) LIKE ? ESCAPE '\' OR phone_number LIKE ? ESCAPE '\'`,
			like, like, "%"+escapeLike(search)+"%",
		)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.City != "" {
		query = query.Where("city = ?", filter.City)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var merchants []model.Merchant
	err := query.
		Preload("BusinessCard").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&merchants).Error
	if err != nil {
		return nil, 0, err
	}

	if err := r.attachCounts(ctx, merchants); err != nil {
		return nil, 0, err
	}
	return merchants, total, nil
}

// attachCounts fills ScanCount and SubscriptionCount for a page of merchants.
func (r *GormMerchantRepo) attachCounts(ctx context.Context, merchants []model.Merchant) error {
	if len(merchants) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(merchants))
	for i := range merchants {
		ids[i] = merchants[i].ID
	}

	scans, err := r.countByMerchant(ctx, &model.Scan{}, ids)
	if err != nil {
		return err
	}
	subs, err := r.countByMerchant(ctx, &model.Subscription{}, ids)
	if err != nil {
		return err
	}

	for i := range merchants {
		sc, sub := scans[merchants[i].ID], subs[merchants[i].ID]
		merchants[i].ScanCount = &sc
		merchants[i].SubscriptionCount = &sub
	}
	return nil
}

// countByMerchant counts the rows of table per merchant_id.
func (r *GormMerchantRepo) countByMerchant(ctx context.Context, table interface{}, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []struct {
		MerchantID uuid.UUID
		Total      int64
	}
	err := r.db.WithContext(ctx).Model(table).
		Select("merchant_id, COUNT(*) AS total").
		Where("merchant_id IN ?", ids).
		Group("merchant_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.MerchantID] = row.Total
	}
	return counts, nil
}

func (r *GormMerchantRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&model.Merchant{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the merchant; cards, scans, hours, payment methods and
// subscriptions go with it through ON DELETE CASCADE.
func (r *GormMerchantRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Merchant{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormMerchantRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Merchant{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormMerchantRepo) FindByEmail(ctx context.Context, email string) (*model.Merchant, error) {
	var m model.Merchant
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// ListWithoutCard returns up to limit merchants that have no business card, oldest first.
func (r *GormMerchantRepo) ListWithoutCard(ctx context.Context, limit int) ([]model.Merchant, error) {
	var merchants []model.Merchant
	err := r.db.WithContext(ctx).
		Joins("LEFT JOIN business_cards ON business_cards.merchant_id = merchants.id").
		Where("business_cards.id IS NULL").
		Order("merchants.created_at ASC").
		Limit(limit).
		Find(&merchants).Error
	return merchants, err
}

func (r *GormMerchantRepo) Count(ctx context.Context, activeOnly bool) (int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Merchant{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *GormMerchantRepo) Recent(ctx context.Context, n int) ([]model.Merchant, error) {
	var merchants []model.Merchant
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(n).Find(&merchants).Error
	return merchants, err
}

func (r *GormMerchantRepo) TopByScans(ctx context.Context, limit int) ([]TopMerchant, error) {
	var rows []struct {
		ID           uuid.UUID
		BusinessName string
		OwnerName    string
		City         *string
		TotalScans   int64
		CardType     *string
	}
	err := r.db.WithContext(ctx).Table("merchants").
		Select("merchants.id, merchants.business_name, merchants.owner_name, merchants.city, " +
			"COUNT(scans.id) AS total_scans, business_cards.card_type").
		Joins("LEFT JOIN scans ON scans.merchant_id = merchants.id").
		Joins("LEFT JOIN business_cards ON business_cards.merchant_id = merchants.id").
		Group("merchants.id, merchants.business_name, merchants.owner_name, merchants.city, business_cards.card_type").
		Order("total_scans DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	top := make([]TopMerchant, len(rows))
	for i, row := range rows {
		top[i] = TopMerchant{
			ID:           row.ID,
			BusinessName: row.BusinessName,
			OwnerName:    row.OwnerName,
			City:         row.City,
			TotalScans:   row.TotalScans,
		}
		if row.CardType != nil {
			ct := model.CardType(*row.CardType)
			top[i].CardType = &ct
		}
	}
	return top, nil
}

func (r *GormMerchantRepo) AddOpeningHours(ctx context.Context, hours []model.OpeningHours) error {
	if len(hours) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Create(&hours).Error)
}

func (r *GormMerchantRepo) AddPaymentMethods(ctx context.Context, methods []model.PaymentMethod) error {
	if len(methods) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Create(&methods).Error)
}
