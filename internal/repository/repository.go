package repository

import (
	"context"
	"time"

	"github.com/fallousenghor/visit-backend/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Page is a 1-indexed page request.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// MerchantFilter narrows merchant listings. Zero values disable a filter.
type MerchantFilter struct {
	Search   string
	IsActive *bool
	City     string
}

// TopMerchant is one row of the scan ranking.
type TopMerchant struct {
	ID           uuid.UUID       `json:"id"`
	BusinessName string          `json:"businessName"`
	OwnerName    string          `json:"ownerName"`
	City         *string         `json:"city,omitempty"`
	TotalScans   int64           `json:"totalScans"`
	CardType     *model.CardType `json:"cardType,omitempty"`
}

// DeviceCount is the number of scans for one raw device classification.
type DeviceCount struct {
	DeviceType *string
	Count      int64
}

// UserRepository specifies user related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
}

// MerchantRepository specifies merchant related database operations.
type MerchantRepository interface {
	Create(ctx context.Context, m *model.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Merchant, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*model.Merchant, error)
	GetWithCreator(ctx context.Context, id uuid.UUID) (*model.Merchant, error)
	List(ctx context.Context, filter MerchantFilter, page Page) ([]model.Merchant, int64, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	FindByEmail(ctx context.Context, email string) (*model.Merchant, error)
	ListWithoutCard(ctx context.Context, limit int) ([]model.Merchant, error)
	Count(ctx context.Context, activeOnly bool) (int64, error)
	Recent(ctx context.Context, n int) ([]model.Merchant, error)
	TopByScans(ctx context.Context, limit int) ([]TopMerchant, error)
	AddOpeningHours(ctx context.Context, hours []model.OpeningHours) error
	AddPaymentMethods(ctx context.Context, methods []model.PaymentMethod) error
}

// CardRepository specifies business card database operations.
type CardRepository interface {
	Create(ctx context.Context, card *model.BusinessCard) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.BusinessCard, error)
	GetByIDWithMerchant(ctx context.Context, id uuid.UUID) (*model.BusinessCard, error)
	GetByMerchantID(ctx context.Context, merchantID uuid.UUID) (*model.BusinessCard, error)
	GetByCode(ctx context.Context, code string) (*model.BusinessCard, error)
	ExistsForMerchant(ctx context.Context, merchantID uuid.UUID) (bool, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*model.BusinessCard, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ScanRepository specifies scan event database operations.
type ScanRepository interface {
	Create(ctx context.Context, s *model.Scan) error
	Count(ctx context.Context) (int64, error)
	CountByMerchant(ctx context.Context, merchantID uuid.UUID, since *time.Time) (int64, error)
	ListSince(ctx context.Context, merchantID uuid.UUID, since time.Time) ([]model.Scan, error)
	CountByDevice(ctx context.Context, merchantID uuid.UUID) ([]DeviceCount, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, page Page) ([]model.Scan, int64, error)
	Recent(ctx context.Context, n int) ([]model.Scan, error)
}

// SubscriptionRepository specifies subscription database operations.
type SubscriptionRepository interface {
	Create(ctx context.Context, s *model.Subscription) error
	CountActive(ctx context.Context) (int64, error)
	ActiveRevenue(ctx context.Context) (decimal.Decimal, error)
}
