package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SubscriptionStatus is the billing state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionExpired   SubscriptionStatus = "EXPIRED"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionPending   SubscriptionStatus = "PENDING"
)

// Subscription is a paid pack held by a merchant.
type Subscription struct {
	ID         uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey"`
	MerchantID uuid.UUID          `json:"merchantId" gorm:"type:uuid;index;not null"`
	PackType   CardType           `json:"packType" gorm:"type:varchar(20);not null"`
	Price      decimal.Decimal    `json:"price" gorm:"type:numeric(12,2);not null"`
	Status     SubscriptionStatus `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	StartDate  time.Time          `json:"startDate"`
	EndDate    time.Time          `json:"endDate"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// BeforeCreate assigns a UUID when none was set.
func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
