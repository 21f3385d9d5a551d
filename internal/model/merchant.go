package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Merchant represents the merchant model stored in the database
type Merchant struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	BusinessName    string     `json:"businessName" gorm:"type:varchar(150);not null"`
	OwnerName       string     `json:"ownerName" gorm:"type:varchar(150);not null"`
	PhoneNumber     string     `json:"phoneNumber" gorm:"type:varchar(20);uniqueIndex;not null"`
	WhatsappNumber  *string    `json:"whatsappNumber,omitempty" gorm:"type:varchar(20)"`
	Email           *string    `json:"email,omitempty" gorm:"type:varchar(255);uniqueIndex"`
	Description     *string    `json:"description,omitempty" gorm:"type:text"`
	Category        *string    `json:"category,omitempty" gorm:"type:varchar(100)"`
	Address         *string    `json:"address,omitempty" gorm:"type:varchar(255)"`
	City            *string    `json:"city,omitempty" gorm:"type:varchar(100);index"`
	Country         *string    `json:"country,omitempty" gorm:"type:varchar(100)"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	Logo            *string    `json:"logo,omitempty" gorm:"type:varchar(500)"`
	PrimaryColor    *string    `json:"primaryColor,omitempty" gorm:"type:varchar(20)"`
	SecondaryColor  *string    `json:"secondaryColor,omitempty" gorm:"type:varchar(20)"`
	UseGradient     bool       `json:"useGradient" gorm:"not null;default:false"`
	IsActive        bool       `json:"isActive" gorm:"not null;default:true;index"`
	IsVerified      bool       `json:"isVerified" gorm:"not null;default:false"`
	CreatedByUserID *uuid.UUID `json:"createdByUserId,omitempty" gorm:"type:uuid;index"`
	CreatedAt       time.Time  `json:"createdAt" gorm:"index"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	// Relations
	CreatedBy      *User           `json:"-" gorm:"foreignKey:CreatedByUserID;constraint:OnDelete:SET NULL"`
	BusinessCard   *BusinessCard   `json:"businessCard,omitempty" gorm:"foreignKey:MerchantID;constraint:OnDelete:CASCADE"`
	OpeningHours   []OpeningHours  `json:"openingHours,omitempty" gorm:"foreignKey:MerchantID;constraint:OnDelete:CASCADE"`
	PaymentMethods []PaymentMethod `json:"paymentMethods,omitempty" gorm:"foreignKey:MerchantID;constraint:OnDelete:CASCADE"`
	Subscriptions  []Subscription  `json:"subscriptions,omitempty" gorm:"foreignKey:MerchantID;constraint:OnDelete:CASCADE"`
	Scans          []Scan          `json:"-" gorm:"foreignKey:MerchantID;constraint:OnDelete:CASCADE"`

	// Creator and the counts are filled by queries, never stored.
	Creator           *PublicUser `json:"createdBy,omitempty" gorm:"-"`
	ScanCount         *int64      `json:"scanCount,omitempty" gorm:"-"`
	SubscriptionCount *int64      `json:"subscriptionCount,omitempty" gorm:"-"`
}

// BeforeCreate assigns a UUID when none was set.
func (m *Merchant) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// AfterFind exposes a preloaded creator without role or credentials.
func (m *Merchant) AfterFind(tx *gorm.DB) error {
	if m.CreatedBy != nil {
		creator := m.CreatedBy.Public()
		creator.Role = ""
		m.Creator = &creator
	}
	return nil
}

// MerchantSummary is the short form of a merchant embedded in scans and rankings.
type MerchantSummary struct {
	ID           uuid.UUID `json:"id"`
	BusinessName string    `json:"businessName"`
	City         *string   `json:"city,omitempty"`
}
