package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CardType is the commercial tier of a business card.
type CardType string

const (
	CardTypeBasic      CardType = "BASIC"
	CardTypePremium    CardType = "PREMIUM"
	CardTypeEnterprise CardType = "ENTERPRISE"
)

// Valid reports whether t is a known tier.
func (t CardType) Valid() bool {
	switch t {
	case CardTypeBasic, CardTypePremium, CardTypeEnterprise:
		return true
	}
	return false
}

// CardStatus is derived from a card's flags and expiry at read time.
type CardStatus string

const (
	CardStatusActive   CardStatus = "active"
	CardStatusInactive CardStatus = "inactive"
	CardStatusExpired  CardStatus = "expired"
)

// BusinessCard is the scannable artifact issued to exactly one merchant.
type BusinessCard struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	MerchantID  uuid.UUID `json:"merchantId" gorm:"type:uuid;uniqueIndex;not null"`
	QRCode      string    `json:"qrCode" gorm:"column:qr_code;type:varchar(64);uniqueIndex;not null"`
	QRCodeImage string    `json:"qrCodeImage" gorm:"column:qr_code_image;type:varchar(500);not null"`
	PublicURL   string    `json:"publicUrl" gorm:"column:public_url;type:varchar(500);not null"`
	CardType    CardType  `json:"cardType" gorm:"type:varchar(20);not null;default:'BASIC'"`
	NFCEnabled  bool      `json:"nfcEnabled" gorm:"column:nfc_enabled;not null;default:false"`
	IsActive    bool      `json:"isActive" gorm:"not null;default:true"`
	ExpiresAt   time.Time `json:"expiresAt" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Merchant *Merchant `json:"merchant,omitempty" gorm:"foreignKey:MerchantID"`
}

// BeforeCreate assigns a UUID when none was set.
func (b *BusinessCard) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Status derives the lifecycle state at now. A deactivated card reports
// inactive even when it is also past its expiry.
func (b *BusinessCard) Status(now time.Time) CardStatus {
	if !b.IsActive {
		return CardStatusInactive
	}
	if !now.Before(b.ExpiresAt) {
		return CardStatusExpired
	}
	return CardStatusActive
}
