package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentMethodType enumerates the payment channels a merchant can display.
type PaymentMethodType string

const (
	PaymentCash        PaymentMethodType = "CASH"
	PaymentOrangeMoney PaymentMethodType = "ORANGE_MONEY"
	PaymentWave        PaymentMethodType = "WAVE"
	PaymentFreeMoney   PaymentMethodType = "FREE_MONEY"
	PaymentCard        PaymentMethodType = "CARD"
	PaymentOther       PaymentMethodType = "OTHER"
)

// PaymentMethod is an account a merchant accepts payments on.
type PaymentMethod struct {
	ID            uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	MerchantID    uuid.UUID         `json:"merchantId" gorm:"type:uuid;index;not null"`
	PaymentMethod PaymentMethodType `json:"paymentMethod" gorm:"type:varchar(20);not null"`
	AccountNumber string            `json:"accountNumber" gorm:"type:varchar(50)"`
	AccountName   string            `json:"accountName" gorm:"type:varchar(150)"`
	IsActive      bool              `json:"isActive" gorm:"not null;default:true"`
}

// BeforeCreate assigns a UUID when none was set.
func (p *PaymentMethod) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
