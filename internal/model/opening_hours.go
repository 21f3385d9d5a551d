package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OpeningHours is one weekday entry of a merchant's schedule; DayOfWeek 0 is Sunday.
type OpeningHours struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	MerchantID uuid.UUID `json:"merchantId" gorm:"type:uuid;index;not null"`
	DayOfWeek  int       `json:"dayOfWeek" gorm:"not null"`
	OpenTime   string    `json:"openTime" gorm:"type:varchar(5)"`
	CloseTime  string    `json:"closeTime" gorm:"type:varchar(5)"`
	IsClosed   bool      `json:"isClosed" gorm:"not null;default:false"`
}

// BeforeCreate assigns a UUID when none was set.
func (o *OpeningHours) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
