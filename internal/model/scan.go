package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Scan is an append-only record of one successful public card retrieval.
type Scan struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	MerchantID uuid.UUID `json:"merchantId" gorm:"type:uuid;index;not null"`
	ScannedAt  time.Time `json:"scannedAt" gorm:"index;not null"`
	UserAgent  string    `json:"userAgent" gorm:"type:text"`
	IPAddress  string    `json:"ipAddress" gorm:"column:ip_address;type:varchar(64)"`
	DeviceType *string   `json:"deviceType,omitempty" gorm:"type:varchar(20)"`

	Merchant *MerchantSummary `json:"merchant,omitempty" gorm:"-"`
}

// BeforeCreate assigns a UUID when none was set.
func (s *Scan) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
