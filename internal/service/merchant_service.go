package service

import (
	"context"
	"strings"

	"github.com/fallousenghor/visit-backend/internal/media"
	"github.com/fallousenghor/visit-backend/internal/model"
	"github.com/fallousenghor/visit-backend/internal/repository"
	"github.com/fallousenghor/visit-backend/prometheus"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMerchantPageSize is the page size of merchant listings.
const DefaultMerchantPageSize = 10

// MerchantInput carries merchant attributes; nil fields are absent.
type MerchantInput struct {
	BusinessName   *string
	OwnerName      *string
	PhoneNumber    *string
	WhatsappNumber *string
	Email          *string
	Description    *string
	Category       *string
	Address        *string
	City           *string
	Country        *string
	Latitude       *float64
	Longitude      *float64
	PrimaryColor   *string
	SecondaryColor *string
	UseGradient    *bool
}

// MerchantService manages merchant records and their onboarding.
type MerchantService struct {
	merchants repository.MerchantRepository
	cards     *CardService
	media     media.Host
	metrics   *prometheus.ServiceMetrics
	log       *zap.Logger
}

func NewMerchantService(merchants repository.MerchantRepository, cards *CardService, host media.Host,
	metrics *prometheus.ServiceMetrics, log *zap.Logger) *MerchantService {
	return &MerchantService{merchants: merchants, cards: cards, media: host, metrics: metrics, log: log}
}

// MerchantPage is one page of the merchant listing.
type MerchantPage struct {
	Merchants  []model.Merchant `json:"merchants"`
	Pagination Pagination       `json:"pagination"`
}

func (s *MerchantService) List(ctx context.Context, filter repository.MerchantFilter, page repository.Page) (*MerchantPage, error) {
	merchants, total, err := s.merchants.List(ctx, filter, page)
	if err != nil {
		return nil, Internal("failed to list merchants", err)
	}
	if merchants == nil {
		merchants = []model.Merchant{}
	}
	return &MerchantPage{Merchants: merchants, Pagination: NewPagination(page, total)}, nil
}

func (s *MerchantService) Get(ctx context.Context, id uuid.UUID) (*model.Merchant, error) {
	m, err := s.merchants.GetDetail(ctx, id)
	if err != nil {
		return nil, merchantWriteError(err, "failed to load merchant")
	}
	return m, nil
}

// UpdateResult is an updated merchant plus any soft failure of its logo upload.
type UpdateResult struct {
	Merchant *model.Merchant
	LogoErr  error
}

// Update applies the given fields. A new logo is stored under the merchant id;
// when its upload fails the previous logo is kept.
func (s *MerchantService) Update(ctx context.Context, id uuid.UUID, in MerchantInput, logo *LogoUpload) (*UpdateResult, error) {
	exists, err := s.merchants.Exists(ctx, id)
	if err != nil {
		return nil, Internal("failed to update merchant", err)
	}
	if !exists {
		return nil, NotFound("merchant not found")
	}

	fields, err := in.updates()
	if err != nil {
		return nil, err
	}

	result := &UpdateResult{}
	if logo != nil {
		url, err := s.media.Upload(ctx, media.Upload{
			Folder:      logoFolder,
			Key:         "logo_" + id.String(),
			Data:        logo.Data,
			ContentType: logo.ContentType,
		})
		if err != nil {
			result.LogoErr = err
			s.log.Warn("Logo upload failed, keeping existing logo", zap.String("merchant_id", id.String()), zap.Error(err))
		} else {
			fields["logo"] = url
		}
	}

	if err := s.merchants.Update(ctx, id, fields); err != nil {
		return nil, merchantWriteError(err, "failed to update merchant")
	}

	m, err := s.merchants.GetWithCreator(ctx, id)
	if err != nil {
		return nil, merchantWriteError(err, "failed to load merchant")
	}
	result.Merchant = m
	return result, nil
}

func (in MerchantInput) updates() (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	required := []struct {
		column string
		field  string
		value  *string
	}{
		{"business_name", "businessName", in.BusinessName},
		{"owner_name", "ownerName", in.OwnerName},
		{"phone_number", "phoneNumber", in.PhoneNumber},
	}
	for _, r := range required {
		if r.value == nil {
			continue
		}
		v := strings.TrimSpace(*r.value)
		if v == "" {
			return nil, &Error{Kind: KindValidation, Field: r.field, Message: r.field + " cannot be empty"}
		}
		fields[r.column] = v
	}

	if in.Email != nil {
		fields["email"] = emptyToNil(in.Email)
	}
	optional := map[string]*string{
		"whatsapp_number": in.WhatsappNumber,
		"description":     in.Description,
		"category":        in.Category,
		"address":         in.Address,
		"city":            in.City,
		"country":         in.Country,
		"primary_color":   in.PrimaryColor,
		"secondary_color": in.SecondaryColor,
	}
	for column, v := range optional {
		if v != nil {
			fields[column] = *v
		}
	}
	if in.Latitude != nil {
		fields["latitude"] = *in.Latitude
	}
	if in.Longitude != nil {
		fields["longitude"] = *in.Longitude
	}
	if in.UseGradient != nil {
		fields["use_gradient"] = *in.UseGradient
	}
	return fields, nil
}

// Delete removes a merchant together with its card, scans, schedule, payment
// methods and subscriptions.
func (s *MerchantService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.merchants.Delete(ctx, id); err != nil {
		return merchantWriteError(err, "failed to delete merchant")
	}
	s.log.Info("Merchant deleted", zap.String("merchant_id", id.String()))
	return nil
}

// ToggleStatus flips the merchant's active flag.
func (s *MerchantService) ToggleStatus(ctx context.Context, id uuid.UUID) (*model.Merchant, error) {
	m, err := s.merchants.GetByID(ctx, id)
	if err != nil {
		return nil, merchantWriteError(err, "failed to toggle merchant status")
	}
	if err := s.merchants.Update(ctx, id, map[string]interface{}{"is_active": !m.IsActive}); err != nil {
		return nil, merchantWriteError(err, "failed to toggle merchant status")
	}
	m.IsActive = !m.IsActive
	s.log.Info("Merchant status toggled", zap.String("merchant_id", id.String()), zap.Bool("is_active", m.IsActive))
	return m, nil
}
