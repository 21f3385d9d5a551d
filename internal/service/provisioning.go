package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fallousenghor/visit-backend/internal/media"
	"github.com/fallousenghor/visit-backend/internal/model"
	"github.com/fallousenghor/visit-backend/internal/qrcode"
	"github.com/fallousenghor/visit-backend/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const logoFolder = "merchants/logos"

// LogoUpload is an image submitted with a merchant form.
type LogoUpload struct {
	Data        []byte
	ContentType string
}

// ProvisionInput is everything needed to onboard one merchant.
type ProvisionInput struct {
	Merchant  MerchantInput
	Logo      *LogoUpload
	CreatedBy uuid.UUID
}

// ProvisionResult is the outcome of onboarding. Merchant is always set on
// success; LogoErr and CardErr record steps that failed without aborting it.
type ProvisionResult struct {
	Merchant *model.Merchant
	Card     *model.BusinessCard
	LogoErr  error
	CardErr  error
}

// Degraded reports whether the merchant was created without its logo or card.
func (r *ProvisionResult) Degraded() bool {
	return r.LogoErr != nil || r.CardErr != nil
}

// Warnings lists the skipped steps in a client-facing form.
func (r *ProvisionResult) Warnings() []string {
	warnings := []string{}
	if r.LogoErr != nil {
		warnings = append(warnings, "logo upload failed; merchant saved without a logo")
	}
	if r.CardErr != nil {
		warnings = append(warnings, "business card could not be issued; it will be created by the next backfill")
	}
	return warnings
}

// Provision uploads the logo, inserts the merchant and issues its card.
// Only the insert is fatal; logo and card failures are recorded on the result.
func (s *MerchantService) Provision(ctx context.Context, in ProvisionInput) (*ProvisionResult, error) {
	log := s.log.With(zap.String("operator_id", in.CreatedBy.String()))
	result := &ProvisionResult{}

	merchant, err := in.Merchant.newMerchant()
	if err != nil {
		return nil, err
	}

	if in.Logo != nil {
		url, err := s.media.Upload(ctx, media.Upload{
			Folder:      logoFolder,
			Key:         qrcode.LogoKey(merchant.BusinessName),
			Data:        in.Logo.Data,
			ContentType: in.Logo.ContentType,
		})
		if err != nil {
			result.LogoErr = err
			log.Warn("Logo upload failed, continuing without logo", zap.Error(err))
		} else {
			merchant.Logo = &url
		}
	}

	if in.CreatedBy != uuid.Nil {
		creator := in.CreatedBy
		merchant.CreatedByUserID = &creator
	}
	if err := s.merchants.Create(ctx, merchant); err != nil {
		return nil, merchantWriteError(err, "failed to create merchant")
	}
	log.Info("Merchant created",
		zap.String("merchant_id", merchant.ID.String()),
		zap.String("business_name", merchant.BusinessName))

	card, err := s.cards.AutoIssue(ctx, merchant.ID)
	if err != nil {
		result.CardErr = err
		log.Warn("Automatic card issuance failed", zap.String("merchant_id", merchant.ID.String()), zap.Error(err))
	}
	result.Card = card

	if loaded, err := s.merchants.GetWithCreator(ctx, merchant.ID); err == nil {
		merchant = loaded
	} else {
		log.Warn("Failed to reload merchant", zap.String("merchant_id", merchant.ID.String()), zap.Error(err))
	}
	merchant.BusinessCard = card
	result.Merchant = merchant

	s.metrics.RecordProvisioning(result.Degraded())
	return result, nil
}

// merchantWriteError turns a unique violation into a conflict naming the field.
func merchantWriteError(err error, msg string) error {
	var uv *repository.UniqueViolation
	if errors.As(err, &uv) {
		return Conflict(uv.Field, fmt.Sprintf("a merchant with this %s already exists", uv.Field))
	}
	if errors.Is(err, repository.ErrNotFound) {
		return NotFound("merchant not found")
	}
	return Internal(msg, err)
}

func (in MerchantInput) newMerchant() (*model.Merchant, error) {
	required := map[string]*string{
		"businessName": in.BusinessName,
		"ownerName":    in.OwnerName,
		"phoneNumber":  in.PhoneNumber,
	}
	for _, field := range []string{"businessName", "ownerName", "phoneNumber"} {
		if v := required[field]; v == nil || strings.TrimSpace(*v) == "" {
			return nil, &Error{Kind: KindValidation, Field: field, Message: field + " is required"}
		}
	}

	m := &model.Merchant{
		BusinessName:   strings.TrimSpace(*in.BusinessName),
		OwnerName:      strings.TrimSpace(*in.OwnerName),
		PhoneNumber:    strings.TrimSpace(*in.PhoneNumber),
		WhatsappNumber: in.WhatsappNumber,
		Email:          emptyToNil(in.Email),
		Description:    in.Description,
		Category:       in.Category,
		Address:        in.Address,
		City:           in.City,
		Country:        in.Country,
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		PrimaryColor:   in.PrimaryColor,
		SecondaryColor: in.SecondaryColor,
		IsActive:       true,
	}
	if in.UseGradient != nil {
		m.UseGradient = *in.UseGradient
	}
	return m, nil
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
