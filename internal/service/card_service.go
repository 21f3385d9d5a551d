package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fallousenghor/visit-backend/internal/media"
	"github.com/fallousenghor/visit-backend/internal/model"
	"github.com/fallousenghor/visit-backend/internal/qrcode"
	"github.com/fallousenghor/visit-backend/internal/repository"
	"github.com/fallousenghor/visit-backend/pkg/config"
	"github.com/fallousenghor/visit-backend/prometheus"
	"github.com/google/uuid"
	"github.com/mssola/useragent"
	"go.uber.org/zap"
)

const (
	qrFolder = "qr-codes"

	// DefaultRenewMonths applies when a renewal names no duration.
	DefaultRenewMonths = 12

	// issuance sources
	SourceAuto     = "auto"
	SourceManual   = "manual"
	SourceBackfill = "backfill"

	// scan results
	ScanRecorded    = "recorded"
	ScanNotFound    = "not_found"
	ScanDeactivated = "deactivated"
	ScanExpired     = "expired"
)

// CardService issues business cards and drives their lifecycle.
type CardService struct {
	cards     repository.CardRepository
	merchants repository.MerchantRepository
	scans     repository.ScanRepository
	codes     qrcode.CodeGenerator
	renderer  qrcode.Renderer
	media     media.Host
	cfg       config.CardConfig
	metrics   *prometheus.ServiceMetrics
	log       *zap.Logger
	now       func() time.Time
}

// CardDeps groups the collaborators of a CardService.
type CardDeps struct {
	Cards     repository.CardRepository
	Merchants repository.MerchantRepository
	Scans     repository.ScanRepository
	Codes     qrcode.CodeGenerator
	Renderer  qrcode.Renderer
	Media     media.Host
	Metrics   *prometheus.ServiceMetrics
	Log       *zap.Logger
}

func NewCardService(deps CardDeps, cfg config.CardConfig) *CardService {
	return &CardService{
		cards:     deps.Cards,
		merchants: deps.Merchants,
		scans:     deps.Scans,
		codes:     deps.Codes,
		renderer:  deps.Renderer,
		media:     deps.Media,
		cfg:       cfg,
		metrics:   deps.Metrics,
		log:       deps.Log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source; tests pin it.
func (s *CardService) WithClock(now func() time.Time) *CardService {
	s.now = now
	return s
}

// artifact is the code, URL and hosted image that make a card scannable.
type artifact struct {
	code      string
	publicURL string
	imageURL  string
}

func (s *CardService) newArtifact(ctx context.Context) (*artifact, error) {
	code := s.codes.NewCode()
	publicURL := qrcode.PublicURL(s.cfg.PublicURL, code)

	png, err := s.renderer.Render(publicURL)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}

	imageURL, err := s.media.Upload(ctx, media.Upload{
		Folder:      qrFolder,
		Key:         qrcode.ImageKey(code),
		Data:        png,
		ContentType: "image/png",
	})
	if err != nil {
		return nil, fmt.Errorf("upload qr code: %w", err)
	}

	return &artifact{code: code, publicURL: publicURL, imageURL: imageURL}, nil
}

// issue runs the full card pipeline for a merchant: code, render, upload, insert.
func (s *CardService) issue(ctx context.Context, merchantID uuid.UUID, cardType model.CardType, nfc bool, source string) (card *model.BusinessCard, err error) {
	defer func() { s.metrics.RecordCardIssuance(source, err) }()

	art, err := s.newArtifact(ctx)
	if err != nil {
		return nil, err
	}

	card = &model.BusinessCard{
		MerchantID:  merchantID,
		QRCode:      art.code,
		QRCodeImage: art.imageURL,
		PublicURL:   art.publicURL,
		CardType:    cardType,
		NFCEnabled:  nfc,
		IsActive:    true,
		ExpiresAt:   s.now().AddDate(0, s.cfg.ValidityMonths, 0),
	}

	defer s.metrics.TrackDBOperation("card_create")(time.Now())
	if err := s.cards.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("insert card: %w", err)
	}
	return card, nil
}

// CreateCardInput is an explicit card request for an existing merchant.
type CreateCardInput struct {
	MerchantID uuid.UUID
	CardType   *model.CardType
	NFCEnabled *bool
}

// Create issues a card for a merchant that has none. Unlike automatic issuance,
// every failure is returned to the caller.
func (s *CardService) Create(ctx context.Context, in CreateCardInput) (*model.BusinessCard, error) {
	cardType := model.CardTypeBasic
	if in.CardType != nil {
		if !in.CardType.Valid() {
			return nil, Validation("invalid card type")
		}
		cardType = *in.CardType
	}
	nfc := in.NFCEnabled != nil && *in.NFCEnabled

	exists, err := s.merchants.Exists(ctx, in.MerchantID)
	if err != nil {
		return nil, Internal("failed to create card", err)
	}
	if !exists {
		return nil, NotFound("merchant not found")
	}

	hasCard, err := s.cards.ExistsForMerchant(ctx, in.MerchantID)
	if err != nil {
		return nil, Internal("failed to create card", err)
	}
	if hasCard {
		return nil, Validation("merchant already has a card")
	}

	card, err := s.issue(ctx, in.MerchantID, cardType, nfc, SourceManual)
	if err != nil {
		var uv *repository.UniqueViolation
		if errors.As(err, &uv) && uv.Field == "merchantId" {
			return nil, Validation("merchant already has a card")
		}
		return nil, Internal("failed to create card", err)
	}

	s.log.Info("Card created",
		zap.String("card_id", card.ID.String()),
		zap.String("merchant_id", in.MerchantID.String()))
	return s.reload(ctx, card.ID)
}

func (s *CardService) reload(ctx context.Context, id uuid.UUID) (*model.BusinessCard, error) {
	card, err := s.cards.GetByIDWithMerchant(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, "failed to load card")
	}
	return card, nil
}

func (s *CardService) lookupError(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return NotFound("card not found")
	}
	return Internal(msg, err)
}

// GetByMerchant returns the card of a merchant with the merchant attached.
func (s *CardService) GetByMerchant(ctx context.Context, merchantID uuid.UUID) (*model.BusinessCard, error) {
	card, err := s.cards.GetByMerchantID(ctx, merchantID)
	if err != nil {
		return nil, s.lookupError(err, "failed to load card")
	}
	return card, nil
}

// ScanRequest describes a public retrieval of a card.
type ScanRequest struct {
	Code      string
	UserAgent string
	IP        string
}

// Scan resolves a public card code. The card must exist, be active and not be
// expired; only then is exactly one scan recorded.
func (s *CardService) Scan(ctx context.Context, req ScanRequest) (*model.BusinessCard, error) {
	card, err := s.cards.GetByCode(ctx, req.Code)
	if errors.Is(err, repository.ErrNotFound) {
		s.metrics.RecordScan(ScanNotFound)
		return nil, NotFound("card not found")
	}
	if err != nil {
		return nil, Internal("failed to load card", err)
	}

	now := s.now()
	switch card.Status(now) {
	case model.CardStatusInactive:
		s.metrics.RecordScan(ScanDeactivated)
		return nil, Forbidden("card is deactivated")
	case model.CardStatusExpired:
		s.metrics.RecordScan(ScanExpired)
		return nil, Forbidden("card has expired")
	}

	scan := &model.Scan{
		MerchantID: card.MerchantID,
		ScannedAt:  now,
		UserAgent:  req.UserAgent,
		IPAddress:  req.IP,
		DeviceType: DeviceType(req.UserAgent),
	}
	if err := s.scans.Create(ctx, scan); err != nil {
		return nil, Internal("failed to record scan", err)
	}
	s.metrics.RecordScan(ScanRecorded)
	return card, nil
}

// DeviceType classifies a user agent as Bot, Tablet, Mobile or Desktop; nil when unknown.
func DeviceType(ua string) *string {
	if strings.TrimSpace(ua) == "" {
		return nil
	}
	parsed := useragent.New(ua)

	var kind string
	switch {
	case parsed.Bot() || strings.Contains(strings.ToLower(ua), "bot"):
		kind = "Bot"
	case strings.Contains(ua, "iPad") || (strings.Contains(ua, "Android") && !strings.Contains(ua, "Mobile")):
		kind = "Tablet"
	case parsed.Mobile() || strings.Contains(ua, "Mobile"):
		kind = "Mobile"
	default:
		kind = "Desktop"
	}
	return &kind
}

// CardUpdate carries optional card fields; nil leaves a field unchanged.
type CardUpdate struct {
	CardType   *model.CardType
	NFCEnabled *bool
	IsActive   *bool
}

func (s *CardService) Update(ctx context.Context, id uuid.UUID, in CardUpdate) (*model.BusinessCard, error) {
	fields := map[string]interface{}{}
	if in.CardType != nil {
		if !in.CardType.Valid() {
			return nil, Validation("invalid card type")
		}
		fields["card_type"] = *in.CardType
	}
	if in.NFCEnabled != nil {
		fields["nfc_enabled"] = *in.NFCEnabled
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}

	card, err := s.cards.Update(ctx, id, fields)
	if err != nil {
		return nil, s.lookupError(err, "failed to update card")
	}
	return card, nil
}

// Regenerate replaces the code, public URL and image. Expiry and the active flag are kept.
func (s *CardService) Regenerate(ctx context.Context, id uuid.UUID) (*model.BusinessCard, error) {
	if _, err := s.cards.GetByID(ctx, id); err != nil {
		return nil, s.lookupError(err, "failed to regenerate card")
	}

	art, err := s.newArtifact(ctx)
	if err != nil {
		return nil, Internal("failed to regenerate card", err)
	}

	card, err := s.cards.Update(ctx, id, map[string]interface{}{
		"qr_code":       art.code,
		"qr_code_image": art.imageURL,
		"public_url":    art.publicURL,
	})
	if err != nil {
		return nil, s.lookupError(err, "failed to regenerate card")
	}
	s.log.Info("Card regenerated", zap.String("card_id", id.String()))
	return card, nil
}

// Renew extends the expiry by months counted from the current expiry, even a
// past one, and reactivates the card.
func (s *CardService) Renew(ctx context.Context, id uuid.UUID, months int) (*model.BusinessCard, error) {
	if months <= 0 {
		return nil, Validation("months must be a positive integer")
	}

	current, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, "failed to renew card")
	}

	card, err := s.cards.Update(ctx, id, map[string]interface{}{
		"expires_at": current.ExpiresAt.AddDate(0, months, 0),
		"is_active":  true,
	})
	if err != nil {
		return nil, s.lookupError(err, "failed to renew card")
	}
	s.log.Info("Card renewed", zap.String("card_id", id.String()), zap.Time("expires_at", card.ExpiresAt))
	return card, nil
}

func (s *CardService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.cards.Delete(ctx, id); err != nil {
		return s.lookupError(err, "failed to delete card")
	}
	s.log.Info("Card deleted", zap.String("card_id", id.String()))
	return nil
}

// BackfillReport counts the outcome of one reconciliation pass.
type BackfillReport struct {
	Scanned int `json:"scanned"`
	Issued  int `json:"issued"`
	Failed  int `json:"failed"`
}

// Backfill issues a card to every merchant left without one, at most limit per pass.
func (s *CardService) Backfill(ctx context.Context, limit int) (BackfillReport, error) {
	var report BackfillReport

	merchants, err := s.merchants.ListWithoutCard(ctx, limit)
	if err != nil {
		return report, err
	}
	report.Scanned = len(merchants)

	for _, m := range merchants {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, err := s.issue(ctx, m.ID, model.CardTypeBasic, false, SourceBackfill); err != nil {
			report.Failed++
			s.log.Warn("Card backfill failed", zap.String("merchant_id", m.ID.String()), zap.Error(err))
			continue
		}
		report.Issued++
	}

	if report.Scanned > 0 {
		s.log.Info("Card backfill finished",
			zap.Int("scanned", report.Scanned),
			zap.Int("issued", report.Issued),
			zap.Int("failed", report.Failed))
	}
	return report, nil
}

// RunBackfill repeats Backfill every interval until ctx is done.
func (s *CardService) RunBackfill(ctx context.Context, interval time.Duration, limit int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Backfill(ctx, limit); err != nil && ctx.Err() == nil {
				s.log.Error("Card backfill pass failed", zap.Error(err))
			}
		}
	}
}

// AutoIssue issues the default card that comes with a newly provisioned merchant.
func (s *CardService) AutoIssue(ctx context.Context, merchantID uuid.UUID) (*model.BusinessCard, error) {
	return s.issue(ctx, merchantID, model.CardTypeBasic, false, SourceAuto)
}
