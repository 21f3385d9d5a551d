package handler

import (
	"github.com/fallousenghor/visit-backend/internal/model"
	"github.com/fallousenghor/visit-backend/internal/respond"
	"github.com/fallousenghor/visit-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CardHandler serves business cards, including the public scan endpoint.
type CardHandler struct {
	cards *service.CardService
}

func NewCardHandler(cards *service.CardService) *CardHandler {
	return &CardHandler{cards: cards}
}

// Scan is public: it resolves a QR code to the merchant's card and records the visit.
func (h *CardHandler) Scan(c echo.Context) error {
	card, err := h.cards.Scan(c.Request().Context(), service.ScanRequest{
		Code:      c.Param("qrCode"),
		UserAgent: c.Request().UserAgent(),
		IP:        c.RealIP(),
	})
	if err != nil {
		return err
	}
	return respond.Success(c, "card retrieved successfully", card)
}

type createCardRequest struct {
	MerchantID string          `json:"merchantId" validate:"required,uuid"`
	CardType   *model.CardType `json:"cardType"`
	NFCEnabled *bool           `json:"nfcEnabled"`
}

func (h *CardHandler) Create(c echo.Context) error {
	var req createCardRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	card, err := h.cards.Create(c.Request().Context(), service.CreateCardInput{
		MerchantID: uuid.MustParse(req.MerchantID),
		CardType:   req.CardType,
		NFCEnabled: req.NFCEnabled,
	})
	if err != nil {
		return err
	}
	return respond.Created(c, "business card created successfully", card)
}

func (h *CardHandler) GetByMerchant(c echo.Context) error {
	merchantID, err := pathID(c, "merchantId", "merchant")
	if err != nil {
		return err
	}
	card, err := h.cards.GetByMerchant(c.Request().Context(), merchantID)
	if err != nil {
		return err
	}
	return respond.Success(c, "business card retrieved successfully", card)
}

type updateCardRequest struct {
	CardType   *model.CardType `json:"cardType"`
	NFCEnabled *bool           `json:"nfcEnabled"`
	IsActive   *bool           `json:"isActive"`
}

func (h *CardHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id", "card")
	if err != nil {
		return err
	}
	var req updateCardRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	card, err := h.cards.Update(c.Request().Context(), id, service.CardUpdate{
		CardType:   req.CardType,
		NFCEnabled: req.NFCEnabled,
		IsActive:   req.IsActive,
	})
	if err != nil {
		return err
	}
	return respond.Success(c, "business card updated successfully", card)
}

func (h *CardHandler) Regenerate(c echo.Context) error {
	id, err := pathID(c, "id", "card")
	if err != nil {
		return err
	}
	card, err := h.cards.Regenerate(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.Success(c, "QR code regenerated successfully", card)
}

type renewRequest struct {
	Months *int `json:"months"`
}

// Renew extends the card by the requested months, twelve when none are given.
func (h *CardHandler) Renew(c echo.Context) error {
	id, err := pathID(c, "id", "card")
	if err != nil {
		return err
	}
	var req renewRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	months := service.DefaultRenewMonths
	if req.Months != nil {
		months = *req.Months
	}
	card, err := h.cards.Renew(c.Request().Context(), id, months)
	if err != nil {
		return err
	}
	return respond.Success(c, "business card renewed successfully", card)
}

func (h *CardHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id", "card")
	if err != nil {
		return err
	}
	if err := h.cards.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return respond.Success(c, "business card deleted successfully", nil)
}
