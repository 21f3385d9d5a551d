package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fallousenghor/visit-backend/internal/model"
	"github.com/fallousenghor/visit-backend/internal/repository"
	"github.com/fallousenghor/visit-backend/internal/respond"
	"github.com/fallousenghor/visit-backend/internal/service"
	"github.com/labstack/echo/v4"
)

const logoField = "logo"

var logoTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// MerchantHandler serves merchant onboarding and administration.
type MerchantHandler struct {
	merchants   *service.MerchantService
	maxLogoSize int64
}

func NewMerchantHandler(merchants *service.MerchantService, maxLogoSize int64) *MerchantHandler {
	return &MerchantHandler{merchants: merchants, maxLogoSize: maxLogoSize}
}

// MerchantFields are the optional attributes shared by create and update forms.
type MerchantFields struct {
	WhatsappNumber *string  `json:"whatsappNumber" form:"whatsappNumber" validate:"omitempty,sn_phone"`
	Email          *string  `json:"email" form:"email" validate:"omitempty,email"`
	Description    *string  `json:"description" form:"description"`
	Category       *string  `json:"category" form:"category"`
	Address        *string  `json:"address" form:"address"`
	City           *string  `json:"city" form:"city"`
	Country        *string  `json:"country" form:"country"`
	Latitude       *float64 `json:"latitude" form:"latitude" validate:"omitempty,latitude"`
	Longitude      *float64 `json:"longitude" form:"longitude" validate:"omitempty,longitude"`
	PrimaryColor   *string  `json:"primaryColor" form:"primaryColor" validate:"omitempty,hexcolor"`
	SecondaryColor *string  `json:"secondaryColor" form:"secondaryColor" validate:"omitempty,hexcolor"`
	UseGradient    *bool    `json:"useGradient" form:"useGradient"`
}

type createMerchantRequest struct {
	BusinessName string `json:"businessName" form:"businessName" validate:"required"`
	OwnerName    string `json:"ownerName" form:"ownerName" validate:"required"`
	PhoneNumber  string `json:"phoneNumber" form:"phoneNumber" validate:"required,sn_phone"`
	MerchantFields
}

type updateMerchantRequest struct {
	BusinessName *string `json:"businessName" form:"businessName" validate:"omitempty,min=1"`
	OwnerName    *string `json:"ownerName" form:"ownerName" validate:"omitempty,min=1"`
	PhoneNumber  *string `json:"phoneNumber" form:"phoneNumber" validate:"omitempty,sn_phone"`
	MerchantFields
}

func (f MerchantFields) input() service.MerchantInput {
	return service.MerchantInput{
		WhatsappNumber: f.WhatsappNumber,
		Email:          f.Email,
		Description:    f.Description,
		Category:       f.Category,
		Address:        f.Address,
		City:           f.City,
		Country:        f.Country,
		Latitude:       f.Latitude,
		Longitude:      f.Longitude,
		PrimaryColor:   f.PrimaryColor,
		SecondaryColor: f.SecondaryColor,
		UseGradient:    f.UseGradient,
	}
}

// readLogo returns the uploaded logo, or nil when the request carries none.
func (h *MerchantHandler) readLogo(c echo.Context) (*service.LogoUpload, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, nil
	}
	file, err := c.FormFile(logoField)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, service.Validation("invalid logo upload")
	}

	contentType := strings.ToLower(file.Header.Get(echo.HeaderContentType))
	if !logoTypes[contentType] {
		return nil, service.Validation("only jpeg, jpg, png and webp images are allowed")
	}
	if file.Size > h.maxLogoSize {
		return nil, service.Validation(fmt.Sprintf("logo must not exceed %d bytes", h.maxLogoSize))
	}

	src, err := file.Open()
	if err != nil {
		return nil, service.Internal("failed to read logo", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxLogoSize+1))
	if err != nil {
		return nil, service.Internal("failed to read logo", err)
	}
	if int64(len(data)) > h.maxLogoSize {
		return nil, service.Validation(fmt.Sprintf("logo must not exceed %d bytes", h.maxLogoSize))
	}
	return &service.LogoUpload{Data: data, ContentType: contentType}, nil
}

type provisionResponse struct {
	*model.Merchant
	CardIssued bool     `json:"cardIssued"`
	Warnings   []string `json:"warnings"`
}

func (h *MerchantHandler) Create(c echo.Context) error {
	var req createMerchantRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	logo, err := h.readLogo(c)
	if err != nil {
		return err
	}
	creator, err := currentUserID(c)
	if err != nil {
		return err
	}

	in := req.MerchantFields.input()
	in.BusinessName = &req.BusinessName
	in.OwnerName = &req.OwnerName
	in.PhoneNumber = &req.PhoneNumber

	res, err := h.merchants.Provision(c.Request().Context(), service.ProvisionInput{
		Merchant:  in,
		Logo:      logo,
		CreatedBy: creator,
	})
	if err != nil {
		return err
	}

	message := "merchant created successfully"
	if res.Degraded() {
		message = "merchant created with warnings"
	}
	return respond.Created(c, message, provisionResponse{
		Merchant:   res.Merchant,
		CardIssued: res.Card != nil,
		Warnings:   res.Warnings(),
	})
}

func (h *MerchantHandler) List(c echo.Context) error {
	filter := repository.MerchantFilter{
		Search: strings.TrimSpace(c.QueryParam("search")),
		City:   strings.TrimSpace(c.QueryParam("city")),
	}
	switch c.QueryParam("isActive") {
	case "true":
		active := true
		filter.IsActive = &active
	case "false":
		active := false
		filter.IsActive = &active
	}
	page := service.ParsePage(c.QueryParam("page"), c.QueryParam("limit"), service.DefaultMerchantPageSize)

	res, err := h.merchants.List(c.Request().Context(), filter, page)
	if err != nil {
		return err
	}
	return respond.Success(c, "merchants retrieved successfully", res)
}

func (h *MerchantHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id", "merchant")
	if err != nil {
		return err
	}
	merchant, err := h.merchants.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.Success(c, "merchant retrieved successfully", merchant)
}

type updateResponse struct {
	*model.Merchant
	Warnings []string `json:"warnings"`
}

func (h *MerchantHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id", "merchant")
	if err != nil {
		return err
	}
	var req updateMerchantRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	logo, err := h.readLogo(c)
	if err != nil {
		return err
	}

	in := req.MerchantFields.input()
	in.BusinessName = req.BusinessName
	in.OwnerName = req.OwnerName
	in.PhoneNumber = req.PhoneNumber

	res, err := h.merchants.Update(c.Request().Context(), id, in, logo)
	if err != nil {
		return err
	}

	warnings := []string{}
	if res.LogoErr != nil {
		warnings = append(warnings, "logo upload failed; previous logo kept")
	}
	return respond.Success(c, "merchant updated successfully", updateResponse{Merchant: res.Merchant, Warnings: warnings})
}

func (h *MerchantHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id", "merchant")
	if err != nil {
		return err
	}
	if err := h.merchants.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return respond.Success(c, "merchant deleted successfully", nil)
}

func (h *MerchantHandler) ToggleStatus(c echo.Context) error {
	id, err := pathID(c, "id", "merchant")
	if err != nil {
		return err
	}
	merchant, err := h.merchants.ToggleStatus(c.Request().Context(), id)
	if err != nil {
		return err
	}

	state := "deactivated"
	if merchant.IsActive {
		state = "activated"
	}
	return respond.Success(c, "merchant "+state+" successfully", merchant)
}
