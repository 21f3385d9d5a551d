package handler

import (
	"github.com/fallousenghor/visit-backend/internal/middleware"
	"github.com/fallousenghor/visit-backend/internal/respond"
	"github.com/fallousenghor/visit-backend/internal/service"
	"github.com/fallousenghor/visit-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandler serves registration, login and the caller's profile.
type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Register(c.Request().Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}
	return respond.Created(c, "user registered successfully", res)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		logger.FromEcho(c).Info("Login rejected", zap.String("email", req.Email), zap.Error(err))
		return err
	}
	return respond.Success(c, "login successful", res)
}

func currentUserID(c echo.Context) (uuid.UUID, error) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		return uuid.Nil, service.Unauthorized("authentication required")
	}
	return id, nil
}

func (h *AuthHandler) GetProfile(c echo.Context) error {
	id, err := currentUserID(c)
	if err != nil {
		return err
	}
	user, err := h.auth.Profile(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.Success(c, "profile retrieved successfully", user.Public())
}

type profileRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1"`
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	id, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req profileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.auth.UpdateProfile(c.Request().Context(), id, service.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}
	return respond.Success(c, "profile updated successfully", user.Public())
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	id, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.auth.ChangePassword(c.Request().Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return respond.Success(c, "password changed successfully", nil)
}
