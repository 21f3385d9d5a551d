package handler

import (
	"strconv"

	"github.com/fallousenghor/visit-backend/internal/respond"
	"github.com/fallousenghor/visit-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// StatsHandler serves the reporting endpoints.
type StatsHandler struct {
	stats *service.StatsService
}

func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) Dashboard(c echo.Context) error {
	dashboard, err := h.stats.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return respond.Success(c, "dashboard statistics retrieved successfully", dashboard)
}

func (h *StatsHandler) TopMerchants(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	top, err := h.stats.TopMerchants(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return respond.Success(c, "top merchants retrieved successfully", top)
}

func (h *StatsHandler) MerchantStats(c echo.Context) error {
	merchantID, err := pathID(c, "merchantId", "merchant")
	if err != nil {
		return err
	}
	stats, err := h.stats.MerchantStats(c.Request().Context(), merchantID)
	if err != nil {
		return err
	}
	return respond.Success(c, "merchant statistics retrieved successfully", stats)
}

func (h *StatsHandler) ScanHistory(c echo.Context) error {
	merchantID, err := pathID(c, "merchantId", "merchant")
	if err != nil {
		return err
	}
	page := service.ParsePage(c.QueryParam("page"), c.QueryParam("limit"), service.DefaultScanPageSize)

	history, err := h.stats.ScanHistory(c.Request().Context(), merchantID, page)
	if err != nil {
		return err
	}
	return respond.Success(c, "scan history retrieved successfully", history)
}
