package service

import (
	"context"
	"sort"
	"time"

	"github.com/fallousenghor/visit-backend/internal/model"
	"github.com/fallousenghor/visit-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultScanPageSize = 20
	DefaultTopMerchants = 10

	recentMerchantCount = 5
	recentScanCount     = 10
	scansByDayWindow    = 30 * 24 * time.Hour
	unknownDevice       = "Unknown"
)

// StatsService answers the reporting queries of the back office.
type StatsService struct {
	merchants     repository.MerchantRepository
	scans         repository.ScanRepository
	subscriptions repository.SubscriptionRepository
	now           func() time.Time
}

func NewStatsService(merchants repository.MerchantRepository, scans repository.ScanRepository,
	subscriptions repository.SubscriptionRepository) *StatsService {
	return &StatsService{
		merchants:     merchants,
		scans:         scans,
		subscriptions: subscriptions,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source; tests pin it.
func (s *StatsService) WithClock(now func() time.Time) *StatsService {
	s.now = now
	return s
}

// Dashboard summarises the whole platform.
type Dashboard struct {
	TotalMerchants      int64            `json:"totalMerchants"`
	ActiveMerchants     int64            `json:"activeMerchants"`
	TotalScans          int64            `json:"totalScans"`
	ActiveSubscriptions int64            `json:"activeSubscriptions"`
	TotalRevenue        decimal.Decimal  `json:"totalRevenue"`
	RecentMerchants     []model.Merchant `json:"recentMerchants"`
	RecentScans         []model.Scan     `json:"recentScans"`
}

func (s *StatsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		d.TotalMerchants, err = s.merchants.Count(gctx, false)
		return err
	})
	g.Go(func() (err error) {
		d.ActiveMerchants, err = s.merchants.Count(gctx, true)
		return err
	})
	g.Go(func() (err error) {
		d.TotalScans, err = s.scans.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.ActiveSubscriptions, err = s.subscriptions.CountActive(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.TotalRevenue, err = s.subscriptions.ActiveRevenue(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.RecentMerchants, err = s.merchants.Recent(gctx, recentMerchantCount)
		return err
	})
	g.Go(func() (err error) {
		d.RecentScans, err = s.scans.Recent(gctx, recentScanCount)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, Internal("failed to load statistics", err)
	}
	if d.RecentMerchants == nil {
		d.RecentMerchants = []model.Merchant{}
	}
	if d.RecentScans == nil {
		d.RecentScans = []model.Scan{}
	}
	return d, nil
}

// DayCount is the number of scans on one UTC date.
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// DeviceStat is the number of scans from one device class.
type DeviceStat struct {
	DeviceType string `json:"deviceType"`
	Count      int64  `json:"count"`
}

// MerchantStats reports the scan activity of one merchant.
type MerchantStats struct {
	TotalScans     int64        `json:"totalScans"`
	ScansToday     int64        `json:"scansToday"`
	ScansThisWeek  int64        `json:"scansThisWeek"`
	ScansThisMonth int64        `json:"scansThisMonth"`
	ScansByDay     []DayCount   `json:"scansByDay"`
	ScansByDevice  []DeviceStat `json:"scansByDevice"`
}

// MerchantStats counts scans since the start of today, this week (Sunday) and
// this month in UTC, and breaks down the trailing 30 days by date.
func (s *StatsService) MerchantStats(ctx context.Context, merchantID uuid.UUID) (*MerchantStats, error) {
	if err := s.requireMerchant(ctx, merchantID); err != nil {
		return nil, err
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	stats := &MerchantStats{}
	var err error
	if stats.TotalScans, err = s.scans.CountByMerchant(ctx, merchantID, nil); err != nil {
		return nil, Internal("failed to load statistics", err)
	}
	if stats.ScansToday, err = s.scans.CountByMerchant(ctx, merchantID, &today); err != nil {
		return nil, Internal("failed to load statistics", err)
	}
	if stats.ScansThisWeek, err = s.scans.CountByMerchant(ctx, merchantID, &weekStart); err != nil {
		return nil, Internal("failed to load statistics", err)
	}
	if stats.ScansThisMonth, err = s.scans.CountByMerchant(ctx, merchantID, &monthStart); err != nil {
		return nil, Internal("failed to load statistics", err)
	}

	recent, err := s.scans.ListSince(ctx, merchantID, now.Add(-scansByDayWindow))
	if err != nil {
		return nil, Internal("failed to load statistics", err)
	}
	stats.ScansByDay = groupByDay(recent)

	devices, err := s.scans.CountByDevice(ctx, merchantID)
	if err != nil {
		return nil, Internal("failed to load statistics", err)
	}
	stats.ScansByDevice = mergeDevices(devices)

	return stats, nil
}

// groupByDay buckets scans by UTC date in ascending order.
func groupByDay(scans []model.Scan) []DayCount {
	counts := map[string]int64{}
	for _, sc := range scans {
		counts[sc.ScannedAt.UTC().Format("2006-01-02")]++
	}
	days := make([]DayCount, 0, len(counts))
	for date, n := range counts {
		days = append(days, DayCount{Date: date, Count: n})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// mergeDevices folds missing classifications into "Unknown", largest first.
func mergeDevices(rows []repository.DeviceCount) []DeviceStat {
	counts := map[string]int64{}
	for _, row := range rows {
		name := unknownDevice
		if row.DeviceType != nil && *row.DeviceType != "" {
			name = *row.DeviceType
		}
		counts[name] += row.Count
	}
	out := make([]DeviceStat, 0, len(counts))
	for name, n := range counts {
		out = append(out, DeviceStat{DeviceType: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].DeviceType < out[j].DeviceType
	})
	return out
}

// TopMerchants ranks merchants by total scans.
func (s *StatsService) TopMerchants(ctx context.Context, limit int) ([]repository.TopMerchant, error) {
	if limit <= 0 {
		limit = DefaultTopMerchants
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	top, err := s.merchants.TopByScans(ctx, limit)
	if err != nil {
		return nil, Internal("failed to load ranking", err)
	}
	if top == nil {
		top = []repository.TopMerchant{}
	}
	return top, nil
}

// ScanPage is one page of a merchant's scan history.
type ScanPage struct {
	Scans      []model.Scan `json:"scans"`
	Pagination Pagination   `json:"pagination"`
}

// ScanHistory lists a merchant's scans, newest first.
func (s *StatsService) ScanHistory(ctx context.Context, merchantID uuid.UUID, page repository.Page) (*ScanPage, error) {
	if err := s.requireMerchant(ctx, merchantID); err != nil {
		return nil, err
	}
	scans, total, err := s.scans.ListByMerchant(ctx, merchantID, page)
	if err != nil {
		return nil, Internal("failed to load scan history", err)
	}
	if scans == nil {
		scans = []model.Scan{}
	}
	return &ScanPage{Scans: scans, Pagination: NewPagination(page, total)}, nil
}

func (s *StatsService) requireMerchant(ctx context.Context, id uuid.UUID) error {
	ok, err := s.merchants.Exists(ctx, id)
	if err != nil {
		return Internal("failed to load merchant", err)
	}
	if !ok {
		return NotFound("merchant not found")
	}
	return nil
}
