// Package seed loads the operator accounts and demo merchants of a fresh install.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fallousenghor/visit-backend/internal/model"
	"github.com/fallousenghor/visit-backend/internal/repository"
	"github.com/fallousenghor/visit-backend/internal/service"
	"github.com/fallousenghor/visit-backend/pkg/config"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Seeder is idempotent: accounts are reset and merchants already present are skipped.
type Seeder struct {
	auth          *service.AuthService
	merchants     *service.MerchantService
	merchantRepo  repository.MerchantRepository
	subscriptions repository.SubscriptionRepository
	log           *zap.Logger
	now           func() time.Time
}

func New(auth *service.AuthService, merchants *service.MerchantService, merchantRepo repository.MerchantRepository,
	subscriptions repository.SubscriptionRepository, log *zap.Logger) *Seeder {
	return &Seeder{
		auth:          auth,
		merchants:     merchants,
		merchantRepo:  merchantRepo,
		subscriptions: subscriptions,
		log:           log,
		now:           time.Now,
	}
}

// Report summarises one run.
type Report struct {
	AdminCreated     bool
	AgentCreated     bool
	MerchantsCreated int
	MerchantsSkipped int
	Warnings         []string
}

type demoMerchant struct {
	input    service.MerchantInput
	payments []model.PaymentMethod
	pack     model.CardType
	price    decimal.Decimal
}

func str(s string) *string { return &s }

func float(f float64) *float64 { return &f }

func demoMerchants() []demoMerchant {
	return []demoMerchant{
		{
			input: service.MerchantInput{
				BusinessName:   str("Chez Fatou Couture"),
				OwnerName:      str("Fatou Diop"),
				PhoneNumber:    str("+221771234501"),
				WhatsappNumber: str("+221771234501"),
				Email:          str("contact@chezfatou.sn"),
				Description:    str("Couture et retouches sur mesure"),
				Category:       str("Couture"),
				Address:        str("Rue 10, Medina"),
				City:           str("Dakar"),
				Country:        str("Senegal"),
				Latitude:       float(14.6805),
				Longitude:      float(-17.4467),
				PrimaryColor:   str("#7C3AED"),
				SecondaryColor: str("#F59E0B"),
			},
			payments: []model.PaymentMethod{
				{PaymentMethod: model.PaymentWave, AccountNumber: "771234501", AccountName: "Fatou Diop"},
				{PaymentMethod: model.PaymentOrangeMoney, AccountNumber: "771234501", AccountName: "Fatou Diop"},
				{PaymentMethod: model.PaymentCash},
			},
			pack:  model.CardTypePremium,
			price: decimal.NewFromInt(25000),
		},
		{
			input: service.MerchantInput{
				BusinessName: str("Garage Ndiaye Auto"),
				OwnerName:    str("Moussa Ndiaye"),
				PhoneNumber:  str("+221781234502"),
				Email:        str("garage.ndiaye@gmail.com"),
				Description:  str("Mecanique generale et diagnostic"),
				Category:     str("Automobile"),
				Address:      str("Route de Khombole"),
				City:         str("Thies"),
				Country:      str("Senegal"),
				PrimaryColor: str("#1E40AF"),
			},
			payments: []model.PaymentMethod{
				{PaymentMethod: model.PaymentWave, AccountNumber: "781234502", AccountName: "Moussa Ndiaye"},
				{PaymentMethod: model.PaymentCash},
			},
			pack:  model.CardTypeBasic,
			price: decimal.NewFromInt(10000),
		},
	}
}

// weekSchedule opens Monday to Saturday and closes on Sunday.
func weekSchedule() []model.OpeningHours {
	hours := make([]model.OpeningHours, 0, 7)
	for day := 0; day < 7; day++ {
		if day == 0 {
			hours = append(hours, model.OpeningHours{DayOfWeek: day, IsClosed: true})
			continue
		}
		hours = append(hours, model.OpeningHours{DayOfWeek: day, OpenTime: "08:00", CloseTime: "20:00"})
	}
	return hours
}

func (s *Seeder) Run(ctx context.Context, cfg config.SeedConfig) (*Report, error) {
	report := &Report{Warnings: []string{}}

	admin, created, err := s.auth.EnsureAccount(ctx, service.RegisterInput{
		Email: cfg.AdminEmail, Password: cfg.AdminPassword, FirstName: "Admin", LastName: "SmartCard",
	}, model.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	report.AdminCreated = created

	_, created, err = s.auth.EnsureAccount(ctx, service.RegisterInput{
		Email: cfg.AgentEmail, Password: cfg.AgentPassword, FirstName: "Agent", LastName: "Terrain",
	}, model.RoleAgent)
	if err != nil {
		return nil, fmt.Errorf("seed agent: %w", err)
	}
	report.AgentCreated = created

	for _, demo := range demoMerchants() {
		_, err := s.merchantRepo.FindByEmail(ctx, *demo.input.Email)
		if err == nil {
			report.MerchantsSkipped++
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("seed lookup %s: %w", *demo.input.BusinessName, err)
		}

		if err := s.seedMerchant(ctx, demo, admin, report); err != nil {
			return nil, err
		}
		report.MerchantsCreated++
	}

	s.log.Info("Seed completed",
		zap.Bool("admin_created", report.AdminCreated),
		zap.Bool("agent_created", report.AgentCreated),
		zap.Int("merchants_created", report.MerchantsCreated),
		zap.Int("merchants_skipped", report.MerchantsSkipped))
	return report, nil
}

func (s *Seeder) seedMerchant(ctx context.Context, demo demoMerchant, admin *model.User, report *Report) error {
	name := *demo.input.BusinessName
	res, err := s.merchants.Provision(ctx, service.ProvisionInput{Merchant: demo.input, CreatedBy: admin.ID})
	if err != nil {
		return fmt.Errorf("seed merchant %s: %w", name, err)
	}
	for _, w := range res.Warnings() {
		report.Warnings = append(report.Warnings, name+": "+w)
	}

	merchantID := res.Merchant.ID
	hours := weekSchedule()
	for i := range hours {
		hours[i].MerchantID = merchantID
	}
	if err := s.merchantRepo.AddOpeningHours(ctx, hours); err != nil {
		return fmt.Errorf("seed opening hours %s: %w", name, err)
	}

	payments := make([]model.PaymentMethod, len(demo.payments))
	copy(payments, demo.payments)
	for i := range payments {
		payments[i].MerchantID = merchantID
	}
	if err := s.merchantRepo.AddPaymentMethods(ctx, payments); err != nil {
		return fmt.Errorf("seed payment methods %s: %w", name, err)
	}

	start := s.now().UTC()
	err = s.subscriptions.Create(ctx, &model.Subscription{
		MerchantID: merchantID,
		PackType:   demo.pack,
		Price:      demo.price,
		Status:     model.SubscriptionActive,
		StartDate:  start,
		EndDate:    start.AddDate(1, 0, 0),
	})
	if err != nil {
		return fmt.Errorf("seed subscription %s: %w", name, err)
	}
	return nil
}
