package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/fallousenghor/visit-backend/internal/model"
	"github.com/fallousenghor/visit-backend/internal/repository"
	"github.com/fallousenghor/visit-backend/internal/testutil"
	"github.com/fallousenghor/visit-backend/pkg/config"
	"github.com/fallousenghor/visit-backend/prometheus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var now = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

type fixture struct {
	db        *gorm.DB
	host      *testutil.FakeHost
	renderer  *testutil.FakeRenderer
	clock     *testutil.Clock
	users     repository.UserRepository
	merchants repository.MerchantRepository
	cards     repository.CardRepository
	scans     repository.ScanRepository
	subs      repository.SubscriptionRepository
	auth      *AuthService
	cardSvc   *CardService
	merchSvc  *MerchantService
	stats     *StatsService
}

type fakeTokens struct{}

func (fakeTokens) GenerateToken(id, email, role string) (string, error) {
	return "token:" + id + ":" + role, nil
}

// fastHasher keeps tests quick; production uses bcrypt cost 10.
var fastHasher = BcryptHasher{Cost: 4}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:        db,
		host:      &testutil.FakeHost{},
		renderer:  &testutil.FakeRenderer{},
		clock:     testutil.NewClock(now),
		users:     repository.NewGormUserRepo(db),
		merchants: repository.NewGormMerchantRepo(db),
		cards:     repository.NewGormCardRepo(db),
		scans:     repository.NewGormScanRepo(db),
		subs:      repository.NewGormSubscriptionRepo(db),
	}
	metrics := prometheus.NewNop()
	log := zap.NewNop()

	f.auth = NewAuthService(f.users, fastHasher, fakeTokens{}, metrics, log)
	f.cardSvc = NewCardService(CardDeps{
		Cards:     f.cards,
		Merchants: f.merchants,
		Scans:     f.scans,
		Codes:     &testutil.SeqCodes{},
		Renderer:  f.renderer,
		Media:     f.host,
		Metrics:   metrics,
		Log:       log,
	}, config.CardConfig{PublicURL: "https://cards.test/card", ValidityMonths: 12}).WithClock(f.clock.Now)
	f.merchSvc = NewMerchantService(f.merchants, f.cardSvc, f.host, metrics, log)
	f.stats = NewStatsService(f.merchants, f.scans, f.subs).WithClock(f.clock.Now)
	return f
}

func (f *fixture) operator(t *testing.T) uuid.UUID {
	t.Helper()
	res, err := f.auth.Register(context.Background(), RegisterInput{
		Email: uuid.NewString() + "@agents.sn", Password: "secret1", FirstName: "Aminata", LastName: "Diop",
	})
	require.NoError(t, err)
	return res.User.ID
}

func merchantInput(name, phone string) MerchantInput {
	return MerchantInput{
		BusinessName: testutil.StrPtr(name),
		OwnerName:    testutil.StrPtr("Moussa Ndiaye"),
		PhoneNumber:  testutil.StrPtr(phone),
	}
}

func (f *fixture) provision(t *testing.T, name, phone string) *ProvisionResult {
	t.Helper()
	res, err := f.merchSvc.Provision(context.Background(), ProvisionInput{
		Merchant:  merchantInput(name, phone),
		CreatedBy: f.operator(t),
	})
	require.NoError(t, err)
	return res
}

func assertKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, KindOf(err), err.Error())
}

// --- identity ---

func TestRegisterDuplicateEmailIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := RegisterInput{Email: "fatou@smartcard.sn", Password: "secret1", FirstName: "Fatou", LastName: "Sall"}

	res, err := f.auth.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, res.User.Role)
	assert.NotEmpty(t, res.Token)

	_, err = f.auth.Register(ctx, RegisterInput{Email: "Fatou@SmartCard.sn", Password: "other1", FirstName: "X", LastName: "Y"})
	assertKind(t, err, KindConflict)

	var count int64
	require.NoError(t, f.db.Model(&model.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestLoginOrderOfChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.auth.Register(ctx, RegisterInput{Email: "agent@smartcard.sn", Password: "secret1", FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "nobody@smartcard.sn", "secret1")
	assertKind(t, err, KindUnauthorized)

	_, err = f.auth.Login(ctx, "agent@smartcard.sn", "wrong")
	assertKind(t, err, KindUnauthorized)

	ok, err := f.auth.Login(ctx, "agent@smartcard.sn", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "token:"+res.User.ID.String()+":USER", ok.Token)

	require.NoError(t, f.users.Update(ctx, res.User.ID, map[string]interface{}{"is_active": false}))
	got, err := f.auth.Login(ctx, "agent@smartcard.sn", "secret1")
	assertKind(t, err, KindForbidden)
	assert.Nil(t, got)
}

func TestProfileAndChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.auth.Register(ctx, RegisterInput{Email: "p@smartcard.sn", Password: "secret1", FirstName: "A", LastName: "B"})
	require.NoError(t, err)
	id := res.User.ID

	u, err := f.auth.UpdateProfile(ctx, id, ProfileUpdate{FirstName: testutil.StrPtr(" Awa ")})
	require.NoError(t, err)
	assert.Equal(t, "Awa", u.FirstName)
	assert.Equal(t, "B", u.LastName)

	assertKind(t, f.auth.ChangePassword(ctx, id, "nope", "newpass"), KindUnauthorized)
	require.NoError(t, f.auth.ChangePassword(ctx, id, "secret1", "newpass"))

	_, err = f.auth.Login(ctx, "p@smartcard.sn", "secret1")
	assertKind(t, err, KindUnauthorized)
	_, err = f.auth.Login(ctx, "p@smartcard.sn", "newpass")
	assert.NoError(t, err)

	_, err = f.auth.Profile(ctx, uuid.New())
	assertKind(t, err, KindNotFound)
}

func TestEnsureAccountCreatesThenResets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := RegisterInput{Email: "admin@smartcard.sn", Password: "Admin@123", FirstName: "Admin", LastName: "Root"}

	u, created, err := f.auth.EnsureAccount(ctx, in, model.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.RoleAdmin, u.Role)

	require.NoError(t, f.users.Update(ctx, u.ID, map[string]interface{}{"is_active": false}))
	in.Password = "Reset@456"
	u, created, err = f.auth.EnsureAccount(ctx, in, model.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, u.IsActive)

	_, err = f.auth.Login(ctx, "admin@smartcard.sn", "Reset@456")
	assert.NoError(t, err)
}

// --- provisioning ---

func TestProvisionIssuesCard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	operator := f.operator(t)

	res, err := f.merchSvc.Provision(ctx, ProvisionInput{
		Merchant:  merchantInput("Chez Fatou  Dakar", "+221771234567"),
		Logo:      &LogoUpload{Data: []byte("img"), ContentType: "image/png"},
		CreatedBy: operator,
	})
	require.NoError(t, err)
	assert.False(t, res.Degraded())
	assert.Empty(t, res.Warnings())

	require.Len(t, f.host.Uploads, 2)
	assert.Equal(t, "merchants/logos", f.host.Uploads[0].Folder)
	assert.Equal(t, "logo_chez_fatou_dakar", f.host.Uploads[0].Key)
	assert.Equal(t, "qr-codes", f.host.Uploads[1].Folder)
	assert.Equal(t, "qr_code-1", f.host.Uploads[1].Key)

	m := res.Merchant
	require.NotNil(t, m.Logo)
	assert.Equal(t, "https://media.test/merchants/logos/logo_chez_fatou_dakar", *m.Logo)
	require.NotNil(t, m.Creator)
	assert.Equal(t, operator, m.Creator.ID)
	assert.Empty(t, m.Creator.Role)

	card := res.Card
	require.NotNil(t, card)
	assert.Equal(t, "code-1", card.QRCode)
	assert.Equal(t, "https://cards.test/card/code-1", card.PublicURL)
	assert.Equal(t, model.CardTypeBasic, card.CardType)
	assert.False(t, card.NFCEnabled)
	assert.True(t, card.IsActive)
	assert.Equal(t, now.AddDate(1, 0, 0), card.ExpiresAt)
	assert.Equal(t, 1, f.renderer.Calls)
}

func TestProvisionWithFailingMediaHost(t *testing.T) {
	f := newFixture(t)
	f.host.Err = testutil.ErrUpload
	ctx := context.Background()

	res, err := f.merchSvc.Provision(ctx, ProvisionInput{
		Merchant:  merchantInput("Boutique", "771234567"),
		Logo:      &LogoUpload{Data: []byte("img"), ContentType: "image/jpeg"},
		CreatedBy: f.operator(t),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Merchant)
	assert.Nil(t, res.Merchant.Logo)
	assert.Nil(t, res.Card)
	assert.True(t, res.Degraded())
	assert.ErrorIs(t, res.LogoErr, testutil.ErrUpload)
	assert.ErrorIs(t, res.CardErr, testutil.ErrUpload)
	assert.Len(t, res.Warnings(), 2)

	stored, err := f.merchants.GetByID(ctx, res.Merchant.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Logo)
	has, err := f.cards.ExistsForMerchant(ctx, res.Merchant.ID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestProvisionDuplicatePhoneIsConflict(t *testing.T) {
	f := newFixture(t)
	f.provision(t, "First", "771234567")

	_, err := f.merchSvc.Provision(context.Background(), ProvisionInput{
		Merchant:  merchantInput("Second", "771234567"),
		CreatedBy: f.operator(t),
	})
	assertKind(t, err, KindConflict)
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "phoneNumber", se.Field)
}

func TestProvisionRequiresCoreFields(t *testing.T) {
	f := newFixture(t)
	in := merchantInput("  ", "771234567")
	_, err := f.merchSvc.Provision(context.Background(), ProvisionInput{Merchant: in, CreatedBy: f.operator(t)})
	assertKind(t, err, KindValidation)
	assert.Zero(t, f.host.Count())
}

func TestBackfillIssuesMissingCards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.host.Err = testutil.ErrUpload
	degraded := f.provision(t, "Degraded", "771000001")
	require.True(t, degraded.Degraded())

	f.host.Err = nil
	report, err := f.cardSvc.Backfill(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, BackfillReport{Scanned: 1, Issued: 1}, report)

	card, err := f.cardSvc.GetByMerchant(ctx, degraded.Merchant.ID)
	require.NoError(t, err)
	assert.True(t, card.IsActive)

	report, err = f.cardSvc.Backfill(ctx, 50)
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
}

// --- card lifecycle ---

func TestCreateCardRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cardSvc.Create(ctx, CreateCardInput{MerchantID: uuid.New()})
	assertKind(t, err, KindNotFound)

	res := f.provision(t, "Has Card", "772000001")
	before := *res.Card

	_, err = f.cardSvc.Create(ctx, CreateCardInput{MerchantID: res.Merchant.ID})
	assertKind(t, err, KindValidation)

	after, err := f.cardSvc.GetByMerchant(ctx, res.Merchant.ID)
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.QRCode, after.QRCode)

	require.NoError(t, f.cardSvc.Delete(ctx, before.ID))
	premium := model.CardTypePremium
	nfc := true
	card, err := f.cardSvc.Create(ctx, CreateCardInput{MerchantID: res.Merchant.ID, CardType: &premium, NFCEnabled: &nfc})
	require.NoError(t, err)
	assert.Equal(t, model.CardTypePremium, card.CardType)
	assert.True(t, card.NFCEnabled)
	require.NotNil(t, card.Merchant)

	bogus := model.CardType("GOLD")
	_, err = f.cardSvc.Create(ctx, CreateCardInput{MerchantID: res.Merchant.ID, CardType: &bogus})
	assertKind(t, err, KindValidation)
}

func TestCreateCardFailuresAreHard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.host.Err = testutil.ErrUpload
	res := f.provision(t, "No Card", "772000002")

	_, err := f.cardSvc.Create(ctx, CreateCardInput{MerchantID: res.Merchant.ID})
	assertKind(t, err, KindInternal)
}

func TestRenewFromCurrentExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.provision(t, "Renew", "773000001")
	id := res.Card.ID

	_, err := f.cards.Update(ctx, id, map[string]interface{}{
		"expires_at": time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		"is_active":  false,
	})
	require.NoError(t, err)

	card, err := f.cardSvc.Renew(ctx, id, 3)
	require.NoError(t, err)
	assert.True(t, card.ExpiresAt.Equal(time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)), card.ExpiresAt.String())
	assert.True(t, card.IsActive)

	_, err = f.cardSvc.Renew(ctx, id, 0)
	assertKind(t, err, KindValidation)
	_, err = f.cardSvc.Renew(ctx, id, -2)
	assertKind(t, err, KindValidation)
	_, err = f.cardSvc.Renew(ctx, uuid.New(), 3)
	assertKind(t, err, KindNotFound)
}

func TestRegenerateReplacesCodeOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.provision(t, "Regen", "774000001")
	old := res.Card

	card, err := f.cardSvc.Regenerate(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, "code-2", card.QRCode)
	assert.Equal(t, "https://cards.test/card/code-2", card.PublicURL)
	assert.Equal(t, "https://media.test/qr-codes/qr_code-2", card.QRCodeImage)
	assert.True(t, card.ExpiresAt.Equal(old.ExpiresAt))
	assert.Equal(t, old.IsActive, card.IsActive)

	_, err = f.cardSvc.Scan(ctx, ScanRequest{Code: old.QRCode})
	assertKind(t, err, KindNotFound)

	_, err = f.cardSvc.Regenerate(ctx, uuid.New())
	assertKind(t, err, KindNotFound)
}

func TestUpdateCardPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.provision(t, "Update", "775000001")

	nfc := true
	card, err := f.cardSvc.Update(ctx, res.Card.ID, CardUpdate{NFCEnabled: &nfc})
	require.NoError(t, err)
	assert.True(t, card.NFCEnabled)
	assert.Equal(t, model.CardTypeBasic, card.CardType)
	assert.True(t, card.IsActive)

	bad := model.CardType("basic")
	_, err = f.cardSvc.Update(ctx, res.Card.ID, CardUpdate{CardType: &bad})
	assertKind(t, err, KindValidation)

	_, err = f.cardSvc.Update(ctx, uuid.New(), CardUpdate{NFCEnabled: &nfc})
	assertKind(t, err, KindNotFound)

	assertKind(t, f.cardSvc.Delete(ctx, uuid.New()), KindNotFound)
}

func countScans(t *testing.T, f *fixture) int64 {
	t.Helper()
	n, err := f.scans.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestScanRecordsExactlyOnceOnSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.provision(t, "Scan Me", "776000001")
	code := res.Card.QRCode
	iphone := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

	card, err := f.cardSvc.Scan(ctx, ScanRequest{Code: code, UserAgent: iphone, IP: "41.82.1.2"})
	require.NoError(t, err)
	require.NotNil(t, card.Merchant)
	assert.Equal(t, "Scan Me", card.Merchant.BusinessName)
	assert.EqualValues(t, 1, countScans(t, f))

	var scan model.Scan
	require.NoError(t, f.db.First(&scan).Error)
	assert.Equal(t, res.Merchant.ID, scan.MerchantID)
	assert.Equal(t, "41.82.1.2", scan.IPAddress)
	assert.True(t, scan.ScannedAt.Equal(now))
	require.NotNil(t, scan.DeviceType)
	assert.Equal(t, "Mobile", *scan.DeviceType)

	_, err = f.cardSvc.Scan(ctx, ScanRequest{Code: "missing"})
	assertKind(t, err, KindNotFound)
	assert.EqualValues(t, 1, countScans(t, f))

	off := false
	_, err = f.cardSvc.Update(ctx, res.Card.ID, CardUpdate{IsActive: &off})
	require.NoError(t, err)
	_, err = f.cardSvc.Scan(ctx, ScanRequest{Code: code})
	assertKind(t, err, KindForbidden)
	assert.Equal(t, "card is deactivated", err.Error())
	assert.EqualValues(t, 1, countScans(t, f))

	on := true
	_, err = f.cardSvc.Update(ctx, res.Card.ID, CardUpdate{IsActive: &on})
	require.NoError(t, err)
	f.clock.Set(res.Card.ExpiresAt)
	_, err = f.cardSvc.Scan(ctx, ScanRequest{Code: code})
	assertKind(t, err, KindForbidden)
	assert.Equal(t, "card has expired", err.Error())
	assert.EqualValues(t, 1, countScans(t, f))
}

func TestScanDeactivatedWinsOverExpired(t *testing.T) {
	f := newFixture(t)
	res := f.provision(t, "Both", "776000002")
	off := false
	_, err := f.cardSvc.Update(context.Background(), res.Card.ID, CardUpdate{IsActive: &off})
	require.NoError(t, err)
	f.clock.Set(now.AddDate(5, 0, 0))

	_, err = f.cardSvc.Scan(context.Background(), ScanRequest{Code: res.Card.QRCode})
	assert.Equal(t, "card is deactivated", err.Error())
}

func TestDeviceType(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{"", ""},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36", "Desktop"},
		{"Mozilla/5.0 (Linux; Android 13; SM-A145F) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Mobile Safari/537.36", "Mobile"},
		{"Mozilla/5.0 (iPad; CPU OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1", "Tablet"},
		{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", "Bot"},
	}
	for _, tt := range tests {
		got := DeviceType(tt.ua)
		if tt.want == "" {
			assert.Nil(t, got)
			continue
		}
		require.NotNil(t, got, tt.ua)
		assert.Equal(t, tt.want, *got, tt.ua)
	}
}

// --- queries ---

func TestMerchantListPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	operator := f.operator(t)
	for i := 0; i < 25; i++ {
		f.clock.Set(now.Add(time.Duration(i) * time.Minute))
		m := &model.Merchant{
			BusinessName: "Shop", OwnerName: "Owner", PhoneNumber: uuid.NewString()[:12],
			IsActive: true, CreatedByUserID: &operator, CreatedAt: now.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, f.merchants.Create(ctx, m))
	}

	page, err := f.merchSvc.List(ctx, repository.MerchantFilter{}, ParsePage("2", "10", DefaultMerchantPageSize))
	require.NoError(t, err)
	assert.Len(t, page.Merchants, 10)
	assert.Equal(t, Pagination{Total: 25, Page: 2, Limit: 10, TotalPages: 3}, page.Pagination)

	page, err = f.merchSvc.List(ctx, repository.MerchantFilter{Search: "nothing"}, ParsePage("", "", DefaultMerchantPageSize))
	require.NoError(t, err)
	assert.NotNil(t, page.Merchants)
	assert.Empty(t, page.Merchants)
	assert.Zero(t, page.Pagination.TotalPages)
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		page, limit string
		want        repository.Page
	}{
		{"", "", repository.Page{Number: 1, Size: 10}},
		{"abc", "-3", repository.Page{Number: 1, Size: 10}},
		{"0", "0", repository.Page{Number: 1, Size: 10}},
		{"3", "25", repository.Page{Number: 3, Size: 25}},
		{"1", "1000", repository.Page{Number: 1, Size: 100}},
		{"9223372036854775807", "10", repository.Page{Number: math.MaxInt32/10 + 1, Size: 10}},
		{"99999999999999999999999", "100", repository.Page{Number: math.MaxInt32/100 + 1, Size: 100}},
	}
	for _, tt := range tests {
		got := ParsePage(tt.page, tt.limit, 10)
		assert.Equal(t, tt.want, got, tt.page+"/"+tt.limit)
		assert.GreaterOrEqual(t, got.Offset(), 0)
		assert.LessOrEqual(t, got.Offset(), math.MaxInt32)
	}
	assert.Equal(t, 3, NewPagination(repository.Page{Number: 1, Size: 10}, 21).TotalPages)
	assert.Equal(t, 2, NewPagination(repository.Page{Number: 1, Size: 10}, 20).TotalPages)
}

func TestMerchantUpdateToggleDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.provision(t, "Editable", "777000001")
	id := res.Merchant.ID

	up, err := f.merchSvc.Update(ctx, id, MerchantInput{City: testutil.StrPtr("Saint-Louis")},
		&LogoUpload{Data: []byte("img"), ContentType: "image/webp"})
	require.NoError(t, err)
	assert.NoError(t, up.LogoErr)
	assert.Equal(t, "Saint-Louis", *up.Merchant.City)
	assert.Equal(t, "https://media.test/merchants/logos/logo_"+id.String(), *up.Merchant.Logo)
	assert.Equal(t, "Editable", up.Merchant.BusinessName)

	f.host.Err = testutil.ErrUpload
	up, err = f.merchSvc.Update(ctx, id, MerchantInput{}, &LogoUpload{Data: []byte("img"), ContentType: "image/png"})
	require.NoError(t, err)
	assert.Error(t, up.LogoErr)
	assert.Equal(t, "https://media.test/merchants/logos/logo_"+id.String(), *up.Merchant.Logo)

	_, err = f.merchSvc.Update(ctx, id, MerchantInput{BusinessName: testutil.StrPtr(" ")}, nil)
	assertKind(t, err, KindValidation)
	_, err = f.merchSvc.Update(ctx, uuid.New(), MerchantInput{}, nil)
	assertKind(t, err, KindNotFound)

	other := f.provision(t, "Other", "777000002")
	_, err = f.merchSvc.Update(ctx, other.Merchant.ID, MerchantInput{PhoneNumber: testutil.StrPtr("777000001")}, nil)
	assertKind(t, err, KindConflict)

	m, err := f.merchSvc.ToggleStatus(ctx, id)
	require.NoError(t, err)
	assert.False(t, m.IsActive)
	m, err = f.merchSvc.ToggleStatus(ctx, id)
	require.NoError(t, err)
	assert.True(t, m.IsActive)

	require.NoError(t, f.merchSvc.Delete(ctx, id))
	_, err = f.merchSvc.Get(ctx, id)
	assertKind(t, err, KindNotFound)
	_, err = f.cards.GetByID(ctx, res.Card.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMerchantDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.provision(t, "Detail", "778000001")
	_, err := f.cardSvc.Scan(ctx, ScanRequest{Code: res.Card.QRCode})
	require.NoError(t, err)

	m, err := f.merchSvc.Get(ctx, res.Merchant.ID)
	require.NoError(t, err)
	require.NotNil(t, m.BusinessCard)
	require.NotNil(t, m.Creator)
	require.NotNil(t, m.ScanCount)
	assert.EqualValues(t, 1, *m.ScanCount)
}

func TestMerchantStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.provision(t, "Stats", "779000001")
	id := res.Merchant.ID

	// 2024-01-15 is a Monday; the week started on Sunday the 14th.
	desktop := "Desktop"
	empty := ""
	for _, s := range []struct {
		at     time.Time
		device *string
	}{
		{time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), &desktop},
		{time.Date(2024, 1, 15, 1, 0, 0, 0, time.UTC), nil},
		{time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC), &empty},
		{time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC), &desktop},
		{time.Date(2023, 12, 30, 12, 0, 0, 0, time.UTC), &desktop},
		{time.Date(2023, 11, 1, 12, 0, 0, 0, time.UTC), &desktop},
	} {
		require.NoError(t, f.scans.Create(ctx, &model.Scan{MerchantID: id, ScannedAt: s.at, DeviceType: s.device}))
	}

	stats, err := f.stats.MerchantStats(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 6, stats.TotalScans)
	assert.EqualValues(t, 2, stats.ScansToday)
	assert.EqualValues(t, 3, stats.ScansThisWeek)
	assert.EqualValues(t, 4, stats.ScansThisMonth)
	assert.Equal(t, []DayCount{
		{Date: "2023-12-30", Count: 1},
		{Date: "2024-01-03", Count: 1},
		{Date: "2024-01-14", Count: 1},
		{Date: "2024-01-15", Count: 2},
	}, stats.ScansByDay)
	assert.Equal(t, []DeviceStat{
		{DeviceType: "Desktop", Count: 4},
		{DeviceType: "Unknown", Count: 2},
	}, stats.ScansByDevice)

	_, err = f.stats.MerchantStats(ctx, uuid.New())
	assertKind(t, err, KindNotFound)
}

func TestDashboardTopAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.provision(t, "Alpha", "770100001")
	b := f.provision(t, "Beta", "770100002")
	for i := 0; i < 3; i++ {
		_, err := f.cardSvc.Scan(ctx, ScanRequest{Code: b.Card.QRCode})
		require.NoError(t, err)
	}
	_, err := f.cardSvc.Scan(ctx, ScanRequest{Code: a.Card.QRCode})
	require.NoError(t, err)

	d, err := f.stats.Dashboard(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, d.TotalMerchants)
	assert.EqualValues(t, 2, d.ActiveMerchants)
	assert.EqualValues(t, 4, d.TotalScans)
	assert.True(t, d.TotalRevenue.IsZero())
	assert.Len(t, d.RecentMerchants, 2)
	require.Len(t, d.RecentScans, 4)
	require.NotNil(t, d.RecentScans[0].Merchant)

	top, err := f.stats.TopMerchants(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Beta", top[0].BusinessName)
	assert.EqualValues(t, 3, top[0].TotalScans)

	history, err := f.stats.ScanHistory(ctx, b.Merchant.ID, ParsePage("1", "2", DefaultScanPageSize))
	require.NoError(t, err)
	assert.Len(t, history.Scans, 2)
	assert.Equal(t, Pagination{Total: 3, Page: 1, Limit: 2, TotalPages: 2}, history.Pagination)

	_, err = f.stats.ScanHistory(ctx, uuid.New(), ParsePage("", "", DefaultScanPageSize))
	assertKind(t, err, KindNotFound)
}
