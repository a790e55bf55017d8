package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bgmi-arena/config"
	"bgmi-arena/database"
	"bgmi-arena/handlers"
	"bgmi-arena/models"
	"bgmi-arena/services"
	"bgmi-arena/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard, TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	require.NoError(t, err)
	adminCfg := config.AdminConfig{JWTSecret: "test", TokenTTL: time.Hour, Issuer: "bgmi-arena"}
	walletCfg := config.WalletConfig{MinDeposit: 10, MinWithdrawal: 50, UPIID: "arena@upi", UPIName: "Arena"}

	storage, err := utils.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	metrics := services.NewMetrics(prometheus.NewRegistry())
	ledger := services.NewLedgerService(db, metrics)

	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	handlers.SetupRoutes(app, handlers.Services{
		Auth:         services.NewAuthService(services.NewStaticCredentialStore("admin@bgmi.com", string(hash)), adminCfg),
		Contestants:  services.NewContestantService(db),
		Ledger:       ledger,
		Transactions: services.NewTransactionService(db, ledger, walletCfg),
		Approvals:    services.NewApprovalService(db, ledger, metrics),
		Joins:        services.NewJoinService(db, ledger),
		Tournaments:  services.NewTournamentService(db, ledger, storage, time.UTC, metrics),
		Uploads:      services.NewUploadService(storage),
	})
	return &testServer{app: app, db: db}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/admin/login", "", map[string]string{"email": "admin@bgmi.com", "password": "admin123"})
	require.Equal(t, http.StatusOK, status, env.Message)
	return decode[struct {
		Token string `json:"token"`
	}](t, env.Data).Token
}

func (s *testServer) register(t *testing.T, phone string) models.Contestant {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/contestants/register", "", map[string]string{
		"playerName": "Player " + phone,
		"phone":      phone,
		"email":      phone + "@example.com",
		"password":   "secret123",
		"bgmiId":     "bgmi" + phone,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	return decode[models.Contestant](t, env.Data)
}

func (s *testServer) balance(t *testing.T, id string) int64 {
	t.Helper()
	status, env := s.do(t, http.MethodGet, "/contestants/wallet/"+id, "", nil)
	require.Equal(t, http.StatusOK, status)
	return decode[models.Wallet](t, env.Data).WalletBalance
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, r := range []struct{ method, path string }{
		{http.MethodPut, "/deposits/x"},
		{http.MethodPut, "/withdrawals/x"},
		{http.MethodPut, "/join-requests/x"},
		{http.MethodPost, "/tournaments"},
		{http.MethodGet, "/admin/deposits"},
		{http.MethodPut, "/admin/contestants/x/password"},
	} {
		status, env := s.do(t, r.method, r.path, "", map[string]string{"status": "approved"})
		assert.Equal(t, http.StatusUnauthorized, status, r.path)
		assert.False(t, env.Success)

		status, _ = s.do(t, r.method, r.path, "bogus", map[string]string{"status": "approved"})
		assert.Equal(t, http.StatusUnauthorized, status, r.path)
	}

	status, env := s.do(t, http.MethodPost, "/admin/login", "", map[string]string{"email": "admin@bgmi.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid admin credentials", env.Message)
}

func TestDepositAndWithdrawalFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	c := s.register(t, "9000000001")

	status, env := s.do(t, http.MethodPost, "/deposits", "", map[string]any{
		"contestantId": c.ID, "amount": 5, "paymentScreenshot": "x.png",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "minimum deposit amount is ₹10", env.Message)

	status, env = s.do(t, http.MethodPost, "/deposits", "", map[string]any{
		"contestantId": c.ID, "amount": "100", "paymentScreenshot": "x.png",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	dep := decode[models.Transaction](t, env.Data)
	assert.Zero(t, s.balance(t, c.ID))

	status, env = s.do(t, http.MethodPut, "/deposits/"+dep.ID, admin, map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = s.do(t, http.MethodPut, "/deposits/"+dep.ID, admin, map[string]string{"status": "approved", "adminNote": "ok"})
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, int64(100), s.balance(t, c.ID))

	status, env = s.do(t, http.MethodPut, "/deposits/"+dep.ID, admin, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, env.Success)
	assert.Equal(t, int64(100), s.balance(t, c.ID))

	status, env = s.do(t, http.MethodPost, "/withdrawals", "", map[string]any{
		"contestantId": c.ID, "amount": 60, "upiId": "me@upi",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	wd := decode[models.Transaction](t, env.Data)
	assert.Equal(t, int64(40), s.balance(t, c.ID))

	status, _ = s.do(t, http.MethodPut, "/withdrawals/"+wd.ID, admin, map[string]string{"status": "rejected"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(100), s.balance(t, c.ID))

	status, env = s.do(t, http.MethodGet, "/transactions/my-transactions?contestantId="+c.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Transaction](t, env.Data), 2)

	status, env = s.do(t, http.MethodGet, "/admin/contestants/"+c.ID+"/reconcile", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[services.Reconciliation](t, env.Data).Balanced)

	status, env = s.do(t, http.MethodGet, "/admin/withdrawals", admin, nil)
	require.Equal(t, http.StatusOK, status)
	listed := decode[[]models.Transaction](t, env.Data)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].Contestant)
	assert.Equal(t, c.PlayerName, listed[0].Contestant.PlayerName)
}

func TestTournamentJoinFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)

	date := time.Now().UTC().Add(72 * time.Hour).Format("2006-01-02")
	status, env := s.do(t, http.MethodPost, "/tournaments", admin, map[string]any{
		"name": "Miramar Masters", "date": date, "time": "19:00", "type": "Duo",
		"entryFee": 50, "prizePool": 2000, "maxParticipants": 2,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	tr := decode[models.Tournament](t, env.Data)

	players := []models.Contestant{s.register(t, "9100000001"), s.register(t, "9100000002"), s.register(t, "9100000003")}
	for _, p := range players {
		require.NoError(t, s.db.Model(&models.Contestant{}).Where("id = ?", p.ID).Update("wallet_balance", 100).Error)
	}

	for _, p := range players[:2] {
		status, env = s.do(t, http.MethodPost, "/contestants/tournament/join-with-wallet", "", map[string]string{
			"contestantId": p.ID, "tournamentId": tr.ID,
		})
		require.Equal(t, http.StatusCreated, status, env.Message)
		assert.Equal(t, int64(50), s.balance(t, p.ID))
	}

	status, env = s.do(t, http.MethodPost, "/contestants/tournament/join-with-wallet", "", map[string]string{
		"contestantId": players[0].ID, "tournamentId": tr.ID,
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = s.do(t, http.MethodPost, "/contestants/tournament/join-with-wallet", "", map[string]string{
		"contestantId": players[2].ID, "tournamentId": tr.ID,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "tournament is full", env.Message)
	assert.Equal(t, int64(100), s.balance(t, players[2].ID))

	status, env = s.do(t, http.MethodGet, "/tournaments?status=Upcoming", "", nil)
	require.Equal(t, http.StatusOK, status)
	listed := decode[[]models.Tournament](t, env.Data)
	require.Len(t, listed, 1)
	assert.Equal(t, int64(2), listed[0].ParticipantCount)

	status, env = s.do(t, http.MethodGet, "/tournaments?status=Live,Completed&autoUpdate=false", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]models.Tournament](t, env.Data))

	status, env = s.do(t, http.MethodGet, "/admin/join-requests?status=pending", admin, nil)
	require.Equal(t, http.StatusOK, status)
	requests := decode[[]models.JoinRequest](t, env.Data)
	require.Len(t, requests, 2)

	status, env = s.do(t, http.MethodPut, "/join-requests/"+requests[0].ID, admin, map[string]string{"status": "rejected"})
	require.Equal(t, http.StatusOK, status, env.Message)
	status, env = s.do(t, http.MethodPost, "/join-requests/"+requests[0].ID+"/refund", admin, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, int64(100), s.balance(t, requests[0].ContestantID))

	status, _ = s.do(t, http.MethodPost, "/join-requests/"+requests[0].ID+"/refund", admin, nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestUploadScreenshot(t *testing.T) {
	s := newTestServer(t)

	send := func(name string) (int, envelope) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile("image", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/uploads/screenshot", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		resp, err := s.app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		var env envelope
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
		return resp.StatusCode, env
	}

	status, env := send("payment.PNG")
	require.Equal(t, http.StatusCreated, status, env.Message)
	url := decode[struct {
		URL string `json:"url"`
	}](t, env.Data).URL
	assert.Regexp(t, `^/uploads/screenshots/[0-9a-f-]+\.png$`, url)

	status, env = send("payload.exe")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	s := newTestServer(t)
	status, env := s.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
}

func TestAdminResetsContestantPassword(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	c := s.register(t, "9200000001")

	status, _ := s.do(t, http.MethodPut, "/admin/contestants/"+c.ID+"/password", admin, map[string]string{"newPassword": "abc"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPut, "/admin/contestants/missing/password", admin, map[string]string{"newPassword": "fresh-pass"})
	assert.Equal(t, http.StatusNotFound, status)

	status, env := s.do(t, http.MethodPut, "/admin/contestants/"+c.ID+"/password", admin, map[string]string{"newPassword": "fresh-pass"})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, _ = s.do(t, http.MethodPost, "/contestants/login", "", map[string]string{"phone": "9200000001", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, env = s.do(t, http.MethodPost, "/contestants/login", "", map[string]string{"phone": "9200000001", "password": "fresh-pass"})
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, c.ID, decode[models.Contestant](t, env.Data).ID)
}
