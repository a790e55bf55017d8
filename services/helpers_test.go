package services_test

import (
	"fmt"
	"testing"
	"time"

	"bgmi-arena/config"
	"bgmi-arena/database"
	"bgmi-arena/models"
	"bgmi-arena/services"
	"bgmi-arena/utils"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testWallet = config.WalletConfig{
	MinDeposit:    10,
	MinWithdrawal: 50,
	UPIID:         "arena@upi",
	UPIName:       "Arena Admin",
}

type testEnv struct {
	db           *gorm.DB
	metrics      *services.Metrics
	ledger       *services.LedgerService
	transactions *services.TransactionService
	approvals    *services.ApprovalService
	joins        *services.JoinService
	tournaments  *services.TournamentService
	contestants  *services.ContestantService
}

// setupTestDB opens a private in-memory SQLite database with the production
// schema. One connection keeps every query on the same database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	reg := prometheus.NewRegistry()
	metrics := services.NewMetrics(reg)
	ledger := services.NewLedgerService(db, metrics)

	storage, err := utils.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	return &testEnv{
		db:           db,
		metrics:      metrics,
		ledger:       ledger,
		transactions: services.NewTransactionService(db, ledger, testWallet),
		approvals:    services.NewApprovalService(db, ledger, metrics),
		joins:        services.NewJoinService(db, ledger),
		tournaments:  services.NewTournamentService(db, ledger, storage, time.UTC, metrics),
		contestants:  services.NewContestantService(db),
	}
}

func (e *testEnv) contestant(t *testing.T, balance int64) *models.Contestant {
	t.Helper()
	id := uuid.NewString()
	c := &models.Contestant{
		ID:            id,
		PlayerName:    "player-" + id[:6],
		Phone:         "9" + id[:9],
		Email:         id[:8] + "@example.com",
		Password:      "x",
		BgmiID:        "bgmi-" + id[:6],
		WalletBalance: balance,
	}
	require.NoError(t, e.db.Create(c).Error)
	return c
}

func (e *testEnv) tournament(t *testing.T, maxParticipants int, fee int64) *models.Tournament {
	t.Helper()
	id := uuid.NewString()
	tr := &models.Tournament{
		ID:              id,
		Name:            "Erangel Cup",
		Slug:            "erangel-cup-" + id[:8],
		Date:            time.Now().Add(48 * time.Hour).Format("2006-01-02"),
		Time:            "18:00",
		Type:            models.MatchSquad,
		EntryFee:        fee,
		PrizePool:       1000,
		MaxParticipants: maxParticipants,
		Status:          models.TournamentUpcoming,
	}
	require.NoError(t, e.db.Create(tr).Error)
	return tr
}

// reload returns the stored state of a contestant.
func (e *testEnv) reload(t *testing.T, id string) models.Contestant {
	t.Helper()
	var c models.Contestant
	require.NoError(t, e.db.First(&c, "id = ?", id).Error)
	return c
}

func (e *testEnv) seats(t *testing.T, tournamentID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.TournamentParticipant{}).Where("tournament_id = ?", tournamentID).Count(&n).Error)
	return n
}

func (e *testEnv) countTransactions(t *testing.T, contestantID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.Transaction{}).Where("contestant_id = ?", contestantID).Count(&n).Error)
	return n
}

func amount(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
