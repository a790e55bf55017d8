package services

import (
	"context"
	"errors"
	"fmt"

	"bgmi-arena/models"
	"bgmi-arena/utils"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const historyLimit = 50

// LedgerService owns every write to contestant wallet columns. Other
// services mutate wallets only through applyDelta inside their own
// database transaction.
type LedgerService struct {
	DB      *gorm.DB
	Metrics *Metrics
}

func NewLedgerService(db *gorm.DB, metrics *Metrics) *LedgerService {
	return &LedgerService{DB: db, Metrics: metrics}
}

// walletDelta is a signed change to the wallet columns of one contestant.
type walletDelta struct {
	Balance   int64
	Deposited int64
	Won       int64
	Spent     int64
	Withdrawn int64
	Pending   int64
}

type walletColumn struct {
	name  string
	value int64
}

func (d walletDelta) columns() []walletColumn {
	return []walletColumn{
		{"wallet_balance", d.Balance},
		{"total_deposited", d.Deposited},
		{"total_won", d.Won},
		{"total_spent", d.Spent},
		{"total_withdrawn", d.Withdrawn},
		{"pending_balance", d.Pending},
	}
}

// applyDelta increments wallet columns in a single UPDATE. Every negative
// component is guarded in the WHERE clause, so a concurrent writer can never
// drive a column below zero; when the guard fails nothing is written.
func applyDelta(tx *gorm.DB, contestantID string, d walletDelta) error {
	updates := map[string]any{}
	q := tx.Model(&models.Contestant{}).Where("id = ?", contestantID)
	for _, col := range d.columns() {
		if col.value == 0 {
			continue
		}
		updates[col.name] = gorm.Expr(col.name+" + ?", col.value)
		if col.value < 0 {
			q = q.Where(col.name+" >= ?", -col.value)
		}
	}
	if len(updates) == 0 {
		return nil
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update wallet: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var n int64
	if err := tx.Model(&models.Contestant{}).Where("id = ?", contestantID).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to check contestant: %w", err)
	}
	if n == 0 {
		return utils.NotFound("contestant")
	}
	if d.Balance < 0 {
		return utils.ErrInsufficientFunds
	}
	return fmt.Errorf("wallet counters for contestant %s would go negative", contestantID)
}

func lockContestant(tx *gorm.DB, id string) (*models.Contestant, error) {
	var c models.Contestant
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("contestant")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock contestant: %w", err)
	}
	return &c, nil
}

func createTransaction(tx *gorm.DB, t *models.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = models.StatusPending
	}
	if err := tx.Create(t).Error; err != nil {
		return fmt.Errorf("failed to record %s transaction: %w", t.Type, err)
	}
	return nil
}

// recorded is called after a ledger-moving database transaction commits.
func (s *LedgerService) recorded(t *models.Transaction) {
	s.recordedAs(string(t.Type), t)
}

// recordedAs counts t under kind. Withdrawal holds and releases use their
// own kinds so "withdraw" only counts money that actually left.
func (s *LedgerService) recordedAs(kind string, t *models.Transaction) {
	s.Metrics.recordMovement(kind, t.Amount)
	log.Info("ledger movement", "kind", kind, "status", t.Status, "contestant", t.ContestantID, "amount", t.Amount, "id", t.ID)
}

// Wallet returns the contestant's current wallet columns.
func (s *LedgerService) Wallet(ctx context.Context, contestantID string) (*models.Wallet, error) {
	var c models.Contestant
	err := s.DB.WithContext(ctx).Where("id = ?", contestantID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("contestant")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	w := c.Wallet()
	return &w, nil
}

// History returns the newest transactions of a contestant first.
func (s *LedgerService) History(ctx context.Context, contestantID string, limit int) ([]models.Transaction, error) {
	if contestantID == "" {
		return nil, utils.Validation("contestantId is required")
	}
	if limit <= 0 || limit > historyLimit {
		limit = historyLimit
	}
	var txs []models.Transaction
	if err := s.DB.WithContext(ctx).
		Where("contestant_id = ?", contestantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return txs, nil
}

// Reconciliation compares the stored wallet with the balance implied by the
// transaction log.
type Reconciliation struct {
	ContestantID     string `json:"contestantId"`
	StoredBalance    int64  `json:"storedBalance"`
	ProjectedBalance int64  `json:"projectedBalance"`
	StoredPending    int64  `json:"storedPending"`
	ProjectedPending int64  `json:"projectedPending"`
	Drift            int64  `json:"drift"`
	Balanced         bool   `json:"balanced"`
}

// Reconcile replays the contestant's transactions. Withdrawals count
// against the balance from the moment they are requested; rejected ones
// were refunded and drop out.
func (s *LedgerService) Reconcile(ctx context.Context, contestantID string) (*Reconciliation, error) {
	db := s.DB.WithContext(ctx)

	var c models.Contestant
	err := db.Where("id = ?", contestantID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("contestant")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contestant: %w", err)
	}

	var rows []struct {
		Type   models.TransactionType
		Status models.Status
		Total  int64
	}
	if err := db.Model(&models.Transaction{}).
		Select("type, status, COALESCE(SUM(amount), 0) AS total").
		Where("contestant_id = ?", contestantID).
		Group("type, status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to sum transactions: %w", err)
	}

	r := &Reconciliation{
		ContestantID:  c.ID,
		StoredBalance: c.WalletBalance,
		StoredPending: c.PendingBalance,
	}
	for _, row := range rows {
		switch {
		case row.Type == models.TransactionWithdraw && row.Status == models.StatusPending:
			r.ProjectedBalance -= row.Total
			r.ProjectedPending += row.Total
		case row.Type == models.TransactionWithdraw && row.Status == models.StatusApproved:
			r.ProjectedBalance -= row.Total
		case row.Status != models.StatusApproved:
		case row.Type == models.TransactionTournamentEntry:
			r.ProjectedBalance -= row.Total
		case row.Type == models.TransactionDeposit,
			row.Type == models.TransactionPrizeWon,
			row.Type == models.TransactionRefund:
			r.ProjectedBalance += row.Total
		}
	}
	r.Drift = r.StoredBalance - r.ProjectedBalance
	r.Balanced = r.Drift == 0 && r.StoredPending == r.ProjectedPending
	return r, nil
}

// --- HTTP handlers ---

func (s *LedgerService) GetWallet(c *fiber.Ctx) error {
	w, err := s.Wallet(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "wallet fetched", w)
}

// GetMyTransactions lists the caller's transactions (?contestantId=).
func (s *LedgerService) GetMyTransactions(c *fiber.Ctx) error {
	txs, err := s.History(c.UserContext(), c.Query("contestantId"), c.QueryInt("limit", historyLimit))
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "transactions fetched", txs)
}

func (s *LedgerService) GetContestantTransactions(c *fiber.Ctx) error {
	txs, err := s.History(c.UserContext(), c.Params("contestantId"), c.QueryInt("limit", historyLimit))
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "transactions fetched", txs)
}

func (s *LedgerService) ReconcileWallet(c *fiber.Ctx) error {
	r, err := s.Reconcile(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.JSONError(c, err)
	}
	if !r.Balanced {
		log.Warn("wallet drift detected", "contestant", r.ContestantID, "drift", r.Drift,
			"storedPending", r.StoredPending, "projectedPending", r.ProjectedPending)
	}
	return utils.JSONSuccess(c, "wallet reconciled", r)
}
