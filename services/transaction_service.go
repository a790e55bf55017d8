package services

import (
	"context"
	"strings"

	"bgmi-arena/config"
	"bgmi-arena/models"
	"bgmi-arena/utils"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TransactionService accepts deposit and withdrawal requests from players.
type TransactionService struct {
	DB     *gorm.DB
	Ledger *LedgerService
	Wallet config.WalletConfig
}

func NewTransactionService(db *gorm.DB, ledger *LedgerService, wallet config.WalletConfig) *TransactionService {
	return &TransactionService{DB: db, Ledger: ledger, Wallet: wallet}
}

type DepositInput struct {
	ContestantID      string          `json:"contestantId"`
	Amount            decimal.Decimal `json:"amount"`
	PaymentScreenshot string          `json:"paymentScreenshot"`
	UPITransactionID  string          `json:"upiTransactionId"`
}

type WithdrawalInput struct {
	ContestantID      string          `json:"contestantId"`
	Amount            decimal.Decimal `json:"amount"`
	UPIID             string          `json:"upiId"`
	BankAccountNumber string          `json:"bankAccountNumber"`
	IFSCCode          string          `json:"ifscCode"`
}

func (in WithdrawalInput) payoutDetails() (datatypes.JSONMap, error) {
	upi := strings.TrimSpace(in.UPIID)
	account := strings.TrimSpace(in.BankAccountNumber)
	ifsc := strings.ToUpper(strings.TrimSpace(in.IFSCCode))

	details := datatypes.JSONMap{}
	if upi != "" {
		details["upiId"] = upi
	}
	if account != "" || ifsc != "" {
		if account == "" || ifsc == "" {
			return nil, utils.Validation("bank account number and IFSC code are both required")
		}
		details["bankAccountNumber"] = account
		details["ifscCode"] = ifsc
	}
	if len(details) == 0 {
		return nil, utils.Validation("a UPI ID or bank account is required for withdrawal")
	}
	return details, nil
}

// RequestDeposit records a pending deposit. The wallet is credited only when
// an admin approves it.
func (s *TransactionService) RequestDeposit(ctx context.Context, in DepositInput) (*models.Transaction, error) {
	amount, err := utils.WholeAmount("amount", in.Amount)
	if err != nil {
		return nil, err
	}
	if amount < s.Wallet.MinDeposit {
		return nil, utils.Validation("minimum deposit amount is %s", utils.FormatRupees(s.Wallet.MinDeposit))
	}
	if strings.TrimSpace(in.PaymentScreenshot) == "" {
		return nil, utils.Validation("payment screenshot is required")
	}

	t := &models.Transaction{
		ContestantID:      in.ContestantID,
		Type:              models.TransactionDeposit,
		Amount:            amount,
		Status:            models.StatusPending,
		PaymentScreenshot: in.PaymentScreenshot,
		UPITransactionID:  strings.TrimSpace(in.UPITransactionID),
		Description:       "Deposit request for " + utils.FormatRupees(amount),
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockContestant(tx, in.ContestantID); err != nil {
			return err
		}
		return createTransaction(tx, t)
	})
	if err != nil {
		return nil, err
	}
	log.Info("deposit requested", "id", t.ID, "contestant", t.ContestantID, "amount", t.Amount)
	return t, nil
}

// RequestWithdrawal debits the wallet immediately and parks the amount in
// pendingBalance until an admin decides.
func (s *TransactionService) RequestWithdrawal(ctx context.Context, in WithdrawalInput) (*models.Transaction, error) {
	amount, err := utils.WholeAmount("amount", in.Amount)
	if err != nil {
		return nil, err
	}
	if amount < s.Wallet.MinWithdrawal {
		return nil, utils.Validation("minimum withdrawal amount is %s", utils.FormatRupees(s.Wallet.MinWithdrawal))
	}
	details, err := in.payoutDetails()
	if err != nil {
		return nil, err
	}

	t := &models.Transaction{
		ContestantID:  in.ContestantID,
		Type:          models.TransactionWithdraw,
		Amount:        amount,
		Status:        models.StatusPending,
		PayoutDetails: details,
		Description:   "Withdrawal request for " + utils.FormatRupees(amount),
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := lockContestant(tx, in.ContestantID)
		if err != nil {
			return err
		}
		if c.WalletBalance < amount {
			return utils.ErrInsufficientFunds
		}
		if err := applyDelta(tx, c.ID, walletDelta{Balance: -amount, Pending: amount}); err != nil {
			return err
		}
		return createTransaction(tx, t)
	})
	if err != nil {
		return nil, err
	}
	s.Ledger.recordedAs(movementWithdrawHold, t)
	return t, nil
}

// UPIDetails is what players pay deposits to.
type UPIDetails struct {
	UPIID         string `json:"upiId"`
	Name          string `json:"name"`
	MinDeposit    int64  `json:"minDeposit"`
	MinWithdrawal int64  `json:"minWithdrawal"`
}

// --- HTTP handlers ---

func (s *TransactionService) CreateDeposit(c *fiber.Ctx) error {
	var in DepositInput
	if err := c.BodyParser(&in); err != nil {
		return utils.JSONError(c, utils.Validation("invalid request body"))
	}
	t, err := s.RequestDeposit(c.UserContext(), in)
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONCreated(c, "Deposit request submitted. Awaiting admin approval.", t)
}

func (s *TransactionService) CreateWithdrawal(c *fiber.Ctx) error {
	var in WithdrawalInput
	if err := c.BodyParser(&in); err != nil {
		return utils.JSONError(c, utils.Validation("invalid request body"))
	}
	t, err := s.RequestWithdrawal(c.UserContext(), in)
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONCreated(c, "Withdrawal request submitted. Awaiting admin approval.", t)
}

func (s *TransactionService) GetUPIDetails(c *fiber.Ctx) error {
	return utils.JSONSuccess(c, "UPI details fetched", UPIDetails{
		UPIID:         s.Wallet.UPIID,
		Name:          s.Wallet.UPIName,
		MinDeposit:    s.Wallet.MinDeposit,
		MinWithdrawal: s.Wallet.MinWithdrawal,
	})
}

// ListByType serves the admin deposit and withdrawal queues, newest first.
func (s *TransactionService) ListByType(kind models.TransactionType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := s.DB.WithContext(c.UserContext()).
			Preload("Contestant").
			Where("type = ?", kind).
			Order("created_at DESC")
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}
		var txs []models.Transaction
		if err := q.Find(&txs).Error; err != nil {
			return utils.JSONError(c, err)
		}
		return utils.JSONSuccess(c, string(kind)+" transactions fetched", txs)
	}
}
