package models

import (
	"time"

	"gorm.io/datatypes"
)

type TransactionType string

const (
	TransactionDeposit         TransactionType = "deposit"
	TransactionWithdraw        TransactionType = "withdraw"
	TransactionTournamentEntry TransactionType = "tournament_entry"
	TransactionPrizeWon        TransactionType = "prize_won"
	TransactionRefund          TransactionType = "refund"
)

// Transaction is an append-only ledger entry. Only Status, AdminNote and
// DecidedAt change after creation, and only while Status is pending.
type Transaction struct {
	ID                string            `json:"id" gorm:"primaryKey"`
	ContestantID      string            `json:"contestantId" gorm:"not null;index"`
	Type              TransactionType   `json:"type" gorm:"type:varchar(32);not null;index"`
	Amount            int64             `json:"amount" gorm:"not null;check:chk_transaction_amount,amount > 0"`
	Status            Status            `json:"status" gorm:"type:varchar(16);not null;default:'pending';index"`
	TournamentID      *string           `json:"tournamentId,omitempty" gorm:"index"`
	Description       string            `json:"description"`
	AdminNote         string            `json:"adminNote"`
	PaymentScreenshot string            `json:"paymentScreenshot,omitempty"`
	UPITransactionID  string            `json:"upiTransactionId,omitempty"`
	PayoutDetails     datatypes.JSONMap `json:"payoutDetails,omitempty"`
	DecidedAt         *time.Time        `json:"decidedAt,omitempty"`

	Contestant *Contestant `json:"contestant,omitempty" gorm:"foreignKey:ContestantID"`

	Timestamps
}
