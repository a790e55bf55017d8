package models

import "time"

type PaymentMethod string

const (
	PaymentScreenshot PaymentMethod = "screenshot"
	PaymentWallet     PaymentMethod = "wallet"
)

// JoinRequest records a contestant's request for a tournament seat. Player
// fields are copied at request time so later profile edits don't rewrite
// history.
type JoinRequest struct {
	ID                string        `json:"id" gorm:"primaryKey"`
	ContestantID      string        `json:"contestantId" gorm:"not null;index"`
	TournamentID      string        `json:"tournamentId" gorm:"not null;index"`
	PlayerName        string        `json:"playerName" gorm:"not null"`
	BgmiID            string        `json:"bgmiId" gorm:"not null"`
	Phone             string        `json:"phone" gorm:"not null"`
	PaymentScreenshot string        `json:"paymentScreenshot,omitempty"`
	PaymentMethod     PaymentMethod `json:"paymentMethod" gorm:"type:varchar(16);not null;default:'screenshot'"`
	AmountPaid        int64         `json:"amountPaid" gorm:"not null;default:0"`
	Status            Status        `json:"status" gorm:"type:varchar(16);not null;default:'pending';index"`
	AdminNote         string        `json:"adminNote"`
	DecidedAt         *time.Time    `json:"decidedAt,omitempty"`
	RefundedAt        *time.Time    `json:"refundedAt,omitempty"`

	Tournament *Tournament `json:"tournament,omitempty" gorm:"foreignKey:TournamentID"`

	Timestamps
}
