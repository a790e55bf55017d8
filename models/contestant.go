package models

// Contestant is a registered player and the owner of a wallet.
// Wallet columns are only written through the ledger helpers in services.
type Contestant struct {
	ID         string `json:"id" gorm:"primaryKey"`
	PlayerName string `json:"playerName" gorm:"not null"`
	Phone      string `json:"phone" gorm:"uniqueIndex;not null"`
	Email      string `json:"email" gorm:"uniqueIndex;not null"`
	Password   string `json:"-" gorm:"not null"`
	BgmiID     string `json:"bgmiId" gorm:"not null"`
	Bio        string `json:"bio"`
	Avatar     string `json:"avatar"`

	WalletBalance  int64 `json:"walletBalance" gorm:"not null;default:0;check:chk_wallet_balance,wallet_balance >= 0"`
	TotalDeposited int64 `json:"totalDeposited" gorm:"not null;default:0"`
	TotalWon       int64 `json:"totalWon" gorm:"not null;default:0"`
	TotalSpent     int64 `json:"totalSpent" gorm:"not null;default:0"`
	TotalWithdrawn int64 `json:"totalWithdrawn" gorm:"not null;default:0"`
	PendingBalance int64 `json:"pendingBalance" gorm:"not null;default:0"`

	Timestamps
}

// Wallet is the read-only view of a contestant's ledger columns.
type Wallet struct {
	ContestantID   string `json:"contestantId"`
	WalletBalance  int64  `json:"walletBalance"`
	TotalDeposited int64  `json:"totalDeposited"`
	TotalWon       int64  `json:"totalWon"`
	TotalSpent     int64  `json:"totalSpent"`
	TotalWithdrawn int64  `json:"totalWithdrawn"`
	PendingBalance int64  `json:"pendingBalance"`
}

func (c *Contestant) Wallet() Wallet {
	return Wallet{
		ContestantID:   c.ID,
		WalletBalance:  c.WalletBalance,
		TotalDeposited: c.TotalDeposited,
		TotalWon:       c.TotalWon,
		TotalSpent:     c.TotalSpent,
		TotalWithdrawn: c.TotalWithdrawn,
		PendingBalance: c.PendingBalance,
	}
}
