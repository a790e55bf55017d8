package models

import "time"

type TournamentStatus string

const (
	TournamentUpcoming  TournamentStatus = "Upcoming"
	TournamentLive      TournamentStatus = "Live"
	TournamentCompleted TournamentStatus = "Completed"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case TournamentUpcoming, TournamentLive, TournamentCompleted:
		return true
	}
	return false
}

type MatchType string

const (
	MatchSolo  MatchType = "Solo"
	MatchDuo   MatchType = "Duo"
	MatchSquad MatchType = "Squad"
)

func (m MatchType) Valid() bool {
	switch m {
	case MatchSolo, MatchDuo, MatchSquad:
		return true
	}
	return false
}

// Tournament is a scheduled match. Date is YYYY-MM-DD and Time is HH:mm,
// both in the configured tournament time zone. Status is derived from them
// by the status scheduler.
type Tournament struct {
	ID              string           `json:"id" gorm:"primaryKey"`
	Name            string           `json:"name" gorm:"not null"`
	Slug            string           `json:"slug" gorm:"uniqueIndex;not null"`
	Description     string           `json:"description"`
	Date            string           `json:"date" gorm:"type:varchar(10);not null"`
	Time            string           `json:"time" gorm:"type:varchar(5)"`
	Type            MatchType        `json:"type" gorm:"type:varchar(8);not null"`
	EntryFee        int64            `json:"entryFee" gorm:"not null;default:0"`
	PrizePool       int64            `json:"prizePool" gorm:"not null;default:0"`
	MaxParticipants int              `json:"maxParticipants" gorm:"not null"`
	Status          TournamentStatus `json:"status" gorm:"type:varchar(16);not null;default:'Upcoming';index"`
	Winner          string           `json:"winner"`
	RunnerUp        string           `json:"runnerUp"`
	ThirdPlace      string           `json:"thirdPlace"`
	BackgroundImage string           `json:"backgroundImage"`

	Participants []TournamentParticipant `json:"participants,omitempty" gorm:"foreignKey:TournamentID;constraint:OnDelete:CASCADE"`

	// Calculated fields (not stored in DB)
	ParticipantCount int64 `json:"participantCount" gorm:"-"`
	AvailableSlots   int64 `json:"availableSlots" gorm:"-"`

	Timestamps
}

// TournamentParticipant is one seat in a tournament. The composite unique
// index keeps a contestant to a single seat per tournament.
type TournamentParticipant struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	TournamentID  string    `json:"tournamentId" gorm:"not null;uniqueIndex:idx_tournament_contestant"`
	ContestantID  string    `json:"contestantId" gorm:"not null;uniqueIndex:idx_tournament_contestant"`
	JoinRequestID string    `json:"joinRequestId" gorm:"index"`
	JoinedAt      time.Time `json:"joinedAt" gorm:"autoCreateTime"`
}

// Result is a published tournament outcome.
type Result struct {
	ID                string    `json:"id" gorm:"primaryKey"`
	TournamentID      *string   `json:"tournamentId,omitempty" gorm:"index"`
	Tournament        string    `json:"tournament" gorm:"not null"`
	Date              string    `json:"date" gorm:"not null"`
	Winner            string    `json:"winner" gorm:"not null"`
	RunnerUp          string    `json:"runnerUp"`
	ThirdPlace        string    `json:"thirdPlace"`
	TotalParticipants int       `json:"totalParticipants"`
	PrizeDistributed  int64     `json:"prizeDistributed"`
	WinnerPrize       int64     `json:"winnerPrize"`
	RunnerUpPrize     int64     `json:"runnerUpPrize"`
	ThirdPrize        int64     `json:"thirdPrize"`
	MatchType         MatchType `json:"matchType" gorm:"type:varchar(8);not null;default:'Squad'"`
	CreatedAt         time.Time `json:"createdAt" gorm:"autoCreateTime"`
}
