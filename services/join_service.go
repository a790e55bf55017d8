package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bgmi-arena/models"
	"bgmi-arena/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JoinService seats contestants in tournaments, paid either from the wallet
// or by an uploaded payment screenshot.
type JoinService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewJoinService(db *gorm.DB, ledger *LedgerService) *JoinService {
	return &JoinService{DB: db, Ledger: ledger}
}

type JoinInput struct {
	ContestantID      string `json:"contestantId"`
	TournamentID      string `json:"tournamentId"`
	PlayerName        string `json:"playerName"`
	BgmiID            string `json:"bgmiId"`
	Phone             string `json:"phone"`
	PaymentScreenshot string `json:"paymentScreenshot"`
}

// JoinResult is returned by a wallet join.
type JoinResult struct {
	JoinRequest   *models.JoinRequest `json:"joinRequest"`
	Transaction   *models.Transaction `json:"transaction,omitempty"`
	WalletBalance int64               `json:"walletBalance"`
}

func lockTournament(tx *gorm.DB, id string) (*models.Tournament, error) {
	var t models.Tournament
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("tournament")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock tournament: %w", err)
	}
	return &t, nil
}

// checkSeat verifies capacity first, then that the contestant isn't seated.
func checkSeat(tx *gorm.DB, t *models.Tournament, contestantID string) error {
	var seated int64
	if err := tx.Model(&models.TournamentParticipant{}).Where("tournament_id = ?", t.ID).Count(&seated).Error; err != nil {
		return fmt.Errorf("failed to count participants: %w", err)
	}
	if seated >= int64(t.MaxParticipants) {
		return utils.ErrTournamentFull
	}

	var mine int64
	if err := tx.Model(&models.TournamentParticipant{}).
		Where("tournament_id = ? AND contestant_id = ?", t.ID, contestantID).
		Count(&mine).Error; err != nil {
		return fmt.Errorf("failed to check participant: %w", err)
	}
	if mine > 0 {
		return utils.ErrAlreadyJoined
	}
	return nil
}

func insertSeat(tx *gorm.DB, tournamentID, contestantID, joinRequestID string) error {
	p := models.TournamentParticipant{
		ID:            uuid.New().String(),
		TournamentID:  tournamentID,
		ContestantID:  contestantID,
		JoinRequestID: joinRequestID,
	}
	if err := tx.Create(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ErrAlreadyJoined
		}
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

func seatContestant(tx *gorm.DB, t *models.Tournament, contestantID, joinRequestID string) error {
	if err := checkSeat(tx, t, contestantID); err != nil {
		return err
	}
	return insertSeat(tx, t.ID, contestantID, joinRequestID)
}

// releaseSeat removes the seat held by one join request, if any.
func releaseSeat(tx *gorm.DB, tournamentID, contestantID, joinRequestID string) error {
	err := tx.Where("tournament_id = ? AND contestant_id = ? AND join_request_id = ?", tournamentID, contestantID, joinRequestID).
		Delete(&models.TournamentParticipant{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}
	return nil
}

func newJoinRequest(in JoinInput, c *models.Contestant, t *models.Tournament, method models.PaymentMethod) *models.JoinRequest {
	pick := func(v, fallback string) string {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
		return fallback
	}
	return &models.JoinRequest{
		ID:                uuid.New().String(),
		ContestantID:      c.ID,
		TournamentID:      t.ID,
		PlayerName:        pick(in.PlayerName, c.PlayerName),
		BgmiID:            pick(in.BgmiID, c.BgmiID),
		Phone:             pick(in.Phone, c.Phone),
		PaymentScreenshot: in.PaymentScreenshot,
		PaymentMethod:     method,
		AmountPaid:        t.EntryFee,
		Status:            models.StatusPending,
	}
}

// JoinWithWallet pays the entry fee from the wallet and seats the contestant
// in one database transaction. The join request stays pending for admin
// review; the fee has already moved, so its ledger entry is approved.
func (s *JoinService) JoinWithWallet(ctx context.Context, in JoinInput) (*JoinResult, error) {
	var result JoinResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := lockTournament(tx, in.TournamentID)
		if err != nil {
			return err
		}
		c, err := lockContestant(tx, in.ContestantID)
		if err != nil {
			return err
		}
		if t.Status != models.TournamentUpcoming {
			return utils.Validation("registration is closed for this tournament")
		}
		if err := checkSeat(tx, t, c.ID); err != nil {
			return err
		}
		if c.WalletBalance < t.EntryFee {
			return utils.ErrInsufficientFunds
		}

		jr := newJoinRequest(in, c, t, models.PaymentWallet)
		jr.PaymentScreenshot = ""
		if err := tx.Create(jr).Error; err != nil {
			return fmt.Errorf("failed to create join request: %w", err)
		}
		if err := insertSeat(tx, t.ID, c.ID, jr.ID); err != nil {
			return err
		}
		result.JoinRequest = jr
		result.WalletBalance = c.WalletBalance

		if t.EntryFee == 0 {
			return nil
		}
		if err := applyDelta(tx, c.ID, walletDelta{Balance: -t.EntryFee, Spent: t.EntryFee}); err != nil {
			return err
		}
		tournamentID := t.ID
		entry := &models.Transaction{
			ContestantID: c.ID,
			Type:         models.TransactionTournamentEntry,
			Amount:       t.EntryFee,
			Status:       models.StatusApproved,
			TournamentID: &tournamentID,
			Description:  fmt.Sprintf("Entry fee for %s (%s)", t.Name, utils.FormatRupees(t.EntryFee)),
		}
		if err := createTransaction(tx, entry); err != nil {
			return err
		}
		result.Transaction = entry
		result.WalletBalance = c.WalletBalance - t.EntryFee
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Transaction != nil {
		s.Ledger.recorded(result.Transaction)
	}
	return &result, nil
}

// JoinWithScreenshot files a pending join request paid outside the wallet.
// The contestant is seated when an admin approves it.
func (s *JoinService) JoinWithScreenshot(ctx context.Context, in JoinInput) (*models.JoinRequest, error) {
	if strings.TrimSpace(in.PaymentScreenshot) == "" {
		return nil, utils.Validation("payment screenshot is required")
	}

	var jr *models.JoinRequest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := lockTournament(tx, in.TournamentID)
		if err != nil {
			return err
		}
		var c models.Contestant
		if err := tx.Where("id = ?", in.ContestantID).First(&c).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFound("contestant")
			}
			return fmt.Errorf("failed to load contestant: %w", err)
		}
		if t.Status != models.TournamentUpcoming {
			return utils.Validation("registration is closed for this tournament")
		}
		if err := checkSeat(tx, t, c.ID); err != nil {
			return err
		}

		var open int64
		if err := tx.Model(&models.JoinRequest{}).
			Where("tournament_id = ? AND contestant_id = ? AND status = ?", t.ID, c.ID, models.StatusPending).
			Count(&open).Error; err != nil {
			return fmt.Errorf("failed to check join requests: %w", err)
		}
		if open > 0 {
			return utils.Conflict("a join request for this tournament is already pending")
		}

		jr = newJoinRequest(in, &c, t, models.PaymentScreenshot)
		if err := tx.Create(jr).Error; err != nil {
			return fmt.Errorf("failed to create join request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jr, nil
}

// ListJoinRequests returns join requests newest first, optionally filtered.
func (s *JoinService) ListJoinRequests(ctx context.Context, contestantID string, status models.Status) ([]models.JoinRequest, error) {
	q := s.DB.WithContext(ctx).Preload("Tournament").Order("created_at DESC")
	if contestantID != "" {
		q = q.Where("contestant_id = ?", contestantID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.JoinRequest
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	return out, nil
}

// --- HTTP handlers ---

func (s *JoinService) JoinTournamentWithWallet(c *fiber.Ctx) error {
	var in JoinInput
	if err := c.BodyParser(&in); err != nil {
		return utils.JSONError(c, utils.Validation("invalid request body"))
	}
	res, err := s.JoinWithWallet(c.UserContext(), in)
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONCreated(c, "Joined tournament. Entry fee paid from wallet.", res)
}

func (s *JoinService) JoinTournament(c *fiber.Ctx) error {
	var in JoinInput
	if err := c.BodyParser(&in); err != nil {
		return utils.JSONError(c, utils.Validation("invalid request body"))
	}
	jr, err := s.JoinWithScreenshot(c.UserContext(), in)
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONCreated(c, "Join request submitted. Awaiting admin approval.", jr)
}

func (s *JoinService) GetMyJoinRequests(c *fiber.Ctx) error {
	id := c.Query("contestantId")
	if id == "" {
		return utils.JSONError(c, utils.Validation("contestantId is required"))
	}
	out, err := s.ListJoinRequests(c.UserContext(), id, "")
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "join requests fetched", out)
}

func (s *JoinService) GetAllJoinRequests(c *fiber.Ctx) error {
	out, err := s.ListJoinRequests(c.UserContext(), "", models.Status(c.Query("status")))
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "join requests fetched", out)
}
