package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bgmi-arena/models"
	"bgmi-arena/utils"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApprovalService applies admin decisions to pending deposits, withdrawals
// and join requests. Every decision is a guarded status write plus its
// wallet effect, committed together.
type ApprovalService struct {
	DB      *gorm.DB
	Ledger  *LedgerService
	Metrics *Metrics
}

func NewApprovalService(db *gorm.DB, ledger *LedgerService, metrics *Metrics) *ApprovalService {
	return &ApprovalService{DB: db, Ledger: ledger, Metrics: metrics}
}

// ParseDecision accepts only terminal statuses.
func ParseDecision(raw string) (models.Status, error) {
	d := models.Status(strings.ToLower(strings.TrimSpace(raw)))
	if !d.Terminal() {
		return "", utils.Validation("status must be approved or rejected")
	}
	return d, nil
}

// settleTransaction moves a pending transaction of the given type to
// decision. The status write is conditional on the row still being pending.
func settleTransaction(tx *gorm.DB, id string, kind models.TransactionType, decision models.Status, note string) (*models.Transaction, error) {
	var t models.Transaction
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ? AND type = ?", id, kind).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound(string(kind) + " transaction")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock transaction: %w", err)
	}
	if !t.Status.CanTransition(decision) {
		return nil, utils.Conflict("transaction already %s", t.Status)
	}

	now := time.Now()
	res := tx.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", t.ID, models.StatusPending).
		Updates(map[string]any{"status": decision, "admin_note": note, "decided_at": now})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, utils.Conflict("transaction already decided")
	}

	t.Status = decision
	t.AdminNote = note
	t.DecidedAt = &now
	return &t, nil
}

// DecideDeposit approves (credits the wallet) or rejects a pending deposit.
func (s *ApprovalService) DecideDeposit(ctx context.Context, id string, decision models.Status, note string) (*models.Transaction, error) {
	var t *models.Transaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		t, err = settleTransaction(tx, id, models.TransactionDeposit, decision, note)
		if err != nil {
			return err
		}
		if decision != models.StatusApproved {
			return nil
		}
		return applyDelta(tx, t.ContestantID, walletDelta{Balance: t.Amount, Deposited: t.Amount})
	})
	if err != nil {
		return nil, err
	}
	if decision == models.StatusApproved {
		s.Ledger.recorded(t)
	}
	s.decided("deposit", decision, t.ID)
	return t, nil
}

// DecideWithdrawal finalises a pending withdrawal. The funds left the
// balance at request time: approval releases the hold, rejection returns it.
func (s *ApprovalService) DecideWithdrawal(ctx context.Context, id string, decision models.Status, note string) (*models.Transaction, error) {
	var t *models.Transaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		t, err = settleTransaction(tx, id, models.TransactionWithdraw, decision, note)
		if err != nil {
			return err
		}
		if decision == models.StatusApproved {
			return applyDelta(tx, t.ContestantID, walletDelta{Spent: t.Amount, Withdrawn: t.Amount, Pending: -t.Amount})
		}
		return applyDelta(tx, t.ContestantID, walletDelta{Balance: t.Amount, Pending: -t.Amount})
	})
	if err != nil {
		return nil, err
	}
	if decision == models.StatusApproved {
		s.Ledger.recorded(t)
	} else {
		s.Ledger.recordedAs(movementWithdrawRelease, t)
	}
	s.decided("withdrawal", decision, t.ID)
	return t, nil
}

// DecideJoinRequest moves a pending join request to decision. It never
// touches a wallet: wallet joins paid up front and are refunded separately.
// Approving a screenshot join seats the player; rejecting frees any seat the
// request holds.
func (s *ApprovalService) DecideJoinRequest(ctx context.Context, id string, decision models.Status, note string) (*models.JoinRequest, error) {
	var jr models.JoinRequest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockJoinRequest(tx, id, &jr); err != nil {
			return err
		}
		if !jr.Status.CanTransition(decision) {
			return utils.Conflict("join request already %s", jr.Status)
		}

		now := time.Now()
		res := tx.Model(&models.JoinRequest{}).
			Where("id = ? AND status = ?", jr.ID, models.StatusPending).
			Updates(map[string]any{"status": decision, "admin_note": note, "decided_at": now})
		if res.Error != nil {
			return fmt.Errorf("failed to update join request: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return utils.Conflict("join request already decided")
		}
		jr.Status = decision
		jr.AdminNote = note
		jr.DecidedAt = &now

		switch {
		case decision == models.StatusApproved && jr.PaymentMethod == models.PaymentScreenshot:
			t, err := lockTournament(tx, jr.TournamentID)
			if err != nil {
				return err
			}
			return seatContestant(tx, t, jr.ContestantID, jr.ID)
		case decision == models.StatusRejected:
			return releaseSeat(tx, jr.TournamentID, jr.ContestantID, jr.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.decided("join_request", decision, jr.ID)
	return &jr, nil
}

// RefundJoinRequest returns the entry fee of a rejected wallet join. A join
// request can be refunded once.
func (s *ApprovalService) RefundJoinRequest(ctx context.Context, id string, note string) (*models.JoinRequest, error) {
	var jr models.JoinRequest
	var refund *models.Transaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockJoinRequest(tx, id, &jr); err != nil {
			return err
		}
		if jr.PaymentMethod != models.PaymentWallet {
			return utils.Validation("only wallet payments can be refunded")
		}
		if jr.Status != models.StatusRejected {
			return utils.Validation("only rejected join requests can be refunded")
		}
		if jr.RefundedAt != nil {
			return utils.Conflict("join request already refunded")
		}
		if jr.AmountPaid <= 0 {
			return utils.Validation("nothing to refund")
		}

		now := time.Now()
		res := tx.Model(&models.JoinRequest{}).
			Where("id = ? AND refunded_at IS NULL", jr.ID).
			Update("refunded_at", now)
		if res.Error != nil {
			return fmt.Errorf("failed to mark refund: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return utils.Conflict("join request already refunded")
		}
		jr.RefundedAt = &now

		if err := applyDelta(tx, jr.ContestantID, walletDelta{Balance: jr.AmountPaid, Spent: -jr.AmountPaid}); err != nil {
			return err
		}
		if err := releaseSeat(tx, jr.TournamentID, jr.ContestantID, jr.ID); err != nil {
			return err
		}

		tournamentID := jr.TournamentID
		refund = &models.Transaction{
			ID:           uuid.New().String(),
			ContestantID: jr.ContestantID,
			Type:         models.TransactionRefund,
			Amount:       jr.AmountPaid,
			Status:       models.StatusApproved,
			TournamentID: &tournamentID,
			AdminNote:    note,
			Description:  "Refund of tournament entry " + utils.FormatRupees(jr.AmountPaid),
			DecidedAt:    &now,
		}
		return createTransaction(tx, refund)
	})
	if err != nil {
		return nil, err
	}
	s.Ledger.recorded(refund)
	return &jr, nil
}

func (s *ApprovalService) decided(kind string, decision models.Status, id string) {
	s.Metrics.recordDecision(kind, string(decision))
	log.Info("admin decision", "kind", kind, "decision", decision, "id", id)
}

func lockJoinRequest(tx *gorm.DB, id string, jr *models.JoinRequest) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(jr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NotFound("join request")
	}
	if err != nil {
		return fmt.Errorf("failed to lock join request: %w", err)
	}
	return nil
}

// --- HTTP handlers ---

type decisionBody struct {
	Status    string `json:"status"`
	AdminNote string `json:"adminNote"`
}

func parseDecisionBody(c *fiber.Ctx) (models.Status, string, error) {
	var body decisionBody
	if err := c.BodyParser(&body); err != nil {
		return "", "", utils.Validation("invalid request body")
	}
	d, err := ParseDecision(body.Status)
	if err != nil {
		return "", "", err
	}
	return d, strings.TrimSpace(body.AdminNote), nil
}

func (s *ApprovalService) UpdateDeposit(c *fiber.Ctx) error {
	decision, note, err := parseDecisionBody(c)
	if err != nil {
		return utils.JSONError(c, err)
	}
	t, err := s.DecideDeposit(c.UserContext(), c.Params("id"), decision, note)
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "deposit "+string(decision), t)
}

func (s *ApprovalService) UpdateWithdrawal(c *fiber.Ctx) error {
	decision, note, err := parseDecisionBody(c)
	if err != nil {
		return utils.JSONError(c, err)
	}
	t, err := s.DecideWithdrawal(c.UserContext(), c.Params("id"), decision, note)
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "withdrawal "+string(decision), t)
}

func (s *ApprovalService) UpdateJoinRequest(c *fiber.Ctx) error {
	decision, note, err := parseDecisionBody(c)
	if err != nil {
		return utils.JSONError(c, err)
	}
	jr, err := s.DecideJoinRequest(c.UserContext(), c.Params("id"), decision, note)
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "join request "+string(decision), jr)
}

func (s *ApprovalService) RefundJoin(c *fiber.Ctx) error {
	var body struct {
		AdminNote string `json:"adminNote"`
	}
	// An empty body is fine here.
	_ = c.BodyParser(&body)

	jr, err := s.RefundJoinRequest(c.UserContext(), c.Params("id"), strings.TrimSpace(body.AdminNote))
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "join request refunded", jr)
}
