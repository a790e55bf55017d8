package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"bgmi-arena/models"
	"bgmi-arena/utils"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const resultsLimit = 10

type TournamentService struct {
	DB       *gorm.DB
	Ledger   *LedgerService
	Storage  utils.Storage
	Location *time.Location
	Metrics  *Metrics
	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

func NewTournamentService(db *gorm.DB, ledger *LedgerService, storage utils.Storage, loc *time.Location, metrics *Metrics) *TournamentService {
	if loc == nil {
		loc = time.UTC
	}
	return &TournamentService{DB: db, Ledger: ledger, Storage: storage, Location: loc, Metrics: metrics}
}

func (s *TournamentService) now() time.Time {
	if s.Now != nil {
		return s.Now().In(s.Location)
	}
	return time.Now().In(s.Location)
}

type TournamentInput struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	Date            *string          `json:"date"`
	Time            *string          `json:"time"`
	Type            *string          `json:"type"`
	EntryFee        *decimal.Decimal `json:"entryFee"`
	PrizePool       *decimal.Decimal `json:"prizePool"`
	MaxParticipants *int             `json:"maxParticipants"`
	Winner          *string          `json:"winner"`
	RunnerUp        *string          `json:"runnerUp"`
	ThirdPlace      *string          `json:"thirdPlace"`
	BackgroundImage *string          `json:"backgroundImage"`
	// Status is honoured on update only; the scheduler may later move it on.
	Status *string `json:"status"`
}

// apply copies the set fields of in onto t and validates the result.
func (in TournamentInput) apply(t *models.Tournament) error {
	str := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	str(&t.Name, in.Name)
	str(&t.Description, in.Description)
	str(&t.Date, in.Date)
	str(&t.Time, in.Time)
	str(&t.Winner, in.Winner)
	str(&t.RunnerUp, in.RunnerUp)
	str(&t.ThirdPlace, in.ThirdPlace)
	str(&t.BackgroundImage, in.BackgroundImage)
	if in.Type != nil {
		t.Type = models.MatchType(strings.TrimSpace(*in.Type))
	}
	if in.EntryFee != nil {
		fee, err := utils.OptionalAmount("entryFee", *in.EntryFee)
		if err != nil {
			return err
		}
		t.EntryFee = fee
	}
	if in.PrizePool != nil {
		pool, err := utils.OptionalAmount("prizePool", *in.PrizePool)
		if err != nil {
			return err
		}
		t.PrizePool = pool
	}
	if in.MaxParticipants != nil {
		t.MaxParticipants = *in.MaxParticipants
	}

	switch {
	case t.Name == "":
		return utils.Validation("name is required")
	case !t.Type.Valid():
		return utils.Validation("type must be Solo, Duo or Squad")
	case t.MaxParticipants <= 0:
		return utils.Validation("maxParticipants must be positive")
	}
	if _, err := time.Parse(dateLayout, t.Date); err != nil {
		return utils.Validation("date must be YYYY-MM-DD")
	}
	if t.Time == "" {
		return utils.Validation("time is required")
	}
	if _, err := time.Parse(timeLayout, t.Time); err != nil {
		return utils.Validation("time must be HH:mm")
	}
	return nil
}

func (s *TournamentService) CreateTournament(ctx context.Context, in TournamentInput) (*models.Tournament, error) {
	t := &models.Tournament{ID: uuid.NewString()}
	if err := in.apply(t); err != nil {
		return nil, err
	}
	t.Slug = slug.Make(t.Name) + "-" + t.ID[:8]
	t.Status, _ = ComputeStatus(s.now(), t.Date, t.Time)

	if err := s.DB.WithContext(ctx).Create(t).Error; err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	t.AvailableSlots = int64(t.MaxParticipants)
	log.Info("tournament created", "id", t.ID, "name", t.Name, "slug", t.Slug, "status", t.Status)
	return t, nil
}

// UpdateTournament applies a partial update. Capacity can't drop below the
// seats already taken.
func (s *TournamentService) UpdateTournament(ctx context.Context, id string, in TournamentInput) (*models.Tournament, error) {
	var t *models.Tournament
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if t, err = lockTournament(tx, id); err != nil {
			return err
		}
		if err := in.apply(t); err != nil {
			return err
		}
		seated, err := countSeats(tx, t.ID)
		if err != nil {
			return err
		}
		if int64(t.MaxParticipants) < seated {
			return utils.Validation("maxParticipants cannot be below the %d players already joined", seated)
		}
		if in.Date != nil || in.Time != nil {
			t.Status, _ = ComputeStatus(s.now(), t.Date, t.Time)
		}
		if in.Status != nil {
			st := models.TournamentStatus(strings.TrimSpace(*in.Status))
			if !st.Valid() {
				return utils.Validation("unknown tournament status %q", *in.Status)
			}
			t.Status = st
		}
		t.ParticipantCount = seated
		t.AvailableSlots = int64(t.MaxParticipants) - seated
		return tx.Omit("Participants", "Slug", "CreatedAt").Save(t).Error
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTournament removes a tournament and its seats. Tournaments with join
// requests keep their history and can't be deleted.
func (s *TournamentService) DeleteTournament(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockTournament(tx, id); err != nil {
			return err
		}
		var requests int64
		if err := tx.Model(&models.JoinRequest{}).Where("tournament_id = ?", id).Count(&requests).Error; err != nil {
			return fmt.Errorf("failed to count join requests: %w", err)
		}
		if requests > 0 {
			return utils.Conflict("tournament has %d join requests and cannot be deleted", requests)
		}
		if err := tx.Where("tournament_id = ?", id).Delete(&models.TournamentParticipant{}).Error; err != nil {
			return fmt.Errorf("failed to delete participants: %w", err)
		}
		if err := tx.Delete(&models.Tournament{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete tournament: %w", err)
		}
		return nil
	})
}

func countSeats(tx *gorm.DB, tournamentID string) (int64, error) {
	var n int64
	if err := tx.Model(&models.TournamentParticipant{}).Where("tournament_id = ?", tournamentID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return n, nil
}

// ParseStatusFilter splits a comma separated status list.
func ParseStatusFilter(raw string) ([]models.TournamentStatus, error) {
	var out []models.TournamentStatus
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		st := models.TournamentStatus(part)
		if !st.Valid() {
			return nil, utils.Validation("unknown tournament status %q", part)
		}
		out = append(out, st)
	}
	return out, nil
}

// ListTournaments returns tournaments by date, optionally filtered by
// status. With refresh set, statuses are recomputed first so callers never
// see a status staler than this request.
func (s *TournamentService) ListTournaments(ctx context.Context, statuses []models.TournamentStatus, refresh bool) ([]models.Tournament, error) {
	if refresh {
		if _, err := s.RefreshStatuses(ctx); err != nil {
			log.Warn("inline status refresh failed", "err", err)
		}
	}

	q := s.DB.WithContext(ctx).Order(clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "date"}},
		{Column: clause.Column{Name: "time"}},
	}})
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var tournaments []models.Tournament
	if err := q.Find(&tournaments).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch tournaments: %w", err)
	}
	if err := s.fillCounts(ctx, tournaments); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (s *TournamentService) fillCounts(ctx context.Context, tournaments []models.Tournament) error {
	if len(tournaments) == 0 {
		return nil
	}
	ids := make([]string, len(tournaments))
	for i, t := range tournaments {
		ids[i] = t.ID
	}
	var rows []struct {
		TournamentID string
		Seats        int64
	}
	if err := s.DB.WithContext(ctx).Model(&models.TournamentParticipant{}).
		Select("tournament_id, COUNT(*) AS seats").
		Where("tournament_id IN ?", ids).
		Group("tournament_id").
		Scan(&rows).Error; err != nil {
		return fmt.Errorf("failed to count participants: %w", err)
	}
	seats := make(map[string]int64, len(rows))
	for _, r := range rows {
		seats[r.TournamentID] = r.Seats
	}
	for i := range tournaments {
		tournaments[i].ParticipantCount = seats[tournaments[i].ID]
		tournaments[i].AvailableSlots = int64(tournaments[i].MaxParticipants) - tournaments[i].ParticipantCount
	}
	return nil
}

// GetTournament returns one tournament with its participants.
func (s *TournamentService) GetTournament(ctx context.Context, id string) (*models.Tournament, error) {
	var t models.Tournament
	err := s.DB.WithContext(ctx).Preload("Participants").Where("id = ? OR slug = ?", id, id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("tournament")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}
	t.ParticipantCount = int64(len(t.Participants))
	t.AvailableSlots = int64(t.MaxParticipants) - t.ParticipantCount
	return &t, nil
}

type PrizeInput struct {
	ContestantID string          `json:"contestantId"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"adminNote"`
}

// AwardPrize credits prize money to a participant's wallet.
func (s *TournamentService) AwardPrize(ctx context.Context, tournamentID string, in PrizeInput) (*models.Transaction, error) {
	amount, err := utils.WholeAmount("amount", in.Amount)
	if err != nil {
		return nil, err
	}

	var prize *models.Transaction
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := lockTournament(tx, tournamentID)
		if err != nil {
			return err
		}
		c, err := lockContestant(tx, in.ContestantID)
		if err != nil {
			return err
		}
		var seated int64
		if err := tx.Model(&models.TournamentParticipant{}).
			Where("tournament_id = ? AND contestant_id = ?", t.ID, c.ID).
			Count(&seated).Error; err != nil {
			return fmt.Errorf("failed to check participant: %w", err)
		}
		if seated == 0 {
			return utils.Validation("contestant did not take part in this tournament")
		}
		if err := applyDelta(tx, c.ID, walletDelta{Balance: amount, Won: amount}); err != nil {
			return err
		}
		now := time.Now()
		prize = &models.Transaction{
			ContestantID: c.ID,
			Type:         models.TransactionPrizeWon,
			Amount:       amount,
			Status:       models.StatusApproved,
			TournamentID: &t.ID,
			AdminNote:    strings.TrimSpace(in.Note),
			Description:  fmt.Sprintf("Prize for %s (%s)", t.Name, utils.FormatRupees(amount)),
			DecidedAt:    &now,
		}
		return createTransaction(tx, prize)
	})
	if err != nil {
		return nil, err
	}
	s.Ledger.recorded(prize)
	return prize, nil
}

type ResultInput struct {
	TournamentID      *string         `json:"tournamentId"`
	Tournament        string          `json:"tournament"`
	Date              string          `json:"date"`
	Winner            string          `json:"winner"`
	RunnerUp          string          `json:"runnerUp"`
	ThirdPlace        string          `json:"thirdPlace"`
	TotalParticipants int             `json:"totalParticipants"`
	PrizeDistributed  decimal.Decimal `json:"prizeDistributed"`
	WinnerPrize       decimal.Decimal `json:"winnerPrize"`
	RunnerUpPrize     decimal.Decimal `json:"runnerUpPrize"`
	ThirdPrize        decimal.Decimal `json:"thirdPrize"`
	MatchType         string          `json:"matchType"`
}

func (s *TournamentService) AddResult(ctx context.Context, in ResultInput) (*models.Result, error) {
	r := &models.Result{
		ID:                uuid.NewString(),
		TournamentID:      in.TournamentID,
		Tournament:        strings.TrimSpace(in.Tournament),
		Date:              strings.TrimSpace(in.Date),
		Winner:            strings.TrimSpace(in.Winner),
		RunnerUp:          strings.TrimSpace(in.RunnerUp),
		ThirdPlace:        strings.TrimSpace(in.ThirdPlace),
		TotalParticipants: in.TotalParticipants,
		MatchType:         models.MatchType(in.MatchType),
	}
	if r.MatchType == "" {
		r.MatchType = models.MatchSquad
	}
	if r.Tournament == "" || r.Date == "" || r.Winner == "" {
		return nil, utils.Validation("tournament, date and winner are required")
	}
	if !r.MatchType.Valid() {
		return nil, utils.Validation("matchType must be Solo, Duo or Squad")
	}
	for _, f := range []struct {
		name string
		src  decimal.Decimal
		dst  *int64
	}{
		{"prizeDistributed", in.PrizeDistributed, &r.PrizeDistributed},
		{"winnerPrize", in.WinnerPrize, &r.WinnerPrize},
		{"runnerUpPrize", in.RunnerUpPrize, &r.RunnerUpPrize},
		{"thirdPrize", in.ThirdPrize, &r.ThirdPrize},
	} {
		v, err := utils.OptionalAmount(f.name, f.src)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	if err := s.DB.WithContext(ctx).Create(r).Error; err != nil {
		return nil, fmt.Errorf("failed to save result: %w", err)
	}
	return r, nil
}

func (s *TournamentService) ListResults(ctx context.Context) ([]models.Result, error) {
	var results []models.Result
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Limit(resultsLimit).Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch results: %w", err)
	}
	return results, nil
}

// --- HTTP handlers ---

func (s *TournamentService) CreateTournamentHandler(c *fiber.Ctx) error {
	var in TournamentInput
	if err := c.BodyParser(&in); err != nil {
		return utils.JSONError(c, utils.Validation("invalid request body"))
	}
	t, err := s.CreateTournament(c.UserContext(), in)
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONCreated(c, "tournament created", t)
}

func (s *TournamentService) UpdateTournamentHandler(c *fiber.Ctx) error {
	var in TournamentInput
	if err := c.BodyParser(&in); err != nil {
		return utils.JSONError(c, utils.Validation("invalid request body"))
	}
	t, err := s.UpdateTournament(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "tournament updated", t)
}

func (s *TournamentService) DeleteTournamentHandler(c *fiber.Ctx) error {
	if err := s.DeleteTournament(c.UserContext(), c.Params("id")); err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "tournament deleted", nil)
}

// GetTournaments serves ?status=Upcoming,Live and ?autoUpdate=false.
func (s *TournamentService) GetTournaments(c *fiber.Ctx) error {
	statuses, err := ParseStatusFilter(c.Query("status"))
	if err != nil {
		return utils.JSONError(c, err)
	}
	out, err := s.ListTournaments(c.UserContext(), statuses, c.Query("autoUpdate") != "false")
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "tournaments fetched", out)
}

func (s *TournamentService) GetTournamentByID(c *fiber.Ctx) error {
	t, err := s.GetTournament(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "tournament fetched", t)
}

func (s *TournamentService) UpdateStatuses(c *fiber.Ctx) error {
	n, err := s.RefreshStatuses(c.UserContext())
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, fmt.Sprintf("%d tournament statuses updated", n), fiber.Map{"updated": n})
}

// UploadBackground stores a multipart "image" and sets it as the
// tournament's background.
func (s *TournamentService) UploadBackground(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return utils.JSONError(c, utils.Validation("image file is required"))
	}
	if err := checkImage(file.Filename, file.Size); err != nil {
		return utils.JSONError(c, err)
	}
	if _, err := s.GetTournament(c.UserContext(), c.Params("id")); err != nil {
		return utils.JSONError(c, err)
	}

	key := "tournaments/" + uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	url, err := s.Storage.Save(c.UserContext(), file, key)
	if err != nil {
		return utils.JSONError(c, err)
	}
	t, err := s.UpdateTournament(c.UserContext(), c.Params("id"), TournamentInput{BackgroundImage: &url})
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "background uploaded", t)
}

func (s *TournamentService) AwardPrizeHandler(c *fiber.Ctx) error {
	var in PrizeInput
	if err := c.BodyParser(&in); err != nil {
		return utils.JSONError(c, utils.Validation("invalid request body"))
	}
	t, err := s.AwardPrize(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONCreated(c, "prize credited", t)
}

func (s *TournamentService) CreateResult(c *fiber.Ctx) error {
	var in ResultInput
	if err := c.BodyParser(&in); err != nil {
		return utils.JSONError(c, utils.Validation("invalid request body"))
	}
	r, err := s.AddResult(c.UserContext(), in)
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONCreated(c, "result saved", r)
}

func (s *TournamentService) GetResults(c *fiber.Ctx) error {
	results, err := s.ListResults(c.UserContext())
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "results fetched", results)
}
