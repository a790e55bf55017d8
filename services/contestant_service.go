package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"bgmi-arena/models"
	"bgmi-arena/utils"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type ContestantService struct {
	DB *gorm.DB
}

func NewContestantService(db *gorm.DB) *ContestantService {
	return &ContestantService{DB: db}
}

type RegisterInput struct {
	PlayerName string `json:"playerName"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	BgmiID     string `json:"bgmiId"`
}

type LoginInput struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type ProfileInput struct {
	PlayerName *string `json:"playerName"`
	BgmiID     *string `json:"bgmiId"`
	Bio        *string `json:"bio"`
	Avatar     *string `json:"avatar"`
}

func (s *ContestantService) Register(ctx context.Context, in RegisterInput) (*models.Contestant, error) {
	c := &models.Contestant{
		ID:         uuid.NewString(),
		PlayerName: strings.TrimSpace(in.PlayerName),
		Phone:      strings.TrimSpace(in.Phone),
		Email:      strings.ToLower(strings.TrimSpace(in.Email)),
		BgmiID:     strings.TrimSpace(in.BgmiID),
	}
	if c.PlayerName == "" || c.Phone == "" || c.Email == "" || c.BgmiID == "" {
		return nil, utils.Validation("playerName, phone, email and bgmiId are required")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return nil, utils.Validation("invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, utils.Validation("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	c.Password = string(hash)

	db := s.DB.WithContext(ctx)
	var taken int64
	if err := db.Model(&models.Contestant{}).Where("phone = ? OR email = ?", c.Phone, c.Email).Count(&taken).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing contestant: %w", err)
	}
	if taken > 0 {
		return nil, utils.Conflict("contestant with this phone or email already exists")
	}
	if err := db.Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.Conflict("contestant with this phone or email already exists")
		}
		return nil, fmt.Errorf("failed to create contestant: %w", err)
	}
	log.Info("contestant registered", "id", c.ID, "player", c.PlayerName)
	return c, nil
}

func (s *ContestantService) Login(ctx context.Context, in LoginInput) (*models.Contestant, error) {
	var c models.Contestant
	err := s.DB.WithContext(ctx).Where("phone = ?", strings.TrimSpace(in.Phone)).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.Unauthorized("invalid phone or password")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contestant: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(c.Password), []byte(in.Password)) != nil {
		return nil, utils.Unauthorized("invalid phone or password")
	}
	return &c, nil
}

func (s *ContestantService) Profile(ctx context.Context, id string) (*models.Contestant, error) {
	var c models.Contestant
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("contestant")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contestant: %w", err)
	}
	return &c, nil
}

// ResetPassword replaces a contestant's password on an admin's behalf.
func (s *ContestantService) ResetPassword(ctx context.Context, id, newPassword string) (*models.Contestant, error) {
	if len(newPassword) < minPasswordLength {
		return nil, utils.Validation("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	res := s.DB.WithContext(ctx).Model(&models.Contestant{}).Where("id = ?", id).Update("password", string(hash))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, utils.NotFound("contestant")
	}
	log.Info("contestant password reset", "id", id)
	return s.Profile(ctx, id)
}

// UpdateProfile changes profile fields only; wallet columns are never
// writable from here.
func (s *ContestantService) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*models.Contestant, error) {
	updates := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	set("player_name", in.PlayerName)
	set("bgmi_id", in.BgmiID)
	set("bio", in.Bio)
	set("avatar", in.Avatar)
	if v, ok := updates["player_name"]; ok && v == "" {
		return nil, utils.Validation("playerName cannot be empty")
	}
	if v, ok := updates["bgmi_id"]; ok && v == "" {
		return nil, utils.Validation("bgmiId cannot be empty")
	}

	if len(updates) > 0 {
		res := s.DB.WithContext(ctx).Model(&models.Contestant{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update profile: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, utils.NotFound("contestant")
		}
	}
	return s.Profile(ctx, id)
}

// List returns contestants newest first. query matches player name, phone,
// email or BGMI id case-insensitively.
func (s *ContestantService) List(ctx context.Context, query string, limit int) ([]models.Contestant, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	db := s.DB.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if query = strings.ToLower(strings.TrimSpace(query)); query != "" {
		term := "%" + query + "%"
		db = db.Where(
			"LOWER(player_name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ? OR LOWER(bgmi_id) LIKE ?",
			term, term, term, term,
		)
	}
	var out []models.Contestant
	if err := db.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list contestants: %w", err)
	}
	return out, nil
}

// --- HTTP handlers ---

func (s *ContestantService) RegisterHandler(c *fiber.Ctx) error {
	var in RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return utils.JSONError(c, utils.Validation("invalid request body"))
	}
	contestant, err := s.Register(c.UserContext(), in)
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONCreated(c, "registration successful", contestant)
}

func (s *ContestantService) LoginHandler(c *fiber.Ctx) error {
	var in LoginInput
	if err := c.BodyParser(&in); err != nil {
		return utils.JSONError(c, utils.Validation("invalid request body"))
	}
	contestant, err := s.Login(c.UserContext(), in)
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "login successful", contestant)
}

func (s *ContestantService) GetProfile(c *fiber.Ctx) error {
	contestant, err := s.Profile(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "profile fetched", contestant)
}

func (s *ContestantService) UpdateProfileHandler(c *fiber.Ctx) error {
	var in ProfileInput
	if err := c.BodyParser(&in); err != nil {
		return utils.JSONError(c, utils.Validation("invalid request body"))
	}
	contestant, err := s.UpdateProfile(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "profile updated", contestant)
}

func (s *ContestantService) ResetPasswordHandler(c *fiber.Ctx) error {
	var body struct {
		NewPassword string `json:"newPassword"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.JSONError(c, utils.Validation("invalid request body"))
	}
	contestant, err := s.ResetPassword(c.UserContext(), c.Params("id"), body.NewPassword)
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "password updated", fiber.Map{
		"playerName": contestant.PlayerName,
		"phone":      contestant.Phone,
	})
}

func (s *ContestantService) GetAllContestants(c *fiber.Ctx) error {
	out, err := s.List(c.UserContext(), c.Query("q"), c.QueryInt("limit", 50))
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "contestants fetched", out)
}
