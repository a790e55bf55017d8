package services

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"bgmi-arena/config"
	"bgmi-arena/utils"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const adminRole = "admin"

// CredentialStore checks admin logins.
type CredentialStore interface {
	Verify(email, password string) bool
}

// StaticCredentialStore holds a single admin account from configuration.
type StaticCredentialStore struct {
	email        string
	passwordHash []byte
}

func NewStaticCredentialStore(email, passwordHash string) *StaticCredentialStore {
	return &StaticCredentialStore{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: []byte(passwordHash),
	}
}

func (s *StaticCredentialStore) Verify(email, password string) bool {
	emailOK := subtle.ConstantTimeCompare([]byte(strings.ToLower(strings.TrimSpace(email))), []byte(s.email)) == 1
	// Always run bcrypt so a wrong email costs the same as a wrong password.
	passwordOK := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil
	return emailOK && passwordOK
}

type AdminClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	Credentials CredentialStore
	secret      []byte
	ttl         time.Duration
	issuer      string
}

func NewAuthService(creds CredentialStore, cfg config.AdminConfig) *AuthService {
	return &AuthService{
		Credentials: creds,
		secret:      []byte(cfg.JWTSecret),
		ttl:         cfg.TokenTTL,
		issuer:      cfg.Issuer,
	}
}

// Login checks the credentials and issues an admin token.
func (s *AuthService) Login(email, password string) (string, error) {
	if !s.Credentials.Verify(email, password) {
		return "", utils.Unauthorized("invalid admin credentials")
	}
	now := time.Now()
	claims := AdminClaims{
		Email: strings.ToLower(strings.TrimSpace(email)),
		Role:  adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strings.ToLower(strings.TrimSpace(email)),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// ParseToken validates an admin token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(s.issuer))
	if err != nil {
		return nil, utils.Unauthorized("invalid or expired token")
	}
	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid || claims.Role != adminRole {
		return nil, utils.Unauthorized("invalid or expired token")
	}
	return claims, nil
}

// --- HTTP handlers ---

func (s *AuthService) AdminLogin(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.JSONError(c, utils.Validation("invalid request body"))
	}
	token, err := s.Login(body.Email, body.Password)
	if err != nil {
		log.Warn("admin login failed", "email", body.Email, "ip", c.IP())
		return utils.JSONError(c, err)
	}
	return utils.JSONSuccess(c, "login successful", fiber.Map{
		"token": token,
		"admin": fiber.Map{"email": strings.ToLower(strings.TrimSpace(body.Email)), "role": adminRole},
	})
}
