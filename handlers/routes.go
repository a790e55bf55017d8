package handlers

import (
	"bgmi-arena/services"

	"github.com/gofiber/fiber/v2"
)

// Services bundles everything the HTTP layer routes to.
type Services struct {
	Auth         *services.AuthService
	Contestants  *services.ContestantService
	Ledger       *services.LedgerService
	Transactions *services.TransactionService
	Approvals    *services.ApprovalService
	Joins        *services.JoinService
	Tournaments  *services.TournamentService
	Uploads      *services.UploadService
}

// SetupRoutes registers every route. Admin routes share paths with player
// routes, so the admin guard is attached per route rather than per group.
func SetupRoutes(app *fiber.App, s Services) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	admin := AdminGuard(s.Auth)

	SetupContestantRoutes(app, s, admin)
	SetupWalletRoutes(app, s, admin)
	SetupTournamentRoutes(app, s, admin)
	SetupAdminRoutes(app, s, admin)
}
