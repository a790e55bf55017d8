package handlers

import (
	"bgmi-arena/middleware"
	"bgmi-arena/models"
	"bgmi-arena/services"

	"github.com/gofiber/fiber/v2"
)

// AdminGuard returns the admin token check for the given auth service.
func AdminGuard(auth *services.AuthService) fiber.Handler {
	return middleware.AdminAuthMiddleware(auth)
}

func SetupAdminRoutes(app *fiber.App, s Services, admin fiber.Handler) {
	app.Post("/admin/login", s.Auth.AdminLogin)

	secured := app.Group("/admin", admin)
	secured.Get("/contestants", s.Contestants.GetAllContestants)
	secured.Get("/contestants/:id/reconcile", s.Ledger.ReconcileWallet)
	secured.Put("/contestants/:id/password", s.Contestants.ResetPasswordHandler)
	secured.Get("/deposits", s.Transactions.ListByType(models.TransactionDeposit))
	secured.Get("/withdrawals", s.Transactions.ListByType(models.TransactionWithdraw))
	secured.Get("/join-requests", s.Joins.GetAllJoinRequests)
	secured.Get("/transactions/:contestantId", s.Ledger.GetContestantTransactions)
}
