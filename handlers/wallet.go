package handlers

import (
	"github.com/gofiber/fiber/v2"
)

func SetupWalletRoutes(app *fiber.App, s Services, admin fiber.Handler) {
	app.Post("/deposits", s.Transactions.CreateDeposit)
	app.Put("/deposits/:id", admin, s.Approvals.UpdateDeposit)

	app.Post("/withdrawals", s.Transactions.CreateWithdrawal)
	app.Put("/withdrawals/:id", admin, s.Approvals.UpdateWithdrawal)

	app.Get("/transactions/upi-details", s.Transactions.GetUPIDetails)
	app.Get("/transactions/my-transactions", s.Ledger.GetMyTransactions)

	app.Post("/uploads/screenshot", s.Uploads.UploadScreenshot)
}
