package handlers

import (
	"github.com/gofiber/fiber/v2"
)

func SetupContestantRoutes(app *fiber.App, s Services, _ fiber.Handler) {
	contestants := app.Group("/contestants")
	contestants.Post("/register", s.Contestants.RegisterHandler)
	contestants.Post("/login", s.Contestants.LoginHandler)
	contestants.Get("/profile/:id", s.Contestants.GetProfile)
	contestants.Put("/profile/:id", s.Contestants.UpdateProfileHandler)
	contestants.Get("/wallet/:id", s.Ledger.GetWallet)
	contestants.Get("/join-requests", s.Joins.GetMyJoinRequests)
}
