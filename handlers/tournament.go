package handlers

import (
	"github.com/gofiber/fiber/v2"
)

func SetupTournamentRoutes(app *fiber.App, s Services, admin fiber.Handler) {
	// Public
	app.Get("/tournaments", s.Tournaments.GetTournaments)
	app.Get("/tournaments/results", s.Tournaments.GetResults)
	app.Get("/tournaments/:id", s.Tournaments.GetTournamentByID)

	// Player joins
	app.Post("/contestants/tournament/join", s.Joins.JoinTournament)
	app.Post("/contestants/tournament/join-with-wallet", s.Joins.JoinTournamentWithWallet)

	// Admin
	app.Post("/tournaments", admin, s.Tournaments.CreateTournamentHandler)
	app.Post("/tournaments/update-statuses", admin, s.Tournaments.UpdateStatuses)
	app.Post("/tournaments/results", admin, s.Tournaments.CreateResult)
	app.Put("/tournaments/:id", admin, s.Tournaments.UpdateTournamentHandler)
	app.Delete("/tournaments/:id", admin, s.Tournaments.DeleteTournamentHandler)
	app.Post("/tournaments/:id/background", admin, s.Tournaments.UploadBackground)
	app.Post("/tournaments/:id/prizes", admin, s.Tournaments.AwardPrizeHandler)

	app.Put("/join-requests/:id", admin, s.Approvals.UpdateJoinRequest)
	app.Post("/join-requests/:id/refund", admin, s.Approvals.RefundJoin)
}
