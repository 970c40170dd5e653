package handler

import (
	"quiz-forge/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the API and the metrics endpoint on app.
func RegisterRoutes(app *fiber.App, quiz *QuizHandler, settings *SettingsHandler) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	quizzes := api.Group("/quizzes")
	quizzes.Post("/generate", quiz.GenerateQuiz)
	quizzes.Get("/:id", quiz.GetQuiz)

	api.Post("/images", quiz.GenerateImage)
	api.Get("/keys/health", quiz.GetKeyHealth)
	api.Get("/provider/validate", quiz.ValidateProvider)

	api.Get("/settings/provider", settings.GetProviderSettings)
	api.Put("/settings/provider", settings.UpdateProviderSettings)
	api.Get("/logs", middleware.ValidateLimit(50, 500), settings.ListLogs)
}
