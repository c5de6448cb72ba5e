package routes

import (
	"os"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Codexsur/AROGYAX/internal/handlers"
	"github.com/Codexsur/AROGYAX/internal/middleware"
	"github.com/Codexsur/AROGYAX/internal/services"
	"github.com/Codexsur/AROGYAX/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, store storage.Store, conversations *services.ConversationService, medications *services.MedicationService) {

	webhookHandler := handlers.NewWebhookHandler(conversations)
	medicationHandler := handlers.NewMedicationHandler(store, medications)
	userHandler := handlers.NewUserHandler(store)
	healthHandler := handlers.NewHealthHandler("1.0.0")

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to AROGYAX Health Assistant!",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"health":           "/health",
				"metrics":          "/metrics",
				"api":              "/api",
				"twilio_webhook":   "/webhook/twilio",
				"whatsapp_webhook": "/webhook/whatsapp",
				"test_webhook":     "/test/message",
			},
		})
	})

	app.Get("/health", healthHandler.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes
	api := app.Group("/api")

	users := api.Group("/users")
	users.Get("/:phone", userHandler.Get)
	users.Put("/:phone", userHandler.Update)

	medicationsAPI := api.Group("/medications")
	medicationsAPI.Post("/", medicationHandler.Create)
	medicationsAPI.Get("/", medicationHandler.List)
	medicationsAPI.Get("/:id/adherence", medicationHandler.Adherence)
	medicationsAPI.Delete("/:id", medicationHandler.Deactivate)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook", middleware.RateLimitBySender())

	// WhatsApp Cloud API webhook (verification handshake + messages)
	webhooks.Get("/whatsapp", webhookHandler.HandleGraphVerify)
	webhooks.Post("/whatsapp", webhookHandler.HandleGraphWebhook)

	// Twilio webhook (WhatsApp and SMS) - ENVIRONMENT-AWARE VALIDATION
	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true" {
		webhooks.Post("/twilio", webhookHandler.HandleTwilioWebhook)
		if os.Getenv("ENVIRONMENT") == "development" {
			println("⚠️  Twilio webhook validation DISABLED for development")
		}
	} else {
		webhooks.Post("/twilio", middleware.ValidateTwilioSignature(), webhookHandler.HandleTwilioWebhook)
	}

	// ========== TEST ROUTES (Development Only) ==========
	app.Post("/test/message", webhookHandler.HandleTestWebhook)
}
