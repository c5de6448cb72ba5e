package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Codexsur/AROGYAX/internal/storage"
)

// UserHandler exposes user profiles over REST.
type UserHandler struct {
	store storage.Store
}

// NewUserHandler creates a new user handler
func NewUserHandler(store storage.Store) *UserHandler {
	return &UserHandler{store: store}
}

// Get returns one user profile by phone number.
func (h *UserHandler) Get(c *fiber.Ctx) error {
	phone := c.Params("phone")

	user, err := h.store.GetUserByPhone(phone)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	return c.JSON(user)
}

// UpdateProfileRequest is the JSON body for profile updates.
type UpdateProfileRequest struct {
	Name                 string   `json:"name"`
	Age                  int      `json:"age"`
	Gender               string   `json:"gender"`
	City                 string   `json:"city"`
	PreferredLanguage    string   `json:"preferred_language"`
	Conditions           []string `json:"conditions"`
	Allergies            []string `json:"allergies"`
	NotificationsEnabled *bool    `json:"notifications_enabled"`
	EmergencyAlerts      *bool    `json:"emergency_alerts"`
}

// Update patches a user profile.
func (h *UserHandler) Update(c *fiber.Ctx) error {
	phone := c.Params("phone")

	user, err := h.store.GetUserByPhone(phone)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Age > 0 {
		user.Age = req.Age
	}
	if req.Gender != "" {
		user.Gender = req.Gender
	}
	if req.City != "" {
		user.City = req.City
	}
	if req.PreferredLanguage != "" {
		user.PreferredLanguage = req.PreferredLanguage
	}
	if req.Conditions != nil {
		user.Conditions = req.Conditions
	}
	if req.Allergies != nil {
		user.Allergies = req.Allergies
	}
	if req.NotificationsEnabled != nil {
		user.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.EmergencyAlerts != nil {
		user.EmergencyAlerts = *req.EmergencyAlerts
	}

	if err := h.store.UpdateUser(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update user",
		})
	}

	return c.JSON(user)
}
