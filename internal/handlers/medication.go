package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Codexsur/AROGYAX/internal/services"
	"github.com/Codexsur/AROGYAX/internal/storage"
)

// MedicationHandler exposes the medication schedule over REST for
// clinic-side tooling.
type MedicationHandler struct {
	store       storage.Store
	medications *services.MedicationService
}

// NewMedicationHandler creates a new medication handler
func NewMedicationHandler(store storage.Store, medications *services.MedicationService) *MedicationHandler {
	return &MedicationHandler{store: store, medications: medications}
}

// AddMedicationRequest is the JSON body for registering a medication.
type AddMedicationRequest struct {
	Phone            string   `json:"phone"`
	Name             string   `json:"name"`
	Dosage           string   `json:"dosage"`
	Frequency        string   `json:"frequency"`
	Times            []string `json:"times"`
	StartDate        string   `json:"start_date"` // YYYY-MM-DD, optional
	EndDate          string   `json:"end_date"`   // YYYY-MM-DD, optional
	Instructions     string   `json:"instructions"`
	FoodInstructions string   `json:"food_instructions"`
	SideEffects      []string `json:"side_effects"`
	Interactions     []string `json:"interactions"`
}

// Create registers a medication for a user.
func (h *MedicationHandler) Create(c *fiber.Ctx) error {
	var req AddMedicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "phone is required",
		})
	}

	input := services.MedicationInput{
		Name:             req.Name,
		Dosage:           req.Dosage,
		Frequency:        req.Frequency,
		Times:            req.Times,
		Instructions:     req.Instructions,
		FoodInstructions: req.FoodInstructions,
		SideEffects:      req.SideEffects,
		Interactions:     req.Interactions,
	}

	if req.StartDate != "" {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "start_date must be YYYY-MM-DD",
			})
		}
		input.StartDate = start
	}
	if req.EndDate != "" {
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "end_date must be YYYY-MM-DD",
			})
		}
		// The course runs through the end of the stated day.
		end = end.Add(24*time.Hour - time.Second)
		input.EndDate = &end
	}

	med, _, err := h.medications.AddMedication(req.Phone, input)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(med)
}

// List returns a user's medications.
func (h *MedicationHandler) List(c *fiber.Ctx) error {
	phone := c.Query("phone")
	if phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "phone query parameter is required",
		})
	}

	meds, err := h.store.GetMedicationsByPhone(phone)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch medications",
		})
	}

	return c.JSON(fiber.Map{
		"medications": meds,
		"count":       len(meds),
	})
}

// Adherence returns the adherence score and trend for one medication.
func (h *MedicationHandler) Adherence(c *fiber.Ctx) error {
	medicationID := c.Params("id")

	med, err := h.store.GetMedication(medicationID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Medication not found",
		})
	}

	score, err := h.medications.AdherenceScore(medicationID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute adherence",
		})
	}
	trend, err := h.medications.AdherenceTrend(medicationID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute trend",
		})
	}

	return c.JSON(fiber.Map{
		"medication_id": med.MedicationID,
		"name":          med.Name,
		"adherence":     score,
		"trend":         trend,
	})
}

// Deactivate stops reminders for one medication.
func (h *MedicationHandler) Deactivate(c *fiber.Ctx) error {
	medicationID := c.Params("id")

	med, err := h.store.GetMedication(medicationID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Medication not found",
		})
	}

	med.IsActive = false
	if err := h.store.UpdateMedication(med); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to deactivate medication",
		})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"medication_id": med.MedicationID,
	})
}
