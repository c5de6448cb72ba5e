package handlers

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Codexsur/AROGYAX/internal/models"
	"github.com/Codexsur/AROGYAX/internal/services"
)

// WebhookHandler receives inbound messages from the messaging providers
// and hands them to the conversation service.
type WebhookHandler struct {
	conversations *services.ConversationService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(conversations *services.ConversationService) *WebhookHandler {
	return &WebhookHandler{conversations: conversations}
}

// TwilioWebhookPayload represents an incoming message from Twilio
type TwilioWebhookPayload struct {
	MessageSid string `form:"MessageSid"`
	AccountSid string `form:"AccountSid"`
	From       string `form:"From"` // "whatsapp:+919876543210" or "+919876543210"
	To         string `form:"To"`
	Body       string `form:"Body"`
	NumMedia   string `form:"NumMedia"`
}

// HandleTwilioWebhook processes incoming WhatsApp and SMS messages from
// Twilio. Always acknowledges with 200 so Twilio does not retry; failures
// are handled inside the turn.
func (h *WebhookHandler) HandleTwilioWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing Twilio webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	if payload.Body == "" || payload.From == "" {
		// Status callbacks and media-only messages are acknowledged, not processed.
		return c.SendStatus(fiber.StatusOK)
	}

	channel := models.ChannelSMS
	from := payload.From
	if rest, ok := strings.CutPrefix(from, "whatsapp:"); ok {
		channel = models.ChannelWhatsApp
		from = rest
	}

	log.Printf("📱 Inbound %s message from %s: %s", channel, from, payload.Body)
	h.conversations.ProcessInboundMessage(from, payload.Body, channel)

	return c.SendStatus(fiber.StatusOK)
}

// HandleGraphVerify answers the WhatsApp Cloud API webhook verification
// handshake.
func (h *WebhookHandler) HandleGraphVerify(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == os.Getenv("WHATSAPP_VERIFY_TOKEN") {
		log.Println("✅ WhatsApp webhook verified")
		return c.SendString(challenge)
	}

	return c.SendStatus(fiber.StatusForbidden)
}

// GraphWebhookPayload is the WhatsApp Cloud API webhook envelope, pared
// down to the fields the bot reads.
type GraphWebhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From string `json:"from"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// HandleGraphWebhook processes incoming WhatsApp Cloud API messages.
func (h *WebhookHandler) HandleGraphWebhook(c *fiber.Ctx) error {
	var payload GraphWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing Graph webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, message := range change.Value.Messages {
				if message.Type != "text" || message.Text.Body == "" {
					continue
				}
				from := message.From
				if !strings.HasPrefix(from, "+") {
					from = "+" + from
				}
				log.Printf("📱 Inbound whatsapp message from %s: %s", from, message.Text.Body)
				h.conversations.ProcessInboundMessage(from, message.Text.Body, models.ChannelWhatsApp)
			}
		}
	}

	return c.SendStatus(fiber.StatusOK)
}

// TestWebhookPayload is the JSON body of the development test endpoint.
type TestWebhookPayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// HandleTestWebhook processes test messages without a messaging provider
// (for development).
func (h *WebhookHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}

	log.Printf("🧪 Test webhook received from %s: %s", payload.From, payload.Message)
	h.conversations.ProcessInboundMessage(payload.From, payload.Message, models.ChannelWhatsApp)

	return c.JSON(fiber.Map{"success": true})
}
