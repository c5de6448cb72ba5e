package handlers

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/Codexsur/AROGYAX/internal/models"
	"github.com/Codexsur/AROGYAX/internal/services"
	"github.com/Codexsur/AROGYAX/internal/storage"
)

type sentMessage struct {
	phone   string
	channel string
	body    string
}

type recordingMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (r *recordingMessenger) Send(phone, channel, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMessage{phone, channel, message})
	return nil
}

func newWebhookFixture() (*WebhookHandler, *recordingMessenger, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	messenger := &recordingMessenger{}
	clock := services.RealClock{}
	meds := services.NewMedicationService(store, clock)

	conversations := services.NewConversationService(
		store,
		messenger,
		clock,
		services.NewEmergencyDetector(),
		services.NewAssessmentEngine(),
		services.NewIntentRouter(),
		meds,
		services.NewKnowledgeService(),
		services.NewTranslationService(),
	)

	return NewWebhookHandler(conversations), messenger, store
}

func TestHandleTwilioWebhook(t *testing.T) {
	handler, messenger, store := newWebhookFixture()

	app := fiber.New()
	app.Post("/webhook/twilio", handler.HandleTwilioWebhook)

	form := "From=whatsapp%3A%2B919876543210&Body=hello"
	req := httptest.NewRequest("POST", "/webhook/twilio", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	user, err := store.GetUserByPhone("+919876543210")
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if user.Channel != models.ChannelWhatsApp {
		t.Errorf("channel = %q, want whatsapp", user.Channel)
	}
	if len(messenger.sent) == 0 {
		t.Fatal("no reply dispatched")
	}
	if messenger.sent[0].phone != "+919876543210" {
		t.Errorf("reply phone = %q", messenger.sent[0].phone)
	}
}

func TestHandleTwilioWebhookAcksStatusCallbacks(t *testing.T) {
	handler, messenger, _ := newWebhookFixture()

	app := fiber.New()
	app.Post("/webhook/twilio", handler.HandleTwilioWebhook)

	req := httptest.NewRequest("POST", "/webhook/twilio", strings.NewReader("MessageSid=SM123"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(messenger.sent) != 0 {
		t.Errorf("status callback should not trigger a reply: %+v", messenger.sent)
	}
}

func TestHandleGraphVerify(t *testing.T) {
	t.Setenv("WHATSAPP_VERIFY_TOKEN", "verify-secret")

	handler, _, _ := newWebhookFixture()
	app := fiber.New()
	app.Get("/webhook/whatsapp", handler.HandleGraphVerify)

	t.Run("valid token echoes challenge", func(t *testing.T) {
		req := httptest.NewRequest("GET",
			"/webhook/whatsapp?hub.mode=subscribe&hub.verify_token=verify-secret&hub.challenge=12345", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if string(body) != "12345" {
			t.Errorf("body = %q, want challenge", body)
		}
	})

	t.Run("wrong token is rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET",
			"/webhook/whatsapp?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != fiber.StatusForbidden {
			t.Errorf("status = %d, want 403", resp.StatusCode)
		}
	})
}

func TestHandleGraphWebhook(t *testing.T) {
	handler, messenger, store := newWebhookFixture()

	app := fiber.New()
	app.Post("/webhook/whatsapp", handler.HandleGraphWebhook)

	payload := `{"entry":[{"changes":[{"value":{"messages":[{"from":"919876543210","type":"text","text":{"body":"hello"}}]}}]}]}`
	req := httptest.NewRequest("POST", "/webhook/whatsapp", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if _, err := store.GetUserByPhone("+919876543210"); err != nil {
		t.Fatalf("user not created from graph payload: %v", err)
	}
	if len(messenger.sent) == 0 {
		t.Fatal("no reply dispatched")
	}
}
