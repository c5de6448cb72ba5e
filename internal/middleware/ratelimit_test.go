package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newLimitedApp() *fiber.App {
	app := fiber.New()
	app.Use(RateLimitBySender())
	app.Post("/webhook", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	return app
}

func postForm(t *testing.T, app *fiber.App, form string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp.StatusCode
}

func TestRateLimitBySender(t *testing.T) {
	app := newLimitedApp()

	for i := 0; i < senderBurst; i++ {
		if status := postForm(t, app, "From=%2B919000000001&Body=hello"); status != fiber.StatusCreated {
			t.Fatalf("request %d status = %d, want 201", i+1, status)
		}
	}

	// The burst is spent, so the next message is acknowledged and dropped.
	if status := postForm(t, app, "From=%2B919000000001&Body=hello"); status != fiber.StatusOK {
		t.Fatalf("over-limit status = %d, want 200", status)
	}

	// A different sender has its own budget.
	if status := postForm(t, app, "From=%2B919000000002&Body=hello"); status != fiber.StatusCreated {
		t.Fatalf("other sender status = %d, want 201", status)
	}
}

func TestRateLimitIgnoresMissingSender(t *testing.T) {
	app := newLimitedApp()

	if status := postForm(t, app, "Body=hello"); status != fiber.StatusCreated {
		t.Errorf("status = %d, want 201", status)
	}
}

func TestValidateTwilioSignature(t *testing.T) {
	t.Setenv("TWILIO_AUTH_TOKEN", "test-auth-token")

	app := fiber.New()
	app.Use(ValidateTwilioSignature())
	app.Post("/webhook/twilio", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	form := "From=%2B919876543210&Body=hello"
	send := func(signature string) int {
		req := httptest.NewRequest("POST", "/webhook/twilio", strings.NewReader(form))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if signature != "" {
			req.Header.Set("X-Twilio-Signature", signature)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		return resp.StatusCode
	}

	t.Run("missing signature", func(t *testing.T) {
		if status := send(""); status != fiber.StatusUnauthorized {
			t.Errorf("status = %d, want 401", status)
		}
	})

	t.Run("invalid signature", func(t *testing.T) {
		if status := send("bogus"); status != fiber.StatusUnauthorized {
			t.Errorf("status = %d, want 401", status)
		}
	})

	t.Run("valid signature", func(t *testing.T) {
		signature := calculateTwilioSignature("test-auth-token", "http://example.com/webhook/twilio", map[string]string{
			"From": "+919876543210",
			"Body": "hello",
		})
		if status := send(signature); status != fiber.StatusCreated {
			t.Errorf("status = %d, want 201", status)
		}
	})
}

func TestCalculateTwilioSignatureSortsParams(t *testing.T) {
	a := calculateTwilioSignature("token", "https://example.com/webhook", map[string]string{
		"B": "2", "A": "1",
	})
	b := calculateTwilioSignature("token", "https://example.com/webhook", map[string]string{
		"A": "1", "B": "2",
	})
	if a != b {
		t.Error("signature should not depend on map iteration order")
	}

	c := calculateTwilioSignature("other-token", "https://example.com/webhook", map[string]string{
		"A": "1", "B": "2",
	})
	if a == c {
		t.Error("different tokens should produce different signatures")
	}
}
