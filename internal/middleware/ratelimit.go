package middleware

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// senderLimit allows 30 messages per minute per phone number.
const (
	senderRate  = rate.Limit(30.0 / 60.0)
	senderBurst = 30
)

type senderLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	limiterMu sync.Mutex
	limiters  = make(map[string]*senderLimiter)
)

// RateLimitBySender throttles webhook traffic per sending phone number.
// Over-limit messages are acknowledged with 200 and dropped so the
// provider does not retry them.
func RateLimitBySender() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sender := senderFromRequest(c)
		if sender == "" {
			return c.Next()
		}

		if !limiterFor(sender).Allow() {
			log.Printf("⛔ Rate limit exceeded for %s, dropping message", sender)
			return c.SendStatus(fiber.StatusOK)
		}

		return c.Next()
	}
}

func senderFromRequest(c *fiber.Ctx) string {
	sender := c.FormValue("From")
	sender = strings.TrimPrefix(sender, "whatsapp:")
	return sender
}

func limiterFor(sender string) *rate.Limiter {
	limiterMu.Lock()
	defer limiterMu.Unlock()

	entry, ok := limiters[sender]
	if !ok {
		entry = &senderLimiter{limiter: rate.NewLimiter(senderRate, senderBurst)}
		limiters[sender] = entry
	}
	entry.lastSeen = time.Now()

	// Drop limiters idle for an hour so the map does not grow unbounded.
	if len(limiters) > 10000 {
		cutoff := time.Now().Add(-time.Hour)
		for phone, e := range limiters {
			if e.lastSeen.Before(cutoff) {
				delete(limiters, phone)
			}
		}
	}

	return entry.limiter
}
