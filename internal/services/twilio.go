package services

import (
	"fmt"
	"log"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/Codexsur/AROGYAX/internal/models"
)

// Messenger sends one outbound message over a channel. Implemented by
// TwilioService in production and by recording fakes in tests.
type Messenger interface {
	Send(phone, channel, message string) error
}

type TwilioService struct {
	client       *twilio.RestClient
	whatsappFrom string // Format: "whatsapp:+14155238886"
	smsFrom      string
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService() (*TwilioService, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	whatsappFrom := os.Getenv("TWILIO_WHATSAPP_FROM")
	smsFrom := os.Getenv("TWILIO_SMS_FROM")

	if accountSid == "" || authToken == "" || whatsappFrom == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}
	if smsFrom == "" {
		smsFrom = whatsappFrom
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &TwilioService{
		client:       client,
		whatsappFrom: whatsappFrom,
		smsFrom:      smsFrom,
	}, nil
}

// Send dispatches a message over the given channel, defaulting to WhatsApp.
func (t *TwilioService) Send(phone, channel, message string) error {
	if channel == models.ChannelSMS {
		return t.SendSMS(phone, message)
	}
	return t.SendWhatsAppMessage(phone, message)
}

// SendWhatsAppMessage sends a WhatsApp message via Twilio
func (t *TwilioService) SendWhatsAppMessage(to string, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.whatsappFrom)
	params.SetTo(fmt.Sprintf("whatsapp:%s", to))
	params.SetBody(message)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp message: %v", err)
		return err
	}

	log.Printf("✅ WhatsApp message sent! SID: %s", *resp.Sid)
	return nil
}

// SendSMS sends a plain SMS via Twilio
func (t *TwilioService) SendSMS(to string, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.smsFrom)
	params.SetTo(to)
	params.SetBody(message)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send SMS: %v", err)
		return err
	}

	log.Printf("✅ SMS sent! SID: %s", *resp.Sid)
	return nil
}
