package email

import (
	"context"
	"fmt"
	"time"

	"hikelog/internal/config"
	"hikelog/internal/logger"
	"hikelog/internal/models"

	"github.com/mailgun/mailgun-go/v5"
)

type Service struct {
	client      mailgun.Mailgun
	domain      string
	senderEmail string
	senderName  string
	recipient   string
	baseURL     string
	enabled     bool
}

// NewService returns a reminder service. It stays disabled unless Mailgun
// credentials and a recipient address are all configured.
func NewService(cfg *config.Config) *Service {
	enabled := cfg.MailgunDomain != "" && cfg.MailgunAPIKey != "" && cfg.ReviewReminderEmail != ""

	var client mailgun.Mailgun
	if enabled {
		client = mailgun.NewMailgun(cfg.MailgunAPIKey)
	}

	return &Service{
		client:      client,
		domain:      cfg.MailgunDomain,
		senderEmail: cfg.MailgunSenderEmail,
		senderName:  cfg.MailgunSenderName,
		recipient:   cfg.ReviewReminderEmail,
		baseURL:     cfg.BaseURL,
		enabled:     enabled,
	}
}

func (s *Service) IsEnabled() bool {
	return s != nil && s.enabled
}

func (s *Service) reviewURL(trip *models.Trip) string {
	return fmt.Sprintf("%s/trip/%d/review_gear", s.baseURL, trip.ID)
}

// SendReviewReminder emails a link to the review form of a freshly logged trip.
func (s *Service) SendReviewReminder(trip *models.Trip, gear []models.Gear) error {
	if !s.IsEnabled() {
		return fmt.Errorf("email service is not configured")
	}

	subject := fmt.Sprintf("How did your gear do on %s?", trip.Name)
	htmlBody := s.generateReminderHTML(trip, gear)
	textBody := s.generateReminderText(trip, gear)

	message := mailgun.NewMessage(
		s.domain,
		fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail),
		subject,
		textBody,
		s.recipient,
	)
	message.SetHTML(htmlBody)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := s.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send review reminder for trip %d: %w", trip.ID, err)
	}

	logger.Info("Review reminder sent", "trip_id", trip.ID, "response", fmt.Sprintf("%v", resp))
	return nil
}
