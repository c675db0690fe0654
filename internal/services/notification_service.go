package services

import (
	"context"
	"fmt"
	"html"
	"log"

	"gopkg.in/gomail.v2"

	"lexflow/internal/repositories"
	"lexflow/internal/utils"
)

// Notification is the delivery descriptor handed to the gateway.
type Notification struct {
	Type        string // task_assigned|task_overdue|task_upcoming|deadline_reminder|deadline_overdue|daily_summary
	RecipientID int64
	Subject     string
	Body        string
	Metadata    map[string]string
}

// NotificationService delivers notifications out-of-band. Send never
// returns an error: delivery failures are logged and swallowed so that
// callers (jobs, workflow execution) are never blocked by a channel outage.
type NotificationService interface {
	Send(ctx context.Context, n Notification)
}

type notificationService struct {
	users  repositories.UserRepository
	dialer *gomail.Dialer
	from   string
	tg     *TelegramService
	sms    *utils.SMSClient
}

func NewNotificationService(
	users repositories.UserRepository,
	smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string,
	tg *TelegramService,
	sms *utils.SMSClient,
) NotificationService {
	return &notificationService{
		users:  users,
		dialer: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
		tg:     tg,
		sms:    sms,
	}
}

func (s *notificationService) Send(ctx context.Context, n Notification) {
	user, err := s.users.FindByID(ctx, n.RecipientID)
	if err != nil {
		log.Printf("[notify][err] resolve recipient=%d type=%s: %v", n.RecipientID, n.Type, err)
		return
	}
	if user == nil {
		log.Printf("[notify][skip] recipient=%d not found type=%s", n.RecipientID, n.Type)
		return
	}

	if user.Email != "" {
		if err := s.sendEmail(user.Email, n); err != nil {
			log.Printf("[notify][email][err] to=%s type=%s: %v", user.Email, n.Type, err)
		}
	}

	if user.NotifyTelegram && user.TelegramChatID != 0 {
		msg := "<b>" + html.EscapeString(n.Subject) + "</b>\n" + html.EscapeString(n.Body)
		if err := s.tg.SendMessage(user.TelegramChatID, msg); err != nil {
			log.Printf("[notify][tg][err] chat=%d type=%s: %v", user.TelegramChatID, n.Type, err)
		}
	}

	// SMS only for the loud stuff.
	if s.sms != nil && user.Phone != "" && (n.Type == "task_overdue" || n.Type == "deadline_overdue") {
		if _, err := s.sms.SendSMS(user.Phone, n.Subject); err != nil {
			log.Printf("[notify][sms][err] to=%s type=%s: %v", user.Phone, n.Type, err)
		}
	}
}

func (s *notificationService) sendEmail(to string, n Notification) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", n.Subject)

	body := fmt.Sprintf(`
		<h3>%s</h3>
		<p>%s</p>
		<p>LexFlow</p>
	`, html.EscapeString(n.Subject), html.EscapeString(n.Body))
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}
	return nil
}
