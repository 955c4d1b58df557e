package service

import (
	"context"
	"fmt"
	"html"
	"time"

	"go.uber.org/zap"

	"github.com/khoido2003/natour-api/internal/models"
	"github.com/khoido2003/natour-api/pkg/jobs"
	"github.com/khoido2003/natour-api/pkg/mailer"
)

const (
	mailJobPasswordReset = "password_reset"
	mailJobWelcome       = "welcome"
)

type mailQueue interface {
	Enqueue(ctx context.Context, job jobs.Job) error
}

// MailService renders transactional mail and hands it to the delivery queue.
type MailService struct {
	mailer  mailer.Mailer
	queue   mailQueue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewMailService constructs the service. Call Bind with the queue that runs Deliver.
func NewMailService(m mailer.Mailer, metrics *MetricsService, logger *zap.Logger) *MailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailService{mailer: m, metrics: metrics, logger: logger}
}

// Bind attaches the queue used for asynchronous delivery.
func (s *MailService) Bind(queue mailQueue) {
	s.queue = queue
}

// Deliver is the queue handler: it sends one queued message.
func (s *MailService) Deliver(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mailer.Message)
	if !ok {
		s.logger.Error("dropping mail job with unexpected payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := s.mailer.Send(sendCtx, msg)
	s.metrics.RecordMailDelivery(job.Type, err)
	if err != nil {
		return fmt.Errorf("send %s mail: %w", job.Type, err)
	}
	s.logger.Info("mail delivered", zap.String("type", job.Type), zap.String("job_id", job.ID))
	return nil
}

// SendPasswordReset queues the reset link for user.
func (s *MailService) SendPasswordReset(ctx context.Context, user *models.User, resetURL string, ttl time.Duration) error {
	minutes := int(ttl.Minutes())
	name, link := html.EscapeString(user.Name), html.EscapeString(resetURL)
	msg := mailer.Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Your password reset token (valid for %d min)", minutes),
		Text: fmt.Sprintf("Hi %s,\n\nForgot your password? Submit a PATCH request with your new password and passwordConfirm to: %s\n\nIf you didn't forget your password, please ignore this email.\n",
			user.Name, resetURL),
		HTML: fmt.Sprintf(`<p>Hi %s,</p><p>Forgot your password? Submit a PATCH request with your new password and passwordConfirm to <a href="%s">%s</a>.</p><p>If you didn't forget your password, please ignore this email.</p>`,
			name, link, link),
	}
	return s.enqueue(ctx, mailJobPasswordReset, msg)
}

// SendWelcome queues the greeting sent after signup.
func (s *MailService) SendWelcome(ctx context.Context, user *models.User, baseURL string) error {
	msg := mailer.Message{
		To:      user.Email,
		Subject: "Welcome to the Natours family!",
		Text:    fmt.Sprintf("Hi %s,\n\nWelcome to Natours. Upload a photo on your account page: %s/me\n", user.Name, baseURL),
	}
	return s.enqueue(ctx, mailJobWelcome, msg)
}

func (s *MailService) enqueue(ctx context.Context, kind string, msg mailer.Message) error {
	if s.queue == nil {
		return fmt.Errorf("mail queue not configured")
	}
	return s.queue.Enqueue(ctx, jobs.Job{Type: kind, Payload: msg})
}
