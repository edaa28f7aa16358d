package adapters

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/matrixnet/social-service/internal/service"
	"github.com/matrixnet/social-service/pkg/helpers"
	"github.com/matrixnet/social-service/pkg/mailer"
)

// EmailQueueNotifier hands messages to the email worker through the
// RabbitMQ queue. Actual delivery happens out of process via Mailgun.
type EmailQueueNotifier struct {
	Publisher *helpers.RabbitPublisher
}

func NewEmailQueueNotifier(pub *helpers.RabbitPublisher) *EmailQueueNotifier {
	return &EmailQueueNotifier{Publisher: pub}
}

func (n *EmailQueueNotifier) Send(ctx context.Context, to, subject, body string) error {
	return n.Publisher.PublishJSON(ctx, mailer.EmailJob{
		To:      to,
		Subject: subject,
		Text:    body,
	})
}

// LogNotifier writes notifications to the log and nothing else. Used when
// RabbitMQ is not configured.
type LogNotifier struct {
	Logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{Logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, to, subject, body string) error {
	n.Logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
		"body":    body,
	}).Info("notify")
	return nil
}

var (
	_ service.Notifier = (*EmailQueueNotifier)(nil)
	_ service.Notifier = (*LogNotifier)(nil)
)
