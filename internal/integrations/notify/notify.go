// Package notify delivers candidate and counterpart messages through AWS SES
// (email) and SNS (SMS, and WhatsApp via a relay topic).
package notify

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"candidate-onboarding/internal/common/errors"
	"candidate-onboarding/internal/common/logger"
	"candidate-onboarding/internal/models"

	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

type Mailer interface {
	SendText(ctx context.Context, to, subject, body string) (string, error)
}

type Texter interface {
	SendSMS(ctx context.Context, phone, body string) (string, error)
	PublishToTopic(ctx context.Context, topicARN, body string, attributes map[string]string) (string, error)
}

type Config struct {
	ReadinessLinkURL string
	FormLinkURL      string
	CounterpartEmail string
	WhatsAppTopicARN string
}

// Notifier implements readiness-link delivery, counterpart notification and
// form sharing.
type Notifier struct {
	mail Mailer
	sms  Texter
	cfg  Config
	log  logger.Logger
}

// New builds a Notifier. A nil mail or sms disables that channel.
func New(mail Mailer, sms Texter, cfg Config, log logger.Logger) *Notifier {
	return &Notifier{mail: mail, sms: sms, cfg: cfg, log: logger.Component(log, "notify")}
}

// e164 prefixes a 10-digit Indian mobile number with the country code.
func e164(mobile string) string {
	if strings.HasPrefix(mobile, "+") {
		return mobile
	}
	return "+91" + mobile
}

// classify maps an AWS failure to a check failure. Client faults (rejected
// addresses, opted-out numbers) are data failures; the rest are transient.
func classify(err error, code errors.ErrorCode) error {
	retryable := true
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) && apiErr.ErrorFault() == smithy.FaultClient {
		retryable = false
	}
	out := errors.NewCheckFailure(code, err.Error(), retryable)
	if apiErr != nil {
		out.WithMetadata("aws_code", apiErr.ErrorCode())
	}
	return out
}

func (n *Notifier) send(ctx context.Context, msg *models.Notification, code errors.ErrorCode) error {
	var (
		id  string
		err error
	)
	if (msg.Channel == models.ChannelEmail && n.mail == nil) || (msg.Channel != models.ChannelEmail && n.sms == nil) {
		return errors.NewUnsupportedChannelError(msg.Channel)
	}
	switch msg.Channel {
	case models.ChannelEmail:
		id, err = n.mail.SendText(ctx, msg.Recipient, msg.Subject, msg.Body)
	case models.ChannelSMS:
		id, err = n.sms.SendSMS(ctx, e164(msg.Recipient), msg.Body)
	case models.ChannelWhatsApp:
		if n.cfg.WhatsAppTopicARN == "" {
			return errors.NewUnsupportedChannelError(msg.Channel)
		}
		id, err = n.sms.PublishToTopic(ctx, n.cfg.WhatsAppTopicARN, msg.Body, map[string]string{
			"channel":     models.ChannelWhatsApp,
			"phone":       e164(msg.Recipient),
			"candidateId": msg.CandidateID,
			"type":        msg.Type,
		})
	default:
		return errors.NewUnsupportedChannelError(msg.Channel)
	}
	if err != nil {
		msg.Status = "FAILED"
		n.log.Warn("notification failed", map[string]interface{}{
			"notification_id": msg.ID,
			"type":            msg.Type,
			"channel":         msg.Channel,
			"error":           err.Error(),
		})
		return classify(err, code)
	}
	msg.Status = "SENT"
	msg.MessageID = id
	n.log.Info("notification sent", map[string]interface{}{
		"notification_id": msg.ID,
		"type":            msg.Type,
		"channel":         msg.Channel,
		"message_id":      id,
	})
	return nil
}

func newNotification(candidateID, kind, channel, recipient string) *models.Notification {
	return &models.Notification{
		ID:          uuid.NewString(),
		CandidateID: candidateID,
		Recipient:   recipient,
		Type:        kind,
		Channel:     channel,
		Status:      "PENDING",
	}
}

// DeliverReadinessLink sends the assessment link by SMS and email. Both
// contacts are required.
func (n *Notifier) DeliverReadinessLink(ctx context.Context, s models.Subject) (*models.ReadinessDelivery, error) {
	if ch := s.MissingContact(); ch != "" {
		return nil, errors.NewReadinessContactMissingError(ch)
	}
	link := n.cfg.ReadinessLinkURL + s.Code

	sms := newNotification(s.CandidateID, models.NotificationReadinessLink, models.ChannelSMS, s.Mobile)
	sms.Body = fmt.Sprintf("Complete your readiness assessment: %s", link)

	email := newNotification(s.CandidateID, models.NotificationReadinessLink, models.ChannelEmail, s.Email)
	email.Subject = "Your readiness assessment"
	email.Body = fmt.Sprintf("Hello %s,\n\nPlease complete your readiness assessment: %s\n", greeting(s.Name), link)

	for _, msg := range []*models.Notification{sms, email} {
		if err := n.send(ctx, msg, errors.ErrCodeReadinessDeliveryFailed); err != nil {
			return nil, err
		}
	}
	return &models.ReadinessDelivery{Delivered: true, Channels: []string{models.ChannelSMS, models.ChannelEmail}}, nil
}

// NotifyCounterpart emails the interview details to the counterpart.
func (n *Notifier) NotifyCounterpart(ctx context.Context, notice models.CounterpartNotice) (*models.NotificationResult, error) {
	to := notice.Counterpart.Email
	if to == "" {
		to = n.cfg.CounterpartEmail
	}
	if to == "" {
		return nil, errors.NewCheckFailure(errors.ErrCodeCounterpartNotifyFailed, "Counterpart has no email address", false)
	}

	msg := newNotification(notice.Subject.CandidateID, models.NotificationCounterpartInterview, models.ChannelEmail, to)
	msg.Subject = fmt.Sprintf("Interview: %s (%s)", greeting(notice.Subject.Name), notice.Subject.Code)
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", greeting(notice.Counterpart.Name))
	fmt.Fprintf(&b, "An interview has been set up with candidate %s.\n", notice.Subject.Code)
	if notice.Interview.Date != "" {
		fmt.Fprintf(&b, "Date: %s\n", notice.Interview.Date)
	}
	if notice.Interview.Slot != "" {
		fmt.Fprintf(&b, "Slot: %s\n", notice.Interview.Slot)
	}
	if notice.Interview.Mode != "" {
		fmt.Fprintf(&b, "Mode: %s\n", notice.Interview.Mode)
	}
	if notice.Interview.TaskID != "" {
		fmt.Fprintf(&b, "Task: %s\n", notice.Interview.TaskID)
	}
	msg.Body = b.String()

	if err := n.send(ctx, msg, errors.ErrCodeCounterpartNotifyFailed); err != nil {
		return nil, err
	}
	return &models.NotificationResult{Notified: true, MessageID: msg.MessageID}, nil
}

// ShareForm sends the onboarding form link on the requested channel.
func (n *Notifier) ShareForm(ctx context.Context, req models.FormShareRequest) (*models.FormShareResult, error) {
	recipient := req.Subject.Mobile
	if req.Channel == models.ChannelEmail {
		recipient = req.Subject.Email
	}
	if recipient == "" {
		return nil, errors.NewCheckFailure(errors.ErrCodeFormShareFailed,
			fmt.Sprintf("Candidate has no contact for %s", req.Channel), false)
	}

	link := n.cfg.FormLinkURL + req.Subject.Code
	msg := newNotification(req.Subject.CandidateID, models.NotificationOnboardingForm, req.Channel, recipient)
	msg.Subject = "Review your onboarding form"
	msg.Body = fmt.Sprintf("Please review and confirm your onboarding details: %s", link)

	if err := n.send(ctx, msg, errors.ErrCodeFormShareFailed); err != nil {
		return nil, err
	}
	return &models.FormShareResult{Shared: true, Channel: req.Channel}, nil
}

func greeting(name string) string {
	if name == "" {
		return "there"
	}
	return name
}
