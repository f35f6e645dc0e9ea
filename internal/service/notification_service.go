package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/monitor-report/internal/config"
	"github.com/spec-kit/monitor-report/internal/events"
)

// ManagersChannel is the RecipientID of notifications addressed to all managers.
const ManagersChannel int64 = 0

// Notification is one rendered message.
type Notification struct {
	EventType   events.EventType
	ReportID    int64
	RecipientID int64
	Subject     string
}

// NotificationService turns report and comment events into notifications.
// Delivery is log-only: email and webhook senders are stubs.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{dispatcher: dispatcher, logger: logger, cfg: cfg}
}

// RegisterHandlers subscribes to events. wrap, when set, decorates every handler.
func (n *NotificationService) RegisterHandlers(wrap func(events.EventHandler) events.EventHandler) {
	if n.dispatcher == nil {
		return
	}
	if wrap == nil {
		wrap = func(h events.EventHandler) events.EventHandler { return h }
	}
	for _, t := range []events.EventType{events.EventReportCreated, events.EventCommentAdded, events.EventCommentDeleted} {
		n.dispatcher.Subscribe(t, wrap(n.handle))
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	msg, ok := Render(event)
	if !ok {
		n.logger.Debug("event needs no notification",
			zap.String("event_type", string(event.Type)),
			zap.Int64("report_id", event.ReportID))
		return nil
	}

	n.logger.Info("notification",
		zap.String("event_type", string(msg.EventType)),
		zap.Int64("report_id", msg.ReportID),
		zap.Int64("recipient_id", msg.RecipientID),
		zap.Int64("actor_id", event.Actor.UserID))
	n.sendEmail(ctx, msg)
	n.sendWebhook(ctx, msg)
	return nil
}

// Render builds the notification for event. Comment deletions notify nobody.
func Render(event events.Event) (Notification, bool) {
	msg := Notification{EventType: event.Type, ReportID: event.ReportID, RecipientID: ManagersChannel}
	switch event.Type {
	case events.EventReportCreated:
		msg.Subject = fmt.Sprintf("new daily report #%d", event.ReportID)
		if p, ok := event.Payload.(events.ReportCreatedPayload); ok {
			msg.Subject = fmt.Sprintf("new daily report for %s covering %d server(s)", p.ReportDate, p.MonitoringCount)
		}
	case events.EventCommentAdded:
		msg.Subject = fmt.Sprintf("new comment on report #%d", event.ReportID)
		if p, ok := event.Payload.(events.CommentAddedPayload); ok {
			msg.RecipientID = p.ReportOwner
			msg.Subject = fmt.Sprintf("manager commented on %s: %s", p.TargetField, p.TextPreview)
		}
	default:
		return Notification{}, false
	}
	return msg, true
}

func (n *NotificationService) sendEmail(_ context.Context, msg Notification) {
	if n.cfg.EmailFrom == "" || msg.RecipientID == ManagersChannel {
		return
	}
	n.logger.Debug("email notification stub",
		zap.String("from", n.cfg.EmailFrom),
		zap.Int64("recipient_id", msg.RecipientID),
		zap.String("subject", msg.Subject))
}

func (n *NotificationService) sendWebhook(_ context.Context, msg Notification) {
	if n.cfg.WebhookURL == "" {
		return
	}
	n.logger.Debug("webhook notification stub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_type", string(msg.EventType)),
		zap.String("subject", msg.Subject))
}
