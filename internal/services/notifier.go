package services

import (
	"context"
	"time"

	"github.com/acadocs/backend/internal/models"
	"github.com/acadocs/backend/internal/notify"
	"github.com/acadocs/backend/pkg/logger"
	"gorm.io/gorm"
)

type notification struct {
	// broadcast targets every staff member with a registered token; the
	// token list is resolved at send time, not enqueue time.
	broadcast bool
	token     string
	title     string
	body      string
}

// Notifier decouples push delivery from request handling. Sends are queued
// and drained by a single goroutine; a failed or dropped notification is a
// log line and nothing more.
type Notifier struct {
	db         *gorm.DB
	dispatcher notify.Dispatcher
	queue      chan notification
}

func NewNotifier(db *gorm.DB, dispatcher notify.Dispatcher) *Notifier {
	n := &Notifier{
		db:         db,
		dispatcher: dispatcher,
		queue:      make(chan notification, 256),
	}
	go n.processQueue()
	return n
}

// NotifyUser queues a push to a single registered token.
func (n *Notifier) NotifyUser(token, title, body string) {
	if token == "" {
		return
	}
	n.enqueue(notification{token: token, title: title, body: body})
}

// NotifyStaff queues a broadcast to every admin and personnel user that has
// a notification token registered.
func (n *Notifier) NotifyStaff(title, body string) {
	n.enqueue(notification{broadcast: true, title: title, body: body})
}

func (n *Notifier) enqueue(msg notification) {
	select {
	case n.queue <- msg:
	default:
		logger.Warn("notification_queue_full", map[string]interface{}{
			"title":   msg.title,
			"dropped": true,
		})
	}
}

func (n *Notifier) processQueue() {
	for msg := range n.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n.deliver(ctx, msg)
		cancel()
	}
}

func (n *Notifier) deliver(ctx context.Context, msg notification) {
	if !msg.broadcast {
		if err := n.dispatcher.SendToOne(ctx, msg.token, msg.title, msg.body); err != nil {
			logger.Error("notification_send_failed", err, map[string]interface{}{
				"title": msg.title,
			})
		}
		return
	}

	tokens, err := n.staffTokens(ctx)
	if err != nil {
		logger.Error("notification_staff_lookup_failed", err, nil)
		return
	}
	if len(tokens) == 0 {
		return
	}

	if err := n.dispatcher.SendToMany(ctx, tokens, msg.title, msg.body); err != nil {
		logger.Error("notification_broadcast_failed", err, map[string]interface{}{
			"title":      msg.title,
			"recipients": len(tokens),
		})
	}
}

func (n *Notifier) staffTokens(ctx context.Context) ([]string, error) {
	var tokens []string
	err := n.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role IN ?", []models.UserRole{models.UserRoleAdmin, models.UserRolePersonnel}).
		Where("notification_token IS NOT NULL AND notification_token <> ''").
		Pluck("notification_token", &tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}
