package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quoteflow/quoteflow/internal/application/port"
	"github.com/quoteflow/quoteflow/internal/domain/entity"
)

// NotificationService delivers workflow events to interested parties.
// Dispatch enqueues and returns immediately: delivery happens on a
// background worker after the transition has committed, with bounded
// retry. A failed delivery is logged and dropped; it never reverses or
// blocks the transition that produced it.
type NotificationService interface {
	Dispatch(n port.Notification)
	Close()
}

type notificationServiceImpl struct {
	sender      port.NotificationSender
	logger      Logger
	queue       chan port.Notification
	wg          sync.WaitGroup
	closeOnce   sync.Once
	maxAttempts int
	backoff     time.Duration
	sendTimeout time.Duration
}

// NewNotificationService creates a dispatcher with one delivery worker.
func NewNotificationService(sender port.NotificationSender, logger Logger) NotificationService {
	s := &notificationServiceImpl{
		sender:      sender,
		logger:      logger,
		queue:       make(chan port.Notification, 256),
		maxAttempts: 3,
		backoff:     500 * time.Millisecond,
		sendTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go s.run()

	return s
}

// Dispatch enqueues a notification without blocking. When the queue is
// full the notification is dropped and logged: permanent loss is
// undesirable but not fatal to correctness.
func (s *notificationServiceImpl) Dispatch(n port.Notification) {
	select {
	case s.queue <- n:
	default:
		s.logger.Error("Notification queue full, dropping event",
			"event_type", n.EventType,
			"recipient", n.RecipientEmail,
		)
	}
}

// Close stops accepting notifications and waits for the worker to drain
// the queue.
func (s *notificationServiceImpl) Close() {
	s.closeOnce.Do(func() {
		close(s.queue)
	})
	s.wg.Wait()
}

func (s *notificationServiceImpl) run() {
	defer s.wg.Done()

	for n := range s.queue {
		s.deliver(n)
	}
}

func (s *notificationServiceImpl) deliver(n port.Notification) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
		id, err := s.sender.Send(ctx, n)
		cancel()

		if err == nil {
			s.logger.Info("Notification sent",
				"event_type", n.EventType,
				"recipient", n.RecipientEmail,
				"notification_id", id,
				"attempt", attempt,
			)
			return
		}

		lastErr = err
		time.Sleep(s.backoff * time.Duration(attempt))
	}

	s.logger.Error("Notification delivery failed, giving up",
		"error", lastErr,
		"event_type", n.EventType,
		"recipient", n.RecipientEmail,
		"attempts", s.maxAttempts,
	)
}

// quoteEventNotification builds the counterparty notification for a quote
// transition: the actor's display name, the action, and (for reject) the
// reason.
func quoteEventNotification(eventType string, quote *entity.Quote, actor, recipient *entity.Actor, detail string) port.Notification {
	var subject, body string

	switch eventType {
	case entity.EventQuoteSubmitted:
		subject = fmt.Sprintf("Quote %s submitted for approval", quote.QuoteNumber)
		body = fmt.Sprintf("%s submitted quote %s (%s %.2f) for approval.", actor.Name, quote.QuoteNumber, quote.Currency, quote.Total)
	case entity.EventQuoteApproved:
		subject = fmt.Sprintf("Quote %s approved", quote.QuoteNumber)
		body = fmt.Sprintf("%s approved quote %s. Notes: %s", actor.Name, quote.QuoteNumber, detail)
	case entity.EventQuoteRejected:
		subject = fmt.Sprintf("Quote %s rejected", quote.QuoteNumber)
		body = fmt.Sprintf("%s rejected quote %s. Reason: %s", actor.Name, quote.QuoteNumber, detail)
	case entity.EventQuoteAccepted:
		subject = fmt.Sprintf("Quote %s accepted", quote.QuoteNumber)
		body = fmt.Sprintf("%s accepted quote %s.", actor.Name, quote.QuoteNumber)
	case entity.EventQuoteDeclined:
		subject = fmt.Sprintf("Quote %s declined", quote.QuoteNumber)
		body = fmt.Sprintf("%s declined quote %s.", actor.Name, quote.QuoteNumber)
	default:
		subject = fmt.Sprintf("Quote %s updated", quote.QuoteNumber)
		body = fmt.Sprintf("%s updated quote %s.", actor.Name, quote.QuoteNumber)
	}

	return port.Notification{
		EventType:      eventType,
		RecipientEmail: recipient.Email,
		RecipientName:  recipient.Name,
		Subject:        subject,
		Body:           body,
		Payload: map[string]string{
			"quote_id":     quote.ID,
			"quote_number": quote.QuoteNumber,
			"status":       quote.Status,
			"actor_id":     actor.ID,
		},
	}
}
