// Package publisher drains the transactional outbox. Events are written in
// the same database transaction as the state they describe; this poller
// dispatches them after commit, so a slow mail server or broker can never
// fail or roll back a checkout.
package publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/domain"
	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/mailer"
	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/repository"
)

// EventWriter is satisfied by *kafka.Writer.
type EventWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type OutboxPoller struct {
	tick   time.Duration
	batch  int
	store  repository.OutboxStore
	writer EventWriter
	mail   mailer.Mailer
}

func NewOutboxPoller(store repository.OutboxStore, mail mailer.Mailer, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "cafe-loyalty-events",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{
		tick:   time.Second,
		batch:  100,
		store:  store,
		writer: w,
		mail:   mail,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.store.GetUnprocessedEvents(ctx, p.batch)
	if err != nil {
		log.Printf("failed to fetch outbox events: %v", err)
		return
	}

	for _, event := range events {
		var errDispatch error
		if event.EventType == domain.EventRatingEmail {
			errDispatch = p.sendRatingEmail(ctx, event)
		} else {
			errDispatch = p.publishToKafka(ctx, event)
		}
		if errDispatch != nil {
			// left unprocessed; retried next tick
			log.Printf("failed to dispatch event id = %v with error %v", event.ID, errDispatch)
			continue
		}

		if errMark := p.store.MarkEventProcessed(ctx, event.ID); errMark != nil {
			log.Printf("failed to mark event as processed id = %v with error %v", event.ID, errMark)
		}
	}
}

func (p *OutboxPoller) sendRatingEmail(ctx context.Context, event *domain.OutboxEvent) error {
	var payload domain.RatingEmailPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}

	if err := p.mail.SendRatingEmail(ctx,
		payload.Recipient,
		payload.Name,
		payload.PointsEarned,
		payload.TotalPoints,
		payload.RatingURL,
		payload.OrderNumber,
	); err != nil {
		return err
	}

	if err := p.store.MarkEmailSent(ctx, payload.LinkID); err != nil {
		log.Printf("failed to flag email sent for link %d: %v", payload.LinkID, err)
	}
	return nil
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *domain.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
