// Package events pushes placed orders to Kafka for downstream consumers
// (fulfillment, email). The orders repository doubles as the outbox; this
// poller drains unpublished rows on a fixed tick.
package events

import (
	"context"
	"log"
	"time"

	"github.com/LeeCheeHoong/PetCare-Portal/internal/orders"
	"github.com/segmentio/kafka-go"
)

const eventTypeOrderPlaced = "order.placed"

// OrderOutbox is the slice of the orders repository the poller needs.
type OrderOutbox interface {
	GetUnpublishedOrders(ctx context.Context, limit int) ([]*orders.OutboxEntry, error)
	MarkOrderPublished(ctx context.Context, id string) error
}

// messageWriter is satisfied by *kafka.Writer; tests swap in a fake.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type OutboxPoller struct {
	tick   time.Duration
	batch  int
	outbox OrderOutbox
	writer messageWriter
}

func NewOutboxPoller(outbox OrderOutbox, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "order-events",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{tick: time.Second, batch: 100, outbox: outbox, writer: w}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublished(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublished(ctx context.Context) {
	entries, err := p.outbox.GetUnpublishedOrders(ctx, p.batch)
	if err != nil {
		log.Printf("failed to fetch unpublished orders: %v", err)
		return
	}

	for _, entry := range entries {
		if errPublish := p.publish(ctx, entry); errPublish != nil {
			log.Printf("failed to publish order %v: %v", entry.ID, errPublish)
			continue
		}

		if errMark := p.outbox.MarkOrderPublished(ctx, entry.ID); errMark != nil {
			log.Printf("failed to mark order %v as published: %v", entry.ID, errMark)
			continue
		}
	}
}

func (p *OutboxPoller) publish(ctx context.Context, entry *orders.OutboxEntry) error {
	msg := kafka.Message{
		Key:   []byte(entry.ID), // order id for partition ordering
		Value: entry.Payload,    // already JSON from the repository
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventTypeOrderPlaced)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
