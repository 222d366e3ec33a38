package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/productapi/pkg/config"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// MessageHandler processes one message. A nil error acks it, any other error naks it for redelivery.
type MessageHandler func(ctx context.Context, subject string, data []byte) error

// ackableMsg is the part of jetstream.Msg the subscriber uses.
type ackableMsg interface {
	Subject() string
	Data() []byte
	Ack() error
	Nak() error
}

// Subscribe creates the pull consumer described by cfg and feeds every message to handle
// until ctx is cancelled.
func Subscribe(ctx context.Context, js jetstream.JetStream, cfg config.SubscriberConfig, handle MessageHandler, logger *slog.Logger) error {
	consumerCfg := jetstream.ConsumerConfig{
		FilterSubject: cfg.Subject,
		Durable:       cfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	if cfg.Consumer == "" {
		consumerCfg.DeliverPolicy = jetstream.DeliverNewPolicy
	}
	consumer, err := js.CreateOrUpdateConsumer(ctx, cfg.Stream, consumerCfg)
	if err != nil {
		return fmt.Errorf("failed to create consumer on stream %s: %w", cfg.Stream, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		batch, err := consumer.Fetch(cfg.Batch, jetstream.FetchMaxWait(cfg.Timeout))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			logger.ErrorContext(ctx, "failed to fetch messages", "error", err)
			sleep(ctx, cfg.Interval)
			continue
		}
		for msg := range batch.Messages() {
			handleMessage(ctx, msg, handle, logger)
		}
		if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
			logger.WarnContext(ctx, "fetch ended with error", "error", err)
		}
	}
}

func handleMessage(ctx context.Context, msg ackableMsg, handle MessageHandler, logger *slog.Logger) {
	if msg == nil {
		logger.ErrorContext(ctx, "received nil message")
		return
	}
	if err := handle(ctx, msg.Subject(), msg.Data()); err != nil {
		logger.ErrorContext(ctx, "failed to handle message", "subject", msg.Subject(), "error", err)
		if err := msg.Nak(); err != nil {
			logger.ErrorContext(ctx, "failed to nack message", "error", err)
		}
		return
	}
	if err := msg.Ack(); err != nil {
		logger.ErrorContext(ctx, "failed to ack message", "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
