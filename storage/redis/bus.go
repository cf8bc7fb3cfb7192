// Package redis carries booking change messages between processes, so a
// write made by one instance reaches the feeds of all of them.
package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"homeservices/pkg/logger"
	"homeservices/pkg/models"
	"homeservices/storage"
)

var _ storage.IChangePublisher = (*Bus)(nil)

type Bus struct {
	client  *redis.Client
	channel string
	log     logger.ILogger
}

func New(ctx context.Context, addr, password string, db int, channel string, log logger.ILogger) (*Bus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect Redis", logger.String("addr", addr), logger.Error(err))
		_ = client.Close()
		return nil, err
	}
	log.Info("Redis connected", logger.String("channel", channel))
	return NewWithClient(client, channel, log), nil
}

func NewWithClient(client *redis.Client, channel string, log logger.ILogger) *Bus {
	return &Bus{client: client, channel: channel, log: log}
}

func (b *Bus) Publish(ctx context.Context, change models.BookingChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Listen forwards every change on the channel to sink until ctx is done.
// ready, if set, is called once the subscription is confirmed or has failed.
func (b *Bus) Listen(ctx context.Context, sink storage.IChangePublisher, ready func(error)) {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	_, err := sub.Receive(ctx)
	if ready != nil {
		ready(err)
	}
	if err != nil {
		b.log.Error("failed to subscribe to change channel", logger.String("channel", b.channel), logger.Error(err))
		return
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var change models.BookingChange
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				b.log.Warning("dropping malformed change message", logger.String("payload", msg.Payload), logger.Error(err))
				continue
			}
			if err := sink.Publish(ctx, change); err != nil {
				b.log.Warning("failed to forward change", logger.String("booking_id", change.BookingID), logger.Error(err))
			}
		}
	}
}

func (b *Bus) Close() error {
	return b.client.Close()
}
