package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"sayit/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// BusChannel carries notifications between API instances.
const BusChannel = "sayit:notifications"

// Connect builds a client from a redis:// URL or a plain host:port.
func Connect(redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

type busMessage struct {
	Recipient string          `json:"recipient"`
	Frame     json.RawMessage `json:"frame"`
}

// RedisBus fans notifications out through Redis so every instance can reach
// its own sockets. Each instance runs one subscriber feeding its local hub.
type RedisBus struct {
	client *redis.Client
	hub    *Hub
	log    logrus.FieldLogger
}

func NewRedisBus(client *redis.Client, hub *Hub, log logrus.FieldLogger) *RedisBus {
	return &RedisBus{client: client, hub: hub, log: log}
}

// Publish sends the notification to every instance. If Redis is unreachable
// the local hub still gets it.
func (b *RedisBus) Publish(ctx context.Context, n *models.Notification) error {
	payload, err := encodeBusMessage(n)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, BusChannel, payload).Err(); err != nil {
		if localErr := b.hub.Publish(ctx, n); localErr != nil {
			b.log.WithError(localErr).Warn("local notification push failed")
		}
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Run subscribes to the bus and delivers messages to the local hub until ctx
// is cancelled.
func (b *RedisBus) Run(ctx context.Context) {
	pubsub := b.client.Subscribe(ctx, BusChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			key, frame, err := decodeBusMessage(msg.Payload)
			if err != nil {
				b.log.WithError(err).Warn("dropping malformed bus message")
				continue
			}
			if err := b.hub.Deliver(ctx, key, frame); err != nil {
				return
			}
		}
	}
}

func (b *RedisBus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}

func encodeBusMessage(n *models.Notification) ([]byte, error) {
	frame, err := json.Marshal(Envelope{Type: "notification", Data: n})
	if err != nil {
		return nil, err
	}
	return json.Marshal(busMessage{Recipient: n.Recipient.Key(), Frame: frame})
}

func decodeBusMessage(payload string) (string, []byte, error) {
	var msg busMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return "", nil, err
	}
	if msg.Recipient == "" || len(msg.Frame) == 0 {
		return "", nil, fmt.Errorf("bus message missing recipient or frame")
	}
	return msg.Recipient, msg.Frame, nil
}
