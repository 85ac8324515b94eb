package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// UserChannel is the pub/sub channel carrying in-app notifications for one user.
func UserChannel(userID string) string {
	return "notifications:" + userID
}
