// Package push delivers live notification payloads to connected clients.
// Delivery is best effort: the durable notification record is written before
// any push attempt, so a failed or absent channel loses nothing.
package push

import "context"

// Channel addresses a live-delivery transport by recipient user id.
type Channel interface {
	PushToUser(ctx context.Context, userID string, payload []byte) error
}

// NoopChannel drops every payload. Used when no transport is configured and
// in tests that only care about the durable side.
type NoopChannel struct{}

func (NoopChannel) PushToUser(context.Context, string, []byte) error {
	return nil
}
