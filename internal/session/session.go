package session

import (
	"context"

	"github.com/stoneyard/shipment-bot/internal/form"
)

// Store keeps conversations between inbound messages. A conversation that
// was never saved, or sat idle past the store's TTL, loads as a fresh idle one.
type Store interface {
	Load(ctx context.Context, id string) (*form.Conversation, error)
	Save(ctx context.Context, c *form.Conversation) error
	Delete(ctx context.Context, id string) error
}
