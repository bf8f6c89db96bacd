package telegoapi

import (
	"context"

	"github.com/mymmrac/telego"
)

// MessageSender is the part of the bot API used for operator alerts.
// This allows using both the real telego.Bot and mocks.
type MessageSender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}
