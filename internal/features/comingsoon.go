package features

import (
	"context"

	"github.com/jdelaire/bingobot/core"
)

const (
	DailyQuestsText = "🎯 Daily Quests feature coming soon!"
	ShopText        = "🪙 Shop feature coming soon!"
)

// ComingSoon answers a menu entry that has no feature yet with a fixed text.
type ComingSoon struct {
	Text string
}

func (c ComingSoon) HandleCallback(ctx context.Context, cb *core.Callback) error {
	return cb.Reply(ctx, c.Text, nil)
}
