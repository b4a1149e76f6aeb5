package skills

import (
	"context"
	"fmt"

	"github.com/hsinyulin/finchat/internal/lottery"
)

// Lottery answers draw-result queries. The argument is the full user message;
// the game name is re-extracted from it.
type Lottery struct {
	client *lottery.Client
}

// NewLottery wires the lottery skill.
func NewLottery(client *lottery.Client) *Lottery {
	return &Lottery{client: client}
}

// Handle returns the latest draw summary for the game named in the message.
func (l *Lottery) Handle(ctx context.Context, message string) (string, error) {
	game, ok := lottery.GameFromMessage(message)
	if !ok {
		return "", fmt.Errorf("no known lottery game in %q", message)
	}
	return l.client.LatestDraw(ctx, game)
}
