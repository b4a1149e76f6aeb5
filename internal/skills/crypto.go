package skills

import (
	"context"

	"github.com/hsinyulin/finchat/internal/marketdata"
)

// Crypto answers spot price queries for a coin id.
type Crypto struct {
	client *marketdata.Crypto
}

// NewCrypto wires the crypto skill.
func NewCrypto(client *marketdata.Crypto) *Crypto {
	return &Crypto{client: client}
}

// Handle returns the spot price summary for the coin id extracted by the
// classifier ("bitcoin", "dogecoin", or a "cb:"/"$:" remainder).
func (c *Crypto) Handle(ctx context.Context, coinID string) (string, error) {
	return c.client.SpotPrice(ctx, coinID)
}
