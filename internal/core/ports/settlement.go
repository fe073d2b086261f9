package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// SettlementClient is the boundary to the external settlement network.
// All calls are synchronous and blocking; transaction signing and broadcast
// mechanics are opaque behind it. Amounts are in settlement units.
type SettlementClient interface {
	// ValidateAddress reports whether the address is well-formed on the network.
	ValidateAddress(ctx context.Context, address string) (bool, error)
	// Balance returns the live balance of the address.
	Balance(ctx context.Context, address string) (decimal.Decimal, error)
	// Bandwidth returns the remaining free bandwidth of the address.
	Bandwidth(ctx context.Context, address string) (int64, error)
	// Transfer signs and broadcasts a transfer from the wallet owning
	// secretKey, returning the transaction id.
	Transfer(ctx context.Context, secretKey, toAddress string, amount decimal.Decimal) (string, error)
}
