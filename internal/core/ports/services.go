package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/maksimkh34/KryptoBot/internal/core/domain"
)

// AccountLedger owns account balances, blocked flags and debt-floor
// enforcement. The privileged account id bypasses both the floor and the
// blocked check in every operation.
type AccountLedger interface {
	FindAccount(id int64) (*domain.Account, error)
	// AddAccount fails with LED_003 if the id already exists.
	AddAccount(id int64, initBalance domain.Amount, blocked bool) (*domain.Account, error)
	// Block and Unblock are no-ops with a logged warning when the account
	// is absent.
	Block(id int64)
	Unblock(id int64)
	// GetBalance returns domain.Unlimited for the privileged id.
	GetBalance(id int64) decimal.Decimal
	CanPay(id int64, amount domain.Amount) bool
	// SubtractFromBalance atomically re-checks CanPay and decrements on
	// success; on failure it returns false and mutates nothing.
	SubtractFromBalance(id int64, amount domain.Amount) bool
	// AddToBalance unconditionally increments the balance (refund path).
	AddToBalance(id int64, amount domain.Amount)
	Transfer(fromID, toID int64, amount domain.Amount) error
}

// WalletPool holds the custodial wallet set. Balance and bandwidth are never
// cached: every decision re-queries the settlement network.
type WalletPool interface {
	Wallets() []domain.Wallet
	AddWallet(ctx context.Context, secretKey, address string) error
	RemoveWallet(address string) error
	// SetWalletBlocked withdraws a wallet from (or returns it to) funding
	// decisions without removing it from the pool.
	SetWalletBlocked(address string, blocked bool) error
	// LiveBalance and LiveBandwidth treat any settlement query failure as
	// zero for this decision only (fail-safe-exclude).
	LiveBalance(ctx context.Context, w domain.Wallet) decimal.Decimal
	LiveBandwidth(ctx context.Context, w domain.Wallet) int64
	// MaxPayableAmount is the maximum live balance across all wallets, in
	// settlement units.
	MaxPayableAmount(ctx context.Context) decimal.Decimal
}

// PaymentDispatcher selects a funding wallet under the fee/bandwidth policy
// and invokes the settlement transfer. It never mutates the ledger.
type PaymentDispatcher interface {
	// ChooseWallet prices a payment: the tightest-fit funding wallet plus
	// the fee to apply, or POOL_001 when no wallet can fund the amount.
	ChooseWallet(ctx context.Context, amount domain.Amount) (domain.Quote, error)
	// Pay executes the quoted dispatch. The outcome's fee classification
	// follows the quote, so the charge and the outcome cannot diverge.
	Pay(ctx context.Context, quote domain.Quote, address string, amount domain.Amount) domain.Outcome
}

// RuntimeConfig exposes the live-tunable dispatch parameters. Values are
// re-read from the backing document at query time, never cached by callers.
type RuntimeConfig interface {
	Rate() decimal.Decimal
	BandwidthThreshold() int64
	FlatFee() decimal.Decimal
}
