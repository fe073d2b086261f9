package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/maksimkh34/KryptoBot/internal/core/domain"
	"github.com/maksimkh34/KryptoBot/internal/core/ports"
	"github.com/maksimkh34/KryptoBot/pkg/apperror"
)

// DispatchService implements ports.PaymentDispatcher. ChooseWallet prices
// one payment into a quote under the fee/bandwidth policy; Pay executes
// exactly that quote, so the fee the caller charged is the fee the outcome
// reports. The ledger is never touched here: the caller debits between
// quote and dispatch and credits back on a non-success outcome.
type DispatchService struct {
	pool    ports.WalletPool
	client  ports.SettlementClient
	runtime ports.RuntimeConfig
	log     zerolog.Logger
}

// NewDispatchService creates a DispatchService.
func NewDispatchService(
	pool ports.WalletPool,
	client ports.SettlementClient,
	runtime ports.RuntimeConfig,
	log zerolog.Logger,
) *DispatchService {
	return &DispatchService{
		pool:    pool,
		client:  client,
		runtime: runtime,
		log:     log,
	}
}

// candidate pairs a wallet with the live balance observed for this decision,
// so the remainder comparison reuses one query per wallet.
type candidate struct {
	wallet  domain.Wallet
	balance decimal.Decimal
}

// ChooseWallet prices a payment into a quote. Blocked wallets never fund;
// within the sufficient-balance subset, wallets meeting the bandwidth
// threshold transfer fee-free; the tightest fit (smallest balance remainder)
// wins, first wallet in pool order on ties. POOL_001 when no wallet can
// fund the amount. The quote carries the attempt id that correlates all log
// lines of this payment.
func (s *DispatchService) ChooseWallet(ctx context.Context, amount domain.Amount) (domain.Quote, error) {
	if !amount.IsPositive() {
		return domain.Quote{}, apperror.ErrInvalidAmount(amount.String())
	}

	need, err := amount.Settlement(s.runtime.Rate())
	if err != nil {
		return domain.Quote{}, err
	}

	var sufficient []candidate
	for _, w := range s.pool.Wallets() {
		if w.Blocked() {
			continue
		}
		if bal := s.pool.LiveBalance(ctx, w); bal.GreaterThanOrEqual(need) {
			sufficient = append(sufficient, candidate{wallet: w, balance: bal})
		}
	}
	if len(sufficient) == 0 {
		s.log.Warn().Str("need_settlement", need.String()).Msg("no wallet can fund payment")
		return domain.Quote{}, apperror.ErrNoFundingWallet()
	}

	attempt := uuid.NewString()[:8]

	threshold := s.runtime.BandwidthThreshold()
	var feeFree []candidate
	for _, c := range sufficient {
		if s.pool.LiveBandwidth(ctx, c.wallet) >= threshold {
			feeFree = append(feeFree, c)
		}
	}

	if len(feeFree) > 0 {
		chosen := tightestFit(feeFree, need)
		return domain.Quote{Attempt: attempt, Wallet: chosen.wallet}, nil
	}

	chosen := tightestFit(sufficient, need)
	return domain.Quote{
		Attempt: attempt,
		Wallet:  chosen.wallet,
		Fee:     domain.AmountFromLedger(s.runtime.FlatFee()),
	}, nil
}

// Pay executes the quoted dispatch to a terminal outcome. The wallet and
// fee are taken from the quote, never re-chosen; any transfer failure maps
// to ERROR and the caller owns the compensating ledger credit.
func (s *DispatchService) Pay(ctx context.Context, quote domain.Quote, address string, amount domain.Amount) domain.Outcome {
	log := s.log.With().Str("attempt", quote.Attempt).Str("to", address).Logger()

	settle, err := amount.Settlement(s.runtime.Rate())
	if err != nil {
		log.Error().Err(err).Msg("settlement conversion failed")
		return domain.OutcomeError
	}

	txid, err := s.client.Transfer(ctx, quote.Wallet.SecretKey(), address, settle)
	if err != nil {
		log.Error().Err(err).Str("wallet", quote.Wallet.Address()).Msg("settlement transfer failed")
		return domain.OutcomeError
	}

	log.Info().
		Str("txid", txid).
		Str("wallet", quote.Wallet.Address()).
		Str("amount_settlement", settle.String()).
		Bool("fee_applied", !quote.Fee.IsZero()).
		Msg("payment dispatched")

	if quote.Fee.IsZero() {
		return domain.OutcomeCompleted
	}
	return domain.OutcomeCompletedWithFee
}

// tightestFit returns the candidate with the smallest balance remainder
// after funding need. First candidate in enumeration order wins ties.
func tightestFit(cands []candidate, need decimal.Decimal) candidate {
	best := cands[0]
	bestRem := best.balance.Sub(need)
	for _, c := range cands[1:] {
		if rem := c.balance.Sub(need); rem.LessThan(bestRem) {
			best = c
			bestRem = rem
		}
	}
	return best
}
