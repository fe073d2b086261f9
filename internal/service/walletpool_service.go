package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/maksimkh34/KryptoBot/internal/core/domain"
	"github.com/maksimkh34/KryptoBot/internal/core/ports"
	"github.com/maksimkh34/KryptoBot/pkg/apperror"
)

// WalletPoolService implements ports.WalletPool over a write-through wallet
// document. Live balance and bandwidth are queried from the settlement
// network at decision time and never cached; a failed query excludes the
// wallet from the current decision by reporting zero (fail-safe-exclude).
type WalletPoolService struct {
	store  ports.DocumentStore[[]domain.Wallet]
	client ports.SettlementClient
	log    zerolog.Logger

	mu      sync.Mutex
	wallets []domain.Wallet
}

// NewWalletPoolService loads the wallet document and creates the pool.
func NewWalletPoolService(
	store ports.DocumentStore[[]domain.Wallet],
	client ports.SettlementClient,
	log zerolog.Logger,
) *WalletPoolService {
	wallets := store.Load()
	log.Debug().Int("wallets", len(wallets)).Msg("wallet pool loaded")
	return &WalletPoolService{
		store:   store,
		client:  client,
		log:     log,
		wallets: wallets,
	}
}

// Wallets returns the wallet set in document order.
func (s *WalletPoolService) Wallets() []domain.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Wallet, len(s.wallets))
	copy(out, s.wallets)
	return out
}

// AddWallet validates the address against the settlement network and adds
// the wallet to the pool. Operator-only surface.
func (s *WalletPoolService) AddWallet(ctx context.Context, secretKey, address string) error {
	valid, err := s.client.ValidateAddress(ctx, address)
	if err != nil {
		return apperror.ErrSettlement(err)
	}
	if !valid {
		return apperror.ErrInvalidAddress(address)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.wallets {
		if w.Address() == address {
			return apperror.ErrWalletExists(address)
		}
	}

	s.wallets = append(s.wallets, domain.NewWallet(secretKey, address))
	if err := s.persistLocked(); err != nil {
		s.wallets = s.wallets[:len(s.wallets)-1]
		return err
	}

	s.log.Info().Str("address", address).Msg("wallet added to pool")
	return nil
}

// RemoveWallet removes the wallet with the given address. Operator-only
// surface.
func (s *WalletPoolService) RemoveWallet(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, w := range s.wallets {
		if w.Address() == address {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperror.ErrWalletNotFound(address)
	}

	removed := s.wallets[idx]
	s.wallets = append(s.wallets[:idx], s.wallets[idx+1:]...)
	if err := s.persistLocked(); err != nil {
		s.wallets = append(s.wallets[:idx], append([]domain.Wallet{removed}, s.wallets[idx:]...)...)
		return err
	}

	s.log.Info().Str("address", address).Msg("wallet removed from pool")
	return nil
}

// SetWalletBlocked withdraws a wallet from (or returns it to) funding
// decisions without removing it from the pool. Operator-only surface.
func (s *WalletPoolService) SetWalletBlocked(address string, blocked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, w := range s.wallets {
		if w.Address() != address {
			continue
		}
		prev := w
		s.wallets[i] = w.SetBlocked(blocked)
		if err := s.persistLocked(); err != nil {
			s.wallets[i] = prev
			return err
		}
		s.log.Info().Str("address", address).Bool("blocked", blocked).Msg("wallet block state changed")
		return nil
	}
	return apperror.ErrWalletNotFound(address)
}

// LiveBalance queries the wallet's settlement balance. A failed query is
// logged and reported as zero for this decision only.
func (s *WalletPoolService) LiveBalance(ctx context.Context, w domain.Wallet) decimal.Decimal {
	bal, err := s.client.Balance(ctx, w.Address())
	if err != nil {
		s.log.Warn().Err(err).Str("address", w.Address()).Msg("balance query failed, excluding wallet from this decision")
		return decimal.Zero
	}
	return bal
}

// LiveBandwidth queries the wallet's remaining free bandwidth. A failed
// query is logged and reported as zero for this decision only.
func (s *WalletPoolService) LiveBandwidth(ctx context.Context, w domain.Wallet) int64 {
	bw, err := s.client.Bandwidth(ctx, w.Address())
	if err != nil {
		s.log.Warn().Err(err).Str("address", w.Address()).Msg("bandwidth query failed, excluding wallet from this decision")
		return 0
	}
	return bw
}

// MaxPayableAmount returns the maximum live balance across unblocked
// wallets, in settlement units. Reports capacity to callers without
// dispatching.
func (s *WalletPoolService) MaxPayableAmount(ctx context.Context) decimal.Decimal {
	max := decimal.Zero
	for _, w := range s.Wallets() {
		if w.Blocked() {
			continue
		}
		if bal := s.LiveBalance(ctx, w); bal.GreaterThan(max) {
			max = bal
		}
	}
	return max
}

// persistLocked writes the whole wallet document through. Callers hold s.mu.
func (s *WalletPoolService) persistLocked() error {
	if err := s.store.Save(s.wallets); err != nil {
		return apperror.ErrStorage(err)
	}
	return nil
}
