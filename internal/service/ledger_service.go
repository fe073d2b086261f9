package service

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/maksimkh34/KryptoBot/internal/core/domain"
	"github.com/maksimkh34/KryptoBot/internal/core/ports"
	"github.com/maksimkh34/KryptoBot/pkg/apperror"
)

// LedgerService implements ports.AccountLedger over a write-through account
// document. A single mutex serializes every check-then-mutate sequence, so
// concurrent requests against the same account cannot interleave between the
// affordability check and the balance write.
type LedgerService struct {
	store     ports.DocumentStore[[]*domain.Account]
	adminID   int64
	debtFloor decimal.Decimal
	log       zerolog.Logger

	mu       sync.Mutex
	accounts []*domain.Account
}

// NewLedgerService loads the account document and creates the ledger.
// debtFloor is the most negative balance a non-privileged account may reach.
func NewLedgerService(
	store ports.DocumentStore[[]*domain.Account],
	adminID int64,
	debtFloor decimal.Decimal,
	log zerolog.Logger,
) *LedgerService {
	accounts := store.Load()
	log.Debug().Int("accounts", len(accounts)).Msg("account ledger loaded")
	return &LedgerService{
		store:     store,
		adminID:   adminID,
		debtFloor: debtFloor,
		log:       log,
		accounts:  accounts,
	}
}

// isPrivileged is the single capability predicate for the privileged id.
// Evaluated once at each ledger boundary, never re-implemented by callers.
func (s *LedgerService) isPrivileged(id int64) bool {
	return id == s.adminID
}

// FindAccount returns a copy of the account, or LED_001 when absent.
func (s *LedgerService) FindAccount(id int64) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findLocked(id)
	if a == nil {
		return nil, apperror.ErrAccountNotFound(id)
	}
	cp := *a
	return &cp, nil
}

// AddAccount creates an account, failing with LED_003 if the id exists.
func (s *LedgerService) AddAccount(id int64, initBalance domain.Amount, blocked bool) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(id) != nil {
		return nil, apperror.ErrAccountExists(id)
	}

	a := &domain.Account{ID: id, Blocked: blocked, Balance: initBalance}
	s.accounts = append(s.accounts, a)
	if err := s.persistLocked(); err != nil {
		s.accounts = s.accounts[:len(s.accounts)-1]
		return nil, err
	}

	s.log.Info().Int64("account_id", id).Bool("blocked", blocked).Msg("account created")
	cp := *a
	return &cp, nil
}

// Block marks the account blocked. No-op with a warning when absent.
func (s *LedgerService) Block(id int64) {
	s.setBlocked(id, true)
}

// Unblock clears the blocked flag. No-op with a warning when absent.
func (s *LedgerService) Unblock(id int64) {
	s.setBlocked(id, false)
}

func (s *LedgerService) setBlocked(id int64, blocked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findLocked(id)
	if a == nil {
		s.log.Warn().Int64("account_id", id).Msg("block state change for unknown account ignored")
		return
	}

	prev := a.Blocked
	a.Blocked = blocked
	if err := s.persistLocked(); err != nil {
		a.Blocked = prev
		s.log.Error().Err(err).Int64("account_id", id).Msg("failed to persist block state change")
		return
	}
	s.log.Info().Int64("account_id", id).Bool("blocked", blocked).Msg("account block state changed")
}

// GetBalance returns the quantized balance, domain.Unlimited for the
// privileged id, and zero for an unknown account.
func (s *LedgerService) GetBalance(id int64) decimal.Decimal {
	if s.isPrivileged(id) {
		return domain.Unlimited
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findLocked(id)
	if a == nil {
		s.log.Warn().Int64("account_id", id).Msg("balance requested for unknown account")
		return decimal.Zero
	}
	return a.Balance.Ledger()
}

// CanPay reports whether debiting amount keeps the account at or above the
// debt floor. Always true for the privileged id.
func (s *LedgerService) CanPay(id int64, amount domain.Amount) bool {
	if s.isPrivileged(id) {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canPayLocked(s.findLocked(id), amount)
}

// SubtractFromBalance atomically re-checks affordability and decrements the
// balance. Returns false and mutates nothing when the debit would breach the
// floor or persistence fails. Always true, without mutation, for the
// privileged id.
func (s *LedgerService) SubtractFromBalance(id int64, amount domain.Amount) bool {
	if s.isPrivileged(id) {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findLocked(id)
	if !s.canPayLocked(a, amount) {
		s.log.Warn().Int64("account_id", id).Str("amount", amount.String()).Msg("debit refused: below debt floor")
		return false
	}

	prev := a.Balance
	a.Balance = a.Balance.Add(amount.Neg())
	if err := s.persistLocked(); err != nil {
		a.Balance = prev
		s.log.Error().Err(err).Int64("account_id", id).Msg("failed to persist debit")
		return false
	}

	s.log.Info().Int64("account_id", id).Str("amount", amount.String()).Str("balance", a.Balance.String()).Msg("balance debited")
	return true
}

// AddToBalance unconditionally credits the account (refund path). An unknown
// id is created lazily, blocked, on this first contact. No-op for the
// privileged id.
func (s *LedgerService) AddToBalance(id int64, amount domain.Amount) {
	if s.isPrivileged(id) {
		s.log.Debug().Int64("account_id", id).Msg("credit to privileged account ignored")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findLocked(id)
	created := false
	if a == nil {
		a = &domain.Account{ID: id, Blocked: true}
		s.accounts = append(s.accounts, a)
		created = true
	}

	prev := a.Balance
	a.Balance = a.Balance.Add(amount)
	if err := s.persistLocked(); err != nil {
		a.Balance = prev
		if created {
			s.accounts = s.accounts[:len(s.accounts)-1]
		}
		s.log.Error().Err(err).Int64("account_id", id).Msg("failed to persist credit")
		return
	}

	s.log.Info().Int64("account_id", id).Str("amount", amount.String()).Str("balance", a.Balance.String()).Msg("balance credited")
}

// Transfer moves amount between two ledger accounts in one logical step,
// persisted together. An absent recipient is auto-created blocked and still
// receives this transfer; a pre-existing blocked recipient rejects it. A
// privileged sender is exempt from existence, blocked and floor checks and
// is not debited.
func (s *LedgerService) Transfer(fromID, toID int64, amount domain.Amount) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount(amount.String())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	to := s.findLocked(toID)
	created := false
	if to == nil {
		to = &domain.Account{ID: toID, Blocked: true}
		created = true
	} else if to.Blocked {
		return apperror.ErrAccountBlocked(toID)
	}

	var from *domain.Account
	if !s.isPrivileged(fromID) {
		from = s.findLocked(fromID)
		if from == nil {
			return apperror.ErrAccountNotFound(fromID)
		}
		if from.Blocked {
			return apperror.ErrAccountBlocked(fromID)
		}
		if !s.canPayLocked(from, amount) {
			s.log.Warn().Int64("from", fromID).Int64("to", toID).Str("amount", amount.String()).Msg("transfer refused: below debt floor")
			return apperror.ErrInsufficientBalance(fromID)
		}
	}

	var prevFrom domain.Amount
	if from != nil {
		prevFrom = from.Balance
		from.Balance = from.Balance.Add(amount.Neg())
	}
	prevTo := to.Balance
	to.Balance = to.Balance.Add(amount)
	if created {
		s.accounts = append(s.accounts, to)
	}

	if err := s.persistLocked(); err != nil {
		if from != nil {
			from.Balance = prevFrom
		}
		to.Balance = prevTo
		if created {
			s.accounts = s.accounts[:len(s.accounts)-1]
		}
		return err
	}

	s.log.Info().Int64("from", fromID).Int64("to", toID).Str("amount", amount.String()).Msg("transfer completed")
	return nil
}

// findLocked returns the live account entry. Callers hold s.mu.
func (s *LedgerService) findLocked(id int64) *domain.Account {
	for _, a := range s.accounts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// canPayLocked applies the debt-floor invariant on quantized balances.
// Callers hold s.mu.
func (s *LedgerService) canPayLocked(a *domain.Account, amount domain.Amount) bool {
	if a == nil {
		return false
	}
	return a.Balance.Ledger().Sub(amount.Ledger()).GreaterThanOrEqual(s.debtFloor.Neg())
}

// persistLocked writes the whole account document through. Callers hold s.mu.
func (s *LedgerService) persistLocked() error {
	if err := s.store.Save(s.accounts); err != nil {
		return apperror.ErrStorage(err)
	}
	return nil
}
