package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/maksimkh34/KryptoBot/internal/core/domain"
	"github.com/maksimkh34/KryptoBot/internal/core/ports"
	"github.com/maksimkh34/KryptoBot/pkg/apperror"
)

// PaymentService is the checkout orchestration consumed by the dialog layer:
// it prices a payment into a quote, debits the ledger, hands the same quote
// to the dispatcher and issues the compensating credit for every non-success
// outcome within the same call frame. The ledger's privileged id skips debit
// and compensation through the ledger's own capability checks.
type PaymentService struct {
	ledger     ports.AccountLedger
	dispatcher ports.PaymentDispatcher
	client     ports.SettlementClient
	log        zerolog.Logger
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(
	ledger ports.AccountLedger,
	dispatcher ports.PaymentDispatcher,
	client ports.SettlementClient,
	log zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		ledger:     ledger,
		dispatcher: dispatcher,
		client:     client,
		log:        log,
	}
}

// Pay sends amount to the settlement address on behalf of userID. The error
// return is non-nil only for validation failures (malformed amount or
// address); every priced attempt ends in a terminal outcome.
//
// The wallet and fee are fixed by the quote and the dispatcher executes
// that quote, so the ledger charge always matches the reported outcome. The
// account is debited amount+fee before dispatch and credited the same total
// back whenever the outcome is not a success.
func (s *PaymentService) Pay(ctx context.Context, userID int64, address string, amount domain.Amount) (domain.Outcome, error) {
	if !amount.IsPositive() {
		return domain.OutcomeError, apperror.ErrInvalidAmount(amount.String())
	}

	valid, err := s.client.ValidateAddress(ctx, address)
	if err != nil {
		s.log.Warn().Err(err).Str("address", address).Msg("address validation query failed")
		valid = false
	}
	if !valid {
		return domain.OutcomeError, apperror.ErrInvalidAddress(address)
	}

	log := s.log.With().Int64("user_id", userID).Str("to", address).Logger()

	quote, err := s.dispatcher.ChooseWallet(ctx, amount)
	if err != nil {
		if apperror.CodeOf(err) == "POOL_001" {
			log.Warn().Str("amount", amount.String()).Msg("payment refused: pool cannot fund it")
			return domain.OutcomeInsufficientFunds, nil
		}
		log.Error().Err(err).Msg("payment quote failed")
		return domain.OutcomeError, nil
	}
	log = log.With().Str("attempt", quote.Attempt).Logger()

	total := amount.Add(quote.Fee)
	if !s.ledger.SubtractFromBalance(userID, total) {
		log.Warn().Str("total", total.String()).Msg("payment refused: ledger balance insufficient")
		return domain.OutcomeInsufficientFunds, nil
	}

	outcome := s.dispatcher.Pay(ctx, quote, address, amount)
	if !outcome.Success() {
		// Compensating credit: the debit must never outlive a failed
		// dispatch, whatever the failure branch was.
		s.ledger.AddToBalance(userID, total)
		log.Warn().Str("outcome", string(outcome)).Str("total", total.String()).Msg("dispatch failed, debit credited back")
		return outcome, nil
	}

	log.Info().Str("outcome", string(outcome)).Str("total", total.String()).Msg("payment completed")
	return outcome, nil
}
