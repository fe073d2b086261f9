package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/maksimkh34/KryptoBot/pkg/apperror"
)

const (
	// LedgerPlaces is the scale of the bot-internal unit of account.
	LedgerPlaces = 2
	// SettlementPlaces is the scale the settlement network expects (1 TRX = 1e6 SUN).
	SettlementPlaces = 6
)

// Amount is an immutable money value holding one canonical quantity in
// ledger currency. Conversions are pure functions of the rate supplied at
// call time; the rate is never cached inside the value, so two conversions
// separated in time may differ when the configured rate changes.
type Amount struct {
	value decimal.Decimal
}

// NewAmount builds an Amount from exactly one of a ledger-unit value or a
// settlement-unit value. Supplying both non-zero values is a validation error.
func NewAmount(ledger, settlement, rate decimal.Decimal) (Amount, error) {
	if !ledger.IsZero() && !settlement.IsZero() {
		return Amount{}, apperror.ErrInvalidAmount("ledger and settlement values are mutually exclusive")
	}
	if !settlement.IsZero() {
		return AmountFromSettlement(settlement, rate)
	}
	return AmountFromLedger(ledger), nil
}

// AmountFromLedger builds an Amount from a ledger-unit value.
func AmountFromLedger(v decimal.Decimal) Amount {
	return Amount{value: v}
}

// AmountFromSettlement builds an Amount from a settlement-unit value at the
// given rate (settlement units per ledger unit).
func AmountFromSettlement(v, rate decimal.Decimal) (Amount, error) {
	if !rate.IsPositive() {
		return Amount{}, apperror.ErrInvalidAmount(fmt.Sprintf("conversion rate must be positive, got %s", rate))
	}
	return Amount{value: v.Div(rate)}, nil
}

// Ledger returns the quantized ledger-unit value, rounded half-up to two
// decimal places.
func (a Amount) Ledger() decimal.Decimal {
	return a.value.Round(LedgerPlaces)
}

// Settlement returns the settlement-unit value at the given rate, floored to
// the settlement scale. Flooring guarantees a user is never charged more
// settlement value than the ledger payment covers.
func (a Amount) Settlement(rate decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, apperror.ErrInvalidAmount(fmt.Sprintf("conversion rate must be positive, got %s", rate))
	}
	return a.value.Mul(rate).RoundFloor(SettlementPlaces), nil
}

// Add returns a new Amount holding the sum of both values.
func (a Amount) Add(b Amount) Amount {
	return Amount{value: a.value.Add(b.value)}
}

// Neg returns the negated Amount.
func (a Amount) Neg() Amount {
	return Amount{value: a.value.Neg()}
}

// IsPositive reports whether the canonical value is strictly positive.
func (a Amount) IsPositive() bool {
	return a.value.IsPositive()
}

// IsZero reports whether the canonical value is zero.
func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

func (a Amount) String() string {
	return a.Ledger().StringFixed(LedgerPlaces)
}

const amountDiscriminator = "Amount"

type amountDoc struct {
	Type string `json:"__type__"`
	// Full-precision canonical value, serialized as a string for exactness.
	Value string `json:"value"`
}

// MarshalJSON encodes the Amount as a discriminator-tagged document.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(amountDoc{Type: amountDiscriminator, Value: a.value.String()})
}

// UnmarshalJSON decodes a discriminator-tagged Amount document.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var doc amountDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Type != amountDiscriminator {
		return fmt.Errorf("unexpected document type %q, want %q", doc.Type, amountDiscriminator)
	}
	v, err := decimal.NewFromString(doc.Value)
	if err != nil {
		return fmt.Errorf("parsing amount value: %w", err)
	}
	a.value = v
	return nil
}
