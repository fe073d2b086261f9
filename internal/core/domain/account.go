package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Unlimited is the balance sentinel reported for the privileged account,
// which is exempt from the debt floor.
var Unlimited = decimal.NewFromInt(-1)

// IsUnlimited reports whether a balance is the privileged sentinel.
func IsUnlimited(balance decimal.Decimal) bool {
	return balance.Equal(Unlimited)
}

// Account is a ledger account keyed by the external chat authority's user id.
// Accounts are created lazily, blocked by default, and never deleted.
type Account struct {
	ID      int64
	Blocked bool
	Balance Amount
}

func (a *Account) String() string {
	state := "active"
	if a.Blocked {
		state = "blocked"
	}
	return fmt.Sprintf("account %d (%s), balance %s", a.ID, state, a.Balance)
}

const accountDiscriminator = "Account"

type accountDoc struct {
	Type    string `json:"__type__"`
	ID      int64  `json:"id"`
	Blocked bool   `json:"blocked"`
	Balance Amount `json:"balance"`
}

// MarshalJSON encodes the Account as a discriminator-tagged document.
func (a Account) MarshalJSON() ([]byte, error) {
	return json.Marshal(accountDoc{
		Type:    accountDiscriminator,
		ID:      a.ID,
		Blocked: a.Blocked,
		Balance: a.Balance,
	})
}

// UnmarshalJSON decodes a discriminator-tagged Account document.
func (a *Account) UnmarshalJSON(data []byte) error {
	var doc accountDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Type != accountDiscriminator {
		return fmt.Errorf("unexpected document type %q, want %q", doc.Type, accountDiscriminator)
	}
	a.ID = doc.ID
	a.Blocked = doc.Blocked
	a.Balance = doc.Balance
	return nil
}
