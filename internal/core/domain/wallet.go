package domain

import (
	"encoding/json"
	"fmt"
)

// Wallet is a custodial settlement-network wallet. The secret key is owned
// exclusively by the wallet pool and surfaces only at transfer time; balance
// and bandwidth are never cached on the wallet. A blocked wallet stays in the
// pool but is withdrawn from funding decisions.
type Wallet struct {
	secretKey string
	address   string
	blocked   bool
}

// NewWallet builds an unblocked Wallet from a hex-encoded secret key and its
// derived base58check address.
func NewWallet(secretKey, address string) Wallet {
	return Wallet{secretKey: secretKey, address: address}
}

// Address returns the wallet's settlement-network address.
func (w Wallet) Address() string {
	return w.address
}

// SecretKey returns the hex-encoded secret key. Consumed only by the
// dispatcher when invoking the settlement transfer.
func (w Wallet) SecretKey() string {
	return w.secretKey
}

// Blocked reports whether the wallet is withdrawn from funding decisions.
func (w Wallet) Blocked() bool {
	return w.blocked
}

// SetBlocked returns a copy with the blocked flag set.
func (w Wallet) SetBlocked(blocked bool) Wallet {
	w.blocked = blocked
	return w
}

// String renders the wallet without exposing the secret key.
func (w Wallet) String() string {
	return fmt.Sprintf("wallet %s", w.address)
}

const walletDiscriminator = "TronWallet"

// walletDoc keeps the legacy document's discriminator and field names; the
// address is persisted alongside the key instead of being re-derived.
type walletDoc struct {
	Type      string `json:"__type__"`
	Blocked   bool   `json:"BLOCKED"`
	SecretKey string `json:"PRIVATE_KEY"`
	Address   string `json:"address"`
}

// MarshalJSON encodes the Wallet as a discriminator-tagged document.
func (w Wallet) MarshalJSON() ([]byte, error) {
	return json.Marshal(walletDoc{
		Type:      walletDiscriminator,
		Blocked:   w.blocked,
		SecretKey: w.secretKey,
		Address:   w.address,
	})
}

// UnmarshalJSON decodes a discriminator-tagged Wallet document. Documents
// written by the legacy system carry no address; the wallet loads with an
// empty one and must be re-added to become usable.
func (w *Wallet) UnmarshalJSON(data []byte) error {
	var doc walletDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Type != walletDiscriminator {
		return fmt.Errorf("unexpected document type %q, want %q", doc.Type, walletDiscriminator)
	}
	w.secretKey = doc.SecretKey
	w.address = doc.Address
	w.blocked = doc.Blocked
	return nil
}
