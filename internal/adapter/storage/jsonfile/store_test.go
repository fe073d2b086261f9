package jsonfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maksimkh34/KryptoBot/internal/core/domain"
)

func TestStore_LoadReturnsDefaultWhenFileAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	store := New(path, []*domain.Account{}, zerolog.Nop())

	got := store.Load()
	assert.Empty(t, got)
}

func TestStore_LoadReturnsDefaultWhenFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	store := New(path, []*domain.Account{{ID: 7}}, zerolog.Nop())
	got := store.Load()
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].ID)
}

func TestStore_LoadReturnsDefaultWhenFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := New(path, []*domain.Account{}, zerolog.Nop())
	assert.Empty(t, store.Load())
}

func TestStore_SaveCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "wallets.json")
	store := New(path, []domain.Wallet{}, zerolog.Nop())

	wallets := []domain.Wallet{domain.NewWallet("aa", "TAddrOne")}
	require.NoError(t, store.Save(wallets))

	got := store.Load()
	require.Len(t, got, 1)
	assert.Equal(t, "TAddrOne", got[0].Address())
	assert.Equal(t, "aa", got[0].SecretKey())
}

func TestStore_AccountDocumentRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	store := New(path, []*domain.Account{}, zerolog.Nop())

	accounts := []*domain.Account{
		{ID: 100, Blocked: true, Balance: domain.AmountFromLedger(decimal.RequireFromString("12.34"))},
		{ID: 200, Blocked: false, Balance: domain.AmountFromLedger(decimal.RequireFromString("-4"))},
	}
	require.NoError(t, store.Save(accounts))

	got := store.Load()
	require.Len(t, got, 2)
	assert.True(t, got[0].Blocked)
	assert.True(t, got[0].Balance.Ledger().Equal(decimal.RequireFromString("12.34")))
	assert.True(t, got[1].Balance.Ledger().Equal(decimal.RequireFromString("-4")))
}
